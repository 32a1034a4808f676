package prototype

import (
	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// cursor buffers tokens from a Scanner so the detector can look ahead and
// back up. Tokens are only scanned when first requested, so text after the
// prototype boundary is never examined.
type cursor struct {
	src  string
	prof *profile.Profile
	sc   *Scanner
	toks []types.Token
	done bool
}

func newCursor(src string, p *profile.Profile) *cursor {
	return &cursor{src: src, prof: p, sc: NewScanner(src, p)}
}

// get returns token i. ok is false past the end of input; err is set when
// reaching token i required scanning a malformed literal or comment.
func (c *cursor) get(i int) (tok types.Token, ok bool, err error) {
	for !c.done && i >= len(c.toks) {
		t, more := c.sc.Next()
		if !more {
			c.done = true
			break
		}
		c.toks = append(c.toks, t)
	}
	if i < len(c.toks) {
		return c.toks[i], true, nil
	}
	if err := c.sc.Err(); err != nil {
		return types.Token{}, false, err
	}
	return types.Token{}, false, nil
}

// match reports whether the token texts starting at i spell s exactly,
// returning the index after the last token used.
func (c *cursor) match(i int, s string) (int, bool) {
	if s == "" {
		return i, false
	}
	n := 0
	for j := i; ; j++ {
		t, ok, _ := c.get(j)
		if !ok || t.IsSpace() {
			return i, false
		}
		if n+len(t.Text) > len(s) || s[n:n+len(t.Text)] != t.Text {
			return i, false
		}
		n += len(t.Text)
		if n == len(s) {
			return j + 1, true
		}
	}
}

// skipSpace returns the index of the first token at or after i that is not
// whitespace, a newline or a comment.
func (c *cursor) skipSpace(i int) (int, error) {
	for {
		t, ok, err := c.get(i)
		if err != nil {
			return i, err
		}
		if !ok || !t.IsSpace() {
			return i, nil
		}
		i++
	}
}

// skipBlock expects token i to be an opening delimiter and returns the index
// just past its matching closer. Literals and comments are single tokens, so
// delimiters inside them are never counted.
func (c *cursor) skipBlock(i int) (int, error) {
	open, _, err := c.get(i)
	if err != nil {
		return i, err
	}
	stack := []types.Token{open}
	for j := i + 1; ; j++ {
		t, ok, err := c.get(j)
		if err != nil {
			return i, err
		}
		if !ok {
			top := stack[len(stack)-1]
			return i, newError(KindUnbalancedDelimiter, top.Start, len(c.src),
				"%q is never closed", top.Text)
		}
		if t.Kind != types.TokenPunctuation || len(t.Text) != 1 {
			continue
		}
		ch := t.Text[0]
		switch {
		case c.prof.IsOpener(ch):
			stack = append(stack, t)
		case c.prof.IsCloser(ch):
			top := stack[len(stack)-1]
			if want := c.prof.CloserOf(top.Text[0]); ch != want {
				return i, newError(KindUnbalancedDelimiter, top.Start, t.End,
					"%q closed by %q, expected %q", top.Text, t.Text, string(want))
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return j + 1, nil
			}
		}
	}
}

// Balance returns the offset just past the delimiter matching the opener at
// src[start]. Literals and comments between them are skipped.
func Balance(src string, start int, p *profile.Profile) (int, error) {
	if start < 0 || start >= len(src) || !p.IsOpener(src[start]) {
		return 0, newError(KindUnbalancedDelimiter, start, start, "no opening delimiter at offset %d", start)
	}
	c := newCursor(src[start:], p)
	end, err := c.skipBlock(0)
	if err != nil {
		return 0, shift(err, start)
	}
	t, _, _ := c.get(end - 1)
	return start + t.End, nil
}

// matchBrackets pairs the delimiters of an already balanced token run. The
// result maps each opener index to its closer index and vice versa; other
// entries are -1.
func matchBrackets(toks []types.Token, p *profile.Profile) []int {
	match := make([]int, len(toks))
	var stack []int
	for i, t := range toks {
		match[i] = -1
		if t.Kind != types.TokenPunctuation || len(t.Text) != 1 {
			continue
		}
		switch {
		case p.IsOpener(t.Text[0]):
			stack = append(stack, i)
		case p.IsCloser(t.Text[0]) && len(stack) > 0:
			o := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			match[o] = i
			match[i] = o
		}
	}
	return match
}

// matchAngle finds the '>' closing the generic group opened by the '<' at
// toks[i], or -1. Balanced delimiter groups inside are skipped whole; a '>'
// that is part of "->" or "=>" does not close.
func matchAngle(toks []types.Token, i, limit int, match []int) int {
	depth := 0
	for j := i; j < limit; j++ {
		t := toks[j]
		if t.Kind != types.TokenPunctuation {
			continue
		}
		if match[j] > j {
			j = match[j]
			continue
		}
		switch {
		case t.Is('<'):
			depth++
		case t.Is('>'):
			if j > 0 && (toks[j-1].Is('-') || toks[j-1].Is('=')) {
				continue
			}
			depth--
			if depth == 0 {
				return j
			}
		case t.Is(';') || match[j] >= 0:
			return -1
		}
	}
	return -1
}

// shift moves the range of a detection error by base
func shift(err error, base int) error {
	de, ok := err.(*DetectError)
	if !ok || base == 0 {
		return err
	}
	out := *de
	out.Range.Start += base
	out.Range.End += base
	return &out
}
