package prototype

import (
	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// boundary describes where a signature ends and what it contains
type boundary struct {
	start      int // first signature token
	marker     int // first token of the marker
	markerEnd  int // index after the marker
	kind       types.MarkerKind
	text       string
	paramOpen  int // index of the parameter list "(", -1 if none
	paramClose int
	assign     int // index of a top-level initializer separator, -1 if none
	inline     []types.Annotation
	skip       [][2]int // token ranges of inline annotations
}

// findBoundary walks top-level tokens from start until the first body opener
// or terminator. Delimited groups are skipped whole, so a marker nested in
// parentheses or brackets never ends the signature.
func (d *detector) findBoundary(start int) (*boundary, error) {
	b := &boundary{start: start, paramOpen: -1, assign: -1}
	seen, declared := false, false
	for j := start; ; {
		t, ok, err := d.get(j)
		if err != nil {
			return nil, err
		}
		if !ok {
			end := len(d.src)
			from := end
			if st, ok, _ := d.get(start); ok {
				from = st.Start
			}
			return nil, newError(KindNoDeclarationFound, from, end, "no terminator or body opener found")
		}
		if t.IsSpace() {
			j++
			continue
		}

		if next, text, kind, ok := d.marker(j); ok {
			if !seen {
				return nil, newError(KindNoDeclarationFound, t.Start, t.End, "%q appears before any declaration", text)
			}
			if !d.typeLiteral(j, text) {
				b.marker, b.markerEnd, b.text, b.kind = j, next, text, kind
				return b, nil
			}
		}

		if seen && d.prof.AnnotationStyle == profile.AnnotationPrefix {
			anns, next, ok, err := d.annotationAt(j, -1)
			if err != nil {
				return nil, err
			}
			if ok {
				b.inline = append(b.inline, anns...)
				b.skip = append(b.skip, [2]int{j, next})
				j = next
				continue
			}
		}

		if seen && b.assign < 0 && d.initializer(j) {
			b.assign = j
		}

		seen = true
		if t.Kind == types.TokenIdentifier && d.prof.IsDeclarationKeyword(t.Text) {
			declared = true
		}
		if t.Kind == types.TokenPunctuation && len(t.Text) == 1 {
			switch ch := t.Text[0]; {
			case d.prof.IsOpener(ch):
				close, err := d.skipBlock(j)
				if err != nil {
					return nil, err
				}
				if b.paramOpen < 0 && b.assign < 0 && d.opensParameters(j, ch, declared) {
					b.paramOpen, b.paramClose = j, close-1
				}
				j = close
				continue
			case d.prof.IsCloser(ch):
				return nil, newError(KindUnbalancedDelimiter, t.Start, t.End, "unexpected %q", t.Text)
			}
		}
		j++
	}
}

// opensParameters reports whether the group opened by ch at token j is the
// parameter list. That is the first "(" unless it lists the bases of a class,
// or a "[" following an indexer keyword such as C#'s "this".
func (d *detector) opensParameters(j int, ch byte, declared bool) bool {
	switch ch {
	case '(':
		return !(declared && d.prof.ParenthesizedBases)
	case '[':
		k := d.previous(j)
		return k >= 0 && d.toks[k].Kind == types.TokenIdentifier && d.prof.IsIndexerKeyword(d.toks[k].Text)
	}
	return false
}

// typeLiteral reports whether the body opener at token j instead opens an
// object type written right after a return-type separator, as the first "{"
// of "f(): { x: number } {".
func (d *detector) typeLiteral(j int, text string) bool {
	if len(text) != 1 || !d.prof.IsOpener(text[0]) {
		return false
	}
	k := d.previous(j)
	for _, sep := range d.prof.ReturnTypeSeparators {
		if d.endsWith(k, sep) {
			return true
		}
	}
	return false
}

// previous returns the index of the last non-space token before j, or -1
func (d *detector) previous(j int) int {
	k := j - 1
	for k >= 0 && d.toks[k].IsSpace() {
		k--
	}
	return k
}

// endsWith reports whether the adjacent tokens ending at index k spell s
func (d *detector) endsWith(k int, s string) bool {
	n := len(s)
	for n > 0 {
		if k < 0 {
			return false
		}
		t := d.toks[k].Text
		if len(t) > n || s[n-len(t):n] != t {
			return false
		}
		if n < len(s) && d.toks[k].End != d.toks[k+1].Start {
			return false
		}
		n -= len(t)
		k--
	}
	return true
}

// marker matches a body opener or terminator at token j. Body openers are
// tried first since "{" may also be a delimiter.
func (d *detector) marker(j int) (int, string, types.MarkerKind, bool) {
	best, bestText := -1, ""
	var kind types.MarkerKind
	try := func(candidates []string, k types.MarkerKind) {
		for _, m := range candidates {
			if next, ok := d.match(j, m); ok && len(m) > len(bestText) && !d.extends(next, m) {
				best, bestText, kind = next, m, k
			}
		}
	}
	try(d.prof.BodyOpeners, types.MarkerBodyOpener)
	try(d.prof.Terminators, types.MarkerTerminator)
	return best, bestText, kind, best >= 0
}

// extends reports whether the punctuation marker m is glued to a following
// operator character, as the "=" of a Kotlin body is not part of "==".
func (d *detector) extends(next int, m string) bool {
	if len(m) != 1 || m[0] != '=' && m[0] != ':' {
		return false
	}
	t, ok, _ := d.get(next)
	return ok && t.Kind == types.TokenPunctuation && len(t.Text) == 1 && (t.Text[0] == '=' || t.Text[0] == '>' || t.Text[0] == ':')
}

// initializer reports whether token j starts a default separator such as
// the "=" of a field initializer
func (d *detector) initializer(j int) bool {
	for _, sep := range d.prof.DefaultSeparators {
		next, ok := d.match(j, sep)
		if !ok {
			continue
		}
		if j > 0 && glued(d.toks[j], d.toks[j-1]) {
			continue
		}
		if t, ok, _ := d.get(next); ok && glued(d.toks[next-1], t) {
			continue
		}
		return true
	}
	return false
}

// signatureTokens returns the tokens between start and the marker with
// inline annotations removed.
func (d *detector) signatureTokens(b *boundary, from, to int) []types.Token {
	var out []types.Token
	for j := from; j < to; j++ {
		skipped := false
		for _, r := range b.skip {
			if j >= r[0] && j < r[1] {
				j = r[1] - 1
				skipped = true
				break
			}
		}
		if skipped {
			// keep words apart where the annotation was
			out = append(out, types.Token{Kind: types.TokenWhitespace, Text: " ", Start: d.toks[j].End, End: d.toks[j].End})
			continue
		}
		out = append(out, d.toks[j])
	}
	return out
}
