package prototype

import (
	"strings"

	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// normalize renders tokens on one line. Runs of whitespace, newlines and
// comments collapse to a single space and the ends are trimmed.
func normalize(toks []types.Token) string {
	var sb strings.Builder
	pending := false
	for _, t := range toks {
		if t.IsSpace() {
			pending = sb.Len() > 0
			continue
		}
		if pending {
			sb.WriteByte(' ')
			pending = false
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func trimSpace(toks []types.Token) []types.Token {
	for len(toks) > 0 && toks[0].IsSpace() {
		toks = toks[1:]
	}
	for len(toks) > 0 && toks[len(toks)-1].IsSpace() {
		toks = toks[:len(toks)-1]
	}
	return toks
}

// splitTopLevel cuts toks at every sep punctuation that is not nested inside
// a delimiter group, or inside a generic group when angles is set. It always
// returns at least one segment.
//
// Past a top-level "=" the segment is a value, where "<" is usually a
// comparison; there only explicit type arguments such as listOf<A, B>()
// hold a generic group together.
func splitTopLevel(toks []types.Token, match []int, sep byte, angles bool) [][]types.Token {
	var out [][]types.Token
	start := 0
	value := false
	for j := 0; j < len(toks); j++ {
		t := toks[j]
		switch {
		case match[j] > j:
			j = match[j]
		case angles && t.Is('<'):
			if m := matchAngle(toks, j, len(toks), match); m > j && (!value || typeArguments(toks, j, m)) {
				j = m
			}
		case t.Is(sep):
			out = append(out, toks[start:j])
			start = j + 1
			value = false
		case t.Is('=') && (j == 0 || !glued(t, toks[j-1])) && (j+1 == len(toks) || !glued(t, toks[j+1])):
			value = true
		}
	}
	return append(out, toks[start:])
}

// typeArguments reports whether the generic group toks[lt..gt] is glued to
// the identifier before it and directly followed by a call
func typeArguments(toks []types.Token, lt, gt int) bool {
	if lt == 0 || gt+1 >= len(toks) {
		return false
	}
	prev, next := toks[lt-1], toks[gt+1]
	return prev.Kind == types.TokenIdentifier && prev.End == toks[lt].Start &&
		next.Is('(') && next.Start == toks[gt].End
}

// confusable characters that extend a separator into a different operator
const operatorChars = "=!<>:"

// findSeparator returns the index of the first top-level occurrence of sep
// and the index just after it, or -1. An occurrence glued to another operator
// character, as "=" is in "==" or "=>", does not count.
func findSeparator(toks []types.Token, match []int, sep string) (int, int) {
	for j := 0; j < len(toks); j++ {
		if match[j] > j {
			j = match[j]
			continue
		}
		after, ok := spells(toks, j, sep)
		if !ok {
			continue
		}
		if j > 0 && glued(toks[j], toks[j-1]) {
			continue
		}
		if after < len(toks) && glued(toks[after-1], toks[after]) {
			continue
		}
		return j, after
	}
	return -1, -1
}

// glued reports whether neighbor touches t and is an operator character
func glued(t, neighbor types.Token) bool {
	if t.End != neighbor.Start && neighbor.End != t.Start {
		return false
	}
	return neighbor.Kind == types.TokenPunctuation && len(neighbor.Text) == 1 &&
		strings.IndexByte(operatorChars, neighbor.Text[0]) >= 0
}

// spells reports whether toks starting at i spell s exactly
func spells(toks []types.Token, i int, s string) (int, bool) {
	n := 0
	for j := i; j < len(toks); j++ {
		t := toks[j]
		if t.IsSpace() || n+len(t.Text) > len(s) || s[n:n+len(t.Text)] != t.Text {
			return i, false
		}
		n += len(t.Text)
		if n == len(s) {
			return j + 1, true
		}
	}
	return i, false
}

// words splits toks at top-level whitespace. Delimiter and generic groups
// stay inside the word they belong to.
func words(toks []types.Token, match []int, angles bool) [][]types.Token {
	var out [][]types.Token
	start := -1
	for j := 0; j < len(toks); j++ {
		t := toks[j]
		if t.IsSpace() {
			if start >= 0 {
				out = append(out, toks[start:j])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = j
		}
		switch {
		case match[j] > j:
			j = match[j]
		case angles && t.Is('<'):
			if m := matchAngle(toks, j, len(toks), match); m > j {
				j = m
			}
		}
	}
	if start >= 0 {
		out = append(out, toks[start:])
	}
	return out
}

// declarator is the part of a signature before its parameter list
type declarator struct {
	modifiers      []string
	typ            string
	name           string
	typeParameters string
}

// splitDeclarator separates modifiers, type, name and generic parameters
func splitDeclarator(toks []types.Token, p *profile.Profile) declarator {
	var d declarator
	toks = trimSpace(toks)

	if p.GenericBrackets && len(toks) > 0 && toks[len(toks)-1].Is('>') {
		if lt := openingAngle(toks, matchBrackets(toks, p)); lt > 0 {
			d.typeParameters = normalize(toks[lt:])
			toks = trimSpace(toks[:lt])
		}
	}

	ns := nameStart(toks)
	if ns < len(toks) {
		d.name = normalize(toks[ns:])
	}

	prefix := trimSpace(toks[:ns])
	ws := words(prefix, matchBrackets(prefix, p), p.GenericBrackets)
	i := 0
	for ; i < len(ws); i++ {
		if d.typeParameters == "" && p.GenericBrackets && isAngleGroup(ws[i], p) {
			d.typeParameters = normalize(ws[i])
			continue
		}
		w := normalize(ws[i])
		if p.ParameterStyle == profile.ParameterC && !p.IsModifier(w) {
			break
		}
		d.modifiers = append(d.modifiers, w)
	}
	if i < len(ws) {
		d.typ = normalize(prefix[indexOf(prefix, ws[i][0]):])
	}
	return d
}

// nameStart returns the index where the trailing declared name begins, or
// len(toks) when the tokens do not end in a name. Names may be qualified with
// "." or "::" and prefixed with "~" for destructors.
func nameStart(toks []types.Token) int {
	n := len(toks)
	if n == 0 {
		return n
	}
	if toks[n-1].Kind != types.TokenIdentifier {
		// operator overloads such as "operator==" or "operator[]"
		for k := n - 2; k >= 0 && !toks[k+1].IsSpace(); k-- {
			if toks[k].Kind == types.TokenIdentifier && toks[k].Text == "operator" {
				return k
			}
			if toks[k].Kind == types.TokenIdentifier {
				break
			}
		}
		return n
	}
	s := n - 1
	if s >= 1 && toks[s-1].Is('~') {
		s--
	}
	for {
		switch {
		case s >= 2 && toks[s-1].Is('.') && toks[s-2].Kind == types.TokenIdentifier:
			s -= 2
			continue
		case s >= 3 && toks[s-1].Is(':') && toks[s-2].Is(':') && toks[s-3].Kind == types.TokenIdentifier:
			s -= 3
			continue
		}
		break
	}
	return s
}

// openingAngle finds the '<' matching a trailing '>', or -1
func openingAngle(toks []types.Token, match []int) int {
	depth := 0
	for j := len(toks) - 1; j >= 0; j-- {
		t := toks[j]
		switch {
		case match[j] >= 0 && match[j] < j:
			j = match[j]
		case t.Is('>'):
			if j > 0 && (toks[j-1].Is('-') || toks[j-1].Is('=')) {
				continue
			}
			depth++
		case t.Is('<'):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func isAngleGroup(w []types.Token, p *profile.Profile) bool {
	if len(w) < 2 || !w[0].Is('<') || !w[len(w)-1].Is('>') {
		return false
	}
	return matchAngle(w, 0, len(w), matchBrackets(w, p)) == len(w)-1
}

func indexOf(toks []types.Token, t types.Token) int {
	for i := range toks {
		if toks[i].Start == t.Start && toks[i].Text == t.Text {
			return i
		}
	}
	return len(toks)
}
