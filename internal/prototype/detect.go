// Package prototype recovers the structured signature of a declaration from
// the source text that follows a documentation comment.
//
// Detection runs in stages over one span: leading annotation clauses are
// skipped, the signature boundary is found by walking balanced delimiter
// groups, and the text in between is split into modifiers, type, name and
// parameters according to the language profile. Nothing past the boundary
// is scanned.
package prototype

import (
	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// Span is a piece of source text beginning right after a documentation
// comment. Offset is the absolute position of Text[0] in the file.
type Span struct {
	Text   string
	Offset int
}

type detector struct {
	*cursor
	base int
}

func (d *detector) rng(start, end int) types.Range {
	return types.Range{Start: d.base + start, End: d.base + end}
}

// Detect finds the first declaration in span and returns its prototype.
// Errors are *DetectError values with absolute ranges.
func Detect(span Span, p *profile.Profile) (*types.Prototype, error) {
	d := &detector{cursor: newCursor(span.Text, p), base: span.Offset}
	proto, err := d.detect()
	if err != nil {
		return nil, shift(err, span.Offset)
	}
	return proto, nil
}

func (d *detector) detect() (*types.Prototype, error) {
	anns, i, err := d.skipAnnotations(0, -1)
	if err != nil {
		return nil, err
	}
	start, err := d.skipSpace(i)
	if err != nil {
		return nil, err
	}

	b, err := d.findBoundary(start)
	if err != nil {
		return nil, err
	}

	proto := &types.Prototype{
		Language:    d.prof.Name,
		Annotations: append(anns, b.inline...),
	}

	declEnd := b.marker
	if b.assign >= 0 {
		declEnd = b.assign
	}
	if b.paramOpen >= 0 {
		declEnd = b.paramOpen
		proto.HasParameterList = true
		params, err := d.parseParameters(b.paramOpen, b.paramClose)
		if err != nil {
			return nil, err
		}
		proto.Parameters = params
	}

	declToks := trimSpace(d.signatureTokens(b, start, declEnd))
	var suffix []types.Token
	if b.paramOpen >= 0 {
		suffix = d.signatureTokens(b, b.paramClose+1, b.marker)
	} else {
		n := d.namedTypeEnd(declToks)
		suffix = append(append(suffix, declToks[n:]...), d.signatureTokens(b, declEnd, b.marker)...)
		declToks = declToks[:n]
	}
	suffix = trimSpace(suffix)

	var fieldType string
	if b.paramOpen < 0 && d.prof.ParameterStyle == profile.ParameterPascal {
		// "name: Type" declarations without a parameter list
		if at, after := findSeparator(declToks, matchBrackets(declToks, d.prof), ":"); at > 0 {
			fieldType = normalize(declToks[after:])
			declToks = trimSpace(declToks[:at])
		}
	}

	decl := splitDeclarator(declToks, d.prof)
	proto.Modifiers = decl.modifiers
	proto.Type = decl.typ
	proto.Name = decl.name
	proto.TypeParameters = decl.typeParameters
	if fieldType != "" {
		proto.Type = fieldType
	}

	proto.Suffix = normalize(suffix)
	if b.paramOpen >= 0 && d.prof.ParameterStyle == profile.ParameterPascal {
		d.returnType(proto, suffix)
	}

	first, last := d.toks[b.marker], d.toks[b.markerEnd-1]
	proto.Marker = types.Marker{Kind: b.kind, Text: b.text, Range: d.rng(first.Start, last.End)}
	proto.Signature = normalize(d.signatureTokens(b, start, b.marker))
	proto.Raw = d.src[:last.End]
	proto.Range = d.rng(0, last.End)
	return proto, nil
}

// namedTypeEnd returns how many tokens of a declaration without a parameter
// list belong to its declarator. For "class Foo<T> extends Bar" the
// declarator ends after "Foo<T>" and the rest is suffix.
func (d *detector) namedTypeEnd(toks []types.Token) int {
	ws := wordsOf(toks, d.prof)
	for k := 0; k+1 < len(ws); k++ {
		if d.prof.IsDeclarationKeyword(normalize(ws[k])) {
			// a group glued to the name, as in "Foo(Base)", is suffix
			name := ws[k+1]
			end := len(name)
			for n := 1; n < len(name); n++ {
				if t := name[n]; t.Kind == types.TokenPunctuation && len(t.Text) == 1 && d.prof.IsOpener(t.Text[0]) {
					end = n
					break
				}
			}
			return indexOf(toks, name[end-1]) + 1
		}
	}
	return len(toks)
}

// returnType moves a trailing ": T" or "-> T" from the suffix into Type
func (d *detector) returnType(proto *types.Prototype, suffix []types.Token) {
	if len(suffix) == 0 {
		return
	}
	for _, sep := range d.prof.ReturnTypeSeparators {
		if after, ok := spells(suffix, 0, sep); ok {
			proto.Type = normalize(suffix[after:])
			proto.Suffix = ""
			return
		}
	}
}
