package prototype

import (
	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// parseParameters splits the tokens strictly between the parentheses of a
// parameter list into parameters. open is the cursor index of "(".
func (d *detector) parseParameters(open, close int) ([]types.Parameter, error) {
	inner := d.toks[open+1 : close]
	if len(trimSpace(inner)) == 0 {
		return nil, nil
	}

	match := matchBrackets(inner, d.prof)
	segs := splitTopLevel(inner, match, ',', d.prof.GenericBrackets)

	var params []types.Parameter
	offset := open + 1
	for n, seg := range segs {
		first := offset
		offset += len(seg) + 1

		if len(trimSpace(seg)) == 0 {
			if n == len(segs)-1 && n > 0 && d.prof.AllowTrailingComma {
				break
			}
			at := d.toks[first-1].End
			return nil, d.malformed(n, at, at, "empty parameter")
		}

		p, err := d.parseParameter(n, first, first+len(seg))
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// parseParameter reads the segment of cursor tokens [from, to)
func (d *detector) parseParameter(n, from, to int) (types.Parameter, error) {
	var p types.Parameter
	seg := trimSpace(d.toks[from:to])
	p.Raw = normalize(seg)
	p.Range = d.rng(seg[0].Start, seg[len(seg)-1].End)

	anns, k, err := d.skipAnnotations(from, to)
	if err != nil {
		return p, err
	}
	for i := range anns {
		if anns[i].HasArguments {
			vals, err := ParseAnnotationArguments(anns[i].Arguments, d.prof)
			if err != nil {
				return p, shift(err, anns[i].Range.End-d.base-len(anns[i].Arguments))
			}
			anns[i].Values = vals
		}
	}
	p.Annotations = anns

	body := trimSpace(d.toks[k:to])
	if len(body) == 0 {
		return p, d.malformed(n, seg[0].Start, seg[len(seg)-1].End, "parameter %q has no declarator", p.Raw)
	}

	match := matchBrackets(body, d.prof)
	decl := body
	for _, sep := range d.prof.DefaultSeparators {
		if at, after := findSeparator(body, match, sep); at >= 0 {
			p.HasDefault = true
			p.Default = normalize(body[after:])
			decl = trimSpace(body[:at])
			break
		}
	}
	if len(decl) == 0 {
		return p, d.malformed(n, body[0].Start, body[len(body)-1].End, "default value without a parameter")
	}

	if d.prof.ParameterStyle == profile.ParameterPascal {
		d.pascalParameter(&p, decl)
	} else {
		d.cParameter(&p, decl)
	}
	if p.Name == "" && !d.prof.AllowUnnamedParameters {
		return p, d.malformed(n, decl[0].Start, decl[len(decl)-1].End, "parameter %q has no name", normalize(decl))
	}
	return p, nil
}

// cParameter handles "[modifiers] type name[dims]" declarators
func (d *detector) cParameter(p *types.Parameter, decl []types.Token) {
	match := matchBrackets(decl, d.prof)

	// trailing array dimensions belong to the type
	end := len(decl)
	for end > 0 && decl[end-1].Is(']') && match[end-1] >= 0 {
		end = match[end-1]
	}
	dims := normalize(decl[end:])
	core := trimSpace(decl[:end])

	ns := nameStart(core)
	switch {
	case ns == len(core):
		// no trailing identifier, e.g. "char *"
	case d.prof.IsTypeKeyword(core[len(core)-1].Text):
		// a bare type such as "int" in a C prototype
		ns = len(core)
	default:
		p.Name = normalize(core[ns:])
	}

	ws := wordsOf(core[:ns], d.prof)
	i := 0
	for ; i < len(ws) && d.prof.IsModifier(normalize(ws[i])); i++ {
		p.Modifiers = append(p.Modifiers, normalize(ws[i]))
	}
	var typ string
	if i < len(ws) {
		typ = normalize(core[indexOf(core, ws[i][0]):ns])
	}
	if dims != "" {
		typ += dims
	}
	p.Type = typ
}

// pascalParameter handles "[modifiers] name[?][: type]" declarators
func (d *detector) pascalParameter(p *types.Parameter, decl []types.Token) {
	match := matchBrackets(decl, d.prof)
	left := decl
	if at, after := findSeparator(decl, match, ":"); at >= 0 {
		p.Type = normalize(decl[after:])
		left = trimSpace(decl[:at])
	}

	optional := false
	if len(left) > 0 && left[len(left)-1].Is('?') {
		optional = true
		left = trimSpace(left[:len(left)-1])
	}

	ns := len(left)
	switch {
	case len(left) == 0:
	case left[len(left)-1].Kind == types.TokenIdentifier:
		ns = len(left) - 1
		p.Name = left[ns].Text
	case len(left) > 1 && match[0] == len(left)-1 && !left[0].Is('('):
		// destructuring pattern such as "{ a, b }"
		ns = 0
		p.Name = normalize(left)
	}
	for _, w := range wordsOf(trimSpace(left[:ns]), d.prof) {
		p.Modifiers = append(p.Modifiers, normalize(w))
	}
	if optional {
		p.Modifiers = append(p.Modifiers, "?")
	}
}

func wordsOf(toks []types.Token, p *profile.Profile) [][]types.Token {
	return words(toks, matchBrackets(toks, p), p.GenericBrackets)
}

func (d *detector) malformed(n, start, end int, format string, args ...any) error {
	err := newError(KindMalformedParameterSegment, start, end, format, args...)
	err.Parameter = n
	return err
}
