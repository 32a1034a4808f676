package prototype

import (
	"strings"

	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// skipAnnotations consumes consecutive annotation clauses starting at token i,
// stopping before limit when limit >= 0. It returns the clauses and the index
// after the last one; with no clauses the index is i unchanged.
func (d *detector) skipAnnotations(i, limit int) ([]types.Annotation, int, error) {
	var out []types.Annotation
	for {
		j, err := d.skipSpace(i)
		if err != nil {
			return nil, i, err
		}
		if limit >= 0 && j >= limit {
			return out, i, nil
		}
		anns, next, ok, err := d.annotationAt(j, limit)
		if err != nil {
			return nil, i, err
		}
		if !ok {
			return out, i, nil
		}
		out = append(out, anns...)
		i = next
	}
}

// annotationAt parses the clause starting at token i. ok is false when the
// tokens there do not form an annotation; nothing is consumed in that case.
func (d *detector) annotationAt(i, limit int) ([]types.Annotation, int, bool, error) {
	switch d.prof.AnnotationStyle {
	case profile.AnnotationPrefix:
		a, next, ok, err := d.prefixAnnotation(i, limit)
		if !ok || err != nil {
			return nil, i, ok, err
		}
		return []types.Annotation{a}, next, true, nil
	case profile.AnnotationBracket:
		return d.bracketAnnotations(i)
	}
	return nil, i, false, nil
}

func (d *detector) prefixAnnotation(i, limit int) (types.Annotation, int, bool, error) {
	var a types.Annotation

	k, ok := d.match(i, d.prof.AnnotationPrefix)
	if !ok {
		return a, i, false, nil
	}
	if d.prof.SpaceAfterPrefix {
		var err error
		if k, err = d.skipSpace(k); err != nil {
			return a, i, false, err
		}
	}

	if target, next, ok := d.useSiteTarget(k); ok {
		a.Target = target
		k = next
	}

	name, k, ok, err := d.annotationName(k)
	if err != nil || !ok || d.prof.IsExcludedAnnotation(name) {
		return a, i, false, err
	}
	if limit >= 0 && k > limit {
		return a, i, false, nil
	}
	a.Name = name
	end := k

	// optional argument clause
	m := k
	for {
		t, ok, err := d.get(m)
		if err != nil {
			return a, i, false, err
		}
		if !ok || !t.IsSpace() || (t.Kind != types.TokenWhitespace && !d.prof.ArgumentsAcrossNewline) {
			break
		}
		m++
	}
	if t, ok, _ := d.get(m); ok && t.Is('(') && (limit < 0 || m < limit) {
		close, err := d.skipBlock(m)
		if err != nil {
			return a, i, false, err
		}
		a.HasArguments = true
		a.Arguments = d.src[d.toks[m].Start:d.toks[close-1].End]
		end = close
	}

	start := d.toks[i].Start
	stop := d.toks[end-1].End
	a.Raw = d.src[start:stop]
	a.Range = d.rng(start, stop)
	return a, end, true, nil
}

// useSiteTarget matches a "target:" prefix such as the "get:" of
// @get:JvmName. The target must be known to the profile and the colon must
// touch the name that follows.
func (d *detector) useSiteTarget(i int) (string, int, bool) {
	t, ok, _ := d.get(i)
	if !ok || t.Kind != types.TokenIdentifier || !d.prof.IsAnnotationTarget(t.Text) {
		return "", i, false
	}
	colon, ok, _ := d.get(i + 1)
	if !ok || !colon.Is(':') || colon.Start != t.End {
		return "", i, false
	}
	name, ok, _ := d.get(i + 2)
	if !ok || name.Kind != types.TokenIdentifier || name.Start != colon.End {
		return "", i, false
	}
	return t.Text, i + 2, true
}

// annotationName reads an identifier, qualified with dots when the profile
// allows it.
func (d *detector) annotationName(i int) (string, int, bool, error) {
	t, ok, err := d.get(i)
	if err != nil || !ok || t.Kind != types.TokenIdentifier {
		return "", i, false, err
	}
	var sb strings.Builder
	sb.WriteString(t.Text)
	k := i + 1
	for d.prof.QualifiedAnnotationNames {
		dot, ok, _ := d.get(k)
		if !ok || !dot.Is('.') {
			break
		}
		part, ok, _ := d.get(k + 1)
		if !ok || part.Kind != types.TokenIdentifier {
			break
		}
		sb.WriteByte('.')
		sb.WriteString(part.Text)
		k += 2
	}
	return sb.String(), k, true, nil
}

// bracketAnnotations parses a [Attr, Other(x)] group into one annotation per
// attribute.
func (d *detector) bracketAnnotations(i int) ([]types.Annotation, int, bool, error) {
	t, ok, err := d.get(i)
	if err != nil || !ok || !t.Is('[') {
		return nil, i, false, err
	}
	first, err := d.skipSpace(i + 1)
	if err != nil {
		return nil, i, false, err
	}
	if ft, ok, _ := d.get(first); !ok || ft.Kind != types.TokenIdentifier {
		return nil, i, false, nil
	}
	close, err := d.skipBlock(i)
	if err != nil {
		return nil, i, false, err
	}

	inner := d.toks[i+1 : close-1]
	match := matchBrackets(inner, d.prof)
	var out []types.Annotation
	for _, seg := range splitTopLevel(inner, match, ',', false) {
		seg = trimSpace(seg)
		if len(seg) == 0 {
			continue
		}
		out = append(out, d.attribute(seg))
	}
	return out, close, true, nil
}

// attribute reads one "[target:] Name[(args)]" entry of a bracket group
func (d *detector) attribute(seg []types.Token) types.Annotation {
	start, stop := seg[0].Start, seg[len(seg)-1].End
	a := types.Annotation{Raw: d.src[start:stop], Range: d.rng(start, stop)}

	// drop an attribute target such as "return:"
	body := seg
	if body[0].Kind == types.TokenIdentifier {
		n := 1
		for n < len(body) && body[n].IsSpace() {
			n++
		}
		if n < len(body) && body[n].Is(':') && (n+1 >= len(body) || !body[n+1].Is(':')) {
			a.Target = body[0].Text
			body = trimSpace(body[n+1:])
		}
	}

	for j, t := range body {
		if t.Is('(') {
			a.Name = normalize(body[:j])
			a.HasArguments = true
			a.Arguments = d.src[t.Start:body[len(body)-1].End]
			return a
		}
	}
	a.Name = normalize(body)
	return a
}

// ParseAnnotationArguments interprets an argument clause such as
// `(name = "x", 3)` as key/value pairs and bare values. The surrounding
// parentheses are optional.
func ParseAnnotationArguments(raw string, p *profile.Profile) ([]types.AnnotationValue, error) {
	toks, err := scanAll(raw, p)
	if err != nil {
		return nil, err
	}
	toks = trimSpace(toks)
	if err := checkBalanced(toks, p); err != nil {
		return nil, err
	}
	match := matchBrackets(toks, p)
	if len(toks) >= 2 && toks[0].Is('(') && match[0] == len(toks)-1 {
		toks = toks[1 : len(toks)-1]
		match = matchBrackets(toks, p)
	}

	var out []types.AnnotationValue
	for _, seg := range splitTopLevel(toks, match, ',', p.GenericBrackets) {
		seg = trimSpace(seg)
		if len(seg) == 0 {
			continue
		}
		v := types.AnnotationValue{Value: verbatim(raw, seg)}
		segMatch := matchBrackets(seg, p)
		if eq, after := findSeparator(seg, segMatch, "="); eq > 0 {
			v.Key = normalize(seg[:eq])
			v.Value = verbatim(raw, trimSpace(seg[after:]))
		}
		out = append(out, v)
	}
	return out, nil
}

func scanAll(src string, p *profile.Profile) ([]types.Token, error) {
	sc := NewScanner(src, p)
	var toks []types.Token
	for {
		t, ok := sc.Next()
		if !ok {
			break
		}
		toks = append(toks, t)
	}
	return toks, sc.Err()
}

func checkBalanced(toks []types.Token, p *profile.Profile) error {
	var stack []types.Token
	for _, t := range toks {
		if t.Kind != types.TokenPunctuation || len(t.Text) != 1 {
			continue
		}
		switch {
		case p.IsOpener(t.Text[0]):
			stack = append(stack, t)
		case p.IsCloser(t.Text[0]):
			if len(stack) == 0 || p.CloserOf(stack[len(stack)-1].Text[0]) != t.Text[0] {
				return newError(KindUnbalancedDelimiter, t.Start, t.End, "unexpected %q", t.Text)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return newError(KindUnbalancedDelimiter, top.Start, top.End, "%q is never closed", top.Text)
	}
	return nil
}

func verbatim(src string, toks []types.Token) string {
	if len(toks) == 0 {
		return ""
	}
	return src[toks[0].Start:toks[len(toks)-1].End]
}
