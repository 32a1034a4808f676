// Package format renders detected prototypes as plain text for terminals and
// tool responses.
package format

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saeedalam/protodetect/pkg/types"
)

// Prototype renders the annotations, one per line, followed by the
// one-line signature.
func Prototype(p *types.Prototype) string {
	var sb strings.Builder
	for _, a := range p.Annotations {
		sb.WriteString(Annotation(a) + "\n")
	}
	sb.WriteString(p.Signature + "\n")
	return sb.String()
}

// Annotation renders an annotation clause on one line. Bracket-style
// attributes, whose raw text has no prefix marker, are wrapped in brackets.
func Annotation(a types.Annotation) string {
	s := oneLine(a.Raw)
	if r, _ := utf8.DecodeRuneInString(s); unicode.IsLetter(r) {
		return "[" + s + "]"
	}
	return s
}

// Detail renders every field of a prototype, one per line
func Detail(p *types.Prototype) string {
	var sb strings.Builder

	sb.WriteString("// " + displayName(p) + " - PROTOTYPE\n")
	sb.WriteString("// Language: " + p.Language + "\n")
	sb.WriteString("// Range: " + itoa(p.Range.Start) + "-" + itoa(p.Range.End) +
		" (" + string(p.Marker.Kind) + " " + strconv.Quote(p.Marker.Text) + ")\n\n")

	if len(p.Annotations) > 0 {
		sb.WriteString("annotations:\n")
		for _, a := range p.Annotations {
			sb.WriteString("  " + Annotation(a) + "\n")
		}
	}
	if len(p.Modifiers) > 0 {
		sb.WriteString("modifiers: " + strings.Join(p.Modifiers, " ") + "\n")
	}
	if p.Type != "" {
		sb.WriteString("type: " + p.Type + "\n")
	}
	sb.WriteString("name: " + p.Name + "\n")
	if p.TypeParameters != "" {
		sb.WriteString("type parameters: " + p.TypeParameters + "\n")
	}

	switch {
	case !p.HasParameterList:
		sb.WriteString("parameters: none (no parameter list)\n")
	case len(p.Parameters) == 0:
		sb.WriteString("parameters: ()\n")
	default:
		sb.WriteString("parameters (" + itoa(len(p.Parameters)) + "):\n")
		for i, param := range p.Parameters {
			sb.WriteString("  " + itoa(i+1) + ". " + Parameter(param) + "\n")
		}
	}

	if p.Suffix != "" {
		sb.WriteString("suffix: " + p.Suffix + "\n")
	}
	sb.WriteString("signature: " + p.Signature + "\n")
	return sb.String()
}

// Parameter renders one parameter as "name: type", followed by its
// annotations and default value
func Parameter(p types.Parameter) string {
	var sb strings.Builder
	name := p.Name
	if name == "" {
		name = "_"
	}
	if len(p.Modifiers) > 0 {
		sb.WriteString(strings.Join(p.Modifiers, " ") + " ")
	}
	sb.WriteString(name)
	if p.Type != "" {
		sb.WriteString(": " + p.Type)
	}
	if p.HasDefault {
		sb.WriteString(" = " + p.Default)
	}
	for _, a := range p.Annotations {
		sb.WriteString("  " + Annotation(a))
	}
	return sb.String()
}

// Parameters renders a parameter list the way a signature would show it
func Parameters(params []types.Parameter) string {
	var parts []string
	for _, p := range params {
		s := p.Name
		if p.Type != "" {
			s += ": " + p.Type
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func displayName(p *types.Prototype) string {
	if p.Name == "" {
		return "(anonymous)"
	}
	return p.Name
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
