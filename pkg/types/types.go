package types

// =============================================================================
// TOKENS
// =============================================================================

// TokenKind classifies a scanned token
type TokenKind int

const (
	TokenIdentifier TokenKind = iota + 1
	TokenNumber
	TokenPunctuation
	TokenLiteral
	TokenWhitespace
	TokenNewline
	TokenComment
)

var tokenKindNames = map[TokenKind]string{
	TokenIdentifier:  "identifier",
	TokenNumber:      "number",
	TokenPunctuation: "punctuation",
	TokenLiteral:     "literal",
	TokenWhitespace:  "whitespace",
	TokenNewline:     "newline",
	TokenComment:     "comment",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Token is a classified substring of the scanned span.
// Start and End are byte offsets relative to the span.
type Token struct {
	Kind  TokenKind
	Text  string
	Start int
	End   int
}

// IsSpace reports whether the token carries no structure (whitespace, newline or comment)
func (t Token) IsSpace() bool {
	return t.Kind == TokenWhitespace || t.Kind == TokenNewline || t.Kind == TokenComment
}

// Is reports whether the token is the punctuation character c
func (t Token) Is(c byte) bool {
	return t.Kind == TokenPunctuation && len(t.Text) == 1 && t.Text[0] == c
}

// =============================================================================
// PROTOTYPES
// =============================================================================

// Range is a half-open byte range [Start, End) in absolute source offsets
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// AnnotationValue is one element of an interpreted annotation argument clause.
// Key is empty for bare values like the "x" in @Named("x").
type AnnotationValue struct {
	Key   string `json:"key,omitempty" yaml:"key,omitempty"`
	Value string `json:"value" yaml:"value"`
}

// Annotation is a decoration clause such as @Override or @Author(name = "x")
type Annotation struct {
	Name         string            `json:"name" yaml:"name"`
	Target       string            `json:"target,omitempty" yaml:"target,omitempty"` // use-site target, as "get" in @get:JvmName
	HasArguments bool              `json:"has_arguments" yaml:"has_arguments"`
	Arguments    string            `json:"arguments,omitempty" yaml:"arguments,omitempty"` // verbatim, including the parentheses
	Values       []AnnotationValue `json:"values,omitempty" yaml:"values,omitempty"`       // only filled for parameter annotations
	Raw          string            `json:"raw" yaml:"raw"`                                 // verbatim clause text
	Range        Range             `json:"range" yaml:"range"`
}

// Parameter is one entry of a prototype's parameter list
type Parameter struct {
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Modifiers   []string     `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Type        string       `json:"type,omitempty" yaml:"type,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	HasDefault  bool         `json:"has_default" yaml:"has_default"`
	Default     string       `json:"default,omitempty" yaml:"default,omitempty"`
	Raw         string       `json:"raw" yaml:"raw"`
	Range       Range        `json:"range" yaml:"range"`
}

// MarkerKind tells how a declaration ended
type MarkerKind string

const (
	MarkerTerminator MarkerKind = "terminator"
	MarkerBodyOpener MarkerKind = "body_opener"
)

// Marker is the terminator or body opener that closed the signature
type Marker struct {
	Kind  MarkerKind `json:"kind" yaml:"kind"`
	Text  string     `json:"text" yaml:"text"`
	Range Range      `json:"range" yaml:"range"`
}

// Prototype is the structured, annotation-stripped signature of a declaration
type Prototype struct {
	Language         string       `json:"language" yaml:"language"`
	Annotations      []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Modifiers        []string     `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Type             string       `json:"type,omitempty" yaml:"type,omitempty"`
	Name             string       `json:"name" yaml:"name"`
	TypeParameters   string       `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	HasParameterList bool         `json:"has_parameter_list" yaml:"has_parameter_list"`
	Parameters       []Parameter  `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Suffix           string       `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	Marker           Marker       `json:"marker" yaml:"marker"`
	Signature        string       `json:"signature" yaml:"signature"`
	Raw              string       `json:"raw" yaml:"raw"`
	Range            Range        `json:"range" yaml:"range"`
}

// ParameterNames returns the parameter names in order, empty for unnamed ones
func (p *Prototype) ParameterNames() []string {
	names := make([]string, len(p.Parameters))
	for i, param := range p.Parameters {
		names[i] = param.Name
	}
	return names
}

// AnnotationNames returns the declaration-level annotation names in order
func (p *Prototype) AnnotationNames() []string {
	names := make([]string, len(p.Annotations))
	for i, a := range p.Annotations {
		names[i] = a.Name
	}
	return names
}
