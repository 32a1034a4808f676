// Package profile describes the lexical and annotation conventions of each
// supported language. Profiles are immutable once registered.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// AnnotationStyle selects how annotation clauses are introduced
type AnnotationStyle string

const (
	AnnotationNone    AnnotationStyle = "none"
	AnnotationPrefix  AnnotationStyle = "prefix"  // @Name(args)
	AnnotationBracket AnnotationStyle = "bracket" // [Name(args), Other]
)

// ParameterStyle selects how a parameter segment is split into type and name
type ParameterStyle string

const (
	ParameterC      ParameterStyle = "c"      // [modifiers] type name [= default]
	ParameterPascal ParameterStyle = "pascal" // [modifiers] name[: type] [= default]
)

// BlockComment is an open/close comment pair such as /* */
type BlockComment struct {
	Open  string `yaml:"open" json:"open" validate:"required"`
	Close string `yaml:"close" json:"close" validate:"required"`
}

// Profile is the configuration of one host language
type Profile struct {
	Name       string   `yaml:"name" json:"name" validate:"required,lowercase"`
	Aliases    []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty" validate:"dive,startswith=."`

	AnnotationStyle          AnnotationStyle `yaml:"annotation_style" json:"annotation_style" validate:"required,oneof=none prefix bracket"`
	AnnotationPrefix         string          `yaml:"annotation_prefix,omitempty" json:"annotation_prefix,omitempty" validate:"required_if=AnnotationStyle prefix"`
	SpaceAfterPrefix         bool            `yaml:"space_after_prefix" json:"space_after_prefix"`
	QualifiedAnnotationNames bool            `yaml:"qualified_annotation_names" json:"qualified_annotation_names"`
	ArgumentsAcrossNewline   bool            `yaml:"arguments_across_newline" json:"arguments_across_newline"`
	AnnotationExclusions     []string        `yaml:"annotation_exclusions,omitempty" json:"annotation_exclusions,omitempty"`
	AnnotationTargets        []string        `yaml:"annotation_targets,omitempty" json:"annotation_targets,omitempty"`

	Delimiters      []string `yaml:"delimiters" json:"delimiters" validate:"required,min=1,dive,len=2"`
	GenericBrackets bool     `yaml:"generic_brackets" json:"generic_brackets"`

	StringDelimiters []string       `yaml:"string_delimiters" json:"string_delimiters" validate:"dive,required"`
	Escape           string         `yaml:"escape,omitempty" json:"escape,omitempty" validate:"omitempty,len=1"`
	LineComments     []string       `yaml:"line_comments,omitempty" json:"line_comments,omitempty" validate:"dive,required"`
	BlockComments    []BlockComment `yaml:"block_comments,omitempty" json:"block_comments,omitempty" validate:"dive"`

	Terminators []string `yaml:"terminators,omitempty" json:"terminators,omitempty" validate:"dive,required"`
	BodyOpeners []string `yaml:"body_openers" json:"body_openers" validate:"required,min=1,dive,required"`

	ParameterStyle         ParameterStyle `yaml:"parameter_style" json:"parameter_style" validate:"required,oneof=c pascal"`
	DefaultSeparators      []string       `yaml:"default_separators,omitempty" json:"default_separators,omitempty" validate:"dive,required"`
	ReturnTypeSeparators   []string       `yaml:"return_type_separators,omitempty" json:"return_type_separators,omitempty" validate:"dive,required"`
	Modifiers              []string       `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`
	TypeKeywords           []string       `yaml:"type_keywords,omitempty" json:"type_keywords,omitempty"`
	DeclarationKeywords    []string       `yaml:"declaration_keywords,omitempty" json:"declaration_keywords,omitempty"`
	ParenthesizedBases     bool           `yaml:"parenthesized_bases" json:"parenthesized_bases"`
	IndexerKeywords        []string       `yaml:"indexer_keywords,omitempty" json:"indexer_keywords,omitempty"`
	AllowUnnamedParameters bool           `yaml:"allow_unnamed_parameters" json:"allow_unnamed_parameters"`
	AllowTrailingComma     bool           `yaml:"allow_trailing_comma" json:"allow_trailing_comma"`

	// lookup sets, built by seal
	modifierSet map[string]bool
	typeSet     map[string]bool
	excludedSet map[string]bool
	declSet     map[string]bool
	targetSet   map[string]bool
	indexerSet  map[string]bool
	fingerprint string
	closerOf    map[byte]byte
	openerOf    map[byte]byte
	escapeByte  byte
	sealed      bool
}

// seal fills defaults and builds the lookup tables. It must run before the
// profile is shared; afterwards the profile is never mutated.
func (p *Profile) seal() {
	if p.sealed {
		return
	}
	p.Name = strings.ToLower(p.Name)
	if len(p.Delimiters) == 0 {
		p.Delimiters = []string{"()", "[]", "{}"}
	}
	if len(p.BodyOpeners) == 0 {
		p.BodyOpeners = []string{"{"}
	}
	if len(p.DefaultSeparators) == 0 {
		p.DefaultSeparators = []string{"="}
	}
	if p.AnnotationStyle == "" {
		p.AnnotationStyle = AnnotationNone
	}
	if p.ParameterStyle == "" {
		p.ParameterStyle = ParameterC
	}
	p.escapeByte = '\\'
	if p.Escape != "" {
		p.escapeByte = p.Escape[0]
	}

	p.closerOf = make(map[byte]byte, len(p.Delimiters))
	p.openerOf = make(map[byte]byte, len(p.Delimiters))
	for _, d := range p.Delimiters {
		if len(d) == 2 {
			p.closerOf[d[0]] = d[1]
			p.openerOf[d[1]] = d[0]
		}
	}

	p.modifierSet = toSet(p.Modifiers)
	p.typeSet = toSet(p.TypeKeywords)
	p.excludedSet = toSet(p.AnnotationExclusions)
	p.declSet = toSet(p.DeclarationKeywords)
	p.targetSet = toSet(p.AnnotationTargets)
	p.indexerSet = toSet(p.IndexerKeywords)
	p.fingerprint = p.digest()
	p.sealed = true
}

// digest hashes every exported field, so two profiles with the same name but
// different settings never share a fingerprint.
func (p *Profile) digest() string {
	data, err := json.Marshal(p)
	if err != nil {
		// only exported strings, bools and slices of them are encoded
		panic("profile: encode " + p.Name + ": " + err.Error())
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies the profile's settings. Results detected with one
// fingerprint are valid for every profile with the same fingerprint.
func (p *Profile) Fingerprint() string {
	if !p.sealed {
		return p.digest()
	}
	return p.fingerprint
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// IsOpener reports whether c opens a balanced delimiter pair
func (p *Profile) IsOpener(c byte) bool {
	_, ok := p.closerOf[c]
	return ok
}

// IsCloser reports whether c closes a balanced delimiter pair
func (p *Profile) IsCloser(c byte) bool {
	_, ok := p.openerOf[c]
	return ok
}

// CloserOf returns the closing delimiter for the opener c
func (p *Profile) CloserOf(c byte) byte {
	return p.closerOf[c]
}

// EscapeChar is the byte that escapes a quote inside a literal
func (p *Profile) EscapeChar() byte {
	return p.escapeByte
}

// IsModifier reports whether word is a declaration modifier keyword
func (p *Profile) IsModifier(word string) bool {
	return p.modifierSet[word]
}

// IsTypeKeyword reports whether word is a built-in type that cannot be a name
func (p *Profile) IsTypeKeyword(word string) bool {
	return p.typeSet[word]
}

// IsDeclarationKeyword reports whether word introduces a named type, such as
// "class", so the word after it is the declared name
func (p *Profile) IsDeclarationKeyword(word string) bool {
	return p.declSet[word]
}

// IsAnnotationTarget reports whether word may precede ':' ahead of an
// annotation name, as in Kotlin's @field:Json
func (p *Profile) IsAnnotationTarget(word string) bool {
	return p.targetSet[word]
}

// IsIndexerKeyword reports whether word followed by '[' opens an indexer
// parameter list, as in C#'s this[int i]
func (p *Profile) IsIndexerKeyword(word string) bool {
	return p.indexerSet[word]
}

// IsExcludedAnnotation reports whether name turns the prefix into a keyword (e.g. @interface)
func (p *Profile) IsExcludedAnnotation(name string) bool {
	return p.excludedSet[name]
}

// HasAnnotations reports whether the profile recognizes annotation clauses at all
func (p *Profile) HasAnnotations() bool {
	switch p.AnnotationStyle {
	case AnnotationPrefix:
		return p.AnnotationPrefix != ""
	case AnnotationBracket:
		return true
	}
	return false
}

// Matches reports whether name is the profile name or one of its aliases
func (p *Profile) Matches(name string) bool {
	name = strings.ToLower(name)
	if p.Name == name {
		return true
	}
	for _, a := range p.Aliases {
		if strings.ToLower(a) == name {
			return true
		}
	}
	return false
}
