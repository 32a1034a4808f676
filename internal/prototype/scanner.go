package prototype

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/saeedalam/protodetect/internal/profile"
	"github.com/saeedalam/protodetect/pkg/types"
)

// Scanner splits a span into classified tokens. It is a forward-only pull
// cursor: every call to Next scans exactly one more token, and a new Scanner
// is needed to scan the span again.
type Scanner struct {
	src  string
	pos  int
	prof *profile.Profile
	err  *DetectError
}

// NewScanner creates a scanner over src using the lexical rules of p
func NewScanner(src string, p *profile.Profile) *Scanner {
	return &Scanner{src: src, prof: p}
}

// Err returns the scan error that stopped the scanner, if any
func (s *Scanner) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// Next returns the next token. It returns false at the end of input or after
// a scan error; check Err to tell them apart.
func (s *Scanner) Next() (types.Token, bool) {
	if s.err != nil || s.pos >= len(s.src) {
		return types.Token{}, false
	}

	start := s.pos
	ch := s.src[s.pos]

	switch {
	case ch == '\n':
		s.pos++
		return s.token(types.TokenNewline, start), true
	case isSpace(ch):
		for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
			s.pos++
		}
		return s.token(types.TokenWhitespace, start), true
	}

	// Comments come before strings so a comment marker that is also a quote
	// character never opens a literal.
	if ok := s.scanComment(); ok {
		if s.err != nil {
			return types.Token{}, false
		}
		return s.token(types.TokenComment, start), true
	}
	if ok := s.scanString(); ok {
		if s.err != nil {
			return types.Token{}, false
		}
		return s.token(types.TokenLiteral, start), true
	}

	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	switch {
	case isIdentStart(r):
		s.pos += size
		for s.pos < len(s.src) {
			r, size = utf8.DecodeRuneInString(s.src[s.pos:])
			if !isIdentPart(r) {
				break
			}
			s.pos += size
		}
		return s.token(types.TokenIdentifier, start), true
	case r >= '0' && r <= '9':
		s.pos++
		for s.pos < len(s.src) && isNumberPart(s.src[s.pos]) {
			s.pos++
		}
		return s.token(types.TokenNumber, start), true
	}

	s.pos += size
	return s.token(types.TokenPunctuation, start), true
}

func (s *Scanner) token(kind types.TokenKind, start int) types.Token {
	return types.Token{Kind: kind, Text: s.src[start:s.pos], Start: start, End: s.pos}
}

func (s *Scanner) scanComment() bool {
	rest := s.src[s.pos:]
	for _, marker := range s.prof.LineComments {
		if strings.HasPrefix(rest, marker) {
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			s.pos += end
			return true
		}
	}
	for _, bc := range s.prof.BlockComments {
		if strings.HasPrefix(rest, bc.Open) {
			end := strings.Index(rest[len(bc.Open):], bc.Close)
			if end < 0 {
				s.err = newError(KindUnterminatedLiteralOrComment, s.pos, len(s.src),
					"comment opened with %q is never closed", bc.Open)
				return true
			}
			s.pos += len(bc.Open) + end + len(bc.Close)
			return true
		}
	}
	return false
}

func (s *Scanner) scanString() bool {
	rest := s.src[s.pos:]
	quote := ""
	for _, q := range s.prof.StringDelimiters {
		if len(q) > len(quote) && strings.HasPrefix(rest, q) {
			quote = q
		}
	}
	if quote == "" {
		return false
	}

	esc := s.prof.EscapeChar()
	i := len(quote)
	for i < len(rest) {
		if rest[i] == esc {
			i += 2
			continue
		}
		if strings.HasPrefix(rest[i:], quote) {
			s.pos += i + len(quote)
			return true
		}
		i++
	}
	s.err = newError(KindUnterminatedLiteralOrComment, s.pos, len(s.src),
		"literal opened with %q is never closed", quote)
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v'
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func isNumberPart(c byte) bool {
	return c == '.' || c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
