package prototype

import (
	"fmt"

	"github.com/saeedalam/protodetect/pkg/types"
)

// ErrorKind classifies a detection failure
type ErrorKind int

const (
	KindUnterminatedLiteralOrComment ErrorKind = iota + 1
	KindUnbalancedDelimiter
	KindNoDeclarationFound
	KindMalformedParameterSegment
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnterminatedLiteralOrComment:
		return "UnterminatedLiteralOrComment"
	case KindUnbalancedDelimiter:
		return "UnbalancedDelimiter"
	case KindNoDeclarationFound:
		return "NoDeclarationFound"
	case KindMalformedParameterSegment:
		return "MalformedParameterSegment"
	}
	return "Unknown"
}

// DetectError is returned when no prototype can be recovered from a span.
// Range holds absolute source offsets.
type DetectError struct {
	Kind      ErrorKind
	Range     types.Range
	Parameter int // zero-based parameter index for MalformedParameterSegment, -1 otherwise
	Message   string
}

func (e *DetectError) Error() string {
	if e.Parameter >= 0 {
		return fmt.Sprintf("%s at %d-%d (parameter %d): %s", e.Kind, e.Range.Start, e.Range.End, e.Parameter+1, e.Message)
	}
	return fmt.Sprintf("%s at %d-%d: %s", e.Kind, e.Range.Start, e.Range.End, e.Message)
}

// Is matches sentinels by kind so callers can use errors.Is(err, ErrUnbalancedDelimiter)
func (e *DetectError) Is(target error) bool {
	t, ok := target.(*DetectError)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Range == (types.Range{})
}

// Sentinels for errors.Is
var (
	ErrUnterminatedLiteralOrComment = &DetectError{Kind: KindUnterminatedLiteralOrComment, Parameter: -1}
	ErrUnbalancedDelimiter          = &DetectError{Kind: KindUnbalancedDelimiter, Parameter: -1}
	ErrNoDeclarationFound           = &DetectError{Kind: KindNoDeclarationFound, Parameter: -1}
	ErrMalformedParameterSegment    = &DetectError{Kind: KindMalformedParameterSegment, Parameter: -1}
)

func newError(kind ErrorKind, start, end int, format string, args ...any) *DetectError {
	return &DetectError{
		Kind:      kind,
		Range:     types.Range{Start: start, End: end},
		Parameter: -1,
		Message:   fmt.Sprintf(format, args...),
	}
}
