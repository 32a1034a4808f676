package prototype

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalanceNesting(t *testing.T) {
	java := lookup(t, "java")
	openers := []string{"(", "[", "{"}
	closers := map[string]string{"(": ")", "[": "]", "{": "}"}

	for depth := 1; depth <= 6; depth++ {
		var open, close strings.Builder
		for i := 0; i < depth; i++ {
			o := openers[i%len(openers)]
			open.WriteString(o + "x, ")
		}
		for i := depth - 1; i >= 0; i-- {
			close.WriteString(" y" + closers[openers[i%len(openers)]])
		}
		inner := open.String() + "\")]}\" /* ) */" + close.String()
		src := "pre " + inner + "; tail"

		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			end, err := Balance(src, 4, java)
			require.NoError(t, err)
			assert.Equal(t, 4+len(inner), end)
		})
	}
}

func TestBalanceFailures(t *testing.T) {
	java := lookup(t, "java")
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"mismatched", "(a[b)]", ErrUnbalancedDelimiter},
		{"end of input", "({[]}", ErrUnbalancedDelimiter},
		{"not an opener", "a(b)", ErrUnbalancedDelimiter},
		{"unterminated literal", "(\"abc)", ErrUnterminatedLiteralOrComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Balance(tt.src, 0, java)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestBalanceReportsAbsoluteOffsets(t *testing.T) {
	_, err := Balance("xx(a]", 2, lookup(t, "java"))
	var de *DetectError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Range.Start)
	assert.Equal(t, 5, de.Range.End)
}
