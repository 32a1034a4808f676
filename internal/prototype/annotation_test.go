package prototype

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedalam/protodetect/pkg/types"
)

func newTestDetector(t *testing.T, lang, src string) *detector {
	t.Helper()
	return &detector{cursor: newCursor(src, lookup(t, lang))}
}

func TestSkipAnnotationsWithoutClauses(t *testing.T) {
	for _, src := range []string{"public void f();", "  \n\tint x;", "", "(a) -> b"} {
		d := newTestDetector(t, "java", src)
		anns, next, err := d.skipAnnotations(0, -1)
		require.NoError(t, err)
		assert.Empty(t, anns, "source %q", src)
		assert.Equal(t, 0, next, "source %q advanced", src)
	}
}

func TestAnnotationClauseShapes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Annotation
	}{
		{
			name: "marker",
			src:  "@Override void f();",
			want: types.Annotation{Name: "Override", Raw: "@Override"},
		},
		{
			name: "empty arguments",
			src:  "@Test() void f();",
			want: types.Annotation{Name: "Test", HasArguments: true, Arguments: "()", Raw: "@Test()"},
		},
		{
			name: "single value",
			src:  "@Timeout(30) void f();",
			want: types.Annotation{Name: "Timeout", HasArguments: true, Arguments: "(30)", Raw: "@Timeout(30)"},
		},
		{
			name: "array value",
			src:  "@Tags({\"a\", \"b\"}) void f();",
			want: types.Annotation{Name: "Tags", HasArguments: true, Arguments: `({"a", "b"})`, Raw: `@Tags({"a", "b"})`},
		},
		{
			name: "space after prefix",
			src:  "@ Override void f();",
			want: types.Annotation{Name: "Override", Raw: "@ Override"},
		},
		{
			name: "qualified name",
			src:  "@javax.annotation.Nonnull void f();",
			want: types.Annotation{Name: "javax.annotation.Nonnull", Raw: "@javax.annotation.Nonnull"},
		},
		{
			name: "arguments on next line",
			src:  "@Author\n  (name = \"x\")\nvoid f();",
			want: types.Annotation{Name: "Author", HasArguments: true, Arguments: `(name = "x")`, Raw: "@Author\n  (name = \"x\")"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proto := mustDetect(t, "java", tt.src)
			require.Len(t, proto.Annotations, 1)
			got := proto.Annotations[0]
			got.Range = types.Range{}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "f", proto.Name)
		})
	}
}

func TestAnnotationProfileRules(t *testing.T) {
	t.Run("typescript rejects space after prefix", func(t *testing.T) {
		d := newTestDetector(t, "typescript", "@ Input() name: string;")
		anns, next, err := d.skipAnnotations(0, -1)
		require.NoError(t, err)
		assert.Empty(t, anns)
		assert.Equal(t, 0, next)
	})

	t.Run("python keeps arguments on the same line", func(t *testing.T) {
		proto := mustDetect(t, "python", "@property\ndef name(self):")
		require.Len(t, proto.Annotations, 1)
		assert.False(t, proto.Annotations[0].HasArguments)
		assert.Equal(t, "name", proto.Name)
	})

	t.Run("java annotation type declaration", func(t *testing.T) {
		proto := mustDetect(t, "java", "@Retention(RUNTIME)\npublic @interface Marker {")
		assert.Equal(t, []string{"Retention"}, proto.AnnotationNames())
		assert.Equal(t, "Marker", proto.Name)
		assert.Equal(t, "@interface", proto.Type)
	})

	t.Run("csharp attribute lists", func(t *testing.T) {
		proto := mustDetect(t, "csharp", "[Serializable, Obsolete(\"use V2\")]\n[return: NotNull]\npublic Foo Load();")
		assert.Equal(t, []string{"Serializable", "Obsolete", "NotNull"}, proto.AnnotationNames())
		assert.Equal(t, `("use V2")`, proto.Annotations[1].Arguments)
		assert.Equal(t, "return: NotNull", proto.Annotations[2].Raw)
		assert.Equal(t, "return", proto.Annotations[2].Target)
	})

	t.Run("kotlin use-site target on a function", func(t *testing.T) {
		proto := mustDetect(t, "kotlin", "@get:JvmName(\"fooName\")\nfun foo(a: Int): Int {")
		require.Len(t, proto.Annotations, 1)
		assert.Equal(t, "JvmName", proto.Annotations[0].Name)
		assert.Equal(t, "get", proto.Annotations[0].Target)
		assert.Equal(t, `("fooName")`, proto.Annotations[0].Arguments)
		assert.Equal(t, `@get:JvmName("fooName")`, proto.Annotations[0].Raw)
		assert.Equal(t, "foo", proto.Name)
		assert.Equal(t, "Int", proto.Type)
		assert.Equal(t, []string{"a"}, proto.ParameterNames())
	})

	t.Run("kotlin use-site target on a property", func(t *testing.T) {
		proto := mustDetect(t, "kotlin", "@field:Json(name = \"id\")\nval id: String = \"\"")
		assert.Equal(t, []string{"Json"}, proto.AnnotationNames())
		assert.Equal(t, "field", proto.Annotations[0].Target)
		assert.Equal(t, []string{"val"}, proto.Modifiers)
		assert.Equal(t, "id", proto.Name)
		assert.Equal(t, "String", proto.Type)
		assert.False(t, proto.HasParameterList)
	})

	t.Run("unknown target is not a use-site target", func(t *testing.T) {
		proto := mustDetect(t, "kotlin", "@Suppress(\"x\")\nfun bar() {")
		assert.Equal(t, []string{"Suppress"}, proto.AnnotationNames())
		assert.Empty(t, proto.Annotations[0].Target)
	})

	t.Run("c has no annotations", func(t *testing.T) {
		proto := mustDetect(t, "c", "int main(int argc, char **argv) {")
		assert.Empty(t, proto.Annotations)
		assert.Equal(t, []string{"argc", "argv"}, proto.ParameterNames())
	})
}

func TestParseAnnotationArguments(t *testing.T) {
	java := lookup(t, "java")
	tests := []struct {
		raw  string
		want []types.AnnotationValue
	}{
		{"()", nil},
		{"", nil},
		{`("x")`, []types.AnnotationValue{{Value: `"x"`}}},
		{`(name = "a, b", count=3)`, []types.AnnotationValue{{Key: "name", Value: `"a, b"`}, {Key: "count", Value: "3"}}},
		{"(\n  a = {1, 2},\n  b = x == y\n)", []types.AnnotationValue{{Key: "a", Value: "{1, 2}"}, {Key: "b", Value: "x == y"}}},
		{`value = Foo.class`, []types.AnnotationValue{{Key: "value", Value: "Foo.class"}}},
		{`(1, Map<String, Integer>)`, []types.AnnotationValue{{Value: "1"}, {Value: "Map<String, Integer>"}}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAnnotationArguments(tt.raw, java)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAnnotationArgumentsErrors(t *testing.T) {
	java := lookup(t, "java")

	_, err := ParseAnnotationArguments(`("open)`, java)
	assert.True(t, errors.Is(err, ErrUnterminatedLiteralOrComment))

	_, err = ParseAnnotationArguments(`(a, {b)`, java)
	assert.True(t, errors.Is(err, ErrUnbalancedDelimiter))
}
