package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedalam/protodetect/internal/storage"
	"github.com/saeedalam/protodetect/pkg/types"
)

type toolContent struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	IsError bool `json:"isError"`
}

type response struct {
	ID     interface{}     `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *Error          `json:"error"`
}

// serve feeds the requests to a server and decodes every response line
func serve(t *testing.T, s *Server, requests ...string) []response {
	t.Helper()
	var out strings.Builder
	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	require.NoError(t, s.Run(context.Background(), in, &out))

	var responses []response
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	for sc.Scan() {
		var r response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		responses = append(responses, r)
	}
	return responses
}

func call(t *testing.T, s *Server, tool string, args interface{}) toolContent {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]interface{}{"name": tool, "arguments": args},
	})
	require.NoError(t, err)

	responses := serve(t, s, string(raw))
	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	var tc toolContent
	require.NoError(t, json.Unmarshal(responses[0].Result, &tc))
	require.Len(t, tc.Content, 1)
	return tc
}

func TestInitializeAndToolsList(t *testing.T) {
	s := NewServer(Options{Version: "1.0.0"})
	responses := serve(t, s,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	)
	require.Len(t, responses, 3)

	var init InitializeResult
	require.NoError(t, json.Unmarshal(responses[0].Result, &init))
	assert.Equal(t, "protodetect", init.ServerInfo.Name)
	assert.Equal(t, "1.0.0", init.ServerInfo.Version)
	assert.NotNil(t, init.Capabilities.Tools)

	var list struct {
		Tools []ToolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(responses[1].Result, &list))
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"detect_prototype", "find_block_end", "parse_annotation_arguments",
		"list_profiles", "search_prototypes",
	}, names)

	assert.EqualValues(t, 3, responses[2].ID)
}

func TestRequestErrors(t *testing.T) {
	s := NewServer(Options{})
	responses := serve(t, s,
		`not json`,
		`{"jsonrpc":"2.0","method":"unknown/notification"}`,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":8,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":9,"method":"tools/call","params":"bad"}`,
	)
	require.Len(t, responses, 3, "parse errors and notifications get no response")

	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeMethodNotFound, responses[0].Error.Code)
	assert.EqualValues(t, 7, responses[0].ID)

	require.NotNil(t, responses[1].Error)
	assert.Equal(t, "Tool not found", responses[1].Error.Message)

	require.NotNil(t, responses[2].Error)
	assert.Equal(t, codeInvalidParams, responses[2].Error.Code)
}

func TestDetectPrototypeJSON(t *testing.T) {
	s := NewServer(Options{})
	tc := call(t, s, "detect_prototype", map[string]interface{}{
		"language": "java",
		"source":   "@Override\npublic boolean equals(Object other) {\n  return false;\n}",
		"offset":   40,
	})
	require.False(t, tc.IsError, tc.Content[0].Text)

	var proto types.Prototype
	require.NoError(t, json.Unmarshal([]byte(tc.Content[0].Text), &proto))
	assert.Equal(t, "equals", proto.Name)
	assert.Equal(t, "boolean", proto.Type)
	assert.Equal(t, []string{"other"}, proto.ParameterNames())
	assert.Equal(t, []string{"Override"}, proto.AnnotationNames())
	assert.Equal(t, 40, proto.Range.Start)
}

func TestDetectPrototypeFormats(t *testing.T) {
	s := NewServer(Options{})
	tc := call(t, s, "detect_prototype", map[string]interface{}{
		"language": ".py",
		"source":   "def area(width, height):\n    return width * height\n",
		"format":   "text",
	})
	require.False(t, tc.IsError, tc.Content[0].Text)
	assert.Equal(t, "def area(width, height)\n", tc.Content[0].Text)

	tc = call(t, s, "detect_prototype", map[string]interface{}{
		"language": "py",
		"source":   "def area(width, height):",
		"format":   "detail",
	})
	require.False(t, tc.IsError)
	assert.Contains(t, tc.Content[0].Text, "// area - PROTOTYPE\n")

	tc = call(t, s, "detect_prototype", map[string]interface{}{
		"language": "py",
		"source":   "def area(width, height):",
		"format":   "xml",
	})
	assert.True(t, tc.IsError)
	assert.Contains(t, tc.Content[0].Text, "unknown format")
}

func TestDetectPrototypeErrors(t *testing.T) {
	s := NewServer(Options{})

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing language", map[string]interface{}{"source": "void f();"}, "language is required"},
		{"unknown language", map[string]interface{}{"language": "cobol", "source": "void f();"}, "unknown language profile"},
		{"unbalanced", map[string]interface{}{"language": "java", "source": "void f(int a, {b);"}, "Error: "},
		{"empty span", map[string]interface{}{"language": "java", "source": "  \n"}, "Error: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := call(t, s, "detect_prototype", tt.args)
			assert.True(t, tc.IsError)
			assert.Contains(t, tc.Content[0].Text, tt.want)
		})
	}
}

func TestFindBlockEnd(t *testing.T) {
	s := NewServer(Options{})
	src := `f(a, "x)", (b)) + 1`
	tc := call(t, s, "find_block_end", map[string]interface{}{
		"language": "java",
		"source":   src,
		"offset":   1,
	})
	require.False(t, tc.IsError, tc.Content[0].Text)

	var got struct {
		Start int    `json:"start"`
		End   int    `json:"end"`
		Text  string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(tc.Content[0].Text), &got))
	assert.Equal(t, 1, got.Start)
	assert.Equal(t, strings.Index(src, " +"), got.End)
	assert.Equal(t, `(a, "x)", (b))`, got.Text)

	tc = call(t, s, "find_block_end", map[string]interface{}{
		"language": "java",
		"source":   src,
		"offset":   len(src),
	})
	assert.True(t, tc.IsError)
	assert.Contains(t, tc.Content[0].Text, "outside the source")
}

func TestParseAnnotationArguments(t *testing.T) {
	s := NewServer(Options{})
	tc := call(t, s, "parse_annotation_arguments", map[string]interface{}{
		"arguments": `(name = "x, y", 3)`,
	})
	require.False(t, tc.IsError, tc.Content[0].Text)

	var got struct {
		Values []types.AnnotationValue `json:"values"`
		Total  int                     `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(tc.Content[0].Text), &got))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, []types.AnnotationValue{
		{Key: "name", Value: `"x, y"`},
		{Value: "3"},
	}, got.Values)
}

func TestListProfiles(t *testing.T) {
	s := NewServer(Options{})
	tc := call(t, s, "list_profiles", nil)
	require.False(t, tc.IsError)

	var got struct {
		Profiles []struct {
			Name           string `json:"name"`
			ParameterStyle string `json:"parameter_style"`
		} `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal([]byte(tc.Content[0].Text), &got))
	require.Len(t, got.Profiles, 6)
	assert.Equal(t, "c", got.Profiles[0].Name)
}

func TestSearchPrototypes(t *testing.T) {
	tc := call(t, NewServer(Options{}), "search_prototypes", map[string]interface{}{"query": "send"})
	assert.True(t, tc.IsError)
	assert.Contains(t, tc.Content[0].Text, "cache is disabled")

	cache, err := storage.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	s := NewServer(Options{Cache: cache})
	tc = call(t, s, "detect_prototype", map[string]interface{}{
		"language": "java",
		"source":   "public void sendMessage(String body);",
	})
	require.False(t, tc.IsError, tc.Content[0].Text)

	tc = call(t, s, "search_prototypes", map[string]interface{}{"query": "send"})
	require.False(t, tc.IsError, tc.Content[0].Text)

	var got struct {
		Prototypes []storage.Entry `json:"prototypes"`
		Total      int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(tc.Content[0].Text), &got))
	require.Equal(t, 1, got.Total)
	assert.Equal(t, "sendMessage", got.Prototypes[0].Name)
	assert.Equal(t, "java", got.Prototypes[0].Language)

	tc = call(t, s, "search_prototypes", map[string]interface{}{})
	assert.True(t, tc.IsError)
	assert.Contains(t, tc.Content[0].Text, "query is required")
}
