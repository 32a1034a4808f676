package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeedalam/protodetect/internal/prototype"
	"github.com/saeedalam/protodetect/pkg/types"
)

// execute runs the command tree with fresh flag values and returns stdout
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDetectFromStdin(t *testing.T) {
	cache := t.TempDir()
	out, err := execute(t, "@Override\npublic String toString() {\n  return name;\n}\n",
		"detect", "-l", "java", "--cache-dir", cache)
	require.NoError(t, err)
	assert.Equal(t, "@Override\npublic String toString()\n", out)
}

func TestDetectFileFormats(t *testing.T) {
	dir := t.TempDir()
	doc := "/** Sends a message. */\n"
	path := writeFile(t, dir, "Sender.java", doc+"@Deprecated\npublic void send(@NotNull String msg, int retries) {\n}\n")
	offset := len(doc)
	at := strconv.Itoa(offset)

	out, err := execute(t, "", "detect", "--cache-dir", dir, "--offset", at, "-f", "json", path)
	require.NoError(t, err)

	var proto types.Prototype
	require.NoError(t, json.Unmarshal([]byte(out), &proto))
	assert.Equal(t, "send", proto.Name)
	assert.Equal(t, "java", proto.Language)
	assert.Equal(t, offset, proto.Range.Start)
	assert.Equal(t, []string{"msg", "retries"}, proto.ParameterNames())
	assert.Equal(t, []string{"Deprecated"}, proto.AnnotationNames())

	out, err = execute(t, "", "detect", "--cache-dir", dir, "--offset", at, "-f", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: send\n")

	out, err = execute(t, "", "detect", "--cache-dir", dir, "--offset", at, "-f", "detail", path)
	require.NoError(t, err)
	assert.Contains(t, out, "// send - PROTOTYPE\n")
	assert.Contains(t, out, "parameters (2):\n")
}

func TestDetectReportsFailureKind(t *testing.T) {
	_, err := execute(t, "void f(int a, {b);", "detect", "-l", "java", "--no-cache")
	require.Error(t, err)
	assert.True(t, errors.Is(err, prototype.ErrUnbalancedDelimiter), "got %v", err)
	assert.Contains(t, err.Error(), "stdin")

	_, err = execute(t, "   \n", "detect", "-l", "java", "--no-cache")
	assert.True(t, errors.Is(err, prototype.ErrNoDeclarationFound), "got %v", err)
}

func TestDetectArgumentErrors(t *testing.T) {
	_, err := execute(t, "void f();", "detect", "--no-cache")
	assert.ErrorContains(t, err, "--lang is required")

	_, err = execute(t, "void f();", "detect", "-l", "cobol", "--no-cache")
	assert.ErrorContains(t, err, "unknown language profile")

	_, err = execute(t, "void f();", "detect", "-l", "java", "--offset", "99", "--no-cache")
	assert.ErrorContains(t, err, "outside the input")

	_, err = execute(t, "void f();", "detect", "-l", "java", "-f", "xml", "--no-cache")
	assert.ErrorContains(t, err, "unsupported format")
}

var runIDPattern = regexp.MustCompile(`Run: ([0-9a-f-]{36})`)

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeFile(t, dir, "a.java", "void a(int x);"),
		writeFile(t, dir, "b.kt", "fun b(y: Int): String {"),
		writeFile(t, dir, "c.java", "void broken(;"),
		writeFile(t, dir, "d.unknown", "x"),
	}

	args := append([]string{"batch", "--cache-dir", dir, "--workers", "2"}, files...)
	out, err := execute(t, "", args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 4 inputs failed")

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, files[0]+": a(x: int) void", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], files[1]+": b(y: Int)"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], files[2]+": error:"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], files[3]+": error:"), lines[3])
	assert.Contains(t, out, "4 inputs: 2 detected, 2 failed, 0 from cache\n")

	m := runIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	out, err = execute(t, "", "cache", "failures", m[1], "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, files[2]+": UnbalancedDelimiter at ")
	assert.Contains(t, out, files[3]+": UnknownProfile at 0-0")

	// a second run is served from the cache
	out, _ = execute(t, "", args...)
	assert.Contains(t, out, files[0]+": a(x: int) void  [cached]\n")
	assert.Contains(t, out, "4 inputs: 2 detected, 2 failed, 2 from cache\n")

	out, err = execute(t, "", "cache", "runs", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "4 jobs, 2 detected, 2 failed"), out)
}

func TestBatchWithoutCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "ok.py", "def run(self, *args, **kwargs):\n    pass\n")

	out, err := execute(t, "", "batch", "--no-cache", "--cache-dir", dir, path)
	require.NoError(t, err)
	assert.Contains(t, out, path+": run(self, args, kwargs)")
	assert.NotContains(t, out, "Run:")

	_, err = os.Stat(filepath.Join(dir, "cache"))
	assert.True(t, os.IsNotExist(err), "no cache database is created")

	_, err = execute(t, "", "batch", "--workers", "0", path)
	assert.ErrorContains(t, err, "--workers")
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "public int size() {", "detect", "-l", "java", "--cache-dir", dir)
	require.NoError(t, err)

	out, err := execute(t, "", "cache", "stats", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Prototypes:  1\n")

	out, err = execute(t, "", "cache", "search", "size", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "public int size()")
	assert.Contains(t, out, "Total: 1 results")

	out, err = execute(t, "", "cache", "search", "nothing", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")

	out, err = execute(t, "", "cache", "clear", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Cache cleared.")

	out, err = execute(t, "", "cache", "stats", "--cache-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Prototypes:  0\n")
}

func TestConfigFileDisablesCache(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "protodetect.yaml", "cache_enabled: false\ncache_dir: "+filepath.Join(dir, "store")+"\n")

	_, err := execute(t, "void f();", "--config", cfg, "detect", "-l", "java")
	require.NoError(t, err)

	out, err := execute(t, "", "--config", cfg, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Prototypes:  0\n")
	assert.Contains(t, out, filepath.Join(dir, "store"))
}

func TestProfiles(t *testing.T) {
	out, err := execute(t, "", "profiles")
	require.NoError(t, err)
	for _, name := range []string{"c", "csharp", "java", "kotlin", "python", "typescript"} {
		assert.Regexp(t, "(?m)^"+name+" ", out)
	}

	out, err = execute(t, "", "profiles", "kt")
	require.NoError(t, err)
	assert.Contains(t, out, "name: kotlin\n")
	assert.Contains(t, out, "parameter_style: pascal\n")

	_, err = execute(t, "", "profiles", "cobol")
	assert.Error(t, err)
}

func TestServe(t *testing.T) {
	requests := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"detect_prototype","arguments":{"language":"java","source":"int count();","format":"text"}}}`,
	}, "\n") + "\n"

	out, err := execute(t, requests, "serve", "--no-cache")
	require.NoError(t, err)

	var responses []map[string]interface{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &resp))
		responses = append(responses, resp)
	}
	require.Len(t, responses, 2)
	assert.Contains(t, out, `"name":"protodetect"`)
	assert.Contains(t, out, `int count()\n`)
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "protodetect 1.2.3 (commit: abc, built: today)\n", out)
}
