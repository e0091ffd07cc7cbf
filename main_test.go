package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "models.py", `class User:
    def __init__(self, name: str) -> None:
        self.name = name
`)
	writeTestFile(t, dir, "main.go", `package main

func main() {}
`)
	writeTestFile(t, dir, "README.md", "# sample\n")
	return dir
}

func generateRequest(filename, content string) string {
	return fmt.Sprintf(`{"command":"generate-tags","filename":%q,"size":%d}`+"\n%s", filename, len(content), content)
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func decodeLines(t *testing.T, out string) []map[string]any {
	t.Helper()
	var replies []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		replies = append(replies, m)
	}
	return replies
}

func TestRunServeDefault(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := runCLI(t, generateRequest("src/shapes.py", "class Circle:\n    radius = 1\n"))
	require.NoError(t, err, stderr)

	replies := decodeLines(t, stdout)
	require.Len(t, replies, 4)

	assert.Equal(t, "program", replies[0]["_type"])
	assert.Equal(t, programName, replies[0]["name"])
	assert.Equal(t, version, replies[0]["version"])

	assert.Equal(t, "Circle", replies[1]["name"])
	assert.Equal(t, "type", replies[1]["kind"])
	assert.Nil(t, replies[1]["scope"])

	assert.Equal(t, "radius", replies[2]["name"])
	assert.Equal(t, "variable", replies[2]["kind"])
	assert.Equal(t, "Circle", replies[2]["scope"])
	assert.EqualValues(t, 2, replies[2]["line"])
	assert.Equal(t, "python", replies[2]["language"])
	assert.Equal(t, "src/shapes.py", replies[2]["path"])

	assert.Equal(t, "completed", replies[3]["_type"])
}

func TestRunServeSubcommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, generateRequest("a.rb", "module M\nend\n"), "serve")
	require.NoError(t, err)

	replies := decodeLines(t, stdout)
	require.Len(t, replies, 3)
	assert.Equal(t, "M", replies[1]["name"])
	assert.Equal(t, "namespace", replies[1]["kind"])
}

func TestRunServeMalformedInput(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "{oops\n")
	require.Error(t, err)

	replies := decodeLines(t, stdout)
	require.Len(t, replies, 2)
	assert.Equal(t, "error", replies[1]["_type"])
	assert.Equal(t, true, replies[1]["fatal"])
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, "scopetags dev\n", stdout)
}

func TestRunScanJSON(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	stdout, stderr, err := runCLI(t, "", "scan", dir)
	require.NoError(t, err, stderr)

	replies := decodeLines(t, stdout)
	var names []string
	for _, r := range replies {
		assert.Equal(t, "tag", r["_type"])
		names = append(names, fmt.Sprintf("%s:%s", r["path"], r["name"]))
	}
	assert.Equal(t, []string{"main.go:main", "main.go:main", "models.py:User", "models.py:__init__"}, names)
}

func TestRunScanToon(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	stdout, stderr, err := runCLI(t, "", "scan", "--format", "toon", dir)
	require.NoError(t, err, stderr)

	assert.True(t, strings.HasPrefix(stdout, "root: "+filepath.Base(dir)+"\n"), stdout)
	assert.Contains(t, stdout, "files[2]{path,language,tags}:")
	assert.Contains(t, stdout, "  models.py,python,2")
	assert.Contains(t, stdout, "tags[4]{path,line,kind,name,scope}:")
	assert.Contains(t, stdout, "  models.py,2,method,__init__,User")
}

func TestRunScanLanguageFilter(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	stdout, _, err := runCLI(t, "", "scan", dir, "-l", "go")
	require.NoError(t, err)
	assert.NotContains(t, stdout, "models.py")
	assert.Contains(t, stdout, "main.go")
}

func TestRunScanErrors(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown language", []string{"scan", "--langs", "cobol", dir}, "unsupported language"},
		{"unknown format", []string{"scan", "--format", "xml", dir}, "unsupported format"},
		{"not a directory", []string{"scan", filepath.Join(dir, "main.go")}, "not a directory"},
		{"nothing to scan", []string{"scan", "--exclude", "**", dir}, "no parseable files"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := runCLI(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log format")
}

func TestRunLogsToStderr(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := runCLI(t, generateRequest("big.go", "package big\n"), "--max-file-size", "4", "--log-level", "debug")
	require.NoError(t, err)

	replies := decodeLines(t, stdout)
	require.Len(t, replies, 3)
	assert.Equal(t, "error", replies[1]["_type"])
	assert.Equal(t, false, replies[1]["fatal"])
	assert.Contains(t, stderr, "file too large")
}
