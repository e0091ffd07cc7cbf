package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/scopetags/internal/lang"
	"github.com/phobologic/scopetags/internal/model"
	"github.com/phobologic/scopetags/internal/parse"
	"github.com/phobologic/scopetags/internal/protocol"
)

func request(filename, content string) string {
	return fmt.Sprintf(`{"command":"generate-tags","filename":%q,"size":%d}`+"\n%s", filename, len(content), content)
}

func serve(t *testing.T, s *Session, input string) ([]string, error) {
	t.Helper()
	var out bytes.Buffer
	err := s.Serve(context.Background(), strings.NewReader(input), &out)
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	return lines, err
}

func replyTypes(t *testing.T, lines []string) []string {
	t.Helper()
	var types []string
	for _, line := range lines {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		types = append(types, m["_type"].(string))
	}
	return types
}

func exampleTree() *model.Scope {
	return &model.Scope{
		Children: []*model.Scope{{
			Descriptors: []model.Descriptor{{Name: "Foo", Suffix: model.SuffixType}},
			Range:       model.Range{2, 10},
			Globals: []model.LeafSymbol{{
				Descriptors: []model.Descriptor{{Name: "Foo"}, {Name: "bar", Suffix: model.SuffixMethod}},
				Range:       model.Range{3, 3},
			}},
		}},
	}
}

func TestServeExampleOutput(t *testing.T) {
	t.Parallel()

	s := New(Options{
		Name:    "scopetags",
		Version: "test",
		Extract: func(context.Context, *lang.Language, []byte) (*model.Scope, error) {
			return exampleTree(), nil
		},
	})

	lines, err := serve(t, s, request("x.go", "package x\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		`{"_type":"program","name":"scopetags","version":"test"}`,
		`{"_type":"tag","name":"Foo","path":"x.go","language":"go","line":3,"kind":"type","scope":null}`,
		`{"_type":"tag","name":"bar","path":"x.go","language":"go","line":4,"kind":"method","scope":"Foo.Foo"}`,
		`{"_type":"completed","command":"generate-tags"}`,
	}, lines)
}

func TestServeQualifiedFileLevelLeaf(t *testing.T) {
	t.Parallel()

	// The same method declared at file level with its type as qualifier,
	// the way the Go extractor reports receivers.
	tree := exampleTree()
	tree.Globals = tree.Children[0].Globals
	tree.Children[0].Globals = nil

	s := New(Options{
		Name:    "scopetags",
		Version: "test",
		Extract: func(context.Context, *lang.Language, []byte) (*model.Scope, error) {
			return tree, nil
		},
	})

	lines, err := serve(t, s, request("x.go", "package x\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		`{"_type":"program","name":"scopetags","version":"test"}`,
		`{"_type":"tag","name":"Foo","path":"x.go","language":"go","line":3,"kind":"type","scope":null}`,
		`{"_type":"tag","name":"bar","path":"x.go","language":"go","line":4,"kind":"method","scope":"Foo"}`,
		`{"_type":"completed","command":"generate-tags"}`,
	}, lines)
}

func TestServeRealGoFile(t *testing.T) {
	t.Parallel()

	source := "package demo\n\ntype Foo struct {\n\tN int\n}\n\nfunc (f *Foo) Bar() {}\n"
	lines, err := serve(t, New(Options{Name: "scopetags", Version: "dev"}), request("pkg/demo.go", source))
	require.NoError(t, err)
	require.Len(t, lines, 6)

	var got []model.Tag
	for _, line := range lines[1:5] {
		var tag model.Tag
		require.NoError(t, json.Unmarshal([]byte(line), &tag))
		got = append(got, tag)
	}

	foo := "Foo"
	want := []model.Tag{
		{Name: "Foo", Path: "pkg/demo.go", Language: "go", Line: 3, Kind: model.Type},
		{Name: "N", Path: "pkg/demo.go", Language: "go", Line: 4, Kind: model.Variable, Scope: &foo},
		{Name: "demo", Path: "pkg/demo.go", Language: "go", Line: 1, Kind: model.Package},
		{Name: "Bar", Path: "pkg/demo.go", Language: "go", Line: 7, Kind: model.Method, Scope: &foo},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, `{"_type":"completed","command":"generate-tags"}`, lines[5])
}

func TestServeUnsupportedFilesProduceNoTags(t *testing.T) {
	t.Parallel()

	input := request("Makefile", "all:\n") + request("notes.txt", "hello") + request("a.py", "x = 1\n")
	lines, err := serve(t, New(Options{}), input)
	require.NoError(t, err)

	assert.Equal(t, []string{"program", "completed", "completed", "tag", "completed"}, replyTypes(t, lines))
}

func TestServeParseFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	calls := 0
	s := New(Options{
		Extract: func(ctx context.Context, l *lang.Language, src []byte) (*model.Scope, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("%w: boom", parse.ErrParse)
			}
			return parse.Globals(ctx, l, src)
		},
	})

	input := request("bad.go", "package bad\n") + request("good.go", "package good\n")
	lines, err := serve(t, s, input)
	require.NoError(t, err)

	assert.Equal(t, []string{"program", "error", "completed", "tag", "completed"}, replyTypes(t, lines))

	var reply struct {
		Message string `json:"message"`
		Fatal   bool   `json:"fatal"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &reply))
	assert.False(t, reply.Fatal)
	assert.Contains(t, reply.Message, "bad.go")
}

func TestServeFileTooLarge(t *testing.T) {
	t.Parallel()

	s := New(Options{MaxFileSize: 12})
	input := request("big.go", "package big\n\nvar x = 1\n") +
		request("big.txt", "some long notes") +
		request("ok.go", "package ok\n")
	lines, err := serve(t, s, input)
	require.NoError(t, err)
	assert.Equal(t, []string{"program", "error", "completed", "completed", "tag", "completed"}, replyTypes(t, lines))
	assert.Contains(t, lines[1], "big.go")
	assert.Contains(t, lines[1], `"fatal":false`)
}

func TestServeHugeSizeIsTruncated(t *testing.T) {
	t.Parallel()

	input := `{"command":"generate-tags","filename":"a.go","size":4611686018427387904}` + "\npackage a\n"
	lines, err := serve(t, New(Options{}), input)
	assert.ErrorIs(t, err, protocol.ErrTruncated)
	assert.Equal(t, []string{"program", "error"}, replyTypes(t, lines))
	assert.Contains(t, lines[1], `"fatal":true`)
}

func TestServeOversizedPayloadIsSkipped(t *testing.T) {
	t.Parallel()

	s := New(Options{MaxFileSize: 1 << 20})

	// Announced size above the limit with the bytes present: skipped, not fatal.
	big := strings.Repeat("x", 2<<20)
	lines, err := serve(t, s, request("big.go", big)+request("ok.go", "package ok\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"program", "error", "completed", "tag", "completed"}, replyTypes(t, lines))

	// Announced size above the limit with the stream cut short: fatal.
	input := `{"command":"generate-tags","filename":"a.go","size":4611686018427387904}` + "\npackage a\n"
	lines, err = serve(t, s, input)
	assert.ErrorIs(t, err, protocol.ErrTruncated)
	assert.Equal(t, []string{"program", "error"}, replyTypes(t, lines))
}

func TestServeMalformedRequestIsFatal(t *testing.T) {
	t.Parallel()

	lines, err := serve(t, New(Options{}), "not json\n"+request("a.go", "package a\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, protocol.ErrMalformedRequest)

	assert.Equal(t, []string{"program", "error"}, replyTypes(t, lines))
	assert.Contains(t, lines[1], `"fatal":true`)
}

func TestServeTruncatedContentIsFatal(t *testing.T) {
	t.Parallel()

	input := `{"command":"generate-tags","filename":"a.go","size":100}` + "\npackage a\n"
	lines, err := serve(t, New(Options{}), input)
	assert.ErrorIs(t, err, protocol.ErrTruncated)
	assert.Equal(t, []string{"program", "error"}, replyTypes(t, lines))
}

func TestServeUnknownCommand(t *testing.T) {
	t.Parallel()

	input := `{"command":"frobnicate"}` + "\n" + request("a.go", "package a\n")
	lines, err := serve(t, New(Options{}), input)
	require.NoError(t, err)
	assert.Equal(t, []string{"program", "error", "tag", "completed"}, replyTypes(t, lines))
	assert.Contains(t, lines[1], `"fatal":false`)
}

func TestServeEmptyInput(t *testing.T) {
	t.Parallel()

	lines, err := serve(t, New(Options{Name: "scopetags", Version: "1"}), "")
	require.NoError(t, err)
	assert.Equal(t, []string{`{"_type":"program","name":"scopetags","version":"1"}`}, lines)
}

func TestServeCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err := New(Options{}).Serve(ctx, strings.NewReader(request("a.go", "package a\n")), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestServeOutputFailureIsFatal(t *testing.T) {
	t.Parallel()

	err := New(Options{}).Serve(context.Background(), strings.NewReader(request("a.go", "package a\n")), failingWriter{})
	assert.ErrorIs(t, err, protocol.ErrOutput)
}

func TestTagsErrors(t *testing.T) {
	t.Parallel()

	s := New(Options{})
	noop := func(model.Tag) error { return nil }

	err := s.Tags(context.Background(), "README", nil, noop)
	assert.ErrorIs(t, err, ErrMissingExtension)

	err = s.Tags(context.Background(), "main.zig", nil, noop)
	assert.ErrorIs(t, err, ErrUnknownParser)
}

func TestTagsLineMatchesRange(t *testing.T) {
	t.Parallel()

	tree := exampleTree()
	s := New(Options{Extract: func(context.Context, *lang.Language, []byte) (*model.Scope, error) { return tree, nil }})

	var got []model.Tag
	require.NoError(t, s.Tags(context.Background(), "x.go", nil, func(tag model.Tag) error {
		got = append(got, tag)
		return nil
	}))

	require.Len(t, got, 2)
	assert.Equal(t, tree.Children[0].Range[0]+1, got[0].Line)
	assert.Equal(t, tree.Children[0].Globals[0].Range[0]+1, got[1].Line)
}
