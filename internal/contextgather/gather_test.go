package contextgather

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList_NoneWhenEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CONTEXT.md"), []byte("main"), 0644))

	got, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []Context{{Filename: "None"}}, got)
}

func TestList_SortedWithContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CONTEXT_web.md"), []byte("web rules"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CONTEXT_api.md"), []byte("api rules"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CONTEXT_notes.txt"), []byte("ignored"), 0644))

	got, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []Context{
		{Filename: "CONTEXT_api.md", Content: "api rules"},
		{Filename: "CONTEXT_web.md", Content: "web rules"},
	}, got)
}

func TestGather_LayoutSkipsTooling(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{".git", ".colossus", "node_modules", "src"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".aider.chat.history.md"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0644))

	pc := Gather(dir)
	assert.Equal(t, []string{"main.go", "src/"}, pc.Layout)
}

func TestGather_QuotesManifestsInOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module demo"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Demo"), 0644))

	pc := Gather(dir)
	require.Len(t, pc.Files, 2)
	assert.Equal(t, "README.md", pc.Files[0].Path)
	assert.Equal(t, "go.mod", pc.Files[1].Path)
	assert.Empty(t, pc.GitLog, "not a git repository")
}

func TestGather_TruncatesLargeFiles(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", maxFileSize+100)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Makefile"), []byte(big), 0644))

	pc := Gather(dir)
	require.Len(t, pc.Files, 1)
	assert.True(t, strings.HasSuffix(pc.Files[0].Content, "... (truncated)"))
	assert.Less(t, len(pc.Files[0].Content), len(big))
}

func TestRender_Sections(t *testing.T) {
	pc := &ProjectContext{
		Layout: []string{"src/", "Makefile"},
		Files:  []File{{Path: "Makefile", Content: "build:\n\tgo build\n"}},
		GitLog: "abc123 initial",
	}
	out := pc.Render()
	assert.True(t, strings.HasPrefix(out, "# Project context\n"))
	assert.Contains(t, out, "`make test`")
	assert.Contains(t, out, "## Layout\n\n- src/\n- Makefile\n")
	assert.Contains(t, out, "## Makefile\n\n```\nbuild:\n\tgo build\n```\n")
	assert.Contains(t, out, "## Recent history\n\n```\nabc123 initial\n```\n")
}

func TestRender_Minimal(t *testing.T) {
	out := (&ProjectContext{}).Render()
	assert.NotContains(t, out, "## Layout")
	assert.NotContains(t, out, "## Recent history")
}
