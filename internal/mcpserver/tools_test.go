package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func newProject(t *testing.T) *Project {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, config.Dir), 0755))
	return &Project{Dir: dir, Config: config.Default()}
}

func TestDefinitions(t *testing.T) {
	p := newProject(t)
	assert.Equal(t, "colossus_get_mode", (&GetModeTool{project: p}).Definition().Name)
	assert.Equal(t, "colossus_set_mode", (&SetModeTool{project: p}).Definition().Name)
	assert.Equal(t, "colossus_update_transcript", (&TranscriptTool{project: p}).Definition().Name)
	assert.Equal(t, "colossus_status", (&StatusTool{project: p}).Definition().Name)
	assert.NotNil(t, New(p))
}

func TestGetMode_NoFile(t *testing.T) {
	p := newProject(t)
	result, err := (&GetModeTool{project: p}).Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(result), "colossus serve")
}

func TestSetThenGetMode(t *testing.T) {
	p := newProject(t)
	set := &SetModeTool{project: p}
	get := &GetModeTool{project: p}

	result, err := set.Handle(context.Background(), makeReq(map[string]interface{}{"mode": "developing"}))
	require.NoError(t, err)
	assert.False(t, result.IsError, resultText(result))

	result, err = get.Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.Equal(t, "developing", resultText(result))
}

func TestSetMode_Rejects(t *testing.T) {
	p := newProject(t)
	set := &SetModeTool{project: p}
	for _, name := range []string{"error", "", "sleeping"} {
		result, err := set.Handle(context.Background(), makeReq(map[string]interface{}{"mode": name}))
		require.NoError(t, err)
		assert.True(t, result.IsError, name)
	}
	_, err := os.Stat(p.modeFile().Path)
	assert.True(t, os.IsNotExist(err))
}

func TestGetMode_ReportsEscalation(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(p.modeFile().Path, []byte(mode.ErrorNeedsHuman.String()+"\n"), 0644))

	result, err := (&GetModeTool{project: p}).Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.Equal(t, "error", resultText(result))
}

func TestTranscript_ReplaceAndAppend(t *testing.T) {
	p := newProject(t)
	tool := &TranscriptTool{project: p}
	path := filepath.Join(p.Dir, "TRANSCRIPT.md")

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"content": "user: hello"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	_, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"content": "assistant: hi", "append": true}))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "user: hello\nassistant: hi", string(data))

	_, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"content": "fresh"}))
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestTranscript_EmptyRejected(t *testing.T) {
	p := newProject(t)
	result, err := (&TranscriptTool{project: p}).Handle(context.Background(), makeReq(map[string]interface{}{"content": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestStatus(t *testing.T) {
	p := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(p.Dir, "PROJECT.md"), []byte("reqs"), 0644))
	_, err := p.modeFile().Request("planning")
	require.NoError(t, err)

	result, err := (&StatusTool{project: p}).Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	text := resultText(result)
	assert.Contains(t, text, "**Mode:** planning")
	assert.Contains(t, text, "| requirements | `PROJECT.md` | ✅ current |")
	assert.Contains(t, text, "| tasks | `TASKS.md` | ⬜ missing |")
	assert.Equal(t, 4, strings.Count(text, "\n| ")-1, "header plus four stages")
}
