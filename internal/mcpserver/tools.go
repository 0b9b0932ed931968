package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/jorge-barreto/colossus/internal/stage"
	"github.com/jorge-barreto/colossus/internal/state"
	"github.com/mark3labs/mcp-go/mcp"
)

// GetModeTool handles colossus_get_mode.
type GetModeTool struct {
	project *Project
}

// Definition returns the MCP tool definition for registration.
func (t *GetModeTool) Definition() mcp.Tool {
	return mcp.NewTool("colossus_get_mode",
		mcp.WithDescription("Return the current activity mode: planning, developing or error."),
	)
}

// Handle processes the tool call.
func (t *GetModeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := t.project.modeFile().Read()
	if errors.Is(err, fs.ErrNotExist) {
		return mcp.NewToolResultError("No mode file yet. Is `colossus serve` running in this project?"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading mode file: %w", err)
	}
	if snap.Err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Mode file holds %q, which is not a mode.", snap.Raw)), nil
	}
	return mcp.NewToolResultText(snap.Mode.String()), nil
}

// SetModeTool handles colossus_set_mode.
type SetModeTool struct {
	project *Project
}

// Definition returns the MCP tool definition for registration.
func (t *SetModeTool) Definition() mcp.Tool {
	return mcp.NewTool("colossus_set_mode",
		mcp.WithDescription(
			"Request a new activity mode. Only \"planning\" and \"developing\" can be requested; "+
				"the error mode is entered automatically when development gets stuck.",
		),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("planning or developing"),
		),
	)
}

// Handle processes the tool call.
func (t *SetModeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("mode", "")
	m, err := t.project.modeFile().Request(name)
	if errors.Is(err, mode.ErrInvalidMode) || errors.Is(err, mode.ErrNotSettable) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("Mode change to %s requested.", m)), nil
}

// TranscriptTool handles colossus_update_transcript.
type TranscriptTool struct {
	project *Project
}

// Definition returns the MCP tool definition for registration.
func (t *TranscriptTool) Definition() mcp.Tool {
	return mcp.NewTool("colossus_update_transcript",
		mcp.WithDescription(
			"Replace the conversation transcript, or append to it. The requirements document "+
				"is regenerated from the transcript whenever it changes.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Transcript text in Markdown"),
		),
		mcp.WithBoolean("append",
			mcp.Description("If true, append to the existing transcript instead of replacing it (default: false)"),
		),
	)
}

// Handle processes the tool call.
func (t *TranscriptTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content must not be empty"), nil
	}
	path := filepath.Join(t.project.Dir, t.project.Config.Artifacts.Transcript)

	if boolArg(req, "append", false) {
		prev, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading transcript: %w", err)
		}
		if len(prev) > 0 && !strings.HasSuffix(string(prev), "\n") {
			prev = append(prev, '\n')
		}
		content = string(prev) + content
	}
	if err := state.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("writing transcript: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Transcript updated (%d bytes).", len(content))), nil
}

// StatusTool handles colossus_status.
type StatusTool struct {
	project *Project
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("colossus_status",
		mcp.WithDescription("Show the activity mode and, for each planning document, whether it exists and is stale."),
	)
}

// Handle processes the tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modeName := "unknown"
	if snap, err := t.project.modeFile().Read(); err == nil && snap.Err == nil {
		modeName = snap.Mode.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# colossus status\n\n**Mode:** %s\n\n", modeName)
	b.WriteString("| Stage | Output | State |\n")
	b.WriteString("|-------|--------|-------|\n")
	for _, st := range stage.Statuses(t.project.Config, t.project.Dir) {
		label := "✅ current"
		switch {
		case !st.Exists:
			label = "⬜ missing"
		case st.Stale:
			label = "🔄 stale"
		}
		fmt.Fprintf(&b, "| %s | `%s` | %s |\n", st.Name, st.Output, label)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}
