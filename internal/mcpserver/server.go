// Package mcpserver exposes the mode toggle, the transcript and pipeline
// status to an MCP-capable front-end over stdio. It works only through the
// project files, so it can run beside `colossus serve` in another process.
package mcpserver

import (
	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/control"
	"github.com/jorge-barreto/colossus/internal/state"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Project is what every tool needs to locate the project's files.
type Project struct {
	Dir    string
	Config *config.Config
}

func (p *Project) modeFile() *control.ModeFile {
	return control.NewModeFile(state.New(p.Dir, config.Dir).ModePath())
}

// New creates the MCP server with all tools registered.
func New(p *Project) *server.MCPServer {
	s := server.NewMCPServer(
		"colossus",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	getMode := &GetModeTool{project: p}
	s.AddTool(getMode.Definition(), getMode.Handle)

	setMode := &SetModeTool{project: p}
	s.AddTool(setMode.Definition(), setMode.Handle)

	transcript := &TranscriptTool{project: p}
	s.AddTool(transcript.Definition(), transcript.Handle)

	status := &StatusTool{project: p}
	s.AddTool(status.Definition(), status.Handle)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(p *Project) error {
	return server.ServeStdio(New(p))
}

const instructions = `colossus turns a conversation into a project. Keep the transcript current
with colossus_update_transcript while talking to the user; requirements,
architecture, tasks and test strategy are regenerated from it automatically
while the mode is "planning". Switch to "developing" with colossus_set_mode
when the user is happy with the plan. If colossus_get_mode reports "error",
development stopped after repeated build or test failures and needs a human
to look before switching mode again.`
