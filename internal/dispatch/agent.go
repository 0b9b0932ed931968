package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/colossus/internal/config"
)

// Aider drives the aider CLI as the code agent.
type Aider struct {
	Command string
	Args    []string // leading arguments, before per-invocation flags
	Timeout time.Duration
	Env     *Environment
	Echo    io.Writer
}

// NewAider builds an Aider from the agent section of cfg.
func NewAider(cfg *config.Config, env *Environment) *Aider {
	return &Aider{
		Command: cfg.Agent.Command,
		Args:    append([]string(nil), cfg.Agent.Args...),
		Timeout: time.Duration(cfg.Agent.Timeout) * time.Minute,
		Env:     env,
	}
}

// CommandLine returns the argument list for inv, without the command name.
// The context file is passed with --load only when it exists in inv.Dir.
func (a *Aider) CommandLine(inv Invocation) []string {
	args := append([]string(nil), a.Args...)
	if inv.Model != "" {
		args = append(args, "--model", inv.Model)
	}
	args = append(args, "--message", inv.Instruction)
	if inv.Load != "" {
		if _, err := os.Stat(filepath.Join(inv.Dir, inv.Load)); err == nil {
			args = append(args, "--load", inv.Load)
		}
	}
	return append(args, inv.Files...)
}

// Invoke runs the agent once and waits for it to exit.
func (a *Aider) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	c := command{
		name:    a.Command,
		args:    a.CommandLine(inv),
		dir:     inv.Dir,
		timeout: a.Timeout,
		echo:    a.Echo,
	}
	if a.Env != nil {
		c.env = BuildEnv(a.Env, inv.Label)
		if a.Env.Workspace != nil {
			c.logPath = a.Env.Workspace.LogPath(inv.Label)
		}
	}
	return run(ctx, c)
}
