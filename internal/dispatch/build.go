package dispatch

import (
	"context"
	"io"
	"time"

	"github.com/jorge-barreto/colossus/internal/config"
)

// Make runs verification verbs through make, or whatever command the build
// section configures. The verb is the final argument.
type Make struct {
	Command string
	Args    []string
	Timeout time.Duration
	Env     *Environment
	Echo    io.Writer
}

// NewMake builds a Make from the build section of cfg.
func NewMake(cfg *config.Config, env *Environment) *Make {
	return &Make{
		Command: cfg.Build.Command,
		Args:    append([]string(nil), cfg.Build.Args...),
		Timeout: time.Duration(cfg.Build.Timeout) * time.Minute,
		Env:     env,
	}
}

// Run executes the verb in dir.
func (m *Make) Run(ctx context.Context, dir, verb string) (*Result, error) {
	c := command{
		name:    m.Command,
		args:    append(append([]string(nil), m.Args...), verb),
		dir:     dir,
		timeout: m.Timeout,
		echo:    m.Echo,
	}
	if m.Env != nil {
		c.env = BuildEnv(m.Env, verb)
		if m.Env.Workspace != nil {
			c.logPath = m.Env.Workspace.LogPath(verb)
		}
	}
	return run(ctx, c)
}
