// Package dispatch runs the external collaborators: the code agent that edits
// project files and the build system that verifies them.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/jorge-barreto/colossus/internal/state"
)

// Invocation is one request to the code agent.
type Invocation struct {
	Label       string   // stage or step name, used to name the log file
	Dir         string   // working directory
	Instruction string   // natural-language message
	Files       []string // files the agent may read and edit, in order
	Load        string   // optional context file loaded before the message
	Model       string   // optional model identifier
}

// Result holds the outcome of an external command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	LogPath  string
}

// Success reports whether the command exited with status zero.
func (r *Result) Success() bool {
	return r != nil && r.ExitCode == 0
}

// CodeAgent edits project files according to an instruction. Tests can
// substitute a stub.
type CodeAgent interface {
	Invoke(ctx context.Context, inv Invocation) (*Result, error)
}

// BuildSystem runs a verification verb such as "build" or "test" in dir.
type BuildSystem interface {
	Run(ctx context.Context, dir, verb string) (*Result, error)
}

// Environment holds the execution context shared by every child process.
type Environment struct {
	ProjectDir string
	Workspace  *state.Workspace
	CustomVars map[string]string
	DotEnv     map[string]string // from the project's .env; never overrides the process environment

	once        sync.Once
	filteredEnv []string // os.Environ minus CLAUDECODE, plus .env, snapshotted once
}

// LoadDotEnv reads projectDir/.env. A missing file yields nil.
func LoadDotEnv(projectDir string) (map[string]string, error) {
	vars, err := godotenv.Read(filepath.Join(projectDir, ".env"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading .env: %w", err)
	}
	return vars, nil
}

// BuildEnv returns the environment variables for a child process started on
// behalf of label. It inherits the current environment, fills in keys from
// .env that the environment lacks, adds COLOSSUS_ variables, and strips
// CLAUDECODE so nested agent CLIs do not refuse to run.
func BuildEnv(env *Environment, label string) []string {
	env.once.Do(func() {
		present := make(map[string]bool)
		for _, e := range os.Environ() {
			key := strings.SplitN(e, "=", 2)[0]
			present[key] = true
			if strings.HasPrefix(key, "CLAUDECODE") {
				continue
			}
			env.filteredEnv = append(env.filteredEnv, e)
		}
		keys := make([]string, 0, len(env.DotEnv))
		for k := range env.DotEnv {
			if !present[k] && !strings.HasPrefix(k, "CLAUDECODE") {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			env.filteredEnv = append(env.filteredEnv, k+"="+env.DotEnv[k])
		}
	})
	result := make([]string, len(env.filteredEnv), len(env.filteredEnv)+3+len(env.CustomVars))
	copy(result, env.filteredEnv)

	keys := make([]string, 0, len(env.CustomVars))
	for k := range env.CustomVars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		result = append(result, "COLOSSUS_"+k+"="+env.CustomVars[k])
	}
	result = append(result,
		"COLOSSUS_PROJECT_DIR="+env.ProjectDir,
		"COLOSSUS_STAGE="+label,
	)
	if env.Workspace != nil {
		result = append(result, "COLOSSUS_WORKSPACE="+env.Workspace.Dir)
	}
	return result
}
