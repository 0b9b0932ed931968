// Package scaffold implements `colossus init`.
package scaffold

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/contextgather"
	"github.com/jorge-barreto/colossus/internal/state"
	"github.com/jorge-barreto/colossus/internal/ux"
)

var configTemplate = `# colossus project configuration. Every key is optional.

# Model passed to the code agent with --model. Empty uses the agent's default.
model: ""

# Build and test attempts per development cycle before asking for help.
retries: 5

# How often the mode file is checked for requests from the front-end.
mode-poll: 1s

agent:
  command: aider
  args: [--no-suggest-shell-commands, --yes-always]
  load: CONTEXT.md
  timeout: 0 # minutes, 0 = no limit

build:
  command: make # runs "make build" and "make test"
  timeout: 0

artifacts:
  transcript: TRANSCRIPT.md
  requirements: PROJECT.md
  architecture: ARCHITECTURE.md
  tasks: TASKS.md
  test-strategy: TEST_STRATEGY.md
  context: CONTEXT.md

stages:
  requirements:
    interval: 60s
  architecture:
    interval: 60s
  tasks:
    interval: 60s
  test-strategy:
    interval: 60s
  develop:
    interval: 30s
`

var gitignoreTemplate = `logs/
feedback/
mode
mode.lock
serve.lock
colossus.log
`

// Init creates .colossus/ in projectDir with a commented config, and seeds
// the agent context file when the project does not have one yet. A summary
// is printed to w.
func Init(projectDir string, w io.Writer) error {
	cfgPath := config.Path(projectDir)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	ws := state.New(projectDir, config.Dir)
	if err := ws.EnsureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(cfgPath, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(ws.Dir, ".gitignore"), []byte(gitignoreTemplate), 0644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	created := []string{
		filepath.Join(config.Dir, "config.yaml"),
		filepath.Join(config.Dir, ".gitignore"),
	}

	cfg := config.Default()
	ctxPath := filepath.Join(projectDir, cfg.Artifacts.Context)
	if _, err := os.Stat(ctxPath); errors.Is(err, fs.ErrNotExist) {
		body := contextgather.Gather(projectDir).Render()
		if err := os.WriteFile(ctxPath, []byte(body), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", cfg.Artifacts.Context, err)
		}
		created = append(created, cfg.Artifacts.Context)
	}

	fmt.Fprintf(w, "\n%s\n\n", ux.Green(ux.Bold("✓ Initialized "+config.Dir+"/")))
	fmt.Fprintf(w, "  Created:\n")
	for _, c := range created {
		fmt.Fprintf(w, "    %s\n", ux.Cyan(c))
	}
	fmt.Fprintf(w, "\n  Next steps:\n")
	fmt.Fprintf(w, "    1. Make sure %s and %s work, or let the agent create them\n", ux.Cyan("make build"), ux.Cyan("make test"))
	fmt.Fprintf(w, "    2. Run %s and point your front-end at it\n", ux.Cyan("colossus serve"))
	fmt.Fprintf(w, "    3. Switch to development with %s once the plan looks right\n\n", ux.Cyan("colossus mode developing"))
	return nil
}
