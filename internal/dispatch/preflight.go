package dispatch

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/jorge-barreto/colossus/internal/config"
)

// Preflight checks that the agent and build commands are available on PATH.
func Preflight(cfg *config.Config) error {
	var missing []string
	seen := make(map[string]bool)
	for _, bin := range []string{cfg.Agent.Command, cfg.Build.Command} {
		if bin == "" || seen[bin] {
			continue
		}
		seen[bin] = true
		if _, err := exec.LookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required binaries not found in PATH: %s", strings.Join(missing, ", "))
	}
	return nil
}
