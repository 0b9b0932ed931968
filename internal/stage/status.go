package stage

import (
	"time"

	"github.com/jorge-barreto/colossus/internal/config"
)

// Status describes a planning stage's output without running anything.
type Status struct {
	Name    string
	Inputs  []string
	Output  string
	Exists  bool
	ModTime time.Time
	Stale   bool
}

// Status reports the current state of the stage's output.
func (s *Stage) Status() Status {
	stale, out, _ := s.check()
	st := Status{
		Name:   s.Name,
		Inputs: s.Inputs,
		Output: s.Output,
		Exists: out.Exists && out.Err == nil,
		Stale:  stale,
	}
	if st.Exists {
		st.ModTime = out.ModTime
	}
	return st
}

// Statuses reports every enabled planning stage of cfg in pipeline order.
func Statuses(cfg *config.Config, projectDir string) []Status {
	stages := Planning(cfg, projectDir, nil, nil)
	out := make([]Status, len(stages))
	for i, s := range stages {
		out[i] = s.Status()
	}
	return out
}
