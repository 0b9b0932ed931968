// Package stage implements the document stages that run in planning mode.
// Each stage regenerates one output artifact from its inputs whenever the
// output is missing or older than an input.
package stage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jorge-barreto/colossus/internal/artifact"
	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/dispatch"
)

// Outcome is what one tick of a stage did.
type Outcome int

const (
	// UpToDate means no invocation was needed, or staleness could not be
	// determined.
	UpToDate Outcome = iota
	// Updated means the agent ran and the output changed.
	Updated
	// Touched means the agent ran but left the output alone, so the output
	// timestamp was bumped to stop the next tick re-triggering.
	Touched
	// Failed means the agent could not be run or exited non-zero.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case UpToDate:
		return "up-to-date"
	case Updated:
		return "updated"
	case Touched:
		return "touched"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage is one planning stage. Paths are relative to Dir, which is also the
// agent's working directory.
type Stage struct {
	Name        string
	Inputs      []string
	Output      string
	Instruction string
	Interval    time.Duration
	Dir         string
	Model       string
	Agent       dispatch.CodeAgent
	Log         *slog.Logger
}

// Stale reports whether the output needs regenerating.
func (s *Stage) Stale() bool {
	stale, _, _ := s.check()
	return stale
}

func (s *Stage) check() (bool, artifact.Meta, []artifact.Meta) {
	inputs := make([]string, len(s.Inputs))
	for i, in := range s.Inputs {
		inputs[i] = filepath.Join(s.Dir, in)
	}
	return artifact.Check(filepath.Join(s.Dir, s.Output), inputs...)
}

// Run executes one tick: it checks staleness and, if needed, invokes the
// agent exactly once. Failures are logged and not retried.
func (s *Stage) Run(ctx context.Context) Outcome {
	log := s.logger()

	stale, out, ins := s.check()
	if !stale {
		if err := metaErr(out, ins); err != nil {
			log.Debug("staleness unknown, skipping", "err", err)
		}
		return UpToDate
	}

	before := out.ModTime
	log.Info("regenerating", "output", s.Output, "inputs", s.Inputs)
	res, err := s.Agent.Invoke(ctx, dispatch.Invocation{
		Label:       s.Name,
		Dir:         s.Dir,
		Instruction: s.Instruction,
		Files:       append(append([]string(nil), s.Inputs...), s.Output),
		Model:       s.Model,
	})
	if err != nil {
		log.Warn("code agent failed to run", "err", err)
		return Failed
	}
	if !res.Success() {
		log.Warn("code agent failed", "exit", res.ExitCode, "stderr", tail(res.Stderr), "log", res.LogPath)
		return Failed
	}

	after := artifact.Stat(filepath.Join(s.Dir, s.Output))
	if after.Exists && after.Err == nil && after.ModTime.After(before) {
		log.Info("updated", "output", s.Output)
		return Updated
	}

	log.Warn("output not updated, touching it", "output", s.Output)
	if err := artifact.Touch(filepath.Join(s.Dir, s.Output)); err != nil {
		log.Warn("touch failed", "output", s.Output, "err", err)
	}
	return Touched
}

func (s *Stage) logger() *slog.Logger {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	return log.With("stage", s.Name)
}

// metaErr returns the first metadata error that is not a plain missing output.
func metaErr(out artifact.Meta, ins []artifact.Meta) error {
	if out.Err != nil && !errors.Is(out.Err, fs.ErrNotExist) {
		return out.Err
	}
	for _, in := range ins {
		if in.Err != nil {
			return in.Err
		}
	}
	return nil
}

// tail keeps log lines readable when an agent dumps a large stderr.
func tail(s string) string {
	const max = 2000
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

// Planning builds the enabled planning stages from cfg in pipeline order.
func Planning(cfg *config.Config, projectDir string, agent dispatch.CodeAgent, log *slog.Logger) []*Stage {
	a := cfg.Artifacts
	vars := cfg.Vars(projectDir)
	defs := []struct {
		name   string
		inputs []string
		output string
	}{
		{config.StageRequirements, []string{a.Transcript}, a.Requirements},
		{config.StageArchitecture, []string{a.Requirements}, a.Architecture},
		{config.StageTasks, []string{a.Requirements, a.Architecture}, a.Tasks},
		{config.StageTestStrategy, []string{a.Tasks, a.Architecture}, a.TestStrategy},
	}

	var stages []*Stage
	for _, d := range defs {
		sc := cfg.Stage(d.name)
		if sc.Disabled {
			continue
		}
		tmpl := sc.Instruction
		if tmpl == "" {
			tmpl = DefaultInstructions[d.name]
		}
		stages = append(stages, &Stage{
			Name:        d.name,
			Inputs:      d.inputs,
			Output:      d.output,
			Instruction: dispatch.ExpandVars(tmpl, vars),
			Interval:    sc.Interval.Std(),
			Dir:         projectDir,
			Model:       cfg.Model,
			Agent:       agent,
			Log:         log,
		})
	}
	return stages
}
