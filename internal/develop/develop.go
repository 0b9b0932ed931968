// Package develop implements the development stage: implement the next task,
// verify build and tests with bounded fix-and-retry, then mark the task done.
package develop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/dispatch"
	"github.com/jorge-barreto/colossus/internal/mode"
)

// Verbs passed to the build system.
const (
	VerbBuild = "build"
	VerbTest  = "test"
)

// Outcome is how a development cycle ended.
type Outcome string

const (
	Completed      Outcome = "completed"
	BuildEscalated Outcome = "build-escalated"
	TestEscalated  Outcome = "test-escalated"
)

// CycleReport summarises one development cycle.
type CycleReport struct {
	ID            string
	Outcome       Outcome
	BuildAttempts int
	TestAttempts  int
}

// FeedbackWriter stores the fix instruction produced for a failed verb.
type FeedbackWriter interface {
	WriteFeedback(verb, content string) error
}

const (
	implementInstruction = "find the first UNCOMPLETED task (one without a checkmark ✓) in $TASKS, working in strict numerical order from top to bottom, implement it, and create some way to test it"
	markInstruction      = "Mark the task we just completed in $TASKS as done"
)

var fixFormats = map[string]string{
	VerbBuild: "Fix this build error:\nSTDOUT:\n%s\nSTDERR:\n%s",
	VerbTest:  "Fix these test failures:\nSTDOUT:\n%s\nSTDERR:\n%s",
}

// Developer runs development cycles against one project directory.
type Developer struct {
	Dir      string
	Tasks    string // task list, relative to Dir
	Load     string // context file loaded into every invocation
	Model    string
	Retries  int

	Implement string // instruction for the implementation step
	Mark      string // instruction for the mark-complete step

	Agent    dispatch.CodeAgent
	Build    dispatch.BuildSystem
	Mode     *mode.State
	Feedback FeedbackWriter
	Log      *slog.Logger
}

// New builds a Developer from cfg. fb may be nil.
func New(cfg *config.Config, projectDir string, agent dispatch.CodeAgent, build dispatch.BuildSystem, m *mode.State, fb FeedbackWriter, log *slog.Logger) *Developer {
	vars := cfg.Vars(projectDir)
	implement := cfg.Stage(config.StageDevelop).Instruction
	if implement == "" {
		implement = implementInstruction
	}
	return &Developer{
		Dir:       projectDir,
		Tasks:     cfg.Artifacts.Tasks,
		Load:      cfg.Agent.Load,
		Model:     cfg.Model,
		Retries:   cfg.Retries,
		Implement: dispatch.ExpandVars(implement, vars),
		Mark:      dispatch.ExpandVars(markInstruction, vars),
		Agent:     agent,
		Build:     build,
		Mode:      m,
		Feedback:  fb,
		Log:       log,
	}
}

// cycle carries the id and logger of one development cycle.
type cycle struct {
	id  string
	log *slog.Logger
}

func (d *Developer) newCycle() *cycle {
	id := uuid.NewString()
	return &cycle{id: id, log: d.logger().With("cycle", id[:8])}
}

// Cycle runs one development cycle. The caller is responsible for checking
// that the mode is Developing before calling it.
func (d *Developer) Cycle(ctx context.Context) (report CycleReport) {
	c := d.newCycle()
	report.ID = c.id
	defer func() {
		c.log.Info("cycle finished", "outcome", string(report.Outcome),
			"build_attempts", report.BuildAttempts, "test_attempts", report.TestAttempts)
	}()

	c.log.Info("implementing next task")
	d.invoke(ctx, c, "implement", d.Implement, nil)

	var ok bool
	report.BuildAttempts, ok = d.verify(ctx, c, VerbBuild)
	if !ok {
		report.Outcome = BuildEscalated
		d.escalate(c, VerbBuild, report.BuildAttempts)
		return report
	}

	report.TestAttempts, ok = d.verify(ctx, c, VerbTest)
	if !ok {
		report.Outcome = TestEscalated
		d.escalate(c, VerbTest, report.TestAttempts)
		return report
	}

	c.log.Info("marking task complete")
	d.invoke(ctx, c, "mark", d.Mark, []string{d.Tasks})
	report.Outcome = Completed
	return report
}

// Verify runs verb until it succeeds or the retry budget is spent. After every
// failure, including the last, the agent is asked to fix the captured output.
// It returns the number of attempts made and whether the verb succeeded.
func (d *Developer) Verify(ctx context.Context, verb string) (int, bool) {
	return d.verify(ctx, d.newCycle(), verb)
}

func (d *Developer) verify(ctx context.Context, c *cycle, verb string) (int, bool) {
	log := c.log
	maxAttempts := d.Retries
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultRetries
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		log.Info("verifying", "verb", verb, "attempt", attempt, "max", maxAttempts)
		stdout, stderr, ok := d.runVerb(ctx, log, verb)
		if ok {
			log.Info("verified", "verb", verb, "attempt", attempt)
			return attempt, true
		}
		fix := fmt.Sprintf(fixFormats[verb], stdout, stderr)
		if d.Feedback != nil {
			if err := d.Feedback.WriteFeedback(verb, fix); err != nil {
				log.Warn("writing feedback", "verb", verb, "err", err)
			}
		}
		d.invoke(ctx, c, "fix-"+verb, fix, nil)
	}
	return maxAttempts, false
}

// runVerb runs the build system once. A spawn failure counts as a failed
// attempt with the error text standing in for stderr.
func (d *Developer) runVerb(ctx context.Context, log *slog.Logger, verb string) (stdout, stderr string, ok bool) {
	res, err := d.Build.Run(ctx, d.Dir, verb)
	if err != nil {
		log.Warn("build system failed to run", "verb", verb, "err", err)
		return "", err.Error(), false
	}
	if !res.Success() {
		log.Warn("verification failed", "verb", verb, "exit", res.ExitCode, "log", res.LogPath)
		return res.Stdout, res.Stderr, false
	}
	return res.Stdout, res.Stderr, true
}

func (d *Developer) invoke(ctx context.Context, c *cycle, step, instruction string, files []string) {
	log := c.log
	res, err := d.Agent.Invoke(ctx, dispatch.Invocation{
		Label:       fmt.Sprintf("develop-%s-%s", c.id[:8], step),
		Dir:         d.Dir,
		Instruction: instruction,
		Files:       files,
		Load:        d.Load,
		Model:       d.Model,
	})
	switch {
	case err != nil:
		log.Warn("code agent failed to run", "step", step, "err", err)
	case !res.Success():
		log.Warn("code agent failed", "step", step, "exit", res.ExitCode, "log", res.LogPath)
	}
}

func (d *Developer) escalate(c *cycle, verb string, attempts int) {
	prev := d.Mode.Escalate()
	c.log.Error("something is seriously wrong, human intervention required",
		"verb", verb, "attempts", attempts, "previous_mode", prev.String())
}

func (d *Developer) logger() *slog.Logger {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return log.With("stage", config.StageDevelop)
}
