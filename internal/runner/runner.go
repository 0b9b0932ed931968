// Package runner schedules the stage loops. Every loop ticks on its own
// interval and runs its body only while the activity mode allows it.
package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/develop"
	"github.com/jorge-barreto/colossus/internal/dispatch"
	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/jorge-barreto/colossus/internal/stage"
)

// Loop is one independently scheduled stage.
type Loop struct {
	Name     string
	Interval time.Duration
	Mode     mode.Mode // mode required for Body to run
	Body     func(ctx context.Context)
}

// Runner drives a set of loops until shutdown.
type Runner struct {
	Loops    []Loop
	Mode     *mode.State
	Shutdown *mode.Shutdown
	Log      *slog.Logger

	// Wait blocks for d or until ctx is done. Tests replace it.
	Wait func(ctx context.Context, d time.Duration)
}

// New wires the planning stages and the development stage into a Runner.
func New(cfg *config.Config, projectDir string, agent dispatch.CodeAgent, build dispatch.BuildSystem,
	m *mode.State, sd *mode.Shutdown, fb develop.FeedbackWriter, log *slog.Logger) *Runner {
	r := &Runner{Mode: m, Shutdown: sd, Log: log}
	for _, s := range stage.Planning(cfg, projectDir, agent, log) {
		r.Loops = append(r.Loops, PlanningLoop(s))
	}
	if dc := cfg.Stage(config.StageDevelop); !dc.Disabled {
		d := develop.New(cfg, projectDir, agent, build, m, fb, log)
		r.Loops = append(r.Loops, DevelopLoop(d, dc.Interval.Std()))
	}
	return r
}

// PlanningLoop wraps a planning stage.
func PlanningLoop(s *stage.Stage) Loop {
	return Loop{
		Name:     s.Name,
		Interval: s.Interval,
		Mode:     mode.Planning,
		Body:     func(ctx context.Context) { s.Run(ctx) },
	}
}

// DevelopLoop wraps the development stage.
func DevelopLoop(d *develop.Developer, interval time.Duration) Loop {
	return Loop{
		Name:     config.StageDevelop,
		Interval: interval,
		Mode:     mode.Developing,
		Body:     func(ctx context.Context) { d.Cycle(ctx) },
	}
}

// Run starts every loop and blocks until all of them have stopped.
// Cancelling ctx triggers shutdown. Loop bodies run on a context that is not
// cancelled, so an invocation in flight is allowed to finish.
func (r *Runner) Run(ctx context.Context) {
	stop := context.AfterFunc(ctx, r.Shutdown.Trigger)
	defer stop()

	bodyCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, l := range r.Loops {
		wg.Add(1)
		go func(l Loop) {
			defer wg.Done()
			r.loop(ctx, bodyCtx, l)
		}(l)
	}
	wg.Wait()
}

func (r *Runner) loop(ctx, bodyCtx context.Context, l Loop) {
	log := r.logger().With("stage", l.Name)
	log.Debug("loop started", "interval", l.Interval)
	for {
		r.wait(ctx, l.Interval)
		if ctx.Err() != nil {
			r.Shutdown.Trigger()
		}
		if !r.Tick(bodyCtx, l) {
			log.Info("shutting down cleanly")
			return
		}
	}
}

// Tick runs one iteration of l. It returns false once shutdown has been
// requested.
func (r *Runner) Tick(ctx context.Context, l Loop) bool {
	if r.Shutdown.Requested() {
		return false
	}
	current := r.Mode.Get()
	if current != l.Mode {
		if current == mode.ErrorNeedsHuman && l.Mode == mode.Developing {
			r.logger().Warn("development halted, human intervention required", "stage", l.Name)
		}
		return true
	}
	l.Body(ctx)
	return true
}

func (r *Runner) wait(ctx context.Context, d time.Duration) {
	if r.Wait != nil {
		r.Wait(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
