package runner

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/dispatch"
	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAgent records invocation labels.
type mockAgent struct {
	mu     sync.Mutex
	labels []string
}

func (m *mockAgent) Invoke(_ context.Context, inv dispatch.Invocation) (*dispatch.Result, error) {
	m.mu.Lock()
	m.labels = append(m.labels, inv.Label)
	m.mu.Unlock()
	return &dispatch.Result{}, nil
}

func (m *mockAgent) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.labels)
}

type mockBuild struct {
	mu   sync.Mutex
	runs int
}

func (m *mockBuild) Run(context.Context, string, string) (*dispatch.Result, error) {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()
	return &dispatch.Result{}, nil
}

func counterLoop(name string, m mode.Mode, n *atomic.Int32) Loop {
	return Loop{Name: name, Interval: time.Millisecond, Mode: m, Body: func(context.Context) { n.Add(1) }}
}

func newTestRunner(loops ...Loop) *Runner {
	return &Runner{
		Loops:    loops,
		Mode:     mode.NewState(),
		Shutdown: &mode.Shutdown{},
		Log:      slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
	}
}

func TestTick_ModeGating(t *testing.T) {
	var planning, developing atomic.Int32
	r := newTestRunner()
	pl := counterLoop("requirements", mode.Planning, &planning)
	dl := counterLoop("develop", mode.Developing, &developing)

	for i := 0; i < 3; i++ {
		assert.True(t, r.Tick(context.Background(), pl))
		assert.True(t, r.Tick(context.Background(), dl))
	}
	assert.Equal(t, int32(3), planning.Load())
	assert.Equal(t, int32(0), developing.Load())

	_, err := r.Mode.Set("developing")
	require.NoError(t, err)
	r.Tick(context.Background(), pl)
	r.Tick(context.Background(), dl)
	assert.Equal(t, int32(3), planning.Load())
	assert.Equal(t, int32(1), developing.Load())
}

func TestTick_ShutdownStopsBeforeBody(t *testing.T) {
	var n atomic.Int32
	r := newTestRunner()
	r.Shutdown.Trigger()
	assert.False(t, r.Tick(context.Background(), counterLoop("requirements", mode.Planning, &n)))
	assert.Equal(t, int32(0), n.Load())
}

func TestTick_HaltedWarning(t *testing.T) {
	var buf bytes.Buffer
	var n atomic.Int32
	r := newTestRunner()
	r.Log = slog.New(slog.NewTextHandler(&buf, nil))
	r.Mode.Escalate()

	assert.True(t, r.Tick(context.Background(), counterLoop("develop", mode.Developing, &n)))
	assert.True(t, r.Tick(context.Background(), counterLoop("requirements", mode.Planning, &n)))
	assert.Equal(t, int32(0), n.Load())
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("development halted")))
}

func TestRun_CancelStopsAllLoops(t *testing.T) {
	var a, b atomic.Int32
	r := newTestRunner(
		counterLoop("requirements", mode.Planning, &a),
		counterLoop("architecture", mode.Planning, &b),
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Load() > 2 && b.Load() > 2 }, 2*time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	assert.True(t, r.Shutdown.Requested())

	stopped := a.Load()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, stopped, a.Load())
}

func TestRun_InFlightBodyNotCancelled(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var bodyErr atomic.Value
	var once sync.Once

	r := newTestRunner(Loop{
		Name:     "develop",
		Interval: time.Millisecond,
		Mode:     mode.Planning,
		Body: func(ctx context.Context) {
			once.Do(func() {
				close(started)
				<-release
				bodyErr.Store(ctx.Err() == nil)
			})
		},
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	<-started
	cancel()
	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, true, bodyErr.Load(), "body context must survive cancellation")
}

func TestRun_IndependentIntervals(t *testing.T) {
	var fast, slow atomic.Int32
	r := newTestRunner(
		Loop{Name: "fast", Interval: time.Millisecond, Mode: mode.Planning, Body: func(context.Context) { fast.Add(1) }},
		Loop{Name: "slow", Interval: time.Hour, Mode: mode.Planning, Body: func(context.Context) { slow.Add(1) }},
	)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return fast.Load() >= 5 }, 2*time.Second, time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, int32(0), slow.Load(), "first tick comes after one full interval")
}

func TestNew_WiresStages(t *testing.T) {
	cfg, err := config.Parse([]byte(`
stages:
  test-strategy:
    disabled: true
  develop:
    interval: 7s
`))
	require.NoError(t, err)
	r := New(cfg, t.TempDir(), &mockAgent{}, &mockBuild{}, mode.NewState(), &mode.Shutdown{}, nil, nil)

	var names []string
	for _, l := range r.Loops {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"requirements", "architecture", "tasks", "develop"}, names)
	last := r.Loops[len(r.Loops)-1]
	assert.Equal(t, mode.Developing, last.Mode)
	assert.Equal(t, 7*time.Second, last.Interval)
	assert.Equal(t, mode.Planning, r.Loops[0].Mode)
}

func TestNew_PlanningModeNeverDevelops(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for _, name := range []string{"TRANSCRIPT.md", "PROJECT.md", "ARCHITECTURE.md", "TASKS.md", "TEST_STRATEGY.md"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		require.NoError(t, os.Chtimes(path, now, now))
	}

	agent := &mockAgent{}
	build := &mockBuild{}
	r := New(config.Default(), dir, agent, build, mode.NewState(), &mode.Shutdown{}, nil, nil)
	for i := 0; i < 3; i++ {
		for _, l := range r.Loops {
			r.Tick(context.Background(), l)
		}
	}
	assert.Equal(t, 0, agent.callCount(), "everything is fresh and development is gated off")
	assert.Equal(t, 0, build.runs)

	_, err := r.Mode.Set("developing")
	require.NoError(t, err)
	r.Tick(context.Background(), r.Loops[len(r.Loops)-1])
	assert.Equal(t, 2, agent.callCount(), "implement and mark")
	assert.Equal(t, 2, build.runs)
}
