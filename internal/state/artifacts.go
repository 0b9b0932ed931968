// Package state manages the .colossus workspace directory: invocation logs,
// fix-instruction feedback and atomically written control files.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MaxLogs is how many invocation logs are kept in logs/. Older ones are
// removed every pruneEvery new logs and whenever the workspace is set up.
const MaxLogs = 500

const pruneEvery = 50

// Workspace is the .colossus directory of one project.
type Workspace struct {
	Dir string

	logs atomic.Int64 // LogPath calls, to schedule pruning
}

// New returns the workspace rooted at <projectDir>/<name>.
func New(projectDir, name string) *Workspace {
	return &Workspace{Dir: filepath.Join(projectDir, name)}
}

// EnsureDir creates the workspace directory structure.
func (w *Workspace) EnsureDir() error {
	dirs := []string{
		w.Dir,
		filepath.Join(w.Dir, "logs"),
		filepath.Join(w.Dir, "feedback"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return fmt.Errorf("creating workspace dir %s: %w", d, err)
		}
	}
	_, err := w.PruneLogs(MaxLogs)
	return err
}

// ModePath returns the path of the mode toggle file.
func (w *Workspace) ModePath() string {
	return filepath.Join(w.Dir, "mode")
}

// LockPath returns the path of the single-instance lock for `serve`.
func (w *Workspace) LockPath() string {
	return filepath.Join(w.Dir, "serve.lock")
}

// LogFile returns the path of the structured log.
func (w *Workspace) LogFile() string {
	return filepath.Join(w.Dir, "colossus.log")
}

// LogPath returns a fresh path for one invocation's captured output.
func (w *Workspace) LogPath(label string) string {
	if w.logs.Add(1)%pruneEvery == 0 {
		w.PruneLogs(MaxLogs)
	}
	name := fmt.Sprintf("%s-%s-%s.log", sanitize(label), time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	return filepath.Join(w.Dir, "logs", name)
}

// PruneLogs deletes the oldest invocation logs so that at most keep remain.
// It returns the number removed.
func (w *Workspace) PruneLogs(keep int) (int, error) {
	dir := filepath.Join(w.Dir, "logs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	type logFile struct {
		name string
		mod  time.Time
	}
	var logs []logFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		logs = append(logs, logFile{e.Name(), info.ModTime()})
	}
	if len(logs) <= keep {
		return 0, nil
	}
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].mod.Equal(logs[j].mod) {
			return logs[i].mod.After(logs[j].mod)
		}
		return logs[i].name > logs[j].name
	})
	removed := 0
	var errs []error
	for _, l := range logs[keep:] {
		if err := os.Remove(filepath.Join(dir, l.name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// WriteFeedback records the fix instruction produced for a failed verb.
func (w *Workspace) WriteFeedback(verb, content string) error {
	path := filepath.Join(w.Dir, "feedback", fmt.Sprintf("from-%s.md", sanitize(verb)))
	return os.WriteFile(path, []byte(content), 0644)
}

// Feedback is one stored fix instruction.
type Feedback struct {
	Name    string
	ModTime time.Time
	Content string
}

// ReadFeedback returns stored fix instructions, most recent first.
func (w *Workspace) ReadFeedback() ([]Feedback, error) {
	dir := filepath.Join(w.Dir, "feedback")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []Feedback
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, Feedback{Name: e.Name(), ModTime: info.ModTime(), Content: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
