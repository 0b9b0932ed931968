// Package doctor checks that a project is ready for `colossus serve` and,
// when development has escalated, shows what went wrong.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gofrs/flock"
	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/jorge-barreto/colossus/internal/control"
	"github.com/jorge-barreto/colossus/internal/dispatch"
	"github.com/jorge-barreto/colossus/internal/state"
	"github.com/jorge-barreto/colossus/internal/ux"
)

const maxLogLines = 40

// ErrNotGitRepo is returned when the project directory has no .git entry.
var ErrNotGitRepo = errors.New("no .git directory found; run colossus from a git repository")

// RequireGit fails unless projectDir is a git repository.
func RequireGit(projectDir string) error {
	if _, err := os.Stat(filepath.Join(projectDir, ".git")); err != nil {
		return ErrNotGitRepo
	}
	return nil
}

// Level grades a check.
type Level int

const (
	OK Level = iota
	Warn
	Fail
)

// Check is one diagnostic line.
type Check struct {
	Name   string
	Level  Level
	Detail string
}

// Report is the result of Diagnose.
type Report struct {
	Checks   []Check
	Mode     string
	Feedback *state.Feedback
	LogPath  string
	LogTail  string
}

// Failed reports whether any check failed.
func (r *Report) Failed() bool {
	for _, c := range r.Checks {
		if c.Level == Fail {
			return true
		}
	}
	return false
}

func (r *Report) add(name string, level Level, format string, args ...any) {
	r.Checks = append(r.Checks, Check{Name: name, Level: level, Detail: fmt.Sprintf(format, args...)})
}

// Diagnose inspects projectDir without changing anything.
func Diagnose(projectDir string) *Report {
	r := &Report{Mode: "unknown"}

	if err := RequireGit(projectDir); err != nil {
		r.add("git", Fail, "%v", err)
	} else {
		r.add("git", OK, "repository found")
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		r.add("config", Fail, "%v", err)
		cfg = config.Default()
	} else if _, statErr := os.Stat(config.Path(projectDir)); statErr != nil {
		r.add("config", Warn, "no %s, using defaults (run colossus init)", filepath.Join(config.Dir, "config.yaml"))
	} else {
		r.add("config", OK, "valid")
	}

	if err := dispatch.Preflight(cfg); err != nil {
		r.add("binaries", Fail, "%v", err)
	} else {
		r.add("binaries", OK, "%s and %s found", cfg.Agent.Command, cfg.Build.Command)
	}

	if cfg.Build.Command == "make" {
		checkMakefile(r, projectDir)
	}

	if _, err := os.Stat(filepath.Join(projectDir, cfg.Artifacts.Context)); err != nil {
		r.add("context", Warn, "%s not found; the agent runs without project conventions", cfg.Artifacts.Context)
	} else {
		r.add("context", OK, "%s present", cfg.Artifacts.Context)
	}

	ws := state.New(projectDir, config.Dir)
	checkServe(r, ws)

	snap, err := control.NewModeFile(ws.ModePath()).Read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		r.add("mode", Warn, "%v", err)
	case snap.Err != nil:
		r.add("mode", Warn, "mode file holds %q", snap.Raw)
	default:
		r.Mode = snap.Mode.String()
		if r.Mode == "error" {
			r.add("mode", Fail, "development escalated and needs a human; fix the problem, then run colossus mode developing")
		}
	}

	if fb, err := ws.ReadFeedback(); err == nil && len(fb) > 0 {
		r.Feedback = &fb[0]
	}
	r.LogPath, r.LogTail = latestLog(filepath.Join(ws.Dir, "logs"))
	return r
}

var targetRe = regexp.MustCompile(`(?m)^(build|test)\s*:`)

func checkMakefile(r *Report, projectDir string) {
	data, err := os.ReadFile(filepath.Join(projectDir, "Makefile"))
	if err != nil {
		r.add("makefile", Warn, "no Makefile; the agent will be asked to fix make build until one exists")
		return
	}
	found := map[string]bool{}
	for _, m := range targetRe.FindAllStringSubmatch(string(data), -1) {
		found[m[1]] = true
	}
	var missing []string
	for _, t := range []string{"build", "test"} {
		if !found[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		r.add("makefile", Warn, "missing targets: %s", strings.Join(missing, ", "))
		return
	}
	r.add("makefile", OK, "build and test targets present")
}

func checkServe(r *Report, ws *state.Workspace) {
	if _, err := os.Stat(ws.Dir); err != nil {
		return
	}
	lock := flock.New(ws.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		r.add("serve", Warn, "checking lock: %v", err)
		return
	}
	if locked {
		_ = lock.Unlock()
		r.add("serve", OK, "not running")
		return
	}
	r.add("serve", OK, "running")
}

// latestLog returns the newest invocation log and its last lines.
func latestLog(dir string) (string, string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", ""
	}
	type logFile struct {
		path string
		mod  int64
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
		logs = append(logs, logFile{filepath.Join(dir, e.Name()), info.ModTime().UnixNano()})
	}
	if len(logs) == 0 {
		return "", ""
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].mod > logs[j].mod })

	data, err := os.ReadFile(logs[0].path)
	if err != nil {
		return logs[0].path, ""
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) > maxLogLines {
		lines = append([]string{fmt.Sprintf("... (last %d lines)", maxLogLines)}, lines[len(lines)-maxLogLines:]...)
	}
	return logs[0].path, strings.Join(lines, "\n")
}

// Print writes the report to w.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n%s\n\n", ux.Bold(ux.Cyan("══ colossus doctor ══")))
	for _, c := range r.Checks {
		var mark string
		switch c.Level {
		case OK:
			mark = ux.Green("✓")
		case Warn:
			mark = ux.Yellow("!")
		default:
			mark = ux.Red("✗")
		}
		fmt.Fprintf(w, "  %s %-9s %s\n", mark, c.Name, c.Detail)
	}
	fmt.Fprintf(w, "\n  %s %s\n", ux.Bold("Mode:"), r.Mode)

	if r.Mode != "error" {
		fmt.Fprintln(w)
		return
	}
	if r.Feedback != nil {
		fmt.Fprintf(w, "\n%s %s\n%s\n", ux.Bold("Last fix request:"), r.Feedback.Name, ux.Dim(r.Feedback.Content))
	}
	if r.LogPath != "" {
		fmt.Fprintf(w, "\n%s %s\n%s\n", ux.Bold("Latest log:"), r.LogPath, ux.Dim(r.LogTail))
	}
	fmt.Fprintln(w)
}
