package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// command describes one external process.
type command struct {
	name    string
	args    []string
	dir     string
	env     []string
	timeout time.Duration
	logPath string    // captured output is also written here when set
	echo    io.Writer // optional live copy of both streams
}

// run executes c and returns its exit status and captured streams. A non-zero
// exit is a Result, not an error; errors mean the process could not be run.
func run(ctx context.Context, c command) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Dir = c.dir
	cmd.Env = c.env
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	outs := []io.Writer{&stdout}
	errs := []io.Writer{&stderr}
	if c.logPath != "" {
		logFile, err := os.Create(c.logPath)
		if err != nil {
			return nil, fmt.Errorf("opening log: %w", err)
		}
		defer logFile.Close()
		fmt.Fprintf(logFile, "$ %s %s\n", c.name, strings.Join(c.args, " "))
		outs = append(outs, logFile)
		errs = append(errs, logFile)
	}
	if c.echo != nil {
		outs = append(outs, c.echo)
		errs = append(errs, c.echo)
	}
	cmd.Stdout = io.MultiWriter(outs...)
	cmd.Stderr = io.MultiWriter(errs...)

	code, err := exitCode(cmd.Run())
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", c.name, err)
	}
	return &Result{
		ExitCode: code,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		LogPath:  c.logPath,
	}, nil
}

// exitCode maps the error from cmd.Run to an exit status. Only failures to
// start the process are returned as errors.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code >= 0 {
			return code, nil
		}
		// Killed by a signal, e.g. on timeout.
		return 1, nil
	}
	return 0, err
}
