// Package control exposes the activity mode and transcript to the
// conversational front-end, through the mode toggle file and a local HTTP API.
package control

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/jorge-barreto/colossus/internal/state"
)

// ModeFile is the one-line mode toggle file shared with other processes.
// Every access holds a flock on Path+".lock".
type ModeFile struct {
	Path string
}

// NewModeFile returns the toggle file at path.
func NewModeFile(path string) *ModeFile {
	return &ModeFile{Path: path}
}

// Snapshot is the parsed content of the toggle file.
type Snapshot struct {
	Mode    mode.Mode
	Raw     string
	ModTime time.Time
	Err     error // parse error, if Raw is not a mode name
}

func (f *ModeFile) withLock(shared bool, fn func() error) (retErr error) {
	lock := flock.New(f.Path + ".lock")
	var err error
	if shared {
		err = lock.RLock()
	} else {
		err = lock.Lock()
	}
	if err != nil {
		return fmt.Errorf("mode file: lock: %w", err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			retErr = errors.Join(retErr, fmt.Errorf("mode file: unlock: %w", unlockErr))
		}
	}()
	return fn()
}

func (f *ModeFile) read() (Snapshot, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return Snapshot{}, err
	}
	raw := strings.TrimSpace(string(data))
	m, perr := mode.Parse(raw)
	return Snapshot{Mode: m, Raw: raw, ModTime: info.ModTime(), Err: perr}, nil
}

func (f *ModeFile) write(m mode.Mode) (time.Time, error) {
	if err := state.WriteFileAtomic(f.Path, []byte(m.String()+"\n"), 0644); err != nil {
		return time.Time{}, fmt.Errorf("mode file: write: %w", err)
	}
	info, err := os.Stat(f.Path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Read returns the current content of the file.
func (f *ModeFile) Read() (Snapshot, error) {
	var snap Snapshot
	err := f.withLock(true, func() error {
		var err error
		snap, err = f.read()
		return err
	})
	return snap, err
}

// Request writes an operator mode request. Only planning and developing are
// accepted.
func (f *ModeFile) Request(name string) (mode.Mode, error) {
	m, err := mode.ParseRequest(name)
	if err != nil {
		return 0, err
	}
	return m, f.withLock(false, func() error {
		_, err := f.write(m)
		return err
	})
}

// Syncer keeps a mode.State and a ModeFile in agreement. Requests written to
// the file after Prime are applied to the state; state changes made in
// process, such as an escalation, are mirrored back into the file.
type Syncer struct {
	File  *ModeFile
	State *mode.State
	Poll  time.Duration
	Log   *slog.Logger

	// The last version of the file we handled. Timestamps can be too coarse
	// to tell two writes apart, so the content is compared as well.
	seen    time.Time
	seenRaw string
}

func (s *Syncer) handled(snap Snapshot) bool {
	return snap.ModTime.Equal(s.seen) && snap.Raw == s.seenRaw
}

func (s *Syncer) mirror(m mode.Mode) error {
	mt, err := s.File.write(m)
	if err != nil {
		return err
	}
	s.seen, s.seenRaw = mt, m.String()
	return nil
}

// Prime writes the current mode into the file and marks everything already
// on disk as handled, so a request left over from an earlier run is ignored.
func (s *Syncer) Prime() error {
	return s.File.withLock(false, func() error {
		return s.mirror(s.State.Get())
	})
}

// Sync performs one poll: apply a new request, then mirror the state.
func (s *Syncer) Sync() error {
	return s.File.withLock(false, func() error {
		snap, err := s.File.read()
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Recreated below.
		case err != nil:
			return fmt.Errorf("mode file: read: %w", err)
		case !s.handled(snap):
			s.seen, s.seenRaw = snap.ModTime, snap.Raw
			s.apply(snap)
		}

		current := s.State.Get()
		if err == nil && snap.Err == nil && snap.Mode == current {
			return nil
		}
		return s.mirror(current)
	})
}

func (s *Syncer) apply(snap Snapshot) {
	log := s.logger()
	if snap.Err != nil {
		log.Warn("ignoring invalid mode request", "value", snap.Raw)
		return
	}
	if snap.Mode == mode.ErrorNeedsHuman || snap.Mode == s.State.Get() {
		return
	}
	prev, err := s.State.Set(snap.Mode.String())
	if err != nil {
		log.Warn("ignoring mode request", "value", snap.Raw, "err", err)
		return
	}
	log.Info("mode changed", "from", prev.String(), "to", snap.Mode.String(), "source", "mode file")
}

// Run polls until ctx is done.
func (s *Syncer) Run(ctx context.Context) {
	poll := s.Poll
	if poll <= 0 {
		poll = time.Second
	}
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Sync(); err != nil {
				s.logger().Warn("mode sync failed", "err", err)
			}
		}
	}
}

func (s *Syncer) logger() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}
