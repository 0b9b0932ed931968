package control

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/colossus/internal/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileContent(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.TrimSpace(string(data))
}

// bump moves the file's mtime forward so the syncer sees a new request even
// on filesystems with coarse timestamps.
func bump(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))
}

func newSyncer(t *testing.T) (*Syncer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mode")
	return &Syncer{File: NewModeFile(path), State: mode.NewState()}, path
}

func TestModeFile_RequestAndRead(t *testing.T) {
	f := NewModeFile(filepath.Join(t.TempDir(), "mode"))

	m, err := f.Request("developing")
	require.NoError(t, err)
	assert.Equal(t, mode.Developing, m)

	snap, err := f.Read()
	require.NoError(t, err)
	assert.Equal(t, mode.Developing, snap.Mode)
	assert.NoError(t, snap.Err)
	assert.False(t, snap.ModTime.IsZero())
}

func TestModeFile_RequestRejectsError(t *testing.T) {
	f := NewModeFile(filepath.Join(t.TempDir(), "mode"))
	_, err := f.Request("error")
	assert.ErrorIs(t, err, mode.ErrNotSettable)
	_, err = f.Request("sleeping")
	assert.ErrorIs(t, err, mode.ErrInvalidMode)
	_, err = f.Read()
	assert.ErrorIs(t, err, fs.ErrNotExist, "rejected requests must not create the file")
}

func TestSyncer_PrimeIgnoresStaleRequest(t *testing.T) {
	s, path := newSyncer(t)
	require.NoError(t, os.WriteFile(path, []byte("developing\n"), 0644))

	require.NoError(t, s.Prime())
	assert.Equal(t, "planning", fileContent(t, path))

	require.NoError(t, s.Sync())
	assert.Equal(t, mode.Planning, s.State.Get())
}

func TestSyncer_AppliesNewRequest(t *testing.T) {
	s, path := newSyncer(t)
	require.NoError(t, s.Prime())

	_, err := s.File.Request("developing")
	require.NoError(t, err)
	bump(t, path)

	require.NoError(t, s.Sync())
	assert.Equal(t, mode.Developing, s.State.Get())
	assert.Equal(t, "developing", fileContent(t, path))
}

func TestSyncer_RequestInSameTickAsPrime(t *testing.T) {
	for i := 0; i < 50; i++ {
		s, path := newSyncer(t)
		require.NoError(t, s.Prime())

		_, err := s.File.Request("developing")
		require.NoError(t, err)
		require.NoError(t, s.Sync())

		require.Equal(t, mode.Developing, s.State.Get(), "round %d", i)
		require.Equal(t, "developing", fileContent(t, path), "round %d", i)
	}
}

func TestSyncer_RequestRightAfterMirror(t *testing.T) {
	s, path := newSyncer(t)
	require.NoError(t, s.Prime())

	// An in-process change is mirrored, then the operator answers at once.
	_, err := s.State.Set("developing")
	require.NoError(t, err)
	require.NoError(t, s.Sync())
	assert.Equal(t, "developing", fileContent(t, path))

	_, err = s.File.Request("planning")
	require.NoError(t, err)
	require.NoError(t, s.Sync())
	assert.Equal(t, mode.Planning, s.State.Get())
	assert.Equal(t, "planning", fileContent(t, path))

	// Nothing new on disk: state changes still win.
	s.State.Escalate()
	require.NoError(t, s.Sync())
	assert.Equal(t, "error", fileContent(t, path))
	require.NoError(t, s.Sync())
	assert.Equal(t, mode.ErrorNeedsHuman, s.State.Get())
}

func TestSyncer_MirrorsEscalation(t *testing.T) {
	s, path := newSyncer(t)
	require.NoError(t, s.Prime())

	s.State.Escalate()
	require.NoError(t, s.Sync())
	assert.Equal(t, "error", fileContent(t, path))

	// A later operator request clears the error.
	_, err := s.File.Request("planning")
	require.NoError(t, err)
	bump(t, path)
	require.NoError(t, s.Sync())
	assert.Equal(t, mode.Planning, s.State.Get())
}

func TestSyncer_InvalidRequestRewritten(t *testing.T) {
	s, path := newSyncer(t)
	require.NoError(t, s.Prime())

	require.NoError(t, os.WriteFile(path, []byte("bogus\n"), 0644))
	bump(t, path)
	require.NoError(t, s.Sync())
	assert.Equal(t, mode.Planning, s.State.Get())
	assert.Equal(t, "planning", fileContent(t, path))
}

func TestSyncer_ErrorCannotBeRequested(t *testing.T) {
	s, path := newSyncer(t)
	_, err := s.State.Set("developing")
	require.NoError(t, err)
	require.NoError(t, s.Prime())

	require.NoError(t, os.WriteFile(path, []byte("error\n"), 0644))
	bump(t, path)
	require.NoError(t, s.Sync())
	assert.Equal(t, mode.Developing, s.State.Get())
	assert.Equal(t, "developing", fileContent(t, path))
}

func TestSyncer_RecreatesDeletedFile(t *testing.T) {
	s, path := newSyncer(t)
	require.NoError(t, s.Prime())
	require.NoError(t, os.Remove(path))

	require.NoError(t, s.Sync())
	assert.Equal(t, "planning", fileContent(t, path))
}
