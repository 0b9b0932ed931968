package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	ws := New(t.TempDir(), ".colossus")
	require.NoError(t, ws.EnsureDir())
	for _, sub := range []string{"logs", "feedback"} {
		info, err := os.Stat(filepath.Join(ws.Dir, sub))
		require.NoError(t, err, "%s not created", sub)
		assert.True(t, info.IsDir())
	}
}

func TestPaths(t *testing.T) {
	ws := New("/proj", ".colossus")
	assert.Equal(t, filepath.Join("/proj", ".colossus", "mode"), ws.ModePath())
	assert.Equal(t, filepath.Join("/proj", ".colossus", "serve.lock"), ws.LockPath())
	assert.Equal(t, filepath.Join("/proj", ".colossus", "colossus.log"), ws.LogFile())
}

func TestLogPath_UniqueAndSanitized(t *testing.T) {
	ws := New("/proj", ".colossus")
	a := ws.LogPath("develop/fix build")
	b := ws.LogPath("develop/fix build")

	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Join("/proj", ".colossus", "logs"), filepath.Dir(a))
	assert.True(t, strings.HasPrefix(filepath.Base(a), "develop-fix-build-"), filepath.Base(a))
	assert.True(t, strings.HasSuffix(a, ".log"))
	assert.True(t, strings.HasPrefix(filepath.Base(ws.LogPath("")), "run-"))
}

func writeLogs(t *testing.T, ws *Workspace, n int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < n; i++ {
		path := filepath.Join(ws.Dir, "logs", fmt.Sprintf("develop-%03d.log", i))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
		mt := base.Add(time.Duration(i) * time.Second)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}
}

func logNames(t *testing.T, ws *Workspace) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(ws.Dir, "logs"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPruneLogs_KeepsNewest(t *testing.T) {
	ws := New(t.TempDir(), ".colossus")
	require.NoError(t, ws.EnsureDir())
	writeLogs(t, ws, 10)
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir, "logs", "notes.txt"), []byte("keep"), 0644))

	removed, err := ws.PruneLogs(3)
	require.NoError(t, err)
	assert.Equal(t, 7, removed)
	assert.ElementsMatch(t, []string{"develop-007.log", "develop-008.log", "develop-009.log", "notes.txt"}, logNames(t, ws))

	removed, err = ws.PruneLogs(3)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestEnsureDir_PrunesLogs(t *testing.T) {
	ws := New(t.TempDir(), ".colossus")
	require.NoError(t, ws.EnsureDir())
	writeLogs(t, ws, MaxLogs+5)

	require.NoError(t, ws.EnsureDir())
	names := logNames(t, ws)
	assert.Len(t, names, MaxLogs)
	assert.NotContains(t, names, "develop-000.log")
	assert.Contains(t, names, fmt.Sprintf("develop-%03d.log", MaxLogs+4))
}

func TestLogPath_PrunesPeriodically(t *testing.T) {
	ws := New(t.TempDir(), ".colossus")
	require.NoError(t, ws.EnsureDir())
	writeLogs(t, ws, MaxLogs+1)

	for i := 0; i < pruneEvery; i++ {
		ws.LogPath("develop")
	}
	assert.Len(t, logNames(t, ws), MaxLogs)
}

func TestFeedback_RoundTripNewestFirst(t *testing.T) {
	ws := New(t.TempDir(), ".colossus")
	require.NoError(t, ws.EnsureDir())

	require.NoError(t, ws.WriteFeedback("build", "Fix this build error"))
	require.NoError(t, ws.WriteFeedback("test", "Fix these test failures"))
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(ws.Dir, "feedback", "from-build.md"), old, old))

	fb, err := ws.ReadFeedback()
	require.NoError(t, err)
	require.Len(t, fb, 2)
	assert.Equal(t, "from-test.md", fb[0].Name)
	assert.Equal(t, "Fix these test failures", fb[0].Content)
	assert.Equal(t, "from-build.md", fb[1].Name)
}

func TestReadFeedback_NoDir(t *testing.T) {
	fb, err := New(t.TempDir(), ".colossus").ReadFeedback()
	require.NoError(t, err)
	assert.Empty(t, fb)
}
