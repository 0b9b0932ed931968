package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorge-barreto/colossus/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_CreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, Init(dir, &out))

	for _, p := range []string{
		".colossus/config.yaml",
		".colossus/.gitignore",
		".colossus/logs",
		".colossus/feedback",
		"CONTEXT.md",
	} {
		_, err := os.Stat(filepath.Join(dir, p))
		assert.NoError(t, err, p)
	}
	assert.Contains(t, out.String(), "CONTEXT.md")
	assert.Contains(t, out.String(), "colossus serve")
}

func TestInit_GeneratedConfigMatchesDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, &bytes.Buffer{}))

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	def := config.Default()
	assert.Equal(t, def.Retries, cfg.Retries)
	assert.Equal(t, def.ModePoll, cfg.ModePoll)
	assert.Equal(t, def.Agent, cfg.Agent)
	assert.Equal(t, def.Build.Command, cfg.Build.Command)
	assert.Equal(t, def.Artifacts, cfg.Artifacts)
	assert.Equal(t, def.Stages, cfg.Stages)
	assert.Equal(t, 30*time.Second, cfg.Stage(config.StageDevelop).Interval.Std())
}

func TestInit_KeepsExistingContext(t *testing.T) {
	dir := t.TempDir()
	ctx := filepath.Join(dir, "CONTEXT.md")
	require.NoError(t, os.WriteFile(ctx, []byte("my rules"), 0644))

	var out bytes.Buffer
	require.NoError(t, Init(dir, &out))
	data, err := os.ReadFile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "my rules", string(data))
	assert.NotContains(t, out.String(), "    CONTEXT.md")
}

func TestInit_FailsIfConfigExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir, &bytes.Buffer{}))
	err := Init(dir, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}
