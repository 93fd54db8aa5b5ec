package prefabs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsLevelChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	level := filepath.Join(dir, "manor.yaml")
	require.NoError(t, os.WriteFile(level, []byte("name: x\n"), 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	name, err := w.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, level, name)
}

func TestWatcher_ChangedIsNonBlocking(t *testing.T) {
	w, err := NewWatcher(t.TempDir())
	require.NoError(t, err)
	defer w.Close()

	changed, names := w.Changed()
	assert.False(t, changed)
	assert.Empty(t, names)
}

func TestFileFilters(t *testing.T) {
	assert.True(t, isSpecFile("a/b/level.YAML"))
	assert.True(t, isSpecFile("x.yml"))
	assert.False(t, isSpecFile("x.json"))
	assert.True(t, isScriptFile("agent_cues.tengo"))
	assert.False(t, isScriptFile("agent_cues.lua"))
}
