package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pipeline_state.json")

	want := runState{"GFS": "20260115_06", "AIFS": "20260115_00"}
	require.NoError(t, saveState(path, want))

	got, err := loadState(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadStateMissingFile(t *testing.T) {
	got, err := loadState(filepath.Join(t.TempDir(), "pipeline_state.json"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLoadStateCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := loadState(path)
	assert.Error(t, err)
}

func TestLoadStateNullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline_state.json")
	require.NoError(t, os.WriteFile(path, []byte("null\n"), 0o644))

	got, err := loadState(path)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
