package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureUserDirIsIdempotent(t *testing.T) {
	storage := NewStorageArea(t.TempDir())

	first, err := storage.EnsureUserDir("alice")
	require.NoError(t, err)
	second, err := storage.EnsureUserDir("alice")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	info, err := os.Stat(first)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStageUploadNeverOverwrites(t *testing.T) {
	storage := NewStorageArea(t.TempDir())
	dir, err := storage.EnsureUserDir("alice")
	require.NoError(t, err)

	first, err := storage.StageUpload(dir, "report.txt", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := storage.StageUpload(dir, "report.txt", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	content, err := os.ReadFile(filepath.Join(dir, first))
	require.NoError(t, err)
	assert.Equal(t, "one", string(content))
}

func TestRemoveStagedIsBestEffort(t *testing.T) {
	storage := NewStorageArea(t.TempDir())
	dir, err := storage.EnsureUserDir("alice")
	require.NoError(t, err)

	name, err := storage.StageUpload(dir, "report.txt", strings.NewReader("x"))
	require.NoError(t, err)

	storage.RemoveStaged(dir, name)
	_, statErr := os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(statErr))

	// Removing twice, or removing nothing, does not panic.
	storage.RemoveStaged(dir, name)
	storage.RemoveStaged(dir, "")
}

func TestCleanupTempKeepsEngineArtifacts(t *testing.T) {
	storage := NewStorageArea(t.TempDir())
	dir, err := storage.EnsureUserDir("alice")
	require.NoError(t, err)

	for _, name := range []string{EncryptorArtifact, DecryptorArtifact, "report.txt-123", "leftover.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	require.NoError(t, storage.CleanupTemp(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	assert.ElementsMatch(t, []string{EncryptorArtifact, DecryptorArtifact}, names)
}

func TestCleanupTempMissingDir(t *testing.T) {
	storage := NewStorageArea(t.TempDir())
	assert.NoError(t, storage.CleanupTemp(filepath.Join(t.TempDir(), "never-created")))
}
