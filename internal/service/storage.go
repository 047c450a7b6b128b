package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
)

// The engine persists exactly these two artifacts inside a user's storage
// area; everything else there is session-scoped and disposable.
const (
	EncryptorArtifact = "encryptor.net"
	DecryptorArtifact = "decryptor.net"
)

// StorageArea manages the per-user durable directories under one root.
type StorageArea struct {
	root string
}

func NewStorageArea(root string) *StorageArea {
	return &StorageArea{root: root}
}

// EnsureUserDir creates the user's storage directory if needed and returns
// its absolute path. Creating an already-existing directory succeeds
// silently, so concurrent runs for the same user cannot trip each other.
func (s *StorageArea) EnsureUserDir(username string) (string, error) {
	dir := filepath.Join(s.root, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create user directory: %v", shared.ErrStorageIO, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: resolve user directory: %v", shared.ErrStorageIO, err)
	}
	return abs, nil
}

// StageUpload writes the uploaded byte stream verbatim into a uniquely
// named file inside dir and returns the file's base name. An existing file
// is never overwritten.
func (s *StorageArea) StageUpload(dir, fileName string, src io.Reader) (string, error) {
	f, err := os.CreateTemp(dir, fileName+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: stage upload: %v", shared.ErrStorageIO, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: write upload: %v", shared.ErrStorageIO, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: close upload: %v", shared.ErrStorageIO, err)
	}
	return filepath.Base(f.Name()), nil
}

// RemoveStaged deletes a staged upload, best-effort. Failures are logged,
// never escalated.
func (s *StorageArea) RemoveStaged(dir, name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
		zaplogger.Warn("failed to remove staged upload", zaplogger.Fields{
			"dir":   dir,
			"file":  name,
			"error": err,
		})
	}
}

// CleanupTemp removes every file in dir except the two persisted engine
// artifacts.
func (s *StorageArea) CleanupTemp(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: list storage area: %v", shared.ErrStorageIO, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if name == EncryptorArtifact || name == DecryptorArtifact {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("%w: remove %s: %v", shared.ErrStorageIO, name, err)
		}
	}
	return nil
}
