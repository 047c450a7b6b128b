package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineFixture struct {
	pipeline *UploadPipeline
	registry *SessionRegistry
	store    *fakeUserStore
	engine   *stubEngine
	storage  *StorageArea
	creds    Credentials
	user     *models.UserModel
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	storage := NewStorageArea(t.TempDir())
	registry := NewSessionRegistry(30*time.Minute, 10, storage)
	store := newFakeUserStore()
	engine := &stubEngine{}

	user := testUser("alice")
	store.put(user)
	creds := registry.Open(user)

	return &pipelineFixture{
		pipeline: NewUploadPipeline(registry, store, storage, engine),
		registry: registry,
		store:    store,
		engine:   engine,
		storage:  storage,
		creds:    creds,
		user:     user,
	}
}

func (f *pipelineFixture) run(t *testing.T, mode, fileName string) (*PipelineOutcome, error) {
	t.Helper()
	body := strings.NewReader("payload bytes")
	return f.pipeline.Run(context.Background(), "alice", mode, f.creds.SessionKey, f.creds.Token, body, fileName)
}

// storageFiles lists the names currently inside the user's storage area.
func (f *pipelineFixture) storageFiles(t *testing.T) []string {
	t.Helper()
	if f.user.StoragePath == nil {
		return nil
	}
	entries, err := os.ReadDir(*f.user.StoragePath)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestUploadEncryptSuccess(t *testing.T) {
	f := newPipelineFixture(t)

	outcome, err := f.run(t, "encrypt", "report.txt")
	require.NoError(t, err)

	require.Equal(t, 1, f.engine.callCount())
	call := f.engine.lastCall()
	assert.Equal(t, ModeEncrypt, call.mode)
	assert.Equal(t, *f.user.StoragePath, call.dir)
	assert.True(t, strings.HasPrefix(call.file, "report.txt-"))

	assert.Equal(t, call.file+".crypto", outcome.StoredFile)
	assert.Equal(t, "report.txt.crypto", outcome.DownloadName)
	assert.True(t, outcome.Initialized)

	// Cleanup invariant: the staged input is gone after the run.
	assert.Empty(t, f.storageFiles(t))
}

func TestUploadDecryptDownloadNames(t *testing.T) {
	tests := []struct {
		upload string
		want   string
	}{
		{"report.txt.crypto", "report.txt"},
		{"report.txt", "report.txt.decrypted"},
	}
	for _, tt := range tests {
		t.Run(tt.upload, func(t *testing.T) {
			f := newPipelineFixture(t)
			outcome, err := f.run(t, "decrypt", tt.upload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, outcome.DownloadName)
			assert.Equal(t, f.engine.lastCall().file+".decrypted", outcome.StoredFile)
		})
	}
}

func TestUploadInvalidModeSkipsEngine(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.run(t, "shred", "report.txt")
	assert.ErrorIs(t, err, shared.ErrInvalidMode)
	assert.Equal(t, 0, f.engine.callCount())
	assert.Empty(t, f.storageFiles(t))
}

func TestTrainSuccessKeepsInput(t *testing.T) {
	f := newPipelineFixture(t)

	outcome, err := f.run(t, "train", "samples.bin")
	require.NoError(t, err)
	assert.True(t, outcome.Initialized)
	assert.Empty(t, outcome.StoredFile)

	// Training material stays in the storage area.
	files := f.storageFiles(t)
	require.Len(t, files, 1)
	assert.True(t, strings.HasPrefix(files[0], "samples.bin-"))
}

func TestTrainFailureRollsBackStoragePath(t *testing.T) {
	f := newPipelineFixture(t)
	f.engine.err = shared.ErrEngineFailed

	_, err := f.run(t, "train", "samples.bin")
	assert.ErrorIs(t, err, shared.ErrEngineFailed)

	// The rollback cleared the persisted path so the next attempt
	// re-creates the directory.
	stored, findErr := f.store.FindByName("alice")
	require.NoError(t, findErr)
	assert.Nil(t, stored.StoragePath)
}

func TestEncryptFailureCleansStagedInput(t *testing.T) {
	f := newPipelineFixture(t)

	// Establish the storage area first so the failed run has a directory
	// to leave files in.
	_, err := f.run(t, "train", "samples.bin")
	require.NoError(t, err)
	dir := *f.user.StoragePath

	f.engine.err = shared.ErrEngineFailed
	_, err = f.run(t, "encrypt", "report.txt")
	assert.ErrorIs(t, err, shared.ErrEngineFailed)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), "report.txt-"),
			"staged input %s survived a failed run", entry.Name())
	}
}

func TestUploadValidatesBeforeStoreLookup(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Run(context.Background(), "alice", "encrypt",
		f.creds.SessionKey, "", strings.NewReader("x"), "report.txt")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
	assert.Equal(t, 0, f.store.findCalls)
}

func TestUploadExpiredSession(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Run(context.Background(), "alice", "encrypt",
		"unknown-key", f.creds.Token, strings.NewReader("x"), "report.txt")
	assert.ErrorIs(t, err, shared.ErrSessionExpired)
}

func TestUploadMissingUserReportsUnauthenticated(t *testing.T) {
	f := newPipelineFixture(t)
	delete(f.store.users, "alice")

	_, err := f.run(t, "encrypt", "report.txt")
	assert.ErrorIs(t, err, shared.ErrUnauthenticated)
}

func TestFirstRunCreatesAndPersistsStorageDir(t *testing.T) {
	f := newPipelineFixture(t)
	require.False(t, f.user.Initialized())

	_, err := f.run(t, "encrypt", "report.txt")
	require.NoError(t, err)

	require.True(t, f.user.Initialized())
	info, statErr := os.Stat(*f.user.StoragePath)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Base(*f.user.StoragePath), "alice")
}

func TestFirstRunPersistFailureFailsRequest(t *testing.T) {
	f := newPipelineFixture(t)
	f.store.updateErr = errors.New("connection reset")

	_, err := f.run(t, "encrypt", "report.txt")
	assert.ErrorIs(t, err, shared.ErrDatabaseUnreachable)
	assert.Equal(t, 0, f.engine.callCount())
}

func TestUploadRotatesCredentials(t *testing.T) {
	storage := NewStorageArea(t.TempDir())
	registry := NewSessionRegistry(30*time.Minute, 1, storage)
	store := newFakeUserStore()
	user := testUser("alice")
	store.put(user)
	creds := registry.Open(user)
	pipeline := NewUploadPipeline(registry, store, storage, &stubEngine{})

	first, err := pipeline.Run(context.Background(), "alice", "encrypt",
		creds.SessionKey, creds.Token, strings.NewReader("x"), "a.txt")
	require.NoError(t, err)
	assert.False(t, first.Credentials.Rotated)

	second, err := pipeline.Run(context.Background(), "alice", "encrypt",
		creds.SessionKey, first.Credentials.Token, strings.NewReader("x"), "b.txt")
	require.NoError(t, err)
	assert.True(t, second.Credentials.Rotated)
	assert.NotEqual(t, creds.Token, second.Credentials.Token)
}

func TestEngineFailureStillReturnsRotatedCredentials(t *testing.T) {
	storage := NewStorageArea(t.TempDir())
	registry := NewSessionRegistry(30*time.Minute, 1, storage)
	store := newFakeUserStore()
	user := testUser("alice")
	store.put(user)
	creds := registry.Open(user)
	engine := &stubEngine{}
	pipeline := NewUploadPipeline(registry, store, storage, engine)

	first, err := pipeline.Run(context.Background(), "alice", "encrypt",
		creds.SessionKey, creds.Token, strings.NewReader("x"), "a.txt")
	require.NoError(t, err)

	// The second access rotates the token and then the engine fails. The
	// outcome must still carry the rotated credential or the client is
	// left holding a dead token against a live session.
	engine.err = shared.ErrEngineFailed
	second, err := pipeline.Run(context.Background(), "alice", "encrypt",
		creds.SessionKey, first.Credentials.Token, strings.NewReader("x"), "b.txt")
	assert.ErrorIs(t, err, shared.ErrEngineFailed)
	require.NotNil(t, second)
	require.True(t, second.Credentials.Rotated)
	assert.NotEqual(t, first.Credentials.Token, second.Credentials.Token)

	// The session stays usable, but only with the rotated token.
	_, _, err = registry.Validate(creds.SessionKey, first.Credentials.Token, "alice")
	assert.ErrorIs(t, err, shared.ErrSessionExpired)
	_, _, err = registry.Validate(creds.SessionKey, second.Credentials.Token, "alice")
	assert.NoError(t, err)
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii", "report.txt", "report.txt"},
		{"accented stem", "café.txt", "fileNonAscii.txt"},
		{"cyrillic no extension", "отчёт", "fileNonAscii"},
		{"cyrillic with extension", "отчёт.doc", "fileNonAscii.doc"},
		{"path stripped", "../../etc/passwd", "passwd"},
		{"dot only extension", "データ.tar.gz", "fileNonAscii.gz"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}
