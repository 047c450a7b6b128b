package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
	"golang.org/x/text/unicode/norm"
)

// NonASCIIPlaceholder replaces a sanitized filename whose decoded form is
// not representable in the portable character set. The original extension
// is kept.
const NonASCIIPlaceholder = "fileNonAscii"

// PipelineOutcome is the successful result of one upload run.
type PipelineOutcome struct {
	// Credentials from the validated access; carries the rotated token
	// when rotation occurred during this run.
	Credentials Credentials
	// StoredFile is the artifact's name inside the user's storage area,
	// empty for train runs.
	StoredFile string
	// DownloadName is the human-facing filename for the artifact.
	DownloadName string
	// Initialized reports that the user's storage area is established.
	Initialized bool
}

// UploadPipeline drives one upload through validation, staging, engine
// invocation and cleanup.
type UploadPipeline struct {
	registry *SessionRegistry
	users    UserStore
	storage  *StorageArea
	engine   EngineInvoker
}

func NewUploadPipeline(registry *SessionRegistry, users UserStore, storage *StorageArea, engine EngineInvoker) *UploadPipeline {
	return &UploadPipeline{
		registry: registry,
		users:    users,
		storage:  storage,
		engine:   engine,
	}
}

// Run executes one pipeline run. The staged input file is deleted on every
// path except a successful train, whose input the engine retains as
// training material.
//
// Once validation has passed, failures still return a non-nil outcome
// carrying the access credentials: the token may have rotated during the
// validated access, and the caller must be handed the rotated token even
// when the run itself fails, or its stored credential is dead.
func (p *UploadPipeline) Run(ctx context.Context, username, modeStr, sessionKey, token string, file io.Reader, originalName string) (*PipelineOutcome, error) {
	// Validating
	_, creds, err := p.registry.Validate(sessionKey, token, username)
	if err != nil {
		return nil, err
	}
	failed := &PipelineOutcome{Credentials: creds}

	user, err := p.users.FindByName(username)
	if err != nil {
		return failed, fmt.Errorf("%w: %v", shared.ErrDatabaseUnreachable, err)
	}
	if user == nil {
		// A missing user is reported like a missing session so the
		// response does not leak which check failed.
		return failed, shared.ErrUnauthenticated
	}

	dir, err := p.ensureStorage(user)
	if err != nil {
		return failed, err
	}

	// StoringUpload
	fileName := SanitizeFileName(originalName)
	stagedName, err := p.storage.StageUpload(dir, fileName, file)
	if err != nil {
		return failed, err
	}

	keepInput := false
	defer func() {
		if !keepInput {
			p.storage.RemoveStaged(dir, stagedName)
		}
	}()

	mode, err := ParseEngineMode(modeStr)
	if err != nil {
		return failed, err
	}

	// Invoking
	switch mode {
	case ModeTrain:
		if err := p.engine.Invoke(ctx, dir, stagedName, mode); err != nil {
			p.rollbackStoragePath(user)
			return failed, err
		}
		keepInput = true
		return &PipelineOutcome{Credentials: creds, Initialized: true}, nil

	case ModeEncrypt, ModeDecrypt:
		if err := p.engine.Invoke(ctx, dir, stagedName, mode); err != nil {
			return failed, err
		}
		// Completed
		return &PipelineOutcome{
			Credentials:  creds,
			StoredFile:   mode.OutputName(stagedName),
			DownloadName: downloadName(fileName, mode),
			Initialized:  true,
		}, nil

	default:
		return failed, fmt.Errorf("%w: %q", shared.ErrInvalidMode, modeStr)
	}
}

// ensureStorage resolves the user's storage directory, creating and
// persisting it on the first run. A persistence failure fails the whole
// request so the in-memory and stored state never diverge.
func (p *UploadPipeline) ensureStorage(user *models.UserModel) (string, error) {
	if user.Initialized() {
		return *user.StoragePath, nil
	}
	dir, err := p.storage.EnsureUserDir(user.Username)
	if err != nil {
		return "", err
	}
	if err := p.users.UpdateStoragePath(user.Username, &dir); err != nil {
		return "", fmt.Errorf("%w: persist storage path: %v", shared.ErrDatabaseUnreachable, err)
	}
	user.StoragePath = &dir
	return dir, nil
}

// rollbackStoragePath clears the user's storage path after a failed train
// so the next attempt re-creates the directory from scratch.
func (p *UploadPipeline) rollbackStoragePath(user *models.UserModel) {
	if err := p.users.UpdateStoragePath(user.Username, nil); err != nil {
		zaplogger.Error("failed to roll back storage path", zaplogger.Fields{
			"username": user.Username,
			"error":    err,
		})
	}
	user.StoragePath = nil
}

// downloadName derives the human-facing filename handed back with the
// artifact: encrypt appends ".crypto"; decrypt strips a trailing ".crypto"
// when present, else appends ".decrypted".
func downloadName(fileName string, mode EngineMode) string {
	switch mode {
	case ModeEncrypt:
		return fileName + ".crypto"
	case ModeDecrypt:
		if strings.HasSuffix(fileName, ".crypto") {
			return strings.TrimSuffix(fileName, ".crypto")
		}
		return fileName + ".decrypted"
	default:
		return fileName
	}
}

// SanitizeFileName normalizes an uploaded filename (NFD) and strips any
// path component. A name that cannot be represented in ASCII becomes the
// fixed placeholder stem plus the original extension
// (placeholder-on-non-ASCII strategy).
func SanitizeFileName(name string) string {
	name = filepath.Base(norm.NFD.String(name))
	if isASCII(name) {
		return name
	}
	ext := ""
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = name[i:]
	}
	return NonASCIIPlaceholder + ext
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
