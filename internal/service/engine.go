package service

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
	"golang.org/x/sync/semaphore"
)

// EngineMode selects what the external engine does with the file.
type EngineMode string

const (
	ModeTrain   EngineMode = "train"
	ModeEncrypt EngineMode = "encrypt"
	ModeDecrypt EngineMode = "decrypt"
)

// ParseEngineMode validates a mode string from the transport layer.
func ParseEngineMode(s string) (EngineMode, error) {
	switch EngineMode(s) {
	case ModeTrain, ModeEncrypt, ModeDecrypt:
		return EngineMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidMode, s)
	}
}

// OutputName derives the engine's output artifact name for a mode by the
// engine-side naming convention. Train consumes no artifact. The file is
// not verified to exist.
func (m EngineMode) OutputName(fileName string) string {
	switch m {
	case ModeEncrypt:
		return fileName + ".crypto"
	case ModeDecrypt:
		return fileName + ".decrypted"
	default:
		return ""
	}
}

// EngineInvoker runs the external engine against a file in a working
// directory. Implementations block until the run finishes.
type EngineInvoker interface {
	Invoke(ctx context.Context, workingDir, fileName string, mode EngineMode) error
}

// ProcessEngineInvoker shells out to the engine executable. A semaphore
// bounds the number of simultaneous child processes so slow engine runs
// cannot starve session-validation traffic. The child itself runs without
// a timeout and is not killed on caller disconnect.
type ProcessEngineInvoker struct {
	execPath string
	sem      *semaphore.Weighted
}

func NewProcessEngineInvoker(execPath string, maxConcurrent int64) *ProcessEngineInvoker {
	return &ProcessEngineInvoker{
		execPath: execPath,
		sem:      semaphore.NewWeighted(maxConcurrent),
	}
}

// Invoke spawns one child process with argv (workingDir, fileName, mode)
// and waits for it. Exit code 0 is success; any other exit code or a
// failure to launch is reported identically as ErrEngineFailed.
func (e *ProcessEngineInvoker) Invoke(ctx context.Context, workingDir, fileName string, mode EngineMode) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for engine slot: %v", shared.ErrEngineFailed, err)
	}
	defer e.sem.Release(1)

	zaplogger.Debug("invoking engine", zaplogger.Fields{
		"dir":  workingDir,
		"file": fileName,
		"mode": string(mode),
	})

	cmd := exec.Command(e.execPath, workingDir, fileName, string(mode))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrEngineFailed, err)
	}
	return nil
}
