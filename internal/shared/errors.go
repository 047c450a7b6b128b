// Package shared contains errors and cause tokens used across layers.
package shared

import "errors"

var (
	// authentication errors
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrSessionExpired   = errors.New("session expired")
	ErrUserNotFound     = errors.New("user does not exist")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrAlreadyExists    = errors.New("user already exists")

	// store errors
	ErrDatabaseUnreachable = errors.New("database unreachable")
	ErrIdleUpdate          = errors.New("update changed no rows")

	// pipeline errors
	ErrInvalidMode  = errors.New("invalid engine mode")
	ErrEngineFailed = errors.New("engine failed")
	ErrStorageIO    = errors.New("storage i/o failure")
)

// Cause tokens rendered by the presentation layer. The token set is fixed;
// callers outside this module key on the exact strings.
const (
	CauseNullUser         = "nullUser"
	CausePasswordMismatch = "passwordMismatch"
	CauseNotAuthorized    = "notAuthorized"
	CauseSessionExpired   = "sessionExpired"
	CauseAlreadyExists    = "alreadyExists"
	CauseRegistrationOK   = "registrationSuccessful"
	CauseInvalidMode      = "invalidMode"
	CauseEngineError      = "engineError"
)
