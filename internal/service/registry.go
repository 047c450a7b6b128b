package service

import (
	"strings"
	"sync"
	"time"

	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
	"github.com/google/uuid"
)

// SessionRegistry is the single source of truth for live sessions.
// All operations are safe for concurrent use; Get takes only a read lock.
type SessionRegistry struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	ttl           time.Duration
	tokenUseLimit int
	storage       *StorageArea
}

// Credentials is what a caller must present on every protected operation
// and what it gets back after a validated access.
type Credentials struct {
	SessionKey string
	Token      string
	// Rotated reports that Token differs from the presented one and must
	// replace the caller's stored credential.
	Rotated bool
}

// NewSessionRegistry creates an empty registry. storage may be nil when no
// close-time cleanup of session-scoped files is wanted (tests).
func NewSessionRegistry(ttl time.Duration, tokenUseLimit int, storage *StorageArea) *SessionRegistry {
	return &SessionRegistry{
		sessions:      make(map[string]*Session),
		ttl:           ttl,
		tokenUseLimit: tokenUseLimit,
		storage:       storage,
	}
}

// Open creates a new session for the user and returns its credentials.
// Multiple concurrent sessions per user are permitted. The key is random;
// the loop makes uniqueness among live keys unconditional.
func (r *SessionRegistry) Open(user *models.UserModel) Credentials {
	now := time.Now()
	session := newSession(user, r.ttl, now)

	r.mu.Lock()
	defer r.mu.Unlock()
	key := uuid.NewString()
	for {
		if _, taken := r.sessions[key]; !taken {
			break
		}
		key = uuid.NewString()
	}
	r.sessions[key] = session
	return Credentials{SessionKey: key, Token: session.token}
}

// Get returns the session for the key, nil when absent. No side effects.
func (r *SessionRegistry) Get(key string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[key]
}

// Close removes the session and releases its session-scoped temporary
// files. Closing an absent key is a no-op.
func (r *SessionRegistry) Close(key string) {
	r.mu.Lock()
	session := r.sessions[key]
	delete(r.sessions, key)
	r.mu.Unlock()

	if session != nil {
		r.releaseSessionFiles(session)
	}
}

// CloseAll closes every session. Used at process shutdown.
func (r *SessionRegistry) CloseAll() {
	r.mu.Lock()
	closed := make([]*Session, 0, len(r.sessions))
	for key, session := range r.sessions {
		closed = append(closed, session)
		delete(r.sessions, key)
	}
	r.mu.Unlock()

	for _, session := range closed {
		r.releaseSessionFiles(session)
	}
}

// SweepExpired removes every session whose expiry has passed and returns
// the number removed. Safe to run alongside Open/Get/Close/Validate.
func (r *SessionRegistry) SweepExpired() int {
	now := time.Now()

	r.mu.Lock()
	expired := make([]*Session, 0)
	for key, session := range r.sessions {
		if session.isExpired(now) {
			expired = append(expired, session)
			delete(r.sessions, key)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		r.releaseSessionFiles(session)
	}
	return len(expired)
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Validate runs the protocol every protected operation follows:
//  1. absent/empty credentials -> ErrUnauthenticated, before any lookup
//  2. unknown key -> ErrSessionExpired (indistinguishable from expired)
//  3. identity mismatch (case-insensitive) or token mismatch ->
//     ErrSessionExpired; the caller must discard its stored credentials
//  4. on success the expiry is extended, the use counter bumped and the
//     returned credentials carry the rotated token when rotation occurred
//
// The compare and the mutation happen under one critical section so two
// concurrent requests with the same credential cannot lose a rotation or
// a stale extend.
func (r *SessionRegistry) Validate(key, token, username string) (*models.UserModel, Credentials, error) {
	if key == "" || token == "" {
		return nil, Credentials{}, shared.ErrUnauthenticated
	}

	now := time.Now()

	r.mu.Lock()
	session := r.sessions[key]
	if session == nil {
		r.mu.Unlock()
		return nil, Credentials{}, shared.ErrSessionExpired
	}
	if session.isExpired(now) {
		delete(r.sessions, key)
		r.mu.Unlock()
		r.releaseSessionFiles(session)
		return nil, Credentials{}, shared.ErrSessionExpired
	}
	if !strings.EqualFold(session.user.Username, username) || session.token != token {
		r.mu.Unlock()
		return nil, Credentials{}, shared.ErrSessionExpired
	}
	rotated := session.touch(r.ttl, r.tokenUseLimit, now)
	user := session.user
	creds := Credentials{SessionKey: key, Token: session.token, Rotated: rotated}
	r.mu.Unlock()

	return user, creds, nil
}

func (r *SessionRegistry) releaseSessionFiles(session *Session) {
	if r.storage == nil || !session.user.Initialized() {
		return
	}
	if err := r.storage.CleanupTemp(*session.user.StoragePath); err != nil {
		zaplogger.Warn("failed to clean session files", zaplogger.Fields{
			"username": session.user.Username,
			"error":    err,
		})
	}
}
