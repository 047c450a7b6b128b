package service

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/carolus/cryptoannapi/internal/models"
)

// Session is one authenticated login: the owning user, a rotating token
// and an expiry that is pushed forward on every validated access.
// All mutation happens under the owning registry's lock.
type Session struct {
	user          *models.UserModel
	token         string
	tokenUseCount int
	createdAt     time.Time
	expiresAt     time.Time
}

func newSession(user *models.UserModel, ttl time.Duration, now time.Time) *Session {
	s := &Session{
		user:      user,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	s.rotateToken(now)
	return s
}

// User returns the owning user, read-only after construction.
func (s *Session) User() *models.UserModel {
	return s.user
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Session) ExpiresAt() time.Time {
	return s.expiresAt
}

func (s *Session) isExpired(now time.Time) bool {
	return now.After(s.expiresAt)
}

// extend sets the expiry to now + ttl. Not additive: repeated calls keep
// postponing expiry from the moment of access.
func (s *Session) extend(ttl time.Duration, now time.Time) {
	s.expiresAt = now.Add(ttl)
}

// touch records one validated access: extend the expiry, bump the use
// counter and rotate the token lazily once the counter crosses the limit.
// Reports whether the token rotated.
func (s *Session) touch(ttl time.Duration, useLimit int, now time.Time) bool {
	s.extend(ttl, now)
	s.tokenUseCount++
	if s.tokenUseCount > useLimit {
		s.rotateToken(now)
		s.tokenUseCount = 0
		return true
	}
	return false
}

// rotateToken derives a fresh token from the username and the current
// instant: hex(SHA-256(username || timestamp)).
func (s *Session) rotateToken(now time.Time) {
	sum := sha256.Sum256([]byte(s.user.Username + now.Format(time.RFC3339Nano)))
	s.token = hex.EncodeToString(sum[:])
}
