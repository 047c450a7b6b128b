package service

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/shared"
	"github.com/carolus/cryptoannapi/pkg/utils/zaplogger"
)

// AuthService handles registration, login and logout.
type AuthService struct {
	users    UserStore
	registry *SessionRegistry
}

func NewAuthService(users UserStore, registry *SessionRegistry) *AuthService {
	return &AuthService{users: users, registry: registry}
}

// Register creates a new user record.
func (s *AuthService) Register(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required")
	}
	if !s.users.IsReachable() {
		return shared.ErrDatabaseUnreachable
	}
	existing, err := s.users.FindByName(username)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrDatabaseUnreachable, err)
	}
	if existing != nil {
		return shared.ErrAlreadyExists
	}
	if err := s.users.Create(username, HashPassword(password)); err != nil {
		return err
	}
	zaplogger.Info("user registered", zaplogger.Fields{"username": username})
	return nil
}

// Login authenticates the user and opens a new session.
func (s *AuthService) Login(username, password string) (*models.UserModel, Credentials, error) {
	if !s.users.IsReachable() {
		return nil, Credentials{}, shared.ErrDatabaseUnreachable
	}
	user, err := s.users.FindByName(username)
	if err != nil {
		return nil, Credentials{}, fmt.Errorf("%w: %v", shared.ErrDatabaseUnreachable, err)
	}
	if user == nil {
		return nil, Credentials{}, shared.ErrUserNotFound
	}
	if !bytes.Equal(user.PasswordHash, HashPassword(password)) {
		return nil, Credentials{}, shared.ErrPasswordMismatch
	}
	creds := s.registry.Open(user)
	zaplogger.Info("session opened", zaplogger.Fields{"username": user.Username})
	return user, creds, nil
}

// Logout closes the session. Closing an absent key is a no-op.
func (s *AuthService) Logout(sessionKey string) {
	s.registry.Close(sessionKey)
}

// HashPassword returns the opaque 32-byte digest stored as the user
// credential.
func HashPassword(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}
