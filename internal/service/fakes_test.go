package service

import (
	"context"
	"strings"
	"sync"

	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/shared"
)

// fakeUserStore is an in-memory UserStore for service tests.
type fakeUserStore struct {
	mu        sync.Mutex
	users     map[string]*models.UserModel
	reachable bool
	updateErr error
	findCalls int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:     make(map[string]*models.UserModel),
		reachable: true,
	}
}

func (f *fakeUserStore) put(user *models.UserModel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[strings.ToLower(user.Username)] = user
}

func (f *fakeUserStore) FindByName(name string) (*models.UserModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	return f.users[strings.ToLower(name)], nil
}

func (f *fakeUserStore) Create(name string, passwordHash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.users[strings.ToLower(name)]; taken {
		return shared.ErrAlreadyExists
	}
	f.users[strings.ToLower(name)] = &models.UserModel{
		Username:     name,
		PasswordHash: passwordHash,
	}
	return nil
}

func (f *fakeUserStore) UpdateStoragePath(name string, path *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	user := f.users[strings.ToLower(name)]
	if user == nil {
		return shared.ErrIdleUpdate
	}
	user.StoragePath = path
	return nil
}

func (f *fakeUserStore) IsReachable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reachable
}

type engineCall struct {
	dir  string
	file string
	mode EngineMode
}

// stubEngine records invocations and returns a configured error.
type stubEngine struct {
	mu    sync.Mutex
	err   error
	calls []engineCall
}

func (s *stubEngine) Invoke(_ context.Context, workingDir, fileName string, mode EngineMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, engineCall{dir: workingDir, file: fileName, mode: mode})
	return s.err
}

func (s *stubEngine) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubEngine) lastCall() engineCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}
