// Package service contains the service layer for the Cryptoann API
package service

import (
	"github.com/carolus/cryptoannapi/internal/models"
)

// UserStore is the capability surface the services need from the user table.
// Implemented by repository.UserRepository.
type UserStore interface {
	// FindByName looks a user up case-insensitively, (nil, nil) when absent.
	FindByName(name string) (*models.UserModel, error)
	// Create inserts a new user, shared.ErrAlreadyExists when the name is taken.
	Create(name string, passwordHash []byte) error
	// UpdateStoragePath sets or clears (nil) the user's storage path,
	// shared.ErrIdleUpdate when no row changed.
	UpdateStoragePath(name string, path *string) error
	// IsReachable reports whether the store answers.
	IsReachable() bool
}
