// Package repository contains the repository layer for the Cryptoann API
package repository

import (
	"errors"
	"fmt"

	"github.com/carolus/cryptoannapi/internal/models"
	"github.com/carolus/cryptoannapi/internal/shared"
	"gorm.io/gorm"
)

// UserRepository is the Postgres-backed user store.
type UserRepository struct {
	DB *gorm.DB
}

// NewUserRepository creates a new repository for the users table
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// FindByName gets a user by username, case-insensitively.
// Returns (nil, nil) when no such user exists.
func (r *UserRepository) FindByName(name string) (*models.UserModel, error) {
	var user models.UserModel
	err := r.DB.Where("LOWER(username) = LOWER(?)", name).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user %q: %w", name, err)
	}
	return &user, nil
}

// Create inserts a new user row
func (r *UserRepository) Create(name string, passwordHash []byte) error {
	user := models.UserModel{
		Username:     name,
		PasswordHash: passwordHash,
	}
	if err := r.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create user %q: %w", name, err)
	}
	return nil
}

// UpdateStoragePath sets or clears the user's storage path. A nil path
// clears the column. Returns ErrIdleUpdate when no row changed.
func (r *UserRepository) UpdateStoragePath(name string, path *string) error {
	result := r.DB.Model(&models.UserModel{}).
		Where("LOWER(username) = LOWER(?)", name).
		Update("storage_path", path)
	if result.Error != nil {
		return fmt.Errorf("failed to update storage path for %q: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrIdleUpdate
	}
	return nil
}

// IsReachable reports whether the database answers a ping
func (r *UserRepository) IsReachable() bool {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}
