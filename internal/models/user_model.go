// Package models contains the models for the Cryptoann API
package models

import (
	"time"
)

const UsersTableName = "users"

// UserModel is one row of the users table. PasswordHash is an opaque
// 32-byte digest; StoragePath stays NULL until the first pipeline run
// creates the user's storage directory.
type UserModel struct {
	Username     string    `gorm:"primaryKey;size:60" json:"username"`
	PasswordHash []byte    `gorm:"type:bytea" json:"-"`
	StoragePath  *string   `gorm:"size:1000" json:"-"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (UserModel) TableName() string {
	return UsersTableName
}

// Initialized reports whether the user's storage area has been established.
func (u *UserModel) Initialized() bool {
	return u.StoragePath != nil && *u.StoragePath != ""
}
