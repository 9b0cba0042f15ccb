package domain

import (
	"errors"
	"time"
)

var ErrUserNotFound = errors.New("user not found")

// User is a registered copilot user. Email is unique case-insensitively and
// stored lower-cased.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name,omitempty"`
	Institution *string   `json:"institution,omitempty"`
	Role        *string   `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterRequest represents data needed to register or refresh a user.
// Blank optional fields never overwrite stored values.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=320"`
	FullName    string `json:"full_name" validate:"max=200"`
	Institution string `json:"institution" validate:"max=200"`
	Role        string `json:"role" validate:"omitempty,oneof=student faculty staff advisor administrator"`
}

// UpdateUserRequest represents data for updating a user
type UpdateUserRequest struct {
	FullName    *string `json:"full_name,omitempty" validate:"omitempty,max=200"`
	Institution *string `json:"institution,omitempty" validate:"omitempty,max=200"`
	Role        *string `json:"role,omitempty" validate:"omitempty,oneof=student faculty staff advisor administrator"`
}
