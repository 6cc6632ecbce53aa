package core

import "time"

// DefaultSessionMaxAge is the fixed lifetime of a token and its session row.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

type SessionConfig struct {
	MaxAge time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxAge: DefaultSessionMaxAge,
	}
}

// RegisterInput contains the data needed to create an account
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"` // empty means student

	Bio          *string `json:"bio,omitempty"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,max=32"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender       *string `json:"gender,omitempty" validate:"omitempty,max=32"`
	Country      *string `json:"country,omitempty" validate:"omitempty,max=64"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// LoginInput contains the credentials for authentication
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordInput is the body of a password change request
type ChangePasswordInput struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// AuthResult is returned by registration and login
type AuthResult struct {
	Token     string    `json:"token"` // The raw bearer token (only its hash is stored)
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}
