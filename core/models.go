package core

import "time"

// User represents an account on the platform
//
// PasswordHash is only populated on records read for credential checks and
// is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Profile                // bio, phone, ... are flattened into the user JSON
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile holds the optional, user-editable fields of an account.
type Profile struct {
	Bio          *string    `json:"bio,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
	Country      *string    `json:"country,omitempty"`
	ProfileImage *string    `json:"profileImage,omitempty"`
}

// Sanitized returns a copy of the user with the password hash removed.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// Identity returns the minimal projection handed to protected operations.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

// Identity is who a verified bearer token belongs to.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Session represents one issued bearer token
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"` // SHA-256 of the bearer token, never the token itself
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session has lapsed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SessionData is a live session joined with its owner.
type SessionData struct {
	Identity *Identity `json:"user"`
	Session  *Session  `json:"session"`
}
