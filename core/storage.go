package core

import (
	"context"
	"time"
)

type UserStorage interface {
	// CreateUserWithSession inserts the user and their first session in one
	// transaction. A taken email yields ErrDuplicateEmail.
	CreateUserWithSession(ctx context.Context, u *User, s *Session) error

	// Query methods
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Update methods
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
	SetUserRole(ctx context.Context, id string, role Role) error
	SetUserActive(ctx context.Context, id string, active bool) error

	// UpdatePasswordAndRevokeSessions stores the new hash and deletes every
	// session of the user atomically, returning how many were deleted.
	UpdatePasswordAndRevokeSessions(ctx context.Context, id, passwordHash string) (int, error)
}

type SessionStorage interface {
	CreateSession(ctx context.Context, s *Session) error

	// GetLiveSession returns the session holding tokenHash joined with its
	// owner, provided it expires after now and the owner is active.
	// Anything else yields ErrSessionNotFound.
	GetLiveSession(ctx context.Context, tokenHash string, now time.Time) (*SessionData, error)

	// Delete methods. Deleting nothing is not an error.
	DeleteSessionByHash(ctx context.Context, tokenHash string) error
	DeleteUserSessions(ctx context.Context, userID string) (int, error)

	// Cleanup
	DeleteExpiredUserSessions(ctx context.Context, userID string, now time.Time) (int, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}

type StorageAdapter interface {
	UserStorage
	SessionStorage
}
