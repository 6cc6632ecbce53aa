package core

import (
	"context"
	"time"
)

// Ports define interfaces for external dependencies

// ============================================
// CACHE PORT
// ============================================

// Cache holds recently verified sessions keyed by token hash
type Cache interface {
	Get(tokenHash string) (*SessionData, error)
	Set(tokenHash string, data *SessionData) error
	Delete(tokenHash string) error
	Clear() error
}

// CacheWithStats extends Cache with statistics tracking
type CacheWithStats interface {
	Cache
	Stats() CacheStats
}

// CacheConfig configures cache behavior
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int
}

// CacheStats tracks cache performance metrics
type CacheStats struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Sets      int64         `json:"sets"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int           `json:"size"`
	TTL       time.Duration `json:"ttl"`
}

// ============================================
// AUTH HANDLER (for HTTP adapters)
// ============================================

// AuthHandler provides authentication operations for HTTP adapters
type AuthHandler interface {
	Register(ctx context.Context, input RegisterInput, ipAddress, userAgent string) (*AuthResult, error)
	Login(ctx context.Context, input LoginInput, ipAddress, userAgent string) (*AuthResult, error)
	Verify(ctx context.Context, token string) (*Identity, error)
	Logout(ctx context.Context, token string) error

	GetUser(ctx context.Context, userID string) (*User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*User, error)

	// Administrative actions
	SetRole(ctx context.Context, userID string, role Role) error
	SetActive(ctx context.Context, userID string, active bool) error
}

// ============================================
// HTTP PORT
// ============================================

type HTTPAdapter interface {
	RegisterRoutes(handler AuthHandler, basePath string) error
}
