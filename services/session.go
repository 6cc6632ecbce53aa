package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lborres/silid/core"
	"github.com/lborres/silid/pkg/crypto"
)

type SessionManager struct {
	config  core.SessionConfig
	storage core.SessionStorage
	cache   core.Cache // optional, can be nil if caching is disabled
	signer  *crypto.TokenSigner
	now     func() time.Time

	// epoch counts revocations. A session read from storage is only cached
	// if no revocation happened between the read and the cache write.
	mu    sync.Mutex
	epoch uint64
}

type CreateSessionResult struct {
	Session *core.Session `json:"session"`
	Token   string        `json:"token"`
}

func NewSessionManager(config core.SessionConfig, storage core.SessionStorage, cache core.Cache, signer *crypto.TokenSigner) *SessionManager {
	if config.MaxAge == 0 {
		config.MaxAge = core.DefaultSessionMaxAge
	}
	return &SessionManager{
		config:  config,
		storage: storage,
		cache:   cache,
		signer:  signer,
		now:     time.Now,
	}
}

// Issue mints a token and the session row describing it without persisting
// anything. Registration stores the row together with the new user.
func (sm *SessionManager) Issue(user *core.User, ip, userAgent string) (*CreateSessionResult, error) {
	now := sm.now()
	sessionID := uuid.NewString()

	// token and row share one expiry; JWT timestamps have second precision
	expiresAt := now.Add(sm.config.MaxAge).Truncate(time.Second)

	token, err := sm.signer.Sign(sessionID, user.ID, user.Email, string(user.Role), expiresAt)
	if err != nil {
		return nil, err
	}

	session := &core.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TokenHash: crypto.HashToken(token),
		IPAddress: ip,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}

	return &CreateSessionResult{Session: session, Token: token}, nil
}

// Create issues and persists a session for an existing user.
func (sm *SessionManager) Create(ctx context.Context, user *core.User, ip, userAgent string) (*CreateSessionResult, error) {
	result, err := sm.Issue(user, ip, userAgent)
	if err != nil {
		return nil, err
	}

	epoch := sm.currentEpoch()
	if err := sm.storage.CreateSession(ctx, result.Session); err != nil {
		return nil, err
	}

	sm.remember(epoch, user, result)
	return result, nil
}

// remember caches a freshly issued session. Cache failures never fail the request.
func (sm *SessionManager) remember(epoch uint64, user *core.User, result *CreateSessionResult) {
	sm.cacheIfCurrent(epoch, result.Session.TokenHash, &core.SessionData{
		Identity: user.Identity(),
		Session:  result.Session,
	})
}

func (sm *SessionManager) currentEpoch() uint64 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.epoch
}

// cacheIfCurrent writes data unless a revocation happened after epoch was read.
func (sm *SessionManager) cacheIfCurrent(epoch uint64, tokenHash string, data *core.SessionData) {
	if sm.cache == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.epoch != epoch {
		return
	}
	_ = sm.cache.Set(tokenHash, data)
}

// revoke bumps the epoch and drops tokenHash from the cache, or the whole
// cache when tokenHash is empty. Call it after storage has been changed.
func (sm *SessionManager) revoke(tokenHash string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.epoch++
	if sm.cache == nil {
		return
	}
	if tokenHash == "" {
		_ = sm.cache.Clear()
		return
	}
	_ = sm.cache.Delete(tokenHash)
}

// Verify is the gate in front of every protected operation. The token must
// carry a valid signature and unexpired claims, and a live session row owned
// by an active user must still hold it. Either check failing alone is enough
// to reject.
func (sm *SessionManager) Verify(ctx context.Context, token string) (*core.SessionData, error) {
	if token == "" {
		return nil, core.ErrInvalidOrExpiredToken
	}

	claims, err := sm.signer.Parse(token)
	if err != nil {
		return nil, core.ErrInvalidOrExpiredToken
	}

	tokenHash := crypto.HashToken(token)
	now := sm.now()

	// Try cache first if caching is enabled
	if sm.cache != nil {
		if data, err := sm.cache.Get(tokenHash); err == nil {
			match, _ := crypto.VerifyToken(token, data.Session.TokenHash)
			if match && !data.Session.Expired(now) && data.Identity.ID == claims.UserID {
				return data, nil
			}
			_ = sm.cache.Delete(tokenHash)
		}
	}

	epoch := sm.currentEpoch()
	data, err := sm.storage.GetLiveSession(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return nil, core.ErrInvalidOrExpiredToken
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if data.Identity.ID != claims.UserID {
		return nil, core.ErrInvalidOrExpiredToken
	}

	sm.cacheIfCurrent(epoch, tokenHash, data)

	return data, nil
}

// Destroy deletes the session holding token. Unknown tokens are not an error.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	tokenHash := crypto.HashToken(token)

	if err := sm.storage.DeleteSessionByHash(ctx, tokenHash); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	sm.revoke(tokenHash)

	return nil
}

func (sm *SessionManager) DestroyAllUserSessions(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, core.ErrUserNotFound
	}

	count, err := sm.storage.DeleteUserSessions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user sessions: %w", err)
	}

	// The cache is keyed by token hash, so there is no cheap way to find
	// one user's entries.
	sm.InvalidateCache()

	return count, nil
}

// InvalidateCache drops every cached session. Called whenever state that
// Verify depends on changes outside of a single token.
func (sm *SessionManager) InvalidateCache() {
	sm.revoke("")
}

// SweepUserExpired deletes the user's lapsed sessions.
func (sm *SessionManager) SweepUserExpired(ctx context.Context, userID string) (int, error) {
	return sm.storage.DeleteExpiredUserSessions(ctx, userID, sm.now())
}

// SweepExpired deletes every lapsed session.
func (sm *SessionManager) SweepExpired(ctx context.Context) (int, error) {
	count, err := sm.storage.DeleteExpiredSessions(ctx, sm.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return count, nil
}
