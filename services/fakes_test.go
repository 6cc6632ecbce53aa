package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lborres/silid/core"
	"github.com/lborres/silid/pkg/cache"
	"github.com/lborres/silid/pkg/crypto"
)

// FakeStorage is a test-only fake implementing core.StorageAdapter.
// It keeps users and sessions in maps and exposes error fields for behavior
// injection. Reads return copies so callers cannot mutate stored records.
type FakeStorage struct {
	mu       sync.RWMutex
	users    map[string]*core.User
	sessions map[string]*core.Session // keyed by token hash

	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

var _ core.StorageAdapter = (*FakeStorage)(nil)

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		users:    make(map[string]*core.User),
		sessions: make(map[string]*core.Session),
	}
}

func (f *FakeStorage) CreateUserWithSession(_ context.Context, u *core.User, s *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrDuplicateEmail
		}
	}

	user := *u
	session := *s
	f.users[u.ID] = &user
	f.sessions[s.TokenHash] = &session
	return nil
}

func (f *FakeStorage) GetUserByID(_ context.Context, id string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *FakeStorage) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeStorage) UpdateProfile(_ context.Context, id string, update core.ProfileUpdate) error {
	return f.mutateUser(id, func(u *core.User) { update.Apply(u) })
}

func (f *FakeStorage) SetUserRole(_ context.Context, id string, role core.Role) error {
	return f.mutateUser(id, func(u *core.User) { u.Role = role })
}

func (f *FakeStorage) SetUserActive(_ context.Context, id string, active bool) error {
	return f.mutateUser(id, func(u *core.User) { u.IsActive = active })
}

func (f *FakeStorage) mutateUser(id string, fn func(*core.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return core.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (f *FakeStorage) UpdatePasswordAndRevokeSessions(_ context.Context, id, passwordHash string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return 0, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return 0, core.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return f.deleteWhere(func(s *core.Session) bool { return s.UserID == id }), nil
}

func (f *FakeStorage) CreateSession(_ context.Context, s *core.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}
	session := *s
	f.sessions[s.TokenHash] = &session
	return nil
}

func (f *FakeStorage) GetLiveSession(_ context.Context, tokenHash string, now time.Time) (*core.SessionData, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.sessions[tokenHash]
	if !ok || s.Expired(now) {
		return nil, core.ErrSessionNotFound
	}
	u, ok := f.users[s.UserID]
	if !ok || !u.IsActive {
		return nil, core.ErrSessionNotFound
	}

	session := *s
	return &core.SessionData{Identity: u.Identity(), Session: &session}, nil
}

func (f *FakeStorage) DeleteSessionByHash(_ context.Context, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.sessions, tokenHash)
	return nil
}

func (f *FakeStorage) DeleteUserSessions(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleteWhere(func(s *core.Session) bool { return s.UserID == userID }), nil
}

func (f *FakeStorage) DeleteExpiredUserSessions(_ context.Context, userID string, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleteWhere(func(s *core.Session) bool { return s.UserID == userID && s.Expired(now) }), nil
}

func (f *FakeStorage) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return f.deleteWhere(func(s *core.Session) bool { return s.Expired(now) }), nil
}

// deleteWhere must be called with mu held.
func (f *FakeStorage) deleteWhere(match func(*core.Session) bool) int {
	count := 0
	for hash, s := range f.sessions {
		if match(s) {
			delete(f.sessions, hash)
			count++
		}
	}
	return count
}

// SessionCount returns the number of stored sessions owned by userID.
func (f *FakeStorage) SessionCount(userID string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	count := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			count++
		}
	}
	return count
}

// ExpireSessions moves the storage expiry of every session of userID to at.
func (f *FakeStorage) ExpireSessions(userID string, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sessions {
		if s.UserID == userID {
			s.ExpiresAt = at
		}
	}
}

// pausingStorage holds the first GetLiveSession call after the row has been
// read, until resume is closed. loaded is closed once the row is in hand.
type pausingStorage struct {
	*FakeStorage
	loaded chan struct{}
	resume chan struct{}
	once   sync.Once
}

func newPausingStorage(inner *FakeStorage) *pausingStorage {
	return &pausingStorage{
		FakeStorage: inner,
		loaded:      make(chan struct{}),
		resume:      make(chan struct{}),
	}
}

func (p *pausingStorage) GetLiveSession(ctx context.Context, tokenHash string, now time.Time) (*core.SessionData, error) {
	data, err := p.FakeStorage.GetLiveSession(ctx, tokenHash, now)

	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.loaded)
		<-p.resume
	}
	return data, err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

// cheapArgon2 keeps hashing fast in tests.
func cheapArgon2() *crypto.Argon2 {
	return &crypto.Argon2{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

type testEnv struct {
	storage *FakeStorage
	cache   *cache.InMemoryCache
	clock   *fakeClock
	manager *SessionManager
	service *AuthService
}

// newTestEnv wires an AuthService over fakes sharing one controllable clock.
// Pass withCache=false to exercise the storage path only.
func newTestEnv(t *testing.T, withCache bool) *testEnv {
	t.Helper()

	clk := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	signer, err := crypto.NewTokenSigner(testSecret, "")
	if err != nil {
		t.Fatalf("NewTokenSigner() error = %v", err)
	}

	storage := NewFakeStorage()

	env := &testEnv{storage: storage, clock: clk}

	var c core.Cache
	if withCache {
		env.cache = cache.NewInMemoryCache(core.CacheConfig{TTL: time.Hour, MaxSize: 100})
		env.cache.SetClock(clk.Now)
		c = env.cache
	}

	env.manager = NewSessionManager(core.DefaultSessionConfig(), storage, c, signer)
	useClock(env.manager, clk)

	env.service = NewAuthService(storage, env.manager, cheapArgon2())
	return env
}

func useClock(sm *SessionManager, clk *fakeClock) {
	sm.now = clk.Now
	sm.signer = sm.signer.WithClock(clk.Now)
}

// register creates an account with the given credentials and fails the test on error.
func (e *testEnv) register(t *testing.T, email, password string) *core.AuthResult {
	t.Helper()

	result, err := e.service.Register(context.Background(), core.RegisterInput{
		Name:     "Test User",
		Email:    email,
		Password: password,
	}, "127.0.0.1", "go-test")
	if err != nil {
		t.Fatalf("Register(%q) error = %v", email, err)
	}
	return result
}
