package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lborres/silid/core"
	"github.com/lborres/silid/pkg/crypto"
)

// DefaultSignupRoles may be chosen at registration. Admins are promoted
// through SetRole.
var DefaultSignupRoles = []core.Role{core.RoleStudent, core.RoleInstructor, core.RoleParent}

type AuthService struct {
	db             core.StorageAdapter
	passwordHasher crypto.PasswordHandler
	sessionManager *SessionManager
	validate       *validator.Validate
	log            logrus.FieldLogger
	signupRoles    []core.Role

	decoyOnce sync.Once
	decoyHash string
}

// Ensure AuthService implements AuthHandler
var _ core.AuthHandler = (*AuthService)(nil)

type Option func(*AuthService)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *AuthService) {
		if log != nil {
			s.log = log
		}
	}
}

func WithSignupRoles(roles ...core.Role) Option {
	return func(s *AuthService) {
		if len(roles) > 0 {
			s.signupRoles = roles
		}
	}
}

func NewAuthService(db core.StorageAdapter, sessionManager *SessionManager, passwordHasher crypto.PasswordHandler, opts ...Option) *AuthService {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &AuthService{
		db:             db,
		passwordHasher: passwordHasher,
		sessionManager: sessionManager,
		validate:       newValidator(),
		log:            quiet,
		signupRoles:    DefaultSignupRoles,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account and signs it in
func (s *AuthService) Register(ctx context.Context, input core.RegisterInput, ipAddress, userAgent string) (*core.AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = trimmed(input.Phone)
	input.Gender = trimmed(input.Gender)
	input.Country = trimmed(input.Country)

	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	role, err := core.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	if !role.In(s.signupRoles...) {
		return nil, core.ErrRoleNotSelfAssigned
	}

	profile, err := profileFromInput(input)
	if err != nil {
		return nil, err
	}

	// Step 1: Check if the email is taken
	existing, err := s.db.GetUserByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, core.ErrDuplicateEmail
	}

	// Step 2: Hash the password
	hashedPassword, err := s.hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &core.User{
		ID:           uuid.NewString(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Role:         role,
		Profile:      profile,
		IsActive:     true,
		CreatedAt:    s.sessionManager.now(),
	}

	// Step 3: Mint the first session
	issued, err := s.sessionManager.Issue(user, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Step 4: Persist user and session together. A concurrent registration
	// with the same email loses here with ErrDuplicateEmail.
	epoch := s.sessionManager.currentEpoch()
	if err := s.db.CreateUserWithSession(ctx, user, issued.Session); err != nil {
		if errors.Is(err, core.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.sessionManager.remember(epoch, user, issued)

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user registered")

	return &core.AuthResult{
		Token:     issued.Token,
		ExpiresAt: issued.Session.ExpiresAt,
		User:      user.Sanitized(),
	}, nil
}

// Login authenticates a user with email and password.
//
// An unknown email and a wrong password produce the same
// ErrInvalidCredentials so callers cannot probe which emails exist.
func (s *AuthService) Login(ctx context.Context, input core.LoginInput, ipAddress, userAgent string) (*core.AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	// Step 1: Find the user by email
	user, err := s.db.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			s.spendDecoyVerify(input.Password)
			s.log.WithField("ip", ipAddress).Warn("login failed")
			return nil, core.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// Step 2: Verify the password
	valid, err := s.passwordHasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		s.log.WithFields(logrus.Fields{"ip": ipAddress, "user_id": user.ID}).Warn("login failed")
		return nil, core.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, core.ErrAccountDeactivated
	}

	// Step 3: Drop this user's lapsed sessions while we are here
	if swept, err := s.sessionManager.SweepUserExpired(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("expired session sweep failed")
	} else if swept > 0 {
		s.log.WithFields(logrus.Fields{"user_id": user.ID, "count": swept}).Debug("swept expired sessions")
	}

	// Step 4: Create a new session
	sessionResult, err := s.sessionManager.Create(ctx, user, ipAddress, userAgent)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("user logged in")

	return &core.AuthResult{
		Token:     sessionResult.Token,
		ExpiresAt: sessionResult.Session.ExpiresAt,
		User:      user.Sanitized(),
	}, nil
}

// hashPassword reports inputs the hasher refuses as a client error.
func (s *AuthService) hashPassword(password string) (string, error) {
	hash, err := s.passwordHasher.Hash(password)
	if errors.Is(err, crypto.ErrPasswordTooLong) {
		return "", core.ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// spendDecoyVerify runs a password check against a throwaway hash so the
// unknown-email path costs about as much as the wrong-password path.
func (s *AuthService) spendDecoyVerify(password string) {
	s.decoyOnce.Do(func() {
		buf := make([]byte, 16)
		_, _ = rand.Read(buf)
		s.decoyHash, _ = s.passwordHasher.Hash(base64.RawStdEncoding.EncodeToString(buf))
	})
	if s.decoyHash != "" {
		_, _ = s.passwordHasher.Verify(password, s.decoyHash)
	}
}

// Verify resolves a bearer token to the identity that owns it
func (s *AuthService) Verify(ctx context.Context, token string) (*core.Identity, error) {
	data, err := s.sessionManager.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return data.Identity, nil
}

// Logout invalidates the session holding token
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessionManager.Destroy(ctx, token); err != nil {
		return err
	}
	s.log.Debug("session destroyed")
	return nil
}

// GetUser returns the full profile of a user
func (s *AuthService) GetUser(ctx context.Context, userID string) (*core.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Sanitized(), nil
}

// ChangePassword replaces the password and signs the user out everywhere,
// including the session that made the request.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return core.ErrPasswordRequired
	}

	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	valid, err := s.passwordHasher.Verify(oldPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		s.log.WithField("user_id", userID).Warn("password change rejected")
		return core.ErrInvalidCredentials
	}

	hashedPassword, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}

	revoked, err := s.db.UpdatePasswordAndRevokeSessions(ctx, userID, hashedPassword)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.sessionManager.InvalidateCache()

	s.log.WithFields(logrus.Fields{
		"user_id":          userID,
		"revoked_sessions": revoked,
	}).Info("password changed")

	return nil
}

// UpdateProfile applies the allow-listed fields of the payload. Unknown keys,
// including role and email, are dropped.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, fields map[string]any) (*core.User, error) {
	update, err := core.ParseProfileUpdate(fields)
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	// cached identities carry the display name
	if _, renamed := update[core.FieldName]; renamed {
		s.sessionManager.InvalidateCache()
	}

	return s.GetUser(ctx, userID)
}

// SetRole is the administrative action that changes a user's role
func (s *AuthService) SetRole(ctx context.Context, userID string, role core.Role) error {
	if !role.Valid() {
		return core.ErrInvalidRole
	}

	if err := s.db.SetUserRole(ctx, userID, role); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to set role: %w", err)
	}
	s.sessionManager.InvalidateCache()

	s.log.WithFields(logrus.Fields{"user_id": userID, "role": role}).Info("role changed")
	return nil
}

// SetActive enables or soft-disables an account. Disabling also revokes every
// session, so reactivation requires a fresh login.
func (s *AuthService) SetActive(ctx context.Context, userID string, active bool) error {
	if err := s.db.SetUserActive(ctx, userID, active); err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	s.sessionManager.InvalidateCache()

	fields := logrus.Fields{"user_id": userID, "active": active}
	if !active {
		// Verify already rejects inactive owners; this only drops the rows.
		revoked, err := s.sessionManager.DestroyAllUserSessions(ctx, userID)
		if err != nil {
			s.log.WithError(err).WithFields(fields).Warn("session revocation after deactivation failed")
		}
		fields["revoked_sessions"] = revoked
	}

	s.log.WithFields(fields).Info("account status changed")
	return nil
}

// PurgeExpiredSessions is operator maintenance for lapsed session rows
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.sessionManager.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.log.WithField("count", count).Info("expired sessions purged")
	return count, nil
}
