// Package silid is the session and identity service of the learning
// platform: accounts, password logins, bearer tokens and profiles.
package silid

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lborres/silid/core"
	"github.com/lborres/silid/pkg/cache"
	"github.com/lborres/silid/pkg/crypto"
	"github.com/lborres/silid/services"
)

// interfaces
type (
	StorageAdapter = core.StorageAdapter
	Cache          = core.Cache
	HTTPAdapter    = core.HTTPAdapter
	AuthHandler    = core.AuthHandler

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
	CacheStats    = core.CacheStats
)

type (
	User          = core.User
	Profile       = core.Profile
	Identity      = core.Identity
	Role          = core.Role
	Session       = core.Session
	SessionData   = core.SessionData
	RegisterInput = core.RegisterInput
	LoginInput    = core.LoginInput
	AuthResult    = core.AuthResult
)

const (
	RoleStudent    = core.RoleStudent
	RoleInstructor = core.RoleInstructor
	RoleAdmin      = core.RoleAdmin
	RoleParent     = core.RoleParent
)

const (
	defaultBasePath  = "/api/auth"
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryCache     = cache.NewInMemoryCache
	NewArgon2            = crypto.NewArgon2
	NewBcrypt            = crypto.NewBcrypt
	NewPasswordHandler   = crypto.NewPasswordHandler
	DefaultSessionConfig = core.DefaultSessionConfig
	ParseRole            = core.ParseRole
)

var (
	ErrDuplicateEmail        = core.ErrDuplicateEmail
	ErrInvalidCredentials    = core.ErrInvalidCredentials
	ErrAccountDeactivated    = core.ErrAccountDeactivated
	ErrInvalidOrExpiredToken = core.ErrInvalidOrExpiredToken
	ErrUserNotFound          = core.ErrUserNotFound
	ErrNoValidFields         = core.ErrNoValidFields
)

var (
	ErrDBAdapterRequired = core.ErrDBAdapterRequired
	ErrSecretRequired    = core.ErrSecretRequired
	ErrSecretTooShort    = core.ErrSecretTooShort
)

type Config struct {
	// Secret signs bearer tokens. At least 32 characters.
	Secret string
	Issuer string

	Database StorageAdapter
	HTTP     HTTPAdapter // optional; routes are mounted under BasePath when set

	CacheAdapter Cache
	CacheConfig  *CacheConfig
	DisableCache bool

	SessionConfig  *SessionConfig
	PasswordHasher PasswordHandler
	BasePath       string

	Logger      logrus.FieldLogger
	SignupRoles []Role
}

// Silid is a configured auth service.
type Silid struct {
	*services.AuthService

	Sessions *services.SessionManager
	Cache    Cache
	BasePath string
}

func New(config Config) (*Silid, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrDBAdapterRequired
	}

	// Set Defaults

	log := config.Logger
	if log == nil {
		quiet := logrus.New()
		quiet.SetOutput(io.Discard)
		log = quiet
	}

	cacheAdapter := config.CacheAdapter
	if cacheAdapter == nil && !config.DisableCache {
		cacheConfig := CacheConfig{}
		if config.CacheConfig != nil {
			cacheConfig = *config.CacheConfig
		}
		cacheAdapter = NewInMemoryCache(cacheConfig)
	}
	if config.DisableCache {
		cacheAdapter = nil
	}

	sessionConfig := DefaultSessionConfig()
	if config.SessionConfig != nil && config.SessionConfig.MaxAge > 0 {
		sessionConfig = *config.SessionConfig
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = NewArgon2()
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	signer, err := crypto.NewTokenSigner(config.Secret, config.Issuer)
	if err != nil {
		return nil, err
	}

	sessionManager := services.NewSessionManager(sessionConfig, config.Database, cacheAdapter, signer)

	authService := services.NewAuthService(
		config.Database,
		sessionManager,
		passwordHasher,
		services.WithLogger(log),
		services.WithSignupRoles(config.SignupRoles...),
	)

	s := &Silid{
		AuthService: authService,
		Sessions:    sessionManager,
		Cache:       cacheAdapter,
		BasePath:    basePath,
	}

	if config.HTTP != nil {
		if err := config.HTTP.RegisterRoutes(authService, basePath); err != nil {
			return nil, err
		}
	}

	return s, nil
}
