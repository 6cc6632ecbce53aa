// Package config loads service settings from an optional YAML file, a .env
// file and SILID_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPrefix    = "SILID"
	minSecretLen = 32
)

var (
	ErrSecretRequired      = errors.New("auth.secret is required")
	ErrSecretTooShort      = errors.New("auth.secret is too short")
	ErrDatabaseURLRequired = errors.New("database.url is required")
)

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	BasePath        string        `mapstructure:"base_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

type AuthConfig struct {
	Secret         string        `mapstructure:"secret"`
	Issuer         string        `mapstructure:"issuer"`
	SessionMaxAge  time.Duration `mapstructure:"session_max_age"`
	PasswordHasher string        `mapstructure:"password_hasher"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheSize      int           `mapstructure:"cache_size"`
	DisableCache   bool          `mapstructure:"disable_cache"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.base_path", "/api/auth")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "silid")
	v.SetDefault("auth.session_max_age", 7*24*time.Hour)
	v.SetDefault("auth.password_hasher", "argon2")
	v.SetDefault("auth.cache_ttl", 30*time.Second)
	v.SetDefault("auth.cache_size", 500)
	v.SetDefault("auth.disable_cache", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. An empty path looks for an optional silid.yaml in
// the working directory; an explicit path must exist. Environment variables
// such as SILID_AUTH_SECRET override both.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("silid")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	// environment overrides, e.g. SILID_SERVER_ADDRESS=:9000
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &c, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return ErrSecretRequired
	}
	if len(c.Auth.Secret) < minSecretLen {
		return fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, minSecretLen)
	}
	if c.Database.URL == "" {
		return ErrDatabaseURLRequired
	}
	return nil
}
