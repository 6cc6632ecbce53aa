package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidHashFormat    = errors.New("invalid hash format")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrUnknownHasher        = errors.New("unknown password hasher")
	ErrPasswordTooLong      = errors.New("password too long for hasher")
)

type PasswordHandler interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Ensure both hashers implement PasswordHandler
var (
	_ PasswordHandler = (*Argon2)(nil)
	_ PasswordHandler = (*Bcrypt)(nil)
)

// NewPasswordHandler returns the hasher registered under name ("argon2" or "bcrypt").
func NewPasswordHandler(name string) (PasswordHandler, error) {
	switch strings.ToLower(name) {
	case "", "argon2", "argon2id":
		return NewArgon2(), nil
	case "bcrypt":
		return NewBcrypt(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHasher, name)
}

type Argon2 struct {
	Memory      uint32 // Memory cost in KiB
	Iterations  uint32 // Number of iterations (time cost)
	Parallelism uint8  // Number of parallel threads
	SaltLength  uint32 // Length of random salt. Ignored during Verify()
	KeyLength   uint32 // Length of generated key
}

// Create a new Argon2 instance
//
// @ref https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html
func NewArgon2() *Argon2 {
	return &Argon2{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (a *Argon2) Hash(password string) (string, error) {
	salt := make([]byte, a.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey(
		[]byte(password),
		salt,
		a.Iterations,
		a.Memory,
		a.Parallelism,
		a.KeyLength,
	)

	// PHC string format; the algorithm tag is fixed because only IDKey is used
	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		a.Memory,
		a.Iterations,
		a.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))

	return encoded, nil
}

func (a *Argon2) Verify(password, encodedHash string) (bool, error) {
	params, salt, hash, err := decodeArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	computedHash := argon2.IDKey(
		[]byte(password),
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		params.KeyLength,
	)

	return subtle.ConstantTimeCompare(hash, computedHash) == 1, nil
}

func decodeArgon2Hash(encodedHash string) (*Argon2, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return nil, nil, nil, ErrInvalidHashFormat
	}

	if parts[1] != "argon2id" {
		return nil, nil, nil, ErrUnsupportedAlgorithm
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, nil, fmt.Errorf("%w: argon2 version %d", ErrUnsupportedAlgorithm, version)
	}

	params := &Argon2{}
	var p int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &p); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if p <= 0 || p > 255 {
		return nil, nil, nil, fmt.Errorf("%w: parallelism out of range", ErrInvalidHashFormat)
	}
	params.Parallelism = uint8(p)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid salt encoding: %w", err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid hash encoding: %w", err)
	}
	if len(hash) == 0 {
		return nil, nil, nil, ErrInvalidHashFormat
	}

	params.KeyLength = uint32(len(hash))

	return params, salt, hash, nil
}

// Bcrypt hashes with a fixed work factor.
type Bcrypt struct {
	Cost int
}

const (
	// DefaultBcryptCost is the conservative work factor used by NewBcrypt.
	DefaultBcryptCost = 12

	// BcryptMaxPasswordBytes is the longest input bcrypt accepts.
	BcryptMaxPasswordBytes = 72
)

func NewBcrypt() *Bcrypt {
	return &Bcrypt{Cost: DefaultBcryptCost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if len(password) > BcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports false for inputs Hash would have refused, since no stored
// hash can match them.
func (b *Bcrypt) Verify(password, hash string) (bool, error) {
	if len(password) > BcryptMaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrInvalidHashFormat, err)
	}
}
