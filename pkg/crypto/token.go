package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

var ErrEmptyToken = errors.New("token and hash cannot be empty")

// HashToken is the value stored for a bearer token, so a leaked sessions
// table cannot be replayed.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, ErrEmptyToken
	}

	tokenHash := HashToken(token)

	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(storedHash)) == 1, nil
}
