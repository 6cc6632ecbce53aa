package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultIssuer = "silid"

var ErrInvalidSigningKey = errors.New("signing key cannot be empty")

// Claims is the payload of a bearer token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenSigner mints and parses HS256 bearer tokens.
type TokenSigner struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewTokenSigner(secret, issuer string) (*TokenSigner, error) {
	if secret == "" {
		return nil, ErrInvalidSigningKey
	}
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &TokenSigner{
		key:    []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the signer that reads time from now.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	clone := *s
	clone.now = now
	return &clone
}

// Sign mints a token for the subject. tokenID makes every token unique even
// when two are issued to the same user within the same second.
func (s *TokenSigner) Sign(tokenID, userID, email, role string, expiresAt time.Time) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, algorithm, issuer and expiry.
func (s *TokenSigner) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
