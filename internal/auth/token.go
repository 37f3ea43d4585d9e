package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest secret accepted for HS256 signing.
const MinSecretLength = 32

var (
	ErrSecretRequired = errors.New("jwt secret is required")
	ErrSecretTooShort = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
	ErrInvalidTTL     = errors.New("token validity must be positive")
)

// Status describes the outcome of inspecting a token.
type Status int

const (
	StatusValid Status = iota
	StatusMalformed
	StatusBadSignature
	StatusExpired
	StatusSubjectMismatch
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusMalformed:
		return "malformed"
	case StatusBadSignature:
		return "bad_signature"
	case StatusExpired:
		return "expired"
	case StatusSubjectMismatch:
		return "subject_mismatch"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock replaces time.Now as the source of issue and validation times.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) {
		if now != nil {
			m.now = now
		}
	}
}

// TokenManager issues and checks HS256 bearer tokens. It is immutable and safe
// for concurrent use.
type TokenManager struct {
	key      []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, validity time.Duration, opts ...Option) (*TokenManager, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	if validity <= 0 {
		return nil, ErrInvalidTTL
	}

	m := &TokenManager{
		key:      []byte(secret),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Validity returns the lifetime given to issued tokens.
func (m *TokenManager) Validity() time.Duration {
	return m.validity
}

// Issue returns a signed token for username valid for the configured window.
func (m *TokenManager) Issue(username string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate reports whether token is a live token for username.
func (m *TokenManager) Validate(token, username string) bool {
	return m.Inspect(token, username) == StatusValid
}

// Inspect verifies token and reports why it is not valid for username.
func (m *TokenManager) Inspect(token, username string) Status {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return statusFromError(err)
	}

	if claims.Subject != username {
		return StatusSubjectMismatch
	}
	return StatusValid
}

func statusFromError(err error) Status {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return StatusExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return StatusBadSignature
	default:
		return StatusMalformed
	}
}
