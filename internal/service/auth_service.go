package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials indicates that provided login credentials are incorrect.
var ErrInvalidCredentials = errors.New("invalid credentials")

// TokenIssuer signs bearer tokens for an authenticated subject.
type TokenIssuer interface {
	Issue(username string) (string, error)
}

// AuthService exchanges the configured credential pair for a bearer token.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	username     string
	passwordHash []byte
	tokens       TokenIssuer
}

// NewAuthService hashes password once so it is never compared in plain text.
func NewAuthService(username, password string, tokens TokenIssuer) (AuthService, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("auth username is required")
	}
	if password == "" {
		return nil, errors.New("auth password is required")
	}
	if tokens == nil {
		return nil, errors.New("token issuer is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	return &authService{
		username:     username,
		passwordHash: hash,
		tokens:       tokens,
	}, nil
}

func (s *authService) Login(_ context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userMatch || passErr != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(s.username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
