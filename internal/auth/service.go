// Package auth provides account registration, password login and signed
// access tokens. Passwords are stored as Argon2id hashes; tokens are
// stateless HMAC-SHA256 credentials so verification needs no store access.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tinygpt/internal/logging"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const (
	minUsernameLength = 3
	minPasswordLength = 8
)

// Config configures the auth service.
type Config struct {
	TokenSecret string
	TokenTTL    time.Duration
}

// Session is the result of a successful login.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"access_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service handles registration, login and token verification.
type Service struct {
	store  UserStore
	tokens *tokenCodec
	logger logging.Logger
	now    func() time.Time
}

func NewService(store UserStore, cfg Config, logger logging.Logger) *Service {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		store:  store,
		tokens: newTokenCodec([]byte(cfg.TokenSecret), ttl),
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// Register creates an account. Username collisions surface as
// ErrUserExists; weak inputs fail before touching the store.
func (s *Service) Register(ctx context.Context, username, password string) (User, error) {
	if len(username) < minUsernameLength {
		return User{}, fmt.Errorf("auth: username must be at least %d characters", minUsernameLength)
	}
	if len(password) < minPasswordLength {
		return User{}, fmt.Errorf("auth: password must be at least %d characters", minPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user := User{Username: username, PasswordHash: hash, CreatedAt: s.now()}
	if err := s.store.Create(ctx, user); err != nil {
		return User{}, err
	}
	s.logger.Info("registered user %s", username)
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown users
// and wrong passwords both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return Session{}, ErrInvalidCredentials
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		s.logger.Warn("failed login for %s", username)
		return Session{}, ErrInvalidCredentials
	}

	token, expires := s.tokens.Issue(username)
	return Session{Username: username, Token: token, ExpiresAt: expires}, nil
}

// Verify checks an access token and returns the username it was issued to.
func (s *Service) Verify(token string) (string, error) {
	return s.tokens.Verify(token)
}
