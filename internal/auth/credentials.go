package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/johnrirwin/bizregistry/internal/logging"
)

var (
	// ErrNoCredentials is returned when no bearer token is available.
	ErrNoCredentials = errors.New("no authentication token available")
	// ErrTokenExpired is returned when the stored token is past its exp claim.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrNoCredentials)
)

// CredentialProvider supplies the bearer token for registry calls and ends
// the session when the registry rejects it.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Logout(ctx context.Context)
}

// TokenStore holds one bearer token in memory. JWTs are inspected, without
// verifying the signature, so an expired token is reported as missing
// instead of being sent.
type TokenStore struct {
	mu       sync.RWMutex
	token    string
	leeway   time.Duration
	now      func() time.Time
	logger   *logging.Logger
	onLogout []func()
}

// NewTokenStore creates a store seeded with token. leeway treats tokens that
// expire within that window as already expired.
func NewTokenStore(token string, leeway time.Duration, logger *logging.Logger) *TokenStore {
	return &TokenStore{
		token:  strings.TrimSpace(token),
		leeway: leeway,
		now:    time.Now,
		logger: logger,
	}
}

// Set replaces the stored token.
func (s *TokenStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

// Token returns the current token or ErrNoCredentials.
func (s *TokenStore) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", ErrNoCredentials
	}

	claims, ok := parseClaims(token)
	if !ok {
		return token, nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return token, nil
	}
	if !s.now().Add(s.leeway).Before(exp.Time) {
		s.logger.Info("Stored token expired", logging.WithField("expired_at", exp.Time.Format(time.RFC3339)))
		return "", ErrTokenExpired
	}
	return token, nil
}

// Subject returns the token's sub claim, or "" for opaque tokens.
func (s *TokenStore) Subject() string {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	claims, ok := parseClaims(token)
	if !ok {
		return ""
	}
	sub, _ := claims.GetSubject()
	return sub
}

// OnLogout registers a hook run after the token is cleared.
func (s *TokenStore) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Logout clears the token and runs the logout hooks.
func (s *TokenStore) Logout(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	s.logger.Info("Session credentials cleared")
	for _, fn := range hooks {
		fn()
	}
}

func parseClaims(token string) (jwt.MapClaims, bool) {
	if strings.Count(token, ".") != 2 {
		return nil, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, false
	}
	return claims, true
}

var _ CredentialProvider = (*TokenStore)(nil)
