package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/bizregistry/internal/testutil"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenStoreToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "missing", token: "  ", wantErr: ErrNoCredentials},
		{name: "opaque token passes through", token: "abc123"},
		{name: "jwt without exp", token: signed(t, jwt.MapClaims{"sub": "u1"})},
		{name: "valid jwt", token: signed(t, jwt.MapClaims{"exp": now.Add(time.Hour).Unix()})},
		{name: "expired jwt", token: signed(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()}), wantErr: ErrTokenExpired},
		{name: "within leeway", token: signed(t, jwt.MapClaims{"exp": now.Add(10 * time.Second).Unix()}), wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewTokenStore(tt.token, 30*time.Second, testutil.NullLogger())
			store.now = func() time.Time { return now }

			got, err := store.Token(context.Background())
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.True(t, errors.Is(err, ErrNoCredentials))
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got)
		})
	}
}

func TestTokenStoreLogout(t *testing.T) {
	store := NewTokenStore(signed(t, jwt.MapClaims{"sub": "user-7"}), 0, testutil.NullLogger())
	assert.Equal(t, "user-7", store.Subject())

	called := 0
	store.OnLogout(func() { called++ })
	store.Logout(context.Background())

	_, err := store.Token(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Equal(t, 1, called)
	assert.Empty(t, store.Subject())

	store.Set("fresh")
	tok, err := store.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
}
