package auth_test

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/uniweb/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		token    *auth.Token
		expected bool
	}{
		{
			name:     "nil token",
			token:    nil,
			expected: false,
		},
		{
			name:     "empty access token",
			token:    &auth.Token{ExpiresAt: now.Add(time.Hour)},
			expected: false,
		},
		{
			name:     "token without expiry",
			token:    &auth.Token{AccessToken: "test-token"},
			expected: false,
		},
		{
			name:     "future expiry",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: now.Add(time.Hour)},
			expected: true,
		},
		{
			name:     "one second left",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: now.Add(time.Second)},
			expected: true,
		},
		{
			name:     "expires now",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: now},
			expected: false,
		},
		{
			name:     "expired token",
			token:    &auth.Token{AccessToken: "test-token", ExpiresAt: now.Add(-time.Hour)},
			expected: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.Valid(now))
		})
	}
}

func TestTokenStore(t *testing.T) {
	t.Parallel()
	t.Run("new store is empty", testNewStoreEmpty)
	t.Run("set and get token", testSetAndGetToken)
	t.Run("get returns a copy", testGetReturnsCopy)
	t.Run("clear token", testClearToken)
	t.Run("concurrent access", testConcurrentTokenAccess)
}

func testNewStoreEmpty(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())
}

func testSetAndGetToken(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	token := &auth.Token{
		AccessToken: "test-token",
		TokenType:   "bearer",
	}

	store.Set(token)
	retrieved := store.Get()
	assert.NotNil(t, retrieved)
	assert.Equal(t, token.AccessToken, retrieved.AccessToken)
	assert.Equal(t, token.TokenType, retrieved.TokenType)
}

func testGetReturnsCopy(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	store.Set(&auth.Token{AccessToken: "original"})

	retrieved := store.Get()
	retrieved.AccessToken = "changed"

	assert.Equal(t, "original", store.Get().AccessToken)
}

func testClearToken(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	store.Set(&auth.Token{AccessToken: "test-token"})
	assert.NotNil(t, store.Get())

	store.Clear()
	assert.Nil(t, store.Get())
}

func testConcurrentTokenAccess(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	done := make(chan bool)

	for _, value := range []string{"token-1", "token-2"} {
		value := value
		go func() {
			for i := 0; i < 100; i++ {
				store.Set(&auth.Token{AccessToken: value})
			}

			done <- true
		}()
	}

	for i := 0; i < 2; i++ {
		go func() {
			for i := 0; i < 100; i++ {
				_ = store.Get()
			}

			done <- true
		}()
	}

	for i := 0; i < 4; i++ {
		<-done
	}

	finalToken := store.Get()
	assert.NotNil(t, finalToken)
	assert.True(t, finalToken.AccessToken == "token-1" || finalToken.AccessToken == "token-2")
}
