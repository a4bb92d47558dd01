package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/uniweb/internal/auth"
	uwhttp "github.com/fivetwenty-io/uniweb/internal/http"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTokenServer(t *testing.T, calls *int32, reply string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		atomic.AddInt32(calls, 1)

		assert.Equal(t, "/api/token.php", request.URL.Path)
		assert.NoError(t, request.ParseForm())
		assert.Equal(t, "password", request.PostForm.Get("grant_type"))
		assert.Equal(t, "bot", request.PostForm.Get("username"))
		assert.Equal(t, "s3cret", request.PostForm.Get("password"))

		_, _ = writer.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	return server
}

func newManager(server *httptest.Server, clock *fakeClock) *auth.PasswordTokenManager {
	return auth.NewPasswordTokenManager(uwhttp.NewClient(), auth.PasswordConfig{
		TokenURL: server.URL + "/api/token.php",
		Username: "bot",
		Password: "s3cret",
		Clock:    clock.Now,
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestPasswordTokenManager_EnsureValidToken(t *testing.T) {
	t.Parallel()

	t.Run("acquires a token on first use", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"first","expires_in":3600,"token_type":"Bearer"}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)

		token, err := manager.EnsureValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first", token)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

		current := manager.Current()
		require.NotNil(t, current)
		assert.Equal(t, clock.now.Add(time.Hour), current.ExpiresAt)
		assert.Equal(t, "Bearer", current.TokenType)
	})

	t.Run("reuses a valid token", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"first","expires_in":3600}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)

		_, err := manager.EnsureValidToken(context.Background())
		require.NoError(t, err)

		clock.now = clock.now.Add(59 * time.Minute)

		token, err := manager.EnsureValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "first", token)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("renews an expired token once", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"renewed","expires_in":60}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)
		manager.SetToken("expired", clock.now.Add(-time.Second))

		token, err := manager.EnsureValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "renewed", token)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("token expiring now is renewed", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"renewed","expires_in":60}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)
		manager.SetToken("boundary", clock.now)

		token, err := manager.EnsureValidToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "renewed", token)
	})
}

func TestPasswordTokenManager_Renew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		reply    string
		expected error
	}{
		{"error field", `{"error":"invalid_client","error_description":"bad secret"}`, auth.ErrTokenRejected},
		{"missing expires_in", `{"access_token":"abc"}`, auth.ErrTokenNoExpiry},
		{"zero expires_in", `{"access_token":"abc","expires_in":0}`, auth.ErrTokenNoExpiry},
		{"negative expires_in", `{"access_token":"abc","expires_in":-5}`, auth.ErrTokenNoExpiry},
		{"sub-second expires_in", `{"access_token":"abc","expires_in":0.5}`, auth.ErrTokenNoExpiry},
		{"non-numeric expires_in", `{"access_token":"abc","expires_in":"NaN"}`, auth.ErrTokenNoExpiry},
		{"missing access token", `{"expires_in":3600}`, auth.ErrTokenMissing},
		{"not json", `<html>oops</html>`, auth.ErrTokenMalformed},
		{"null body", `null`, auth.ErrTokenMalformed},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var calls int32

			server := newTokenServer(t, &calls, testCase.reply)
			clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
			manager := newManager(server, clock)

			previous := clock.now.Add(-time.Minute)
			manager.SetToken("previous", previous)

			_, err := manager.Renew(context.Background())
			require.Error(t, err)
			require.ErrorIs(t, err, testCase.expected)
			assert.ErrorIs(t, err, uniweb.ErrAuth)
			assert.True(t, auth.IsTokenError(err))

			current := manager.Current()
			require.NotNil(t, current)
			assert.Equal(t, "previous", current.AccessToken)
			assert.Equal(t, previous, current.ExpiresAt)
		})
	}

	t.Run("numeric string expires_in", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"abc","expires_in":"120"}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)

		token, err := manager.Renew(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
		assert.Equal(t, clock.now.Add(2*time.Minute), manager.Current().ExpiresAt)
	})

	t.Run("fractional expires_in", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"abc","expires_in":1.9}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)

		_, err := manager.Renew(context.Background())
		require.NoError(t, err)
		assert.Equal(t, clock.now.Add(time.Second), manager.Current().ExpiresAt)
		assert.True(t, manager.HasValidToken())
	})

	t.Run("huge expires_in is capped", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := newTokenServer(t, &calls, `{"access_token":"abc","expires_in":1e20}`)
		clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		manager := newManager(server, clock)

		_, err := manager.Renew(context.Background())
		require.NoError(t, err)

		current := manager.Current()
		assert.True(t, current.ExpiresAt.After(clock.now))
		assert.Equal(t, clock.now.Add(10*365*24*time.Hour), current.ExpiresAt)
		assert.True(t, manager.HasValidToken())
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		manager := auth.NewPasswordTokenManager(uwhttp.NewClient(), auth.PasswordConfig{
			TokenURL: server.URL + "/api/token.php",
		})

		_, err := manager.Renew(context.Background())
		require.ErrorIs(t, err, auth.ErrTokenRequest)
		assert.Nil(t, manager.Current())
	})
}
