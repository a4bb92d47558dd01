// Package auth acquires and caches the access tokens of the Uniweb API.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fivetwenty-io/uniweb/internal/constants"
	uwhttp "github.com/fivetwenty-io/uniweb/internal/http"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// Static errors for token acquisition. All of them wrap uniweb.ErrAuth.
var (
	ErrTokenRequest   = fmt.Errorf("%w: could not get access token", uniweb.ErrAuth)
	ErrTokenRejected  = fmt.Errorf("%w: token request rejected", uniweb.ErrAuth)
	ErrTokenMalformed = fmt.Errorf("%w: malformed token reply", uniweb.ErrAuth)
	ErrTokenNoExpiry  = fmt.Errorf("%w: token reply has no valid expiration", uniweb.ErrAuth)
	ErrTokenMissing   = fmt.Errorf("%w: token reply has no access token", uniweb.ErrAuth)
)

// Poster sends form requests. *uwhttp.Client implements it.
type Poster interface {
	Post(ctx context.Context, endpoint string, fields url.Values, files ...uwhttp.FilePart) (*uwhttp.Response, error)
}

// Manager provides the access token used on resource calls.
type Manager interface {
	// Token returns the held token if it is still usable.
	Token() (string, bool)
	// Renew unconditionally acquires a new token, replacing the held one
	// on success.
	Renew(ctx context.Context) (string, error)
}

// PasswordConfig configures a PasswordTokenManager.
type PasswordConfig struct {
	// TokenURL is the absolute URL of the token endpoint.
	TokenURL string
	Username string
	Password string

	// Clock returns the current time. Defaults to time.Now.
	Clock  func() time.Time
	Logger uniweb.Logger
}

// PasswordTokenManager obtains tokens with the password grant, using the
// client name and secret as username and password.
type PasswordTokenManager struct {
	poster Poster
	config PasswordConfig
	store  *TokenStore
	clock  func() time.Time
}

// NewPasswordTokenManager creates a token manager. No token is requested
// until one is needed.
func NewPasswordTokenManager(poster Poster, config PasswordConfig) *PasswordTokenManager {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return &PasswordTokenManager{
		poster: poster,
		config: config,
		store:  NewTokenStore(),
		clock:  clock,
	}
}

// Current returns a copy of the held token, or nil.
func (m *PasswordTokenManager) Current() *Token {
	return m.store.Get()
}

// SetToken installs a previously acquired token.
func (m *PasswordTokenManager) SetToken(accessToken string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: accessToken, ExpiresAt: expiresAt})
}

// HasValidToken reports whether the held token is usable now.
func (m *PasswordTokenManager) HasValidToken() bool {
	return m.store.Get().Valid(m.clock())
}

// Token implements Manager.
func (m *PasswordTokenManager) Token() (string, bool) {
	token := m.store.Get()
	if !token.Valid(m.clock()) {
		return "", false
	}

	return token.AccessToken, true
}

// EnsureValidToken returns the held token, renewing it first when it is
// absent or expired.
func (m *PasswordTokenManager) EnsureValidToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid(m.clock()) {
		return token.AccessToken, nil
	}

	return m.Renew(ctx)
}

// Renew implements Manager. On failure the held token is left unchanged.
func (m *PasswordTokenManager) Renew(ctx context.Context) (string, error) {
	fields := url.Values{
		constants.GrantTypeField: {constants.GrantTypePassword},
		constants.UsernameField:  {m.config.Username},
		constants.PasswordField:  {m.config.Password},
	}

	requestedAt := m.clock()

	resp, err := m.poster.Post(ctx, m.config.TokenURL, fields)
	if err != nil {
		m.logError(err)

		return "", fmt.Errorf("%w: %w", ErrTokenRequest, err)
	}

	token, err := parseTokenReply(resp.Body, requestedAt)
	if err != nil {
		m.logError(err)

		return "", err
	}

	m.store.Set(token)

	if m.config.Logger != nil {
		m.config.Logger.Debug("Access token renewed", map[string]interface{}{
			"expires_in": token.ExpiresIn,
			"expires_at": token.ExpiresAt.Format(time.RFC3339),
		})
	}

	return token.AccessToken, nil
}

func (m *PasswordTokenManager) logError(err error) {
	if m.config.Logger != nil {
		m.config.Logger.Error("Access token renewal failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// parseTokenReply decodes a token endpoint reply. The expiration is counted
// from the moment the request was sent.
func parseTokenReply(body []byte, requestedAt time.Time) (*Token, error) {
	var reply map[string]json.RawMessage

	err := json.Unmarshal(body, &reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}

	if reply == nil {
		return nil, ErrTokenMalformed
	}

	if raw, ok := reply[constants.ErrorField]; ok && string(raw) != "null" {
		return nil, fmt.Errorf("%w: %s", ErrTokenRejected, errorText(raw))
	}

	expiresIn, err := parseExpiresIn(reply[constants.ExpiresInField])
	if err != nil {
		return nil, err
	}

	var accessToken string

	err = json.Unmarshal(reply["access_token"], &accessToken)
	if err != nil || accessToken == "" {
		return nil, ErrTokenMissing
	}

	token := &Token{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		ExpiresAt:   requestedAt.Add(time.Duration(expiresIn) * time.Second),
	}

	if raw, ok := reply["token_type"]; ok {
		_ = json.Unmarshal(raw, &token.TokenType)
	}

	return token, nil
}

// maxExpiresIn caps token lifetimes so the expiration stays representable.
const maxExpiresIn = int64(10 * 365 * 24 * 60 * 60)

// parseExpiresIn accepts a JSON number or a numeric string. Fractions are
// truncated to whole seconds and at least one second must remain.
func parseExpiresIn(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 {
		return 0, ErrTokenNoExpiry
	}

	text := strings.Trim(string(raw), `"`)

	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrTokenNoExpiry, string(raw))
	}

	if math.IsNaN(seconds) || seconds < 1 {
		return 0, fmt.Errorf("%w: %s", ErrTokenNoExpiry, text)
	}

	if seconds >= float64(maxExpiresIn) {
		return maxExpiresIn, nil
	}

	return int64(seconds), nil
}

func errorText(raw json.RawMessage) string {
	var message string

	err := json.Unmarshal(raw, &message)
	if err == nil {
		return message
	}

	var details struct {
		Description string `json:"error_description"`
		Message     string `json:"message"`
	}

	err = json.Unmarshal(raw, &details)
	if err == nil {
		switch {
		case details.Description != "":
			return details.Description
		case details.Message != "":
			return details.Message
		}
	}

	return string(raw)
}

// IsTokenError checks if err comes from token acquisition.
func IsTokenError(err error) bool {
	return errors.Is(err, uniweb.ErrAuth)
}
