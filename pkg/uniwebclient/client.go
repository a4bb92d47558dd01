// Package uniwebclient provides the main entry point for creating Uniweb API clients
package uniwebclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/uniweb/internal/client"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// ErrAuthenticationUnsupported is returned by Authenticate for clients not
// built by this package.
var ErrAuthenticationUnsupported = errors.New("client does not support explicit authentication")

// New creates a new Uniweb API client. The credentials are validated and the
// homepage normalized; no network call is made.
func New(config *uniweb.Config) (uniweb.Client, error) {
	if config == nil {
		return nil, uniweb.ErrConfigRequired
	}

	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithCredentials creates a new client from a homepage, a client name and
// a client secret.
func NewWithCredentials(homepage, clientName, clientSecret string) (uniweb.Client, error) {
	return New(&uniweb.Config{
		Credentials: uniweb.Credentials{
			Homepage:     homepage,
			ClientName:   clientName,
			ClientSecret: clientSecret,
		},
	})
}

// NewFromFile creates a new client from a credentials file. An empty path
// searches the conventional locations under the working directory.
func NewFromFile(path string) (uniweb.Client, error) {
	credentials, err := uniweb.LoadCredentials(path)
	if err != nil {
		return nil, err
	}

	return New(&uniweb.Config{Credentials: *credentials})
}

// Connect creates a new client and acquires its first access token, so that
// invalid credentials are reported immediately.
func Connect(ctx context.Context, config *uniweb.Config) (uniweb.Client, error) {
	c, err := New(config)
	if err != nil {
		return nil, err
	}

	_, err = Authenticate(ctx, c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Authenticate returns the access token held by c, acquiring one if needed.
func Authenticate(ctx context.Context, c uniweb.Client) (string, error) {
	authenticator, ok := c.(interface {
		Authenticate(ctx context.Context) (string, error)
	})
	if !ok {
		return "", ErrAuthenticationUnsupported
	}

	token, err := authenticator.Authenticate(ctx)
	if err != nil {
		return "", fmt.Errorf("authenticating: %w", err)
	}

	return token, nil
}
