package uniweb

import (
	"errors"
	"fmt"
)

// Error classes reported by the client. Every error returned by a client
// operation wraps exactly one of them.
var (
	// ErrConfig reports missing or invalid credentials or an unreadable
	// credential file.
	ErrConfig = errors.New("invalid configuration")

	// ErrInvalidRequest reports a malformed request description. It is
	// always returned before any network call is attempted.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrAuth reports a failed token renewal.
	ErrAuth = errors.New("authentication failed")

	// ErrRemote reports a semantic error returned by the server.
	ErrRemote = errors.New("remote error")

	// ErrProtocol reports a response body that did not decode to a usable value.
	ErrProtocol = errors.New("invalid response")

	// ErrRetryExhausted reports that the token kept being rejected across
	// the whole retry budget.
	ErrRetryExhausted = errors.New("could not renew access token, maximum retry attempts reached")
)

// Static errors wrapped with context by the client.
var (
	ErrEmptyHomepage       = fmt.Errorf("%w: homepage cannot be empty", ErrConfig)
	ErrEmptyClientName     = fmt.Errorf("%w: client name cannot be empty", ErrConfig)
	ErrEmptyClientSecret   = fmt.Errorf("%w: client secret cannot be empty", ErrConfig)
	ErrInvalidHomepage     = fmt.Errorf("%w: invalid homepage URL", ErrConfig)
	ErrCredentialsMissing  = fmt.Errorf("%w: cannot find credentials file", ErrConfig)
	ErrConfigRequired      = fmt.Errorf("%w: config is required", ErrConfig)
	ErrNegativeRetryBudget = fmt.Errorf("%w: retry budget cannot be negative", ErrConfig)

	ErrEmptyRequest      = fmt.Errorf("%w: request cannot be empty", ErrInvalidRequest)
	ErrMissingID         = fmt.Errorf("%w: missing \"id\" property in request", ErrInvalidRequest)
	ErrEmptyResources    = fmt.Errorf("%w: resources cannot be empty", ErrInvalidRequest)
	ErrUnsupportedAction = fmt.Errorf("%w: unsupported action", ErrInvalidRequest)
	ErrResourceShape     = fmt.Errorf("%w: resources do not match the action", ErrInvalidRequest)
	ErrDottedAttachment  = fmt.Errorf("%w: attachment name can't contain periods", ErrInvalidRequest)
	ErrEmptyAttachment   = fmt.Errorf("%w: attachment name cannot be empty", ErrInvalidRequest)
	ErrUnreadableFile    = fmt.Errorf("%w: cannot read file", ErrInvalidRequest)
)

// InvalidTokenCode is the error code the server uses to reject an access token.
const InvalidTokenCode = "invalid_token"

// RemoteError is a semantic error returned by the server for a well-formed
// request.
type RemoteError struct {
	Message string `json:"error" yaml:"error"`
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRemote.Error(), e.Message)
}

// Unwrap lets errors.Is match ErrRemote.
func (e *RemoteError) Unwrap() error {
	return ErrRemote
}

// IsRemoteError checks if the error was reported by the server.
func IsRemoteError(err error) bool {
	return errors.Is(err, ErrRemote)
}

// IsAuthError checks if the error comes from a failed token renewal.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}

// IsInvalidRequest checks if the error comes from request validation.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsRetryExhausted checks if the retry budget was exhausted.
func IsRetryExhausted(err error) bool {
	return errors.Is(err, ErrRetryExhausted)
}

// RemoteMessage returns the server message carried by err, if any.
func RemoteMessage(err error) (string, bool) {
	remoteErr := &RemoteError{}
	if errors.As(err, &remoteErr) {
		return remoteErr.Message, true
	}

	return "", false
}
