package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/fivetwenty-io/uniweb/internal/auth"
	"github.com/fivetwenty-io/uniweb/internal/constants"
	"github.com/fivetwenty-io/uniweb/internal/http"
	"github.com/fivetwenty-io/uniweb/internal/request"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

var _ uniweb.Client = (*Client)(nil)

// Client implements the uniweb.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.Manager
	instanceURL  string
	retryBudget  int
	logger       uniweb.Logger
}

// New creates a new Uniweb API client. No network call is made until the
// first request.
func New(config *uniweb.Config) (*Client, error) {
	return NewWithTokenManager(config, nil)
}

// NewWithTokenManager creates a new Uniweb API client with a custom token
// manager. A nil manager selects the password grant with the configured
// credentials.
func NewWithTokenManager(config *uniweb.Config, tokenManager auth.Manager) (*Client, error) {
	if config == nil {
		return nil, uniweb.ErrConfigRequired
	}

	err := config.Credentials.Validate()
	if err != nil {
		return nil, err
	}

	if config.RetryBudget < 0 {
		return nil, fmt.Errorf("%w: %d", uniweb.ErrNegativeRetryBudget, config.RetryBudget)
	}

	instanceURL, err := config.Credentials.InstanceURL()
	if err != nil {
		return nil, err
	}

	httpClient := http.NewClient(createHTTPClientOptions(config)...)

	if tokenManager == nil {
		tokenManager = auth.NewPasswordTokenManager(httpClient, auth.PasswordConfig{
			TokenURL: instanceURL + constants.TokenEndpoint,
			Username: config.Credentials.ClientName,
			Password: config.Credentials.ClientSecret,
			Logger:   config.Logger,
		})
	}

	retryBudget := config.RetryBudget
	if retryBudget == 0 {
		retryBudget = uniweb.DefaultRetryBudget
	}

	return &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		instanceURL:  instanceURL,
		retryBudget:  retryBudget,
		logger:       config.Logger,
	}, nil
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *uniweb.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPClient != nil {
		httpOpts = append(httpOpts, http.WithHTTPClient(config.HTTPClient))
	} else if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.TransportRetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.TransportRetryWaitMin > 0 {
			retryWaitMin = config.TransportRetryWaitMin
		}

		if config.TransportRetryWaitMax > 0 {
			retryWaitMax = config.TransportRetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.TransportRetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// InstanceURL implements uniweb.Client.InstanceURL.
func (c *Client) InstanceURL() string {
	return c.instanceURL
}

// RetryBudget returns the number of token renewals allowed per request
// after the first one.
func (c *Client) RetryBudget() int {
	return c.retryBudget
}

// TokenManager returns the token manager for this client.
func (c *Client) TokenManager() auth.Manager {
	return c.tokenManager
}

// SendRequest implements uniweb.Client.SendRequest.
//
// The request is validated and encoded before any network call. It is then
// submitted with the held token if that token is still valid. A missing or
// expired token, or an invalid_token reply, causes a renewal followed by a
// resubmission, as long as the budget allows: the budget is decremented on
// each renewal, and a renewal is only attempted while it is not negative.
func (c *Client) SendRequest(ctx context.Context, req *uniweb.Request, maxRetries int) (*uniweb.Response, error) {
	payload, err := request.Build(req)
	if err != nil {
		return nil, err
	}

	files := make([]http.FilePart, 0, len(payload.Files))
	for _, file := range payload.Files {
		files = append(files, http.FilePart{FieldName: file.Name, Path: file.Path, MimeType: file.MimeType})
	}

	fields := url.Values{constants.RequestField: {string(payload.Body)}}
	remaining := maxRetries
	token, ok := c.tokenManager.Token()

	for {
		if ok {
			resp, retry, err := c.submit(ctx, token, fields, files)
			if !retry {
				return resp, err
			}

			c.logWarn("Access token rejected by server", map[string]interface{}{
				"action":    string(req.Action),
				"remaining": remaining,
			})
		}

		if remaining < 0 {
			return nil, fmt.Errorf("%w: retry budget %d", uniweb.ErrRetryExhausted, maxRetries)
		}

		token, err = c.tokenManager.Renew(ctx)
		if err != nil {
			return nil, err
		}

		c.logInfo("Access token renewed", map[string]interface{}{
			"action":    string(req.Action),
			"remaining": remaining,
		})

		ok = true
		remaining--
	}
}

// submit posts the request once. retry reports an invalid_token reply.
func (c *Client) submit(ctx context.Context, token string, fields url.Values, files []http.FilePart) (*uniweb.Response, bool, error) {
	endpoint := c.instanceURL + constants.ResourceEndpoint + "?" +
		url.Values{constants.AccessTokenParam: {token}}.Encode()

	resp, err := c.httpClient.Post(ctx, endpoint, fields, files...)
	if err != nil {
		return nil, false, fmt.Errorf("%w: sending request: %w", uniweb.ErrProtocol, err)
	}

	return classify(resp.Body)
}

// classify decodes a resource reply into a response, a remote error or an
// invalid token signal.
func classify(body []byte) (*uniweb.Response, bool, error) {
	trimmed := bytes.TrimSpace(body)

	var value interface{}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	err := decoder.Decode(&value)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", uniweb.ErrProtocol, err)
	}

	_, err = decoder.Token()
	if !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("%w: trailing data after reply", uniweb.ErrProtocol)
	}

	if value == nil {
		return nil, false, fmt.Errorf("%w: empty reply", uniweb.ErrProtocol)
	}

	if object, isObject := value.(map[string]interface{}); isObject {
		if remoteErr, present := object[constants.ErrorField]; present && remoteErr != nil {
			if code, isString := remoteErr.(string); isString && code == uniweb.InvalidTokenCode {
				return nil, true, nil
			}

			return nil, false, &uniweb.RemoteError{Message: errorMessage(remoteErr)}
		}
	}

	return &uniweb.Response{Raw: json.RawMessage(trimmed)}, false, nil
}

func errorMessage(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		for _, key := range []string{"message", "error_description", "error"} {
			if text, ok := v[key].(string); ok && text != "" {
				return text
			}
		}
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}

	return string(encoded)
}

func (c *Client) logInfo(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, fields)
	}
}

func (c *Client) logWarn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

// Authenticate returns the held token, acquiring one first if it is absent
// or expired.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	token, ok := c.tokenManager.Token()
	if ok {
		return token, nil
	}

	return c.tokenManager.Renew(ctx)
}
