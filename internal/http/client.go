// Package http implements the transport of the Uniweb client: form encoded
// and multipart POST requests, with optional retries of transient failures.
package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fivetwenty-io/uniweb/internal/constants"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Logger interface for HTTP client logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// FilePart is a file sent as one part of a multipart request.
type FilePart struct {
	// FieldName is the multipart field name.
	FieldName string
	Path      string
	MimeType  string
}

// Request represents a POST request to an API endpoint.
type Request struct {
	URL     string
	Fields  url.Values
	Files   []FilePart
	Headers map[string]string
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client is the transport used by the token manager and the dispatch
// engine. It returns the raw body of every reply, whatever its status;
// interpreting it is left to the caller.
type Client struct {
	httpClient *retryablehttp.Client
	logger     Logger
	debug      bool
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each HTTP exchange.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithRetryConfig enables retries of connection errors and 5xx replies.
func WithRetryConfig(maxRetries int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = maxRetries
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithHTTPClient replaces the underlying net/http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a new transport.
func NewClient(opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = constants.DefaultTransportRetryMax
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	// Hand back the last reply instead of a generic error once retries are
	// exhausted; the body carries the server's explanation.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		httpClient: retryClient,
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Post sends fields, and files if any, to endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, fields url.Values, files ...FilePart) (*Response, error) {
	return c.Do(ctx, &Request{URL: endpoint, Fields: fields, Files: files})
}

// Do performs a POST request. Requests without files are form encoded,
// others are sent as multipart/form-data.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	requestID := uuid.NewString()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"request_id": requestID,
			"method":     http.MethodPost,
			"url":        MaskURL(req.URL),
			"files":      len(req.Files),
		})
	}

	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("HTTP Request Failed", map[string]interface{}{
				"request_id": requestID,
				"url":        MaskURL(req.URL),
				"error":      err.Error(),
			})
		}

		return nil, fmt.Errorf("executing request: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"request_id":  requestID,
			"status_code": resp.StatusCode,
			"duration":    time.Since(start).String(),
			"size":        len(respBody),
		})
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if len(req.Files) == 0 {
		return []byte(req.Fields.Encode()), "application/x-www-form-urlencoded", nil
	}

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for key, values := range req.Fields {
		for _, value := range values {
			err := writer.WriteField(key, value)
			if err != nil {
				return nil, "", fmt.Errorf("writing field %s: %w", key, err)
			}
		}
	}

	for _, file := range req.Files {
		err := writeFilePart(writer, file)
		if err != nil {
			return nil, "", err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, file FilePart) error {
	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(file.FieldName), escapeQuotes(filepath.Base(file.Path))))
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating part %s: %w", file.FieldName, err)
	}

	// #nosec G304 -- the path is provided by the caller attaching the file
	src, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("opening attachment %s: %w", file.FieldName, err)
	}

	defer func() { _ = src.Close() }()

	_, err = io.Copy(part, src)
	if err != nil {
		return fmt.Errorf("copying attachment %s: %w", file.FieldName, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// MaskURL hides the access token of a resource URL.
func MaskURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	query := parsed.Query()
	if query.Get(constants.AccessTokenParam) == "" {
		return raw
	}

	query.Set(constants.AccessTokenParam, constants.Masked)
	parsed.RawQuery = query.Encode()

	return parsed.String()
}
