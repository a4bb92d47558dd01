package uniweb

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// DefaultRetryBudget bounds the number of token renewals performed for one
// request after the first one.
const DefaultRetryBudget = 10

// ResourceClient reads and writes the sections of profiles and CVs.
type ResourceClient interface {
	Read(ctx context.Context, request *ReadRequest) (*Response, error)
	Add(ctx context.Context, request *WriteRequest) (*Response, error)
	Edit(ctx context.Context, request *WriteRequest) (*Response, error)
	Clear(ctx context.Context, request *WriteRequest) (*Response, error)
	UpdatePicture(ctx context.Context, request *WriteRequest) (*Response, error)
	AddFileAttachment(request *WriteRequest, name, path, mimeType string) error
}

// SchemaClient describes sections and fields and resolves drop-down values.
type SchemaClient interface {
	GetInfo(ctx context.Context, resources ...string) (*Response, error)
	GetOptions(ctx context.Context, resources ...string) (*Response, error)
	FindOptionID(options Options, path ...string) (json.RawMessage, bool)
}

// DirectoryClient lists the institutional data of the instance.
type DirectoryClient interface {
	GetTitles(ctx context.Context) (*Response, error)
	GetUnits(ctx context.Context) (*Response, error)
	GetRoles(ctx context.Context) (*Response, error)
	GetPermissions(ctx context.Context) (*Response, error)
	GetRolesPermissions(ctx context.Context) (*Response, error)
	GetMembers(ctx context.Context) (*Response, error)
	QueryUnits(ctx context.Context, query *UnitQuery) ([]Unit, error)
	QueryUnitProfiles(ctx context.Context, unitType, language string) (map[string]Unit, error)
}

// Client is a Uniweb API client. A client holds one access token and is
// not safe for concurrent use; callers sharing it must serialize requests.
type Client interface {
	ResourceClient
	SchemaClient
	DirectoryClient

	// InstanceURL returns the normalized homepage of the instance.
	InstanceURL() string

	// SendRequest submits a request description, renewing the access token
	// at most maxRetries+1 times.
	SendRequest(ctx context.Context, request *Request, maxRetries int) (*Response, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a Client.
type Config struct {
	// Credentials identify the API client. All three values are required.
	Credentials Credentials

	// RetryBudget bounds token renewals per request. If 0, DefaultRetryBudget
	// is used. Negative values are rejected with ErrConfig; pass a negative
	// budget to SendRequest to forbid renewals for a single request.
	RetryBudget int

	// HTTPTimeout bounds each HTTP exchange. If 0, a default is used. It is
	// ignored when HTTPClient is set.
	HTTPTimeout time.Duration
	// HTTPClient replaces the net/http client used by the transport.
	HTTPClient *http.Client
	// TransportRetryMax enables retries of connection errors and 5xx replies
	// in the transport. The default 0 sends every request exactly once.
	TransportRetryMax int
	// TransportRetryWaitMin: minimum backoff between transport retries.
	TransportRetryWaitMin time.Duration
	// TransportRetryWaitMax: maximum backoff between transport retries.
	TransportRetryWaitMax time.Duration

	// Debug enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// UnitQuery selects the units returned by QueryUnits.
type UnitQuery struct {
	// Language localizes the reply ("en" or "fr"). Defaults to "en".
	Language string
	Filter   Filter
	// SortBy orders the units by one of their properties, e.g. "memberCount".
	SortBy string
}

// Unit is the record of an institutional unit.
type Unit map[string]interface{}
