package constants

import "time"

// API endpoints, relative to the instance URL.
const (
	// TokenEndpoint issues access tokens for the password grant.
	TokenEndpoint = "api/token.php"

	// ResourceEndpoint serves every read and write action.
	ResourceEndpoint = "api/resource.php"

	// AccessTokenParam carries the access token on resource calls.
	AccessTokenParam = "access_token"

	// RequestField is the form field holding the JSON request description.
	RequestField = "request"
)

// Token grant fields.
const (
	GrantTypePassword = "password"
	GrantTypeField    = "grant_type"
	UsernameField     = "username"
	PasswordField     = "password"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second
)

// Retry limits.
const (
	// DefaultTransportRetryMax disables transport level retries.
	DefaultTransportRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between transport retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between transport retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Client identification.
const (
	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "uniweb-go/1.0"
)

// Reply content.
const (
	// ErrorField is the reply property carrying a server error.
	ErrorField = "error"

	// ExpiresInField is the token reply property holding the lifetime in seconds.
	ExpiresInField = "expires_in"

	// Masked replaces secrets in logs and output.
	Masked = "***"
)

// File and directory permissions.
const (
	// ConfigFilePerm is the permission for credential files written by the CLI.
	ConfigFilePerm = 0600

	// ConfigDirPerm is the permission for directories holding credential files.
	ConfigDirPerm = 0750
)

// Content types and languages.
const (
	// ContentTypeUnits selects institutional units.
	ContentTypeUnits = "units"

	// UnitInformationResource holds the profile of a unit.
	UnitInformationResource = "profile/unit_information"

	// DefaultLanguage is used when a query does not specify one.
	DefaultLanguage = "en"
)
