package uniweb

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Conventional credential file locations, relative to a root directory.
const (
	CredentialsPath    = "settings/credentials.json"
	AltCredentialsPath = "settings/credentials/credentials.json"
)

// Credentials identify an API client on a Uniweb instance.
type Credentials struct {
	// Homepage is the instance homepage. A bare host, host and path, or a
	// full URL are accepted; see InstanceURL.
	Homepage     string `json:"homepage"     yaml:"homepage"`
	ClientName   string `json:"clientName"   yaml:"clientName"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
}

// Validate ensures that all mandatory credential properties are set and
// that the homepage parses to a host.
func (c *Credentials) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: invalid credentials", ErrConfig)
	}

	if strings.TrimSpace(c.ClientName) == "" {
		return ErrEmptyClientName
	}

	if strings.TrimSpace(c.ClientSecret) == "" {
		return ErrEmptyClientSecret
	}

	_, err := c.InstanceURL()

	return err
}

// InstanceURL returns the normalized base URL of the instance.
//
// The scheme is forced to https, except for localhost and 127.0.0.1 where
// the declared scheme (default http) is kept. The path is kept and always
// ends with a single '/'.
func (c *Credentials) InstanceURL() (string, error) {
	return NormalizeHomepage(c.Homepage)
}

// NormalizeHomepage normalizes a homepage into the base URL used to address
// the API endpoints.
func NormalizeHomepage(homepage string) (string, error) {
	raw := strings.TrimSpace(homepage)
	if raw == "" {
		return "", ErrEmptyHomepage
	}

	// Without a scheme the host would be taken as a path (or a scheme, for
	// "host:port"), so parse it as a network-path reference instead.
	if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "//") {
		raw = "//" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidHomepage, homepage, err)
	}

	if parsed.Hostname() == "" {
		return "", fmt.Errorf("%w %q", ErrInvalidHomepage, homepage)
	}

	scheme := "https"

	if host := parsed.Hostname(); host == "localhost" || host == "127.0.0.1" {
		scheme = "http"
		if parsed.Scheme != "" {
			scheme = strings.ToLower(parsed.Scheme)
		}
	}

	path := strings.Trim(parsed.Path, "/")
	if path != "" {
		path += "/"
	}

	return scheme + "://" + parsed.Host + "/" + path, nil
}

// LoadCredentials reads credentials from a JSON file with the properties
// homepage, clientName and clientSecret. An empty path searches the
// conventional locations beneath the working directory.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		found, err := FindCredentialsFile(".")
		if err != nil {
			return nil, err
		}

		path = found
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w '%s'", ErrCredentialsMissing, path)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	err = v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: reading credentials file '%s': %w", ErrConfig, path, err)
	}

	return &Credentials{
		Homepage:     strings.TrimSpace(v.GetString("homepage")),
		ClientName:   strings.TrimSpace(v.GetString("clientName")),
		ClientSecret: strings.TrimSpace(v.GetString("clientSecret")),
	}, nil
}

// FindCredentialsFile returns the first conventional credentials file that
// exists beneath rootDir. Locations resolving outside of rootDir are ignored.
func FindCredentialsFile(rootDir string) (string, error) {
	for _, rel := range []string{CredentialsPath, AltCredentialsPath} {
		path, ok := subPath(rootDir, rel)
		if ok {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w in '%s' (tried %s, %s)", ErrCredentialsMissing, rootDir, CredentialsPath, AltCredentialsPath)
}

// subPath resolves rel beneath rootDir, following symlinks, and reports
// whether the result exists and stays inside rootDir.
func subPath(rootDir, rel string) (string, bool) {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return "", false
	}

	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return "", false
	}

	path, err := filepath.EvalSymlinks(filepath.Join(root, rel))
	if err != nil {
		return "", false
	}

	relToRoot, err := filepath.Rel(root, path)
	if err != nil || relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
		return "", false
	}

	return path, true
}
