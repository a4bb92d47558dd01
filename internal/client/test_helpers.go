package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/uniweb/internal/auth"
	internalhttp "github.com/fivetwenty-io/uniweb/internal/http"
	"github.com/fivetwenty-io/uniweb/pkg/uniweb"
)

// Test credentials accepted by FakeServer.
const (
	TestClientName   = "test-client"
	TestClientSecret = "test-secret"
)

// TestClock is a settable clock for token expiry tests.
type TestClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewTestClock creates a clock set to a fixed instant.
func NewTestClock() *TestClock {
	return &TestClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the current test time.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// Advance moves the clock forward.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// ReceivedRequest is a resource call recorded by FakeServer.
type ReceivedRequest struct {
	Token       string
	Description map[string]interface{}
	// Body is the request field exactly as sent.
	Body  string
	Files map[string]string
}

// FakeServer is an in-memory Uniweb instance. It issues tokens on the token
// endpoint and, on the resource endpoint, applies edits to a record store
// with field level merges and serves reads from it.
type FakeServer struct {
	*httptest.Server

	t  *testing.T
	mu sync.Mutex

	// ExpiresIn is the lifetime of issued tokens, in seconds.
	ExpiresIn int
	// RejectTokens makes the resource endpoint answer invalid_token forever.
	RejectTokens bool
	// TokenReply overrides the token endpoint reply when set.
	TokenReply string
	// Replies holds canned replies by action, used for actions the store
	// does not handle.
	Replies map[string]string

	tokenCalls    int
	resourceCalls int
	issued        map[string]bool
	requests      []ReceivedRequest
	store         map[string]map[string]map[string]interface{}
}

// NewFakeServer starts a fake instance, closed when the test ends.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()

	server := &FakeServer{
		t:         t,
		ExpiresIn: 3600,
		Replies:   make(map[string]string),
		issued:    make(map[string]bool),
		store:     make(map[string]map[string]map[string]interface{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/token.php", server.handleToken)
	mux.HandleFunc("/api/resource.php", server.handleResource)

	server.Server = httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

// Credentials returns credentials pointing at the fake instance.
func (s *FakeServer) Credentials() uniweb.Credentials {
	return uniweb.Credentials{
		Homepage:     s.URL,
		ClientName:   TestClientName,
		ClientSecret: TestClientSecret,
	}
}

// TokenCalls returns the number of token requests received.
func (s *FakeServer) TokenCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokenCalls
}

// ResourceCalls returns the number of resource requests received.
func (s *FakeServer) ResourceCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resourceCalls
}

// Requests returns the resource requests received so far.
func (s *FakeServer) Requests() []ReceivedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ReceivedRequest(nil), s.requests...)
}

// RevokeTokens invalidates every issued token on the server side.
func (s *FakeServer) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued = make(map[string]bool)
}

// Seed stores field values for a subject.
func (s *FakeServer) Seed(id, resource string, fields map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(id, resource)
	for key, value := range fields {
		s.store[id][resource][key] = value
	}
}

func (s *FakeServer) handleToken(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokenCalls++

	assert.Equal(s.t, http.MethodPost, request.Method)
	assert.NoError(s.t, request.ParseForm())

	if s.TokenReply != "" {
		_, _ = writer.Write([]byte(s.TokenReply))

		return
	}

	if request.PostForm.Get("grant_type") != "password" ||
		request.PostForm.Get("username") != TestClientName ||
		request.PostForm.Get("password") != TestClientSecret {
		_, _ = writer.Write([]byte(`{"error":"invalid_client"}`))

		return
	}

	token := fmt.Sprintf("token-%d", s.tokenCalls)
	s.issued[token] = true

	writeJSON(s.t, writer, map[string]interface{}{
		"access_token": token,
		"expires_in":   s.ExpiresIn,
		"token_type":   "Bearer",
	})
}

func (s *FakeServer) handleResource(writer http.ResponseWriter, request *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resourceCalls++

	assert.Equal(s.t, http.MethodPost, request.Method)

	var err error
	if strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data") {
		err = request.ParseMultipartForm(1 << 20)
	} else {
		err = request.ParseForm()
	}

	require.NoError(s.t, err)

	token := request.URL.Query().Get("access_token")

	var description map[string]interface{}

	require.NoError(s.t, json.Unmarshal([]byte(request.FormValue("request")), &description))

	received := ReceivedRequest{
		Token:       token,
		Description: description,
		Body:        request.FormValue("request"),
		Files:       map[string]string{},
	}

	if request.MultipartForm != nil {
		for name, headers := range request.MultipartForm.File {
			received.Files[name] = headers[0].Header.Get("Content-Type")
		}
	}

	s.requests = append(s.requests, received)

	if s.RejectTokens || !s.issued[token] {
		_, _ = writer.Write([]byte(`{"error":"invalid_token"}`))

		return
	}

	action, _ := description["action"].(string)
	id, _ := description["id"].(string)

	if reply, ok := s.Replies[action]; ok {
		_, _ = writer.Write([]byte(reply))

		return
	}

	switch action {
	case "edit", "updatePicture":
		resources, _ := description["resources"].(map[string]interface{})
		for resource, fields := range resources {
			values, _ := fields.(map[string]interface{})
			s.merge(id, resource, values)
		}

		_, _ = writer.Write([]byte(`true`))
	case "read":
		writeJSON(s.t, writer, s.read(id, description["resources"]))
	default:
		_, _ = writer.Write([]byte(`true`))
	}
}

func (s *FakeServer) record(id, resource string) map[string]interface{} {
	if s.store[id] == nil {
		s.store[id] = make(map[string]map[string]interface{})
	}

	if s.store[id][resource] == nil {
		s.store[id][resource] = make(map[string]interface{})
	}

	return s.store[id][resource]
}

// merge applies edited values. Languages of a bilingual value that are not
// sent keep their stored text.
func (s *FakeServer) merge(id, resource string, values map[string]interface{}) {
	stored := s.record(id, resource)

	for field, value := range values {
		incoming, isBilingual := value.(map[string]interface{})
		if !isBilingual {
			stored[field] = value

			continue
		}

		current, _ := stored[field].(map[string]interface{})
		if current == nil {
			current = make(map[string]interface{})
		}

		for language, text := range incoming {
			current[language] = text
		}

		stored[field] = current
	}
}

func (s *FakeServer) read(id string, resources interface{}) map[string]interface{} {
	reply := make(map[string]interface{})

	paths, _ := resources.([]interface{})
	for _, path := range paths {
		resource, _ := path.(string)
		reply[resource] = s.record(id, resource)
	}

	return reply
}

func writeJSON(t *testing.T, writer http.ResponseWriter, value interface{}) {
	t.Helper()

	writer.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(writer).Encode(value))
}

// NewTestClient creates a client of server whose token expiry follows clock.
func NewTestClient(t *testing.T, server *FakeServer, clock *TestClock, retryBudget int) (*Client, *auth.PasswordTokenManager) {
	t.Helper()

	config := &uniweb.Config{
		Credentials: server.Credentials(),
		RetryBudget: retryBudget,
	}

	instanceURL, err := config.Credentials.InstanceURL()
	require.NoError(t, err)

	manager := auth.NewPasswordTokenManager(internalhttp.NewClient(), auth.PasswordConfig{
		TokenURL: instanceURL + "api/token.php",
		Username: TestClientName,
		Password: TestClientSecret,
		Clock:    clock.Now,
	})

	client, err := NewWithTokenManager(config, manager)
	require.NoError(t, err)

	return client, manager
}
