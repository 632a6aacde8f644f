// package testing contains shared testing utilities
package testing

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"spotd/internal/api"
)

// StaticIssuer issues a fixed test token that expires one hour after issue.
type StaticIssuer struct{}

func (StaticIssuer) IssueToken(ctx context.Context, clientID string, scopes []string) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: "test-token", Expiry: time.Now().Add(time.Hour)}, nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	Response *http.Response
	Err      error
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.Response, m.Err
}

// RouteTripper routes requests by method and URL path to canned JSON bodies,
// recording every request it serves.
type RouteTripper struct {
	mu       sync.Mutex
	routes   map[string]string
	Requests []RecordedRequest
}

// RecordedRequest captures one request served by a RouteTripper.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
}

func NewRouteTripper() *RouteTripper {
	return &RouteTripper{routes: make(map[string]string)}
}

// Handle registers a JSON body for "METHOD /path" requests.
func (rt *RouteTripper) Handle(method, path, body string) {
	rt.routes[method+" "+path] = body
}

func (rt *RouteTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
	}

	rt.mu.Lock()
	rt.Requests = append(rt.Requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   body,
	})
	resp, ok := rt.routes[r.Method+" "+r.URL.Path]
	rt.mu.Unlock()

	if !ok {
		resp = "{}"
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(resp)),
		Request:    r,
	}, nil
}

// Recorded returns the recorded requests whose method and path equal the
// given ones exactly.
func (rt *RouteTripper) Recorded(method, path string) []RecordedRequest {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	var matched []RecordedRequest
	for _, req := range rt.Requests {
		if req.Method == method && req.Path == path {
			matched = append(matched, req)
		}
	}
	return matched
}

// FakeSession is a test double for [api.Session].
type FakeSession struct {
	StaticIssuer
	Invalid       bool
	Reestablished int
	Device        string
	MercuryFunc   func(url string) (*api.MercuryResponse, error)
}

func (s *FakeSession) Valid() bool { return !s.Invalid }

func (s *FakeSession) Reestablish(ctx context.Context) error {
	s.Reestablished++
	s.Invalid = false
	return nil
}

func (s *FakeSession) DeviceID() string { return s.Device }

func (s *FakeSession) MercuryGet(ctx context.Context, url string) (*api.MercuryResponse, error) {
	if s.MercuryFunc != nil {
		return s.MercuryFunc(url)
	}
	return &api.MercuryResponse{StatusCode: 404}, nil
}
