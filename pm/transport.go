package pm

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"
)

type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
	// Mock names the fixture returned when the client runs in mock mode.
	Mock string
}

func (r *Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (r *Request) target() string {
	if len(r.Query) == 0 {
		return r.Path
	}
	sep := "?"
	if strings.Contains(r.Path, "?") {
		sep = "&"
	}
	return r.Path + sep + r.Query.Encode()
}

// Transport carries one serialized request to Portfolio Manager and returns the raw body.
type Transport interface {
	Do(ctx context.Context, req *Request, body []byte) ([]byte, error)
}

type HTTPTransport struct {
	client   *http.Client
	baseURL  string
	username string
	password string
}

func NewHTTPTransport(baseURL, username, password string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
	}
}

func (t *HTTPTransport) Do(ctx context.Context, req *Request, body []byte) ([]byte, error) {
	target := req.target()
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = t.baseURL + target
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method(), target, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.SetBasicAuth(t.username, t.password)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/xml")
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if pmErr := responseError(resp.StatusCode, data); pmErr != nil {
		return nil, pmErr
	}
	return data, nil
}

//go:embed fixtures/*.xml
var fixtureFS embed.FS

// MockTransport answers requests with canned documents keyed by Request.Mock.
type MockTransport struct {
	mu       sync.Mutex
	fixtures map[string][]byte
	calls    []string
}

// NewMockTransport returns a transport preloaded with the embedded fixtures,
// each keyed by its file name without extension.
func NewMockTransport() *MockTransport {
	m := &MockTransport{fixtures: make(map[string][]byte)}
	entries, _ := fixtureFS.ReadDir("fixtures")
	for _, entry := range entries {
		data, err := fixtureFS.ReadFile("fixtures/" + entry.Name())
		if err != nil {
			continue
		}
		m.fixtures[strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))] = data
	}
	return m
}

func (m *MockTransport) Register(key, document string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtures[key] = []byte(document)
}

func (m *MockTransport) Do(_ context.Context, req *Request, _ []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req.Mock)
	data, ok := m.fixtures[req.Mock]
	if !ok {
		return nil, fmt.Errorf("pm: no mock fixture %q for %s %s", req.Mock, req.method(), req.Path)
	}
	if pmErr := responseError(0, data); pmErr != nil {
		return nil, pmErr
	}
	return data, nil
}

// Calls lists the fixture keys requested so far.
func (m *MockTransport) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
