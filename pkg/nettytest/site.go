package nettytest

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/getmockd/netty/pkg/pipeline"
	"github.com/getmockd/netty/pkg/requestlog"
	"github.com/getmockd/netty/pkg/server"
)

// Site is a test helper owning one hosted application.
type Site struct {
	t           testing.TB
	root        string
	virtualPath string
	opts        []server.Option
	settings    [][2]string
	server      *server.Server
	requests    *requestlog.MemoryStore
}

// New creates a site rooted in a fresh temporary directory and mounted at
// "/". It is stopped automatically when the test completes.
func New(t testing.TB) *Site {
	t.Helper()
	s := &Site{
		t:           t,
		root:        t.TempDir(),
		virtualPath: "/",
		requests:    requestlog.NewMemoryStore(requestlog.DefaultCapacity),
	}
	t.Cleanup(s.Stop)
	return s
}

// Root returns the physical root directory.
func (s *Site) Root() string { return s.root }

// WithVirtualPath mounts the site at vpath.
func (s *Site) WithVirtualPath(vpath string) *Site {
	s.virtualPath = server.NormalizeVirtualPath(vpath)
	return s
}

// WithFile writes content to name, a slash-separated path under the root.
func (s *Site) WithFile(name, content string) *Site {
	s.t.Helper()
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		s.t.Fatalf("writing %s: %v", name, err)
	}
	return s
}

// WithWebConfig writes the application configuration file.
func (s *Site) WithWebConfig(content string) *Site {
	return s.WithFile(server.DefaultConfigFileName, content)
}

// WithSetting alters an application setting once the site starts.
func (s *Site) WithSetting(key, value string) *Site {
	s.settings = append(s.settings, [2]string{key, value})
	return s
}

// WithPipeline replaces the static file pipeline.
func (s *Site) WithPipeline(p pipeline.Pipeline) *Site {
	return s.WithOption(server.WithPipeline(p))
}

// WithHandler runs h as the application pipeline.
func (s *Site) WithHandler(h http.Handler) *Site {
	return s.WithPipeline(pipeline.HTTPHandler{Handler: h})
}

// WithOption passes opt to server.New.
func (s *Site) WithOption(opt server.Option) *Site {
	s.opts = append(s.opts, opt)
	return s
}

// Start creates and starts the server and returns the application URL,
// ending in '/'. Starting twice returns the same URL.
func (s *Site) Start() string {
	s.t.Helper()
	if s.server != nil {
		return s.server.URL()
	}

	opts := append([]server.Option{server.WithRequestLog(s.requests)}, s.opts...)
	srv, err := server.New(s.root, s.virtualPath, opts...)
	if err != nil {
		s.t.Fatalf("creating server: %v", err)
	}
	for _, kv := range s.settings {
		srv.AlterApplicationSetting(kv[0], kv[1])
	}
	if err := srv.Start(); err != nil {
		_ = srv.Stop()
		s.t.Fatalf("starting server: %v", err)
	}
	s.server = srv
	return srv.URL()
}

// Stop stops the server. It is safe to call more than once.
func (s *Site) Stop() {
	if s.server == nil {
		return
	}
	if err := s.server.Stop(); err != nil {
		s.t.Errorf("stopping server: %v", err)
	}
}

// URL returns the application URL, or "" before Start.
func (s *Site) URL() string {
	if s.server == nil {
		return ""
	}
	return s.server.URL()
}

// Server returns the underlying server, or nil before Start.
func (s *Site) Server() *server.Server { return s.server }

// Requests returns the served requests, newest first. Paths are relative to
// the virtual path.
func (s *Site) Requests() []RequestLog {
	entries := s.requests.List(nil)
	result := make([]RequestLog, len(entries))
	for i, e := range entries {
		headers := make(map[string]string, len(e.Headers))
		for k, v := range e.Headers {
			if len(v) > 0 {
				headers[k] = v[0]
			}
		}
		result[i] = RequestLog{
			Method:      e.Method,
			Path:        s.relative(e.Path),
			Headers:     headers,
			QueryString: e.QueryString,
			BodySize:    e.BodySize,
			Status:      e.ResponseStatus,
		}
	}
	return result
}

// Reset clears the request history.
func (s *Site) Reset() {
	s.requests.Clear()
}

func (s *Site) relative(path string) string {
	rel := strings.TrimPrefix(path, strings.TrimSuffix(s.virtualPath, "/"))
	if rel == "" {
		return "/"
	}
	return rel
}

// AssertCalled asserts that an endpoint was called at least once.
func (s *Site) AssertCalled(t testing.TB, method, path string) {
	t.Helper()
	if s.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (s *Site) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()
	if count := s.countCalls(method, path); count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (s *Site) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()
	if count := s.countCalls(method, path); count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

func (s *Site) countCalls(method, path string) int {
	count := 0
	for _, req := range s.Requests() {
		if strings.EqualFold(req.Method, method) && matchesPath(req.Path, path) {
			count++
		}
	}
	return count
}

// matchesPath checks a request path against an expected pattern where
// {name} segments match any value.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}
