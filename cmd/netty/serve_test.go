package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/netty/pkg/cliconfig"
	"github.com/getmockd/netty/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebConfig = `<?xml version="1.0" encoding="utf-8"?>
<configuration>
  <appSettings>
    <add key="Mode" value="production" />
  </appSettings>
</configuration>
`

func TestServe_ServesUntilCancelled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>hi</h1>"), 0o644))
	configPath := filepath.Join(root, "web.config")
	require.NoError(t, os.WriteFile(configPath, []byte(testWebConfig), 0o644))

	cfg := cliconfig.NewDefault()
	cfg.Path = root
	cfg.VirtualPath = "/app"
	cfg.Settings = map[string]string{"Mode": "test"}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan *server.Server, 1)
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- serve(ctx, cfg, &out, io.Discard, func(s *server.Server) { ready <- s })
	}()

	var srv *server.Server
	select {
	case srv = <-ready:
	case err := <-done:
		t.Fatalf("serve returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	altered, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(altered), `value="test"`)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>hi</h1>", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}

	assert.Contains(t, out.String(), "Serving "+root)
	assert.Contains(t, out.String(), "Shutting down")

	restored, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, testWebConfig, string(restored))
}

func TestServe_ExposesMetrics(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	cfg := cliconfig.NewDefault()
	cfg.Path = root
	cfg.MetricsAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan *server.Server, 1)
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- serve(ctx, cfg, &out, io.Discard, func(s *server.Server) { ready <- s })
	}()

	var srv *server.Server
	select {
	case srv = <-ready:
	case err := <-done:
		t.Fatalf("serve returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	m := regexp.MustCompile(`Metrics at (http://\S+/metrics)`).FindStringSubmatch(out.String())
	require.Len(t, m, 2, out.String())

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL() + "a.txt")
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool {
		resp, err := client.Get(m[1])
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return bytes.Contains(body, []byte(`netty_http_requests_total{method="GET",status="200"} 1`))
	}, 5*time.Second, 50*time.Millisecond)

	resp, err = client.Get(strings.TrimSuffix(m[1], "/metrics") + "/healthz")
	require.NoError(t, err)
	health, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(health))

	cancel()
	require.NoError(t, <-done)
}

func TestServe_MissingPath(t *testing.T) {
	cfg := cliconfig.NewDefault()
	cfg.Path = filepath.Join(t.TempDir(), "missing")

	err := serve(context.Background(), cfg, io.Discard, io.Discard, nil)
	require.ErrorIs(t, err, server.ErrPhysicalPathNotFound)
}

func TestServe_UnparsableConfigIsLeftAlone(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "web.config")
	require.NoError(t, os.WriteFile(configPath, []byte("<<not xml"), 0o644))

	cfg := cliconfig.NewDefault()
	cfg.Path = root
	cfg.Settings = map[string]string{"Mode": "test"}

	err := serve(context.Background(), cfg, io.Discard, io.Discard, nil)
	require.Error(t, err)

	data, readErr := os.ReadFile(configPath)
	require.NoError(t, readErr)
	assert.Equal(t, "<<not xml", string(data))
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", in: nil, want: nil},
		{name: "pairs", in: []string{"A=1", " B =two=2"}, want: map[string]string{"A": "1", "B": "two=2"}},
		{name: "empty value", in: []string{"A="}, want: map[string]string{"A": ""}},
		{name: "missing equals", in: []string{"A"}, wantErr: true},
		{name: "missing key", in: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSettings(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
