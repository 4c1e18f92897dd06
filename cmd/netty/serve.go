package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/getmockd/netty/pkg/cliconfig"
	"github.com/getmockd/netty/pkg/logging"
	"github.com/getmockd/netty/pkg/metrics"
	"github.com/getmockd/netty/pkg/requestlog"
	"github.com/getmockd/netty/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
)

// healthInterval is how often the main loop checks that the server is still
// serving.
const healthInterval = 250 * time.Millisecond

const shutdownTimeout = 5 * time.Second

var serveFlags runnerFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Host an application directory until interrupted",
	Example: `  # Serve the current directory at http://localhost:<port>/
  netty serve

  # Serve ./site under /app/ on port 8080 with a setting overridden
  netty serve --path ./site --vpath /app --port 8080 --set Mode=test`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serveFlags.resolve(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), nil)
	},
}

func init() {
	serveFlags.register(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

// serve runs one server from cfg until ctx is done or the server stops on its
// own. ready, when set, is called once the server is listening.
func serve(ctx context.Context, cfg *cliconfig.CLIConfig, out, logOut io.Writer, ready func(*server.Server)) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: logging.ParseFormat(cfg.LogFormat),
		Output: logOut,
	})

	opts := []server.Option{
		server.WithLogger(log),
		server.WithRequestLog(requestlog.NewMemoryStore(cfg.MaxLogEntries)),
	}
	if cfg.Port != 0 {
		opts = append(opts, server.WithPort(cfg.Port))
	}
	if cfg.ConfigFileName != "" {
		opts = append(opts, server.WithConfigFileName(cfg.ConfigFileName))
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, server.WithMetrics(metrics.NewProcessRegistry()))
	}

	srv, err := server.New(cfg.Path, cfg.VirtualPath, opts...)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(cfg.Settings))
	for k := range cfg.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		srv.AlterApplicationSetting(k, cfg.Settings[k])
	}

	if err := srv.Start(); err != nil {
		if stopErr := srv.Stop(); stopErr != nil {
			log.Warn("restoring configuration failed", "error", stopErr)
		}
		return err
	}

	fmt.Fprintf(out, "Serving %s at %s\n", srv.PhysicalPath(), srv.URL())
	if cfg.MetricsAddr != "" {
		addr, stopMetrics, err := serveMetrics(cfg.MetricsAddr, srv, log)
		if err != nil {
			_ = srv.Stop()
			return err
		}
		defer stopMetrics()
		fmt.Fprintf(out, "Metrics at http://%s/metrics\n", addr)
	}
	if ready != nil {
		ready(srv)
	}

	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

wait:
	for {
		select {
		case <-ctx.Done():
			break wait
		case <-ticker.C:
			if !srv.IsRunning() {
				break wait
			}
		}
	}

	fmt.Fprintln(out, "Shutting down...")
	serveErr := srv.Err()
	if err := srv.Stop(); err != nil {
		return err
	}
	if serveErr != nil {
		return fmt.Errorf("server stopped: %w", serveErr)
	}
	log.Info("served requests", "count", srv.Requests().Count())
	return nil
}

// serveMetrics exposes reg at /metrics and a liveness check at /healthz on
// addr until the returned stop function is called.
func serveMetrics(addr string, srv *server.Server, log *slog.Logger) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}

	hs := &http.Server{Handler: observabilityRouter(srv), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := hs.Shutdown(ctx); err != nil {
			log.Warn("metrics server shutdown", "error", err)
		}
	}
	return ln.Addr(), stop, nil
}

func observabilityRouter(srv *server.Server) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler(srv.Metrics()))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !srv.IsRunning() {
			http.Error(w, "stopped", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "ok")
	})
	return r
}
