package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/getmockd/netty/pkg/isolation"
	"github.com/getmockd/netty/pkg/pipeline"
	"github.com/getmockd/netty/pkg/requestlog"
	"github.com/getmockd/netty/pkg/worker"
)

type options struct {
	port           int
	logger         *slog.Logger
	initializer    isolation.Initializer
	pipeline       pipeline.Pipeline
	workerOptions  []worker.Option
	configFileName string
	requests       requestlog.Store
	metrics        *prometheus.Registry
	stopTimeout    time.Duration
}

// Option configures a Server.
type Option func(*options)

// WithPort binds the given port instead of allocating one. It must lie within
// [ports.MinPort, ports.MaxPort].
func WithPort(port int) Option {
	return func(o *options) {
		o.port = port
	}
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithInitializer sets the application initializer. It takes precedence over
// WithPipeline.
func WithInitializer(initializer isolation.Initializer) Option {
	return func(o *options) {
		o.initializer = initializer
	}
}

// WithPipeline runs p for every request through the default handler.
// Without it static files are served from the physical path.
func WithPipeline(p pipeline.Pipeline) Option {
	return func(o *options) {
		o.pipeline = p
	}
}

// WithDynamicExtensions overrides the extension markers used to split request
// paths into file path and path info.
func WithDynamicExtensions(exts ...string) Option {
	return func(o *options) {
		o.workerOptions = append(o.workerOptions, worker.WithDynamicExtensions(exts...))
	}
}

// WithConfigFileName names the configuration file inside the physical path.
func WithConfigFileName(name string) Option {
	return func(o *options) {
		o.configFileName = name
	}
}

// WithRequestLog records served requests into store.
func WithRequestLog(store requestlog.Store) Option {
	return func(o *options) {
		o.requests = store
	}
}

// WithMetrics registers the server's request metrics in reg, which must not
// be shared with another server. Without it the server keeps a private
// registry, reachable through Metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.metrics = reg
	}
}

// WithStopTimeout bounds how long Stop waits for the request being served.
// Zero or less waits without limit. Defaults to DefaultStopTimeout.
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) {
		o.stopTimeout = d
	}
}
