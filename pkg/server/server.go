package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/netty/pkg/isolation"
	"github.com/getmockd/netty/pkg/logging"
	"github.com/getmockd/netty/pkg/metrics"
	"github.com/getmockd/netty/pkg/overlay"
	"github.com/getmockd/netty/pkg/ports"
	"github.com/getmockd/netty/pkg/requestlog"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultConfigFileName is the configuration file looked up in the physical
// path.
const DefaultConfigFileName = "web.config"

// AppSettingLocatorFormat locates an application setting by key.
const AppSettingLocatorFormat = "/configuration/appSettings/add[@key='%s']"

const appSettingAttribute = "value"

// DefaultStopTimeout bounds how long Stop waits for an in-flight request.
const DefaultStopTimeout = 5 * time.Second

// Construction errors.
var (
	ErrVirtualPathRequired  = errors.New("server: virtual path is required")
	ErrPortOutOfRange       = fmt.Errorf("server: port must be within [%d, %d]", ports.MinPort, ports.MaxPort)
	ErrPortInUse            = errors.New("server: port is already in use")
	ErrPhysicalPathNotFound = fmt.Errorf("server: physical path not found: %w", fs.ErrNotExist)
)

// State is the lifecycle state of a Server.
type State int

// Server states.
const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Server hosts one web application.
type Server struct {
	physicalPath string
	virtualPath  string
	port         int
	log          *slog.Logger
	initializer  isolation.Initializer
	requests     requestlog.Store
	registry     *prometheus.Registry
	metrics      *metrics.HostMetrics
	config       *overlay.Overlay
	stopTimeout  time.Duration

	mu     sync.Mutex
	state  State
	domain *isolation.Domain
	host   *isolation.Host
	cancel context.CancelFunc
	done   chan struct{}

	// running is cleared by Stop or a fatal serving error and ends the loop.
	running atomic.Bool

	errMu    sync.Mutex
	alterErr error
	serveErr error
}

// New validates the arguments and snapshots the configuration file. It does
// not bind the port.
func New(physicalPath, virtualPath string, opts ...Option) (*Server, error) {
	if strings.TrimSpace(virtualPath) == "" {
		return nil, ErrVirtualPathRequired
	}

	o := options{configFileName: DefaultConfigFileName, stopTimeout: DefaultStopTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	port := o.port
	if port != 0 {
		if port < ports.MinPort || port > ports.MaxPort {
			return nil, fmt.Errorf("%w: %d", ErrPortOutOfRange, port)
		}
		if ports.IsPortInUse(port) {
			return nil, fmt.Errorf("%w: %d", ErrPortInUse, port)
		}
	} else {
		p, err := ports.FindOpenPort()
		if err != nil {
			return nil, fmt.Errorf("server: allocating port: %w", err)
		}
		port = p
	}

	abs, err := filepath.Abs(physicalPath)
	if err != nil {
		return nil, fmt.Errorf("server: resolving physical path: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrPhysicalPathNotFound, abs)
	}

	cfg, err := overlay.Load(filepath.Join(abs, o.configFileName))
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	initializer := o.initializer
	if initializer == nil {
		initializer = isolation.PipelineInitializer{Pipeline: o.pipeline, Options: o.workerOptions}
	}
	requests := o.requests
	if requests == nil {
		requests = requestlog.NewMemoryStore(requestlog.DefaultCapacity)
	}
	registry := o.metrics
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	hostMetrics, err := metrics.NewHostMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	return &Server{
		physicalPath: abs,
		virtualPath:  NormalizeVirtualPath(virtualPath),
		port:         port,
		log:          logging.OrNop(o.logger),
		initializer:  initializer,
		requests:     requests,
		registry:     registry,
		metrics:      hostMetrics,
		config:       cfg,
		stopTimeout:  o.stopTimeout,
	}, nil
}

// NormalizeVirtualPath makes p begin and end with '/'.
func NormalizeVirtualPath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

type started struct {
	host *isolation.Host
	err  error
}

// Start creates a new isolation domain and begins serving in the background.
// It returns once the port is bound or startup failed. Calling Start on a
// running server does nothing. A configuration alteration that failed earlier
// is returned here and the server is not started.
func (s *Server) Start() error {
	s.errMu.Lock()
	alterErr := s.alterErr
	s.errMu.Unlock()
	if alterErr != nil {
		return alterErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return nil
	}

	domain := isolation.NewDomain(s.virtualPath, s.physicalPath, s.log)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan started, 1)
	done := make(chan struct{})

	s.errMu.Lock()
	s.serveErr = nil
	s.errMu.Unlock()
	s.running.Store(true)
	go s.serve(ctx, domain, ready, done)

	res := <-ready
	if res.err != nil {
		s.running.Store(false)
		cancel()
		<-done
		_ = domain.Unload()
		return res.err
	}

	s.domain, s.host = domain, res.host
	s.cancel, s.done = cancel, done
	s.state = StateRunning
	domain.Logger().Info("server started",
		"port", s.port,
		"virtual_path", s.virtualPath,
		"physical_path", s.physicalPath)
	return nil
}

func (s *Server) serve(ctx context.Context, d *isolation.Domain, ready chan<- started, done chan<- struct{}) {
	defer close(done)

	host, err := isolation.NewHost(d,
		isolation.WithRequestLog(s.requests),
		isolation.WithMetrics(s.metrics))
	if err == nil {
		err = host.ApplyConfiguration(isolation.Configuration{
			PhysicalPath: s.physicalPath,
			VirtualPath:  s.virtualPath,
			Port:         s.port,
			Initializer:  s.initializer,
		})
	}
	if err == nil {
		err = host.StartListening()
	}
	if err != nil {
		ready <- started{err: fmt.Errorf("server: starting: %w", err)}
		return
	}
	ready <- started{host: host}

	for s.running.Load() && host.State() == isolation.StateListening {
		if err := host.ProcessOnce(ctx); err != nil {
			d.Logger().Error("request processing failed, server stopping", "error", err)
			s.errMu.Lock()
			s.serveErr = err
			s.errMu.Unlock()
			s.running.Store(false)
			_ = host.StopListening()
			return
		}
	}
}

// Stop stops serving, unloads the isolation domain and restores the
// configuration file if it was altered. It is safe to call before Start and
// more than once.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.state == StateRunning {
		s.running.Store(false)
		if err := s.host.StopListening(); err != nil {
			s.log.Debug("stopping listener", "error", err)
		}
		s.cancel()
		s.awaitServing()

		if err := s.domain.Unload(); err != nil {
			errs = append(errs, fmt.Errorf("server: unloading domain: %w", err))
		}
		s.domain.Logger().Info("server stopped", "port", s.port)
		s.host, s.cancel, s.done = nil, nil, nil
		s.state = StateStopped
	}

	if err := s.config.Restore(); err != nil {
		errs = append(errs, fmt.Errorf("server: restoring configuration: %w", err))
	}
	return errors.Join(errs...)
}

// awaitServing waits for the serving goroutine to exit. A request that
// outlives stopTimeout is abandoned along with its goroutine.
func (s *Server) awaitServing() {
	if s.stopTimeout <= 0 {
		<-s.done
		return
	}
	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
		s.domain.Logger().Warn("request did not finish, abandoning it", "timeout", s.stopTimeout)
	}
}

// AlterApplicationSetting sets the value of the application setting key in
// the configuration file. Failures are kept and returned by Start and Err.
func (s *Server) AlterApplicationSetting(key, value string) *Server {
	return s.AlterConfigurationNodeAttribute(fmt.Sprintf(AppSettingLocatorFormat, key), appSettingAttribute, value)
}

// AlterConfigurationNodeAttribute sets attribute on the first element matching
// locator, if both exist.
func (s *Server) AlterConfigurationNodeAttribute(locator, attribute, value string) *Server {
	return s.alter(func() error { return s.config.SetAttribute(locator, attribute, value) })
}

// AlterConfigurationNodeValue replaces the text of the first element matching
// locator.
func (s *Server) AlterConfigurationNodeValue(locator, value string) *Server {
	return s.alter(func() error { return s.config.SetText(locator, value) })
}

func (s *Server) alter(fn func() error) *Server {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.alterErr != nil {
		return s
	}
	if err := fn(); err != nil {
		s.alterErr = fmt.Errorf("server: altering configuration: %w", err)
	}
	return s
}

// Err returns the first configuration alteration error, or else the error
// that ended serving.
func (s *Server) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.alterErr != nil {
		return s.alterErr
	}
	return s.serveErr
}

// IsRunning reports whether the server is serving requests.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning && s.running.Load()
}

// State returns the lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Port returns the TCP port.
func (s *Server) Port() int { return s.port }

// VirtualPath returns the normalized virtual path.
func (s *Server) VirtualPath() string { return s.virtualPath }

// PhysicalPath returns the absolute physical path.
func (s *Server) PhysicalPath() string { return s.physicalPath }

// ConfigPath returns the path of the configuration file.
func (s *Server) ConfigPath() string { return s.config.Path() }

// URL returns the loopback URL of the application root.
func (s *Server) URL() string {
	return "http://localhost:" + strconv.Itoa(s.port) + s.virtualPath
}

// DomainID returns the identifier of the current isolation domain, or "" when
// not running.
func (s *Server) DomainID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.domain == nil || s.state != StateRunning {
		return ""
	}
	return s.domain.ID()
}

// Requests returns the request history.
func (s *Server) Requests() requestlog.Store { return s.requests }

// Metrics returns the registry holding the server's request metrics.
func (s *Server) Metrics() *prometheus.Registry { return s.registry }
