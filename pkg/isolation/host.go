package isolation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/netty/pkg/metrics"
	"github.com/getmockd/netty/pkg/processor"
	"github.com/getmockd/netty/pkg/rawhttp"
	"github.com/getmockd/netty/pkg/requestlog"
)

// State is the lifecycle state of a Host.
type State int

// Host states.
const (
	StateUnconfigured State = iota
	StateConfigured
	StateListening
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateListening:
		return "listening"
	case StateStopped:
		return "stopped"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Host errors.
var (
	ErrInvalidConfiguration = errors.New("isolation: invalid configuration")
	ErrNotConfigured        = errors.New("isolation: host not configured")
	ErrAlreadyConfigured    = errors.New("isolation: host already configured")
	ErrNotListening         = errors.New("isolation: host not listening")
	ErrClosed               = errors.New("isolation: host closed")
)

// Configuration describes the application a Host serves.
type Configuration struct {
	PhysicalPath string
	// VirtualPath must begin and end with '/'.
	VirtualPath string
	// Port is the TCP port to listen on; 0 picks an ephemeral port.
	Port int
	// Initializer resolves the processor. Nil means PipelineInitializer{}.
	Initializer Initializer
}

func (c Configuration) validate() error {
	switch {
	case c.PhysicalPath == "":
		return fmt.Errorf("%w: physical path is required", ErrInvalidConfiguration)
	case !strings.HasPrefix(c.VirtualPath, "/") || !strings.HasSuffix(c.VirtualPath, "/"):
		return fmt.Errorf("%w: virtual path %q must begin and end with /", ErrInvalidConfiguration, c.VirtualPath)
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfiguration, c.Port)
	}
	return nil
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithRequestLog records an entry for every served request.
func WithRequestLog(l requestlog.Logger) HostOption {
	return func(h *Host) {
		h.requests = l
	}
}

// WithMetrics records request counts and durations in m.
func WithMetrics(m *metrics.HostMetrics) HostOption {
	return func(h *Host) {
		h.metrics = m
	}
}

// Host accepts connections for one application and feeds them to its
// processor, one at a time.
type Host struct {
	domain   *Domain
	logger   *slog.Logger
	requests requestlog.Logger
	metrics  *metrics.HostMetrics

	mu     sync.Mutex
	state  State
	closed bool
	cfg    Configuration
	prefix string
	proc   *processor.Processor
	ln     net.Listener
	conn   net.Conn
}

// NewHost creates a Host inside d. The host is owned by d and closed when d
// unloads.
func NewHost(d *Domain, opts ...HostOption) (*Host, error) {
	if d == nil {
		return nil, errors.New("isolation: nil domain")
	}
	return Create(d, func(d *Domain) (*Host, error) {
		h := &Host{domain: d, logger: d.Logger()}
		for _, opt := range opts {
			opt(h)
		}
		return h, nil
	})
}

// Domain returns the domain the host runs in.
func (h *Host) Domain() *Domain { return h.domain }

// State returns the current state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Prefix returns the listener prefix, http://*:<port><virtualPath>. It is
// empty until the host is configured.
func (h *Host) Prefix() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.prefix
}

// Addr returns the bound listener address, or nil when not listening.
func (h *Host) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ln == nil {
		return nil
	}
	return h.ln.Addr()
}

// ApplyConfiguration validates cfg and resolves the application processor.
func (h *Host) ApplyConfiguration(cfg Configuration) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.state != StateUnconfigured {
		return ErrAlreadyConfigured
	}

	initializer := cfg.Initializer
	if initializer == nil {
		initializer = PipelineInitializer{}
	}
	proc, err := initializer.Initialize(h.domain, cfg.VirtualPath, cfg.PhysicalPath)
	if err != nil {
		return fmt.Errorf("isolation: initializing application: %w", err)
	}
	if proc == nil {
		return fmt.Errorf("isolation: initializer returned no processor")
	}

	h.cfg = cfg
	h.proc = proc
	h.prefix = "http://*:" + strconv.Itoa(cfg.Port) + cfg.VirtualPath
	h.state = StateConfigured
	return nil
}

// StartListening binds the configured port. Clients are served anonymously.
func (h *Host) StartListening() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.state != StateConfigured {
		return ErrNotConfigured
	}

	ln, err := net.Listen("tcp", ":"+strconv.Itoa(h.cfg.Port))
	if err != nil {
		return fmt.Errorf("isolation: listen on %s: %w", h.prefix, err)
	}
	h.ln = ln
	h.state = StateListening
	h.logger.Info("listening", "prefix", h.prefix, "addr", ln.Addr().String())
	return nil
}

// ProcessOnce accepts one connection and serves the request on it. It blocks
// until a client connects or the host is stopped. Errors caused by the stop
// itself are not reported.
func (h *Host) ProcessOnce(ctx context.Context) error {
	h.mu.Lock()
	state, ln := h.state, h.ln
	h.mu.Unlock()
	switch state {
	case StateStopped:
		return nil
	case StateListening:
	default:
		return ErrNotListening
	}

	conn, err := ln.Accept()
	if err != nil {
		if h.stopped() {
			return nil
		}
		return fmt.Errorf("isolation: accept: %w", err)
	}

	h.mu.Lock()
	if h.state != StateListening {
		h.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	h.conn = conn
	h.mu.Unlock()
	h.metrics.ConnectionOpened()

	defer func() {
		h.metrics.ConnectionClosed()
		h.mu.Lock()
		h.conn = nil
		h.mu.Unlock()
		_ = conn.Close()
	}()

	if err := h.serve(ctx, conn); err != nil {
		if h.stopped() {
			return nil
		}
		return err
	}
	return nil
}

func (h *Host) serve(ctx context.Context, conn net.Conn) error {
	start := time.Now()
	entry := &requestlog.Entry{
		Timestamp:  start,
		DomainID:   h.domain.ID(),
		RemoteAddr: conn.RemoteAddr().String(),
	}

	hc, err := rawhttp.NewContext(conn)
	switch {
	case err != nil && h.stopped():
		// the stop closed the connection mid-read
		return nil
	case errors.Is(err, io.EOF):
		// client went away before sending a request
		return nil
	case errors.Is(err, rawhttp.ErrMalformedRequest):
		h.logger.Debug("malformed request", "remote", entry.RemoteAddr, "error", err)
		_ = rawhttp.WriteStatus(conn, rawhttp.StatusBadRequest)
		entry.ResponseStatus = rawhttp.StatusBadRequest
		entry.Error = err.Error()
		h.record(entry, start)
		return nil
	case err != nil:
		return fmt.Errorf("isolation: reading request: %w", err)
	}
	defer hc.Close()

	req, resp := hc.Request(), hc.Response()
	entry.Method = req.Method()
	entry.Path = req.Path()
	entry.QueryString = req.QueryString()
	entry.Headers = req.Headers()
	entry.BodySize = req.ContentLength()

	var procErr error
	if h.underPrefix(req.Path()) {
		handled, err := h.proc.ProcessRequest(NewContext(ctx, h.domain), hc)
		switch {
		case err != nil:
			procErr = err
			resp.ClearOutputStream()
			resp.SetStatus(rawhttp.StatusInternalServerError, rawhttp.StatusText(rawhttp.StatusInternalServerError))
		case !handled:
			notFound(resp)
		}
	} else {
		notFound(resp)
	}

	entry.ResponseStatus = resp.StatusCode()
	entry.ResponseSize = resp.Len()
	if err := resp.Flush(); err != nil {
		h.logger.Debug("flush failed", "path", entry.Path, "error", err)
	}
	if procErr != nil {
		entry.Error = procErr.Error()
	}
	h.record(entry, start)

	if procErr != nil {
		return fmt.Errorf("isolation: processing %s %s: %w", entry.Method, entry.Path, procErr)
	}
	return nil
}

func notFound(resp *rawhttp.Response) {
	resp.ClearOutputStream()
	resp.SetStatus(rawhttp.StatusNotFound, rawhttp.StatusText(rawhttp.StatusNotFound))
	resp.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = resp.WriteString("Not Found")
}

func (h *Host) record(entry *requestlog.Entry, start time.Time) {
	entry.Duration = time.Since(start)
	h.logger.Debug("request served",
		"method", entry.Method,
		"path", entry.Path,
		"status", entry.ResponseStatus,
		"duration", entry.Duration)
	h.metrics.ObserveRequest(entry.Method, entry.ResponseStatus, entry.ResponseSize, entry.Duration, entry.Error != "")
	if h.requests != nil {
		h.requests.Log(entry)
	}
}

// underPrefix reports whether path falls under the virtual path. The virtual
// path without its trailing slash matches too.
func (h *Host) underPrefix(path string) bool {
	vpath := h.cfg.VirtualPath
	if len(path) >= len(vpath) && strings.EqualFold(path[:len(vpath)], vpath) {
		return true
	}
	return strings.EqualFold(path, strings.TrimSuffix(vpath, "/"))
}

func (h *Host) stopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == StateStopped
}

// StopListening closes the listener and any in-flight connection. A blocked
// ProcessOnce returns nil. It is safe to call in any state and more than once.
func (h *Host) StopListening() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StateStopped {
		return nil
	}
	h.state = StateStopped

	var err error
	if h.ln != nil {
		if cerr := h.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
		h.ln = nil
	}
	if h.conn != nil {
		_ = h.conn.Close()
	}
	if err != nil {
		return fmt.Errorf("isolation: closing listener: %w", err)
	}
	h.logger.Info("stopped listening", "prefix", h.prefix)
	return nil
}

// Close stops the host. It is idempotent.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()
	return h.StopListening()
}
