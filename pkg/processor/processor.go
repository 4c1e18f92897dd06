package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/getmockd/netty/pkg/pipeline"
	"github.com/getmockd/netty/pkg/rawhttp"
	"github.com/getmockd/netty/pkg/worker"
)

var (
	// ErrNoHandler is returned when a request arrives before SetHandler.
	ErrNoHandler = errors.New("processor: no handler set")
	// ErrNilContext is returned for a nil connection context.
	ErrNilContext = errors.New("processor: nil connection context")
)

// Handler processes one connection context. The boolean reports whether the
// request was handled.
type Handler interface {
	ProcessRequest(ctx context.Context, hc *rawhttp.Context) (bool, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, hc *rawhttp.Context) (bool, error)

// ProcessRequest calls f.
func (f HandlerFunc) ProcessRequest(ctx context.Context, hc *rawhttp.Context) (bool, error) {
	return f(ctx, hc)
}

// Processor holds exactly one handler.
type Processor struct {
	mu      sync.RWMutex
	handler Handler
}

// New returns a Processor using h, which may be nil until SetHandler.
func New(h Handler) *Processor {
	return &Processor{handler: h}
}

// SetHandler replaces the handler.
func (p *Processor) SetHandler(h Handler) {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
}

// Handler returns the current handler.
func (p *Processor) Handler() Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handler
}

// ProcessRequest forwards hc to the handler.
func (p *Processor) ProcessRequest(ctx context.Context, hc *rawhttp.Context) (bool, error) {
	if hc == nil {
		return false, ErrNilContext
	}
	h := p.Handler()
	if h == nil {
		return false, ErrNoHandler
	}
	return h.ProcessRequest(ctx, hc)
}

// PipelineHandler runs Pipeline for each request of an application mounted at
// VirtualPath and rooted at PhysicalPath.
type PipelineHandler struct {
	VirtualPath  string
	PhysicalPath string
	Pipeline     pipeline.Pipeline
	// Options are passed to worker.New for every request.
	Options []worker.Option
}

// ProcessRequest implements Handler. The pipeline's own handled signal is
// ignored; the request always counts as handled once the pipeline returns.
func (h *PipelineHandler) ProcessRequest(ctx context.Context, hc *rawhttp.Context) (bool, error) {
	if h.Pipeline == nil {
		return false, errors.New("processor: nil pipeline")
	}
	wr, err := worker.New(hc, h.VirtualPath, h.PhysicalPath, h.Options...)
	if err != nil {
		return false, err
	}
	if _, err := h.Pipeline.ProcessRequest(ctx, wr); err != nil {
		return true, fmt.Errorf("processor: pipeline: %w", err)
	}
	return true, nil
}
