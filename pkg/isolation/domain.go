package isolation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/getmockd/netty/internal/id"
	"github.com/getmockd/netty/pkg/logging"
)

// ErrUnloaded is returned when a domain is used after Unload.
var ErrUnloaded = errors.New("isolation: domain unloaded")

// Domain is the isolation boundary of one hosted application.
type Domain struct {
	id           string
	virtualPath  string
	physicalPath string
	logger       *slog.Logger

	mu       sync.Mutex
	values   map[any]any
	owned    []io.Closer
	unloaded bool
}

// NewDomain creates a domain with a fresh identifier.
func NewDomain(virtualPath, physicalPath string, logger *slog.Logger) *Domain {
	domainID := id.NewDomainID()
	return &Domain{
		id:           domainID,
		virtualPath:  virtualPath,
		physicalPath: physicalPath,
		logger:       logging.ForDomain(logger, domainID),
		values:       make(map[any]any),
	}
}

// ID returns the domain identifier.
func (d *Domain) ID() string { return d.id }

// VirtualPath returns the virtual path of the hosted application.
func (d *Domain) VirtualPath() string { return d.virtualPath }

// PhysicalPath returns the physical root of the hosted application.
func (d *Domain) PhysicalPath() string { return d.physicalPath }

// Logger returns the domain logger. Records carry domain_id.
func (d *Domain) Logger() *slog.Logger { return d.logger }

// Value returns the value stored under key, or nil.
func (d *Domain) Value(key any) any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[key]
}

// SetValue stores value under key. A nil value deletes the key.
func (d *Domain) SetValue(key, value any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unloaded {
		return ErrUnloaded
	}
	if value == nil {
		delete(d.values, key)
		return nil
	}
	d.values[key] = value
	return nil
}

// Own registers c to be closed by Unload. Objects are closed in the reverse of
// the order they were registered.
func (d *Domain) Own(c io.Closer) error {
	if c == nil {
		return errors.New("isolation: nil closer")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unloaded {
		return ErrUnloaded
	}
	d.owned = append(d.owned, c)
	return nil
}

// Create runs factory inside d. A result implementing io.Closer is owned by
// the domain; if the domain was unloaded meanwhile it is closed and
// ErrUnloaded returned.
func Create[T any](d *Domain, factory func(*Domain) (T, error)) (T, error) {
	var zero T
	if d.Unloaded() {
		return zero, ErrUnloaded
	}
	v, err := factory(d)
	if err != nil {
		return zero, err
	}
	if c, ok := any(v).(io.Closer); ok {
		if err := d.Own(c); err != nil {
			_ = c.Close()
			return zero, err
		}
	}
	return v, nil
}

// Unloaded reports whether Unload has run.
func (d *Domain) Unloaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unloaded
}

// Unload closes every owned object, newest first, and drops the value store.
// Only the first call does any work.
func (d *Domain) Unload() error {
	d.mu.Lock()
	if d.unloaded {
		d.mu.Unlock()
		return nil
	}
	d.unloaded = true
	owned := d.owned
	d.owned = nil
	d.values = make(map[any]any)
	d.mu.Unlock()

	var errs []error
	for i := len(owned) - 1; i >= 0; i-- {
		if err := owned[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %T: %w", owned[i], err))
		}
	}
	d.logger.Debug("domain unloaded", "closed", len(owned), "errors", len(errs))
	return errors.Join(errs...)
}

type key struct{}

var contextKey = &key{}

// NewContext returns a copy of parent carrying d.
func NewContext(parent context.Context, d *Domain) context.Context {
	return context.WithValue(parent, contextKey, d)
}

// FromContext extracts the domain carried by ctx.
func FromContext(ctx context.Context) (*Domain, bool) {
	d, ok := ctx.Value(contextKey).(*Domain)
	return d, ok
}
