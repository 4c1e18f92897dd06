package worker

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/getmockd/netty/pkg/pipeline"
	"github.com/getmockd/netty/pkg/rawhttp"
)

// DefaultDynamicExtensions are the markers that end a file path.
var DefaultDynamicExtensions = []string{".aspx", ".asmx"}

// Errors returned by New.
var (
	ErrNilContext     = errors.New("worker: nil connection context")
	ErrNoVirtualPath  = errors.New("worker: virtual path is required")
	ErrNoPhysicalPath = errors.New("worker: physical path is required")
)

// Request implements pipeline.WorkerRequest over a rawhttp.Context.
type Request struct {
	ctx          *rawhttp.Context
	virtualPath  string
	physicalPath string
	extensions   []string
	bodyOffset   int
}

var (
	_ pipeline.WorkerRequest  = (*Request)(nil)
	_ pipeline.HeaderAppender = (*Request)(nil)
)

// Option configures a Request.
type Option func(*Request)

// WithDynamicExtensions replaces the extension markers used for path mapping.
func WithDynamicExtensions(exts ...string) Option {
	return func(r *Request) {
		r.extensions = exts
	}
}

// New wraps ctx for an application mounted at virtualPath and rooted at
// physicalPath.
func New(ctx *rawhttp.Context, virtualPath, physicalPath string, opts ...Option) (*Request, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if virtualPath == "" {
		return nil, ErrNoVirtualPath
	}
	if physicalPath == "" {
		return nil, ErrNoPhysicalPath
	}

	r := &Request{
		ctx:          ctx,
		virtualPath:  virtualPath,
		physicalPath: physicalPath,
		extensions:   DefaultDynamicExtensions,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Context returns the wrapped connection context.
func (r *Request) Context() *rawhttp.Context { return r.ctx }

func (r *Request) req() *rawhttp.Request   { return r.ctx.Request() }
func (r *Request) resp() *rawhttp.Response { return r.ctx.Response() }

// Verb returns the HTTP method.
func (r *Request) Verb() string { return r.req().Method() }

// RawURL returns the request target as sent.
func (r *Request) RawURL() string { return r.req().RawURL() }

// URIPath returns the decoded URL path.
func (r *Request) URIPath() string { return r.req().Path() }

// QueryString returns the substring after the first '?' of the raw URL.
func (r *Request) QueryString() string { return r.req().QueryString() }

// HTTPVersion returns "HTTP/{major}.{minor}".
func (r *Request) HTTPVersion() string {
	major, minor := r.req().ProtocolVersion()
	return fmt.Sprintf("HTTP/%d.%d", major, minor)
}

func (r *Request) LocalAddress() string  { return r.req().LocalEndpoint().Address }
func (r *Request) LocalPort() int        { return r.req().LocalEndpoint().Port }
func (r *Request) RemoteAddress() string { return r.req().RemoteEndpoint().Address }
func (r *Request) RemotePort() int       { return r.req().RemoteEndpoint().Port }

// AppPath returns the virtual path.
func (r *Request) AppPath() string { return r.virtualPath }

// AppPathTranslated returns the physical root.
func (r *Request) AppPathTranslated() string { return r.physicalPath }

// FilePath returns the URL path up to and including the earliest dynamic
// extension marker, or the whole path when none occurs.
func (r *Request) FilePath() string {
	return SplitFilePath(r.URIPath(), r.extensions)
}

// FilePathTranslated maps FilePath onto the physical root.
func (r *Request) FilePathTranslated() string {
	return TranslatePath(r.FilePath(), r.virtualPath, r.physicalPath)
}

// PathInfo returns the part of the URL path after FilePath.
func (r *Request) PathInfo() string {
	full := r.URIPath()
	file := r.FilePath()
	if len(file) == len(full) {
		return ""
	}
	return full[len(file):]
}

// KnownRequestHeader returns the value of the header with the given index.
func (r *Request) KnownRequestHeader(index int) string {
	if index == pipeline.HeaderUserAgent {
		return r.req().UserAgent()
	}
	name := pipeline.KnownRequestHeaderName(index)
	if name == "" {
		return ""
	}
	return strings.Join(r.req().HeaderValues(name), ",")
}

// UnknownRequestHeader returns the value of a header by name.
func (r *Request) UnknownRequestHeader(name string) string {
	return strings.Join(r.req().HeaderValues(name), ",")
}

// UnknownRequestHeaders returns name/value pairs for every header that has no
// known index, sorted by name.
func (r *Request) UnknownRequestHeaders() [][2]string {
	names := r.req().HeaderNames()
	sort.Strings(names)

	pairs := make([][2]string, 0, len(names))
	for _, name := range names {
		if pipeline.KnownRequestHeaderIndex(name) >= 0 {
			continue
		}
		pairs = append(pairs, [2]string{name, r.UnknownRequestHeader(name)})
	}
	return pairs
}

// ServerVariable emulates the few server variables pipelines ask for.
func (r *Request) ServerVariable(name string) (string, bool) {
	switch name {
	case "HTTPS":
		if r.req().IsSecureConnection() {
			return "on", true
		}
		return "off", true
	case "HTTP_USER_AGENT":
		return r.req().UserAgent(), true
	case "LOGON_USER", "AUTH_TYPE":
		return "", true
	default:
		return "", false
	}
}

// ReadEntityBody copies the next unread body bytes into p. It returns io.EOF
// once the body is exhausted.
func (r *Request) ReadEntityBody(p []byte) (int, error) {
	body := r.req().Body()
	if r.bodyOffset >= len(body) {
		return 0, io.EOF
	}
	n := copy(p, body[r.bodyOffset:])
	r.bodyOffset += n
	return n, nil
}

// EntityBody returns the whole buffered request body.
func (r *Request) EntityBody() []byte { return r.req().Body() }

// SendStatus sets the response status.
func (r *Request) SendStatus(code int, description string) {
	r.resp().SetStatus(code, description)
}

// SendKnownResponseHeader sets the header with the given response index.
// Unknown indices are ignored.
func (r *Request) SendKnownResponseHeader(index int, value string) {
	if name := pipeline.KnownResponseHeaderName(index); name != "" {
		r.resp().Header().Set(name, value)
	}
}

// SendUnknownResponseHeader sets a response header by name.
func (r *Request) SendUnknownResponseHeader(name, value string) {
	r.resp().Header().Set(name, value)
}

// AppendUnknownResponseHeader adds a value to a response header.
func (r *Request) AppendUnknownResponseHeader(name, value string) {
	r.resp().Header().Add(name, value)
}

// SendResponseFromMemory appends p to the response body.
func (r *Request) SendResponseFromMemory(p []byte) {
	_, _ = r.resp().Write(p)
}

// SendResponseFromFile appends length bytes of the named file, starting at
// offset, to the response body. Fewer bytes are appended when the file ends
// first.
func (r *Request) SendResponseFromFile(name string, offset, length int64) error {
	if length <= 0 {
		return nil
	}
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(r.resp(), io.NewSectionReader(f, offset, length)); err != nil {
		return fmt.Errorf("worker: reading %s: %w", name, err)
	}
	return nil
}

// SendResponseFromHandle is not supported; it does nothing.
func (r *Request) SendResponseFromHandle(handle uintptr, offset, length int64) {}

// FlushResponse does nothing: the response is flushed by the host once the
// pipeline returns.
func (r *Request) FlushResponse(final bool) {}

// EndOfRequest does nothing; the connection context is released by the host.
func (r *Request) EndOfRequest() {}

// CloseConnection does nothing; the listener owns the transport.
func (r *Request) CloseConnection() {}

// UserToken returns 0: requests are anonymous.
func (r *Request) UserToken() uintptr { return 0 }
