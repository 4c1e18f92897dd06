package rawhttp

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrMalformedRequest is returned when the connection does not carry a
// parseable HTTP/1.x request.
var ErrMalformedRequest = errors.New("malformed request")

// Endpoint is one side of a connection.
type Endpoint struct {
	Address string
	Port    int
}

// String returns the endpoint in host:port form.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(e.Port))
}

func endpointOf(addr net.Addr) Endpoint {
	if addr == nil {
		return Endpoint{}
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return Endpoint{Address: tcp.IP.String(), Port: tcp.Port}
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return Endpoint{Address: addr.String()}
	}
	p, _ := strconv.Atoi(port)
	return Endpoint{Address: host, Port: p}
}

// Request is an immutable view of one inbound request with its body fully
// buffered.
type Request struct {
	method     string
	rawURL     string
	url        *url.URL
	protoMajor int
	protoMinor int
	header     http.Header
	body       []byte
	local      Endpoint
	remote     Endpoint
	secure     bool
}

// readRequest parses a request from br and drains its body. interim receives
// the "100 Continue" line when the client asked for one.
func readRequest(br *bufio.Reader, interim io.Writer) (*Request, error) {
	hr, err := http.ReadRequest(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	defer hr.Body.Close()

	if interim != nil && hr.ContentLength != 0 &&
		strings.EqualFold(hr.Header.Get("Expect"), "100-continue") {
		if _, err := io.WriteString(interim, "HTTP/1.1 100 Continue\r\n\r\n"); err != nil {
			return nil, err
		}
	}

	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	header := hr.Header.Clone()
	if hr.Host != "" {
		header.Set("Host", hr.Host)
	}

	return &Request{
		method:     hr.Method,
		rawURL:     hr.RequestURI,
		url:        hr.URL,
		protoMajor: hr.ProtoMajor,
		protoMinor: hr.ProtoMinor,
		header:     header,
		body:       body,
	}, nil
}

// Method returns the request verb.
func (r *Request) Method() string { return r.method }

// RawURL returns the request target exactly as sent.
func (r *Request) RawURL() string { return r.rawURL }

// URL returns the parsed request target.
func (r *Request) URL() *url.URL {
	u := *r.url
	return &u
}

// Path returns the decoded URL path.
func (r *Request) Path() string { return r.url.Path }

// QueryString returns the raw query, without the leading '?'.
func (r *Request) QueryString() string {
	if i := strings.IndexByte(r.rawURL, '?'); i >= 0 {
		return r.rawURL[i+1:]
	}
	return ""
}

// ProtocolVersion returns the HTTP major and minor version numbers.
func (r *Request) ProtocolVersion() (major, minor int) {
	return r.protoMajor, r.protoMinor
}

// Header returns a request header value; the Host header is included.
func (r *Request) Header(name string) string { return r.header.Get(name) }

// HeaderValues returns every value sent for a request header.
func (r *Request) HeaderValues(name string) []string { return r.header.Values(name) }

// Headers returns a copy of all request headers.
func (r *Request) Headers() http.Header { return r.header.Clone() }

// HeaderNames returns the canonical names of all request headers.
func (r *Request) HeaderNames() []string {
	names := make([]string, 0, len(r.header))
	for name := range r.header {
		names = append(names, name)
	}
	return names
}

// UserAgent returns the User-Agent header.
func (r *Request) UserAgent() string { return r.header.Get("User-Agent") }

// Referer returns the Referer header.
func (r *Request) Referer() string { return r.header.Get("Referer") }

// ContentType returns the Content-Type header.
func (r *Request) ContentType() string { return r.header.Get("Content-Type") }

// Body returns the buffered request body. Callers must not modify it.
func (r *Request) Body() []byte { return r.body }

// ContentLength returns the size of the buffered body.
func (r *Request) ContentLength() int { return len(r.body) }

// LocalEndpoint returns the address the request arrived on.
func (r *Request) LocalEndpoint() Endpoint { return r.local }

// RemoteEndpoint returns the client address.
func (r *Request) RemoteEndpoint() Endpoint { return r.remote }

// IsSecureConnection reports whether the request arrived over TLS.
func (r *Request) IsSecureConnection() bool { return r.secure }

func isTLS(conn net.Conn) bool {
	_, ok := conn.(*tls.Conn)
	return ok
}
