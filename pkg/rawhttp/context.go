package rawhttp

import (
	"bufio"
	"io"
	"net"
)

// Context owns the request and response of one accepted connection.
type Context struct {
	req    *Request
	resp   *Response
	w      io.WriteCloser
	closed bool
}

// Options describe the transport a context is read from.
type Options struct {
	LocalAddr  net.Addr
	RemoteAddr net.Addr
	Secure     bool
}

// NewContext reads one request from conn, blocking until its body is fully
// buffered. The response is written back to conn on Flush.
func NewContext(conn net.Conn) (*Context, error) {
	return New(conn, conn, Options{
		LocalAddr:  conn.LocalAddr(),
		RemoteAddr: conn.RemoteAddr(),
		Secure:     isTLS(conn),
	})
}

// New reads one request from r. The response goes to w, which is closed by
// Response.Flush or Context.Close.
func New(r io.Reader, w io.WriteCloser, opts Options) (*Context, error) {
	req, err := readRequest(bufio.NewReader(r), w)
	if err != nil {
		return nil, err
	}
	req.local = endpointOf(opts.LocalAddr)
	req.remote = endpointOf(opts.RemoteAddr)
	req.secure = opts.Secure

	return &Context{
		req:  req,
		resp: newResponse(w, req.method),
		w:    w,
	}, nil
}

// Request returns the buffered request.
func (c *Context) Request() *Request { return c.req }

// Response returns the pending response.
func (c *Context) Response() *Response { return c.resp }

// Close releases the buffers. An unflushed response is dropped and its
// transport closed. Close is idempotent.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var err error
	if !c.resp.flushed {
		c.resp.flushed = true
		err = c.w.Close()
	}
	c.req.body = nil
	c.resp.body.Reset()
	return err
}
