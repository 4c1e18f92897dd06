package rawhttp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrFlushed is returned when a response is written after it was flushed.
var ErrFlushed = errors.New("response already flushed")

// serverName is sent in the Server header unless the application sets one.
const serverName = "netty"

// Response accumulates an outbound response in memory.
type Response struct {
	w           io.WriteCloser
	status      int
	description string
	header      http.Header
	body        *bytes.Buffer
	headOnly    bool
	flushed     bool
}

func newResponse(w io.WriteCloser, method string) *Response {
	return &Response{
		w:           w,
		status:      StatusOK,
		description: StatusText(StatusOK),
		header:      make(http.Header),
		body:        new(bytes.Buffer),
		headOnly:    method == http.MethodHead,
	}
}

// StatusCode returns the status code to send.
func (r *Response) StatusCode() int { return r.status }

// StatusDescription returns the caller-supplied status description.
func (r *Response) StatusDescription() string { return r.description }

// SetStatus sets the status code and description.
func (r *Response) SetStatus(code int, description string) {
	r.status = code
	r.description = description
}

// Header returns the response header collection.
func (r *Response) Header() http.Header { return r.header }

// Write appends p to the output buffer.
func (r *Response) Write(p []byte) (int, error) {
	if r.flushed {
		return 0, ErrFlushed
	}
	return r.body.Write(p)
}

// WriteString appends s to the output buffer.
func (r *Response) WriteString(s string) (int, error) {
	if r.flushed {
		return 0, ErrFlushed
	}
	return r.body.WriteString(s)
}

// Len returns the number of buffered output bytes.
func (r *Response) Len() int { return r.body.Len() }

// Bytes returns the buffered output. Callers must not modify it.
func (r *Response) Bytes() []byte { return r.body.Bytes() }

// ClearOutputStream discards everything written so far.
func (r *Response) ClearOutputStream() {
	r.body = new(bytes.Buffer)
}

// Redirect discards the output and turns the response into a 302 to url.
func (r *Response) Redirect(url string) {
	r.ClearOutputStream()
	r.SetStatus(StatusFound, StatusText(StatusFound))
	r.header.Set("Location", url)
}

// Flushed reports whether Flush has run.
func (r *Response) Flushed() bool { return r.flushed }

// Flush writes the status line, headers and buffered body, then closes the
// transport. The status text comes from the well-known table when the code is
// listed there, otherwise from the description set by the caller.
func (r *Response) Flush() error {
	if r.flushed {
		return ErrFlushed
	}
	r.flushed = true

	err := r.writeTo(r.w)
	if cerr := r.w.Close(); err == nil {
		err = cerr
	}
	return err
}

func (r *Response) writeTo(w io.Writer) error {
	description := StatusText(r.status)
	if description == "" {
		description = r.description
	}

	r.header.Set("Content-Length", strconv.Itoa(r.body.Len()))
	r.header.Set("Connection", "close")
	r.header.Del("Transfer-Encoding")
	if r.header.Get("Date") == "" {
		r.header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}
	if _, ok := r.header["Server"]; !ok {
		r.header.Set("Server", serverName)
	}

	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "HTTP/1.1 %03d %s\r\n", r.status, description); err != nil {
		return err
	}
	if err := r.header.Write(bw); err != nil {
		return err
	}
	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}
	if !r.headOnly {
		if _, err := bw.Write(r.body.Bytes()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteStatus writes a bodiless response with the given status straight to w.
// It is used when no request could be read, so there is no Context to flush.
func WriteStatus(w io.Writer, code int) error {
	_, err := fmt.Fprintf(w, "HTTP/1.1 %03d %s\r\nContent-Length: 0\r\nConnection: close\r\nServer: %s\r\n\r\n",
		code, StatusText(code), serverName)
	return err
}
