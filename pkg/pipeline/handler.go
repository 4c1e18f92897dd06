package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
)

// HTTPHandler runs a net/http Handler as the application pipeline.
//
// The handler sees an ordinary *http.Request rebuilt from the worker request,
// with the pipeline context as its context. Writes to the ResponseWriter go
// back through the worker request; headers are committed on the first
// WriteHeader or Write, as with net/http.
type HTTPHandler struct {
	Handler http.Handler
}

// ProcessRequest implements Pipeline.
func (h HTTPHandler) ProcessRequest(ctx context.Context, wr WorkerRequest) (bool, error) {
	if h.Handler == nil {
		return false, fmt.Errorf("pipeline: nil http.Handler")
	}

	req, err := NewHTTPRequest(ctx, wr)
	if err != nil {
		return true, err
	}

	rw := &responseWriter{wr: wr, header: make(http.Header)}
	h.Handler.ServeHTTP(rw, req)
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return true, nil
}

// NewHTTPRequest rebuilds a server-side *http.Request from a worker request.
func NewHTTPRequest(ctx context.Context, wr WorkerRequest) (*http.Request, error) {
	body, err := readAllEntityBody(wr)
	if err != nil {
		return nil, fmt.Errorf("pipeline: reading entity body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, wr.Verb(), wr.RawURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	for i := 0; i < RequestHeaderMaximum; i++ {
		if v := wr.KnownRequestHeader(i); v != "" {
			req.Header.Set(KnownRequestHeaderName(i), v)
		}
	}
	for _, kv := range wr.UnknownRequestHeaders() {
		req.Header.Add(kv[0], kv[1])
	}

	req.RequestURI = wr.RawURL()
	req.Host = req.Header.Get("Host")
	req.Header.Del("Host")
	req.ContentLength = int64(len(body))
	req.RemoteAddr = net.JoinHostPort(wr.RemoteAddress(), strconv.Itoa(wr.RemotePort()))

	var major, minor int
	if _, err := fmt.Sscanf(wr.HTTPVersion(), "HTTP/%d.%d", &major, &minor); err == nil {
		req.Proto = wr.HTTPVersion()
		req.ProtoMajor, req.ProtoMinor = major, minor
	}

	return req, nil
}

func readAllEntityBody(wr WorkerRequest) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := wr.ReadEntityBody(chunk)
		buf.Write(chunk[:n])
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return buf.Bytes(), nil
		}
	}
}

type responseWriter struct {
	wr          WorkerRequest
	header      http.Header
	wroteHeader bool
}

func (w *responseWriter) Header() http.Header { return w.header }

func (w *responseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	w.wr.SendStatus(code, http.StatusText(code))
	appender, canAppend := w.wr.(HeaderAppender)
	for name, values := range w.header {
		for i, v := range values {
			if i > 0 && canAppend {
				appender.AppendUnknownResponseHeader(name, v)
				continue
			}
			w.wr.SendUnknownResponseHeader(name, v)
		}
	}
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		if w.header.Get("Content-Type") == "" {
			w.header.Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}
	w.wr.SendResponseFromMemory(p)
	return len(p), nil
}
