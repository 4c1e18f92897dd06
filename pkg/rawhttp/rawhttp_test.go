package rawhttp

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sink collects a flushed response.
type sink struct {
	bytes.Buffer
	closed int
}

func (s *sink) Close() error {
	s.closed++
	return nil
}

func newTestContext(t *testing.T, raw string) (*Context, *sink) {
	t.Helper()
	out := &sink{}
	ctx, err := New(strings.NewReader(raw), out, Options{
		LocalAddr:  &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7100},
		RemoteAddr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 9), Port: 51000},
	})
	require.NoError(t, err)
	return ctx, out
}

func parseResponse(t *testing.T, out *sink, method string) *http.Response {
	t.Helper()
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(out.Bytes())), &http.Request{Method: method})
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_ParsesRequest(t *testing.T) {
	raw := "POST /app/page.aspx/extra?x=1&y=2 HTTP/1.1\r\n" +
		"Host: localhost:7100\r\n" +
		"User-Agent: netty-test\r\n" +
		"Content-Type: text/plain\r\n" +
		"X-Custom: abc\r\n" +
		"Content-Length: 5\r\n" +
		"\r\n" +
		"hello"

	ctx, _ := newTestContext(t, raw)
	req := ctx.Request()

	assert.Equal(t, "POST", req.Method())
	assert.Equal(t, "/app/page.aspx/extra?x=1&y=2", req.RawURL())
	assert.Equal(t, "/app/page.aspx/extra", req.Path())
	assert.Equal(t, "x=1&y=2", req.QueryString())
	assert.Equal(t, "1", req.URL().Query().Get("x"))

	major, minor := req.ProtocolVersion()
	assert.Equal(t, 1, major)
	assert.Equal(t, 1, minor)

	assert.Equal(t, "localhost:7100", req.Header("Host"))
	assert.Equal(t, "netty-test", req.UserAgent())
	assert.Equal(t, "text/plain", req.ContentType())
	assert.Equal(t, "abc", req.Header("x-custom"))
	assert.Contains(t, req.HeaderNames(), "X-Custom")

	assert.Equal(t, []byte("hello"), req.Body())
	assert.Equal(t, 5, req.ContentLength())

	assert.Equal(t, Endpoint{Address: "127.0.0.1", Port: 7100}, req.LocalEndpoint())
	assert.Equal(t, Endpoint{Address: "10.0.0.9", Port: 51000}, req.RemoteEndpoint())
	assert.Equal(t, "10.0.0.9:51000", req.RemoteEndpoint().String())
	assert.False(t, req.IsSecureConnection())
}

func TestNew_NoQueryString(t *testing.T) {
	ctx, _ := newTestContext(t, "GET /index.html HTTP/1.0\r\n\r\n")
	req := ctx.Request()

	assert.Empty(t, req.QueryString())
	assert.Empty(t, req.Body())

	major, minor := req.ProtocolVersion()
	assert.Equal(t, 1, major)
	assert.Equal(t, 0, minor)
}

func TestNew_DrainsChunkedBody(t *testing.T) {
	raw := "PUT /upload HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"Transfer-Encoding: chunked\r\n" +
		"\r\n" +
		"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"

	ctx, _ := newTestContext(t, raw)
	assert.Equal(t, "hello world", string(ctx.Request().Body()))
}

func TestNew_ExpectContinue(t *testing.T) {
	raw := "POST /a HTTP/1.1\r\nHost: x\r\nExpect: 100-continue\r\nContent-Length: 2\r\n\r\nok"

	ctx, out := newTestContext(t, raw)
	assert.Equal(t, "ok", string(ctx.Request().Body()))
	assert.Equal(t, "HTTP/1.1 100 Continue\r\n\r\n", out.String())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(strings.NewReader(""), &sink{}, Options{})
	assert.ErrorIs(t, err, io.EOF)

	_, err = New(strings.NewReader("NOT HTTP\r\n\r\n"), &sink{}, Options{})
	assert.ErrorIs(t, err, ErrMalformedRequest)

	_, err = New(strings.NewReader("POST / HTTP/1.1\r\nHost: x\r\nContent-Length: 10\r\n\r\nshort"), &sink{}, Options{})
	assert.Error(t, err)
}

func TestFlush_Default(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := ctx.Response()

	assert.Equal(t, StatusOK, resp.StatusCode())
	assert.Equal(t, "OK", resp.StatusDescription())

	resp.Header().Set("Content-Type", "text/plain")
	_, err := resp.WriteString("hello")
	require.NoError(t, err)
	require.NoError(t, resp.Flush())
	assert.Equal(t, 1, out.closed)

	assert.True(t, strings.HasPrefix(out.String(), "HTTP/1.1 200 OK\r\n"))

	parsed := parseResponse(t, out, "GET")
	assert.Equal(t, 200, parsed.StatusCode)
	assert.Equal(t, "text/plain", parsed.Header.Get("Content-Type"))
	assert.Equal(t, int64(5), parsed.ContentLength)
	assert.Equal(t, "netty", parsed.Header.Get("Server"))
	assert.True(t, parsed.Close)
	assert.Empty(t, parsed.TransferEncoding)

	body, err := io.ReadAll(parsed.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestFlush_UnknownStatusKeepsDescription(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	ctx.Response().SetStatus(599, "Custom Thing")
	require.NoError(t, ctx.Response().Flush())

	assert.True(t, strings.HasPrefix(out.String(), "HTTP/1.1 599 Custom Thing\r\n"), out.String())
}

func TestFlush_KnownStatusUsesTable(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	ctx.Response().SetStatus(404, "Gone Fishing")
	require.NoError(t, ctx.Response().Flush())

	assert.True(t, strings.HasPrefix(out.String(), "HTTP/1.1 404 Not Found\r\n"), out.String())
}

func TestFlush_HeadOmitsBody(t *testing.T) {
	ctx, out := newTestContext(t, "HEAD / HTTP/1.1\r\nHost: x\r\n\r\n")
	_, _ = ctx.Response().WriteString("ignored body")
	require.NoError(t, ctx.Response().Flush())

	assert.Contains(t, out.String(), "Content-Length: 12\r\n")
	assert.True(t, strings.HasSuffix(out.String(), "\r\n\r\n"))
}

func TestFlush_Once(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := ctx.Response()
	require.NoError(t, resp.Flush())

	assert.ErrorIs(t, resp.Flush(), ErrFlushed)
	_, err := resp.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrFlushed)
	assert.Equal(t, 1, out.closed)
}

func TestClearOutputStream(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	resp := ctx.Response()

	_, _ = resp.WriteString("partial output")
	resp.ClearOutputStream()
	assert.Zero(t, resp.Len())

	resp.SetStatus(StatusInternalServerError, "")
	_, _ = resp.WriteString("error page")
	require.NoError(t, resp.Flush())

	parsed := parseResponse(t, out, "GET")
	body, _ := io.ReadAll(parsed.Body)
	assert.Equal(t, "error page", string(body))
	assert.Equal(t, 500, parsed.StatusCode)
}

func TestRedirect(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	_, _ = ctx.Response().WriteString("dropped")
	ctx.Response().Redirect("/login")
	require.NoError(t, ctx.Response().Flush())

	parsed := parseResponse(t, out, "GET")
	assert.Equal(t, 302, parsed.StatusCode)
	assert.Equal(t, "/login", parsed.Header.Get("Location"))
	assert.Equal(t, int64(0), parsed.ContentLength)
}

func TestContextClose(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")

	require.NoError(t, ctx.Close())
	require.NoError(t, ctx.Close())
	assert.Equal(t, 1, out.closed, "unflushed response closes its transport once")
	assert.Zero(t, out.Len(), "nothing is sent for a dropped response")
}

func TestContextClose_AfterFlush(t *testing.T) {
	ctx, out := newTestContext(t, "GET / HTTP/1.1\r\nHost: x\r\n\r\n")
	require.NoError(t, ctx.Response().Flush())
	require.NoError(t, ctx.Close())
	assert.Equal(t, 1, out.closed)
}

func TestNewContext_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	type result struct {
		status int
		body   string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
		if err != nil {
			done <- result{err: err}
			return
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		done <- result{status: resp.StatusCode, body: string(b), err: err}
	}()

	conn, err := ln.Accept()
	require.NoError(t, err)

	ctx, err := NewContext(conn)
	require.NoError(t, err)
	defer ctx.Close()

	assert.Equal(t, "/ping", ctx.Request().Path())
	assert.Equal(t, ln.Addr().(*net.TCPAddr).Port, ctx.Request().LocalEndpoint().Port)
	assert.Equal(t, "127.0.0.1", ctx.Request().RemoteEndpoint().Address)

	_, _ = ctx.Response().WriteString("pong")
	require.NoError(t, ctx.Response().Flush())

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, 200, res.status)
	assert.Equal(t, "pong", res.body)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "OK", StatusText(200))
	assert.Equal(t, "Length Required", StatusText(411))
	assert.Equal(t, "Service Unavailable", StatusText(503))
	assert.Empty(t, StatusText(599))
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatus(&buf, StatusBadRequest))

	resp, err := http.ReadResponse(bufio.NewReader(&buf), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "400 Bad Request", resp.Status)
	assert.EqualValues(t, 0, resp.ContentLength)
	assert.True(t, resp.Close)
}
