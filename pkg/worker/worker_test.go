package worker

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/netty/pkg/pipeline"
	"github.com/getmockd/netty/pkg/rawhttp"
)

type sink struct{ bytes.Buffer }

func (*sink) Close() error { return nil }

const physical = "/srv/site"

func newRequest(t *testing.T, raw string, opts ...Option) (*Request, *sink) {
	t.Helper()
	out := &sink{}
	ctx, err := rawhttp.New(strings.NewReader(raw), out, rawhttp.Options{
		LocalAddr:  &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 7200},
		RemoteAddr: &net.TCPAddr{IP: net.IPv4(192, 168, 1, 5), Port: 40000},
	})
	require.NoError(t, err)

	wr, err := New(ctx, "/app/", physical, opts...)
	require.NoError(t, err)
	return wr, out
}

func get(path string) string {
	return "GET " + path + " HTTP/1.1\r\nHost: localhost:7200\r\n\r\n"
}

func flushed(t *testing.T, wr *Request, out *sink) *http.Response {
	t.Helper()
	require.NoError(t, wr.Context().Response().Flush())
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(out.Bytes())), nil)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "/", physical)
	assert.ErrorIs(t, err, ErrNilContext)

	ctx, err := rawhttp.New(strings.NewReader(get("/")), &sink{}, rawhttp.Options{})
	require.NoError(t, err)

	_, err = New(ctx, "", physical)
	assert.ErrorIs(t, err, ErrNoVirtualPath)

	_, err = New(ctx, "/", "")
	assert.ErrorIs(t, err, ErrNoPhysicalPath)
}

func TestRequestLine(t *testing.T) {
	wr, _ := newRequest(t, "POST /app/svc.asmx/Add?a=1&b=2?c HTTP/1.0\r\nContent-Length: 0\r\n\r\n")

	assert.Equal(t, "POST", wr.Verb())
	assert.Equal(t, "/app/svc.asmx/Add?a=1&b=2?c", wr.RawURL())
	assert.Equal(t, "/app/svc.asmx/Add", wr.URIPath())
	assert.Equal(t, "a=1&b=2?c", wr.QueryString())
	assert.Equal(t, "HTTP/1.0", wr.HTTPVersion())

	assert.Equal(t, "127.0.0.1", wr.LocalAddress())
	assert.Equal(t, 7200, wr.LocalPort())
	assert.Equal(t, "192.168.1.5", wr.RemoteAddress())
	assert.Equal(t, 40000, wr.RemotePort())

	assert.Equal(t, "/app/", wr.AppPath())
	assert.Equal(t, physical, wr.AppPathTranslated())
}

func TestPathMapping(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		opts     []Option
		filePath string
		pathInfo string
	}{
		{"page with path info", "/app/page.aspx/extra", nil, "/app/page.aspx", "/extra"},
		{"service with path info", "/app/calc.asmx/Add/1", nil, "/app/calc.asmx", "/Add/1"},
		{"no marker", "/app/images/logo.png", nil, "/app/images/logo.png", ""},
		{"marker at end", "/app/page.aspx", nil, "/app/page.aspx", ""},
		{"case insensitive", "/app/Page.ASPX/x", nil, "/app/Page.ASPX", "/x"},
		{"earliest marker wins", "/app/a.asmx/b.aspx/c", nil, "/app/a.asmx", "/b.aspx/c"},
		{"earliest marker wins reversed", "/app/a.aspx/b.asmx/c", nil, "/app/a.aspx", "/b.asmx/c"},
		{"custom marker", "/app/page.ext1/extra", []Option{WithDynamicExtensions(".ext1", ".ext2")}, "/app/page.ext1", "/extra"},
		{"custom markers ignore defaults", "/app/page.aspx/extra", []Option{WithDynamicExtensions(".ext1", ".ext2")}, "/app/page.aspx/extra", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wr, _ := newRequest(t, get(tt.url), tt.opts...)
			assert.Equal(t, tt.filePath, wr.FilePath())
			assert.Equal(t, tt.pathInfo, wr.PathInfo())
		})
	}
}

func TestSplitFilePath(t *testing.T) {
	markers := []string{".as", ".asmx"}
	assert.Equal(t, "/x/y.asmx", SplitFilePath("/x/y.asmx/z", markers), "longer marker wins a tie")
	assert.Equal(t, "/x/y.as", SplitFilePath("/x/y.as/z", markers))
	assert.Equal(t, "/plain", SplitFilePath("/plain", nil))
	assert.Equal(t, "/plain", SplitFilePath("/plain", []string{""}))
}

func TestFilePathTranslated(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"/app/page.aspx/extra", filepath.Join(physical, "page.aspx")},
		{"/app/css/site.css", filepath.Join(physical, "css", "site.css")},
		{"/APP/index.html", filepath.Join(physical, "index.html")},
		{"/app/", physical},
		{"/app", physical},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			wr, _ := newRequest(t, get(tt.url))
			assert.Equal(t, tt.want, wr.FilePathTranslated())
		})
	}
}

func TestHeaders(t *testing.T) {
	raw := "GET /app/ HTTP/1.1\r\n" +
		"Host: localhost:7200\r\n" +
		"User-Agent: agent/1.0\r\n" +
		"Accept: text/html\r\n" +
		"Cookie: a=1\r\n" +
		"X-Trace: t1\r\n" +
		"X-Multi: one\r\n" +
		"X-Multi: two\r\n" +
		"\r\n"
	wr, _ := newRequest(t, raw)

	assert.Equal(t, "agent/1.0", wr.KnownRequestHeader(pipeline.HeaderUserAgent))
	assert.Equal(t, "text/html", wr.KnownRequestHeader(pipeline.HeaderAccept))
	assert.Equal(t, "localhost:7200", wr.KnownRequestHeader(pipeline.HeaderHost))
	assert.Equal(t, "a=1", wr.KnownRequestHeader(pipeline.HeaderCookie))
	assert.Empty(t, wr.KnownRequestHeader(pipeline.HeaderReferer))
	assert.Empty(t, wr.KnownRequestHeader(-1))
	assert.Empty(t, wr.KnownRequestHeader(pipeline.RequestHeaderMaximum))

	assert.Equal(t, "t1", wr.UnknownRequestHeader("x-trace"))
	assert.Equal(t, "one,two", wr.UnknownRequestHeader("X-Multi"))

	assert.Equal(t, [][2]string{
		{"X-Multi", "one,two"},
		{"X-Trace", "t1"},
	}, wr.UnknownRequestHeaders())
}

func TestServerVariables(t *testing.T) {
	wr, _ := newRequest(t, "GET /app/ HTTP/1.1\r\nHost: x\r\nUser-Agent: ua\r\n\r\n")

	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"HTTPS", "off", true},
		{"HTTP_USER_AGENT", "ua", true},
		{"LOGON_USER", "", true},
		{"AUTH_TYPE", "", true},
		{"REMOTE_ADDR", "", false},
		{"https", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := wr.ServerVariable(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.value, v)
		})
	}
}

func TestReadEntityBody(t *testing.T) {
	wr, _ := newRequest(t, "POST /app/x HTTP/1.1\r\nHost: x\r\nContent-Length: 11\r\n\r\nhello world")

	buf := make([]byte, 4)
	var got []byte
	for {
		n, err := wr.ReadEntityBody(buf)
		got = append(got, buf[:n]...)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, "hello world", string(got))
	assert.Equal(t, "hello world", string(wr.EntityBody()))

	n, err := wr.ReadEntityBody(buf)
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

func TestResponseWrites(t *testing.T) {
	wr, out := newRequest(t, get("/app/x"))

	wr.SendStatus(201, "Created")
	wr.SendKnownResponseHeader(pipeline.HeaderContentType, "text/plain")
	wr.SendKnownResponseHeader(pipeline.HeaderSetCookie, "a=1")
	wr.AppendUnknownResponseHeader("Set-Cookie", "b=2")
	wr.SendKnownResponseHeader(99, "ignored")
	wr.SendUnknownResponseHeader("X-App", "v1")
	wr.SendUnknownResponseHeader("X-App", "v2")
	wr.SendResponseFromMemory([]byte("abc"))
	wr.SendResponseFromMemory([]byte("def"))
	wr.SendResponseFromHandle(3, 0, 10)
	wr.FlushResponse(true)
	wr.EndOfRequest()
	wr.CloseConnection()
	assert.Zero(t, wr.UserToken())

	resp := flushed(t, wr, out)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, []string{"a=1", "b=2"}, resp.Header.Values("Set-Cookie"))
	assert.Equal(t, "v2", resp.Header.Get("X-App"))

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "abcdef", string(body))
}

func TestSendResponseFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	tests := []struct {
		name   string
		offset int64
		length int64
		want   string
	}{
		{"whole file", 0, 10, "0123456789"},
		{"middle range", 3, 4, "3456"},
		{"range past end", 8, 10, "89"},
		{"offset past end", 20, 5, ""},
		{"zero length", 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wr, out := newRequest(t, get("/app/data.txt"))
			require.NoError(t, wr.SendResponseFromFile(path, tt.offset, tt.length))

			resp := flushed(t, wr, out)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestSendResponseFromFile_Missing(t *testing.T) {
	wr, _ := newRequest(t, get("/app/none"))
	err := wr.SendResponseFromFile(filepath.Join(t.TempDir(), "none"), 0, 5)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
