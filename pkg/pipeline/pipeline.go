package pipeline

import "context"

// WorkerRequest is the request surface an application pipeline consumes.
type WorkerRequest interface {
	// Verb returns the HTTP method.
	Verb() string
	// RawURL returns the request target as sent by the client.
	RawURL() string
	// URIPath returns the decoded URL path.
	URIPath() string
	// QueryString returns everything after the first '?' of the raw URL.
	QueryString() string
	// HTTPVersion returns the protocol as "HTTP/{major}.{minor}".
	HTTPVersion() string

	LocalAddress() string
	LocalPort() int
	RemoteAddress() string
	RemotePort() int

	// AppPath returns the virtual path the application is mounted at.
	AppPath() string
	// AppPathTranslated returns the application's physical root.
	AppPathTranslated() string
	// FilePath returns the part of the URL path naming the resource.
	FilePath() string
	// FilePathTranslated maps FilePath onto the physical root.
	FilePathTranslated() string
	// PathInfo returns the URL path beyond FilePath.
	PathInfo() string

	KnownRequestHeader(index int) string
	UnknownRequestHeader(name string) string
	UnknownRequestHeaders() [][2]string

	// ServerVariable returns an emulated server variable. The boolean is
	// false when the variable is not available, which differs from an
	// available but empty value.
	ServerVariable(name string) (string, bool)

	// ReadEntityBody copies request body bytes into p.
	ReadEntityBody(p []byte) (int, error)

	SendStatus(code int, description string)
	SendKnownResponseHeader(index int, value string)
	SendUnknownResponseHeader(name, value string)
	SendResponseFromMemory(p []byte)
	SendResponseFromFile(name string, offset, length int64) error
	SendResponseFromHandle(handle uintptr, offset, length int64)
	FlushResponse(final bool)
	EndOfRequest()
	CloseConnection()
	UserToken() uintptr
}

// HeaderAppender is implemented by worker requests that can send more than
// one value for a response header.
type HeaderAppender interface {
	AppendUnknownResponseHeader(name, value string)
}

// Pipeline processes one worker request. The returned boolean reports whether
// the pipeline handled the request completely.
type Pipeline interface {
	ProcessRequest(ctx context.Context, wr WorkerRequest) (bool, error)
}

// Func adapts a function to the Pipeline interface.
type Func func(ctx context.Context, wr WorkerRequest) (bool, error)

// ProcessRequest calls f.
func (f Func) ProcessRequest(ctx context.Context, wr WorkerRequest) (bool, error) {
	return f(ctx, wr)
}
