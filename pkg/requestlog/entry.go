package requestlog

import "time"

// Entry captures one request and the response sent for it.
type Entry struct {
	// ID is a unique, time-ordered identifier assigned by the store.
	ID string `json:"id"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	// DomainID identifies the isolation domain that served the request.
	DomainID string `json:"domainId,omitempty"`

	Method      string              `json:"method"`
	Path        string              `json:"path"`
	QueryString string              `json:"queryString,omitempty"`
	Headers     map[string][]string `json:"headers,omitempty"`

	// BodySize is the request body size in bytes.
	BodySize int `json:"bodySize"`

	// RemoteAddr is the client address in host:port form.
	RemoteAddr string `json:"remoteAddr"`

	ResponseStatus int `json:"responseStatus"`

	// ResponseSize is the response body size in bytes.
	ResponseSize int `json:"responseSize"`

	// Duration is the time from accepting the connection to flushing the
	// response.
	Duration time.Duration `json:"duration"`

	// Error contains the processing error, if any.
	Error string `json:"error,omitempty"`
}
