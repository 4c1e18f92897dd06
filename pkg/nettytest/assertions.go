package nettytest

import (
	"net/url"
	"strings"
	"testing"
)

// RequestLog is a served request, for assertions.
type RequestLog struct {
	Method string
	// Path is relative to the virtual path and begins with '/'.
	Path string
	// Headers hold the first value of each request header.
	Headers     map[string]string
	QueryString string
	BodySize    int
	// Status is the response status code.
	Status int
}

// AssertHeader asserts that the request had the header with the expected
// value. Names match without regard to case.
func (r *RequestLog) AssertHeader(t testing.TB, key, expected string) {
	t.Helper()

	actual, ok := r.header(key)
	if !ok {
		t.Errorf("request does not have header %q", key)
		return
	}
	if actual != expected {
		t.Errorf("header %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertHeaderExists asserts that the request had the header.
func (r *RequestLog) AssertHeaderExists(t testing.TB, key string) {
	t.Helper()
	if _, ok := r.header(key); !ok {
		t.Errorf("request does not have header %q", key)
	}
}

func (r *RequestLog) header(key string) (string, bool) {
	if v, ok := r.Headers[key]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return "", false
}

// AssertQueryParam asserts that the request had the query parameter with the
// expected value.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	params, err := url.ParseQuery(r.QueryString)
	if err != nil {
		t.Errorf("query string %q does not parse: %v", r.QueryString, err)
		return
	}
	if !params.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := params.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}

// AssertStatus asserts the response status code.
func (r *RequestLog) AssertStatus(t testing.TB, expected int) {
	t.Helper()
	if r.Status != expected {
		t.Errorf("response status mismatch\nexpected: %d\nactual: %d", expected, r.Status)
	}
}
