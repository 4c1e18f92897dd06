// Package rawhttp wraps a single accepted HTTP/1.x connection.
//
// A Context reads one request off the connection and drains its body into
// memory before returning. The paired Response accumulates status, headers and
// output in memory; nothing is written to the connection until Flush, which
// sends the whole response with a Content-Length and closes the connection.
// There is no keep-alive: one connection carries exactly one exchange.
package rawhttp
