// Package pipeline defines the boundary between the host and the application
// it runs.
//
// The host never interprets application requests itself. For every connection
// it builds a WorkerRequest (see package worker) and hands it to a Pipeline,
// which routes the request, runs whatever the application does, and writes the
// status, headers and body back through the same WorkerRequest.
//
// Two small pipelines ship with the package: StaticFiles serves files from the
// application's physical directory, and HTTPHandler runs a net/http Handler
// against the worker request so ordinary Go handlers can be hosted.
package pipeline
