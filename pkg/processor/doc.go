// Package processor forwards connection contexts to a single request handler.
//
// A Processor is resolved once per hosted application by its initializer and
// then receives every request the host accepts under the application's
// prefix. PipelineHandler is the default handler: it adapts each context into
// a worker request and runs the application pipeline against it.
package processor
