// Package requestlog captures a history of the requests a hosted application
// served, for inspection by tests and the console runner.
//
// It is distinct from operational logging, which goes through log/slog.
//
// # Core Types
//
// Entry is one captured request/response pair. Store is the query surface
// over a history; MemoryStore is a bounded in-memory implementation that
// evicts the oldest entry once full.
//
// # Usage
//
//	store := requestlog.NewMemoryStore(500)
//	store.Log(&requestlog.Entry{Method: "GET", Path: "/app/", ResponseStatus: 200})
//	recent := store.List(&requestlog.Filter{Limit: 10})
//
// This is a leaf package apart from internal/id, so any package may import it.
package requestlog
