// Package logging configures structured logging for netty.
//
// It wraps log/slog so every component logs the same way. Components accept a
// *slog.Logger through an option and fall back to Nop when none is given:
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelDebug,
//	    Format: logging.FormatJSON,
//	})
//
//	srv, err := server.New("./site", "/app/", server.WithLogger(logger))
//
// Loggers handed to an isolation domain carry a "domain_id" attribute, so log
// lines from two hosted applications sharing a process can be told apart.
package logging
