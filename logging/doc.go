// Package logging provides a minimal logging interface and adapters for ircmesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the client and its subsystems use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - ClientLogger with wire/dispatch helpers and contextual attributes
//
// Usage:
//
//	logger := logging.NewLogger(&logging.LoggerConfig{Level: logging.LogLevelDebug, Format: "text"})
//	client, err := ircmesh.NewClient("irc.example.net:6697", ircmesh.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor lock-in
// while supporting structured logging where available.
package logging
