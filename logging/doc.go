// Package logging provides a minimal logging interface and adapters for the
// lettago client.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn,
// Error) that the client uses for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ClientLogger with request and timing helpers (the client times streams
//     from open to Close)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	c, err := client.New("http://localhost:8283", func(o *client.Options) { o.Logger = logger })
//
// The interface is kept minimal so any structured logger can be plugged in.
package logging
