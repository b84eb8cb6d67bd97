package server

import (
	"time"

	"github.com/agbru/parsort/internal/logging"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. A nil logger keeps the default.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStatus registers the provider behind /status. It must be safe to
// call from the HTTP goroutines.
func WithStatus(fn func() any) Option {
	return func(s *Server) { s.status = fn }
}

// WithTimeouts overrides the HTTP timeouts.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) { s.timeouts = timeouts }
}

// Timeouts holds the HTTP server timeouts.
type Timeouts struct {
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// DefaultServerTimeouts suits a scrape endpoint.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		ShutdownTimeout: 5 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     2 * time.Minute,
	}
}
