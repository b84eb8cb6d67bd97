package server

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Default request budget of the telemetry endpoints, shared by all clients.
const (
	DefaultRateLimit rate.Limit = 50
	DefaultRateBurst            = 100
)

// WithRateLimit replaces the request budget. rate.Inf disables limiting.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(s *Server) { s.limiter = rate.NewLimiter(limit, burst) }
}

// limit rejects requests over the budget with 429.
func (s *Server) limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next(w, r)
	}
}
