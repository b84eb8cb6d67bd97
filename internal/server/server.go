package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/agbru/parsort/internal/errors"
	"github.com/agbru/parsort/internal/logging"
)

// Server is the telemetry HTTP server.
type Server struct {
	addr       string
	httpServer *http.Server
	logger     logging.Logger
	status     func() any
	timeouts   Timeouts
	limiter    *rate.Limiter
}

// New builds a server for addr (host:port). It does not listen until Start.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		logger:   logging.Nop(),
		timeouts: DefaultServerTimeouts(),
		limiter:  rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// Handler returns the request multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", instrument("/metrics", s.limit(getOnly(metricsHandler().ServeHTTP))))
	mux.HandleFunc("/healthz", instrument("/healthz", s.limit(getOnly(s.handleHealth))))
	mux.HandleFunc("/status", instrument("/status", s.limit(getOnly(s.handleStatus))))
	return mux
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully. ready, if non-nil, receives the bound address
// once the listener is open.
func (s *Server) Start(ctx context.Context, ready chan<- net.Addr) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.NewServerError("failed to listen on "+s.addr, err)
	}
	s.logger.Info("telemetry server listening", logging.String("addr", ln.Addr().String()))
	if ready != nil {
		ready <- ln.Addr()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return apperrors.NewServerError("server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("telemetry server stopped")
	return nil
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no sweep running"})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
