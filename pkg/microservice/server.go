package microservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const readHeaderTimeout = 10 * time.Second

// Start binds the configured port and serves in the background. Use Port to
// find the bound port when ":0" was configured.
func (s *AdminServer) Start() error {
	ln, err := net.Listen("tcp", s.port)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.port, err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.logger.Info().Str("address", ln.Addr().String()).Msg("Admin server listening.")

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Admin server failed.")
		}
	}()
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones until ctx is done.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down admin server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Admin server shutdown failed.")
		return err
	}
	s.logger.Info().Msg("Admin server stopped.")
	return nil
}

// Port returns ":<port>" for the bound listener, or the configured port
// before Start.
func (s *AdminServer) Port() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, port, err := net.SplitHostPort(s.addr); err == nil {
		return ":" + port
	}
	return s.port
}

// Handler returns the routes wrapped in request logging.
func (s *AdminServer) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *AdminServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("elapsed", time.Since(start)).
			Msg("Admin request served.")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
