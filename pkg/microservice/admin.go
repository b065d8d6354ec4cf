package microservice

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/illmade-knight/go-catalog/pkg/cache"
	"github.com/illmade-knight/go-catalog/pkg/invalidation"
	"github.com/rs/zerolog"
)

// CacheAdmin is the part of the cache the admin endpoints operate on.
type CacheAdmin interface {
	cache.Invalidator
	Stats() cache.Stats
}

// AdminServer exposes a health check, cache inspection and manual
// invalidation over HTTP. Manual invalidations are applied locally and
// broadcast through publisher.
type AdminServer struct {
	cache     CacheAdmin
	publisher invalidation.Publisher
	origin    string
	logger    zerolog.Logger

	port       string
	httpServer *http.Server

	mu   sync.RWMutex
	addr string
}

type invalidateRequest struct {
	Keys []string `json:"keys"`
}

type invalidateResponse struct {
	Invalidated []string `json:"invalidated"`
	Cleared     bool     `json:"cleared,omitempty"`
}

// NewAdminServer builds the server; call Start to begin listening on httpPort.
func NewAdminServer(logger zerolog.Logger, httpPort string, c CacheAdmin, publisher invalidation.Publisher, origin string) *AdminServer {
	if publisher == nil {
		publisher = invalidation.NopPublisher{}
	}
	s := &AdminServer{
		cache:     c,
		publisher: publisher,
		origin:    origin,
		logger:    logger.With().Str("component", "AdminServer").Logger(),
		port:      httpPort,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /cache/stats", s.handleStats)
	mux.HandleFunc("POST /cache/clear", s.handleClear)
	mux.HandleFunc("POST /cache/invalidate", s.handleInvalidate)

	s.httpServer = &http.Server{
		Addr:              httpPort,
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *AdminServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *AdminServer) handleClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	if err := s.publisher.Publish(r.Context(), invalidation.NewClearEvent(s.origin)); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to broadcast cache clear.")
	}
	s.logger.Info().Msg("Cache cleared by admin request.")
	writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: []string{}, Cleared: true})
}

func (s *AdminServer) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Keys) == 0 {
		http.Error(w, "keys cannot be empty", http.StatusBadRequest)
		return
	}

	s.cache.InvalidateMany(req.Keys...)
	if err := s.publisher.Publish(r.Context(), invalidation.NewEvent(s.origin, req.Keys...)); err != nil {
		s.logger.Warn().Err(err).Strs("keys", req.Keys).Msg("Failed to broadcast cache invalidation.")
	}
	s.logger.Info().Strs("keys", req.Keys).Msg("Cache keys invalidated by admin request.")
	writeJSON(w, http.StatusOK, invalidateResponse{Invalidated: req.Keys})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
