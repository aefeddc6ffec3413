// Package web serves the site's JSON API, the sitemap and the operational
// endpoints.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/pokedex-web/pkg/aggregate"
	"github.com/Sternrassler/pokedex-web/pkg/client"
	"github.com/Sternrassler/pokedex-web/pkg/logging"
	"github.com/Sternrassler/pokedex-web/pkg/metrics"
	"github.com/Sternrassler/pokedex-web/pkg/sitemap"
	"github.com/Sternrassler/pokedex-web/pkg/viewstate"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pokedex_http_requests_total",
		Help: "Total site requests by route and status",
	}, []string{"route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pokedex_http_request_duration_seconds",
		Help:    "Site request duration in seconds by route",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"route"})
)

// readyTimeout bounds the store ping of the readiness probe.
const readyTimeout = 2 * time.Second

// Config holds the server dependencies.
type Config struct {
	Aggregator *aggregate.Aggregator
	Lister     sitemap.Lister
	Store      viewstate.Store
	Navigator  *viewstate.Navigator
	// SiteURL is the public base URL written into the sitemap.
	SiteURL string
}

// Server is the site's HTTP surface.
type Server struct {
	agg     *aggregate.Aggregator
	lister  sitemap.Lister
	store   viewstate.Store
	nav     *viewstate.Navigator
	siteURL string
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a server. A nil Navigator gets a fresh one.
func New(cfg Config) (*Server, error) {
	if cfg.Aggregator == nil {
		return nil, errors.New("aggregator is required")
	}
	if cfg.Lister == nil {
		return nil, errors.New("lister is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("view state store is required")
	}
	if cfg.SiteURL == "" {
		return nil, errors.New("site url is required")
	}
	nav := cfg.Navigator
	if nav == nil {
		nav = viewstate.NewNavigator()
	}

	return &Server{
		agg:     cfg.Aggregator,
		lister:  cfg.Lister,
		store:   cfg.Store,
		nav:     nav,
		siteURL: cfg.SiteURL,
		logger:  logging.NewLogger("web"),
		now:     time.Now,
	}, nil
}

// Routes returns the request router.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/pokemon", s.handleListing)
	mux.HandleFunc("GET /api/pokemon/{name}", s.handleDetail)
	mux.HandleFunc("GET /api/pokemon/{name}/related", s.handleRelated)
	mux.HandleFunc("GET /api/pokemon/{name}/meta", s.handleMetadata)
	mux.HandleFunc("GET /api/types", s.handleTypes)
	mux.HandleFunc("GET /api/types/{name}", s.handleTypeListing)
	mux.HandleFunc("GET /api/navigation", s.handleNavigation)

	mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)

	return s.instrument(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("View state store unavailable")
		http.Error(w, "view state store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		duration := time.Since(start)
		httpRequestsTotal.WithLabelValues(route, statusLabel(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(duration.Seconds())

		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", route).
			Int("status_code", rec.status).
			Dur("duration", duration).
			Msg("Request served")
	})
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeUpstreamError maps an aggregation failure onto a response. Nothing is
// written when the request itself went away.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	if client.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Upstream request failed")
	writeError(w, http.StatusBadGateway, "upstream unavailable")
}
