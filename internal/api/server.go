// internal/api/server.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"investor-match-workers/internal/common/config"
	"investor-match-workers/internal/common/database"
	"investor-match-workers/internal/common/logger"
	"investor-match-workers/internal/common/metrics"
	"investor-match-workers/internal/models"
	"investor-match-workers/internal/ranking"
	"investor-match-workers/internal/store"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InvestorIndexer mirrors new investors into the search index.
type InvestorIndexer interface {
	IndexInvestor(ctx context.Context, inv *models.Investor) error
}

type Deps struct {
	Startups  store.StartupStore
	Investors store.InvestorStore
	Ranking   *ranking.Service
	// Indexer is nil unless candidates come from elasticsearch.
	Indexer InvestorIndexer
	// Health is checked by /ready; nil entries are skipped.
	Health map[string]database.Pinger
	Logger logger.Logger
}

type Server struct {
	router   *mux.Router
	server   *http.Server
	deps     Deps
	limiter  *clientLimiter
	clients  *clientResolver
	maxItems int
	logger   logger.Logger
}

func NewServer(cfg config.HTTPConfig, maxItems int, deps Deps) *Server {
	if maxItems <= 0 {
		maxItems = 50
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	s := &Server{
		router:   mux.NewRouter(),
		deps:     deps,
		limiter:  newClientLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		maxItems: maxItems,
		logger:   log.WithFields(map[string]interface{}{"component": "http"}),
	}
	clients, invalid := newClientResolver(cfg.TrustedProxies)
	if len(invalid) > 0 {
		s.logger.Warn("ignoring unparseable trusted proxies", map[string]interface{}{"entries": invalid})
	}
	s.clients = clients
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  config.GetDuration(cfg.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.WriteTimeout),
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.ready).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Use(s.metricsMiddleware)
	v1.Use(s.rateLimitMiddleware)

	v1.HandleFunc("/investors", s.listInvestors).Methods(http.MethodGet)
	v1.HandleFunc("/investors", s.createInvestor).Methods(http.MethodPost)
	v1.HandleFunc("/investors/{id}", s.getInvestor).Methods(http.MethodGet)

	v1.HandleFunc("/startups", s.listStartups).Methods(http.MethodGet)
	v1.HandleFunc("/startups", s.createStartup).Methods(http.MethodPost)
	v1.HandleFunc("/startups/{id}", s.getStartup).Methods(http.MethodGet)
	v1.HandleFunc("/startups/{id}/investor-matches", s.investorMatches).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "no route for "+r.URL.Path)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.server.Addr})
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(s.clients.key(r)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug("request", map[string]interface{}{
			"method":   r.Method,
			"route":    route,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
