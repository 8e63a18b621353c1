// Package api serves the most recent report over HTTP.
package api

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/wesm/mailtrends/internal/config"
	"github.com/wesm/mailtrends/internal/report"
	"github.com/wesm/mailtrends/internal/scheduler"
)

// Refresher defines the scheduler operations the API needs.
type Refresher interface {
	Trigger() error
	Status() scheduler.Status
}

// Server represents the HTTP report server.
type Server struct {
	cfg         config.ServerConfig
	refresher   Refresher
	logger      *slog.Logger
	router      chi.Router
	server      *http.Server
	rateLimiter *RateLimiter

	result atomic.Pointer[report.Result]
}

// NewServer creates a new report server. refresher may be nil, in which case
// POST /refresh is unavailable.
func NewServer(cfg config.ServerConfig, refresher Refresher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		refresher: refresher,
		logger:    logger,
	}
	s.router = s.setupRouter()
	return s
}

// Publish replaces the served report. Requests in flight keep the result
// they started with.
func (s *Server) Publish(res *report.Result) {
	s.result.Store(res)
	s.logger.Info("published report",
		"messages", res.Corpus.Len(),
		"threads", len(res.Threads),
		"generated_at", res.GeneratedAt)
}

// Result returns the served report, or nil before the first Publish.
func (s *Server) Result() *report.Result {
	return s.result.Load()
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(s.loggerMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	rps := s.cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	s.rateLimiter = NewRateLimiter(rps, max(1, int(math.Ceil(rps*2))))
	r.Use(RateLimitMiddleware(s.rateLimiter))

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/", s.handleHTML)
	r.Get("/report.json", s.handleJSON)
	r.Get("/report.txt", s.handleText)
	r.With(s.authMiddleware).Post("/refresh", s.handleRefresh)

	return r
}

// Start begins listening for HTTP requests.
// Returns an error if the security posture is invalid.
func (s *Server) Start() error {
	if err := s.cfg.ValidateSecure(); err != nil {
		return err
	}

	bindAddr := s.cfg.BindAddr
	if bindAddr == "" {
		bindAddr = "127.0.0.1"
	}
	addr := net.JoinHostPort(bindAddr, strconv.Itoa(s.cfg.APIPort))

	if s.cfg.APIKey == "" {
		s.logger.Warn("report server running without authentication; set [server] api_key to protect /refresh")
	}

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting report server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Close()
	if s.server == nil {
		return nil
	}
	s.logger.Info("shutting down report server")
	return s.server.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// loggerMiddleware logs HTTP requests.
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// authMiddleware validates the API key.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get("Authorization")
		if key == "" {
			key = r.Header.Get("X-API-Key")
		}
		key = strings.TrimPrefix(key, "Bearer ")

		if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
			s.logger.Warn("unauthorized request",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
