package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/burnwatch/service/config"
	"github.com/brojonat/burnwatch/service/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by GET / (set via ldflags during build).
var Version = "dev"

// Server represents the HTTP server for the burn monitor.
type Server struct {
	addr    string
	cfg     *config.Config
	batches BatchHandler
	cache   CacheSizer
	stream  *BurnStream
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The stream is optional - if nil, the SSE endpoint won't be available.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, batches BatchHandler, cache CacheSizer, stream *BurnStream, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		cfg:     cfg,
		batches: batches,
		cache:   cache,
		stream:  stream,
		metrics: m,
		logger:  logger,
	}
}

// Handler builds the routed handler. Start serves it; tests use it directly.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	instrument := func(name string, h http.Handler) http.Handler {
		return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
	}

	verifier := signatureVerifier{
		secret: s.cfg.WebhookSecret,
		token:  s.cfg.WebhookAuthToken,
		header: s.cfg.WebhookSignatureHeader,
	}

	mux.Handle("POST /webhook", instrument("/webhook", handleWebhook(s.batches, verifier, s.logger)))
	mux.Handle("GET /health", instrument("/health", handleHealth(s.cache, s.cfg.TargetProgramID)))
	mux.Handle("GET /{$}", instrument("/", handleInfo(s.cfg.TargetProgramID, s.stream != nil)))

	if s.stream != nil {
		mux.Handle("GET /api/v1/stream/burns", handleStreamBurns(s.stream, s.metrics, s.logger))
		s.logger.Info("SSE streaming endpoint enabled")
	} else {
		s.logger.Warn("NATS not configured, streaming endpoint disabled")
	}

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	mux.Handle("/", handleNotFound())

	return recoverMiddleware(corsMiddleware(mux), s.logger)
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE responses stay open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	// Close the stream first (disconnects all SSE clients)
	if s.stream != nil {
		s.stream.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Webhook-Signature")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns a handler panic into a logged 500.
func recoverMiddleware(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.ErrorContext(r.Context(), "unhandled panic",
				"method", r.Method,
				"path", r.URL.Path,
				"panic", fmt.Sprint(rec),
			)
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}
