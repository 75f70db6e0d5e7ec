package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/burnwatch/service/monitor"
	"github.com/brojonat/burnwatch/service/signing"
)

const maxRequestBodySize = 10 << 20 // 10MB per delivery

// BatchHandler runs a webhook body through the burn pipeline.
type BatchHandler interface {
	HandleBatch(ctx context.Context, raw []byte) (monitor.Summary, error)
}

// CacheSizer reports the number of live token metadata entries.
type CacheSizer interface {
	Len() int
}

type signatureVerifier struct {
	secret string
	token  string
	header string
}

// enabled is false only when the operator explicitly allowed unsigned
// webhooks; config validation requires a secret or a token otherwise.
func (v signatureVerifier) enabled() bool {
	return v.secret != "" || v.token != ""
}

// verify checks the Authorization token first, then the body signature.
// Each check runs only when its credential is configured.
func (v signatureVerifier) verify(r *http.Request, body []byte) bool {
	if v.token != "" && !signing.VerifyToken(r.Header.Get(signing.AuthorizationHeader), v.token) {
		return false
	}
	if v.secret != "" && !signing.Verify(body, r.Header.Get(v.signatureHeader()), v.secret) {
		return false
	}
	return true
}

func (v signatureVerifier) signatureHeader() string {
	if v.header == "" {
		return signing.DefaultHeader
	}
	return v.header
}

// handleWebhook returns a handler that accepts a provider webhook delivery.
// POST /webhook
func handleWebhook(batches BatchHandler, verifier signatureVerifier, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, "request body too large", http.StatusBadRequest)
				return
			}
			logger.WarnContext(r.Context(), "failed to read webhook body", "error", err)
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if verifier.enabled() && !verifier.verify(r, body) {
			logger.WarnContext(r.Context(), "webhook signature verification failed",
				"remote_addr", r.RemoteAddr,
				"signature_present", r.Header.Get(verifier.signatureHeader()) != "",
				"authorization_present", r.Header.Get(signing.AuthorizationHeader) != "",
			)
			writeError(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		summary, err := batches.HandleBatch(r.Context(), body)
		if err != nil {
			if errors.Is(err, monitor.ErrNotArray) {
				logger.DebugContext(r.Context(), "rejected webhook body", "error", err)
				writeError(w, "request body must be a JSON array", http.StatusBadRequest)
				return
			}
			logger.ErrorContext(r.Context(), "webhook processing failed", "error", err)
			writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		logger.DebugContext(r.Context(), "webhook handled",
			"received", summary.Received,
			"burns", summary.Burns,
			"notified", summary.Notified,
		)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

type healthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Monitoring string `json:"monitoring"`
	Program    string `json:"program"`
	CacheSize  int    `json:"cacheSize"`
}

// handleHealth reports liveness and the token cache size.
// GET /health
func handleHealth(cache CacheSizer, programID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := 0
		if cache != nil {
			size = cache.Len()
		}
		writeJSON(w, healthResponse{
			Status:     "healthy",
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
			Monitoring: "LP Burns",
			Program:    programID,
			CacheSize:  size,
		}, http.StatusOK)
	})
}

type infoResponse struct {
	Name       string            `json:"name"`
	Version    string            `json:"version"`
	Status     string            `json:"status"`
	Endpoints  map[string]string `json:"endpoints"`
	Monitoring struct {
		Program     string `json:"program"`
		Description string `json:"description"`
	} `json:"monitoring"`
}

// handleInfo describes the service.
// GET /
func handleInfo(programID string, streaming bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := infoResponse{
			Name:    "burnwatch",
			Version: Version,
			Status:  "running",
			Endpoints: map[string]string{
				"health":  "/health",
				"webhook": "/webhook",
				"metrics": "/metrics",
			},
		}
		if streaming {
			resp.Endpoints["stream"] = "/api/v1/stream/burns"
		}
		resp.Monitoring.Program = programID
		resp.Monitoring.Description = "Real-time LP burn detection"
		writeJSON(w, resp, http.StatusOK)
	})
}

func handleNotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Endpoint not found", http.StatusNotFound)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
