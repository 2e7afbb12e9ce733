// Package server wires the HTTP routes for the normalizer service.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/telhawk-systems/cdm-normalizer/common/middleware"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/handlers"
)

// NewRouter wires HTTP routes for the normalizer service.
func NewRouter(h *handlers.ProcessorHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/normalize", h.Normalize)
	mux.HandleFunc("/api/v1/dlq", h.DLQ)
	mux.HandleFunc("/api/v1/dlq/{id}", h.DeleteDLQEntry)
	mux.HandleFunc("/healthz", h.Health)
	mux.Handle("/metrics", promhttp.Handler())
	return middleware.RequestID(mux)
}
