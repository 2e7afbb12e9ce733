// Package handlers implements the normalizer's HTTP endpoints.
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/telhawk-systems/cdm-normalizer/common/httputil"
	"github.com/telhawk-systems/cdm-normalizer/common/logging"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/dlq"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/formatter"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/indexname"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/record"
	"github.com/telhawk-systems/cdm-normalizer/normalizer/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// ProcessorHandler manages normalization HTTP endpoints.
type ProcessorHandler struct {
	processor    *service.Processor
	maxBodyBytes int64
	logger       *logging.Logger
}

// NewProcessorHandler constructs a new handler. maxBodyBytes <= 0 disables
// the request size cap.
func NewProcessorHandler(p *service.Processor, maxBodyBytes int64, logger *logging.Logger) *ProcessorHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProcessorHandler{processor: p, maxBodyBytes: maxBodyBytes, logger: logger}
}

// NormalizationResponse returns the normalized record.
type NormalizationResponse struct {
	Tag       string            `json:"tag"`
	Formatter formatter.Type    `json:"formatter,omitempty"`
	Index     indexname.Outcome `json:"index_name"`
	Record    record.Record     `json:"record"`
}

// Normalize handles POST /api/v1/normalize. The body is one envelope.
func (h *ProcessorHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}

	body := io.Reader(r.Body)
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
			return
		}
		httputil.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx := r.Context()
	env, err := h.processor.Decode(ctx, data, "http")
	if err != nil {
		h.logger.WithContext(ctx).Warn("rejected envelope",
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			"remote", httputil.GetClientIP(r),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusBadRequest, "invalid_envelope", err.Error())
		return
	}

	res := h.processor.Normalize(ctx, env)
	httputil.WriteJSON(w, http.StatusOK, NormalizationResponse{
		Tag:       env.Tag,
		Formatter: res.Formatter,
		Index:     res.Index,
		Record:    res.Record,
	})
}

// Health handles GET /healthz.
func (h *ProcessorHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.processor.Health())
}

// DLQ handles GET (list) and DELETE (purge) on /api/v1/dlq.
func (h *ProcessorHandler) DLQ(w http.ResponseWriter, r *http.Request) {
	queue := h.processor.DLQ()
	if queue == nil {
		httputil.WriteError(w, http.StatusNotFound, "dlq_disabled", dlq.ErrDisabled.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := queue.List(r.Context(), httputil.ParseLimit(r, defaultListLimit, maxListLimit))
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "dlq_read_failed", err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries, "stats": queue.Stats()})
	case http.MethodDelete:
		n, err := queue.Purge(r.Context())
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, "dlq_purge_failed", err.Error())
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]int{"purged": n})
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

// DeleteDLQEntry handles DELETE /api/v1/dlq/{id}.
func (h *ProcessorHandler) DeleteDLQEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		httputil.MethodNotAllowed(w, http.MethodDelete)
		return
	}

	err := h.processor.DLQ().Delete(r.Context(), r.PathValue("id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, dlq.ErrNotFound), errors.Is(err, dlq.ErrDisabled):
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, "dlq_delete_failed", err.Error())
	}
}
