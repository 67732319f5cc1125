package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/payflow-labs/payflow/pkg/app/errors"
	apphttp "github.com/payflow-labs/payflow/pkg/app/http"
	"github.com/payflow-labs/payflow/pkg/transfer"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers transfer endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/transfers", apphttp.HandleError(h.submit))
	r.Get("/transfers", apphttp.HandleError(h.list))
	r.Get("/transfers/{txHash}", apphttp.HandleError(h.get))
}

func (h *HTTP) submit(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req transfer.SubmitTransferRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	resp, err := h.service.Submit(r.Context(), &req)
	if err != nil {
		return err
	}

	// The transfer is submitted but not confirmed; the caller polls the
	// tx hash endpoint for the terminal status.
	h.writeJSON(w, http.StatusAccepted, resp)
	return nil
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	txHash := chi.URLParam(r, "txHash")
	if txHash == "" {
		return apperrors.BadRequestError(nil, "tx hash required")
	}

	view, err := h.service.GetByTxHash(r.Context(), txHash)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, view)
	return nil
}

func (h *HTTP) list(w http.ResponseWriter, r *http.Request) error {
	address := r.URL.Query().Get("address")
	if address == "" {
		return apperrors.BadRequestError(nil, "address query parameter required")
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.BadRequestError(err, "invalid limit")
		}
		limit = parsed
	}

	views, err := h.service.ListByAddress(r.Context(), address, limit)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, views)
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
