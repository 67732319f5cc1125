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
	"github.com/payflow-labs/payflow/pkg/wallet"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers wallet binding endpoints on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/wallets/bind", apphttp.HandleError(h.bind))
	r.Get("/wallets/{userID}/{chainID}", apphttp.HandleError(h.get))
}

func (h *HTTP) bind(w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req wallet.BindRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	resp, err := h.service.BindWallet(r.Context(), &req)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if resp.Status == wallet.BindStatusPendingConnection {
		status = http.StatusAccepted
	}
	h.writeJSON(w, status, resp)
	return nil
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	userID := chi.URLParam(r, "userID")
	chainID, err := strconv.ParseInt(chi.URLParam(r, "chainID"), 10, 64)
	if err != nil {
		return apperrors.BadRequestError(err, "invalid chain id")
	}

	view, err := h.service.GetBinding(r.Context(), userID, chainID)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, view)
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}
