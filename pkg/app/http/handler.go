// Package http adapts error-returning handlers to net/http and maps
// ServiceError categories onto response codes.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/payflow-labs/payflow/pkg/app/errors"
)

// HandlerFunc is an HTTP handler that reports failure through its return
// value instead of writing the error response itself.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// HandleError adapts h into a standard http.HandlerFunc, routing any
// returned error through DefaultErrorHandler:
//
//	r.Post("/transfers", apphttp.HandleError(handler.submit))
func HandleError(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			DefaultErrorHandler(w, err)
		}
	}
}

type errorResponse struct {
	ErrMsg     string `json:"error"`
	ErrMsgCode int    `json:"code"`
}

// DefaultErrorHandler writes the JSON error body for err. ServiceError gets
// its category status and user-facing message; anything else is masked as a
// 500 so internal detail never reaches the client.
func DefaultErrorHandler(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	var svcErr *apperrors.ServiceError
	if errors.As(err, &svcErr) {
		w.WriteHeader(svcErr.StatusCode())
		_ = json.NewEncoder(w).Encode(&errorResponse{
			ErrMsg:     svcErr.Message,
			ErrMsgCode: svcErr.StatusCode(),
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(&errorResponse{
		ErrMsg:     "Unexpected Service Error",
		ErrMsgCode: http.StatusInternalServerError,
	})
}
