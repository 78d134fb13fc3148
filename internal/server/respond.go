package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tokensale-go/internal/sale"
	"tokensale-go/internal/store"

	"go.uber.org/zap"
)

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondData(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(envelope{Status: "success", Data: data}); err != nil {
		zap.L().Error("Failed to encode response", zap.Error(err))
	}
}

func respondMessage(w http.ResponseWriter, code int, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := envelope{Status: "error", Data: errorBody{Message: message, Field: field}}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("Failed to encode error response", zap.Error(err))
	}
}

// respondError maps a service error to an HTTP status. Validation
// failures are the caller's fault and never retried; concurrent
// modification and inventory exhaustion are retryable server-side
// conditions.
func respondError(w http.ResponseWriter, err error) {
	var validation *sale.ValidationError
	switch {
	case errors.As(err, &validation):
		respondMessage(w, http.StatusBadRequest, validation.Message, validation.Field)
	case errors.Is(err, store.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "not found", "")
	case errors.Is(err, store.ErrNoActivePhase):
		respondMessage(w, http.StatusBadRequest, "sale has no active phase", "phase")
	case errors.Is(err, store.ErrDuplicateTransaction):
		respondMessage(w, http.StatusConflict, err.Error(), "")
	default:
		zap.L().Error("Request failed", zap.Error(err))
		respondMessage(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondMessage(w, http.StatusBadRequest, "invalid request body: "+err.Error(), "")
		return false
	}
	return true
}
