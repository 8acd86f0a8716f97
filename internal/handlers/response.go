package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"blogtwin-backend/internal/llm"
	"blogtwin-backend/internal/models"
	"blogtwin-backend/internal/queue"
	"blogtwin-backend/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithDetails(code, message string, details []string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// requireFields answers 400 listing every empty field and reports whether
// the request may proceed.
func requireFields(w http.ResponseWriter, r *http.Request, values map[string]string) bool {
	fields := map[string]string{}
	for name, v := range values {
		if v == "" {
			fields[name] = "is required"
		}
	}
	if len(fields) == 0 {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
	return false
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorRespWithDetails("VALIDATION_ERROR", "Validation failed", verr.Errors, r))
		return
	case errors.Is(err, services.ErrNoStyleProfile):
		writeJSON(w, http.StatusNotFound, errorResp("STYLE_PROFILE_NOT_FOUND", "No style profile yet, analyze some posts first", r))
		return
	case errors.Is(err, services.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Resource not found", r))
		return
	case errors.Is(err, services.ErrNoPosts):
		writeJSON(w, http.StatusUnprocessableEntity, errorResp("VALIDATION_ERROR", "At least one post is required", r))
		return
	case errors.Is(err, queue.ErrQueueCleared):
		writeJSON(w, http.StatusServiceUnavailable, errorResp("QUEUE_CLEARED", "Request was cancelled, try again", r))
		return
	case errors.Is(err, queue.ErrCallTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorResp("TIMEOUT", llm.ErrTimeout.Message, r))
		return
	}

	switch llm.KindOf(err) {
	case llm.KindQuotaExceeded:
		writeJSON(w, http.StatusPaymentRequired, errorResp("QUOTA_EXCEEDED", llm.ErrQuotaExceeded.Message, r))
	case llm.KindInvalidRequest:
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_REQUEST", llm.ErrInvalidRequest.Message, r))
	case llm.KindRateLimited:
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", llm.ErrRateLimited.Message, r))
	case llm.KindMalformedResponse:
		writeJSON(w, http.StatusBadGateway, errorResp("MALFORMED_RESPONSE", llm.ErrMalformedResponse.Message, r))
	case llm.KindTimeout:
		writeJSON(w, http.StatusGatewayTimeout, errorResp("TIMEOUT", llm.ErrTimeout.Message, r))
	case llm.KindProvider:
		log.Printf("handlers: provider error: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResp("PROVIDER_ERROR", providerMessage(err), r))
	default:
		log.Printf("handlers: unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

// providerMessage passes the upstream message through to the client.
func providerMessage(err error) string {
	var lerr *llm.Error
	if errors.As(err, &lerr) && lerr.Message != "" {
		return lerr.Message
	}
	return err.Error()
}
