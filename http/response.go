package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"student-loan/domain"
	"student-loan/repository"
	"student-loan/service"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes into a buffer first so a failed encode does not leave a
// half-written 200 behind.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logger.Error("encode response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("write response", zap.Error(err))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrValidation), errors.Is(err, domain.ErrInvalidLoan):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOverpayment),
		errors.Is(err, domain.ErrUnderpayment),
		errors.Is(err, domain.ErrInvalidPayment):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, logger, status, errorResponse{Error: msg})
}

// decodeJSON enforces the method, content type and body size shared by
// every POST endpoint. It reports false once it has written an error.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Debug("decode request body", zap.Error(err))
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
