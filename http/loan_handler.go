package http

import (
	"net/http"

	"go.uber.org/zap"

	"student-loan/domain"
	"student-loan/service"
)

type LoanHandler struct {
	service *service.LoanService
	logger  *zap.Logger
}

func NewLoanHandler(service *service.LoanService, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{service: service, logger: logger}
}

// OpenLoan handles POST /loans.
func (h *LoanHandler) OpenLoan(w http.ResponseWriter, r *http.Request) {
	var input domain.OpenLoanInput
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	view, err := h.service.OpenLoan(r.Context(), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.Header().Set("Location", "/loans/"+view.ID)
	writeJSON(w, h.logger, http.StatusCreated, view)
}

// GetLoan handles GET /loans/{id}.
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	view, err := h.service.GetLoan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

// QuoteInterest handles GET /loans/{id}/interest.
func (h *LoanHandler) QuoteInterest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	quote, err := h.service.QuoteInterest(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, quote)
}

// ApplyPayment handles POST /loans/{id}/payments.
func (h *LoanHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	var input domain.PaymentInput
	if !decodeJSON(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.ApplyPayment(r.Context(), r.PathValue("id"), input)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}
