package http

import "net/http"

// NewRouter mounts the loan endpoints behind the rate limiter.
func NewRouter(loans *LoanHandler, limiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RateLimitMiddleware(limiter, loans.logger, fn))
	}

	handle("/loans", loans.OpenLoan)
	handle("/loans/{id}", loans.GetLoan)
	handle("/loans/{id}/interest", loans.QuoteInterest)
	handle("/loans/{id}/payments", loans.ApplyPayment)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}
