package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

func RateLimitMiddleware(
	limiter *RateLimiter,
	logger *zap.Logger,
	next http.Handler,
) http.Handler {

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		ok, wait := limiter.Allow(ip)
		if !ok {
			logger.Info("rate limit exceeded",
				zap.String("client", ip),
				zap.String("path", r.URL.Path),
				zap.Duration("retry_after", wait),
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}
