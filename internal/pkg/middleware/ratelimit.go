package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"gousers/internal/pkg/cache"
	"gousers/internal/pkg/logger"
	"gousers/internal/pkg/metrics"
)

// RateLimiter aplica uma janela fixa por IP usando contadores no cache.
// Se o cache falhar a requisição segue (fail-open) e a falha é registrada.
func RateLimiter(client cache.Client, limit int, period time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + ip

			count, err := client.Incr(r.Context(), key, period)
			if err != nil {
				log.Warn("Rate limiter indisponível; requisição liberada.", map[string]interface{}{"ip": ip, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				metrics.RecordRateLimited()
				w.Header().Set("Retry-After", strconv.Itoa(int(period.Seconds())))
				WriteErrorBody(w, http.StatusTooManyRequests, "RATE_LIMITED", "Limite de requisições excedido. Tente novamente mais tarde.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
