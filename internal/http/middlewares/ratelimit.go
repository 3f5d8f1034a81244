package middlewares

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	httperrors "github.com/dropDatabas3/depotmaster/internal/http/errors"
	"github.com/dropDatabas3/depotmaster/internal/observability/logger"
	"github.com/dropDatabas3/depotmaster/internal/rate"
)

// WithLoginRateLimit acota intentos de login por IP. Con limiter nil es
// pass-through (rate limiting apagado).
func WithLoginRateLimit(limiter rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "login:" + ClientIP(r)
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// limiter caído no bloquea logins; se loguea y sigue
				logger.Named("http").Error("rate limiter falló", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				httperrors.WriteError(w, httperrors.ErrRateLimited)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// trustProxy habilita leer X-Forwarded-For. Solo corresponde detrás de un
// reverse proxy que pise el header; expuesto directo, cualquier cliente lo
// falsifica y con él la key del rate limit y el source_ip de auditoría.
var trustProxy bool

// TrustProxyHeaders se llama una vez al arranque, según configuración.
func TrustProxyHeaders(v bool) { trustProxy = v }

// ClientIP resuelve la IP del cliente: X-Forwarded-For solo con proxy
// confiable configurado, si no RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
