package middleware

import (
	"net/http"
)

type auditLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Audit records every request to a sensitive route.
// Denied and failed requests are logged on warn level.
func Audit(l auditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw := &logWriter{
				ResponseWriter: w,
				data:           logData{responseStatus: http.StatusOK},
			}

			next.ServeHTTP(lw, r)

			status := lw.data.responseStatus
			args := []any{
				"method", r.Method,
				"uri", r.RequestURI,
				"status", status,
				"client_ip", ClientIP(r),
				"user_agent", r.UserAgent(),
				"request_id", w.Header().Get(RequestIDHeader),
			}

			switch {
			case status == http.StatusUnauthorized, status == http.StatusForbidden:
				l.Warn("audit: access denied", args...)
			case status == http.StatusTooManyRequests:
				l.Warn("audit: rate limited", args...)
			case status >= http.StatusInternalServerError:
				l.Warn("audit: request failed", args...)
			default:
				l.Info("audit: request served", args...)
			}
		})
	}
}
