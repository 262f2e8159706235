package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/felixge/httpsnoop"
	"github.com/gorilla/handlers"
)

// AccessLog logs one line per request once the handler has returned.
func AccessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", m.Code,
				"bytes", m.Written,
				"duration", m.Duration,
				"request_id", GetRequestID(r.Context()),
			}
			switch {
			case m.Code >= http.StatusInternalServerError:
				logger.Error("request", fields...)
			case m.Code >= http.StatusBadRequest:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}

// panicBody matches the JSON error body the handlers send for a 500.
const panicBody = `{"message":"Internal server error"}`

// Recover turns handler panics into a JSON 500 response and logs them with
// the stack. It must sit inside AccessLog so the 500 is still logged.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recover(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("panic while serving request",
					"panic", v,
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(panicBody))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ProxyHeaders rewrites RemoteAddr, scheme and host from X-Forwarded-* headers.
// Only enable it behind a trusted reverse proxy.
func ProxyHeaders(next http.Handler) http.Handler {
	return handlers.ProxyHeaders(next)
}
