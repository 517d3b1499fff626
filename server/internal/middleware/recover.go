package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// Recover turns a handler panic into a 500 JSON response and logs it with
// a stack trace. http.ErrAbortHandler is re-panicked so net/http can abort
// the connection as intended.
func Recover(logger *zap.Logger) Middleware {
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
				logger.Error("handler panic",
					zap.String("request_id", RequestIDFrom(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal server error"}` + "\n")) //nolint:errcheck
			}()
			next.ServeHTTP(w, r)
		})
	}
}
