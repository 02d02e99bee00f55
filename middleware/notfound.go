// middleware/notfound.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactform/httputil"
	"go.uber.org/zap"
)

// NotFoundHandler logs a 404 and answers in plain text, matching the rest of
// the service. Pass it to chi.Router.NotFound.
func NotFoundHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("not_found",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		httputil.WriteText(w, http.StatusNotFound, "Not found.")
	}
}

// MethodNotAllowedHandler logs a 405 and answers in plain text.
// Pass it to chi.Router.MethodNotAllowed.
func MethodNotAllowedHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if logger != nil {
			logger.Info("method_not_allowed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_ip", r.RemoteAddr),
			)
		}
		httputil.WriteText(w, http.StatusMethodNotAllowed, "Invalid request method.")
	}
}
