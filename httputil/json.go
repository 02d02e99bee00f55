// httputil/json.go
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// writeLogger receives write failures that happen after headers are sent.
var writeLogger = zap.NewNop()

// SetLogger configures the logger used for write failures.
// Call it once during startup.
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	writeLogger = logger
}

// WriteJSON writes v as JSON with the given status code.
// Invalid status codes (outside 100-599) are clamped to 500.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	status = clampStatus(status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; all we can do is record it.
		writeLogger.Error("json encoding failed after headers sent",
			zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
	}
}

func clampStatus(status int) int {
	if status < 100 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}
