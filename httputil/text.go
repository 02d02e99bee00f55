// httputil/text.go
package httputil

import (
	"io"
	"net/http"

	"go.uber.org/zap"
)

// TextContentType is the content type of every plain-text response.
const TextContentType = "text/plain; charset=utf-8"

// WriteText writes body verbatim as text/plain with the given status code.
// No trailing newline is added, so clients comparing the body to a fixed
// token ("OK") see exactly what was passed.
func WriteText(w http.ResponseWriter, status int, body string) {
	status = clampStatus(status)
	h := w.Header()
	h.Set("Content-Type", TextContentType)
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if _, err := io.WriteString(w, body); err != nil {
		writeLogger.Debug("text write failed", zap.Int("status", status), zap.Error(err))
	}
}
