// middleware/compress.go
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// StaticCompressTypes are the content types worth compressing for the static
// site: the page itself, its scripts and the wasm form bundle.
var StaticCompressTypes = []string{
	"text/html",
	"text/css",
	"text/javascript",
	"application/javascript",
	"application/wasm",
}

// Compress returns a gzip/deflate middleware for the given content types.
// level is clamped to 1..9; no types means chi's defaults.
func Compress(level int, types ...string) func(next http.Handler) http.Handler {
	return middleware.Compress(clampLevel(level), types...)
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 9:
		return 9
	default:
		return level
	}
}
