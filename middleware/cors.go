// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/dalemusser/contactform/config"
	"github.com/go-chi/cors"
)

// CORSFromConfig returns a CORS middleware built from coreCfg.CORS, or an
// identity middleware when CORS is disabled, so it can be used
// unconditionally:
//
//	r.Use(middleware.CORSFromConfig(coreCfg))
//
// Contact pages hosted on another origin need it for the XHR post and the
// X-Requested-With preflight.
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
