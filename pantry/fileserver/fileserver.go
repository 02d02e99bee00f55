// pantry/fileserver/fileserver.go

// Package fileserver serves the static contact site: the HTML page, its
// scripts and the wasm form controller. Files that have a pre-compressed
// sibling (app.wasm.br, app.wasm.gz) are served compressed when the client
// accepts it, which matters for the multi-megabyte wasm bundle.
package fileserver

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// Options configures the static file handler.
type Options struct {
	// CacheControl, when set, is sent on every GET/HEAD response.
	CacheControl string

	// DisablePrecompressed skips the .br and .gz lookup.
	DisablePrecompressed bool
}

var encodings = []struct {
	ext      string
	encoding string
}{
	{".br", "br"},
	{".gz", "gzip"},
}

// Handler serves rootDir under urlPrefix.
//
//	r.Handle("/*", fileserver.Handler("", "public", fileserver.Options{}))
func Handler(urlPrefix, rootDir string, opts Options) http.Handler {
	root := http.Dir(rootDir)
	fs := http.FileServer(root)

	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			fs.ServeHTTP(w, r)
			return
		}

		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}

		req := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if !opts.DisablePrecompressed && req != "" {
			for _, enc := range encodings {
				if !acceptsEncoding(r, enc.encoding) {
					continue
				}
				f, err := root.Open(req + enc.ext)
				if err != nil {
					continue
				}
				fi, err := f.Stat()
				if err != nil || fi.IsDir() {
					_ = f.Close()
					continue
				}

				w.Header().Set("Content-Encoding", enc.encoding)
				w.Header().Set("Vary", "Accept-Encoding")
				w.Header().Set("Content-Type", mimeTypeByOriginal(req))
				http.ServeContent(w, r, req, fi.ModTime(), f)
				_ = f.Close()
				return
			}
		}

		fs.ServeHTTP(w, r)
	}))
}

func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(enc, encoding) {
			return true
		}
	}
	return false
}

// mimeTypeByOriginal returns the type of name without its compression suffix.
func mimeTypeByOriginal(name string) string {
	base := name
	for strings.HasSuffix(base, ".br") || strings.HasSuffix(base, ".gz") {
		base = strings.TrimSuffix(strings.TrimSuffix(base, ".br"), ".gz")
	}
	ext := strings.ToLower(filepath.Ext(base))

	switch ext {
	case ".wasm":
		return "application/wasm"
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
