package fileserver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func site(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<form></form>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.wasm"), []byte("raw"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "form.wasm.gz"), []byte("gzipped"), 0o644))
	return dir
}

func get(h http.Handler, path, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ServesPrecompressed(t *testing.T) {
	t.Parallel()

	h := Handler("/static", site(t), Options{CacheControl: "public, max-age=60"})
	rec := get(h, "/static/form.wasm", "br, gzip")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "application/wasm", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Accept-Encoding", rec.Header().Get("Vary"))
	assert.Equal(t, "public, max-age=60", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "gzipped", rec.Body.String())
}

func TestHandler_FallsBackToOriginal(t *testing.T) {
	t.Parallel()

	dir := site(t)

	rec := get(Handler("/static", dir, Options{}), "/static/form.wasm", "")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "raw", rec.Body.String())

	rec = get(Handler("/static", dir, Options{DisablePrecompressed: true}), "/static/form.wasm", "gzip")
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Equal(t, "raw", rec.Body.String())
}

func TestHandler_IndexAndMissing(t *testing.T) {
	t.Parallel()

	h := Handler("", site(t), Options{})
	rec := get(h, "/", "gzip")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<form>")

	assert.Equal(t, http.StatusNotFound, get(h, "/nope.js", "").Code)
}

func TestMimeTypeByOriginal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/wasm", mimeTypeByOriginal("a/form.wasm.br"))
	assert.Equal(t, "text/javascript; charset=utf-8", mimeTypeByOriginal("wasm_exec.js.gz"))
	assert.Contains(t, mimeTypeByOriginal("index.html"), "text/html")
	assert.Equal(t, "application/octet-stream", mimeTypeByOriginal("blob.unknownext"))
}

func TestAcceptsEncoding(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Encoding", "deflate, GZIP;q=0.8")
	assert.True(t, acceptsEncoding(r, "gzip"))
	assert.False(t, acceptsEncoding(r, "br"))
}
