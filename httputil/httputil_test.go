package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dalemusser/contactform/httputil"
)

func TestWriteText(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httputil.WriteText(rec, http.StatusOK, "OK")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "OK", rec.Body.String())
}

func TestWriteText_ClampsInvalidStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httputil.WriteText(rec, 42, "nope")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "nope", rec.Body.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httputil.WriteJSON(rec, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"unhealthy"}`, rec.Body.String())
}
