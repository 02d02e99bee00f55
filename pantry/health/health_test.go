package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dalemusser/contactform/pantry/health"
	cftest "github.com/dalemusser/contactform/pantry/testing"
)

func get(t *testing.T, h http.Handler) (int, health.Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp health.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestHandler_Liveness(t *testing.T) {
	t.Parallel()

	code, resp := get(t, health.Handler(nil, 0, nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestHandler_FailingCheck(t *testing.T) {
	t.Parallel()

	logger, logs := cftest.ObservedLogger(zap.WarnLevel)
	checks := map[string]health.Check{
		"smtp": func(context.Context) error { return errors.New("dial tcp: connection refused") },
		"noop": nil,
	}

	code, resp := get(t, health.Handler(checks, time.Second, logger))
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, map[string]string{"smtp": "error", "noop": "ok"}, resp.Checks)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "smtp", logs.All()[0].ContextMap()["check"])
}

func TestHandler_CheckTimeout(t *testing.T) {
	t.Parallel()

	checks := map[string]health.Check{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	code, _ := get(t, health.Handler(checks, 20*time.Millisecond, nil))
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMount(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	health.Mount(r, map[string]health.Check{
		"smtp": func(context.Context) error { return nil },
	}, 0, nil)

	code, resp := get(t, r)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"smtp": "ok"}, resp.Checks)
}
