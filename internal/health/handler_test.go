package health

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

	"trebodeluxe/pkg/baseurl"
)

func newTestHandler(checks ...Check) *Handler {
	h := NewHandler(zap.NewNop().Sugar(), baseurl.New(baseurl.Snapshot{}, baseurl.DefaultDefaults()), "dev", "1.2.3", checks...)
	h.started = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return h.started.Add(90 * time.Second) }
	return h
}

func serve(t *testing.T, h *Handler, path string) (*httptest.ResponseRecorder, Report) {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	var rep Report
	if path == "/api/health" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	}
	return rec, rep
}

func TestHealthNoChecks(t *testing.T) {
	rec, rep := serve(t, newTestHandler(), "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", rep.Status)
	assert.Equal(t, "dev", rep.Environment)
	assert.Equal(t, "1.2.3", rep.Version)
	assert.Equal(t, float64(90), rep.Uptime)
	assert.Equal(t, "2026-01-01T00:01:30Z", rep.Timestamp)
	assert.Empty(t, rep.Checks)
}

func TestHealthChecks(t *testing.T) {
	ok := Check{Name: "redis", Probe: func(context.Context) error { return nil }}
	bad := Check{Name: "postgres", Probe: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all healthy", func(t *testing.T) {
		rec, rep := serve(t, newTestHandler(ok), "/api/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rep.Checks["redis"].Status)
	})

	t.Run("one down", func(t *testing.T) {
		rec, rep := serve(t, newTestHandler(ok, bad), "/api/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", rep.Status)
		assert.Equal(t, CheckResult{Status: "down", Error: "connection refused"}, rep.Checks["postgres"])
		assert.Equal(t, "ok", rep.Checks["redis"].Status)
	})

	t.Run("probe honours timeout", func(t *testing.T) {
		slow := Check{Name: "slow", Probe: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}}
		h := newTestHandler(slow)
		h.timeout = 10 * time.Millisecond
		rec, rep := serve(t, h, "/api/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "down", rep.Checks["slow"].Status)
	})
}

func TestHealthz(t *testing.T) {
	rec, _ := serve(t, newTestHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
