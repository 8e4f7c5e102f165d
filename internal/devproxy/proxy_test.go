package devproxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trebodeluxe/pkg/middleware"
)

type memCache struct {
	mu   sync.Mutex
	data map[string]*CachedResponse
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string]*CachedResponse{}, ttls: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) (*CachedResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cr, ok := m.data[key]
	return cr, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, resp *CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = resp
	m.ttls[key] = ttl
	return nil
}

func backend(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/api/categories":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Access-Control-Allow-Origin", "https://backend-says.example")
			_, _ = w.Write([]byte(`[{"id":1,"name":"Camisas"},{"id":2,"name":"Pantalones"}]`))
		case "/api/cart":
			w.Header().Set("Cache-Control", "private, max-age=60")
			_, _ = w.Write([]byte(`{"items":[]}`))
		case "/api/stock":
			w.Header().Set("Cache-Control", "No-Store")
			_, _ = w.Write([]byte(`{"left":3}`))
		case "/api/slow":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T, target string, cache Cache, timeout time.Duration) http.Handler {
	t.Helper()
	u, err := url.Parse(target)
	require.NoError(t, err)
	log := zap.NewNop().Sugar()
	p := NewProxy(log, ProxyOptions{Target: u, Timeout: timeout, Cache: cache, CacheTTL: time.Minute, Site: "http://localhost:3000"})
	reg := prometheus.NewRegistry()
	return NewServer(log, p, middleware.NewHTTPMetrics(reg, "devproxy"), reg, "http://localhost:3000").Handler()
}

func do(h http.Handler, method, path string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProxyForwards(t *testing.T) {
	var hits int32
	be := backend(t, &hits)
	h := newServer(t, be.URL, nil, time.Second)

	rec := do(h, "GET", "/api/categories", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Camisas"},{"id":2,"name":"Pantalones"}]`, rec.Body.String())
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("X-Cache"))

	rec = do(h, "GET", "/api/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestProxyCache(t *testing.T) {
	var hits int32
	be := backend(t, &hits)
	cache := newMemCache()
	h := newServer(t, be.URL, cache, time.Second)

	first := do(h, "GET", "/api/categories", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := do(h, "GET", "/api/categories", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	for _, ttl := range cache.ttls {
		assert.Equal(t, time.Minute, ttl)
	}

	t.Run("errors are not cached", func(t *testing.T) {
		do(h, "GET", "/api/missing", nil)
		do(h, "GET", "/api/missing", nil)
		assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
	})

	t.Run("authorized requests bypass cache", func(t *testing.T) {
		rec := do(h, "GET", "/api/categories", map[string]string{"Authorization": "Bearer x"})
		assert.Empty(t, rec.Header().Get("X-Cache"))
		assert.EqualValues(t, 4, atomic.LoadInt32(&hits))
	})

	t.Run("private and no-store responses are not cached", func(t *testing.T) {
		before := atomic.LoadInt32(&hits)
		for _, path := range []string{"/api/cart", "/api/stock"} {
			for i := 0; i < 2; i++ {
				rec := do(h, "GET", path, nil)
				require.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
			}
		}
		assert.EqualValues(t, before+4, atomic.LoadInt32(&hits))
	})
}

func TestProxyTimeout(t *testing.T) {
	var hits int32
	be := backend(t, &hits)
	h := newServer(t, be.URL, nil, 20*time.Millisecond)

	rec := do(h, "GET", "/api/slow", nil)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestProxyRefused(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	target := dead.URL
	dead.Close()

	h := newServer(t, target, newMemCache(), time.Second)
	rec := do(h, "GET", "/api/categories", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))

	var p map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, float64(http.StatusBadGateway), p["status"])
}

func TestServerRoutes(t *testing.T) {
	h := newServer(t, "https://trebodeluxe-backend.onrender.com", nil, time.Second)

	rec := do(h, "GET", "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trebodeluxe-backend.onrender.com")

	rec = do(h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = do(h, "POST", "/test?x=1", map[string]string{"X-Debug": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var echo map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &echo))
	assert.Equal(t, "POST", echo["method"])
	assert.Equal(t, "/test", echo["path"])

	rec = do(h, "OPTIONS", "/api/categories", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trebodeluxe_http_requests_total")

	rec = do(h, "GET", "/openapi.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "trebodeluxe-backend.onrender.com")
}
