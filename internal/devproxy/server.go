package devproxy

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trebodeluxe/pkg/middleware"
	"trebodeluxe/pkg/openapi"
)

// Server is the local test/proxy server used while developing the storefront.
type Server struct {
	log      *zap.SugaredLogger
	proxy    *Proxy
	metrics  *middleware.HTTPMetrics
	gatherer prometheus.Gatherer
	site     string
	now      func() time.Time
}

func NewServer(log *zap.SugaredLogger, proxy *Proxy, metrics *middleware.HTTPMetrics, gatherer prometheus.Gatherer, site string) *Server {
	return &Server{log: log, proxy: proxy, metrics: metrics, gatherer: gatherer, site: site, now: time.Now}
}

// Handler builds the HTTP handler with routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(s.log, s.site))
	r.Use(middleware.CORS())
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Tracing("trebodeluxe-devproxy", s.log))

	r.Get("/", s.banner)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "timestamp": s.now().UTC().Format(time.RFC3339)}, http.StatusOK)
	})
	r.HandleFunc("/test", s.echo)
	r.Handle("/api/*", s.proxy)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/openapi.json", s.routeDoc().ServeHandler("trebodeluxe-devproxy", "dev", ""))
	return r
}

func (s *Server) banner(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"message": "Trebodeluxe dev proxy",
		"target":  s.proxy.Target().String(),
		"time":    s.now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// echo answers like a test backend: it reflects the request back.
func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"message": "Hello from test backend!",
		"path":    r.URL.Path,
		"query":   r.URL.Query(),
		"method":  r.Method,
		"headers": r.Header,
	}, http.StatusOK)
	s.log.Debugw("echo", "method", r.Method, "path", r.URL.Path)
}

func (s *Server) routeDoc() *openapi.Registry {
	doc := openapi.NewRegistry()
	doc.Register(openapi.Operation{Method: "GET", Path: "/", Summary: "Proxy banner"})
	doc.Register(openapi.Operation{Method: "GET", Path: "/health", Summary: "Liveness"})
	doc.Register(openapi.Operation{Method: "GET", Path: "/test", Summary: "Request echo"})
	doc.Register(openapi.Operation{Method: "GET", Path: "/api/{path}", Summary: "Forwarded to " + s.proxy.Target().String(),
		Responses: map[string]any{"502": map[string]any{"description": "Backend unreachable"}, "504": map[string]any{"description": "Backend timeout"}}})
	if s.gatherer != nil {
		doc.Register(openapi.Operation{Method: "GET", Path: "/metrics", Summary: "Prometheus metrics"})
	}
	return doc
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
