package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trebodeluxe/internal/debugenv"
	"trebodeluxe/internal/health"
	"trebodeluxe/internal/testpage"
	"trebodeluxe/pkg/baseurl"
	"trebodeluxe/pkg/config"
	"trebodeluxe/pkg/middleware"
	"trebodeluxe/pkg/openapi"
	"trebodeluxe/pkg/problems"
)

// App is the storefront runtime service: health, runtime config, the test
// page and the temporary env dump.
//
// pool and rdb are optional; when present they become health checks.
type App struct {
	log      *zap.SugaredLogger
	cfg      config.Config
	resolver *baseurl.Resolver
	registry *prometheus.Registry
	metrics  *middleware.HTTPMetrics

	health   *health.Handler
	debugEnv *debugenv.Handler
	testPage *testpage.Handler
}

func New(log *zap.SugaredLogger, cfg config.Config, pool *pgxpool.Pool, rdb *redis.Client) *App {
	resolver := cfg.Resolver()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var checks []health.Check
	if pool != nil {
		checks = append(checks, health.PostgresCheck(pool))
	}
	if rdb != nil {
		checks = append(checks, health.RedisCheck(rdb))
	}

	return &App{
		log:      log,
		cfg:      cfg,
		resolver: resolver,
		registry: reg,
		metrics:  middleware.NewHTTPMetrics(reg, "storefront"),
		health:   health.NewHandler(log, resolver, cfg.Env, cfg.Version, checks...),
		debugEnv: debugenv.NewHandler(log, resolver, cfg.Env, !cfg.IsProd() || cfg.EnableDebugEnv),
		testPage: testpage.NewHandler(log, resolver, cfg.Env),
	}
}

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	site := a.resolver.SiteURL(baseurl.ServerContext())

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(chimw.RealIP)
	r.Use(middleware.Recover(a.log, site))
	r.Use(middleware.DebugWriteHeader(a.log, a.cfg.DebugDoubleWrite))
	r.Use(middleware.CORS())
	r.Use(a.metrics.Middleware)
	r.Use(middleware.Tracing("trebodeluxe-storefront", a.log))

	a.health.RegisterRoutes(r)
	a.debugEnv.RegisterRoutes(r)
	a.testPage.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	r.Get("/openapi.json", routeDoc().ServeHandler("trebodeluxe-storefront", a.cfg.Version, site))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		problems.Write(w, req, problems.New(site, "not-found", http.StatusNotFound, "no route for "+req.URL.Path))
	})
	return r
}

func routeDoc() *openapi.Registry {
	doc := openapi.NewRegistry()
	doc.Register(openapi.Operation{Method: "GET", Path: "/api/health", Summary: "Service status and dependency checks", Tags: []string{"ops"},
		Responses: map[string]any{"200": map[string]any{"description": "OK"}, "503": map[string]any{"description": "Degraded"}}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/healthz", Summary: "Liveness probe", Tags: []string{"ops"}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/api/debug-env", Summary: "Allow-listed environment dump", Tags: []string{"debug"},
		Responses: map[string]any{"200": map[string]any{"description": "OK"}, "404": map[string]any{"description": "Disabled"}}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/api/runtime-config", Summary: "Base URLs resolved for the caller", Tags: []string{"runtime"}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/test", Summary: "Static test page", Tags: []string{"runtime"}})
	doc.Register(openapi.Operation{Method: "GET", Path: "/metrics", Summary: "Prometheus metrics", Tags: []string{"ops"}})
	return doc
}
