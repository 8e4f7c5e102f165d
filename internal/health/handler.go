// internal/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trebodeluxe/pkg/baseurl"
	"trebodeluxe/pkg/problems"
)

// Check probes one dependency. A nil error means healthy.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgres", Probe: pool.Ping}
}

func RedisCheck(cli *redis.Client) Check {
	return Check{Name: "redis", Probe: func(ctx context.Context) error { return cli.Ping(ctx).Err() }}
}

type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Report struct {
	Status      string                 `json:"status"`
	Timestamp   string                 `json:"timestamp"`
	Uptime      float64                `json:"uptime"`
	Environment string                 `json:"environment"`
	Version     string                 `json:"version"`
	Checks      map[string]CheckResult `json:"checks,omitempty"`
}

type Handler struct {
	log      *zap.SugaredLogger
	resolver *baseurl.Resolver
	env      string
	version  string
	checks   []Check
	started  time.Time
	timeout  time.Duration
	now      func() time.Time
}

func NewHandler(log *zap.SugaredLogger, resolver *baseurl.Resolver, env, version string, checks ...Check) *Handler {
	sort.SliceStable(checks, func(i, j int) bool { return checks[i].Name < checks[j].Name })
	return &Handler{
		log:      log,
		resolver: resolver,
		env:      env,
		version:  version,
		checks:   checks,
		started:  time.Now(),
		timeout:  2 * time.Second,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/api/health", h.ServeHTTP)
}

// Report runs every check concurrently, each bounded by the handler timeout.
func (h *Handler) Report(ctx context.Context) Report {
	now := h.now()
	rep := Report{
		Status:      "ok",
		Timestamp:   now.UTC().Format(time.RFC3339),
		Uptime:      now.Sub(h.started).Seconds(),
		Environment: h.env,
		Version:     h.version,
	}
	if len(h.checks) == 0 {
		return rep
	}

	results := make([]CheckResult, len(h.checks))
	var wg sync.WaitGroup
	for i, c := range h.checks {
		wg.Add(1)
		go func(i int, c Check) {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			if err := c.Probe(cctx); err != nil {
				results[i] = CheckResult{Status: "down", Error: err.Error()}
				return
			}
			results[i] = CheckResult{Status: "ok"}
		}(i, c)
	}
	wg.Wait()

	rep.Checks = make(map[string]CheckResult, len(h.checks))
	for i, c := range h.checks {
		rep.Checks[c.Name] = results[i]
		if results[i].Status != "ok" {
			rep.Status = "degraded"
		}
	}
	return rep
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep := h.Report(r.Context())
	body, err := json.Marshal(rep)
	if err != nil {
		h.log.Errorw("health encode", "err", err)
		problems.Internal(w, r, h.resolver.SiteURL(baseurl.ServerContext()), err)
		return
	}
	status := http.StatusOK
	if rep.Status != "ok" {
		h.log.Warnw("health degraded", "checks", rep.Checks)
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
