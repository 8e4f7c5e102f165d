// Package debugenv exposes a temporary endpoint that dumps the runtime
// configuration the storefront sees. It is meant for diagnosing deploys and
// is off in production unless explicitly enabled.
package debugenv

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"trebodeluxe/pkg/baseurl"
	"trebodeluxe/pkg/db"
	"trebodeluxe/pkg/problems"
)

// Keys lists the variables the dump reports, in output order.
var Keys = []string{
	"STOREFRONT_ENV",
	"API_URL",
	"SITE_URL",
	"DEFAULT_API_URL",
	"LOCAL_API_URL",
	"DEFAULT_SITE_URL",
	"REDIS_URL",
	"DATABASE_URL",
	"PORT",
}

type Dump struct {
	Environment string             `json:"environment"`
	Timestamp   string             `json:"timestamp"`
	Variables   map[string]*string `json:"variables"`
	Resolved    baseurl.Resolved   `json:"resolved"`
}

type Handler struct {
	log      *zap.SugaredLogger
	resolver *baseurl.Resolver
	env      string
	enabled  bool
	lookup   func(string) (string, bool)
	now      func() time.Time
}

func NewHandler(log *zap.SugaredLogger, resolver *baseurl.Resolver, env string, enabled bool) *Handler {
	return &Handler{
		log:      log,
		resolver: resolver,
		env:      env,
		enabled:  enabled,
		lookup:   os.LookupEnv,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/debug-env", h.ServeHTTP)
}

// Collect builds the dump for a caller context. Unset variables map to nil
// and URL credentials are redacted.
func (h *Handler) Collect(ctx baseurl.Context) Dump {
	vars := make(map[string]*string, len(Keys))
	for _, k := range Keys {
		v, ok := h.lookup(k)
		if !ok {
			vars[k] = nil
			continue
		}
		red := db.RedactDSN(v)
		vars[k] = &red
	}
	return Dump{
		Environment: h.env,
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Variables:   vars,
		Resolved:    h.resolver.Resolve(ctx),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	site := h.resolver.SiteURL(baseurl.ServerContext())
	if !h.enabled {
		problems.Write(w, r, problems.New(site, "not-found", http.StatusNotFound, "debug endpoint disabled"))
		return
	}
	d := h.Collect(baseurl.ContextFromRequest(r))
	body, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		h.log.Errorw("debug-env encode", "err", err)
		problems.Internal(w, r, site, err)
		return
	}
	h.log.Infow("debug-env served", "remote", r.RemoteAddr, "context", d.Resolved.Context)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}
