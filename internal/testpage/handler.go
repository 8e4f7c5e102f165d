// internal/testpage/handler.go
package testpage

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"trebodeluxe/pkg/baseurl"
	"trebodeluxe/pkg/problems"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/test.html"))

type pageData struct {
	Resolved    baseurl.Resolved
	Environment string
	ServerTime  string
}

type Handler struct {
	log      *zap.SugaredLogger
	resolver *baseurl.Resolver
	env      string
	now      func() time.Time
}

func NewHandler(log *zap.SugaredLogger, resolver *baseurl.Resolver, env string) *Handler {
	return &Handler{log: log, resolver: resolver, env: env, now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/test", h.page)
	r.Get("/api/runtime-config", h.runtimeConfig)
}

func (h *Handler) data(r *http.Request) pageData {
	return pageData{
		Resolved:    h.resolver.Resolve(baseurl.ContextFromRequest(r)),
		Environment: h.env,
		ServerTime:  h.now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, h.data(r)); err != nil {
		h.log.Errorw("test page render", "err", err)
		problems.Internal(w, r, h.resolver.SiteURL(baseurl.ServerContext()), err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handler) runtimeConfig(w http.ResponseWriter, r *http.Request) {
	d := h.data(r)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"apiUrl":      d.Resolved.APIURL,
		"siteUrl":     d.Resolved.SiteURL,
		"context":     d.Resolved.Context,
		"environment": d.Environment,
		"serverTime":  d.ServerTime,
	})
}
