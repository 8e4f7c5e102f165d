// internal/devproxy/proxy.go
package devproxy

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"trebodeluxe/pkg/problems"
)

// Proxy forwards /api/* to the backend API, optionally caching GET responses.
type Proxy struct {
	log      *zap.SugaredLogger
	target   *url.URL
	timeout  time.Duration
	cache    Cache
	cacheTTL time.Duration
	site     string
	rp       *httputil.ReverseProxy
}

type ProxyOptions struct {
	Target   *url.URL
	Timeout  time.Duration
	Cache    Cache // nil disables caching
	CacheTTL time.Duration
	Site     string // roots problem type URLs
}

func NewProxy(log *zap.SugaredLogger, opts ProxyOptions) *Proxy {
	p := &Proxy{
		log:      log,
		target:   opts.Target,
		timeout:  opts.Timeout,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		site:     opts.Site,
	}
	if p.timeout <= 0 {
		p.timeout = 30 * time.Second
	}
	p.rp = &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(p.target)
			pr.SetXForwarded()
		},
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		// CORS is answered by our own middleware; drop the backend's copy.
		ModifyResponse: func(resp *http.Response) error {
			for k := range resp.Header {
				if strings.HasPrefix(k, "Access-Control-") {
					resp.Header.Del(k)
				}
			}
			return nil
		},
		ErrorHandler: p.upstreamError,
	}
	return p
}

// Target is the backend the proxy forwards to.
func (p *Proxy) Target() *url.URL { return p.target }

func (p *Proxy) cacheable(r *http.Request) bool {
	return p.cache != nil && p.cacheTTL > 0 && r.Method == http.MethodGet && r.Header.Get("Authorization") == ""
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()
	r = r.WithContext(ctx)

	if !p.cacheable(r) {
		rec := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		p.rp.ServeHTTP(rec, r)
		p.log.Infow("proxied", "method", r.Method, "path", r.URL.Path, "status", rec.status, "ms", time.Since(start).Milliseconds())
		return
	}

	key := cacheKey(r)
	cached, hit, err := p.cache.Get(ctx, key)
	if err != nil {
		p.log.Warnw("cache get failed", "err", err)
	}
	if hit {
		for k, vs := range cached.Header {
			w.Header()[k] = append([]string(nil), vs...)
		}
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(cached.Status)
		_, _ = w.Write(cached.Body)
		p.log.Infow("proxied", "method", r.Method, "path", r.URL.Path, "status", cached.Status, "cache", "hit", "ms", time.Since(start).Milliseconds())
		return
	}

	w.Header().Set("X-Cache", "MISS")
	rec := &captureWriter{ResponseWriter: w, status: http.StatusOK, body: &bytes.Buffer{}}
	p.rp.ServeHTTP(rec, r)
	if rec.status == http.StatusOK && !rec.proxyError && storable(w.Header()) {
		hdr := w.Header().Clone()
		hdr.Del("X-Cache")
		hdr.Del("X-Request-Id")
		hdr.Del("Vary")
		for k := range hdr {
			if strings.HasPrefix(k, "Access-Control-") {
				hdr.Del(k)
			}
		}
		// Use a fresh context; the request one may be about to expire.
		sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := p.cache.Set(sctx, key, &CachedResponse{Status: rec.status, Header: hdr, Body: rec.body.Bytes()}, p.cacheTTL); err != nil {
			p.log.Warnw("cache set failed", "err", err)
		}
		scancel()
	}
	p.log.Infow("proxied", "method", r.Method, "path", r.URL.Path, "status", rec.status, "cache", "miss", "ms", time.Since(start).Milliseconds())
}

// storable reports whether the upstream allows a shared cache to keep the
// response.
func storable(h http.Header) bool {
	for _, v := range h.Values("Cache-Control") {
		for _, d := range strings.Split(v, ",") {
			name, _, _ := strings.Cut(strings.TrimSpace(d), "=")
			switch strings.ToLower(name) {
			case "no-store", "private":
				return false
			}
		}
	}
	return true
}

func (p *Proxy) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	p.log.Warnw("proxy error", "path", r.URL.Path, "target", p.target.String(), "err", err)
	if cw, ok := w.(*captureWriter); ok {
		cw.proxyError = true
	}
	w.Header().Del("X-Cache")
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		problems.Write(w, r, problems.New(p.site, "upstream-timeout", http.StatusGatewayTimeout, "backend timeout"))
	case strings.Contains(err.Error(), "no such host"):
		problems.Write(w, r, problems.New(p.site, "upstream-dns", http.StatusBadGateway, "backend DNS resolution failed"))
	case strings.Contains(err.Error(), "connection refused"):
		problems.Write(w, r, problems.New(p.site, "upstream-refused", http.StatusBadGateway, "backend connection refused"))
	default:
		problems.Write(w, r, problems.New(p.site, "bad-gateway", http.StatusBadGateway, err.Error()))
	}
}

type captureWriter struct {
	http.ResponseWriter
	status      int
	body        *bytes.Buffer
	wroteHeader bool
	proxyError  bool
}

func (c *captureWriter) WriteHeader(code int) {
	if !c.wroteHeader {
		c.status = code
		c.wroteHeader = true
		c.ResponseWriter.WriteHeader(code)
	}
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	n, err := c.ResponseWriter.Write(b)
	if c.body != nil {
		c.body.Write(b[:n])
	}
	return n, err
}

func (c *captureWriter) Unwrap() http.ResponseWriter { return c.ResponseWriter }
