// cmd/devproxy/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trebodeluxe/internal/devproxy"
	"trebodeluxe/pkg/baseurl"
	"trebodeluxe/pkg/config"
	"trebodeluxe/pkg/db"
	"trebodeluxe/pkg/logger"
	"trebodeluxe/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	resolver := cfg.Resolver()
	target, err := url.Parse(resolver.APIURL(baseurl.ServerContext()))
	if err != nil {
		log.Fatalw("backend url", "err", err)
	}

	var cache devproxy.Cache
	if cfg.ProxyCacheTTL > 0 {
		rdb, err := db.Redis(context.Background(), cfg, log)
		switch {
		case err != nil:
			log.Warnw("redis unavailable, response cache disabled", "err", err)
			if rdb != nil {
				_ = rdb.Close()
			}
		case rdb == nil:
			log.Warnw("DEVPROXY_CACHE_TTL_SEC set without REDIS_URL, response cache disabled")
		default:
			defer rdb.Close()
			cache = devproxy.NewRedisCache(rdb)
		}
	}

	site := resolver.SiteURL(baseurl.ServerContext())
	proxy := devproxy.NewProxy(log, devproxy.ProxyOptions{
		Target:   target,
		Timeout:  cfg.ProxyTimeout,
		Cache:    cache,
		CacheTTL: cfg.ProxyCacheTTL,
		Site:     site,
	})
	reg := prometheus.NewRegistry()
	app := devproxy.NewServer(log, proxy, middleware.NewHTTPMetrics(reg, "devproxy"), reg, site)

	srv := &http.Server{Addr: cfg.ProxyAddr, Handler: app.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Infow("devproxy listening", "addr", cfg.ProxyAddr, "target", target.String(), "cache", cache != nil)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("devproxy stopped")
}
