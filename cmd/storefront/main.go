// cmd/storefront/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trebodeluxe/internal/server"
	"trebodeluxe/pkg/config"
	"trebodeluxe/pkg/db"
	"trebodeluxe/pkg/logger"
)

func main() {
	// 1. Load configuration & initialize structured logger.
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer log.Sync()

	// 2. Optional backends for health checks. An unreachable backend still
	//    yields a client, so /api/health reports it instead of start-up failing.
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Warnw("postgres unavailable", "err", err)
	}
	if pool != nil {
		defer pool.Close()
	}
	rdb, err := db.Redis(ctx, cfg, log)
	if err != nil {
		log.Warnw("redis unavailable", "err", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	// 3. Routes and middleware.
	app := server.New(log, cfg, pool, rdb)

	// 4. Serve until SIGINT/SIGTERM, then shut down gracefully.
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("storefront listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	fmt.Println("storefront stopped")
}
