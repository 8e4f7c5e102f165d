// pkg/db/db.go
package db

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"trebodeluxe/pkg/config"
)

const connectTimeout = 5 * time.Second

// Connect opens a Postgres pool when DATABASE_URL is set. It returns
// (nil, nil) when no database is configured. A failed start-up ping still
// returns the pool along with the error; pgxpool reconnects lazily, so the
// caller can keep it and let health checks report the outage.
func Connect(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		return pool, fmt.Errorf("pg ping: %w", err)
	}
	log.Infow("postgres ready", "host", RedactDSN(cfg.DatabaseURL))
	return pool, nil
}

// Redis opens a client when REDIS_URL is set. It returns (nil, nil) when no
// Redis is configured. Like Connect, a failed ping returns the client too.
func Redis(ctx context.Context, cfg config.Config, log *zap.SugaredLogger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis parse: %w", err)
	}
	cli := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := cli.Ping(pctx).Err(); err != nil {
		return cli, fmt.Errorf("redis ping: %w", err)
	}
	log.Infow("redis ready", "addr", opts.Addr)
	return cli, nil
}

var keywordPassword = regexp.MustCompile(`(?i)\b(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// RedactDSN hides the password of a DSN. URL-style values use
// url.URL.Redacted, keyword/value values ("host=db password=x") get their
// password masked, and anything else keeps only what follows the last '@'.
func RedactDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" && u.User != nil {
		return u.Redacted()
	}
	if keywordPassword.MatchString(dsn) {
		return keywordPassword.ReplaceAllString(dsn, "${1}xxxxx")
	}
	if i := strings.LastIndex(dsn, "@"); i > 0 {
		return "***@" + dsn[i+1:]
	}
	return dsn
}
