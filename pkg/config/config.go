// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"trebodeluxe/pkg/baseurl"
)

type Config struct {
	Env       string
	HTTPAddr  string // storefront service
	ProxyAddr string // devproxy

	// Explicit overrides read by the base-URL resolver
	APIURL  string
	SiteURL string

	// Literal fallbacks (overridable without touching resolver logic)
	DefaultAPIURL  string
	LocalAPIURL    string
	DefaultSiteURL string
	LocalHostname  string

	EnableDebugEnv   bool
	DebugDoubleWrite bool
	Version          string

	// devproxy
	ProxyTimeout  time.Duration
	ProxyCacheTTL time.Duration

	// Redis & Postgres (both optional)
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	d := baseurl.DefaultDefaults()
	cfg := Config{
		Env:              env("STOREFRONT_ENV", "dev"),
		HTTPAddr:         env("STOREFRONT_HTTP_ADDR", ":3000"),
		ProxyAddr:        env("DEVPROXY_ADDR", ":5000"),
		APIURL:           env("API_URL", ""),
		SiteURL:          env("SITE_URL", ""),
		DefaultAPIURL:    env("DEFAULT_API_URL", d.ProductionAPIURL),
		LocalAPIURL:      env("LOCAL_API_URL", d.LocalAPIURL),
		DefaultSiteURL:   env("DEFAULT_SITE_URL", d.LocalSiteURL),
		LocalHostname:    env("LOCAL_HOSTNAME", d.LocalHostname),
		EnableDebugEnv:   envBool("ENABLE_DEBUG_ENV", false),
		DebugDoubleWrite: envBool("DEBUG_DOUBLE_WRITE", false),
		Version:          env("STOREFRONT_VERSION", "1.0.0"),
		ProxyTimeout:     envDur("DEVPROXY_TIMEOUT_SEC", 30) * time.Second,
		ProxyCacheTTL:    envDur("DEVPROXY_CACHE_TTL_SEC", 0) * time.Second,
		RedisURL:         env("REDIS_URL", ""),
		DatabaseURL:      env("DATABASE_URL", ""),
	}
	if cfg.Env == "prod" && cfg.EnableDebugEnv {
		log.Println("[WARN] ENABLE_DEBUG_ENV set in prod; /api/debug-env is exposed")
	}
	return cfg
}

// IsProd reports whether the service runs with production settings.
func (c Config) IsProd() bool { return c.Env == "prod" }

// Resolver builds the base-URL resolver from this configuration snapshot.
func (c Config) Resolver() *baseurl.Resolver {
	return baseurl.New(
		baseurl.Snapshot{APIURL: c.APIURL, SiteURL: c.SiteURL},
		baseurl.Defaults{
			ProductionAPIURL: c.DefaultAPIURL,
			LocalAPIURL:      c.LocalAPIURL,
			LocalSiteURL:     c.DefaultSiteURL,
			LocalHostname:    c.LocalHostname,
		},
	)
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil || i < 0 {
			return time.Duration(def)
		}
		return time.Duration(i)
	}
	return time.Duration(def)
}
