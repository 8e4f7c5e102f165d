// Package baseurl decides which backend API and frontend origin URLs the
// storefront should use for a given caller.
//
// Resolution is a pure function of an immutable configuration snapshot and
// an execution context the caller passes in. Nothing is cached and nothing
// is read from process globals at call time.
package baseurl

import (
	"fmt"
	"strings"
)

// Kind tells whether a caller runs inside a browser page or on a server.
type Kind int

const (
	Server Kind = iota
	Browser
)

func (k Kind) String() string {
	if k == Browser {
		return "browser"
	}
	return "server"
}

// MarshalText renders the kind as "browser" or "server".
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "browser":
		*k = Browser
	case "server":
		*k = Server
	default:
		return fmt.Errorf("baseurl: unknown context %q", b)
	}
	return nil
}

// Location mirrors the fields of a browser's window.location that matter here.
// Protocol keeps its trailing colon ("https:"); Host may include a port.
type Location struct {
	Protocol string
	Hostname string
	Host     string
}

// Origin returns "<protocol>//<host>", or "" when either part is missing.
func (l Location) Origin() string {
	if l.Protocol == "" || l.Host == "" {
		return ""
	}
	return l.Protocol + "//" + l.Host
}

// Context is the execution context of a single resolution.
type Context struct {
	Kind     Kind
	Location Location // only meaningful for Browser
}

func ServerContext() Context { return Context{Kind: Server} }

func BrowserContext(loc Location) Context { return Context{Kind: Browser, Location: loc} }

// Snapshot holds the optional environment-supplied overrides.
type Snapshot struct {
	APIURL  string // API_URL
	SiteURL string // SITE_URL
}

// Defaults are the literal fallbacks used when no higher priority source applies.
type Defaults struct {
	ProductionAPIURL string
	LocalAPIURL      string
	LocalSiteURL     string
	LocalHostname    string
}

const (
	DefaultProductionAPIURL = "https://trebodeluxe-backend.onrender.com"
	DefaultLocalAPIURL      = "http://localhost:5000"
	DefaultLocalSiteURL     = "http://localhost:3000"
	DefaultLocalHostname    = "localhost"
)

func DefaultDefaults() Defaults {
	return Defaults{
		ProductionAPIURL: DefaultProductionAPIURL,
		LocalAPIURL:      DefaultLocalAPIURL,
		LocalSiteURL:     DefaultLocalSiteURL,
		LocalHostname:    DefaultLocalHostname,
	}
}

// Resolver is immutable after New and safe for concurrent use.
type Resolver struct {
	snap Snapshot
	def  Defaults
}

// New builds a resolver. Empty defaults fall back to the package constants
// so a resolver can never hand out an empty URL.
func New(snap Snapshot, def Defaults) *Resolver {
	base := DefaultDefaults()
	if strings.TrimSpace(def.ProductionAPIURL) == "" {
		def.ProductionAPIURL = base.ProductionAPIURL
	}
	if strings.TrimSpace(def.LocalAPIURL) == "" {
		def.LocalAPIURL = base.LocalAPIURL
	}
	if strings.TrimSpace(def.LocalSiteURL) == "" {
		def.LocalSiteURL = base.LocalSiteURL
	}
	if strings.TrimSpace(def.LocalHostname) == "" {
		def.LocalHostname = base.LocalHostname
	}
	snap.APIURL = strings.TrimSpace(snap.APIURL)
	snap.SiteURL = strings.TrimSpace(snap.SiteURL)
	return &Resolver{snap: snap, def: def}
}

// APIURL resolves the backend API base URL. First match wins:
//  1. browser with API_URL configured -> API_URL
//  2. browser on the local hostname   -> local backend
//  3. anything else                   -> production backend
//
// Server callers never see API_URL.
func (r *Resolver) APIURL(ctx Context) string {
	if ctx.Kind == Browser {
		if r.snap.APIURL != "" {
			return r.snap.APIURL
		}
		if ctx.Location.Hostname == r.def.LocalHostname {
			return r.def.LocalAPIURL
		}
	}
	return r.def.ProductionAPIURL
}

// SiteURL resolves the frontend's own origin. A browser context without a
// usable location is handled like a server context.
func (r *Resolver) SiteURL(ctx Context) string {
	if ctx.Kind == Browser {
		if o := ctx.Location.Origin(); o != "" {
			return o
		}
	}
	if r.snap.SiteURL != "" {
		return r.snap.SiteURL
	}
	return r.def.LocalSiteURL
}

// Resolved bundles both answers for one context.
type Resolved struct {
	APIURL  string `json:"apiUrl" yaml:"apiUrl"`
	SiteURL string `json:"siteUrl" yaml:"siteUrl"`
	Context Kind   `json:"context" yaml:"context"`
}

func (r *Resolver) Resolve(ctx Context) Resolved {
	return Resolved{APIURL: r.APIURL(ctx), SiteURL: r.SiteURL(ctx), Context: ctx.Kind}
}
