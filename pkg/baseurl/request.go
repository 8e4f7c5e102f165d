package baseurl

import (
	"net/http"
	"net/url"
	"strings"
)

// LocationFromOrigin parses an Origin or Referer header value into the
// location of the page that sent it. Only http and https origins qualify.
func LocationFromOrigin(origin string) (Location, bool) {
	origin = strings.TrimSpace(origin)
	if origin == "" || origin == "null" {
		return Location{}, false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return Location{}, false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Location{}, false
	}
	return Location{Protocol: scheme + ":", Hostname: u.Hostname(), Host: u.Host}, true
}

// ContextFromRequest treats a request carrying an Origin (or, failing that,
// a Referer) header as coming from a browser page at that origin. Anything
// else is a server-side caller.
func ContextFromRequest(r *http.Request) Context {
	if loc, ok := LocationFromOrigin(r.Header.Get("Origin")); ok {
		return BrowserContext(loc)
	}
	if loc, ok := LocationFromOrigin(r.Header.Get("Referer")); ok {
		return BrowserContext(loc)
	}
	return ServerContext()
}
