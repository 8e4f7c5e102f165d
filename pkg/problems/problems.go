// Package problems writes RFC 7807 problem documents.
package problems

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Problem is an application/problem+json body.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Base returns the base URL for problem type identifiers.
// Order of precedence:
// 1. site origin + "/problems" (if non-empty)
// 2. about:blank style fallback https://example.com/problems
func Base(site string) string {
	if b := strings.TrimRight(strings.TrimSpace(site), "/"); b != "" {
		return b + "/problems"
	}
	return "https://example.com/problems"
}

// Type builds a full problem type URL for the given slug.
func Type(site, slug string) string { return Base(site) + "/" + slug }

// New fills in Type and Title from the slug and status.
func New(site, slug string, status int, detail string) Problem {
	return Problem{
		Type:   Type(site, slug),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
}

// Write serialises p with the problem content type.
func Write(w http.ResponseWriter, r *http.Request, p Problem) {
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}
	if p.RequestID == "" {
		p.RequestID = w.Header().Get("X-Request-Id")
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Internal reports an unexpected failure as a 500.
func Internal(w http.ResponseWriter, r *http.Request, site string, err error) {
	detail := "internal error"
	if err != nil {
		detail = err.Error()
	}
	Write(w, r, New(site, "internal", http.StatusInternalServerError, detail))
}
