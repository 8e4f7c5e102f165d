package openapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Operation is one HTTP route surfaced in the service document.
type Operation struct {
	Method      string         `json:"method"`
	Path        string         `json:"path"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Responses   map[string]any `json:"responses"`
}

// Registry collects the operations a service exposes.
type Registry struct {
	Ops []Operation
}

func NewRegistry() *Registry { return &Registry{Ops: []Operation{}} }

func (r *Registry) Register(op Operation) {
	if op.Method != "" {
		op.Method = strings.ToLower(op.Method)
	}
	if op.Responses == nil {
		op.Responses = map[string]any{"200": map[string]any{"description": "OK"}}
	}
	r.Ops = append(r.Ops, op)
}

// Build produces a minimal OpenAPI 3.1 document. serverURL is the public
// site origin the routes are reachable under; empty omits "servers".
func (r *Registry) Build(serviceName, version, serverURL string) map[string]any {
	paths := map[string]any{}
	tags := map[string]struct{}{}
	for _, op := range r.Ops {
		if _, ok := paths[op.Path]; !ok {
			paths[op.Path] = map[string]any{}
		}
		m := map[string]any{
			"summary":   op.Summary,
			"responses": op.Responses,
		}
		if op.Description != "" {
			m["description"] = op.Description
		}
		if len(op.Tags) > 0 {
			m["tags"] = op.Tags
			for _, t := range op.Tags {
				tags[t] = struct{}{}
			}
		}
		paths[op.Path].(map[string]any)[op.Method] = m
	}
	doc := map[string]any{
		"openapi": "3.1.0",
		"info":    map[string]any{"title": serviceName, "version": version},
		"paths":   paths,
	}
	if len(tags) > 0 {
		names := make([]string, 0, len(tags))
		for t := range tags {
			names = append(names, t)
		}
		sort.Strings(names)
		list := make([]map[string]string, 0, len(names))
		for _, t := range names {
			list = append(list, map[string]string{"name": t})
		}
		doc["tags"] = list
	}
	if serverURL != "" {
		doc["servers"] = []map[string]string{{"url": serverURL}}
	}
	return doc
}

// ServeHandler returns an HTTP handler that serves the built OpenAPI JSON.
func (r *Registry) ServeHandler(serviceName, version, serverURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(r.Build(serviceName, version, serverURL))
	}
}
