package openapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Operation{Method: "GET", Path: "/api/health", Summary: "Liveness", Tags: []string{"ops"}})
	reg.Register(Operation{Method: "GET", Path: "/api/runtime-config", Summary: "Resolved base URLs", Tags: []string{"runtime"}})
	reg.Register(Operation{Method: "HEAD", Path: "/api/health", Summary: "Liveness (headers only)", Tags: []string{"ops"}})

	doc := reg.Build("storefront", "1.0.0", "https://trebodeluxe.example")
	assert.Equal(t, "3.1.0", doc["openapi"])
	assert.Equal(t, []map[string]string{{"url": "https://trebodeluxe.example"}}, doc["servers"])
	assert.Equal(t, []map[string]string{{"name": "ops"}, {"name": "runtime"}}, doc["tags"])

	paths := doc["paths"].(map[string]any)
	require.Len(t, paths, 2)
	health := paths["/api/health"].(map[string]any)
	assert.Contains(t, health, "get")
	assert.Contains(t, health, "head")
	assert.Equal(t, map[string]any{"200": map[string]any{"description": "OK"}}, health["get"].(map[string]any)["responses"])
}

func TestBuildWithoutServer(t *testing.T) {
	doc := NewRegistry().Build("devproxy", "dev", "")
	assert.NotContains(t, doc, "servers")
	assert.NotContains(t, doc, "tags")
}

func TestServeHandler(t *testing.T) {
	reg := NewRegistry()
	reg.Register(Operation{Method: "get", Path: "/test", Summary: "Test page"})

	rec := httptest.NewRecorder()
	reg.ServeHandler("storefront", "1.0.0", "")(rec, httptest.NewRequest("GET", "/openapi.json", nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	info := doc["info"].(map[string]any)
	assert.Equal(t, "storefront", info["title"])
	assert.Contains(t, doc["paths"].(map[string]any)["/test"], "get")
}
