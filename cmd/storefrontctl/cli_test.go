package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"trebodeluxe/pkg/baseurl"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"API_URL", "SITE_URL", "DEFAULT_API_URL", "LOCAL_API_URL", "DEFAULT_SITE_URL", "LOCAL_HOSTNAME"} {
		t.Setenv(k, "")
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveServer(t *testing.T) {
	out, err := run(t, "resolve")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, baseurl.DefaultProductionAPIURL, got["apiUrl"])
	assert.Equal(t, baseurl.DefaultLocalSiteURL, got["siteUrl"])
	assert.Equal(t, "server", got["context"])
}

func TestResolveBrowserYAML(t *testing.T) {
	out, err := run(t, "resolve", "--browser-origin", "http://localhost:3000", "-o", "yaml")
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "http://localhost:5000", got["apiUrl"])
	assert.Equal(t, "http://localhost:3000", got["siteUrl"])
	assert.Equal(t, "browser", got["context"])
}

func TestResolveRejectsBadInput(t *testing.T) {
	_, err := run(t, "resolve", "--browser-origin", "ftp://x")
	assert.Error(t, err)

	_, err = run(t, "resolve", "-o", "xml")
	assert.Error(t, err)
}

func TestCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/categories" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"categories":[{"name":"Camisas"},{"name":"Vestidos"}]}`))
	}))
	defer srv.Close()

	out, err := run(t, "categories", "--api-url", srv.URL, "--query", "length(categories)")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, float64(2), got["count"])
	assert.Equal(t, float64(2), got["queryResult"])
}

func TestCategoriesFailureStillPrints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out, err := run(t, "categories", "--api-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, out, `"status": 503`)
}

func TestLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "health.ts")
	require.NoError(t, os.WriteFile(p, []byte("a\nb\t \nc\n"), 0o644))

	out, err := run(t, "lines", p, "--from", "2", "--to", "3")
	require.NoError(t, err)
	assert.Equal(t, "2 | b→·\n3 | c\n", out)

	_, err = run(t, "lines", p, "--from", "3", "--to", "1")
	assert.Error(t, err)
}
