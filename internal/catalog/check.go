// Package catalog verifies that the backend API serves the product
// categories the storefront navigation is built from.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jmes "github.com/jmespath/go-jmespath"
)

const CategoriesPath = "/api/categories"

// Result is the outcome of one connection check.
type Result struct {
	URL         string        `json:"url" yaml:"url"`
	Status      int           `json:"status" yaml:"status"`
	OK          bool          `json:"ok" yaml:"ok"`
	Latency     time.Duration `json:"-" yaml:"-"`
	LatencyMS   int64         `json:"latencyMs" yaml:"latencyMs"`
	Count       int           `json:"count" yaml:"count"`
	Query       string        `json:"query,omitempty" yaml:"query,omitempty"`
	QueryResult any           `json:"queryResult,omitempty" yaml:"queryResult,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
}

type Checker struct {
	client *http.Client
}

func NewChecker(client *http.Client) *Checker {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Checker{client: client}
}

// Check GETs <apiURL>/api/categories. The returned error is non-nil when the
// backend could not be reached, answered non-2xx, or sent an unusable body;
// the Result is filled in as far as the check got either way.
func (c *Checker) Check(ctx context.Context, apiURL, query string) (Result, error) {
	res := Result{URL: strings.TrimRight(apiURL, "/") + CategoriesPath, Query: query}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		res.Error = err.Error()
		return res, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	res.Latency = time.Since(start)
	res.LatencyMS = res.Latency.Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res, fmt.Errorf("get %s: %w", res.URL, err)
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		res.Error = err.Error()
		return res, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		res.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return res, fmt.Errorf("get %s: %s", res.URL, res.Error)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		res.Error = "response is not JSON"
		return res, fmt.Errorf("decode body: %w", err)
	}
	res.Count = countCategories(doc)

	if query != "" {
		out, err := jmes.Search(query, doc)
		if err != nil {
			res.Error = err.Error()
			return res, fmt.Errorf("query %q: %w", query, err)
		}
		res.QueryResult = out
	}
	res.OK = true
	return res, nil
}

// countCategories accepts a bare array or an object wrapping the array under
// "categories" or "data" (optionally nested one level, as in
// {"data":{"categories":[...]}}).
func countCategories(doc any) int {
	switch v := doc.(type) {
	case []any:
		return len(v)
	case map[string]any:
		for _, k := range []string{"categories", "data"} {
			if inner, ok := v[k]; ok {
				switch iv := inner.(type) {
				case []any:
					return len(iv)
				case map[string]any:
					if arr, ok := iv["categories"].([]any); ok {
						return len(arr)
					}
				}
			}
		}
	}
	return 0
}
