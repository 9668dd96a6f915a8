package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
	"github.com/cataloghq/catalogmcp/internal/search"
)

func fileHandlerForTest(t *testing.T) search.Handler {
	t.Helper()
	h, err := search.HandlerFor(search.ScopeFile)
	require.NoError(t, err)
	return h
}

func entryHandlerForTest(t *testing.T) search.Handler {
	t.Helper()
	h, err := search.HandlerFor(search.ScopePackageEntry)
	require.NoError(t, err)
	return h
}

func esHits(hits ...map[string]any) map[string]any {
	return map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": len(hits)},
			"hits":  hits,
		},
	}
}

func TestElasticSearch(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(esHits(
			map[string]any{
				"_id":    "1",
				"_index": "my-bucket",
				"_score": 2.0,
				"_source": map[string]any{
					"key":  "data/report.csv",
					"size": 512,
				},
			},
		))
	}))
	defer srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)

	res, err := e.Search(context.Background(), fileHandlerForTest(t), "report", []string{"my-bucket", "other"}, 10)
	require.NoError(t, err)

	// One multi-index request with the comma-joined pattern, path-escaped.
	assert.Equal(t, "/"+url.PathEscape("my-bucket,other")+"/_search", gotPath)
	assert.Equal(t, float64(10), gotBody["size"])
	assert.Equal(t, true, gotBody["track_total_hits"])
	assert.Contains(t, gotBody, "query")
	assert.NotContains(t, gotBody, "collapse", "file scope does not collapse")

	require.Len(t, res.Results, 1)
	assert.Equal(t, search.TypeFile, res.Results[0].Type)
	assert.Equal(t, "s3://my-bucket/data/report.csv", res.Results[0].S3URI)
	assert.Equal(t, 1, res.Total)
}

func TestElasticSearchCollapse(t *testing.T) {
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(esHits())
	}))
	defer srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)

	_, err := e.Search(context.Background(), entryHandlerForTest(t), "ccle", []string{"b"}, 10)
	require.NoError(t, err)

	collapse, ok := gotBody["collapse"].(map[string]any)
	require.True(t, ok, "packageEntry scope must send a collapse directive")
	assert.Equal(t, "entry_lk", collapse["field"])
}

func TestElasticSearchBucketRecoveredFromIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(esHits(
			map[string]any{
				"_index":  "quilt-ernest-staging_packages-reindex-vABC123",
				"_score":  1.0,
				"_source": map[string]any{"entry_lk": "cells/ccle.csv"},
			},
		))
	}))
	defer srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)

	res, err := e.Search(context.Background(), entryHandlerForTest(t), "ccle",
		[]string{"quilt-ernest-staging", "other"}, 10)
	require.NoError(t, err)

	require.Len(t, res.Results, 1)
	// The reindex alias and the _packages suffix are both stripped; the hit's
	// bucket comes from its own index, not from the request.
	assert.Equal(t, "quilt-ernest-staging", res.Results[0].Bucket)
	assert.Equal(t, "s3://quilt-ernest-staging/cells/ccle.csv", res.Results[0].S3URI)
}

func TestElasticSearchCrossScopeHitsFiltered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(esHits(
			map[string]any{
				"_index":  "b_packages",
				"_score":  2.0,
				"_source": map[string]any{"ptr_name": "genomics/ccle"},
			},
			map[string]any{
				"_index":  "b_packages",
				"_score":  1.0,
				"_source": map[string]any{"entry_lk": "cells/ccle.csv"},
			},
		))
	}))
	defer srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)

	res, err := e.Search(context.Background(), entryHandlerForTest(t), "ccle", []string{"b"}, 10)
	require.NoError(t, err)

	// The manifest hit is silently dropped; only the entry survives.
	require.Len(t, res.Results, 1)
	assert.Equal(t, search.TypePackageEntry, res.Results[0].Type)
}

func TestElasticSearchNullScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(esHits(
			map[string]any{
				"_index":  "b",
				"_score":  nil,
				"_source": map[string]any{"key": "a.csv"},
			},
		))
	}))
	defer srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)

	res, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, 0.0, res.Results[0].Score)
}

func TestElasticSearchErrors(t *testing.T) {
	t.Run("unconfigured endpoint", func(t *testing.T) {
		e := NewElastic(ElasticConfig{}, nil)
		_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeBackendUnavailable, cerrors.GetCode(err))
	})

	t.Run("empty bucket list", func(t *testing.T) {
		e := NewElastic(ElasticConfig{Endpoint: "http://localhost:9200"}, nil)
		_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", nil, 10)
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeEmptyBucketList, cerrors.GetCode(err))
	})

	t.Run("non-200 surfaces as backend error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"index_not_found_exception"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)
		_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"nonexistent"}, 10)
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeBackendError, cerrors.GetCode(err))
	})

	t.Run("malformed response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)
		_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeBadResponse, cerrors.GetCode(err))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close() // connection refused from here on

		e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)
		_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
		require.Error(t, err)
		assert.Equal(t, cerrors.ErrCodeBackendUnavailable, cerrors.GetCode(err))
	})
}

func TestElasticCircuitBreakerTripsToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL}, nil)
	require.Equal(t, search.StatusAvailable, e.Status(context.Background()))

	// Drive enough transport failures to open the breaker.
	for i := 0; i < 5; i++ {
		_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
		require.Error(t, err)
	}

	assert.Equal(t, search.StatusUnavailable, e.Status(context.Background()))

	_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeBackendUnavailable, cerrors.GetCode(err))
}

func TestElasticSupportsAllScopes(t *testing.T) {
	e := NewElastic(ElasticConfig{Endpoint: "http://localhost:9200"}, nil)
	for _, scope := range search.Scopes() {
		assert.True(t, e.Supports(scope))
	}
}

func TestElasticBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var gotAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotAuth = r.BasicAuth()
		_ = json.NewEncoder(w).Encode(esHits())
	}))
	defer srv.Close()

	e := NewElastic(ElasticConfig{Endpoint: srv.URL, Username: "search", Password: "secret"}, nil)
	_, err := e.Search(context.Background(), fileHandlerForTest(t), "x", []string{"b"}, 10)
	require.NoError(t, err)

	require.True(t, gotAuth)
	assert.Equal(t, "search", gotUser)
	assert.Equal(t, "secret", gotPass)
}
