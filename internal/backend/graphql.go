package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
	"github.com/cataloghq/catalogmcp/internal/search"
)

// GraphQLConfig configures the GraphQL-shaped adapter.
type GraphQLConfig struct {
	// Endpoint is the GraphQL API URL. Empty means unconfigured.
	Endpoint string

	// Token enables bearer auth when set.
	Token string

	// Timeout bounds a single request round-trip (default: 10s).
	Timeout time.Duration

	// MaxConcurrency caps concurrent per-bucket requests (default: 8).
	MaxConcurrency int
}

// GraphQL serves object (file-scope) listings through a GraphQL API. It is
// the alternate backend for deployments without direct search-index access.
// The API authorizes per bucket, so multi-bucket queries fan out one request
// per bucket, run concurrently, and join after all complete.
type GraphQL struct {
	cfg    GraphQLConfig
	client *http.Client
	logger *slog.Logger
}

var _ search.Adapter = (*GraphQL)(nil)

// bucketObjectSearchQuery is the single query document this adapter issues.
const bucketObjectSearchQuery = `query BucketObjectSearch($bucket: String!, $query: String!, $first: Int!) {
  objects(bucket: $bucket, query: $query, first: $first) {
    total
    hits {
      key
      size
      score
      updated
      contentType
    }
  }
}`

// gqlResponse is the {data}/{errors} envelope every GraphQL response uses.
type gqlResponse struct {
	Data struct {
		Objects struct {
			Total int `json:"total"`
			Hits  []struct {
				Key         string  `json:"key"`
				Size        int64   `json:"size"`
				Score       float64 `json:"score"`
				Updated     string  `json:"updated"`
				ContentType string  `json:"contentType"`
			} `json:"hits"`
		} `json:"objects"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// NewGraphQL creates the GraphQL adapter.
func NewGraphQL(cfg GraphQLConfig, logger *slog.Logger) *GraphQL {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphQL{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Name implements search.Adapter.
func (g *GraphQL) Name() string { return NameGraphQL }

// Supports implements search.Adapter. The object query API exposes flat
// object records only; package indices are not reachable through it.
func (g *GraphQL) Supports(scope search.Scope) bool {
	return scope == search.ScopeFile
}

// Status implements search.Adapter.
func (g *GraphQL) Status(context.Context) search.Status {
	if g.cfg.Endpoint == "" {
		return search.StatusUnavailable
	}
	return search.StatusAvailable
}

// Search implements search.Adapter. Buckets are queried concurrently and
// joined only after every call completed or failed individually; per-bucket
// relevance order is preserved by reassembling in bucket order.
func (g *GraphQL) Search(ctx context.Context, h search.Handler, query string, buckets []string, limit int) (*search.BackendResult, error) {
	if g.cfg.Endpoint == "" {
		return nil, cerrors.BackendUnavailable("graphql endpoint not configured", nil)
	}
	if !g.Supports(h.Scope()) {
		return nil, cerrors.InvalidArgument(
			fmt.Sprintf("graphql backend does not support scope %q", h.Scope()))
	}
	if _, err := h.BuildIndexPattern(buckets); err != nil {
		// The pattern itself is unused here, but the empty-list contract is
		// shared across adapters.
		return nil, err
	}

	perBucket := make([][]*search.Result, len(buckets))
	totals := make([]int, len(buckets))
	var mu sync.Mutex
	var firstErr error

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.MaxConcurrency)
	for i, bucket := range buckets {
		eg.Go(func() error {
			results, total, err := g.searchBucket(gctx, h, query, bucket, limit)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil
			}
			perBucket[i] = results
			totals[i] = total
			return nil
		})
	}
	_ = eg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	out := &search.BackendResult{}
	for i := range buckets {
		out.Results = append(out.Results, perBucket[i]...)
		out.Total += totals[i]
	}
	return out, nil
}

// searchBucket issues one objects query for a single bucket.
func (g *GraphQL) searchBucket(ctx context.Context, h search.Handler, query, bucket string, limit int) ([]*search.Result, int, error) {
	resp, err := g.do(ctx, bucketObjectSearchQuery, map[string]any{
		"bucket": bucket,
		"query":  query,
		"first":  limit,
	})
	if err != nil {
		return nil, 0, err
	}

	results := make([]*search.Result, 0, len(resp.Data.Objects.Hits))
	for _, hit := range resp.Data.Objects.Hits {
		r := h.ParseResult(search.Hit{
			ID:    hit.Key,
			Index: bucket,
			Score: hit.Score,
			Source: map[string]any{
				"key":           hit.Key,
				"size":          float64(hit.Size),
				"last_modified": hit.Updated,
				"content_type":  hit.ContentType,
			},
		}, bucket)
		if r == nil {
			continue
		}
		results = append(results, r)
	}
	return results, resp.Data.Objects.Total, nil
}

// do posts a {query, variables} request and decodes the envelope.
func (g *GraphQL) do(ctx context.Context, query string, variables map[string]any) (*gqlResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, cerrors.InternalError("failed to encode graphql request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, cerrors.InternalError("failed to build graphql request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, cerrors.Timeout("graphql request timed out", err)
		}
		return nil, cerrors.BackendUnavailable("graphql endpoint unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, cerrors.BackendUnavailable("failed to read graphql response", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, cerrors.BackendUnavailable(
			fmt.Sprintf("graphql endpoint rejected credentials (status %d)", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, cerrors.BackendError(
			fmt.Sprintf("graphql returned status %d: %s", resp.StatusCode, truncate(string(raw), 200)), nil)
	}

	var parsed gqlResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, cerrors.Wrap(cerrors.ErrCodeBadResponse, err)
	}
	if len(parsed.Errors) > 0 {
		msgs := make([]string, len(parsed.Errors))
		for i, e := range parsed.Errors {
			msgs[i] = e.Message
		}
		return nil, cerrors.BackendError("graphql query failed: "+strings.Join(msgs, "; "), nil)
	}
	return &parsed, nil
}
