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
	"net/url"
	"strings"
	"time"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
	"github.com/cataloghq/catalogmcp/internal/index"
	"github.com/cataloghq/catalogmcp/internal/search"
)

// ElasticConfig configures the Elasticsearch-shaped adapter.
type ElasticConfig struct {
	// Endpoint is the base URL of the search API. Empty means the backend
	// is unconfigured and reports unavailable.
	Endpoint string

	// Username and Password enable basic auth when set.
	Username string
	Password string

	// Timeout bounds a single search round-trip (default: 10s).
	Timeout time.Duration
}

// Elastic executes scope-handler queries against an Elasticsearch-style
// search API. Only the minimal hits shape is consumed, not the full client
// surface. A circuit breaker trips the adapter to unavailable after repeated
// transport failures so a dead cluster does not stall every federated query.
type Elastic struct {
	cfg     ElasticConfig
	client  *http.Client
	breaker *cerrors.CircuitBreaker
	logger  *slog.Logger
}

var _ search.Adapter = (*Elastic)(nil)

// esResponse is the minimal response shape the adapter depends on.
type esResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string         `json:"_id"`
			Index  string         `json:"_index"`
			Score  *float64       `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// NewElastic creates the Elasticsearch adapter.
func NewElastic(cfg ElasticConfig, logger *slog.Logger) *Elastic {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Elastic{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: cerrors.NewCircuitBreaker(NameElasticsearch),
		logger:  logger,
	}
}

// Name implements search.Adapter.
func (e *Elastic) Name() string { return NameElasticsearch }

// Supports implements search.Adapter. The search API serves every scope.
func (e *Elastic) Supports(search.Scope) bool { return true }

// Status implements search.Adapter. Unconfigured endpoints and a tripped
// circuit breaker both report unavailable without touching the network.
func (e *Elastic) Status(context.Context) search.Status {
	if e.cfg.Endpoint == "" {
		return search.StatusUnavailable
	}
	if !e.breaker.Allow() {
		return search.StatusUnavailable
	}
	return search.StatusAvailable
}

// Search implements search.Adapter. All target indices are queried in a
// single multi-index request; the comma-joined pattern already supports
// that, so no per-bucket round-trips are needed.
func (e *Elastic) Search(ctx context.Context, h search.Handler, query string, buckets []string, limit int) (*search.BackendResult, error) {
	if e.cfg.Endpoint == "" {
		return nil, cerrors.BackendUnavailable("elasticsearch endpoint not configured", nil)
	}
	if !e.breaker.Allow() {
		return nil, cerrors.BackendUnavailable("elasticsearch circuit breaker open", cerrors.ErrCircuitOpen)
	}

	pattern, err := h.BuildIndexPattern(buckets)
	if err != nil {
		return nil, err
	}

	body := h.BuildQueryFilter(query)
	body["size"] = limit
	body["track_total_hits"] = true
	if c := h.CollapseConfig(); c != nil {
		body["collapse"] = map[string]any{"field": c.Field}
	}

	resp, err := e.doSearch(ctx, pattern, body)
	if err != nil {
		return nil, err
	}

	results := make([]*search.Result, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		score := 0.0
		if hit.Score != nil {
			score = *hit.Score
		}
		// The hit may come from any index in the pattern; its bucket is
		// recovered from the index name, not assumed from the request.
		bucket := index.BucketFromIndex(hit.Index)
		r := h.ParseResult(search.Hit{
			ID:     hit.ID,
			Index:  hit.Index,
			Score:  score,
			Source: hit.Source,
		}, bucket)
		if r == nil {
			// Expected cross-scope filtering; deliberately not logged.
			continue
		}
		results = append(results, r)
	}

	return &search.BackendResult{
		Results: results,
		Total:   resp.Hits.Total.Value,
	}, nil
}

// doSearch performs one POST {endpoint}/{pattern}/_search round-trip.
func (e *Elastic) doSearch(ctx context.Context, pattern string, body map[string]any) (*esResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, cerrors.InternalError("failed to encode search body", err)
	}

	searchURL := fmt.Sprintf("%s/%s/_search",
		strings.TrimRight(e.cfg.Endpoint, "/"), url.PathEscape(pattern))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, searchURL, bytes.NewReader(payload))
	if err != nil {
		return nil, cerrors.InternalError("failed to build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.Username != "" {
		req.SetBasicAuth(e.cfg.Username, e.cfg.Password)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, cerrors.Timeout("elasticsearch search timed out", err)
		}
		e.breaker.RecordFailure()
		return nil, cerrors.BackendUnavailable("elasticsearch unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		e.breaker.RecordFailure()
		return nil, cerrors.BackendUnavailable("failed to read elasticsearch response", err)
	}

	if resp.StatusCode != http.StatusOK {
		// The engine answered, so the transport is healthy; this is an
		// execution fault (bad index, malformed query) that must surface.
		e.breaker.RecordSuccess()
		return nil, cerrors.BackendError(
			fmt.Sprintf("elasticsearch returned status %d: %s", resp.StatusCode, truncate(string(raw), 200)), nil).
			WithDetail("pattern", pattern)
	}

	var parsed esResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		e.breaker.RecordSuccess()
		return nil, cerrors.Wrap(cerrors.ErrCodeBadResponse, err)
	}

	e.breaker.RecordSuccess()
	return &parsed, nil
}

// truncate shortens a string for error messages and logs.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
