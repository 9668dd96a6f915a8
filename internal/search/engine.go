package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

// BucketLister is the external bucket-enumeration collaborator, consumed
// when a request targets all buckets. It is treated as a cold, cacheable
// call; correctness does not depend on caching.
type BucketLister interface {
	List(ctx context.Context) ([]string, error)
}

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// Orchestrator fans one logical query out across the applicable backends
// and buckets, merges the parsed results, and ranks them. Adapters and the
// bucket lister are injected at construction; there is no ambient state.
type Orchestrator struct {
	adapters []Adapter
	byName   map[string]Adapter
	lister   BucketLister
	cfg      Config
	logger   *slog.Logger
}

// OrchestratorOption configures the orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger used for degraded-mode reporting.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOrchestrator creates a federation orchestrator over the given adapter
// set. Adapter order is significant: merged results keep adapter order, so
// earlier adapters win dedup ties.
func NewOrchestrator(lister BucketLister, cfg Config, adapters []Adapter, opts ...OrchestratorOption) (*Orchestrator, error) {
	if lister == nil {
		return nil, fmt.Errorf("%w: bucket lister is required", ErrNilDependency)
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("%w: at least one backend adapter is required", ErrNilDependency)
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}

	o := &Orchestrator{
		adapters: adapters,
		byName:   make(map[string]Adapter, len(adapters)),
		lister:   lister,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, a := range adapters {
		o.byName[a.Name()] = a
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Statuses reports the current health of every configured adapter.
func (o *Orchestrator) Statuses(ctx context.Context) map[string]Status {
	statuses := make(map[string]Status, len(o.adapters))
	for _, a := range o.adapters {
		statuses[a.Name()] = a.Status(ctx)
	}
	return statuses
}

// Search executes one federated query: validate, resolve the bucket list,
// fan out to the selected adapters concurrently, merge, prioritize, and
// truncate. A timed-out query returns a timeout failure, never a silently
// partial result list.
func (o *Orchestrator) Search(ctx context.Context, req Request) (*Response, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, cerrors.New(cerrors.ErrCodeQueryEmpty, "query must not be empty", nil)
	}
	if req.Limit < 0 {
		return nil, cerrors.InvalidArgument(fmt.Sprintf("limit must not be negative, got %d", req.Limit))
	}

	limit := req.Limit
	if !req.LimitSet {
		limit = o.cfg.DefaultLimit
	}
	if limit > o.cfg.MaxLimit {
		limit = o.cfg.MaxLimit
	}

	handler, err := HandlerFor(req.Scope)
	if err != nil {
		return nil, err
	}

	selected, err := o.selectAdapters(req.Scope, req.Backends)
	if err != nil {
		return nil, err
	}

	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	bucket := NormalizeBucket(req.Bucket)
	allBuckets := bucket == ""

	buckets := []string{bucket}
	if allBuckets {
		// One enumeration round-trip per query, shared by every adapter.
		buckets, err = o.lister.List(ctx)
		if err != nil {
			if isTimeout(err) {
				return nil, cerrors.Timeout("bucket enumeration timed out", err)
			}
			return nil, cerrors.Wrap(cerrors.ErrCodeBucketListFailed, err)
		}
		if len(buckets) == 0 {
			return &Response{Bucket: bucket, Scope: req.Scope, Statuses: map[string]Status{}}, nil
		}
	}

	type slot struct {
		res *BackendResult
		err error
	}
	slots := make([]slot, len(selected))

	// Each adapter writes only its own slot; no locking needed at merge.
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range selected {
		g.Go(func() error {
			slots[i].res, slots[i].err = a.Search(gctx, handler, query, buckets, limit)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, cerrors.Timeout("search timed out before all backends answered", err)
	}

	statuses := make(map[string]Status, len(selected))
	var merged []*Result
	total := 0
	answered := 0

	for i, a := range selected {
		if err := slots[i].err; err != nil {
			if isTimeout(err) {
				return nil, cerrors.Timeout(fmt.Sprintf("backend %s timed out", a.Name()), err)
			}
			if cerrors.GetCode(err) == cerrors.ErrCodeBackendUnavailable {
				// Degraded mode: skip unless nothing else answers.
				statuses[a.Name()] = StatusUnavailable
				o.logger.Warn("backend unavailable, skipping",
					slog.String("backend", a.Name()),
					slog.String("error", err.Error()))
				continue
			}
			// Execution fault or caller bug: never swallowed.
			statuses[a.Name()] = StatusError
			return nil, err
		}

		statuses[a.Name()] = StatusAvailable
		answered++
		merged = append(merged, slots[i].res.Results...)
		total += slots[i].res.Total
	}

	if answered == 0 {
		return nil, cerrors.BackendUnavailable(
			"no backend available to answer the query", nil).
			WithSuggestion("Check backend endpoints in the configuration.")
	}

	merged = dedupeResults(merged)
	merged = ApplyExtensionFilter(merged, req.Extensions)

	// Surface locally-relevant results first on all-bucket queries. This is
	// a stable partition, not a re-sort.
	if allBuckets && o.cfg.DefaultBucket != "" {
		merged = PrioritizeBucket(merged, o.cfg.DefaultBucket)
	}

	if req.LimitSet && limit == 0 {
		// Count-only request: no result bodies.
		return &Response{Total: total, Bucket: bucket, Scope: req.Scope, Statuses: statuses}, nil
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}

	return &Response{
		Results:  merged,
		Total:    total,
		Bucket:   bucket,
		Scope:    req.Scope,
		Statuses: statuses,
	}, nil
}

// selectAdapters resolves the adapter set for a request. Explicitly named
// backends must exist and support the scope; the default set silently drops
// adapters that do not serve the scope.
func (o *Orchestrator) selectAdapters(scope Scope, names []string) ([]Adapter, error) {
	if len(names) == 0 {
		selected := make([]Adapter, 0, len(o.adapters))
		for _, a := range o.adapters {
			if a.Supports(scope) {
				selected = append(selected, a)
			}
		}
		if len(selected) == 0 {
			return nil, cerrors.InvalidArgument(fmt.Sprintf("no configured backend supports scope %q", scope))
		}
		return selected, nil
	}

	selected := make([]Adapter, 0, len(names))
	for _, name := range names {
		a, ok := o.byName[name]
		if !ok {
			return nil, cerrors.New(cerrors.ErrCodeUnknownBackend,
				fmt.Sprintf("unknown backend %q", name), nil)
		}
		if !a.Supports(scope) {
			return nil, cerrors.InvalidArgument(
				fmt.Sprintf("backend %q does not support scope %q", name, scope))
		}
		selected = append(selected, a)
	}
	return selected, nil
}

// isTimeout reports whether an error is a deadline expiry, either raw or
// already classified.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		cerrors.GetCode(err) == cerrors.ErrCodeBackendTimeout
}
