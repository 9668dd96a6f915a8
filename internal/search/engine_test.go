package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

// fakeAdapter is a scriptable Adapter for orchestrator tests.
type fakeAdapter struct {
	name     string
	scopes   map[Scope]bool
	status   Status
	searchFn func(ctx context.Context, h Handler, query string, buckets []string, limit int) (*BackendResult, error)
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Supports(scope Scope) bool {
	if f.scopes == nil {
		return true
	}
	return f.scopes[scope]
}

func (f *fakeAdapter) Status(context.Context) Status {
	if f.status == "" {
		return StatusAvailable
	}
	return f.status
}

func (f *fakeAdapter) Search(ctx context.Context, h Handler, query string, buckets []string, limit int) (*BackendResult, error) {
	return f.searchFn(ctx, h, query, buckets, limit)
}

// fakeLister is a scriptable BucketLister.
type fakeLister struct {
	buckets []string
	err     error
	calls   int
}

func (f *fakeLister) List(context.Context) ([]string, error) {
	f.calls++
	return f.buckets, f.err
}

func fileResult(bucket, key string, score float64) *Result {
	return &Result{
		Type:   TypeFile,
		Name:   key,
		S3URI:  "s3://" + bucket + "/" + key,
		Bucket: bucket,
		Score:  score,
	}
}

func staticResults(results ...*Result) func(context.Context, Handler, string, []string, int) (*BackendResult, error) {
	return func(context.Context, Handler, string, []string, int) (*BackendResult, error) {
		return &BackendResult{Results: results, Total: len(results)}, nil
	}
}

func failWith(err error) func(context.Context, Handler, string, []string, int) (*BackendResult, error) {
	return func(context.Context, Handler, string, []string, int) (*BackendResult, error) {
		return nil, err
	}
}

func newTestOrchestrator(t *testing.T, lister BucketLister, cfg Config, adapters ...Adapter) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(lister, cfg, adapters)
	require.NoError(t, err)
	return o
}

func TestNewOrchestratorValidation(t *testing.T) {
	adapter := &fakeAdapter{name: "a", searchFn: staticResults()}

	_, err := NewOrchestrator(nil, Config{}, []Adapter{adapter})
	require.ErrorIs(t, err, ErrNilDependency)

	_, err = NewOrchestrator(&fakeLister{}, Config{}, nil)
	require.ErrorIs(t, err, ErrNilDependency)
}

func TestSearchValidation(t *testing.T) {
	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{},
		&fakeAdapter{name: "a", searchFn: staticResults()})

	tests := []struct {
		name     string
		req      Request
		wantCode string
	}{
		{
			name:     "empty query",
			req:      Request{Query: "", Scope: ScopeFile},
			wantCode: cerrors.ErrCodeQueryEmpty,
		},
		{
			name:     "whitespace query",
			req:      Request{Query: "   ", Scope: ScopeFile},
			wantCode: cerrors.ErrCodeQueryEmpty,
		},
		{
			name:     "negative limit",
			req:      Request{Query: "x", Scope: ScopeFile, Limit: -1},
			wantCode: cerrors.ErrCodeInvalidArgument,
		},
		{
			name:     "unknown scope",
			req:      Request{Query: "x", Scope: Scope("bogus")},
			wantCode: cerrors.ErrCodeUnknownScope,
		},
		{
			name:     "unknown backend",
			req:      Request{Query: "x", Scope: ScopeFile, Backends: []string{"nope"}},
			wantCode: cerrors.ErrCodeUnknownBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Search(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, cerrors.GetCode(err))
		})
	}
}

func TestSearchExplicitBackendScopeMismatch(t *testing.T) {
	fileOnly := &fakeAdapter{
		name:     "graphql",
		scopes:   map[Scope]bool{ScopeFile: true},
		searchFn: staticResults(),
	}
	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, fileOnly)

	// Explicitly naming a backend that cannot serve the scope is a caller
	// bug, not a silent skip.
	_, err := o.Search(context.Background(), Request{
		Query: "x", Scope: ScopePackage, Backends: []string{"graphql"},
	})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidArgument, cerrors.GetCode(err))

	// The default set silently drops the same adapter, which leaves nothing.
	_, err = o.Search(context.Background(), Request{Query: "x", Scope: ScopePackage})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeInvalidArgument, cerrors.GetCode(err))
}

func TestSearchMergePreservesAdapterOrder(t *testing.T) {
	first := &fakeAdapter{name: "elasticsearch",
		searchFn: staticResults(fileResult("b", "a.csv", 0.5), fileResult("b", "b.csv", 0.4))}
	second := &fakeAdapter{name: "graphql",
		searchFn: staticResults(fileResult("b", "c.csv", 9.9))}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, first, second)

	resp, err := o.Search(context.Background(), Request{Query: "csv", Scope: ScopeFile})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	// Per-backend relevance order, not global score order: the high-scoring
	// graphql hit stays after the elasticsearch block.
	assert.Equal(t, "a.csv", resp.Results[0].Name)
	assert.Equal(t, "b.csv", resp.Results[1].Name)
	assert.Equal(t, "c.csv", resp.Results[2].Name)
	assert.Equal(t, 3, resp.Total)
}

func TestSearchDedupeAcrossBackends(t *testing.T) {
	first := &fakeAdapter{name: "elasticsearch",
		searchFn: staticResults(fileResult("b", "a.csv", 2.0))}
	second := &fakeAdapter{name: "graphql",
		searchFn: staticResults(fileResult("b", "a.csv", 1.0), fileResult("b", "z.csv", 0.1))}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, first, second)

	resp, err := o.Search(context.Background(), Request{Query: "csv", Scope: ScopeFile})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2.0, resp.Results[0].Score, "first backend wins the dedup tie")
}

func TestSearchSingleBucketSkipsEnumeration(t *testing.T) {
	lister := &fakeLister{buckets: []string{"a", "b"}}
	var gotBuckets []string
	adapter := &fakeAdapter{name: "elasticsearch",
		searchFn: func(_ context.Context, _ Handler, _ string, buckets []string, _ int) (*BackendResult, error) {
			gotBuckets = buckets
			return &BackendResult{}, nil
		}}

	o := newTestOrchestrator(t, lister, Config{}, adapter)

	_, err := o.Search(context.Background(), Request{
		Query: "x", Scope: ScopeFile, Bucket: "s3://my-bucket/",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, lister.calls, "single-bucket queries never enumerate")
	assert.Equal(t, []string{"my-bucket"}, gotBuckets, "bucket parameter is normalized")
}

func TestSearchAllBucketsEnumeratesOnce(t *testing.T) {
	lister := &fakeLister{buckets: []string{"a", "b"}}
	adapterCalls := 0
	adapter := func(name string) *fakeAdapter {
		return &fakeAdapter{name: name,
			searchFn: func(_ context.Context, _ Handler, _ string, buckets []string, _ int) (*BackendResult, error) {
				adapterCalls++
				assert.Equal(t, []string{"a", "b"}, buckets)
				return &BackendResult{}, nil
			}}
	}

	o := newTestOrchestrator(t, lister, Config{}, adapter("elasticsearch"), adapter("graphql"))

	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.NoError(t, err)
	assert.Equal(t, 1, lister.calls, "one enumeration round-trip shared by all adapters")
	assert.Equal(t, 2, adapterCalls)
}

func TestSearchEmptyBucketUniverse(t *testing.T) {
	called := false
	adapter := &fakeAdapter{name: "elasticsearch",
		searchFn: func(context.Context, Handler, string, []string, int) (*BackendResult, error) {
			called = true
			return &BackendResult{}, nil
		}}

	o := newTestOrchestrator(t, &fakeLister{buckets: nil}, Config{}, adapter)

	resp, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
	assert.False(t, called, "no backend consulted when the universe is empty")
}

func TestSearchBucketListFailure(t *testing.T) {
	lister := &fakeLister{err: cerrors.New(cerrors.ErrCodeBucketListFailed, "boom", nil)}
	o := newTestOrchestrator(t, lister, Config{},
		&fakeAdapter{name: "elasticsearch", searchFn: staticResults()})

	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeBucketListFailed, cerrors.GetCode(err))
}

func TestSearchDefaultBucketPrioritization(t *testing.T) {
	results := staticResults(
		fileResult("other", "a.csv", 3.0),
		fileResult("home", "b.csv", 2.0),
		fileResult("other", "c.csv", 1.0),
	)
	cfg := Config{DefaultBucket: "home"}

	t.Run("applied on all-bucket queries", func(t *testing.T) {
		o := newTestOrchestrator(t, &fakeLister{buckets: []string{"home", "other"}}, cfg,
			&fakeAdapter{name: "elasticsearch", searchFn: results})

		resp, err := o.Search(context.Background(), Request{Query: "csv", Scope: ScopeFile})
		require.NoError(t, err)
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "home", resp.Results[0].Bucket)
		assert.Equal(t, "b.csv", resp.Results[0].Name)
		// The partition is stable: the remaining results keep their order.
		assert.Equal(t, "a.csv", resp.Results[1].Name)
		assert.Equal(t, "c.csv", resp.Results[2].Name)
	})

	t.Run("not applied on single-bucket queries", func(t *testing.T) {
		o := newTestOrchestrator(t, &fakeLister{}, cfg,
			&fakeAdapter{name: "elasticsearch", searchFn: results})

		resp, err := o.Search(context.Background(), Request{Query: "csv", Scope: ScopeFile, Bucket: "other"})
		require.NoError(t, err)
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "a.csv", resp.Results[0].Name)
	})
}

func TestSearchCountOnly(t *testing.T) {
	gotLimit := -1
	adapter := &fakeAdapter{name: "elasticsearch",
		searchFn: func(_ context.Context, _ Handler, _ string, _ []string, limit int) (*BackendResult, error) {
			gotLimit = limit
			return &BackendResult{Total: 42}, nil
		}}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, adapter)

	resp, err := o.Search(context.Background(), Request{
		Query: "x", Scope: ScopeFile, Limit: 0, LimitSet: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, gotLimit)
	assert.Nil(t, resp.Results, "count-only returns no result bodies")
	assert.Equal(t, 42, resp.Total)
}

func TestSearchLimitDefaultsAndCap(t *testing.T) {
	gotLimit := -1
	adapter := &fakeAdapter{name: "elasticsearch",
		searchFn: func(_ context.Context, _ Handler, _ string, _ []string, limit int) (*BackendResult, error) {
			gotLimit = limit
			return &BackendResult{}, nil
		}}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}},
		Config{DefaultLimit: 7, MaxLimit: 20}, adapter)

	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.NoError(t, err)
	assert.Equal(t, 7, gotLimit, "unset limit uses the default")

	_, err = o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile, Limit: 500, LimitSet: true})
	require.NoError(t, err)
	assert.Equal(t, 20, gotLimit, "explicit limit is capped")
}

func TestSearchTruncation(t *testing.T) {
	adapter := &fakeAdapter{name: "elasticsearch",
		searchFn: staticResults(
			fileResult("b", "1", 3), fileResult("b", "2", 2), fileResult("b", "3", 1),
		)}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, adapter)

	resp, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile, Limit: 2, LimitSet: true})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, 3, resp.Total, "total reports the pre-truncation count")
}

func TestSearchDegradedMode(t *testing.T) {
	down := &fakeAdapter{name: "graphql",
		searchFn: failWith(cerrors.BackendUnavailable("endpoint unreachable", nil))}
	up := &fakeAdapter{name: "elasticsearch",
		searchFn: staticResults(fileResult("b", "a.csv", 1.0))}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, up, down)

	resp, err := o.Search(context.Background(), Request{Query: "csv", Scope: ScopeFile})
	require.NoError(t, err, "an unavailable backend is skipped, not fatal")
	assert.Len(t, resp.Results, 1)
	assert.Equal(t, StatusAvailable, resp.Statuses["elasticsearch"])
	assert.Equal(t, StatusUnavailable, resp.Statuses["graphql"])
}

func TestSearchAllBackendsUnavailable(t *testing.T) {
	down := func(name string) *fakeAdapter {
		return &fakeAdapter{name: name,
			searchFn: failWith(cerrors.BackendUnavailable("unreachable", nil))}
	}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{},
		down("elasticsearch"), down("graphql"))

	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeBackendUnavailable, cerrors.GetCode(err))
}

func TestSearchBackendErrorSurfaces(t *testing.T) {
	bad := &fakeAdapter{name: "elasticsearch",
		searchFn: failWith(cerrors.BackendError("engine rejected the query", nil))}
	good := &fakeAdapter{name: "graphql",
		searchFn: staticResults(fileResult("b", "a.csv", 1.0))}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, bad, good)

	// Execution faults always surface even when another backend answered.
	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeBackendError, cerrors.GetCode(err))
}

func TestSearchTimeoutDistinctFromEmpty(t *testing.T) {
	slow := &fakeAdapter{name: "elasticsearch",
		searchFn: failWith(cerrors.Timeout("backend timed out", context.DeadlineExceeded))}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}}, Config{}, slow)

	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.Error(t, err, "a timed-out query is a failure, never an empty result")
	assert.Equal(t, cerrors.ErrCodeBackendTimeout, cerrors.GetCode(err))
}

func TestSearchContextTimeout(t *testing.T) {
	blocked := &fakeAdapter{name: "elasticsearch",
		searchFn: func(ctx context.Context, _ Handler, _ string, _ []string, _ int) (*BackendResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}

	o := newTestOrchestrator(t, &fakeLister{buckets: []string{"b"}},
		Config{Timeout: 20 * time.Millisecond}, blocked)

	_, err := o.Search(context.Background(), Request{Query: "x", Scope: ScopeFile})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeBackendTimeout, cerrors.GetCode(err))
}

func TestStatuses(t *testing.T) {
	o := newTestOrchestrator(t, &fakeLister{}, Config{},
		&fakeAdapter{name: "elasticsearch", status: StatusAvailable, searchFn: staticResults()},
		&fakeAdapter{name: "graphql", status: StatusUnavailable, searchFn: staticResults()})

	statuses := o.Statuses(context.Background())
	assert.Equal(t, StatusAvailable, statuses["elasticsearch"])
	assert.Equal(t, StatusUnavailable, statuses["graphql"])
}
