// Package search implements the federation engine for catalog queries: the
// scope-handler strategy layer, the backend fan-out orchestrator, and the
// normalized result model. Results from many per-bucket indices and more
// than one query engine are merged into a single ranked, type-homogeneous
// list.
package search

import (
	"context"
	"time"
)

// ResultType tags the kind of entity a result represents.
type ResultType string

const (
	// TypeFile is a flat object/file record.
	TypeFile ResultType = "file"

	// TypePackageEntry is a single file inside a versioned package.
	TypePackageEntry ResultType = "packageEntry"

	// TypePackage is a package pointer (manifest) record.
	TypePackage ResultType = "package"

	// TypeMixed is the handler-level tag for the global scope, whose
	// individual results are each file or packageEntry. It never appears
	// on a Result.
	TypeMixed ResultType = "mixed"
)

// Result is one normalized record per matched document. It is created fresh
// per query execution and never mutated after construction.
type Result struct {
	// Type is set exclusively by the scope handler that produced the result.
	Type ResultType `json:"type"`

	// Name is the logical key: object key for files and package entries,
	// namespace/name for packages.
	Name string `json:"name"`

	// Title is a short human label (basename or trailing path segment).
	Title string `json:"title"`

	// Description is an optional free-text summary.
	Description string `json:"description,omitempty"`

	// S3URI is the fully-qualified s3://bucket/key locator. For packages it
	// is synthesized from bucket + package name.
	S3URI string `json:"s3_uri"`

	// Size is the byte count, 0 when not applicable.
	Size int64 `json:"size"`

	// Bucket is the logical bucket name, never an index name.
	Bucket string `json:"bucket"`

	// Score is the backend-assigned relevance score used for ranking.
	Score float64 `json:"score"`

	// Optional derived/passthrough fields.
	Extension    string `json:"extension,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`

	// Metadata holds backend-specific passthrough fields for debugging and
	// advanced consumers. Never required for correctness.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Hit is one raw document as returned by a backend, reduced to the minimal
// shape the handlers depend on.
type Hit struct {
	// ID is the backend document identifier.
	ID string

	// Index is the originating index name. The logical bucket of the hit is
	// recovered from it, never assumed to equal the requested bucket.
	Index string

	// Score is the backend relevance score.
	Score float64

	// Source is the document body.
	Source map[string]any
}

// Status is the backend health vocabulary used for degraded-mode reporting.
type Status string

const (
	// StatusAvailable means the backend can serve queries.
	StatusAvailable Status = "AVAILABLE"

	// StatusUnavailable means the backend is unreachable or misconfigured.
	// This is a degraded mode the orchestrator tolerates, not an error.
	StatusUnavailable Status = "UNAVAILABLE"

	// StatusError means the backend rejected a well-formed request, which
	// indicates a caller bug and always propagates.
	StatusError Status = "ERROR"
)

// Collapse is a server-side deduplication directive: results are grouped by
// Field and only the best-scoring document per group is returned.
type Collapse struct {
	Field string
}

// Handler is the per-scope strategy: it knows how to target indices, shape
// the query so the scope's document population stays pure, and turn one raw
// hit into a normalized result.
type Handler interface {
	// Scope returns the scope this handler serves.
	Scope() Scope

	// BuildIndexPattern returns the comma-joined index pattern for the
	// given buckets. The bucket list must be non-empty; callers resolve
	// "all buckets" before invoking this.
	BuildIndexPattern(buckets []string) (string, error)

	// BuildQueryFilter wraps the raw query string in the structural filter
	// this scope requires, as an Elasticsearch-style query DSL object.
	BuildQueryFilter(query string) map[string]any

	// CollapseConfig returns the dedup directive for this scope, or nil
	// when the scope searches only unique documents.
	CollapseConfig() *Collapse

	// ParseResult converts one raw hit into a normalized result. It returns
	// nil for any hit whose shape does not belong to this scope; that is
	// expected silent filtering, not an error.
	ParseResult(hit Hit, bucket string) *Result

	// ResultType returns the type tag every parsed result carries, or
	// TypeMixed for the global scope.
	ResultType() ResultType
}

// BackendResult is the outcome of one adapter execution: parsed results in
// original relevance order plus the backend-reported total match count.
type BackendResult struct {
	Results []*Result
	Total   int
}

// Adapter executes a scope handler's query against one concrete engine.
// Implementations live in internal/backend.
type Adapter interface {
	// Name is the stable identifier callers use in the backends parameter.
	Name() string

	// Supports reports whether this adapter can serve the given scope.
	Supports(scope Scope) bool

	// Search executes the handler's pattern, filter, and collapse config
	// over the given non-empty bucket list. limit=0 requests a count only.
	Search(ctx context.Context, h Handler, query string, buckets []string, limit int) (*BackendResult, error)

	// Status reports current backend health without executing a query.
	Status(ctx context.Context) Status
}

// Config configures the orchestrator.
type Config struct {
	// DefaultBucket, when set, is moved to the front of results for
	// all-bucket queries. Injected at construction so prioritization is a
	// pure function of inputs.
	DefaultBucket string

	// DefaultLimit is applied when a request leaves the limit unset.
	DefaultLimit int

	// MaxLimit caps the per-query result count.
	MaxLimit int

	// Timeout bounds the whole federated operation.
	Timeout time.Duration
}

// DefaultConfig returns sensible orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit: 10,
		MaxLimit:     100,
		Timeout:      30 * time.Second,
	}
}

// Request is one federated search invocation.
type Request struct {
	// Query is the free-text query string, passed through to backends.
	Query string

	// Scope selects which entity type to return.
	Scope Scope

	// Bucket targets a single bucket; empty string means all known buckets.
	// An s3:// prefix and trailing slashes are stripped.
	Bucket string

	// Limit is the maximum number of results. 0 is a valid count-only
	// request; negative values are rejected.
	Limit int

	// LimitSet distinguishes an explicit Limit=0 (count-only) from an
	// unset limit (use the default).
	LimitSet bool

	// Backends restricts execution to the named adapters. Empty means the
	// default adapter set with degraded-mode skipping.
	Backends []string

	// Extensions optionally filters file results by extension.
	Extensions []string
}

// Response is the merged, ranked outcome of a federated search.
type Response struct {
	// Results in final order: per-backend relevance order, with default-
	// bucket prioritization applied for all-bucket queries. Nil for
	// count-only requests.
	Results []*Result

	// Total is the backend-reported total match count across all consulted
	// backends, before truncation.
	Total int

	// Bucket is the normalized bucket parameter ("" for all buckets).
	Bucket string

	// Scope echoes the validated scope.
	Scope Scope

	// Statuses reports the health of every consulted adapter.
	Statuses map[string]Status
}
