package mcp

import (
	"github.com/cataloghq/catalogmcp/internal/search"
)

// CatalogSearchInput defines the input schema for the catalog_search tool.
type CatalogSearchInput struct {
	Query      string   `json:"query" jsonschema:"the search query to execute"`
	Scope      string   `json:"scope,omitempty" jsonschema:"entity type to search: file, packageEntry, package, or global (default: file)"`
	Bucket     string   `json:"bucket,omitempty" jsonschema:"restrict the search to one bucket; empty searches all known buckets"`
	Limit      *int     `json:"limit,omitempty" jsonschema:"maximum number of results, default 10; 0 returns only the match count"`
	Backends   []string `json:"backends,omitempty" jsonschema:"restrict execution to the named backends: elasticsearch, graphql"`
	Extensions []string `json:"extensions,omitempty" jsonschema:"filter file results by extension, e.g. csv, parquet"`
}

// CatalogSearchOutput is the envelope every catalog_search call returns.
// Failures are reported inside the envelope with success=false; the tool
// itself never raises, so a missing bucket or an unreachable backend reads
// as a result, not a protocol fault.
type CatalogSearchOutput struct {
	Success      bool                 `json:"success" jsonschema:"false when the search could not be executed"`
	Results      []SearchResultOutput `json:"results" jsonschema:"normalized search results in relevance order"`
	TotalResults int                  `json:"total_results" jsonschema:"backend-reported total match count before truncation"`
	Bucket       string               `json:"bucket,omitempty" jsonschema:"the normalized bucket parameter; empty means all buckets"`
	Scope        string               `json:"scope,omitempty" jsonschema:"the scope the search ran under"`
	Backends     map[string]string    `json:"backends,omitempty" jsonschema:"per-backend health observed during this search"`
	Error        string               `json:"error,omitempty" jsonschema:"failure description when success is false"`
	ErrorCode    string               `json:"error_code,omitempty" jsonschema:"structured error code when success is false"`
	Suggestion   string               `json:"suggestion,omitempty" jsonschema:"actionable hint when success is false"`
}

// SearchResultOutput defines a single normalized search result.
type SearchResultOutput struct {
	Type         string  `json:"type" jsonschema:"result kind: file, packageEntry, or package"`
	Name         string  `json:"name" jsonschema:"object key or package namespace/name"`
	Title        string  `json:"title" jsonschema:"short human label"`
	Description  string  `json:"description,omitempty" jsonschema:"free-text summary when available"`
	S3URI        string  `json:"s3_uri" jsonschema:"fully qualified s3://bucket/key locator"`
	Size         int64   `json:"size" jsonschema:"size in bytes, 0 when not applicable"`
	Bucket       string  `json:"bucket" jsonschema:"logical bucket the result lives in"`
	Score        float64 `json:"score" jsonschema:"backend relevance score"`
	Extension    string  `json:"extension,omitempty" jsonschema:"file extension without the dot"`
	ContentType  string  `json:"content_type,omitempty" jsonschema:"MIME type when known"`
	LastModified string  `json:"last_modified,omitempty" jsonschema:"last modification timestamp when known"`
}

// ListBucketsInput defines the input schema for the list_buckets tool.
type ListBucketsInput struct {
	NoCache bool `json:"no_cache,omitempty" jsonschema:"bypass the cached bucket list and enumerate fresh"`
}

// ListBucketsOutput defines the output schema for the list_buckets tool.
type ListBucketsOutput struct {
	Buckets []string `json:"buckets" jsonschema:"known catalog buckets, sorted"`
	Count   int      `json:"count" jsonschema:"number of known buckets"`
}

// BackendStatusInput defines the (empty) input schema for backend_status.
type BackendStatusInput struct{}

// BackendStatusOutput defines the output schema for the backend_status tool.
type BackendStatusOutput struct {
	Backends map[string]string `json:"backends" jsonschema:"per-backend health: AVAILABLE, UNAVAILABLE, or ERROR"`
}

// toResultOutput converts one engine result to the tool output shape.
func toResultOutput(r *search.Result) SearchResultOutput {
	return SearchResultOutput{
		Type:         string(r.Type),
		Name:         r.Name,
		Title:        r.Title,
		Description:  r.Description,
		S3URI:        r.S3URI,
		Size:         r.Size,
		Bucket:       r.Bucket,
		Score:        r.Score,
		Extension:    r.Extension,
		ContentType:  r.ContentType,
		LastModified: r.LastModified,
	}
}

// toEnvelope converts an engine response into a success envelope.
func toEnvelope(resp *search.Response) CatalogSearchOutput {
	out := CatalogSearchOutput{
		Success:      true,
		Results:      make([]SearchResultOutput, 0, len(resp.Results)),
		TotalResults: resp.Total,
		Bucket:       resp.Bucket,
		Scope:        string(resp.Scope),
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, toResultOutput(r))
	}
	if len(resp.Statuses) > 0 {
		out.Backends = make(map[string]string, len(resp.Statuses))
		for name, status := range resp.Statuses {
			out.Backends[name] = string(status)
		}
	}
	return out
}
