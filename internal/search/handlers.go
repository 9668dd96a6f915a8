package search

import (
	"fmt"
	"path"
	"strings"

	"github.com/cataloghq/catalogmcp/internal/index"
)

// Document fields shared by the two storage schemas. Object indices hold
// flat file documents keyed by "key"; package indices hold entry documents
// ("entry_pk"/"entry_lk") and manifest documents ("ptr_name"/"ptr_tag").
// A handler must never emit a result derived from the wrong shape.
const (
	fieldKey          = "key"
	fieldSize         = "size"
	fieldLastModified = "last_modified"
	fieldContentType  = "content_type"
	fieldExt          = "ext"
	fieldEntryPK      = "entry_pk"
	fieldEntryLK      = "entry_lk"
	fieldPtrName      = "ptr_name"
	fieldPtrTag       = "ptr_tag"
)

// fileHandler searches flat object documents across the per-bucket object
// indices.
type fileHandler struct{}

func (fileHandler) Scope() Scope           { return ScopeFile }
func (fileHandler) ResultType() ResultType { return TypeFile }
func (fileHandler) CollapseConfig() *Collapse {
	// Object keys are unique per index, nothing to dedup.
	return nil
}

func (fileHandler) BuildIndexPattern(buckets []string) (string, error) {
	if err := requireBuckets(buckets); err != nil {
		return "", err
	}
	return strings.Join(buckets, ","), nil
}

func (fileHandler) BuildQueryFilter(query string) map[string]any {
	return map[string]any{
		"query": queryString(query, []string{"key^2", "content", "comment", "meta_text"}),
	}
}

func (fileHandler) ParseResult(hit Hit, bucket string) *Result {
	return parseFileHit(hit, bucket)
}

// packageEntryHandler searches entry documents in the package indices,
// rejecting manifest documents that share those indices.
type packageEntryHandler struct{}

func (packageEntryHandler) Scope() Scope           { return ScopePackageEntry }
func (packageEntryHandler) ResultType() ResultType { return TypePackageEntry }
func (packageEntryHandler) CollapseConfig() *Collapse {
	// The same logical key appears once per package revision; collapse so
	// each entry surfaces once.
	return &Collapse{Field: fieldEntryLK}
}

func (packageEntryHandler) BuildIndexPattern(buckets []string) (string, error) {
	if err := requireBuckets(buckets); err != nil {
		return "", err
	}
	names := make([]string, len(buckets))
	for i, b := range buckets {
		names[i] = index.PackageIndexName(b)
	}
	return strings.Join(names, ","), nil
}

func (packageEntryHandler) BuildQueryFilter(query string) map[string]any {
	return map[string]any{
		"query": queryString(query, []string{"entry_lk^2", "entry_pk", "meta_text"}),
	}
}

func (packageEntryHandler) ParseResult(hit Hit, bucket string) *Result {
	return parseEntryHit(hit, bucket)
}

// packageHandler searches manifest documents only, identified by the
// presence of a package pointer name.
type packageHandler struct{}

func (packageHandler) Scope() Scope           { return ScopePackage }
func (packageHandler) ResultType() ResultType { return TypePackage }
func (packageHandler) CollapseConfig() *Collapse {
	// Manifests are unique documents, nothing to dedup.
	return nil
}

func (packageHandler) BuildIndexPattern(buckets []string) (string, error) {
	if err := requireBuckets(buckets); err != nil {
		return "", err
	}
	names := make([]string, len(buckets))
	for i, b := range buckets {
		names[i] = index.PackageIndexName(b)
	}
	return strings.Join(names, ","), nil
}

func (packageHandler) BuildQueryFilter(query string) map[string]any {
	// Entry documents share the package indices; the exists clause keeps
	// the result population manifest-only regardless of what the free text
	// matches.
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": []any{
					map[string]any{"exists": map[string]any{"field": fieldPtrName}},
					queryString(query, []string{"ptr_name^2", "msg", "meta_text"}),
				},
			},
		},
	}
}

func (packageHandler) ParseResult(hit Hit, bucket string) *Result {
	ptrName := stringField(hit.Source, fieldPtrName)
	if ptrName == "" {
		// Entry document or malformed manifest; not ours.
		return nil
	}

	description := fmt.Sprintf("Package: %s", ptrName)
	if tag := stringField(hit.Source, fieldPtrTag); tag != "" {
		description = fmt.Sprintf("Package: %s (tag: %s)", ptrName, tag)
	}

	return &Result{
		Type:        TypePackage,
		Name:        ptrName,
		Title:       lastSegment(ptrName),
		Description: description,
		// Synthesized from bucket + package name so the scope never depends
		// on the manifest hash field mapping.
		S3URI:    fmt.Sprintf("s3://%s/%s", bucket, ptrName),
		Size:     0,
		Bucket:   bucket,
		Score:    hit.Score,
		Metadata: hit.Source,
	}
}

// globalHandler searches object and package indices together. Each hit's
// type is decided by whether its source index is a package index; manifest
// documents are filtered out so results are only ever file or packageEntry.
type globalHandler struct{}

func (globalHandler) Scope() Scope              { return ScopeGlobal }
func (globalHandler) ResultType() ResultType    { return TypeMixed }
func (globalHandler) CollapseConfig() *Collapse { return nil }

func (globalHandler) BuildIndexPattern(buckets []string) (string, error) {
	if err := requireBuckets(buckets); err != nil {
		return "", err
	}
	names := make([]string, 0, len(buckets)*2)
	for _, b := range buckets {
		names = append(names, b)
	}
	for _, b := range buckets {
		names = append(names, index.PackageIndexName(b))
	}
	return strings.Join(names, ","), nil
}

func (globalHandler) BuildQueryFilter(query string) map[string]any {
	return map[string]any{
		"query": queryString(query, []string{"key^2", "entry_lk^2", "content", "entry_pk", "comment", "meta_text"}),
	}
}

func (globalHandler) ParseResult(hit Hit, bucket string) *Result {
	if index.IsPackageIndex(hit.Index) {
		return parseEntryHit(hit, bucket)
	}
	return parseFileHit(hit, bucket)
}

// parseFileHit converts an object document into a file result, or nil if
// the hit lacks an object key.
func parseFileHit(hit Hit, bucket string) *Result {
	key := stringField(hit.Source, fieldKey)
	if key == "" {
		return nil
	}

	ext := stringField(hit.Source, fieldExt)
	if ext == "" {
		ext = strings.TrimPrefix(path.Ext(key), ".")
	}

	return &Result{
		Type:         TypeFile,
		Name:         key,
		Title:        path.Base(key),
		S3URI:        fmt.Sprintf("s3://%s/%s", bucket, key),
		Size:         intField(hit.Source, fieldSize),
		Bucket:       bucket,
		Score:        hit.Score,
		Extension:    strings.TrimPrefix(ext, "."),
		ContentType:  stringField(hit.Source, fieldContentType),
		LastModified: stringField(hit.Source, fieldLastModified),
		Metadata:     hit.Source,
	}
}

// parseEntryHit converts an entry document into a packageEntry result. It
// returns nil for manifest documents (which carry a package pointer name but
// no entry key) and for hits without a logical key.
func parseEntryHit(hit Hit, bucket string) *Result {
	if stringField(hit.Source, fieldPtrName) != "" {
		return nil
	}
	logicalKey := stringField(hit.Source, fieldEntryLK)
	if logicalKey == "" {
		return nil
	}

	// Entries carry the physical location when known; otherwise the locator
	// is synthesized from the logical key.
	s3uri := stringField(hit.Source, fieldEntryPK)
	if !strings.HasPrefix(s3uri, "s3://") {
		s3uri = fmt.Sprintf("s3://%s/%s", bucket, logicalKey)
	}

	return &Result{
		Type:         TypePackageEntry,
		Name:         logicalKey,
		Title:        path.Base(logicalKey),
		S3URI:        s3uri,
		Size:         intField(hit.Source, fieldSize),
		Bucket:       bucket,
		Score:        hit.Score,
		Extension:    strings.TrimPrefix(path.Ext(logicalKey), "."),
		LastModified: stringField(hit.Source, fieldLastModified),
		Metadata:     hit.Source,
	}
}

// queryString wraps a free-text query in a lenient query_string clause so
// malformed field/value type combinations skip instead of failing the query.
func queryString(query string, fields []string) map[string]any {
	return map[string]any{
		"query_string": map[string]any{
			"query":   query,
			"fields":  fields,
			"lenient": true,
		},
	}
}

// stringField extracts a string field from a document body.
func stringField(source map[string]any, field string) string {
	if source == nil {
		return ""
	}
	if v, ok := source[field].(string); ok {
		return v
	}
	return ""
}

// intField extracts a numeric field; JSON numbers decode as float64.
func intField(source map[string]any, field string) int64 {
	if source == nil {
		return 0
	}
	switch v := source[field].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// lastSegment returns the trailing path segment of a package name.
func lastSegment(name string) string {
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
