package search

import (
	"fmt"
	"strings"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

// Scope is the caller-selected filter on which entity type a search returns.
// It is a closed set: unknown names are rejected at the boundary rather than
// falling through to a default.
type Scope string

const (
	// ScopeFile searches flat object documents in the per-bucket object indices.
	ScopeFile Scope = "file"

	// ScopePackageEntry searches entry documents in the package indices.
	ScopePackageEntry Scope = "packageEntry"

	// ScopePackage searches manifest (package pointer) documents.
	ScopePackage Scope = "package"

	// ScopeGlobal searches object and package indices together.
	ScopeGlobal Scope = "global"
)

// Scopes lists every valid scope, in documentation order.
func Scopes() []Scope {
	return []Scope{ScopeFile, ScopePackageEntry, ScopePackage, ScopeGlobal}
}

// ParseScope validates a scope name from an untrusted caller.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeFile, ScopePackageEntry, ScopePackage, ScopeGlobal:
		return Scope(s), nil
	default:
		return "", cerrors.New(cerrors.ErrCodeUnknownScope,
			fmt.Sprintf("unknown scope %q (valid: file, packageEntry, package, global)", s), nil)
	}
}

// HandlerFor returns the strategy for a scope.
func HandlerFor(scope Scope) (Handler, error) {
	switch scope {
	case ScopeFile:
		return fileHandler{}, nil
	case ScopePackageEntry:
		return packageEntryHandler{}, nil
	case ScopePackage:
		return packageHandler{}, nil
	case ScopeGlobal:
		return globalHandler{}, nil
	default:
		return nil, cerrors.New(cerrors.ErrCodeUnknownScope,
			fmt.Sprintf("unknown scope %q", scope), nil)
	}
}

// NormalizeBucket strips an s3:// prefix and trailing slashes from a caller-
// supplied bucket parameter. Empty string means "all known buckets".
func NormalizeBucket(bucket string) string {
	bucket = strings.TrimSpace(bucket)
	bucket = strings.TrimPrefix(bucket, "s3://")
	return strings.TrimRight(bucket, "/")
}

// requireBuckets is the shared empty-list guard for pattern builders.
func requireBuckets(buckets []string) error {
	if len(buckets) == 0 {
		return cerrors.New(cerrors.ErrCodeEmptyBucketList,
			"cannot build index pattern from an empty bucket list; resolve buckets first", nil)
	}
	return nil
}
