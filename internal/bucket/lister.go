// Package bucket implements the bucket-enumeration collaborator used when a
// search targets all known buckets. The catalog's bucket universe can come
// from an S3-compatible store or from static configuration; either source
// can be wrapped in a TTL cache since enumeration is a cold call whose
// correctness does not depend on freshness.
package bucket

import (
	"context"
	"sort"
)

// Lister enumerates the known catalog buckets.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Static is a fixed bucket list from configuration.
type Static []string

// List implements Lister. The list is returned sorted and copied so callers
// can't mutate the configured set.
func (s Static) List(context.Context) ([]string, error) {
	out := make([]string, len(s))
	copy(out, s)
	sort.Strings(out)
	return out, nil
}
