// Package index implements the naming scheme shared by all per-bucket
// search indices. Each bucket owns up to two indices: one for flat object
// documents (named after the bucket) and one for package documents (bucket
// name plus a "_packages" suffix). Either may have been re-created under a
// reindex alias carrying a "-reindex-v{hash}" suffix. The functions here
// classify an index name and recover the logical bucket name from it.
package index

import "strings"

const (
	// PackagesSuffix marks an index holding package documents.
	PackagesSuffix = "_packages"

	// reindexMarker prefixes the hash suffix of a reindexed alias.
	reindexMarker = "-reindex-v"
)

// IsPackageIndex reports whether the index name refers to a package index.
// It matches both the plain form ("bucket_packages") and the reindexed form
// ("bucket_packages-reindex-v{hash}").
//
// Known limitation: a bucket whose own name contains "_packages" (e.g.
// "my_packages_bucket") is misclassified as a package index. This is
// inherited from the naming scheme and deliberately not patched with
// heuristics.
func IsPackageIndex(name string) bool {
	return strings.Contains(name, PackagesSuffix)
}

// BucketFromIndex recovers the logical bucket name from an index name,
// stripping the reindex alias suffix and the packages suffix in any
// combination. Bucket names containing hyphens are preserved because the
// reindex suffix is matched at its last occurrence.
//
// The same "_packages"-in-bucket-name limitation as IsPackageIndex applies:
// the name is truncated at the first occurrence of the suffix.
func BucketFromIndex(name string) string {
	name = StripReindexSuffix(name)
	if i := strings.Index(name, PackagesSuffix); i >= 0 {
		name = name[:i]
	}
	return name
}

// StripReindexSuffix removes a trailing "-reindex-v{hash}" alias suffix.
// Names without the suffix are returned unchanged.
func StripReindexSuffix(name string) string {
	if i := strings.LastIndex(name, reindexMarker); i >= 0 {
		return name[:i]
	}
	return name
}

// PackageIndexName returns the package index name for a bucket.
func PackageIndexName(bucket string) string {
	return bucket + PackagesSuffix
}
