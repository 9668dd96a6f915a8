package search

import "strings"

// PrioritizeBucket stable-partitions results so that those from the given
// bucket come first. Relative order within each group is preserved: this
// surfaces locally-relevant results, it does not re-score anything.
func PrioritizeBucket(results []*Result, bucket string) []*Result {
	if bucket == "" || len(results) == 0 {
		return results
	}

	preferred := make([]*Result, 0, len(results))
	rest := make([]*Result, 0, len(results))
	for _, r := range results {
		if r.Bucket == bucket {
			preferred = append(preferred, r)
		} else {
			rest = append(rest, r)
		}
	}
	return append(preferred, rest...)
}

// ApplyExtensionFilter drops results whose extension matches none of the
// given extensions. An empty filter keeps everything. Matching is
// case-insensitive and tolerates a leading dot.
func ApplyExtensionFilter(results []*Result, extensions []string) []*Result {
	if len(extensions) == 0 {
		return results
	}

	want := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		want[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}

	filtered := make([]*Result, 0, len(results))
	for _, r := range results {
		if _, ok := want[strings.ToLower(r.Extension)]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// dedupeResults removes duplicates that arise when more than one backend
// answers for the same documents, keeping the first (highest-priority
// backend) occurrence. Order is preserved.
func dedupeResults(results []*Result) []*Result {
	if len(results) < 2 {
		return results
	}

	type key struct {
		t   ResultType
		uri string
	}
	seen := make(map[key]struct{}, len(results))
	out := make([]*Result, 0, len(results))
	for _, r := range results {
		k := key{t: r.Type, uri: r.S3URI}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}
