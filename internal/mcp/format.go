package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cataloghq/catalogmcp/internal/search"
)

// FormatSearchResults formats federated search results as markdown.
func FormatSearchResults(query string, resp *search.Response) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Search Results for \"%s\"\n\n", query))

	if resp.Bucket != "" {
		sb.WriteString(fmt.Sprintf("Bucket: `%s`\n\n", resp.Bucket))
	}

	if len(resp.Results) == 0 {
		if resp.Total > 0 {
			// Count-only request.
			sb.WriteString(fmt.Sprintf("Total matches: %d\n", resp.Total))
			return sb.String()
		}
		sb.WriteString(fmt.Sprintf("No results found for \"%s\"\n", query))
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Found %d result", resp.Total))
	if resp.Total != 1 {
		sb.WriteString("s")
	}
	if len(resp.Results) < resp.Total {
		sb.WriteString(fmt.Sprintf(" (showing %d)", len(resp.Results)))
	}
	sb.WriteString("\n\n")

	for i, r := range resp.Results {
		formatResult(&sb, i+1, r)
	}

	return sb.String()
}

// FormatBuckets formats a bucket list as markdown.
func FormatBuckets(buckets []string) string {
	if len(buckets) == 0 {
		return "No buckets found.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Catalog Buckets (%d)\n\n", len(buckets)))
	for _, b := range buckets {
		sb.WriteString(fmt.Sprintf("- `%s`\n", b))
	}
	return sb.String()
}

// FormatStatuses formats backend health as markdown.
func FormatStatuses(statuses map[string]search.Status) string {
	var sb strings.Builder
	sb.WriteString("## Backend Status\n\n")
	for _, name := range sortedKeys(statuses) {
		sb.WriteString(fmt.Sprintf("- **%s**: %s\n", name, statuses[name]))
	}
	return sb.String()
}

// formatResult formats a single normalized result.
func formatResult(sb *strings.Builder, num int, r *search.Result) {
	fmt.Fprintf(sb, "### %d. %s (score: %.2f)\n", num, r.Title, r.Score)

	fmt.Fprintf(sb, "- Type: `%s`\n", r.Type)
	fmt.Fprintf(sb, "- Location: `%s`\n", r.S3URI)
	if r.Description != "" {
		fmt.Fprintf(sb, "- %s\n", r.Description)
	}
	if r.Size > 0 {
		fmt.Fprintf(sb, "- Size: %s\n", formatSize(r.Size))
	}
	if r.LastModified != "" {
		fmt.Fprintf(sb, "- Modified: %s\n", r.LastModified)
	}

	sb.WriteString("\n")
}

// formatSize renders a byte count with a human-friendly unit.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// sortedKeys returns map keys in stable order for deterministic output.
func sortedKeys(m map[string]search.Status) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
