package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/cataloghq/catalogmcp/internal/mcp"
	"github.com/cataloghq/catalogmcp/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	scope      string
	bucket     string
	limit      int
	backends   []string
	extensions []string
	format     string // "text", "json", or "" for auto
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the data catalog",
		Long: `Search the data catalog across buckets and entity types.

The query fans out to every configured backend that can serve the scope;
results are merged, deduplicated, and ranked.

Examples:
  catalogmcp search "sales report"
  catalogmcp search "csv" --bucket my-bucket
  catalogmcp search "ccle" --scope packageEntry
  catalogmcp search "genomics" --scope package --limit 5
  catalogmcp search "logs" --limit 0        # count only`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			limitSet := cmd.Flags().Changed("limit")
			return runSearch(cmd.Context(), cmd, query, opts, limitSet)
		},
	}

	cmd.Flags().StringVarP(&opts.scope, "scope", "s", "file", "Entity type: file, packageEntry, package, global")
	cmd.Flags().StringVarP(&opts.bucket, "bucket", "b", "", "Restrict search to one bucket (default: all)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 with explicit flag: count only)")
	cmd.Flags().StringSliceVar(&opts.backends, "backends", nil, "Restrict to named backends: elasticsearch, graphql")
	cmd.Flags().StringSliceVarP(&opts.extensions, "ext", "e", nil, "Filter file results by extension (e.g. csv, parquet)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: text, json (default: text on a TTY)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions, limitSet bool) error {
	comps, err := buildComponents(ctx, nil)
	if err != nil {
		return err
	}

	scope, err := search.ParseScope(opts.scope)
	if err != nil {
		return err
	}

	resp, err := comps.orchestrator.Search(ctx, search.Request{
		Query:      query,
		Scope:      scope,
		Bucket:     opts.bucket,
		Limit:      opts.limit,
		LimitSet:   limitSet,
		Backends:   opts.backends,
		Extensions: opts.extensions,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if useJSON(opts.format) {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), mcp.FormatSearchResults(query, resp))
	return err
}

// useJSON decides the output format: an explicit flag wins, otherwise JSON
// when stdout is piped and text on a terminal.
func useJSON(format string) bool {
	switch format {
	case "json":
		return true
	case "text":
		return false
	}
	return !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}
