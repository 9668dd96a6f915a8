package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cataloghq/catalogmcp/internal/mcp"
)

// newBucketsCmd creates the buckets command.
func newBucketsCmd() *cobra.Command {
	var noCache bool
	var format string

	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "List the catalog buckets",
		Long: `List the buckets known to the search federation.

The list is cached briefly; pass --no-cache to enumerate fresh.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := buildComponents(cmd.Context(), nil)
			if err != nil {
				return err
			}

			if noCache {
				comps.lister.Invalidate()
			}

			buckets, err := comps.lister.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("bucket enumeration failed: %w", err)
			}

			if useJSON(format) {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(buckets)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), mcp.FormatBuckets(buckets))
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the cached bucket list")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json (default: text on a TTY)")

	return cmd
}
