package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cataloghq/catalogmcp/internal/mcp"
)

// newStatusCmd creates the status command.
func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report backend health",
		Long:  `Report the health of each configured search backend without running a query.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			comps, err := buildComponents(cmd.Context(), nil)
			if err != nil {
				return err
			}

			statuses := comps.orchestrator.Statuses(cmd.Context())

			if useJSON(format) {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), mcp.FormatStatuses(statuses))
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json (default: text on a TTY)")

	return cmd
}
