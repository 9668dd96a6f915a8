package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cataloghq/catalogmcp/internal/logging"
)

// newLogsCmd creates the logs command.
func newLogsCmd() *cobra.Command {
	var file string
	var tail int
	var pathOnly bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the server log",
		Long: `Show the server log file.

The MCP server logs to ~/.catalogmcp/logs/server.log since stdout is
reserved for the protocol.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			if pathOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read log file: %w", err)
			}

			lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
			if tail > 0 && len(lines) > tail {
				lines = lines[len(lines)-tail:]
			}
			for _, line := range lines {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read a specific log file instead of the default")
	cmd.Flags().IntVarP(&tail, "tail", "t", 50, "Show only the last N lines (0 for all)")
	cmd.Flags().BoolVar(&pathOnly, "path", false, "Print only the log file path")

	return cmd
}
