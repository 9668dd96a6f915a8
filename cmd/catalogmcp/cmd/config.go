package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cataloghq/catalogmcp/configs"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage catalogmcp configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

// newConfigInitCmd creates the config init command.
func newConfigInitCmd() *cobra.Command {
	var userConfig bool
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an annotated example config file",
		Long: `Write the annotated example configuration.

By default the file is created as .catalogmcp.yaml in the working
directory; with --user it goes to ~/.config/catalogmcp/config.yaml.
An existing file is never overwritten unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := ".catalogmcp.yaml"
			if userConfig {
				home, err := os.UserHomeDir()
				if err != nil {
					return fmt.Errorf("cannot resolve home directory: %w", err)
				}
				path = filepath.Join(home, ".config", "catalogmcp", "config.yaml")
			}
			return writeConfigTemplate(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&userConfig, "user", false, "Write to ~/.config/catalogmcp/config.yaml instead of the working directory")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// writeConfigTemplate writes the embedded template to path.
func writeConfigTemplate(cmd *cobra.Command, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return err
}
