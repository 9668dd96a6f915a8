package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cataloghq/catalogmcp/internal/config"
	"github.com/cataloghq/catalogmcp/internal/logging"
	"github.com/cataloghq/catalogmcp/internal/mcp"
)

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP server exposing catalog_search, list_buckets, and
backend_status tools over the stdio transport.

Stdout carries JSON-RPC exclusively; diagnostics go to the log file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe wires components and runs the MCP server until the context ends.
func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// The MCP transport owns stdout, so logging must stay off it. File-only
	// logging unless debug mode already installed a logger.
	logger := slog.Default()
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.WriteToStderr = false
		logCfg.Level = cfg.Server.LogLevel
		fileLogger, cleanup, err := logging.Setup(logCfg)
		if err == nil {
			defer cleanup()
			logger = fileLogger
			slog.SetDefault(logger)
		}
	}

	comps, err := buildComponentsFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build server components", slog.String("error", err.Error()))
		return err
	}

	server, err := mcp.NewServer(comps.orchestrator, comps.lister, logger)
	if err != nil {
		return err
	}

	return server.Serve(ctx, cfg.Server.Transport)
}
