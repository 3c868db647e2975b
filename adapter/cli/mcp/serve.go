package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/solace/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/solace/internal/mcp"
	"github.com/felixgeelhaar/solace/pkg/config"
	"github.com/felixgeelhaar/solace/pkg/observability"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve booking, availability and calendar tools over MCP.

Set MCP_AUTH_TOKEN to require a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("app not initialized")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.MCPAddr = serveAddr
		}

		logger := observability.NewLogger(observability.LogConfig{
			Level:          cfg.LogLevel,
			Format:         observability.LogFormat(cfg.LogFormat),
			Output:         cmd.ErrOrStderr(),
			ServiceName:    "solace-mcp",
			ServiceVersion: cli.Version,
		})

		err = mcpinternal.Serve(ctx, cfg, app, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: MCP_ADDR)")
}
