package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstack-labs/wpask-cli/internal/adapters/driving/mcp"
)

// Site info exposed through MCP resources, injected by main.
var (
	mcpSiteURL string
	mcpModels  []string
)

// SetSiteInfo injects the site URL and backend list for MCP resources.
func SetSiteInfo(siteURL string, models []string) {
	mcpSiteURL = siteURL
	mcpModels = models
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

By default, the server communicates over stdio using JSON-RPC and can be
used with Claude Desktop and other MCP-compatible AI assistants.

Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for Claude Desktop)
  wpask mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  wpask mcp serve --port 8080

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "wpask": {
        "command": "/path/to/wpask",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Ask:     askService,
		Search:  searchService,
		SiteURL: mcpSiteURL,
		Models:  mcpModels,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	// An interrupt shuts the server down gracefully.
	ctx, stop := queryContext(cmd.Context())
	defer stop()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
