package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/duhman/volterra-knowledge-engine/internal/adapters/driven/ratelimit"
	"github.com/duhman/volterra-knowledge-engine/internal/adapters/driving/mcp"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP retrieval server",
	Long: `Start the Model Context Protocol server exposing the retrieval
operation catalog to AI assistants.

By default the server communicates over stdio using JSON-RPC. Use
--port to serve HTTP instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  vke serve

  # HTTP mode
  vke serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (0 = use stdio)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	limiterOpts := []ratelimit.Option{}
	if limit := configStore.GetInt("server.rate_limit"); limit > 0 {
		limiterOpts = append(limiterOpts, ratelimit.WithLimit(limit))
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:  searchService,
		Tables:  store.TableStore(),
		Limiter: ratelimit.NewFixedWindow(limiterOpts...),
	})
	if err != nil {
		return err
	}

	if servePort > 0 {
		addr := fmt.Sprintf(":%d", servePort)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
