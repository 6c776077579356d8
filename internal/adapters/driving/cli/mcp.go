package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/caselaw/internal/adapters/driving/mcp"
	"github.com/custodia-labs/caselaw/internal/logger"
)

var (
	mcpPort int
	mcpAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the corpus to AI assistants over MCP",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Runs a Model Context Protocol server exposing the retrieve, ask and
build_arguments tools and read-only resources for topics, cases and their
passages.

The server speaks JSON-RPC over stdio unless --port or --addr is given, in
which case it serves streamable HTTP until interrupted.

  caselaw mcp serve
  caselaw mcp serve --port 8080
  caselaw mcp serve --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port on all interfaces")
	mcpServeCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve HTTP on host:port")
	mcpServeCmd.MarkFlagsMutuallyExclusive("port", "addr")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}
	if generationService == nil {
		logger.Warn("No generation service; only the retrieve tool is offered")
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retrieval:  retrievalService,
		Generation: generationService,
		Document:   documentService,
	})
	if err != nil {
		return err
	}

	addr, err := mcpListenAddr()
	if err != nil {
		return err
	}
	if addr == "" {
		return server.Run(cmd.Context())
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on %s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}

// mcpListenAddr returns the HTTP address, or "" for stdio.
func mcpListenAddr() (string, error) {
	switch {
	case mcpAddr != "":
		return mcpAddr, nil
	case mcpPort < 0 || mcpPort > 65535:
		return "", fmt.Errorf("invalid port %d", mcpPort)
	case mcpPort > 0:
		return ":" + strconv.Itoa(mcpPort), nil
	default:
		return "", nil
	}
}
