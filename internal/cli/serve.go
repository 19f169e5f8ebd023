package cli

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/ramyad06/cautious-llm/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Starts the Model Context Protocol server. stdout carries protocol
frames; logs go to stderr.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := resolveConfig()

	server, err := mcp.NewServer(cfg)
	if err != nil {
		return err
	}

	log.Printf("MCP server %s %s listening on stdio", mcp.ServerName, mcp.ServerVersion)
	return server.Serve(cmd.Context())
}
