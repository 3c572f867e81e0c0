package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/casebrief/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI assistant integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing intake tools so an assistant can run the dialogue itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "casebrief MCP server started on stdio (database=%s)\n", a.database.Path())

		srv := mcpserver.NewServer(a.intake)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
