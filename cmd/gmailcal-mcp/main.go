// Command gmailcal-mcp serves Gmail access over the Model Context Protocol.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "gmailcal-mcp",
		Short:        "MCP server for Gmail access",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newCheckCmd())

	// Running without a subcommand starts the server.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
