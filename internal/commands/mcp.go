package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/bbtool/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the bbtool MCP server over stdio",
	Long: "Starts an MCP server over stdio exposing analyze_group, restructure_group, " +
		"check_membership and list_devices. Defaults come from the config file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcpserver.New(cfg, journalStore(), newCollector(logger), logger)
		return server.Run(cmd.Context(), Version)
	},
}
