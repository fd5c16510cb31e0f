package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fanpulse/fanpulse/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the fanpulse MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents read growth tables, rankings, series, survey breakdowns and events.`,
	Args:  cobra.NoArgs,
	// Headers are suppressed per tool call, so stdout stays reserved for the protocol.
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, snapshotSource, cacheManager)
	},
}
