package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fanpulse/fanpulse/core"
)

// eventsCmd lists calendar events.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List calendar events by date.",
	Long: `List the calendar events (lives, releases, TV appearances) that annotate growth charts.

Examples:
  # Everything on the calendar
  fanpulse events

  # TV appearances in January
  fanpulse events --category TV --from 2026-01-01 --to 2026-01-31`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteEvents(rootCtx, cfg, snapshotSource, cacheManager)
	},
}
