package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fanpulse/fanpulse/core"
	"github.com/fanpulse/fanpulse/schema"
)

// growthCmd computes the daily growth table of a dataset.
var growthCmd = &cobra.Command{
	Use:   "growth [dataset]",
	Short: "Show daily growth and rank changes of a dataset.",
	Long: `Fetch the cumulative snapshots of a dataset and turn them into daily growth.

Each entity gets, per day:
- its latest value of the day
- the delta against its previous value (never negative)
- its rank by delta, and how that rank moved since its previous ranked day
- its rank by value

Days are cut at the fixed --tz-offset. Built-in datasets are videos (default) and sns;
more can be declared under datasets in the config file.

Views:
  table  - entities by days, ordered by the latest day's growth (default)
  top    - growth series of the --top N entities
  total  - growth series summed over all entities
  single - growth series of one --entity
  day    - ranking of one --day

Series views are annotated with the calendar events of each day.

Examples:
  # Today's video ranking
  fanpulse growth videos --view day

  # Follower growth of every platform as CSV
  fanpulse growth sns --output csv --output-file sns.csv

  # Growth series of one video
  fanpulse growth videos --view single --entity "Blue Moon"

  # Full table for BI tools
  fanpulse growth videos --output parquet --output-file growth.parquet`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		dataset := schema.VideosDataset
		if len(args) == 1 {
			dataset = args[0]
		}
		return core.ExecuteGrowth(rootCtx, cfg, snapshotSource, cacheManager, dataset)
	},
}
