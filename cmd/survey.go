package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fanpulse/fanpulse/core"
)

// surveyCmd aggregates the fan survey.
var surveyCmd = &cobra.Command{
	Use:   "survey",
	Short: "Break down fan survey answers by field.",
	Long: `Count the answers of one survey field and show each answer's share.

Song requests are split into single songs, cleaned of annotations and merged
through the synonym table (extend it under synonyms in the config file).
Ages are grouped into bands. Empty and unanswered fields are skipped.

Examples:
  # Most requested songs
  fanpulse survey --field song

  # Age bands of arena shows in 2025
  fanpulse survey --field age --year 2025 --venue ARENA

  # Which lives can be filtered on
  fanpulse survey --lives

  # Prefectures of one live
  fanpulse survey --field prefecture --live "2025-11-02_Zepp Tour"`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteSurvey(rootCtx, cfg, snapshotSource, cacheManager)
	},
}
