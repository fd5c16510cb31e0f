// Package cmd defines the command-line interface for fanpulse.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fanpulse/fanpulse/internal/contract"
	"github.com/fanpulse/fanpulse/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(growthCmd)
	rootCmd.AddCommand(surveyCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("source", string(schema.RESTSource), "Data source: rest or postgresql or mysql or sqlite or file")
	rootCmd.PersistentFlags().String("source-url", "", "Base URL of the REST source, or the directory of the file source")
	rootCmd.PersistentFlags().String("source-key", "", "API key sent to the REST source (prefer FANPULSE_SOURCE_KEY)")
	rootCmd.PersistentFlags().String("source-db-connect", "", "Connection string of a SQL source (DSN or sqlite file path)")
	rootCmd.PersistentFlags().String("source-timeout", "", "Timeout for each source request (e.g. 30s, empty = client default)")
	rootCmd.PersistentFlags().String("survey-file", "", "Spreadsheet (.xlsx or .csv) with survey answers, read instead of the survey table")
	rootCmd.PersistentFlags().String("survey-live", "", "Live name given to the rows of --survey-file")
	rootCmd.PersistentFlags().String("survey-date", "", "Live date (YYYY-MM-DD) given to the rows of --survey-file")
	rootCmd.PersistentFlags().String("survey-venue", "", "Venue type given to the rows of --survey-file")
	rootCmd.PersistentFlags().String("tz-offset", contract.DefaultTZOffset, "Fixed UTC offset where days start (e.g. +09:00)")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql/redis (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", contract.DefaultCacheTTL.String(), "How long fetched rows stay fresh in the cache")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("refresh-interval", "", "Background refresh interval of serve and mcp (e.g. 5m, empty = initial load only)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of growthCmd to Viper
	growthCmd.Flags().String("view", string(schema.TableView), "View: table or top or total or single or day")
	growthCmd.Flags().Int("top", contract.DefaultTopN, "Number of entities in the top view")
	growthCmd.Flags().String("entity", "", "Entity key or display name for the single view")
	growthCmd.Flags().String("day", "", "Day (YYYY-MM-DD) for the day view, defaults to the latest day")
	if err := viper.BindPFlags(growthCmd.Flags()); err != nil {
		contract.LogFatal("Error binding growth flags", err)
	}

	// Bind all flags of surveyCmd to Viper
	surveyCmd.Flags().String("field", string(schema.SongField), "Field: song or visits or prefecture or age or gender")
	surveyCmd.Flags().Int("year", 0, "Only count responses of lives in this year")
	surveyCmd.Flags().String("venue", "", "Only count responses of this venue: LIVE HOUSE or HALL or ARENA or FES or OTHER")
	surveyCmd.Flags().String("live", "", "Only count responses of this live (<date>_<name>, see --lives)")
	surveyCmd.Flags().Bool("lives", false, "List the lives that can be passed to --live instead")
	if err := viper.BindPFlags(surveyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding survey flags", err)
	}

	// Bind all flags of eventsCmd to Viper
	eventsCmd.Flags().String("category", "", "Only list events of this category: LIVE or RELEASE or TV or OTHER")
	eventsCmd.Flags().String("from", "", "First day to list (YYYY-MM-DD)")
	eventsCmd.Flags().String("to", "", "Last day to list (YYYY-MM-DD)")
	if err := viper.BindPFlags(eventsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding events flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultServeAddr, "Address the HTTP API listens on")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
