package contract

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/fanpulse/fanpulse/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultTopN        = 5
	DefaultTZOffset    = "+09:00"
	DefaultCacheTTL    = 10 * time.Minute
	DefaultServeAddr   = ":8080"
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for fanpulse.
// This struct remains the "final, validated" config.
type Config struct {
	Source          schema.SourceKind
	SourceURL       string
	SourceKey       string // Please use env var as this is plaintext
	SourceDBConnect string // Please use env var as this is plaintext
	SourceTimeout   time.Duration

	SurveyFile  string
	SurveyLive  string
	SurveyDate  string
	SurveyVenue string

	// Datasets maps a dataset name to its table and field layout
	Datasets map[string]schema.DatasetMapping

	TZOffset string
	Location *time.Location

	ResultLimit int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	View   schema.GrowthView
	TopN   int
	Entity string
	Day    string

	SurveyField  schema.SurveyField
	SurveyFilter schema.SurveyFilter
	ListLives    bool
	Synonyms     map[string]string

	EventCategory schema.EventCategory
	EventFrom     string
	EventTo       string

	ServeAddr       string
	RefreshInterval time.Duration

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Source           string `mapstructure:"source"`
	SourceURL        string `mapstructure:"source-url"`
	SourceKey        string `mapstructure:"source-key"`
	SourceDBConnect  string `mapstructure:"source-db-connect"`
	SourceTimeout    string `mapstructure:"source-timeout"`
	SurveyFile       string `mapstructure:"survey-file"`
	TZOffset         string `mapstructure:"tz-offset"`
	Limit            int    `mapstructure:"limit"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	CacheTTL         string `mapstructure:"cache-ttl"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
	Emoji            string `mapstructure:"emoji"`
	Color            string `mapstructure:"color"`

	// --- Fields from growthCmd.Flags() ---
	View   string `mapstructure:"view"`
	Top    int    `mapstructure:"top"`
	Entity string `mapstructure:"entity"`
	Day    string `mapstructure:"day"`

	// --- Fields from surveyCmd.Flags() ---
	Field       string `mapstructure:"field"`
	Year        int    `mapstructure:"year"`
	Venue       string `mapstructure:"venue"`
	Live        string `mapstructure:"live"`
	Lives       bool   `mapstructure:"lives"`
	SurveyLive  string `mapstructure:"survey-live"`
	SurveyDate  string `mapstructure:"survey-date"`
	SurveyVenue string `mapstructure:"survey-venue"`

	// --- Fields from eventsCmd.Flags() ---
	Category string `mapstructure:"category"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`

	// --- Fields from serveCmd.Flags() ---
	Addr            string `mapstructure:"addr"`
	RefreshInterval string `mapstructure:"refresh-interval"`

	// --- Config file only ---
	Datasets map[string]schema.DatasetMapping `mapstructure:"datasets"`
	Synonyms map[string]string                `mapstructure:"synonyms"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Datasets != nil {
		clone.Datasets = maps.Clone(c.Datasets)
	}
	if c.Synonyms != nil {
		clone.Synonyms = maps.Clone(c.Synonyms)
	}
	return &clone
}

// Dataset returns the mapping of a dataset by name.
func (c *Config) Dataset(name string) (schema.DatasetMapping, error) {
	m, ok := c.Datasets[name]
	if !ok {
		return schema.DatasetMapping{}, fmt.Errorf("unknown dataset '%s'. must be one of %s", name, strings.Join(c.DatasetNames(), ", "))
	}
	return m, nil
}

// DatasetNames returns the configured dataset names in sorted order.
func (c *Config) DatasetNames() []string {
	names := make([]string, 0, len(c.Datasets))
	for name := range c.Datasets {
		names = append(names, name)
	}
	return sortedStrings(names)
}

// ApplyGrowthOptions overrides the growth view settings, validated like the CLI flags.
func (c *Config) ApplyGrowthOptions(view string, top int, entity, day string) error {
	return processGrowthOptions(c, &ConfigRawInput{View: view, Top: top, Entity: entity, Day: day})
}

// ApplySurveyOptions overrides the survey field and filter. Synonyms are kept.
func (c *Config) ApplySurveyOptions(field string, year int, venue, live string) error {
	synonyms, lives := c.Synonyms, c.ListLives
	err := processSurveyOptions(c, &ConfigRawInput{Field: field, Year: year, Venue: venue, Live: live})
	c.Synonyms, c.ListLives = synonyms, lives
	return err
}

// ApplyEventOptions overrides the event category and date range.
func (c *Config) ApplyEventOptions(category, from, to string) error {
	return processEventOptions(c, &ConfigRawInput{Category: category, From: from, To: to})
}

// ApplyResultLimit overrides the result limit. Zero keeps the current one.
func (c *Config) ApplyResultLimit(limit int) error {
	if limit == 0 {
		return nil
	}
	if limit < 0 || limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, limit)
	}
	c.ResultLimit = limit
	return nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSourceConfig(cfg, input); err != nil {
		return err
	}
	if err := processTimeSettings(cfg, input); err != nil {
		return err
	}
	if err := processDatasets(cfg, input); err != nil {
		return err
	}
	if err := processGrowthOptions(cfg, input); err != nil {
		return err
	}
	if err := processSurveyOptions(cfg, input); err != nil {
		return err
	}
	if err := processEventOptions(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.HasPrefix(connStr, "redis://") && !strings.HasPrefix(connStr, "rediss://") {
			return fmt.Errorf("Redis connection string must be a redis:// or rediss:// URL")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates output related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}
	return nil
}

// processSourceConfig validates the snapshot source settings.
func processSourceConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if _, ok := schema.ValidSourceKinds[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be rest, postgresql, mysql, sqlite, file", input.Source)
	}
	cfg.SourceURL = strings.TrimSpace(input.SourceURL)
	cfg.SourceKey = input.SourceKey
	cfg.SourceDBConnect = input.SourceDBConnect
	cfg.SurveyFile = strings.TrimSpace(input.SurveyFile)
	cfg.SurveyLive = strings.TrimSpace(input.SurveyLive)
	cfg.SurveyDate = strings.TrimSpace(input.SurveyDate)
	cfg.SurveyVenue = strings.ToUpper(strings.TrimSpace(input.SurveyVenue))

	switch cfg.Source {
	case schema.RESTSource:
		if cfg.SourceURL == "" {
			return fmt.Errorf("--source-url is required when using the rest source")
		}
		u, err := url.Parse(cfg.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid --source-url '%s'. must be an http(s) URL", cfg.SourceURL)
		}
	case schema.PostgresSource:
		if err := ValidateDatabaseConnectionString(schema.PostgreSQLBackend, cfg.SourceDBConnect); err != nil {
			return fmt.Errorf("invalid --source-db-connect: %w", err)
		}
	case schema.MySQLSource:
		if err := ValidateDatabaseConnectionString(schema.MySQLBackend, cfg.SourceDBConnect); err != nil {
			return fmt.Errorf("invalid --source-db-connect: %w", err)
		}
	case schema.SQLiteSource:
		if cfg.SourceDBConnect == "" {
			return fmt.Errorf("--source-db-connect must name the sqlite file when using the sqlite source")
		}
	case schema.FileSource:
		if cfg.SourceURL == "" && cfg.SurveyFile == "" {
			return fmt.Errorf("the file source needs a directory in --source-url or a --survey-file")
		}
	}

	if cfg.SurveyDate != "" {
		if _, err := schema.ParseDay(cfg.SurveyDate); err != nil {
			return fmt.Errorf("invalid --survey-date '%s'. expected YYYY-MM-DD", cfg.SurveyDate)
		}
	}
	if cfg.SurveyVenue != "" {
		if _, ok := schema.ValidVenueTypes[cfg.SurveyVenue]; !ok {
			return fmt.Errorf("invalid --survey-venue '%s'. must be LIVE HOUSE, HALL, ARENA, FES, OTHER", input.SurveyVenue)
		}
	}
	return nil
}

// processTimeSettings handles the offset and every duration setting.
func processTimeSettings(cfg *Config, input *ConfigRawInput) error {
	offset := input.TZOffset
	if offset == "" {
		offset = DefaultTZOffset
	}
	loc, err := ParseOffset(offset)
	if err != nil {
		return fmt.Errorf("invalid --tz-offset: %w", err)
	}
	cfg.Location = loc
	cfg.TZOffset = loc.String()

	cfg.CacheTTL = DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := time.ParseDuration(input.CacheTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("invalid --cache-ttl '%s'. must be a positive duration such as 10m", input.CacheTTL)
		}
		cfg.CacheTTL = ttl
	}

	cfg.SourceTimeout = 0
	if input.SourceTimeout != "" {
		timeout, err := time.ParseDuration(input.SourceTimeout)
		if err != nil || timeout < 0 {
			return fmt.Errorf("invalid --source-timeout '%s'. must be a duration such as 30s", input.SourceTimeout)
		}
		cfg.SourceTimeout = timeout
	}

	cfg.RefreshInterval = 0
	if input.RefreshInterval != "" {
		interval, err := time.ParseDuration(input.RefreshInterval)
		if err != nil || interval < 0 {
			return fmt.Errorf("invalid --refresh-interval '%s'. must be a duration such as 5m", input.RefreshInterval)
		}
		cfg.RefreshInterval = interval
	}

	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	return nil
}

// processDatasets merges configured dataset mappings over the built-in ones.
// Empty fields in an override keep the built-in value.
func processDatasets(cfg *Config, input *ConfigRawInput) error {
	cfg.Datasets = schema.DefaultDatasets()
	for name, override := range input.Datasets {
		name = strings.ToLower(strings.TrimSpace(name))
		merged := mergeMapping(cfg.Datasets[name], override)
		if merged.Table == "" || merged.Entity == "" || merged.Value == "" || merged.Time == "" {
			return fmt.Errorf("dataset '%s' must define table, entity, value and time", name)
		}
		cfg.Datasets[name] = merged
	}
	return nil
}

func mergeMapping(base, override schema.DatasetMapping) schema.DatasetMapping {
	pick := func(b, o string) string {
		if o = strings.TrimSpace(o); o != "" {
			return o
		}
		return b
	}
	return schema.DatasetMapping{
		Table:     pick(base.Table, override.Table),
		Entity:    pick(base.Entity, override.Entity),
		Value:     pick(base.Value, override.Value),
		Time:      pick(base.Time, override.Time),
		Seq:       pick(base.Seq, override.Seq),
		Name:      pick(base.Name, override.Name),
		ID:        pick(base.ID, override.ID),
		Published: pick(base.Published, override.Published),
	}
}

// processGrowthOptions validates the growth view flags.
func processGrowthOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.View = schema.TableView
	if input.View != "" {
		cfg.View = schema.GrowthView(strings.ToLower(input.View))
		if _, ok := schema.ValidGrowthViews[cfg.View]; !ok {
			return fmt.Errorf("invalid view '%s'. must be table, top, total, single, day", input.View)
		}
	}

	cfg.TopN = DefaultTopN
	if input.Top != 0 {
		if input.Top < 0 || input.Top > MaxResultLimit {
			return fmt.Errorf("top must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Top)
		}
		cfg.TopN = input.Top
	}

	cfg.Entity = strings.TrimSpace(input.Entity)
	if cfg.View == schema.SingleView && cfg.Entity == "" {
		return fmt.Errorf("--entity is required for the single view")
	}

	cfg.Day = strings.TrimSpace(input.Day)
	if cfg.Day != "" {
		if _, err := schema.ParseDay(cfg.Day); err != nil {
			return fmt.Errorf("invalid --day '%s'. expected YYYY-MM-DD", cfg.Day)
		}
	}
	return nil
}

// processSurveyOptions validates the survey breakdown flags.
func processSurveyOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.SurveyField = schema.SongField
	if input.Field != "" {
		cfg.SurveyField = schema.SurveyField(strings.ToLower(input.Field))
		if _, ok := schema.ValidSurveyFields[cfg.SurveyField]; !ok {
			return fmt.Errorf("invalid field '%s'. must be song, visits, prefecture, age, gender", input.Field)
		}
	}

	if input.Year < 0 {
		return fmt.Errorf("year cannot be negative (received %d)", input.Year)
	}
	venue := strings.ToUpper(strings.TrimSpace(input.Venue))
	if venue != "" {
		if _, ok := schema.ValidVenueTypes[venue]; !ok {
			return fmt.Errorf("invalid venue '%s'. must be LIVE HOUSE, HALL, ARENA, FES, OTHER", input.Venue)
		}
	}
	cfg.SurveyFilter = schema.SurveyFilter{
		Year:      input.Year,
		VenueType: venue,
		LiveKey:   strings.TrimSpace(input.Live),
	}
	cfg.ListLives = input.Lives
	cfg.Synonyms = maps.Clone(input.Synonyms)
	return nil
}

// processEventOptions validates the events listing flags.
func processEventOptions(cfg *Config, input *ConfigRawInput) error {
	cfg.EventCategory = ""
	if input.Category != "" {
		cfg.EventCategory = schema.EventCategory(strings.ToUpper(input.Category))
		if _, ok := schema.ValidEventCategories[cfg.EventCategory]; !ok {
			return fmt.Errorf("invalid category '%s'. must be LIVE, RELEASE, TV, OTHER", input.Category)
		}
	}

	cfg.EventFrom = strings.TrimSpace(input.From)
	cfg.EventTo = strings.TrimSpace(input.To)
	for _, f := range []struct{ flag, day string }{{"--from", cfg.EventFrom}, {"--to", cfg.EventTo}} {
		if f.day == "" {
			continue
		}
		if _, err := schema.ParseDay(f.day); err != nil {
			return fmt.Errorf("invalid %s '%s'. expected YYYY-MM-DD", f.flag, f.day)
		}
	}
	if cfg.EventFrom != "" && cfg.EventTo != "" && cfg.EventFrom > cfg.EventTo {
		return fmt.Errorf("--from (%s) cannot be after --to (%s)", cfg.EventFrom, cfg.EventTo)
	}
	return nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("invalid --cache-db-connect: %w", err)
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return fmt.Errorf("invalid --history-db-connect: %w", err)
	}

	// For SQLite, resolve to actual file paths to catch default path conflicts
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		historyDBPath := cfg.HistoryDBConnect
		if historyDBPath == "" {
			historyDBPath = GetHistoryDBFilePath()
		}
		if cacheDBPath == historyDBPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
