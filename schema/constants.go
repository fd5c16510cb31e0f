package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// SourceKind represents where snapshot rows are read from.
	SourceKind string

	// RankChange represents the movement of an entity's growth rank between days.
	RankChange string

	// GrowthView represents how a growth table is presented.
	GrowthView string

	// SurveyField represents a survey answer column that can be broken down.
	SurveyField string

	// EventCategory represents the tag of a calendar event.
	EventCategory string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// All snapshot sources supported.
const (
	RESTSource     SourceKind = "rest" // default
	PostgresSource SourceKind = "postgresql"
	MySQLSource    SourceKind = "mysql"
	SQLiteSource   SourceKind = "sqlite"
	FileSource     SourceKind = "file"
)

// All rank changes.
const (
	RankNew  RankChange = "new"
	RankUp   RankChange = "up"
	RankDown RankChange = "down"
	RankSame RankChange = "same"
)

// All growth views.
const (
	TableView  GrowthView = "table" // default
	TopView    GrowthView = "top"
	TotalView  GrowthView = "total"
	SingleView GrowthView = "single"
	DayView    GrowthView = "day"
)

// All survey fields.
const (
	SongField       SurveyField = "song" // default
	VisitsField     SurveyField = "visits"
	PrefectureField SurveyField = "prefecture"
	AgeField        SurveyField = "age"
	GenderField     SurveyField = "gender"
)

// All event categories.
const (
	LiveEvent    EventCategory = "LIVE"
	ReleaseEvent EventCategory = "RELEASE"
	TVEvent      EventCategory = "TV"
	OtherEvent   EventCategory = "OTHER"
)

// Built-in snapshot datasets.
const (
	VideosDataset = "videos"
	SNSDataset    = "sns"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidHistoryBackends lists all valid history backends.
var ValidHistoryBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSourceKinds lists all valid snapshot sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	RESTSource:     {},
	PostgresSource: {},
	MySQLSource:    {},
	SQLiteSource:   {},
	FileSource:     {},
}

// ValidGrowthViews lists all valid growth views.
var ValidGrowthViews = map[GrowthView]struct{}{
	TableView:  {},
	TopView:    {},
	TotalView:  {},
	SingleView: {},
	DayView:    {},
}

// ValidSurveyFields lists all valid survey fields.
var ValidSurveyFields = map[SurveyField]struct{}{
	SongField:       {},
	VisitsField:     {},
	PrefectureField: {},
	AgeField:        {},
	GenderField:     {},
}

// ValidEventCategories lists all valid event categories.
var ValidEventCategories = map[EventCategory]struct{}{
	LiveEvent:    {},
	ReleaseEvent: {},
	TVEvent:      {},
	OtherEvent:   {},
}

// ValidVenueTypes lists the venue types a survey can be filtered by.
var ValidVenueTypes = map[string]struct{}{
	"LIVE HOUSE": {},
	"HALL":       {},
	"ARENA":      {},
	"FES":        {},
	"OTHER":      {},
}
