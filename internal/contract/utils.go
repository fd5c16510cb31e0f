package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/fanpulse/fanpulse/schema"
)

// Color variables for console output.
var (
	UpColor      = color.New(color.FgRed, color.Bold) // Climbing the ranking
	DownColor    = color.New(color.FgBlue)
	SameColor    = color.New(color.FgHiBlack)
	NewColor     = color.New(color.FgYellow, color.Bold)
	ReleaseColor = color.New(color.FgYellow)
	TVColor      = color.New(color.FgGreen)
	OtherColor   = color.New(color.FgCyan)
)

// GetPlainRankChange returns the plain text marker of a rank change.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainRankChange(change schema.RankChange) string {
	switch change {
	case schema.RankUp:
		return "▲"
	case schema.RankDown:
		return "▼"
	case schema.RankSame:
		return "-"
	case schema.RankNew:
		return "NEW"
	default:
		return ""
	}
}

// GetColorRankChange returns a colored rank change marker for console output (table).
func GetColorRankChange(change schema.RankChange) string {
	text := GetPlainRankChange(change)

	switch change {
	case schema.RankUp:
		return UpColor.Sprint(text)
	case schema.RankDown:
		return DownColor.Sprint(text)
	case schema.RankSame:
		return SameColor.Sprint(text)
	case schema.RankNew:
		return NewColor.Sprint(text)
	default:
		return text
	}
}

// GetColorCategory returns a colored event category label for console output (table).
func GetColorCategory(category schema.EventCategory) string {
	text := string(category)

	switch category {
	case schema.LiveEvent:
		return UpColor.Sprint(text)
	case schema.ReleaseEvent:
		return ReleaseColor.Sprint(text)
	case schema.TVEvent:
		return TVColor.Sprint(text)
	default:
		return OtherColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogIssues warns about every skipped source row.
func LogIssues(dataset string, issues []schema.RecordIssue) {
	for _, issue := range issues {
		LogWarn(fmt.Sprintf("skipping %s row %d (%s)", dataset, issue.Position, issue.EntityKey), fmt.Errorf("%s", issue.Reason))
	}
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fanpulse_cache.db"
	}
	return filepath.Join(homeDir, ".fanpulse_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".fanpulse_history.db"
	}
	return filepath.Join(homeDir, ".fanpulse_history.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for "..." and at least one rune.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}
