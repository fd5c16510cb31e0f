package outwriter

import (
	"fmt"
	"os"

	"github.com/fanpulse/fanpulse/internal/contract"
)

// LogGrowthHeader prints a concise, 2-line header before a growth computation.
func LogGrowthHeader(cfg *contract.Config, dataset string) {
	// Line 1: what is being computed and where from
	fmt.Fprintf(os.Stderr, "%sDataset: %s (Source: %s)\n", icon(cfg, "📈 "), dataset, cfg.Source)

	// Line 2: how days are cut
	fmt.Fprintf(os.Stderr, "%sDay boundary: %s (View: %s)\n", icon(cfg, "📅 "), cfg.TZOffset, cfg.View)
}

// LogSurveyHeader prints a one-line header before a survey breakdown.
func LogSurveyHeader(cfg *contract.Config) {
	fmt.Fprintf(os.Stderr, "%sSurvey: %s%s\n", icon(cfg, "📝 "), cfg.SurveyField, describeFilter(cfg))
}

// PrintNoData tells the user that a computation produced nothing to show.
func PrintNoData(what string) {
	fmt.Fprintf(os.Stderr, "No data for %s\n", what)
}

func icon(cfg *contract.Config, emoji string) string {
	if cfg.UseEmojis {
		return emoji
	}
	return ""
}

func describeFilter(cfg *contract.Config) string {
	f := cfg.SurveyFilter
	out := ""
	if f.Year > 0 {
		out += fmt.Sprintf(" year=%d", f.Year)
	}
	if f.VenueType != "" {
		out += " venue=" + f.VenueType
	}
	if f.LiveKey != "" {
		out += " live=" + f.LiveKey
	}
	if out == "" {
		return ""
	}
	return " (" + out[1:] + ")"
}
