package outwriter

import (
	"os"

	"golang.org/x/term"

	"github.com/fanpulse/fanpulse/internal/contract"
)

// Column budgets used when fitting entity labels into the terminal.
const (
	rankingColumnsWidth = 50 // Rank + Delta + Change + Value + V.Rank with borders/padding
	dayColumnWidth      = 11
	minLabelWidth       = 15
	maxLabelWidth       = 60
)

// terminalWidth returns the --width override or the detected terminal width.
func terminalWidth(cfg *contract.Config) int {
	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		return cfg.Width
	}
	detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || detectedWidth <= 0 {
		return 80 // Conservative default for narrow terminals and CI
	}
	return detectedWidth
}

// getMaxTableLabelWidth calculates the maximum width for entity labels in table output
// based on terminal width and the number of per-day columns shown.
func getMaxTableLabelWidth(cfg *contract.Config, dayColumns int) int {
	available := terminalWidth(cfg) - rankingColumnsWidth - dayColumns*dayColumnWidth
	if available < minLabelWidth {
		return minLabelWidth
	}
	if available > maxLabelWidth {
		return maxLabelWidth
	}
	return available
}

// visibleDayColumns returns how many trailing days fit next to the ranking columns.
func visibleDayColumns(cfg *contract.Config, totalDays int) int {
	fit := (terminalWidth(cfg) - rankingColumnsWidth - minLabelWidth) / dayColumnWidth
	return max(0, min(fit, totalDays, maxDayColumns))
}
