package algo

import (
	"cmp"
	"slices"

	"github.com/fanpulse/fanpulse/schema"
)

// scored is one entity competing in a single day's ranking.
type scored struct {
	key   string
	score int64
}

// rankOrder sorts entries by score descending, breaking ties by key ascending,
// and returns the 1-based rank of every key.
func rankOrder(entries []scored) map[string]int {
	slices.SortFunc(entries, func(a, b scored) int {
		return cmp.Or(cmp.Compare(b.score, a.score), cmp.Compare(a.key, b.key))
	})
	ranks := make(map[string]int, len(entries))
	for i, e := range entries {
		ranks[e.key] = i + 1
	}
	return ranks
}

// rankChange classifies the move from the previous rank to the current one.
// A smaller rank number is a better position.
func rankChange(prev, cur int, hadPrev bool) schema.RankChange {
	switch {
	case !hadPrev:
		return schema.RankNew
	case cur < prev:
		return schema.RankUp
	case cur > prev:
		return schema.RankDown
	default:
		return schema.RankSame
	}
}

// LimitRows returns at most limit rows. A limit of zero or less keeps all rows.
func LimitRows(rows []schema.EntityRow, limit int) []schema.EntityRow {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
