package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowthContractDayWithoutSnapshot(t *testing.T) {
	table := GrowthTable{
		Days: []string{"2026-01-01", "2026-01-02", "2026-01-03"},
		Rows: []EntityRow{{
			EntityKey: "A",
			Cells: []GrowthCell{
				{HasValue: true, Value: 100, Ranked: true, Rank: 1, RankChange: RankNew, ValueRank: 1},
				{Ranked: true, Rank: 3, RankChange: RankDown},
				{HasValue: true, Value: 160, Ranked: true, Delta: 60, Rank: 1, RankChange: RankUp, ValueRank: 3},
			},
		}},
		TotalsByDay: []int64{0, 90, 75},
	}

	c := table.Contract()
	require.Len(t, c.PerEntityRows, 1)
	row := c.PerEntityRows[0]

	assert.Nil(t, row.ValuesByDay[1])
	require.NotNil(t, row.DeltasByDay[1])
	assert.Equal(t, int64(0), *row.DeltasByDay[1])
	require.NotNil(t, row.RanksByDay[1])
	assert.Equal(t, 3, *row.RanksByDay[1])
	require.NotNil(t, row.RankChangesByDay[1])
	assert.Equal(t, RankDown, *row.RankChangesByDay[1])

	require.NotNil(t, row.ValuesByDay[2])
	assert.Equal(t, int64(160), *row.ValuesByDay[2])
	assert.Equal(t, RankUp, *row.RankChangesByDay[2])

	ranking, ok := table.DaySlice("2026-01-02")
	require.True(t, ok)
	require.Len(t, ranking.Entries, 1)
	assert.Equal(t, 0, ranking.Entries[0].ValueRank)
}

func TestGrowthContractBeforeFirstValue(t *testing.T) {
	table := GrowthTable{
		Days: []string{"2026-01-01", "2026-01-02"},
		Rows: []EntityRow{{
			EntityKey: "late",
			Cells: []GrowthCell{
				{},
				{HasValue: true, Value: 5, Ranked: true, Rank: 1, RankChange: RankNew, ValueRank: 1},
			},
		}},
		TotalsByDay: []int64{0, 0},
	}

	row := table.Contract().PerEntityRows[0]
	assert.Nil(t, row.ValuesByDay[0])
	assert.Nil(t, row.DeltasByDay[0])
	assert.Nil(t, row.RanksByDay[0])
	assert.Nil(t, row.RankChangesByDay[0])
}
