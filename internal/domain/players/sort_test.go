package players

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortBy(t *testing.T) {
	got, err := ParseSortBy("")
	require.NoError(t, err)
	assert.Equal(t, SortFollowers, got)

	got, err = ParseSortBy("homeruns")
	require.NoError(t, err)
	assert.Equal(t, SortHomeRuns, got)

	_, err = ParseSortBy("height")
	assert.Error(t, err)
}

func TestEarnedRunAverageRanksPitchersFirst(t *testing.T) {
	list := []Player{
		{ID: 1, Stats: BattingStats(Batting{HomeRuns: 40})},
		{ID: 2, Stats: PitchingStats(Pitching{EarnedRunAverage: "3.50"})},
		{ID: 3, Stats: PitchingStats(Pitching{EarnedRunAverage: "2.10"})},
		{ID: 4, Stats: UnknownStats()},
	}
	less := SortEarnedRunAverage.Less()
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })

	assert.Equal(t, []int{3, 2, 1, 4}, ids(list))
}

func TestHomeRunsPutsNonBattersLast(t *testing.T) {
	list := []Player{
		{ID: 1, Stats: PitchingStats(Pitching{Wins: 10})},
		{ID: 2, Stats: BattingStats(Batting{HomeRuns: 5})},
		{ID: 3, Stats: BattingStats(Batting{HomeRuns: 30})},
	}
	less := SortHomeRuns.Less()
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })

	assert.Equal(t, []int{3, 2, 1}, ids(list))
}

func TestUnknownPolicyFallsBackToFollowers(t *testing.T) {
	less := SortBy("nope").Less()
	assert.True(t, less(Player{Followers: 3}, Player{Followers: 1}))
}

func ids(list []Player) []int {
	out := make([]int, len(list))
	for i, p := range list {
		out[i] = p.ID
	}
	return out
}
