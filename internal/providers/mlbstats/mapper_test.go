package mlbstats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapRecordParsesWinningPercentage(t *testing.T) {
	rec := mapRecord(teamRecordResponse{Wins: 98, Losses: 64, WinningPercentage: ".605", DivisionRank: "1"})
	assert.InDelta(t, 0.605, rec.WinningPercentage, 1e-9)
	assert.Equal(t, "1", rec.DivisionRank)

	bad := mapRecord(teamRecordResponse{WinningPercentage: "-.--"})
	assert.Zero(t, bad.WinningPercentage)
}

func TestFirstSplitHandlesMissingStats(t *testing.T) {
	var empty playerStatsResponse[hittingStat]
	assert.Nil(t, firstSplit(empty))
}

func TestMapHittingRenamesFields(t *testing.T) {
	b := mapHitting(hittingStat{HomeRuns: 40, Avg: ".300", RBI: 100, StrikeOuts: 120})
	assert.Equal(t, 40, b.HomeRuns)
	assert.Equal(t, ".300", b.BattingAverage)
	assert.Equal(t, 100, b.RunsBattedIn)
	assert.Equal(t, 120, b.Strikeouts)
}
