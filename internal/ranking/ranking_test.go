package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

var records = []fans.FollowRecord{
	{UserID: "a", FollowedPlayerIDs: []int{1, 2}, FollowedTeamIDs: []int{147}},
	{UserID: "b", FollowedPlayerIDs: []int{2}, FollowedTeamIDs: []int{147, 111}},
	{UserID: "c"},
}

func TestBuildIndexCountsPerSubject(t *testing.T) {
	playerIdx := BuildIndex(records, Players)
	assert.Equal(t, 1, playerIdx.Count(1))
	assert.Equal(t, 2, playerIdx.Count(2))
	assert.Equal(t, 0, playerIdx.Count(3))

	teamIdx := BuildIndex(records, Teams)
	assert.Equal(t, 2, teamIdx.Count(147))
	assert.Equal(t, 1, teamIdx.Count(111))
}

func TestBuildIndexEmpty(t *testing.T) {
	idx := BuildIndex(nil, Players)
	assert.Equal(t, 0, idx.Count(1))
}

func TestRankIsStableAndCapped(t *testing.T) {
	list := []players.Player{
		{ID: 1, Followers: 1},
		{ID: 2, Followers: 5},
		{ID: 3, Followers: 1},
		{ID: 4, Followers: 7},
	}
	ranked := Rank(list, players.SortFollowers.Less(), 3)

	assert.Equal(t, []int{4, 2, 1}, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID})
	assert.Equal(t, 1, list[0].ID, "input must not be reordered")

	all := Rank(list, players.SortFollowers.Less(), 0)
	assert.Len(t, all, 4)
	assert.Equal(t, 3, all[3].ID)
}

func TestWithPlayerFollowersCopies(t *testing.T) {
	list := []players.Player{{ID: 1}, {ID: 2}, {ID: 3}}
	out := WithPlayerFollowers(list, BuildIndex(records, Players))

	assert.Equal(t, []int{1, 2, 0}, []int{out[0].Followers, out[1].Followers, out[2].Followers})
	assert.Zero(t, list[1].Followers)
}

func TestTeamsRankByWinningPercentageThenFollowers(t *testing.T) {
	list := WithTeamFollowers([]teams.Standing{
		{ID: 111, WinningPercentage: 0.5},
		{ID: 119, WinningPercentage: 0.605},
		{ID: 147, WinningPercentage: 0.5},
	}, BuildIndex(records, Teams))

	ranked := Rank(list, ByWinningPercentage, 0)
	assert.Equal(t, []int{119, 147, 111}, []int{ranked[0].ID, ranked[1].ID, ranked[2].ID})
}
