package ranking

import (
	"sort"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/fans"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/players"
	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

// Subject selects which follow list an index counts.
type Subject int

const (
	Players Subject = iota
	Teams
)

// PopularityIndex maps an entity id to its follower count.
type PopularityIndex map[int]int

// BuildIndex counts followers per entity across all records.
func BuildIndex(records []fans.FollowRecord, subject Subject) PopularityIndex {
	idx := make(PopularityIndex)
	for _, r := range records {
		ids := r.FollowedPlayerIDs
		if subject == Teams {
			ids = r.FollowedTeamIDs
		}
		for _, id := range ids {
			idx[id]++
		}
	}
	return idx
}

// Count returns the followers of id, zero when unknown.
func (p PopularityIndex) Count(id int) int {
	return p[id]
}

// Rank returns a stably sorted copy of items, capped at limit when limit > 0.
func Rank[T any](items []T, less func(a, b T) bool, limit int) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// WithPlayerFollowers returns a copy of list with follower counts from idx.
func WithPlayerFollowers(list []players.Player, idx PopularityIndex) []players.Player {
	out := make([]players.Player, len(list))
	for i, p := range list {
		p.Followers = idx.Count(p.ID)
		out[i] = p
	}
	return out
}

// WithTeamFollowers returns a copy of list with follower counts from idx.
func WithTeamFollowers(list []teams.Standing, idx PopularityIndex) []teams.Standing {
	out := make([]teams.Standing, len(list))
	for i, s := range list {
		s.Followers = idx.Count(s.ID)
		out[i] = s
	}
	return out
}

// ByWinningPercentage orders standings by winning percentage, then followers.
func ByWinningPercentage(a, b teams.Standing) bool {
	if a.WinningPercentage != b.WinningPercentage {
		return a.WinningPercentage > b.WinningPercentage
	}
	return a.Followers > b.Followers
}
