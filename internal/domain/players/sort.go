package players

import (
	"fmt"
	"strings"
)

// SortBy names a player ranking policy.
type SortBy string

const (
	SortFollowers        SortBy = "followers"
	SortHomeRuns         SortBy = "homeRuns"
	SortBattingAverage   SortBy = "battingAverage"
	SortRunsBattedIn     SortBy = "runsBattedIn"
	SortStolenBases      SortBy = "stolenBases"
	SortWins             SortBy = "wins"
	SortStrikeouts       SortBy = "strikeouts"
	SortEarnedRunAverage SortBy = "earnedRunAverage"
)

var sortPolicies = map[SortBy]func(a, b Player) bool{
	SortFollowers:        func(a, b Player) bool { return a.Followers > b.Followers },
	SortHomeRuns:         battingDesc(func(s Batting) float64 { return float64(s.HomeRuns) }),
	SortBattingAverage:   battingDesc(func(s Batting) float64 { return rateOrZero(s.BattingAverage) }),
	SortRunsBattedIn:     battingDesc(func(s Batting) float64 { return float64(s.RunsBattedIn) }),
	SortStolenBases:      battingDesc(func(s Batting) float64 { return float64(s.StolenBases) }),
	SortWins:             pitchingDesc(func(s Pitching) float64 { return float64(s.Wins) }),
	SortStrikeouts:       strikeoutsDesc,
	SortEarnedRunAverage: eraAsc,
}

// ParseSortBy validates a sort query value. Empty means followers.
func ParseSortBy(raw string) (SortBy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortFollowers, nil
	}
	for key := range sortPolicies {
		if strings.EqualFold(string(key), raw) {
			return key, nil
		}
	}
	return "", fmt.Errorf("unsupported sort %q", raw)
}

// Less returns the ordering for a policy, falling back to followers.
func (s SortBy) Less() func(a, b Player) bool {
	if less, ok := sortPolicies[s]; ok {
		return less
	}
	return sortPolicies[SortFollowers]
}

func battingDesc(value func(Batting) float64) func(a, b Player) bool {
	return func(a, b Player) bool {
		return batValue(a, value) > batValue(b, value)
	}
}

func pitchingDesc(value func(Pitching) float64) func(a, b Player) bool {
	return func(a, b Player) bool {
		return pitchValue(a, value) > pitchValue(b, value)
	}
}

func batValue(p Player, value func(Batting) float64) float64 {
	if s, ok := p.Stats.Batting(); ok {
		return value(s)
	}
	return -1
}

func pitchValue(p Player, value func(Pitching) float64) float64 {
	if s, ok := p.Stats.Pitching(); ok {
		return value(s)
	}
	return -1
}

func strikeoutsDesc(a, b Player) bool {
	return strikeouts(a) > strikeouts(b)
}

func strikeouts(p Player) int {
	if s, ok := p.Stats.Pitching(); ok {
		return s.Strikeouts
	}
	if s, ok := p.Stats.Batting(); ok {
		return s.Strikeouts
	}
	return -1
}

// Pitchers with a parseable ERA rank ahead of everyone else, lowest first.
func eraAsc(a, b Player) bool {
	ea, okA := era(a)
	eb, okB := era(b)
	if okA != okB {
		return okA
	}
	return okA && ea < eb
}

func era(p Player) (float64, bool) {
	s, ok := p.Stats.Pitching()
	if !ok {
		return 0, false
	}
	return ParseRate(s.EarnedRunAverage)
}

func rateOrZero(raw string) float64 {
	v, _ := ParseRate(raw)
	return v
}
