package players

import (
	"strconv"
	"strings"
)

// StatsKind identifies which statistics group a player carries.
type StatsKind int

const (
	KindUnknown StatsKind = iota
	KindBatting
	KindPitching
)

func (k StatsKind) String() string {
	switch k {
	case KindBatting:
		return "batting"
	case KindPitching:
		return "pitching"
	default:
		return "unknown"
	}
}

// Batting holds season hitting stats. Rate stats stay in upstream notation (".285").
type Batting struct {
	HomeRuns         int    `json:"homeRuns"`
	BattingAverage   string `json:"battingAverage"`
	OnBasePercentage string `json:"onBasePercentage"`
	Slugging         string `json:"slugging"`
	Hits             int    `json:"hits"`
	RunsBattedIn     int    `json:"runsBattedIn"`
	StolenBases      int    `json:"stolenBases"`
	Strikeouts       int    `json:"strikeouts"`
}

// Pitching holds season pitching stats.
type Pitching struct {
	EarnedRunAverage  string `json:"earnedRunAverage"`
	Strikeouts        int    `json:"strikeouts"`
	Wins              int    `json:"wins"`
	Losses            int    `json:"losses"`
	Saves             int    `json:"saves"`
	InningsPitched    string `json:"inningsPitched"`
	Whip              string `json:"whip"`
	StrikeoutsPer9Inn string `json:"strikeoutsPer9Inn"`
}

// Stats is exactly one of batting, pitching or nothing.
type Stats struct {
	kind     StatsKind
	batting  Batting
	pitching Pitching
}

func BattingStats(b Batting) Stats {
	return Stats{kind: KindBatting, batting: b}
}

func PitchingStats(p Pitching) Stats {
	return Stats{kind: KindPitching, pitching: p}
}

func UnknownStats() Stats {
	return Stats{}
}

func (s Stats) Kind() StatsKind {
	return s.kind
}

func (s Stats) Batting() (Batting, bool) {
	return s.batting, s.kind == KindBatting
}

func (s Stats) Pitching() (Pitching, bool) {
	return s.pitching, s.kind == KindPitching
}

// ResolveStats picks the group a player is presented with. Pitchers get pitching when
// available; everyone else prefers batting and falls back to pitching.
func ResolveStats(position string, batting *Batting, pitching *Pitching) Stats {
	if IsPitcher(position) && pitching != nil {
		return PitchingStats(*pitching)
	}
	if batting != nil {
		return BattingStats(*batting)
	}
	if pitching != nil {
		return PitchingStats(*pitching)
	}
	return UnknownStats()
}

// IsPitcher reports whether a position abbreviation denotes a pitcher.
func IsPitcher(position string) bool {
	return strings.EqualFold(strings.TrimSpace(position), "P")
}

// ParseRate turns upstream decimal strings (".285", "3.45", "-.--") into a float.
// Unparseable values report ok=false.
func ParseRate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
