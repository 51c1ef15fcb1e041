package players

import (
	"encoding/json"

	"github.com/preston-bernstein/mlb-data-service/internal/domain/teams"
)

// Player is the ranked player row served by /players.
type Player struct {
	ID        int       `json:"id"`
	Name      string    `json:"nameFirstLast"`
	Position  string    `json:"position,omitempty"`
	Team      teams.Ref `json:"currentTeam"`
	Stats     Stats     `json:"-"`
	Followers int       `json:"followers"`
}

// Fallback keeps only identity and team, dropping stats and followers.
func Fallback(p Player) Player {
	return Player{
		ID:       p.ID,
		Name:     p.Name,
		Position: p.Position,
		Team:     p.Team,
		Stats:    UnknownStats(),
	}
}

type playerJSON struct {
	ID            int       `json:"id"`
	Name          string    `json:"nameFirstLast"`
	Position      string    `json:"position,omitempty"`
	Team          teams.Ref `json:"currentTeam"`
	BattingStats  *Batting  `json:"battingStats,omitempty"`
	PitchingStats *Pitching `json:"pitchingStats,omitempty"`
	Followers     int       `json:"followers"`
}

// MarshalJSON emits only the stats group the player resolved to.
func (p Player) MarshalJSON() ([]byte, error) {
	out := playerJSON{
		ID:        p.ID,
		Name:      p.Name,
		Position:  p.Position,
		Team:      p.Team,
		Followers: p.Followers,
	}
	if b, ok := p.Stats.Batting(); ok {
		out.BattingStats = &b
	}
	if pi, ok := p.Stats.Pitching(); ok {
		out.PitchingStats = &pi
	}
	return json.Marshal(out)
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var in playerJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*p = Player{
		ID:        in.ID,
		Name:      in.Name,
		Position:  in.Position,
		Team:      in.Team,
		Stats:     ResolveStats(in.Position, in.BattingStats, in.PitchingStats),
		Followers: in.Followers,
	}
	return nil
}
