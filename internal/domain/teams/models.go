package teams

import "fmt"

const logoURLPattern = "https://www.mlbstatic.com/team-logos/%d.svg"

// NotAvailable is reported for ranks the upstream did not provide.
const NotAvailable = "N/A"

// Ref is the short team reference nested inside players and games.
type Ref struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
	Logo string `json:"logo,omitempty"`
}

// NewRef builds a Ref with the static logo URL filled in.
func NewRef(id int, name, link string) Ref {
	return Ref{ID: id, Name: name, Link: link, Logo: LogoURL(id)}
}

// LogoURL returns the static logo location for a team id.
func LogoURL(id int) string {
	return fmt.Sprintf(logoURLPattern, id)
}

// Team is the identity portion of a club as returned by the teams list.
type Team struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	TeamCode  string `json:"teamCode"`
	TeamName  string `json:"teamName"`
	ShortName string `json:"shortName"`
}

// Record is the win/loss line for a team. Any field may be missing upstream.
type Record struct {
	Wins              int
	Losses            int
	WinningPercentage float64
	DivisionRank      string
	LeagueRank        string
}

// Standing is the ranked team row served by /teams.
type Standing struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	TeamCode          string  `json:"teamCode"`
	TeamName          string  `json:"teamName"`
	ShortName         string  `json:"shortName"`
	Wins              int     `json:"wins"`
	Losses            int     `json:"losses"`
	WinningPercentage float64 `json:"winningPercentage"`
	DivisionRank      string  `json:"divisionRank"`
	LeagueRank        string  `json:"leagueRank"`
	Logo              string  `json:"logo"`
	Followers         int     `json:"followers"`
}

// NewStanding merges a team with its record. A nil record yields zeroes and N/A ranks.
func NewStanding(t Team, rec *Record) Standing {
	s := Standing{
		ID:           t.ID,
		Name:         t.Name,
		TeamCode:     t.TeamCode,
		TeamName:     t.TeamName,
		ShortName:    t.ShortName,
		DivisionRank: NotAvailable,
		LeagueRank:   NotAvailable,
		Logo:         LogoURL(t.ID),
	}
	if rec == nil {
		return s
	}
	s.Wins = rec.Wins
	s.Losses = rec.Losses
	s.WinningPercentage = rec.WinningPercentage
	if rec.DivisionRank != "" {
		s.DivisionRank = rec.DivisionRank
	}
	if rec.LeagueRank != "" {
		s.LeagueRank = rec.LeagueRank
	}
	return s
}
