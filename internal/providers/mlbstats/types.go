package mlbstats

import "github.com/preston-bernstein/mlb-data-service/internal/domain/games"

type peopleResponse struct {
	People []personResponse `json:"people"`
}

type personResponse struct {
	ID              int              `json:"id"`
	FullName        string           `json:"fullName"`
	NameFirstLast   string           `json:"nameFirstLast"`
	CurrentTeam     teamRefResponse  `json:"currentTeam"`
	PrimaryPosition positionResponse `json:"primaryPosition"`
}

type teamRefResponse struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

type positionResponse struct {
	Abbreviation string `json:"abbreviation"`
}

type playerStatsResponse[T any] struct {
	Stats []struct {
		Splits []struct {
			Stat T `json:"stat"`
		} `json:"splits"`
	} `json:"stats"`
}

type hittingStat struct {
	HomeRuns    int    `json:"homeRuns"`
	Avg         string `json:"avg"`
	OBP         string `json:"obp"`
	SLG         string `json:"slg"`
	Hits        int    `json:"hits"`
	RBI         int    `json:"rbi"`
	StolenBases int    `json:"stolenBases"`
	StrikeOuts  int    `json:"strikeOuts"`
}

type pitchingStat struct {
	ERA               string `json:"era"`
	StrikeOuts        int    `json:"strikeOuts"`
	Wins              int    `json:"wins"`
	Losses            int    `json:"losses"`
	Saves             int    `json:"saves"`
	InningsPitched    string `json:"inningsPitched"`
	WHIP              string `json:"whip"`
	StrikeoutsPer9Inn string `json:"strikeoutsPer9Inn"`
}

type teamsResponse struct {
	Teams []teamResponse `json:"teams"`
}

type teamResponse struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	TeamCode  string `json:"teamCode"`
	TeamName  string `json:"teamName"`
	ShortName string `json:"shortName"`
}

type standingsResponse struct {
	Records []struct {
		TeamRecords []teamRecordResponse `json:"teamRecords"`
	} `json:"records"`
}

type teamRecordResponse struct {
	Team              teamRefResponse `json:"team"`
	Wins              int             `json:"wins"`
	Losses            int             `json:"losses"`
	WinningPercentage string          `json:"winningPercentage"`
	DivisionRank      string          `json:"divisionRank"`
	LeagueRank        string          `json:"leagueRank"`
}

type scheduleResponse struct {
	Dates []struct {
		Date  string         `json:"date"`
		Games []gameResponse `json:"games"`
	} `json:"dates"`
}

type gameResponse struct {
	GamePk int `json:"gamePk"`
	Teams  struct {
		Home gameSideResponse `json:"home"`
		Away gameSideResponse `json:"away"`
	} `json:"teams"`
}

type gameSideResponse struct {
	Team teamRefResponse `json:"team"`
}

type teamStatsResponse struct {
	Stats []games.StatGroup `json:"stats"`
}
