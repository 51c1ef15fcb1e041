package mlbstats

const (
	providerName   = "mlbstats"
	defaultBaseURL = "https://statsapi.mlb.com"
	defaultSeason  = 2024
	sportMLB       = 1
	leagueIDs      = "103,104"

	groupHitting  = "hitting"
	groupPitching = "pitching"
)
