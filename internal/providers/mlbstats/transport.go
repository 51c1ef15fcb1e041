package mlbstats

import "strings"

func normalizeBaseURL(raw string) string {
	if raw == "" {
		raw = defaultBaseURL
	}
	return strings.TrimSuffix(raw, "/")
}

func resolveSeason(season int) int {
	if season <= 0 {
		return defaultSeason
	}
	return season
}
