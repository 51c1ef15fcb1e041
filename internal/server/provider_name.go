package server

import (
	"strings"

	"github.com/preston-bernstein/mlb-data-service/internal/config"
)

// normalizeProviderName returns the lower-cased provider name used in metrics and logs.
func normalizeProviderName(raw string) string {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return config.ProviderMLBStats
	}
	return name
}
