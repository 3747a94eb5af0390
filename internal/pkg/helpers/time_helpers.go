package helpers

import (
	"time"

	"github.com/rs/zerolog/log"
)

// ParseDuration parses a configured duration string, falling back to the
// given default on any parse failure. Config durations are validated at
// load, so a fallback here means an env override slipped past validation.
func ParseDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		log.Warn().Err(err).Str("value", durationStr).Dur("default", defaultDuration).Msg("Failed to parse duration, using default")
		return defaultDuration
	}
	return duration
}
