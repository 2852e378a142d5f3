package advisor

import (
	"fmt"
	"strings"

	"github.com/alphaquant/alpha/backend/internal/scoring"
)

// Horizon selects which of the three scores drives a ranking
type Horizon string

const (
	HorizonShort  Horizon = "short"
	HorizonMedium Horizon = "medium"
	HorizonLong   Horizon = "long"
)

// ParseHorizon validates a caller-supplied horizon string
func ParseHorizon(s string) (Horizon, error) {
	switch Horizon(strings.ToLower(strings.TrimSpace(s))) {
	case HorizonShort:
		return HorizonShort, nil
	case HorizonMedium:
		return HorizonMedium, nil
	case HorizonLong:
		return HorizonLong, nil
	default:
		return "", fmt.Errorf("invalid horizon %q: must be one of short, medium, long", s)
	}
}

// Select returns the horizon's value from a score set
func (h Horizon) Select(scores *scoring.ScoreSet) float64 {
	switch h {
	case HorizonMedium:
		return scores.Medium
	case HorizonLong:
		return scores.Long
	default:
		return scores.Short
	}
}
