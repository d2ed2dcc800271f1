// Package risk classifies village health observations into risk tiers.
//
// The rule set is fixed and evaluated in priority order, first match wins:
//
//	diarrhea > 10 and rainfall High  -> High Risk
//	5 <= diarrhea <= 10              -> Medium Risk (rainfall ignored)
//	anything else                    -> Safe
//
// A count above 10 without High rainfall falls through to Safe. Fever counts
// are recorded by callers but never take part in classification.
package risk

import (
	"errors"
	"fmt"
	"strings"
)

// Rainfall is the categorical environmental signal reported with an observation.
type Rainfall string

const (
	RainfallLow    Rainfall = "Low"
	RainfallMedium Rainfall = "Medium"
	RainfallHigh   Rainfall = "High"
)

// Tier is the derived risk level of an observation.
type Tier string

const (
	TierSafe   Tier = "Safe"
	TierMedium Tier = "Medium Risk"
	TierHigh   Tier = "High Risk"
)

const (
	highRiskThreshold = 10
	mediumRiskMin     = 5
	mediumRiskMax     = 10
)

// ErrUnknownRainfall is returned by ParseRainfall for values outside Low/Medium/High.
var ErrUnknownRainfall = errors.New("unknown rainfall level")

// Classify maps a diarrhea count and rainfall level to a risk tier.
func Classify(diarrhea int, rainfall Rainfall) Tier {
	switch {
	case diarrhea > highRiskThreshold && rainfall == RainfallHigh:
		return TierHigh
	case diarrhea >= mediumRiskMin && diarrhea <= mediumRiskMax:
		return TierMedium
	default:
		return TierSafe
	}
}

// Tiers returns the known tiers in display order.
func Tiers() []Tier {
	return []Tier{TierSafe, TierMedium, TierHigh}
}

// ParseRainfall normalizes user input ("high", " Low ") to a canonical level.
func ParseRainfall(s string) (Rainfall, error) {
	v := strings.TrimSpace(s)
	for _, r := range []Rainfall{RainfallLow, RainfallMedium, RainfallHigh} {
		if strings.EqualFold(v, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRainfall, s)
}

// RainfallFromChoice maps the console menu choices 1, 2 and 3 to Low, Medium
// and High. Any other input yields fallback.
func RainfallFromChoice(choice string, fallback Rainfall) Rainfall {
	switch strings.TrimSpace(choice) {
	case "1":
		return RainfallLow
	case "2":
		return RainfallMedium
	case "3":
		return RainfallHigh
	default:
		return fallback
	}
}
