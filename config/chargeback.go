package config

import (
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Tuning knobs for the reconciliation and allocation engines. The defaults
// mirror the values the business signed off on; env overrides exist so the
// thresholds can be tuned per environment without a deploy.

type MatchThresholdConfig struct {
	// Scores at or above AutoMatch merge without review.
	AutoMatch float64
	// Scores in [NeedsReview, AutoMatch) are logged for manual review.
	NeedsReview float64
}

func MatchThresholds() MatchThresholdConfig {
	return MatchThresholdConfig{
		AutoMatch:   floatFromEnv("MATCH_AUTO_THRESHOLD", 80),
		NeedsReview: floatFromEnv("MATCH_REVIEW_THRESHOLD", 50),
	}
}

// BlendUsageRatio is the proportional-by-usage share of the custom-formula
// allocation. The equal-split share is always 1 - BlendUsageRatio.
func BlendUsageRatio() decimal.Decimal {
	v := strings.TrimSpace(os.Getenv("ALLOC_BLEND_USAGE_RATIO"))
	if v == "" {
		return decimal.NewFromFloat(0.4)
	}
	d, err := decimal.NewFromString(v)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromFloat(0.4)
	}
	return d
}

func floatFromEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	f, _ := d.Float64()
	return f
}
