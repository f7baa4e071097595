package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/graphdesk/newsgraph/internal/config"
)

// DefaultSelectorConfig returns a config.SelectorConfig with the standard
// thresholds. Weights sum to 1.
func DefaultSelectorConfig() config.SelectorConfig {
	return config.SelectorConfig{
		Budget:           20,
		StretchMax:       25,
		MinPerFeed:       1,
		StretchThreshold: 0.55,
		MinQuality:       0.20,

		WordCountLow:   200,
		WordCountIdeal: 800,
		WordCountHigh:  3000,

		WordCountWeight: 0.40,
		MetadataWeight:  0.20,
		TierWeight:      0.25,
		SignalWeight:    0.15,
	}
}

// WeightSum returns the sum of the component weights.
func WeightSum(c config.SelectorConfig) float64 {
	return c.WordCountWeight + c.MetadataWeight + c.TierWeight + c.SignalWeight
}

// ValidateConfig checks that a SelectorConfig is internally consistent.
func ValidateConfig(c config.SelectorConfig) error {
	var errs []string

	weights := map[string]float64{
		"word_count_weight": c.WordCountWeight,
		"metadata_weight":   c.MetadataWeight,
		"tier_weight":       c.TierWeight,
		"signal_weight":     c.SignalWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	// Weights must sum to 1 (allow tolerance for floating-point).
	if math.Abs(WeightSum(c)-1.0) > 0.01 {
		errs = append(errs, fmt.Sprintf("weights should sum to 1.0, got %.2f", WeightSum(c)))
	}

	if c.WordCountLow <= 0 || c.WordCountIdeal <= c.WordCountLow || c.WordCountHigh <= c.WordCountIdeal {
		errs = append(errs, "word count thresholds must satisfy 0 < low < ideal < high")
	}

	if c.Budget <= 0 {
		errs = append(errs, "budget must be > 0")
	}
	if c.StretchMax < c.Budget {
		errs = append(errs, "stretch_max must be >= budget")
	}
	if c.MinPerFeed < 0 {
		errs = append(errs, "min_per_feed must be >= 0")
	}
	if c.StretchThreshold < 0 || c.StretchThreshold > 1 {
		errs = append(errs, "stretch_threshold must be between 0 and 1")
	}
	if c.MinQuality < 0 || c.MinQuality > 1 {
		errs = append(errs, "min_quality must be between 0 and 1")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
