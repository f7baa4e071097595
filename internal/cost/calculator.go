// Package cost computes the dollar cost of extraction runs from token usage.
package cost

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Calculator computes costs for Anthropic API usage.
type Calculator struct {
	rates map[string]ModelRate
}

// NewCalculator creates a Calculator with the given per-model rates. Models
// missing from the map fall back to the default rate table; an unknown model
// costs zero rather than failing the run.
func NewCalculator(rates map[string]ModelRate) *Calculator {
	merged := DefaultRates()
	for model, rate := range rates {
		merged[model] = rate
	}
	return &Calculator{rates: merged}
}

// Claude computes the cost of one Claude API call.
func (c *Calculator) Claude(model string, inputTokens, outputTokens int64) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}
	inCost := (float64(inputTokens) / 1e6) * rate.Input
	outCost := (float64(outputTokens) / 1e6) * rate.Output
	return inCost + outCost
}

// DefaultRates returns the default pricing table for the models the pipeline
// uses.
func DefaultRates() map[string]ModelRate {
	return map[string]ModelRate{
		"claude-haiku-4-5-20251001":  {Input: 0.80, Output: 4.00},
		"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
	}
}
