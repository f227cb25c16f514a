// Package tokens provides token-cost estimation for budget accounting.
// Counts may be exact or approximate; the session budget treats whatever
// the configured estimator reports as its unit of account.
package tokens

// Estimator returns a non-negative token count for a piece of text.
type Estimator interface {
	Estimate(text string) int
}

// charsPerToken is the rule-of-thumb ratio for sub-word tokenizers.
const charsPerToken = 4

// Heuristic estimates tokens at ~4 bytes per token, rounding up. Good
// enough for admission thresholds, not for billing.
type Heuristic struct{}

func (Heuristic) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// Fixed reports the same count for any non-empty text. Test helper.
type Fixed int

func (f Fixed) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return int(f)
}
