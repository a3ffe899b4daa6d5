package betting

import "github.com/shopspring/decimal"

// Risk tier labels
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// TierConfig holds the stake thresholds separating the risk tiers. The
// boundaries are inclusive on the Medium side: stake < LowMax is Low,
// LowMax ≤ stake ≤ MediumMax is Medium, above that is High.
type TierConfig struct {
	LowMax    float64
	MediumMax float64
}

// Classify labels one stake
func (t TierConfig) Classify(stake decimal.Decimal) string {
	lowMax := decimal.NewFromFloat(t.LowMax)
	mediumMax := decimal.NewFromFloat(t.MediumMax)
	switch {
	case stake.LessThan(lowMax):
		return RiskLow
	case stake.LessThanOrEqual(mediumMax):
		return RiskMedium
	default:
		return RiskHigh
	}
}
