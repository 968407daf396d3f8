// Package classify maps a URL's converted spend and revenue to one of four
// profitability statuses. The thresholds are fixed business constants shared
// by reconciliation and aggregation; they are not configurable.
package classify

import "github.com/rumor-ml/commons.systems/adrecon/internal/domain"

const (
	profitableThreshold = 40.0
	turnOffThreshold    = -40.0

	// UnboundedROI is the sentinel for revenue with zero spend. Downstream
	// display logic special-cases roi > 900 to mean "unbounded", so this
	// stays a plain constant rather than an infinity value.
	UnboundedROI = 999.0
)

// ROI returns the return on investment as a percent. Spend of zero with
// positive revenue yields the UnboundedROI sentinel; zero spend and zero
// revenue yields zero.
func ROI(convertedSpend, revenue float64) float64 {
	if convertedSpend > 0 {
		return (revenue - convertedSpend) / convertedSpend * 100
	}
	if revenue > 0 {
		return UnboundedROI
	}
	return 0
}

// Classify maps (convertedSpend, revenue) to a status.
// Boundaries are inclusive exactly as follows: roi of 40 is Improving,
// roi of -40 is Losing.
func Classify(convertedSpend, revenue float64) domain.Status {
	if convertedSpend == 0 && revenue == 0 {
		return domain.StatusImproving
	}

	roi := ROI(convertedSpend, revenue)
	switch {
	case roi > profitableThreshold:
		return domain.StatusProfitable
	case roi >= 0:
		return domain.StatusImproving
	case roi < turnOffThreshold:
		return domain.StatusTurnOff
	default:
		return domain.StatusLosing
	}
}
