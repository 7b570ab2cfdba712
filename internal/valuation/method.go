// Package valuation implements intrinsic-value models. Each method takes
// a fundamentals snapshot and produces a fair-value estimate with a
// confidence grade; the Engine runs sets of methods and aggregates them.
package valuation

import (
	"math"
	"strings"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// Method is a single valuation model.
type Method interface {
	// Name returns the registry key for the method.
	Name() string
	// Value computes a fair-value estimate for the stock.
	Value(s *contracts.Stock) contracts.ValuationResult
}

// minPositive is the smallest value accepted for fields that must be
// strictly positive, such as prices and per-share figures.
const minPositive = 0.01

// Premium thresholds used by assess.
const (
	undervaluedPct = 15.0
	overvaluedPct  = -15.0
)

// assess maps a fair value against the market price.
func assess(fair, price float64) string {
	if fair <= 0 || price <= 0 {
		return "N/A"
	}
	premium := premiumVsPrice(fair, price)
	switch {
	case premium > undervaluedPct:
		return "Undervalued"
	case premium < overvaluedPct:
		return "Overvalued"
	default:
		return "Fair"
	}
}

// premiumVsPrice returns the percent by which fair exceeds price,
// relative to price.
func premiumVsPrice(fair, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return (fair - price) / price * 100
}

// errorResult builds a non-applicable result carrying the failure reason.
func errorResult(method string, s *contracts.Stock, reason string, missing []string) contracts.ValuationResult {
	return contracts.ValuationResult{
		Method:        method,
		CurrentPrice:  s.CurrentPrice,
		Assessment:    "N/A - " + reason,
		Confidence:    contracts.ConfidenceNA,
		MissingFields: missing,
	}
}

func missingResult(method string, s *contracts.Stock, missing []string) contracts.ValuationResult {
	return errorResult(method, s, "Missing required data: "+strings.Join(missing, ", "), missing)
}

// needMetric records name as missing unless the metric is present.
func needMetric(missing *[]string, name string, m contracts.Metric) float64 {
	if !m.Valid {
		*missing = append(*missing, name)
		return 0
	}
	return m.Value
}

// needPositiveMetric records name as missing unless the metric is
// present and at least minPositive.
func needPositiveMetric(missing *[]string, name string, m contracts.Metric) float64 {
	if !m.Valid || m.Value < minPositive {
		*missing = append(*missing, name)
		return 0
	}
	return m.Value
}

// needPositive is needPositiveMetric for plain float fields.
func needPositive(missing *[]string, name string, v float64) float64 {
	if v < minPositive {
		*missing = append(*missing, name)
		return 0
	}
	return v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }

func valueRange(low, base, high float64) *contracts.FairValueRange {
	return &contracts.FairValueRange{Low: round2(low), Base: round2(base), High: round2(high)}
}

func noteWarnings(analysis []string, warnings []string) []string {
	for _, w := range warnings {
		analysis = append(analysis, "Note: "+w)
	}
	return analysis
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
