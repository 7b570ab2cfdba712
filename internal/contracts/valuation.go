package contracts

import "sort"

// Confidence levels for a valuation result.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
	ConfidenceNA     = "N/A"
)

// FairValueRange bounds a fair-value estimate.
type FairValueRange struct {
	Low  float64 `json:"low"`
	Base float64 `json:"base"`
	High float64 `json:"high"`
}

// ValuationResult is the output of a single valuation method.
type ValuationResult struct {
	Method          string             `json:"method"`
	FairValue       float64            `json:"fair_value"`
	CurrentPrice    float64            `json:"current_price"`
	PremiumDiscount float64            `json:"premium_discount"` // percent, positive = undervalued
	Assessment      string             `json:"assessment"`
	Confidence      string             `json:"confidence"`
	FairValueRange  *FairValueRange    `json:"fair_value_range,omitempty"`
	Details         map[string]float64 `json:"details,omitempty"`
	Analysis        []string           `json:"analysis,omitempty"`
	MissingFields   []string           `json:"missing_fields,omitempty"`
	Applicable      bool               `json:"applicable"`
}

// MarginOfSafety returns the percent by which fair value exceeds price,
// relative to fair value.
func (r *ValuationResult) MarginOfSafety() float64 {
	if r.FairValue <= 0 {
		return 0
	}
	return (r.FairValue - r.CurrentPrice) / r.FairValue * 100
}

// IsReliable reports whether the result used no missing inputs.
func (r *ValuationResult) IsReliable() bool {
	return r.Applicable && len(r.MissingFields) == 0
}

// ValuationSummary aggregates results across methods for one stock.
type ValuationSummary struct {
	MedianValue            float64 `json:"median_value"`
	AverageValue           float64 `json:"average_value"`
	MinValue               float64 `json:"min_value"`
	MaxValue               float64 `json:"max_value"`
	AveragePremiumDiscount float64 `json:"average_premium_discount"`
	UndervaluedCount       int     `json:"undervalued_count"`
	OvervaluedCount        int     `json:"overvalued_count"`
	ReliableCount          int     `json:"reliable_count"`
	TotalMethods           int     `json:"total_methods"`
}

// Premium/discount thresholds for counting a method's verdict.
const (
	undervaluedThreshold = 15.0
	overvaluedThreshold  = -15.0
)

// Summarize builds a ValuationSummary from per-method results. Only
// results with a positive fair value and no missing inputs contribute
// to the aggregate values; TotalMethods counts everything attempted.
func Summarize(results []ValuationResult) ValuationSummary {
	summary := ValuationSummary{TotalMethods: len(results)}

	values := make([]float64, 0, len(results))
	premiumSum := 0.0

	for i := range results {
		r := &results[i]
		if r.FairValue <= 0 || !r.IsReliable() {
			continue
		}
		values = append(values, r.FairValue)
		premiumSum += r.PremiumDiscount
		summary.ReliableCount++

		switch {
		case r.PremiumDiscount > undervaluedThreshold:
			summary.UndervaluedCount++
		case r.PremiumDiscount < overvaluedThreshold:
			summary.OvervaluedCount++
		}
	}

	if len(values) == 0 {
		return summary
	}

	sort.Float64s(values)
	summary.MinValue = values[0]
	summary.MaxValue = values[len(values)-1]
	summary.MedianValue = median(values)
	summary.AveragePremiumDiscount = premiumSum / float64(len(values))

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	summary.AverageValue = sum / float64(len(values))

	return summary
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
