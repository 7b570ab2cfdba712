package contracts

import (
	"math"
	"testing"
)

func TestValuationResult_MarginOfSafety(t *testing.T) {
	tests := []struct {
		name  string
		fair  float64
		price float64
		want  float64
	}{
		{"undervalued", 100, 75, 25},
		{"overvalued", 100, 120, -20},
		{"at fair value", 100, 100, 0},
		{"no fair value", 0, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ValuationResult{FairValue: tt.fair, CurrentPrice: tt.price}
			got := r.MarginOfSafety()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MarginOfSafety() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	results := []ValuationResult{
		{Method: "graham_number", FairValue: 120, PremiumDiscount: 20, Applicable: true},
		{Method: "dcf", FairValue: 100, PremiumDiscount: 0, Applicable: true},
		{Method: "ddm", FairValue: 80, PremiumDiscount: -20, Applicable: true},
		// Unreliable: missing fields, excluded from aggregates
		{Method: "epv", FairValue: 200, PremiumDiscount: 50, Applicable: true, MissingFields: []string{"ebit"}},
		// Not applicable
		{Method: "ncav", FairValue: 0, Applicable: false},
	}

	summary := Summarize(results)

	if summary.TotalMethods != 5 {
		t.Errorf("TotalMethods = %d, want 5", summary.TotalMethods)
	}
	if summary.ReliableCount != 3 {
		t.Errorf("ReliableCount = %d, want 3", summary.ReliableCount)
	}
	if summary.MedianValue != 100 {
		t.Errorf("MedianValue = %v, want 100", summary.MedianValue)
	}
	if summary.AverageValue != 100 {
		t.Errorf("AverageValue = %v, want 100", summary.AverageValue)
	}
	if summary.MinValue != 80 || summary.MaxValue != 120 {
		t.Errorf("Min/Max = %v/%v, want 80/120", summary.MinValue, summary.MaxValue)
	}
	if summary.UndervaluedCount != 1 {
		t.Errorf("UndervaluedCount = %d, want 1", summary.UndervaluedCount)
	}
	if summary.OvervaluedCount != 1 {
		t.Errorf("OvervaluedCount = %d, want 1", summary.OvervaluedCount)
	}
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalMethods != 0 || summary.MedianValue != 0 {
		t.Errorf("empty summary should be zero, got %+v", summary)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		want   float64
	}{
		{"odd", []float64{1, 2, 3}, 2},
		{"even", []float64{1, 2, 3, 4}, 2.5},
		{"single", []float64{5}, 5},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.sorted); got != tt.want {
				t.Errorf("median(%v) = %v, want %v", tt.sorted, got, tt.want)
			}
		})
	}
}
