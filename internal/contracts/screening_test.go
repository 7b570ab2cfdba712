package contracts

import (
	"math"
	"testing"
)

func TestScoringWeights_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   ScoringWeights
		want ScoringWeights
	}{
		{
			name: "already normalized",
			in:   ScoringWeights{Valuation: 0.40, Quality: 0.30, Sentiment: 0.20, Momentum: 0.10},
			want: ScoringWeights{Valuation: 0.40, Quality: 0.30, Sentiment: 0.20, Momentum: 0.10},
		},
		{
			name: "proportional scale",
			in:   ScoringWeights{Valuation: 4, Quality: 3, Sentiment: 2, Momentum: 1},
			want: ScoringWeights{Valuation: 0.40, Quality: 0.30, Sentiment: 0.20, Momentum: 0.10},
		},
		{
			name: "zero total falls back to equal",
			in:   ScoringWeights{},
			want: ScoringWeights{Valuation: 0.25, Quality: 0.25, Sentiment: 0.25, Momentum: 0.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize()

			if math.Abs(got.Sum()-1.0) > 1e-9 {
				t.Errorf("Normalize() sum = %v, want 1.0", got.Sum())
			}

			epsilon := 1e-9
			if math.Abs(got.Valuation-tt.want.Valuation) > epsilon ||
				math.Abs(got.Quality-tt.want.Quality) > epsilon ||
				math.Abs(got.Sentiment-tt.want.Sentiment) > epsilon ||
				math.Abs(got.Momentum-tt.want.Momentum) > epsilon {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScoringWeights_Validate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Errorf("DefaultWeights should validate: %v", err)
	}

	bad := ScoringWeights{Valuation: 0.5, Quality: 0.5, Sentiment: 0.5, Momentum: 0.5}
	if err := bad.Validate(); err == nil {
		t.Error("Expected validation error for weights summing to 2.0")
	}
}

func TestScreeningResult_Grade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{92, "A+"},
		{85, "A+"},
		{82, "A"},
		{76, "A-"},
		{71, "B+"},
		{66, "B"},
		{61, "B-"},
		{56, "C+"},
		{51, "C"},
		{46, "C-"},
		{30, "D"},
	}

	for _, tt := range tests {
		r := &ScreeningResult{CompositeScore: tt.score}
		if got := r.Grade(); got != tt.want {
			t.Errorf("Grade(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScreeningResult_ValuationAssessment(t *testing.T) {
	tests := []struct {
		mos  float64
		want string
	}{
		{25, "Undervalued"},
		{15, "Slightly Undervalued"},
		{0, "Fair"},
		{-15, "Slightly Overvalued"},
		{-30, "Overvalued"},
	}

	for _, tt := range tests {
		r := &ScreeningResult{MarginOfSafety: tt.mos}
		if got := r.ValuationAssessment(); got != tt.want {
			t.Errorf("ValuationAssessment(mos=%v) = %q, want %q", tt.mos, got, tt.want)
		}
	}
}

func TestScreeningResult_QualityAssessment(t *testing.T) {
	tests := []struct {
		name   string
		result ScreeningResult
		want   string
	}{
		{
			name: "all strong",
			result: ScreeningResult{
				ROE:             MetricOf(20),
				FCFYield:        MetricOf(6),
				AltmanZ:         MetricOf(4),
				OperatingMargin: MetricOf(25),
			},
			want: "High",
		},
		{
			name: "two strong",
			result: ScreeningResult{
				ROE:      MetricOf(18),
				FCFYield: MetricOf(5.5),
			},
			want: "Good",
		},
		{
			name: "one strong",
			result: ScreeningResult{
				AltmanZ: MetricOf(3.2),
			},
			want: "Average",
		},
		{
			name:   "nothing strong",
			result: ScreeningResult{},
			want:   "Low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.QualityAssessment(); got != tt.want {
				t.Errorf("QualityAssessment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetric(t *testing.T) {
	missing := Metric{}
	if missing.Valid || missing.Float() != 0 || missing.Or(7) != 7 {
		t.Error("zero Metric should be missing")
	}

	zero := MetricOf(0)
	if !zero.Valid || zero.Positive() || zero.Or(7) != 0 {
		t.Error("MetricOf(0) should be valid, non-positive, and distinct from missing")
	}

	est := EstimatedMetric(12.5)
	if !est.Valid || !est.Estimated || est.Float() != 12.5 {
		t.Error("EstimatedMetric should be valid and flagged estimated")
	}
}
