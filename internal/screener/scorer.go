package screener

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// normalizeToScore maps value linearly from [min, max] to [0, 100],
// clamped. With reverse set, higher values earn lower scores. A
// degenerate band scores 50.
func normalizeToScore(value, min, max float64, reverse bool) float64 {
	if max == min {
		return 50
	}

	normalized := (value - min) / (max - min) * 100
	if reverse {
		normalized = 100 - normalized
	}
	return clamp(normalized, 0, 100)
}

// CompositeScorer combines valuation, quality, sentiment, and momentum
// sub-scores into a weighted composite in [0, 100]. Scoring is a pure
// function of the result's metric fields.
type CompositeScorer struct {
	weights contracts.ScoringWeights

	// dividendQuality blends payout safety and dividend growth into
	// the quality sub-score.
	dividendQuality bool
}

// NewCompositeScorer builds a scorer with the given weights, normalized
// to sum to 1.0.
func NewCompositeScorer(weights contracts.ScoringWeights) *CompositeScorer {
	return &CompositeScorer{weights: weights.Normalize()}
}

// Weights returns the normalized weights in use.
func (s *CompositeScorer) Weights() contracts.ScoringWeights {
	return s.weights
}

// Score fills the four sub-scores on the result and returns the
// composite.
func (s *CompositeScorer) Score(r *contracts.ScreeningResult) float64 {
	r.ValuationScore = valuationScore(r)
	r.QualityScore = s.qualityScore(r)
	r.SentimentScore = sentimentScore(r)
	r.MomentumScore = momentumScore(r)

	composite := r.ValuationScore*s.weights.Valuation +
		r.QualityScore*s.weights.Quality +
		r.SentimentScore*s.weights.Sentiment +
		r.MomentumScore*s.weights.Momentum

	r.CompositeScore = clamp(composite, 0, 100)
	return r.CompositeScore
}

// valuationScore averages margin of safety, method consensus, and an
// inverse P/E band.
func valuationScore(r *contracts.ScreeningResult) float64 {
	// -30% MOS -> 0, 0% -> 50, +30% -> 100
	scores := []float64{normalizeToScore(r.MarginOfSafety, -30, 30, false)}

	if r.TotalMethods > 0 {
		consensus := float64(r.UndervaluedMethods) / float64(r.TotalMethods) * 100
		scores = append(scores, consensus)
	}

	if r.PERatio.Float() > 0 {
		scores = append(scores, normalizeToScore(r.PERatio.Value, 5, 40, true))
	}

	return mean(scores)
}

func (s *CompositeScorer) qualityScore(r *contracts.ScreeningResult) float64 {
	var scores []float64

	if r.ROE.Valid {
		scores = append(scores, normalizeToScore(r.ROE.Value, 0, 25, false))
	}
	if r.FCFYield.Valid {
		scores = append(scores, normalizeToScore(r.FCFYield.Value, 0, 10, false))
	}
	if r.AltmanZ.Valid {
		scores = append(scores, normalizeToScore(r.AltmanZ.Value, 1.8, 5.0, false))
	}
	if r.OperatingMargin.Valid {
		scores = append(scores, normalizeToScore(r.OperatingMargin.Value, 0, 30, false))
	}
	if r.ROIC.Valid {
		scores = append(scores, normalizeToScore(r.ROIC.Value, 0, 30, false))
	}

	base := mean(scores)
	if !s.dividendQuality {
		return base
	}

	var dividend []float64
	if r.PayoutRatio.Float() > 0 {
		dividend = append(dividend, normalizeToScore(r.PayoutRatio.Value, 30, 80, true))
	}
	if r.DividendGrowthRate.Valid {
		dividend = append(dividend, normalizeToScore(r.DividendGrowthRate.Value, 0, 15, false))
	}
	if len(dividend) == 0 {
		return base
	}
	return (base + mean(dividend)) / 2
}

// sentimentScore averages the news score band with an insider label
// lookup. Both components always contribute.
func sentimentScore(r *contracts.ScreeningResult) float64 {
	news := normalizeToScore(r.NewsSentiment, -1, 1, false)

	insider := 50.0
	switch r.InsiderSentiment {
	case contracts.InsiderBullish:
		insider = 80
	case contracts.InsiderBearish:
		insider = 20
	}

	return (news + insider) / 2
}

func momentumScore(r *contracts.ScreeningResult) float64 {
	var scores []float64

	if r.CAGR3Y.Valid {
		scores = append(scores, normalizeToScore(r.CAGR3Y.Value, -10, 20, false))
	}
	// PriceVs52WHigh is percent below the high: 50% below -> 0, at high -> 100.
	if r.PriceVs52WHigh.Valid {
		scores = append(scores, normalizeToScore(r.PriceVs52WHigh.Value, 50, 0, false))
	}
	if r.EarningsGrowth.Valid {
		scores = append(scores, normalizeToScore(r.EarningsGrowth.Value, -10, 30, false))
	}

	return mean(scores)
}

// mean averages the scores, defaulting to 50 when no component is
// available.
func mean(scores []float64) float64 {
	if len(scores) == 0 {
		return 50
	}
	sum := 0.0
	for _, v := range scores {
		sum += v
	}
	return sum / float64(len(scores))
}

// Weight presets per scorer flavor.
var (
	defaultWeights   = contracts.ScoringWeights{Valuation: 0.40, Quality: 0.30, Sentiment: 0.20, Momentum: 0.10}
	valuationWeights = contracts.ScoringWeights{Valuation: 0.60, Quality: 0.25, Sentiment: 0.10, Momentum: 0.05}
	qualityWeights   = contracts.ScoringWeights{Valuation: 0.25, Quality: 0.50, Sentiment: 0.15, Momentum: 0.10}
	growthWeights    = contracts.ScoringWeights{Valuation: 0.30, Quality: 0.25, Sentiment: 0.15, Momentum: 0.30}
	dividendWeights  = contracts.ScoringWeights{Valuation: 0.35, Quality: 0.45, Sentiment: 0.15, Momentum: 0.05}
)

// DefaultScorer weights valuation 40/quality 30/sentiment 20/momentum 10.
func DefaultScorer() *CompositeScorer { return NewCompositeScorer(defaultWeights) }

// ValuationScorer weights valuation at 60%.
func ValuationScorer() *CompositeScorer { return NewCompositeScorer(valuationWeights) }

// QualityScorer weights quality at 50%.
func QualityScorer() *CompositeScorer { return NewCompositeScorer(qualityWeights) }

// GrowthScorer splits the emphasis between momentum and valuation.
func GrowthScorer() *CompositeScorer { return NewCompositeScorer(growthWeights) }

// DividendScorer emphasizes quality and blends payout safety and
// dividend growth into it.
func DividendScorer() *CompositeScorer {
	s := NewCompositeScorer(dividendWeights)
	s.dividendQuality = true
	return s
}

// ScorerRegistry maps scorer names to factories.
type ScorerRegistry struct {
	factories map[string]func() *CompositeScorer
}

// NewScorerRegistry returns a registry with the built-in presets. The
// strategy names value and garp alias the valuation and growth scorers.
func NewScorerRegistry() *ScorerRegistry {
	return &ScorerRegistry{factories: map[string]func() *CompositeScorer{
		"default":   DefaultScorer,
		"valuation": ValuationScorer,
		"value":     ValuationScorer,
		"quality":   QualityScorer,
		"growth":    GrowthScorer,
		"dividend":  DividendScorer,
		"garp":      GrowthScorer,
	}}
}

// Get returns a scorer by name.
func (r *ScorerRegistry) Get(name string) (*CompositeScorer, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
	return factory(), nil
}
