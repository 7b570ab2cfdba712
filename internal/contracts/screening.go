package contracts

import (
	"fmt"
	"time"
)

// Filter categories.
const (
	CategoryValuation = "valuation"
	CategoryQuality   = "quality"
	CategoryDividend  = "dividend"
	CategorySentiment = "sentiment"
	CategoryMomentum  = "momentum"
	CategoryGrowth    = "growth"
)

// FilterResult records one filter's verdict for one ticker.
type FilterResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Reason    string  `json:"reason"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Category  string  `json:"category"`
}

// ScoringWeights are the four category weights of the composite score.
// They should sum to 1.0; Normalize rescales when they do not.
type ScoringWeights struct {
	Valuation float64 `json:"valuation"`
	Quality   float64 `json:"quality"`
	Sentiment float64 `json:"sentiment"`
	Momentum  float64 `json:"momentum"`
}

// DefaultWeights returns the standard weight preset.
func DefaultWeights() ScoringWeights {
	return ScoringWeights{Valuation: 0.40, Quality: 0.30, Sentiment: 0.20, Momentum: 0.10}
}

// Sum returns the total of all four weights.
func (w ScoringWeights) Sum() float64 {
	return w.Valuation + w.Quality + w.Sentiment + w.Momentum
}

// Normalize rescales the weights to sum to 1.0. A zero total falls back
// to equal weights.
func (w ScoringWeights) Normalize() ScoringWeights {
	total := w.Sum()
	if total == 0 {
		return ScoringWeights{Valuation: 0.25, Quality: 0.25, Sentiment: 0.25, Momentum: 0.25}
	}
	return ScoringWeights{
		Valuation: w.Valuation / total,
		Quality:   w.Quality / total,
		Sentiment: w.Sentiment / total,
		Momentum:  w.Momentum / total,
	}
}

// Validate checks that the weights sum to 1.0 within tolerance.
func (w ScoringWeights) Validate() error {
	total := w.Sum()
	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.4f", total)
	}
	return nil
}

// ScreeningResult accumulates everything the pipeline learns about one
// ticker. Stages fill it in turn; it is not shared across goroutines.
type ScreeningResult struct {
	// Identity
	Ticker       string  `json:"ticker"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	MarketCap    float64 `json:"market_cap"`

	// Scores (0-100)
	CompositeScore float64 `json:"composite_score"`
	ValuationScore float64 `json:"valuation_score"`
	QualityScore   float64 `json:"quality_score"`
	SentimentScore float64 `json:"sentiment_score"`
	MomentumScore  float64 `json:"momentum_score"`

	// Valuation
	FairValueMedian    float64 `json:"fair_value_median"`
	FairValueAvg       float64 `json:"fair_value_avg"`
	MarginOfSafety     float64 `json:"margin_of_safety"`
	UndervaluedMethods int     `json:"undervalued_methods"`
	TotalMethods       int     `json:"total_methods"`
	PERatio            Metric  `json:"pe_ratio"`
	PBRatio            Metric  `json:"pb_ratio"`

	// Quality
	ROE             Metric `json:"roe"`
	FCFYield        Metric `json:"fcf_yield"`
	AltmanZ         Metric `json:"altman_z"`
	ROIC            Metric `json:"roic"`
	OperatingMargin Metric `json:"operating_margin"`

	// Dividend
	DividendYield      Metric `json:"dividend_yield"`
	PayoutRatio        Metric `json:"payout_ratio"`
	DividendGrowthRate Metric `json:"dividend_growth_rate"`

	// Sentiment
	NewsSentiment      float64 `json:"news_sentiment"` // -1..1
	NewsSentimentLabel string  `json:"news_sentiment_label"`
	InsiderSentiment   string  `json:"insider_sentiment"` // bullish/bearish/neutral
	InsiderNetValue    float64 `json:"insider_net_value"`

	// Momentum
	CAGR1Y         Metric `json:"cagr_1y"`
	CAGR3Y         Metric `json:"cagr_3y"`
	PriceVs52WHigh Metric `json:"price_vs_52w_high"` // percent below high
	PriceVs52WLow  Metric `json:"price_vs_52w_low"`  // percent above low

	// Growth
	RevenueGrowth  Metric `json:"revenue_growth"`
	EarningsGrowth Metric `json:"earnings_growth"`
	PEGRatio       Metric `json:"peg_ratio"`

	// Verdict
	PassedFilters []string       `json:"passed_filters"`
	FailedFilters []string       `json:"failed_filters"`
	FilterDetails []FilterResult `json:"filter_details"`
	IsQualified   bool           `json:"is_qualified"`
	Errors        []string       `json:"errors,omitempty"`
}

// Grade maps the composite score to a letter grade.
func (r *ScreeningResult) Grade() string {
	switch {
	case r.CompositeScore >= 85:
		return "A+"
	case r.CompositeScore >= 80:
		return "A"
	case r.CompositeScore >= 75:
		return "A-"
	case r.CompositeScore >= 70:
		return "B+"
	case r.CompositeScore >= 65:
		return "B"
	case r.CompositeScore >= 60:
		return "B-"
	case r.CompositeScore >= 55:
		return "C+"
	case r.CompositeScore >= 50:
		return "C"
	case r.CompositeScore >= 45:
		return "C-"
	default:
		return "D"
	}
}

// ValuationAssessment classifies the margin of safety.
func (r *ScreeningResult) ValuationAssessment() string {
	switch {
	case r.MarginOfSafety >= 20:
		return "Undervalued"
	case r.MarginOfSafety >= 10:
		return "Slightly Undervalued"
	case r.MarginOfSafety >= -10:
		return "Fair"
	case r.MarginOfSafety >= -20:
		return "Slightly Overvalued"
	default:
		return "Overvalued"
	}
}

// QualityAssessment classifies business quality by counting strong
// fundamentals.
func (r *ScreeningResult) QualityAssessment() string {
	strong := 0
	if r.ROE.Float() >= 15 {
		strong++
	}
	if r.FCFYield.Float() >= 5 {
		strong++
	}
	if r.AltmanZ.Float() >= 3 {
		strong++
	}
	if r.OperatingMargin.Float() >= 15 {
		strong++
	}

	switch {
	case strong >= 3:
		return "High"
	case strong == 2:
		return "Good"
	case strong == 1:
		return "Average"
	default:
		return "Low"
	}
}

// TaskError is the failure side of a per-ticker screening task.
type TaskError struct {
	Ticker string `json:"ticker"`
	Stage  string `json:"stage"` // fetch, valuation, analysis, timeout
	Err    string `json:"error"`
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Ticker, e.Stage, e.Err)
}

// ScreeningSummary holds aggregate statistics for one run.
type ScreeningSummary struct {
	StrategyName   string        `json:"strategy_name"`
	Total          int           `json:"total"`
	QualifiedCount int           `json:"qualified_count"`
	FailedCount    int           `json:"failed_count"`
	ErrorCount     int           `json:"error_count"`
	PassRate       float64       `json:"pass_rate"` // percent of total
	Duration       time.Duration `json:"duration"`
}

// ScreeningOutput is the full result of a screening run.
type ScreeningOutput struct {
	Summary      ScreeningSummary   `json:"summary"`
	Qualified    []*ScreeningResult `json:"qualified"`
	Disqualified []*ScreeningResult `json:"disqualified"`
	Errors       []TaskError        `json:"errors"`
}
