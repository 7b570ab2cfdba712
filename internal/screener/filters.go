package screener

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// MarginOfSafetyFilter requires a minimum margin of safety in percent.
type MarginOfSafetyFilter struct {
	Min float64 // zero means 15
}

func (MarginOfSafetyFilter) Name() string        { return "margin_of_safety" }
func (MarginOfSafetyFilter) Description() string { return "Minimum margin of safety" }
func (MarginOfSafetyFilter) Category() string    { return contracts.CategoryValuation }

func (f MarginOfSafetyFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 15)
	value := r.MarginOfSafety
	passed := value >= min

	reason := fmt.Sprintf("MOS %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("MOS %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// PEFilter requires the trailing P/E inside [Min, Max]. A missing or
// negative P/E fails.
type PEFilter struct {
	Max float64 // zero means 20
	Min float64
}

func (PEFilter) Name() string        { return "pe_ratio" }
func (PEFilter) Description() string { return "Maximum P/E ratio" }
func (PEFilter) Category() string    { return contracts.CategoryValuation }

func (f PEFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	max := orDefault(f.Max, 20)
	value := r.PERatio.Float()

	if value <= 0 {
		return verdict(f, false, "P/E not available or negative", value, max)
	}

	passed := f.Min <= value && value <= max
	reason := fmt.Sprintf("P/E %.1f outside [%g, %g]", value, f.Min, max)
	if passed {
		reason = fmt.Sprintf("P/E %.1f within [%g, %g]", value, f.Min, max)
	}
	return verdict(f, passed, reason, value, max)
}

// PBFilter requires a maximum price/book ratio.
type PBFilter struct {
	Max float64 // zero means 3.0
}

func (PBFilter) Name() string        { return "pb_ratio" }
func (PBFilter) Description() string { return "Maximum P/B ratio" }
func (PBFilter) Category() string    { return contracts.CategoryValuation }

func (f PBFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	max := orDefault(f.Max, 3.0)
	value := r.PBRatio.Float()

	if value <= 0 {
		return verdict(f, false, "P/B not available or negative", value, max)
	}

	passed := value <= max
	reason := fmt.Sprintf("P/B %.2f > %g", value, max)
	if passed {
		reason = fmt.Sprintf("P/B %.2f <= %g", value, max)
	}
	return verdict(f, passed, reason, value, max)
}

// PEGFilter requires a maximum PEG ratio. A missing PEG fails.
type PEGFilter struct {
	Max float64 // zero means 1.5
}

func (PEGFilter) Name() string        { return "peg_ratio" }
func (PEGFilter) Description() string { return "Maximum PEG ratio (P/E / Growth)" }
func (PEGFilter) Category() string    { return contracts.CategoryValuation }

func (f PEGFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	max := orDefault(f.Max, 1.5)
	value := r.PEGRatio.Float()

	if value <= 0 {
		return verdict(f, false, "PEG not available", value, max)
	}

	passed := value <= max
	reason := fmt.Sprintf("PEG %.2f > %g", value, max)
	if passed {
		reason = fmt.Sprintf("PEG %.2f <= %g", value, max)
	}
	return verdict(f, passed, reason, value, max)
}

// UndervaluedMethodsFilter requires a minimum count of valuation methods
// that call the stock undervalued.
type UndervaluedMethodsFilter struct {
	Min int // zero means 2
}

func (UndervaluedMethodsFilter) Name() string        { return "undervalued_methods" }
func (UndervaluedMethodsFilter) Description() string { return "Minimum undervalued valuation methods" }
func (UndervaluedMethodsFilter) Category() string    { return contracts.CategoryValuation }

func (f UndervaluedMethodsFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := f.Min
	if min == 0 {
		min = 2
	}
	value := r.UndervaluedMethods
	passed := value >= min

	reason := fmt.Sprintf("%d methods indicate undervalued < %d", value, min)
	if passed {
		reason = fmt.Sprintf("%d methods indicate undervalued >= %d", value, min)
	}
	return verdict(f, passed, reason, float64(value), float64(min))
}

// ROEFilter requires a minimum return on equity in percent.
type ROEFilter struct {
	Min float64 // zero means 10
}

func (ROEFilter) Name() string        { return "roe" }
func (ROEFilter) Description() string { return "Minimum Return on Equity" }
func (ROEFilter) Category() string    { return contracts.CategoryQuality }

func (f ROEFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 10)
	value := r.ROE.Float()
	passed := value >= min

	reason := fmt.Sprintf("ROE %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("ROE %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// FCFYieldFilter requires a minimum free cash flow yield in percent.
type FCFYieldFilter struct {
	Min float64 // zero means 3
}

func (FCFYieldFilter) Name() string        { return "fcf_yield" }
func (FCFYieldFilter) Description() string { return "Minimum Free Cash Flow Yield" }
func (FCFYieldFilter) Category() string    { return contracts.CategoryQuality }

func (f FCFYieldFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 3)
	value := r.FCFYield.Float()
	passed := value >= min

	reason := fmt.Sprintf("FCF Yield %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("FCF Yield %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// AltmanZFilter requires a minimum Altman Z-Score.
type AltmanZFilter struct {
	Min float64 // zero means 2.99
}

func (AltmanZFilter) Name() string        { return "altman_z" }
func (AltmanZFilter) Description() string { return "Minimum Altman Z-Score (bankruptcy safety)" }
func (AltmanZFilter) Category() string    { return contracts.CategoryQuality }

func (f AltmanZFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 2.99)
	value := r.AltmanZ.Float()
	passed := value >= min

	reason := fmt.Sprintf("Altman Z %.2f < %g (risk zone)", value, min)
	if passed {
		reason = fmt.Sprintf("Altman Z %.2f >= %g (safe zone)", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// ROICFilter requires a minimum return on invested capital in percent.
type ROICFilter struct {
	Min float64 // zero means 10
}

func (ROICFilter) Name() string        { return "roic" }
func (ROICFilter) Description() string { return "Minimum Return on Invested Capital" }
func (ROICFilter) Category() string    { return contracts.CategoryQuality }

func (f ROICFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 10)
	value := r.ROIC.Float()
	passed := value >= min

	reason := fmt.Sprintf("ROIC %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("ROIC %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// OperatingMarginFilter requires a minimum operating margin in percent.
type OperatingMarginFilter struct {
	Min float64 // zero means 10
}

func (OperatingMarginFilter) Name() string        { return "operating_margin" }
func (OperatingMarginFilter) Description() string { return "Minimum Operating Margin" }
func (OperatingMarginFilter) Category() string    { return contracts.CategoryQuality }

func (f OperatingMarginFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 10)
	value := r.OperatingMargin.Float()
	passed := value >= min

	reason := fmt.Sprintf("Op Margin %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("Op Margin %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// DividendYieldFilter requires a minimum dividend yield in percent.
type DividendYieldFilter struct {
	Min float64 // zero means 2
}

func (DividendYieldFilter) Name() string        { return "dividend_yield" }
func (DividendYieldFilter) Description() string { return "Minimum Dividend Yield" }
func (DividendYieldFilter) Category() string    { return contracts.CategoryDividend }

func (f DividendYieldFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 2)
	value := r.DividendYield.Float()
	passed := value >= min

	reason := fmt.Sprintf("Div Yield %.2f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("Div Yield %.2f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// PayoutRatioFilter requires a maximum payout ratio in percent.
type PayoutRatioFilter struct {
	Max float64 // zero means 70
}

func (PayoutRatioFilter) Name() string        { return "payout_ratio" }
func (PayoutRatioFilter) Description() string { return "Maximum Payout Ratio" }
func (PayoutRatioFilter) Category() string    { return contracts.CategoryDividend }

func (f PayoutRatioFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	max := orDefault(f.Max, 70)
	value := r.PayoutRatio.Float()
	passed := value <= max

	reason := fmt.Sprintf("Payout %.1f%% > %g%% (unsustainable)", value, max)
	if passed {
		reason = fmt.Sprintf("Payout %.1f%% <= %g%%", value, max)
	}
	return verdict(f, passed, reason, value, max)
}

// DividendGrowthFilter requires a minimum dividend growth rate in percent.
type DividendGrowthFilter struct {
	Min float64 // zero means 3
}

func (DividendGrowthFilter) Name() string        { return "dividend_growth" }
func (DividendGrowthFilter) Description() string { return "Minimum Dividend Growth Rate" }
func (DividendGrowthFilter) Category() string    { return contracts.CategoryDividend }

func (f DividendGrowthFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 3)
	value := r.DividendGrowthRate.Float()
	passed := value >= min

	reason := fmt.Sprintf("Div Growth %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("Div Growth %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// NewsSentimentFilter requires a minimum aggregate news sentiment score
// in [-1, 1].
type NewsSentimentFilter struct {
	Min float64 // zero means -0.2
}

func (NewsSentimentFilter) Name() string        { return "news_sentiment" }
func (NewsSentimentFilter) Description() string { return "Minimum News Sentiment Score" }
func (NewsSentimentFilter) Category() string    { return contracts.CategorySentiment }

func (f NewsSentimentFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, -0.2)
	value := r.NewsSentiment
	passed := value >= min

	reason := fmt.Sprintf("News Sentiment %+.2f < %+.2f (too negative)", value, min)
	if passed {
		reason = fmt.Sprintf("News Sentiment %+.2f >= %+.2f", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// InsiderSentimentFilter passes or fails on the insider sentiment label.
// The zero value passes bullish and neutral and excludes bearish.
type InsiderSentimentFilter struct {
	RequireBullish bool
	ExcludeNeutral bool
}

func (InsiderSentimentFilter) Name() string        { return "insider_sentiment" }
func (InsiderSentimentFilter) Description() string { return "Insider Trading Sentiment" }
func (InsiderSentimentFilter) Category() string    { return contracts.CategorySentiment }

func (f InsiderSentimentFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	sentiment := r.InsiderSentiment

	var passed bool
	reason := "Insider sentiment: " + sentiment
	switch {
	case f.RequireBullish:
		passed = sentiment == contracts.InsiderBullish
		if !passed {
			reason += " (bullish required)"
		}
	case !f.ExcludeNeutral:
		passed = sentiment == contracts.InsiderBullish || sentiment == contracts.InsiderNeutral
		if !passed {
			reason += " (bearish excluded)"
		}
	default:
		passed = sentiment == contracts.InsiderBullish
	}
	return verdict(f, passed, reason, 0, 0)
}

// GrowthRateFilter requires a minimum growth rate in percent. Earnings
// growth by default; UseRevenue switches to revenue growth.
type GrowthRateFilter struct {
	Min        float64 // zero means 10
	UseRevenue bool
}

func (GrowthRateFilter) Name() string        { return "growth_rate" }
func (GrowthRateFilter) Description() string { return "Minimum Growth Rate" }
func (GrowthRateFilter) Category() string    { return contracts.CategoryMomentum }

func (f GrowthRateFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 10)

	value := r.EarningsGrowth.Float()
	label := "Earnings"
	if f.UseRevenue {
		value = r.RevenueGrowth.Float()
		label = "Revenue"
	}
	passed := value >= min

	reason := fmt.Sprintf("%s Growth %.1f%% < %g%%", label, value, min)
	if passed {
		reason = fmt.Sprintf("%s Growth %.1f%% >= %g%%", label, value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// RuleOf40Filter requires growth plus operating margin above a minimum.
type RuleOf40Filter struct {
	Min float64 // zero means 30
}

func (RuleOf40Filter) Name() string        { return "rule_of_40" }
func (RuleOf40Filter) Description() string { return "Rule of 40 (Growth + Margin >= 40)" }
func (RuleOf40Filter) Category() string    { return contracts.CategoryQuality }

func (f RuleOf40Filter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 30)
	value := r.EarningsGrowth.Float() + r.OperatingMargin.Float()
	passed := value >= min

	reason := fmt.Sprintf("Rule of 40: %.1f < %g", value, min)
	if passed {
		reason = fmt.Sprintf("Rule of 40: %.1f >= %g", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// CAGRFilter requires a minimum 3-year price CAGR in percent.
type CAGRFilter struct {
	Min float64 // zero means 5
}

func (CAGRFilter) Name() string        { return "cagr" }
func (CAGRFilter) Description() string { return "Minimum 3-Year CAGR" }
func (CAGRFilter) Category() string    { return contracts.CategoryMomentum }

func (f CAGRFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	min := orDefault(f.Min, 5)
	value := r.CAGR3Y.Float()
	passed := value >= min

	reason := fmt.Sprintf("3Y CAGR %.1f%% < %g%%", value, min)
	if passed {
		reason = fmt.Sprintf("3Y CAGR %.1f%% >= %g%%", value, min)
	}
	return verdict(f, passed, reason, value, min)
}

// PriceVs52WeekFilter bounds how far below the 52-week high the price
// may sit, in percent.
type PriceVs52WeekFilter struct {
	MaxFromHigh float64 // zero means 30
}

func (PriceVs52WeekFilter) Name() string        { return "price_vs_52w" }
func (PriceVs52WeekFilter) Description() string { return "Price vs 52-Week Range" }
func (PriceVs52WeekFilter) Category() string    { return contracts.CategoryMomentum }

func (f PriceVs52WeekFilter) Apply(r *contracts.ScreeningResult) contracts.FilterResult {
	max := orDefault(f.MaxFromHigh, 30)
	value := r.PriceVs52WHigh.Float()
	passed := value <= max

	reason := fmt.Sprintf("Price %.1f%% below 52w high > %g%%", value, max)
	if passed {
		reason = fmt.Sprintf("Price %.1f%% below 52w high <= %g%%", value, max)
	}
	return verdict(f, passed, reason, value, max)
}
