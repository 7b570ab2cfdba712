package valuation

import (
	"fmt"
	"math"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// PEG prices the stock off its P/E to growth ratio. Fair value assumes a
// target PEG of 1.0 unless configured otherwise.
type PEG struct {
	// FairPEG is the PEG treated as fairly valued. Zero means 1.0.
	FairPEG float64
}

const (
	pegMinGrowth = 5.0
	pegMaxGrowth = 50.0
)

func (PEG) Name() string { return "peg" }

func (p PEG) Value(s *contracts.Stock) contracts.ValuationResult {
	fairPEG := p.FairPEG
	if fairPEG == 0 {
		fairPEG = 1.0
	}

	var missing []string
	eps := needPositiveMetric(&missing, "eps", s.EPS)
	growth := needMetric(&missing, "growth_rate", s.GrowthRate)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(p.Name(), s, missing)
	}
	if growth <= 0 {
		return errorResult(p.Name(), s, fmt.Sprintf("Growth rate must be positive (got %.1f%%)", growth), nil)
	}

	var warnings []string
	if growth < pegMinGrowth {
		warnings = append(warnings, fmt.Sprintf("Low growth (%.1f%%) - PEG less reliable", growth))
	} else if growth > pegMaxGrowth {
		warnings = append(warnings, fmt.Sprintf("High growth (%.1f%%) - sustainability uncertain", growth))
	}

	pe := price / eps
	peg := pe / growth
	fairPE := growth * fairPEG
	fair := eps * fairPE

	var assessment, pegAnalysis string
	switch {
	case peg < 1.0:
		assessment = "Undervalued"
		pegAnalysis = "PEG < 1.0 suggests undervaluation"
	case peg < 1.5:
		assessment = "Fair"
		pegAnalysis = "PEG 1.0-1.5 suggests fair value"
	case peg < 2.0:
		assessment = "Slightly Overvalued"
		pegAnalysis = "PEG 1.5-2.0 suggests mild overvaluation"
	default:
		assessment = "Overvalued"
		pegAnalysis = "PEG > 2.0 suggests overvaluation"
	}

	analysis := []string{
		fmt.Sprintf("PEG: %.2f (P/E %.1f / growth %.1f%%)", peg, pe, growth),
		pegAnalysis,
		fmt.Sprintf("Fair P/E at PEG=%.1f: %.1fx", fairPEG, fairPE),
	}
	analysis = noteWarnings(analysis, warnings)

	confidence := contracts.ConfidenceLow
	switch {
	case growth >= 5 && growth <= 25:
		confidence = contracts.ConfidenceHigh
	case growth <= 40:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          p.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assessment,
		Confidence:      confidence,
		Details: map[string]float64{
			"peg_ratio":   round2(peg),
			"pe_ratio":    round2(pe),
			"growth_rate": growth,
			"fair_peg":    fairPEG,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(eps*growth*0.8, fair, eps*growth*1.2),
		Applicable:     growth >= pegMinGrowth && growth <= pegMaxGrowth,
	}
}

// GARP projects EPS forward, applies a target exit P/E, and discounts
// the resulting price back at the required return.
type GARP struct {
	TargetPE       float64 // zero means 18
	Years          int     // zero means 5
	RequiredReturn float64 // percent, zero means 12
}

func (GARP) Name() string { return "garp" }

func (g GARP) Value(s *contracts.Stock) contracts.ValuationResult {
	targetPE := override(g.TargetPE, 18)
	years := g.Years
	if years == 0 {
		years = 5
	}
	r := override(g.RequiredReturn, 12) / 100

	var missing []string
	eps := needPositiveMetric(&missing, "eps", s.EPS)
	growthPct := needMetric(&missing, "growth_rate", s.GrowthRate)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(g.Name(), s, missing)
	}

	gr := growthPct / 100
	if gr <= 0 {
		return errorResult(g.Name(), s, "Growth rate must be positive for GARP", nil)
	}

	futureEPS := eps * math.Pow(1+gr, float64(years))
	futurePrice := futureEPS * targetPE
	fair := futurePrice / math.Pow(1+r, float64(years))

	impliedPE := price / eps
	impliedPEG := impliedPE / growthPct

	low := eps * math.Pow(1+gr*0.8, float64(years)) * targetPE * 0.9 / math.Pow(1+r, float64(years))
	high := eps * math.Pow(1+gr*1.2, float64(years)) * targetPE * 1.1 / math.Pow(1+r, float64(years))

	analysis := []string{
		fmt.Sprintf("Projects EPS to %.2f in %d years at %.1f%% growth", futureEPS, years, gr*100),
		fmt.Sprintf("Target exit P/E %.0fx gives future price %.2f", targetPE, futurePrice),
		fmt.Sprintf("Present value at %.0f%% required return: %.2f", r*100, fair),
		fmt.Sprintf("Implied PEG: %.2f", impliedPEG),
	}

	upside := premiumVsPrice(fair, price)
	confidence := contracts.ConfidenceLow
	switch {
	case gr > 0 && gr <= 0.25 && upside > 15:
		confidence = contracts.ConfidenceHigh
	case upside > 0:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          g.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(upside),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"target_pe":       targetPE,
			"years":           float64(years),
			"required_return": r * 100,
			"future_eps":      round2(futureEPS),
			"future_price":    round2(futurePrice),
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

// RuleOf40 grades a company on revenue growth plus FCF margin. It is a
// health screen rather than a price target, so the fair value is pinned
// to the market price.
type RuleOf40 struct {
	// MinScore is the passing threshold. Zero means 40.
	MinScore float64
}

func (RuleOf40) Name() string { return "rule_of_40" }

func (r RuleOf40) Value(s *contracts.Stock) contracts.ValuationResult {
	minScore := override(r.MinScore, 40)

	var missing []string
	growth := needMetric(&missing, "growth_rate", s.GrowthRate)
	fcf := needMetric(&missing, "fcf", s.FCF)
	revenue := needPositiveMetric(&missing, "revenue", s.Revenue)
	if len(missing) > 0 {
		return missingResult(r.Name(), s, missing)
	}

	fcfMargin := fcf / revenue * 100
	score := growth + fcfMargin
	passes := score >= minScore

	var assessment, qualityAnalysis string
	switch {
	case score >= 50:
		assessment = "Excellent"
		qualityAnalysis = "Exceptional: growth + FCF margin > 50%"
	case score >= 40:
		assessment = "Healthy"
		qualityAnalysis = "Passes Rule of 40: sustainable growth profile"
	case score >= 30:
		assessment = "Acceptable"
		qualityAnalysis = "Near Rule of 40: monitor for improvement"
	case score >= 20:
		assessment = "Weak"
		qualityAnalysis = "Below Rule of 40: growth or profitability concerns"
	default:
		assessment = "Poor"
		qualityAnalysis = "Fails Rule of 40: significant issues"
	}

	analysis := []string{
		fmt.Sprintf("Score: %.1f = growth %.1f%% + FCF margin %.1f%%", score, growth, fcfMargin),
		qualityAnalysis,
	}
	if passes {
		analysis = append(analysis, fmt.Sprintf("Passes Rule of %.0f: yes", minScore))
	} else {
		analysis = append(analysis, fmt.Sprintf("Passes Rule of %.0f: no", minScore))
	}
	if growth > 50 && fcfMargin < 0 {
		analysis = append(analysis, "High growth but negative FCF - ensure path to profitability")
	} else if growth < 10 && fcfMargin > 30 {
		analysis = append(analysis, "Mature business with strong FCF - consider dividend/buyback potential")
	}

	confidence := contracts.ConfidenceMedium
	if fcf > 0 && growth > 0 {
		confidence = contracts.ConfidenceHigh
	}

	return contracts.ValuationResult{
		Method:          r.Name(),
		FairValue:       s.CurrentPrice,
		CurrentPrice:    s.CurrentPrice,
		PremiumDiscount: 0,
		Assessment:      assessment,
		Confidence:      confidence,
		Details: map[string]float64{
			"score":      round1(score),
			"growth":     growth,
			"fcf_margin": round1(fcfMargin),
			"passes":     boolFloat(passes),
		},
		Analysis:   analysis,
		Applicable: true,
	}
}
