package valuation

import (
	"fmt"
	"math"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// DDM is the Gordon growth dividend discount model.
type DDM struct {
	// RequiredReturn overrides the stock's cost of capital when non-zero (percent).
	RequiredReturn float64
}

const ddmMaxGrowth = 15.0

func (DDM) Name() string { return "ddm" }

func (d DDM) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	dividend := needPositiveMetric(&missing, "dividend_per_share", s.DividendPerShare)
	growthPct := needMetric(&missing, "dividend_growth_rate", s.DividendGrowthRate)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(d.Name(), s, missing)
	}

	g := growthPct / 100
	r := override(d.RequiredReturn, s.CostOfCapital) / 100

	if g >= r {
		return errorResult(d.Name(), s,
			fmt.Sprintf("Growth rate (%.1f%%) must be less than required return (%.1f%%)", g*100, r*100), nil)
	}

	var warnings []string
	if g > ddmMaxGrowth/100 {
		warnings = append(warnings, fmt.Sprintf("High dividend growth (%.1f%%) - sustainability uncertain", g*100))
	}

	nextDividend := dividend * (1 + g)
	fair := nextDividend / (r - g)

	currentYield := dividend / price * 100
	fairYield := 0.0
	if fair > 0 {
		fairYield = nextDividend / fair * 100
	}

	lowDenom := r + 0.02 - math.Max(g-0.02, 0)
	low := 0.0
	if lowDenom > 0 {
		low = nextDividend / lowDenom
	}
	high := fair * 1.5
	if r-0.02 > g {
		high = nextDividend / (r - 0.02 - g)
	}

	analysis := []string{
		fmt.Sprintf("P = D1 / (r - g) = %.2f / (%.1f%% - %.1f%%)", nextDividend, r*100, g*100),
		fmt.Sprintf("Current yield: %.2f%%", currentYield),
		fmt.Sprintf("Fair yield: %.2f%%", fairYield),
	}

	payout := s.PayoutRatio().Float()
	if payout > 80 {
		analysis = append(analysis, fmt.Sprintf("Warning: high payout ratio (%.0f%%) - dividend growth may be limited", payout))
	}
	if currentYield > fairYield*1.5 {
		analysis = append(analysis, "Current yield well above fair yield - potential undervaluation or dividend cut risk")
	}
	analysis = noteWarnings(analysis, warnings)

	confidence := contracts.ConfidenceLow
	switch {
	case g > 0 && g < 0.08 && payout < 70:
		confidence = contracts.ConfidenceHigh
	case g < 0.12:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          d.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"dividend":        dividend,
			"next_dividend":   nextDividend,
			"growth_rate":     g * 100,
			"required_return": r * 100,
			"current_yield":   currentYield,
			"fair_yield":      fairYield,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

// TwoStageDDM discounts an explicit dividend growth stage followed by a
// perpetual terminal stage.
type TwoStageDDM struct {
	GrowthStage1   float64 // percent, zero means 5
	Stage1Years    int     // zero means 5
	GrowthStage2   float64 // percent, zero means 2
	RequiredReturn float64 // percent, zero means the stock's cost of capital
}

func (TwoStageDDM) Name() string { return "two_stage_ddm" }

func (d TwoStageDDM) Value(s *contracts.Stock) contracts.ValuationResult {
	g1 := override(d.GrowthStage1, 5) / 100
	g2 := override(d.GrowthStage2, 2) / 100
	years := d.Stage1Years
	if years == 0 {
		years = 5
	}

	var missing []string
	dividend := needPositiveMetric(&missing, "dividend_per_share", s.DividendPerShare)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(d.Name(), s, missing)
	}

	r := override(d.RequiredReturn, s.CostOfCapital) / 100
	if r <= g2 {
		return errorResult(d.Name(), s,
			fmt.Sprintf("Required return (%.1f%%) must exceed terminal growth (%.1f%%)", r*100, g2*100), nil)
	}

	var warnings []string
	if g1 > 0.15 {
		warnings = append(warnings, fmt.Sprintf("High stage 1 growth (%.1f%%) - verify sustainability", g1*100))
	}

	pvDividends, pvTerminal := twoStageDDMValue(dividend, g1, g2, r, years)
	fair := pvDividends + pvTerminal

	low := twoStageDDMTotal(dividend, g1-0.02, g2-0.01, r+0.02, years)
	high := twoStageDDMTotal(dividend, g1+0.02, g2+0.01, r-0.02, years)

	terminalPct := 0.0
	if fair > 0 {
		terminalPct = pvTerminal / fair * 100
	}

	analysis := []string{
		fmt.Sprintf("Stage 1: %.1f%% growth for %d years", g1*100, years),
		fmt.Sprintf("Stage 2: %.1f%% perpetual growth", g2*100),
		fmt.Sprintf("PV of stage 1 dividends: %.2f", pvDividends),
		fmt.Sprintf("PV of terminal value: %.2f (%.0f%% of total)", pvTerminal, terminalPct),
	}
	if terminalPct > 70 {
		analysis = append(analysis, "Warning: high terminal value share - sensitive to terminal growth assumption")
	}
	analysis = noteWarnings(analysis, warnings)

	confidence := contracts.ConfidenceLow
	switch {
	case terminalPct < 60:
		confidence = contracts.ConfidenceHigh
	case terminalPct < 75:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          d.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"stage1_growth":      g1 * 100,
			"stage1_years":       float64(years),
			"stage2_growth":      g2 * 100,
			"terminal_value_pct": terminalPct,
			"pv_dividends":       pvDividends,
			"pv_terminal":        pvTerminal,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

func twoStageDDMValue(dividend, g1, g2, r float64, years int) (pvDividends, pvTerminal float64) {
	d := dividend
	for year := 1; year <= years; year++ {
		d *= 1 + g1
		pvDividends += d / math.Pow(1+r, float64(year))
	}
	terminal := d * (1 + g2) / (r - g2)
	pvTerminal = terminal / math.Pow(1+r, float64(years))
	return pvDividends, pvTerminal
}

func twoStageDDMTotal(dividend, g1, g2, r float64, years int) float64 {
	if r <= g2 || g1 <= -1 {
		return 0
	}
	pvDividends, pvTerminal := twoStageDDMValue(dividend, g1, g2, r, years)
	return pvDividends + pvTerminal
}
