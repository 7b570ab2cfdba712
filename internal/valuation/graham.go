package valuation

import (
	"fmt"
	"math"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// GrahamNumber values defensive stocks as the square root of
// 22.5 x EPS x BVPS, the product implied by P/E <= 15 and P/B <= 1.5.
type GrahamNumber struct{}

func (GrahamNumber) Name() string { return "graham_number" }

func (g GrahamNumber) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	eps := needPositiveMetric(&missing, "eps", s.EPS)
	bvps := needPositiveMetric(&missing, "bvps", s.BVPS)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(g.Name(), s, missing)
	}

	fair := math.Sqrt(22.5 * eps * bvps)
	low := math.Sqrt(20.0 * eps * bvps)
	high := math.Sqrt(25.0 * eps * bvps)

	return contracts.ValuationResult{
		Method:          g.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      contracts.ConfidenceHigh,
		Details: map[string]float64{
			"eps":        eps,
			"bvps":       bvps,
			"multiplier": 22.5,
		},
		Analysis: []string{
			"Defensive investor formula, P/E x P/B capped at 22.5",
			fmt.Sprintf("Conservative range: %.2f - %.2f", low, high),
		},
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

// GrahamFormula applies Graham's revised growth formula
// V = EPS x (8.5 + 2g) x 4.4 / Y with the growth rate clamped to
// Graham's original bounds.
type GrahamFormula struct{}

const (
	grahamMinGrowth = 0.0
	grahamMaxGrowth = 20.0
)

func (GrahamFormula) Name() string { return "graham_formula" }

func (g GrahamFormula) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	eps := needPositiveMetric(&missing, "eps", s.EPS)
	aaaYield := needPositive(&missing, "aaa_corporate_yield", s.AAACorporateYield)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(g.Name(), s, missing)
	}

	growth := s.GrowthRate.Float()
	original := growth
	var warnings []string
	if growth < grahamMinGrowth {
		growth = grahamMinGrowth
		warnings = append(warnings, fmt.Sprintf("Growth rate %.1f%% capped to %.0f%% (minimum)", original, grahamMinGrowth))
	} else if growth > grahamMaxGrowth {
		growth = grahamMaxGrowth
		warnings = append(warnings, fmt.Sprintf("Growth rate %.1f%% capped to %.0f%% (Graham's max)", original, grahamMaxGrowth))
	}

	basePE := 8.5 + 2*growth
	fair := eps * basePE * 4.4 / aaaYield
	low := eps * (8.5 + 2*math.Max(growth-5, 0)) * 4.4 / aaaYield
	high := eps * (8.5 + 2*math.Min(growth+5, grahamMaxGrowth)) * 4.4 / aaaYield

	confidence := contracts.ConfidenceHigh
	if original != growth {
		confidence = contracts.ConfidenceMedium
	}

	analysis := []string{
		"Graham formula: V = (EPS x (8.5 + 2g) x 4.4) / Y",
		fmt.Sprintf("Growth rate used: %.1f%% (original: %.1f%%)", growth, original),
		fmt.Sprintf("Base P/E equivalent: %.1fx", basePE),
	}
	analysis = noteWarnings(analysis, warnings)

	return contracts.ValuationResult{
		Method:          g.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"growth_rate":     growth,
			"original_growth": original,
			"aaa_yield":       aaaYield,
			"base_pe":         basePE,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

// NCAV values the stock on net current asset value, Graham's net-net
// screen for deep value. The fair value is NCAV per share; the
// conservative entry point is two thirds of it.
type NCAV struct {
	// PreferredStock is subtracted from NCAV when the balance sheet
	// carries a preferred layer. Usually zero for A-shares.
	PreferredStock float64
	// SafetyMargin scales NCAV into a buy target. Zero means 0.67.
	SafetyMargin float64
}

func (NCAV) Name() string { return "ncav" }

func (n NCAV) Value(s *contracts.Stock) contracts.ValuationResult {
	margin := n.SafetyMargin
	if margin == 0 {
		margin = 0.67
	}

	var missing []string
	currentAssets := needPositiveMetric(&missing, "current_assets", s.CurrentAssets)
	totalLiabilities := needMetric(&missing, "total_liabilities", s.TotalLiabilities)
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(n.Name(), s, missing)
	}

	ncavTotal := currentAssets - totalLiabilities - n.PreferredStock
	perShare := ncavTotal / shares
	buyTarget := perShare * margin
	liquidating := (currentAssets*0.85 - totalLiabilities - n.PreferredStock) / shares

	var analysis []string
	switch {
	case ncavTotal <= 0:
		analysis = append(analysis,
			"NCAV is negative - company may have solvency concerns",
			"Not a Net-Net candidate")
	case price < buyTarget:
		analysis = append(analysis,
			fmt.Sprintf("Net-Net opportunity: price below %.0f%% of NCAV", margin*100),
			fmt.Sprintf("Buy target: %.2f (2/3 of NCAV)", buyTarget))
	case price < perShare:
		analysis = append(analysis,
			fmt.Sprintf("Below full NCAV but above %.0f%% safety margin", margin*100),
			fmt.Sprintf("Margin of safety: %.1f%%", (perShare-price)/perShare*100))
	default:
		analysis = append(analysis,
			"Price above NCAV - not a cigar butt opportunity",
			fmt.Sprintf("Premium to NCAV: %.1f%%", (price-perShare)/perShare*100))
	}

	return contracts.ValuationResult{
		Method:          n.Name(),
		FairValue:       round2(perShare),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(perShare, price)),
		Assessment:      assess(perShare, price),
		Confidence:      contracts.ConfidenceMedium,
		Details: map[string]float64{
			"current_assets":    currentAssets,
			"total_liabilities": totalLiabilities,
			"preferred_stock":   n.PreferredStock,
			"ncav_total":        ncavTotal,
			"buy_target":        round2(buyTarget),
			"liquidating_value": round2(liquidating),
		},
		Analysis:       analysis,
		FairValueRange: valueRange(liquidating, perShare, perShare),
		Applicable:     ncavTotal > 0,
	}
}
