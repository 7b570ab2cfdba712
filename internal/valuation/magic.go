package valuation

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// MagicFormula ranks on Greenblatt's pair of earnings yield (EBIT/EV)
// and return on capital (EBIT / invested capital), and prices the stock
// at the enterprise value a required earnings yield would justify.
type MagicFormula struct {
	RequiredEY   float64 // percent, zero means 10
	BenchmarkROC float64 // percent, zero means 25
}

func (MagicFormula) Name() string { return "magic_formula" }

func (m MagicFormula) Value(s *contracts.Stock) contracts.ValuationResult {
	requiredEY := override(m.RequiredEY, 10)
	benchmarkROC := override(m.BenchmarkROC, 25)

	var missing []string
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if s.MarketCap() < minPositive {
		missing = append(missing, "market_cap")
	}
	if len(missing) > 0 {
		return missingResult(m.Name(), s, missing)
	}

	ebit := s.EBIT.Float()
	if ebit <= 0 && s.OperatingMargin.Float() > 0 && s.Revenue.Float() > 0 {
		ebit = s.Revenue.Value * s.OperatingMargin.Value / 100
	}
	if ebit <= 0 {
		return errorResult(m.Name(), s,
			"EBIT must be positive (either directly provided or calculable from revenue x operating margin)",
			[]string{"ebit"})
	}

	netDebt := s.NetDebt.Float()
	ev := s.EnterpriseValue()
	if ev <= 0 {
		return errorResult(m.Name(), s, "Enterprise Value must be positive", []string{"enterprise_value"})
	}

	investedCapital := s.NetFixedAssets.Float() + s.NetWorkingCapital.Float()
	if investedCapital <= 0 && !(s.NetFixedAssets.Float() > 0 && s.NetWorkingCapital.Float() >= 0) {
		return errorResult(m.Name(), s,
			fmt.Sprintf("Invalid invested capital: NFA (%.2fB) + NWC (%.2fB) = %.2fB",
				s.NetFixedAssets.Float()/1e9, s.NetWorkingCapital.Float()/1e9, investedCapital/1e9),
			[]string{"net_fixed_assets", "net_working_capital"})
	}

	earningsYield := ebit / ev * 100
	returnOnCapital := 0.0
	if investedCapital > 0 {
		returnOnCapital = ebit / investedCapital * 100
	}

	fairEV := ebit / (requiredEY / 100)
	fairEquity := fairEV - netDebt
	if fairEquity <= 0 {
		return contracts.ValuationResult{
			Method:       m.Name(),
			CurrentPrice: price,
			Assessment:   "N/A - Fair price calculation failed",
			Confidence:   contracts.ConfidenceLow,
			Details: map[string]float64{
				"earnings_yield":    round2(earningsYield),
				"return_on_capital": round2(returnOnCapital),
			},
			Analysis: []string{
				fmt.Sprintf("Earnings yield: %.1f%%", earningsYield),
				fmt.Sprintf("Return on capital: %.1f%%", returnOnCapital),
				"Cannot calculate fair price - net debt exceeds fair enterprise value",
			},
		}
	}
	fair := fairEquity / shares

	eyPass := earningsYield >= requiredEY
	rocPass := investedCapital > 0 && returnOnCapital >= benchmarkROC

	var quality, qualityAnalysis string
	switch {
	case eyPass && rocPass:
		quality = "High Quality & Cheap"
		qualityAnalysis = "Passes both criteria - potential Magic Formula candidate"
	case eyPass:
		quality = "Cheap but Average Quality"
		qualityAnalysis = fmt.Sprintf("Good earnings yield but ROC (%.1f%%) below benchmark", returnOnCapital)
	case rocPass:
		quality = "Good Quality but Expensive"
		qualityAnalysis = fmt.Sprintf("Good ROC but earnings yield (%.1f%%) below requirement", earningsYield)
	default:
		quality = "Below Thresholds"
		qualityAnalysis = "Below both EY and ROC thresholds - not a Magic Formula candidate"
	}

	low := (ebit/(requiredEY/100+0.03) - netDebt) / shares
	if low < 0 {
		low = 0
	}
	high := (ebit/(requiredEY/100-0.03) - netDebt) / shares

	analysis := []string{
		fmt.Sprintf("Earnings yield (EBIT/EV): %.1f%% (required: %.0f%%) - %s", earningsYield, requiredEY, passFail(eyPass)),
		fmt.Sprintf("Return on capital: %.1f%% (benchmark: %.0f%%) - %s", returnOnCapital, benchmarkROC, passFail(rocPass)),
		"Quality assessment: " + quality,
		qualityAnalysis,
	}
	if investedCapital > 0 && returnOnCapital > 50 {
		analysis = append(analysis, fmt.Sprintf("Note: very high ROC (%.0f%%) - verify capital base", returnOnCapital))
	}
	if earningsYield > 15 {
		analysis = append(analysis, fmt.Sprintf("Note: very high EY (%.0f%%) - check for earnings quality issues", earningsYield))
	}

	confidence := contracts.ConfidenceLow
	switch {
	case eyPass && rocPass:
		confidence = contracts.ConfidenceHigh
	case eyPass || rocPass:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          m.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"earnings_yield":    round2(earningsYield),
			"return_on_capital": round2(returnOnCapital),
			"ebit":              ebit,
			"enterprise_value":  ev,
			"invested_capital":  investedCapital,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     investedCapital > 0,
	}
}

func passFail(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
