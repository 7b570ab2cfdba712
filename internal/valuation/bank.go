package valuation

import (
	"fmt"
	"math"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// PBValuation derives a justified price-to-book multiple from the
// ROE / cost-of-equity spread. Suited to banks and insurers where book
// value drives earnings.
type PBValuation struct {
	CostOfEquity      float64 // percent, zero means 10
	SustainableGrowth float64 // percent, zero means 2
}

func (PBValuation) Name() string { return "pb" }

func (p PBValuation) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	bvps := needPositiveMetric(&missing, "bvps", s.BVPS)
	roePct := needMetric(&missing, "roe", s.ROE)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(p.Name(), s, missing)
	}

	roe := roePct / 100
	coe := override(p.CostOfEquity, 10) / 100
	g := override(p.SustainableGrowth, 2) / 100

	currentPB := price / bvps

	if coe <= g {
		return errorResult(p.Name(), s,
			fmt.Sprintf("Cost of equity (%.1f%%) must exceed growth rate (%.1f%%)", coe*100, g*100), nil)
	}

	var fairPB, fair float64
	var analysisText string
	applicable := true
	if roe <= g {
		analysisText = "ROE <= growth: company destroys value, P/B should be below book"
		applicable = false
	} else {
		fairPB = (roe - g) / (coe - g)
		fair = bvps * fairPB
		analysisText = fmt.Sprintf("Fair P/B of %.2fx implies ROE of %.1f%% justifies premium to book", fairPB, roe*100)
	}

	if fairPB <= 0 {
		analysisText = fmt.Sprintf("ROE (%.1f%%) below cost of equity (%.1f%%) - value destructive", roe*100, coe*100)
		if roe > 0 {
			fairPB = math.Max(0, (roe-g)/(coe-g))
		}
		fair = bvps * fairPB
	}

	premium := -100.0
	if fair > 0 {
		premium = premiumVsPrice(fair, price)
	}

	low := 0.0
	if roe > 0.02 {
		low = bvps * math.Max(0, (roe-0.02-g)/(coe+0.02-g))
	}
	high := bvps
	if roe+0.02 > g {
		high = bvps * (roe + 0.02 - g) / (coe - 0.02 - g)
	}

	analysis := []string{
		fmt.Sprintf("Current P/B: %.2fx vs fair P/B: %.2fx", currentPB, fairPB),
		analysisText,
		fmt.Sprintf("ROE: %.1f%%, cost of equity: %.1f%%, growth: %.1f%%", roe*100, coe*100, g*100),
	}
	if currentPB < fairPB*0.8 {
		analysis = append(analysis, "Potentially undervalued - trading at significant discount to fair P/B")
	} else if currentPB > fairPB*1.2 {
		analysis = append(analysis, "Potentially overvalued - trading at premium to justified P/B")
	}

	confidence := contracts.ConfidenceLow
	switch {
	case roe > coe:
		confidence = contracts.ConfidenceHigh
	case roe > coe*0.8:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          p.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premium),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"current_pb":         round2(currentPB),
			"fair_pb":            round2(fairPB),
			"roe":                roe * 100,
			"cost_of_equity":     coe * 100,
			"sustainable_growth": g * 100,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     applicable,
	}
}

// ResidualIncome values the stock as book value plus the present value
// of earnings above the cost of equity, with ROE decaying to a terminal
// level after the explicit horizon.
type ResidualIncome struct {
	CostOfEquity float64 // percent, zero means 10
	Years        int     // zero means 10
	TerminalROE  float64 // percent, zero means 8
	PayoutRatio  float64 // fraction, zero means 0.6
}

func (ResidualIncome) Name() string { return "residual_income" }

func (ri ResidualIncome) Value(s *contracts.Stock) contracts.ValuationResult {
	coe := override(ri.CostOfEquity, 10) / 100
	years := ri.Years
	if years == 0 {
		years = 10
	}
	terminalROE := override(ri.TerminalROE, 8) / 100
	payout := override(ri.PayoutRatio, 0.6)

	var missing []string
	bvps := needPositiveMetric(&missing, "bvps", s.BVPS)
	roePct := needMetric(&missing, "roe", s.ROE)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(ri.Name(), s, missing)
	}

	roe := roePct / 100
	retention := 1 - payout
	sustainableGrowth := roe * retention

	totalRI, endBook := residualIncomePV(bvps, roe, coe, sustainableGrowth, years)

	terminalResidual := endBook * (terminalROE - coe)
	terminalValue := 0.0
	terminalAnalysis := fmt.Sprintf("Terminal ROE (%.1f%%) <= COE (%.1f%%) - no terminal value", terminalROE*100, coe*100)
	if terminalResidual > 0 {
		terminalValue = terminalResidual / (coe * math.Pow(1+coe, float64(years)))
		terminalAnalysis = fmt.Sprintf("Terminal value based on ROE converging to %.1f%%", terminalROE*100)
	}

	fair := bvps + totalRI + terminalValue

	low := ri.sensitivity(bvps, roe-0.02, coe+0.02, years, terminalROE, payout)
	high := ri.sensitivity(bvps, roe+0.02, coe-0.02, years, terminalROE, payout)

	analysis := []string{
		fmt.Sprintf("Book value: %.2f", bvps),
		fmt.Sprintf("PV of residual income (years 1-%d): %.2f", years, totalRI),
		fmt.Sprintf("PV of terminal value: %.2f", terminalValue),
		terminalAnalysis,
	}
	if roe < coe {
		analysis = append(analysis, fmt.Sprintf("Warning: current ROE (%.1f%%) < cost of equity (%.1f%%) - value destructive", roe*100, coe*100))
	}
	if terminalROE < coe {
		analysis = append(analysis, "Terminal ROE below COE - assuming ROE decays to cost of capital")
	}
	if fair > 0 {
		bookPct := bvps / fair * 100
		if bookPct > 80 {
			analysis = append(analysis, fmt.Sprintf("Most value (%.0f%%) from book value - limited earnings power", bookPct))
		}
	}

	confidence := contracts.ConfidenceLow
	switch {
	case roe > coe && terminalROE >= coe*0.9:
		confidence = contracts.ConfidenceHigh
	case roe > coe*0.8:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          ri.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"years":              float64(years),
			"terminal_roe":       terminalROE * 100,
			"sustainable_growth": sustainableGrowth * 100,
			"book_value":         bvps,
			"residual_income_pv": totalRI,
			"terminal_value_pv":  terminalValue,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     roe > 0,
	}
}

func (ri ResidualIncome) sensitivity(bvps, roe, coe float64, years int, terminalROE, payout float64) float64 {
	retention := 1 - payout
	totalRI, endBook := residualIncomePV(bvps, roe, coe, roe*retention, years)
	terminalResidual := endBook * (terminalROE - coe)
	terminalValue := 0.0
	if terminalResidual > 0 {
		terminalValue = terminalResidual / (coe * math.Pow(1+coe, float64(years)))
	}
	return bvps + totalRI + terminalValue
}

// residualIncomePV discounts the excess of ROE over the cost of equity
// on a book value compounding at the sustainable growth rate.
func residualIncomePV(bvps, roe, coe, growth float64, years int) (totalPV, endBook float64) {
	book := bvps
	for year := 1; year <= years; year++ {
		residual := book * (roe - coe)
		totalPV += residual / math.Pow(1+coe, float64(year))
		book *= 1 + growth
	}
	return totalPV, book
}

// BankHealthIndicator is one scored supervisory ratio.
type BankHealthIndicator struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Rating string  `json:"rating"`
	Score  float64 `json:"score"`
}

// BankHealth aggregates supervisory ratios into a 0-12 score.
type BankHealth struct {
	Indicators []BankHealthIndicator `json:"indicators"`
	TotalScore float64               `json:"total_score"`
	MaxScore   float64               `json:"max_score"`
	ScorePct   float64               `json:"score_pct"`
	Overall    string                `json:"overall_rating"`
}

// AnalyzeBankHealth scores a bank on NPL ratio, provision coverage,
// capital adequacy and ROE. Inputs are percentages.
func AnalyzeBankHealth(nplRatio, provisionCoverage, capitalAdequacy, roe float64) BankHealth {
	var h BankHealth
	add := func(name string, value float64, rating string, score float64) {
		h.Indicators = append(h.Indicators, BankHealthIndicator{Name: name, Value: value, Rating: rating, Score: score})
		h.TotalScore += score
	}

	switch {
	case nplRatio < 1.0:
		add("NPL Ratio", nplRatio, "Excellent", 3)
	case nplRatio < 1.5:
		add("NPL Ratio", nplRatio, "Good", 2.5)
	case nplRatio < 2.0:
		add("NPL Ratio", nplRatio, "Acceptable", 2)
	case nplRatio < 3.0:
		add("NPL Ratio", nplRatio, "Concern", 1)
	default:
		add("NPL Ratio", nplRatio, "High Risk", 0)
	}

	switch {
	case provisionCoverage > 250:
		add("Provision Coverage", provisionCoverage, "Excellent", 3)
	case provisionCoverage > 200:
		add("Provision Coverage", provisionCoverage, "Good", 2.5)
	case provisionCoverage > 150:
		add("Provision Coverage", provisionCoverage, "Acceptable", 2)
	case provisionCoverage > 100:
		add("Provision Coverage", provisionCoverage, "Low", 1)
	default:
		add("Provision Coverage", provisionCoverage, "Insufficient", 0)
	}

	switch {
	case capitalAdequacy > 16:
		add("Capital Adequacy", capitalAdequacy, "Excellent", 3)
	case capitalAdequacy > 14:
		add("Capital Adequacy", capitalAdequacy, "Good", 2.5)
	case capitalAdequacy > 12:
		add("Capital Adequacy", capitalAdequacy, "Acceptable", 2)
	case capitalAdequacy > 10.5:
		add("Capital Adequacy", capitalAdequacy, "Adequate", 1)
	default:
		add("Capital Adequacy", capitalAdequacy, "Below Minimum", 0)
	}

	switch {
	case roe > 15:
		add("ROE", roe, "Excellent", 3)
	case roe > 12:
		add("ROE", roe, "Good", 2.5)
	case roe > 10:
		add("ROE", roe, "Acceptable", 2)
	case roe > 8:
		add("ROE", roe, "Below Average", 1)
	default:
		add("ROE", roe, "Poor", 0.5)
	}

	h.MaxScore = 12
	h.ScorePct = h.TotalScore / h.MaxScore * 100
	switch {
	case h.TotalScore >= 10:
		h.Overall = "Excellent"
	case h.TotalScore >= 8:
		h.Overall = "Good"
	case h.TotalScore >= 6:
		h.Overall = "Average"
	case h.TotalScore >= 4:
		h.Overall = "Below Average"
	default:
		h.Overall = "Concern"
	}
	return h
}
