package valuation

import (
	"fmt"
	"math"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// DCF is a two-stage ten-year discounted cash flow model with a Gordon
// terminal value. Zero-valued overrides fall back to the stock's own
// assumptions.
type DCF struct {
	Growth1to5     float64 // percent
	Growth6to10    float64 // percent
	TerminalGrowth float64 // percent
	DiscountRate   float64 // percent
}

func (DCF) Name() string { return "dcf" }

func (d DCF) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	fcf := needMetric(&missing, "fcf", s.FCF)
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(d.Name(), s, missing)
	}
	if fcf <= 0 {
		return errorResult(d.Name(), s, "Free Cash Flow must be positive for DCF", []string{"fcf"})
	}

	netDebt := s.NetDebt.Float()
	g1 := override(d.Growth1to5, s.GrowthRate1to5) / 100
	g2 := override(d.Growth6to10, s.GrowthRate6to10) / 100
	gTerm := override(d.TerminalGrowth, s.TerminalGrowth) / 100
	r := override(d.DiscountRate, s.DiscountRate) / 100

	if r <= gTerm {
		return errorResult(d.Name(), s,
			fmt.Sprintf("Discount rate (%.1f%%) must be greater than terminal growth (%.1f%%)", r*100, gTerm*100), nil)
	}

	pvFCF, pvTerminal := projectDCF(fcf, g1, g2, gTerm, r)
	enterpriseValue := pvFCF + pvTerminal
	equityValue := enterpriseValue - netDebt
	fair := equityValue / shares

	low := dcfSensitivity(fcf, shares, netDebt, g1-0.02, g2-0.01, gTerm-0.005, r+0.02)
	high := dcfSensitivity(fcf, shares, netDebt, g1+0.02, g2+0.01, gTerm+0.005, r-0.02)

	tvPct := 0.0
	if enterpriseValue > 0 {
		tvPct = pvTerminal / enterpriseValue * 100
	}

	analysis := []string{
		"10-year DCF with terminal value",
		fmt.Sprintf("Terminal value represents %.1f%% of total value", tvPct),
	}
	if tvPct > 60 {
		analysis = append(analysis, "Warning: terminal value is >60% of total - sensitive to growth assumptions")
	}

	confidence := contracts.ConfidenceLow
	switch {
	case tvPct < 50:
		confidence = contracts.ConfidenceHigh
	case tvPct < 70:
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
			"growth_1_5":         g1 * 100,
			"growth_6_10":        g2 * 100,
			"terminal_growth":    gTerm * 100,
			"discount_rate":      r * 100,
			"terminal_value_pct": tvPct,
			"pv_fcf":             pvFCF,
			"pv_terminal":        pvTerminal,
			"enterprise_value":   enterpriseValue,
			"equity_value":       equityValue,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

// projectDCF discounts ten years of cash flows plus a terminal value,
// growing at g1 for years 1-5 and g2 for years 6-10.
func projectDCF(fcf, g1, g2, gTerm, r float64) (pvFCF, pvTerminal float64) {
	projected := fcf
	for year := 1; year <= 10; year++ {
		if year <= 5 {
			projected *= 1 + g1
		} else {
			projected *= 1 + g2
		}
		pvFCF += projected / math.Pow(1+r, float64(year))
	}
	terminal := projected * (1 + gTerm) / (r - gTerm)
	pvTerminal = terminal / math.Pow(1+r, 10)
	return pvFCF, pvTerminal
}

func dcfSensitivity(fcf, shares, netDebt, g1, g2, gTerm, r float64) float64 {
	if r <= gTerm || g1 < 0 || fcf <= 0 {
		return 0
	}
	pvFCF, pvTerminal := projectDCF(fcf, g1, g2, gTerm, r)
	return (pvFCF + pvTerminal - netDebt) / shares
}

func override(v, fallback float64) float64 {
	if v != 0 {
		return v
	}
	return fallback
}

// ReverseDCF solves for the five-year growth rate the market price
// implies, assuming years 6-10 grow at half that rate. The fair value is
// the current price by construction; the payload is the implied growth.
type ReverseDCF struct{}

const (
	reverseDCFMaxIterations = 200
	reverseDCFGrowthMin     = -10.0
	reverseDCFGrowthMax     = 100.0
	reverseDCFTolerance     = 0.001
)

func (ReverseDCF) Name() string { return "reverse_dcf" }

func (d ReverseDCF) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	fcf := needMetric(&missing, "fcf", s.FCF)
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(d.Name(), s, missing)
	}
	if fcf <= 0 {
		return errorResult(d.Name(), s, "Free Cash Flow must be positive", []string{"fcf"})
	}

	netDebt := s.NetDebt.Float()
	gTerm := s.TerminalGrowth / 100
	r := s.DiscountRate / 100
	if r <= gTerm {
		return errorResult(d.Name(), s, "Discount rate must exceed terminal growth", nil)
	}

	targetEquity := price * shares
	targetEV := targetEquity + netDebt

	low, high := reverseDCFGrowthMin, reverseDCFGrowthMax
	mid := 0.0
	converged := false
	iterations := 0

	for i := 0; i < reverseDCFMaxIterations; i++ {
		iterations = i + 1
		mid = (low + high) / 2
		g1 := mid / 100
		g2 := g1 * 0.5

		impliedEV := impliedEnterpriseValue(fcf, g1, g2, gTerm, r)
		if impliedEV <= 0 {
			low = mid
			continue
		}
		if math.Abs(impliedEV-targetEV)/targetEV < reverseDCFTolerance {
			converged = true
			break
		}
		if impliedEV < targetEV {
			low = mid
		} else {
			high = mid
		}
		if high-low < 0.01 {
			converged = true
			break
		}
	}

	analysis := []string{
		fmt.Sprintf("Market prices in %.1f%% annual growth for years 1-5", mid),
		fmt.Sprintf("Years 6-10 growth implied at %.1f%%", mid*0.5),
	}
	switch {
	case !converged:
		analysis = append(analysis, fmt.Sprintf("Warning: calculation did not fully converge after %d iterations", reverseDCFMaxIterations))
	case mid < 0:
		analysis = append(analysis, "Market expects negative growth - potential value trap or distressed situation")
	case mid > 30:
		analysis = append(analysis, fmt.Sprintf("High implied growth (%.1f%%) - verify if sustainable", mid))
	case mid < 5:
		analysis = append(analysis, fmt.Sprintf("Low implied growth (%.1f%%) - mature or declining business expected", mid))
	}

	confidence := contracts.ConfidenceLow
	switch {
	case converged && mid >= 0 && mid <= 30:
		confidence = contracts.ConfidenceHigh
	case converged:
		confidence = contracts.ConfidenceMedium
	}

	var rng *contracts.FairValueRange
	if converged {
		rng = valueRange(
			priceAtGrowth(fcf, shares, netDebt, math.Max(mid-5, 0)/100, gTerm, r),
			price,
			priceAtGrowth(fcf, shares, netDebt, math.Min(mid+5, 50)/100, gTerm, r),
		)
	}

	return contracts.ValuationResult{
		Method:          d.Name(),
		FairValue:       price,
		CurrentPrice:    price,
		PremiumDiscount: 0,
		Assessment:      "Priced in growth",
		Confidence:      confidence,
		Details: map[string]float64{
			"implied_growth_1_5":  round1(mid),
			"implied_growth_6_10": round1(mid * 0.5),
			"converged":           boolFloat(converged),
			"iterations":          float64(iterations),
			"target_ev":           targetEV,
		},
		Analysis:       analysis,
		FairValueRange: rng,
		Applicable:     converged,
	}
}

func impliedEnterpriseValue(fcf, g1, g2, gTerm, r float64) float64 {
	projected := fcf
	totalPV := 0.0
	for year := 1; year <= 10; year++ {
		if year <= 5 {
			projected *= 1 + g1
		} else {
			projected *= 1 + g2
		}
		if projected <= 0 {
			return 0
		}
		totalPV += projected / math.Pow(1+r, float64(year))
	}
	terminal := projected * (1 + gTerm) / (r - gTerm)
	return totalPV + terminal/math.Pow(1+r, 10)
}

func priceAtGrowth(fcf, shares, netDebt, g1, gTerm, r float64) float64 {
	impliedEV := impliedEnterpriseValue(fcf, g1, g1*0.5, gTerm, r)
	equity := impliedEV - netDebt
	if equity <= 0 {
		return 0
	}
	return equity / shares
}
