package valuation

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// EVEBITDA compares the current EV/EBITDA multiple to a fair multiple
// and backs the implied equity value out per share.
type EVEBITDA struct {
	// FairMultiple is the EV/EBITDA treated as fairly valued. Zero
	// means 10, a long-run cross-sector median.
	FairMultiple float64
}

const defaultFairEVEBITDA = 10.0

func (EVEBITDA) Name() string { return "ev_ebitda" }

func (e EVEBITDA) Value(s *contracts.Stock) contracts.ValuationResult {
	fairMultiple := override(e.FairMultiple, defaultFairEVEBITDA)

	var missing []string
	ebitda := needMetric(&missing, "ebitda", s.EBITDA)
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(e.Name(), s, missing)
	}
	if ebitda <= 0 {
		return errorResult(e.Name(), s, "EBITDA must be positive", []string{"ebitda"})
	}

	netDebt := s.NetDebt.Float()
	ev := s.EnterpriseValue()
	currentMultiple := ev / ebitda

	fairEV := ebitda * fairMultiple
	fairEquity := fairEV - netDebt
	if fairEquity <= 0 {
		return errorResult(e.Name(), s, "Net debt exceeds fair enterprise value", nil)
	}
	fair := fairEquity / shares

	low := (ebitda*(fairMultiple-2) - netDebt) / shares
	high := (ebitda*(fairMultiple+2) - netDebt) / shares

	analysis := []string{
		fmt.Sprintf("Current EV/EBITDA: %.1fx vs fair %.1fx", currentMultiple, fairMultiple),
		fmt.Sprintf("Fair EV %.2fB less net debt %.2fB", fairEV/1e9, netDebt/1e9),
	}
	if currentMultiple > fairMultiple*1.5 {
		analysis = append(analysis, "Trading well above the fair multiple - growth expectations embedded")
	} else if currentMultiple < fairMultiple*0.7 {
		analysis = append(analysis, "Trading well below the fair multiple - check for structural reasons")
	}

	confidence := contracts.ConfidenceMedium
	if currentMultiple > 0 && currentMultiple < fairMultiple*2 {
		confidence = contracts.ConfidenceHigh
	}

	return contracts.ValuationResult{
		Method:          e.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"current_ev_ebitda":       round2(currentMultiple),
			"fair_ev_ebitda_multiple": fairMultiple,
			"ebitda":                  ebitda,
			"enterprise_value":        ev,
			"fair_enterprise_value":   fairEV,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}
