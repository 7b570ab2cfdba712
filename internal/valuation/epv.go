package valuation

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// EPV computes Greenwald's earnings power value: distributable cash flow
// capitalized at the cost of capital with no growth assumed. The spread
// between price and EPV is the growth the market is paying for.
type EPV struct {
	// MaintenanceCapexPct is the share of reported capex treated as
	// maintenance. Zero means 0.7.
	MaintenanceCapexPct float64
	// CostOfCapital overrides the stock's assumption when non-zero (percent).
	CostOfCapital float64
}

const defaultMaintenanceCapexPct = 0.7

func (EPV) Name() string { return "epv" }

func (e EPV) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	revenue := needPositiveMetric(&missing, "revenue", s.Revenue)
	operatingMargin := needMetric(&missing, "operating_margin", s.OperatingMargin) / 100
	taxRate := needMetric(&missing, "tax_rate", s.TaxRate)
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(e.Name(), s, missing)
	}

	depreciation := s.Depreciation.Float()
	capex := s.Capex.Float()
	netDebt := s.NetDebt.Float()
	costOfCapital := override(e.CostOfCapital, s.CostOfCapital) / 100

	maintenancePct := e.MaintenanceCapexPct
	if maintenancePct == 0 {
		maintenancePct = defaultMaintenanceCapexPct
	}
	var warnings []string
	if maintenancePct != defaultMaintenanceCapexPct {
		warnings = append(warnings, fmt.Sprintf("Using custom maintenance capex %%: %.0f%%", maintenancePct*100))
	}

	if operatingMargin <= 0 {
		return errorResult(e.Name(), s, fmt.Sprintf("Operating margin must be positive (got %.1f%%)", operatingMargin*100), nil)
	}
	if costOfCapital <= 0 {
		return errorResult(e.Name(), s, fmt.Sprintf("Cost of capital must be positive (got %.1f%%)", costOfCapital*100), nil)
	}

	ebit := revenue * operatingMargin
	nopat := ebit * (1 - taxRate)

	maintenanceCapex := 0.0
	if capex != 0 {
		maintenanceCapex = abs(capex) * maintenancePct
	}
	// Greenwald adds back only the tax shield half of depreciation and
	// charges no working capital under the constant-size assumption.
	excessDepreciation := depreciation * 0.5 * taxRate

	distributable := nopat - maintenanceCapex + excessDepreciation
	if distributable <= 0 {
		return errorResult(e.Name(), s, fmt.Sprintf("Distributable cash flow is negative (%.2fB)", distributable/1e9), nil)
	}

	epvOperating := distributable / costOfCapital
	equityValue := epvOperating - netDebt
	fair := equityValue / shares

	impliedPE := 0.0
	if nopat > 0 {
		impliedPE = fair / (nopat / shares)
	}
	growthPricedIn := 0.0
	if fair > 0 {
		growthPricedIn = (price/fair - 1) * 100
	}

	low := epvSensitivity(revenue, operatingMargin*0.95, taxRate, depreciation, abs(capex), maintenancePct+0.1, costOfCapital+0.01, shares, netDebt)
	high := epvSensitivity(revenue, operatingMargin*1.05, taxRate, depreciation, abs(capex), maintenancePct-0.1, costOfCapital-0.01, shares, netDebt)

	analysis := []string{
		"Value assuming zero future growth",
		fmt.Sprintf("Market prices in %.1f%% growth above this floor", growthPricedIn),
		fmt.Sprintf("Implied P/E at EPV: %.1fx", impliedPE),
	}
	if growthPricedIn > 50 {
		analysis = append(analysis, fmt.Sprintf("High growth expectations (%.0f%%) - verify sustainability", growthPricedIn))
	} else if growthPricedIn < 0 {
		analysis = append(analysis, "Trading below zero-growth value - potential value opportunity")
	}
	analysis = noteWarnings(analysis, warnings)

	confidence := contracts.ConfidenceLow
	switch {
	case growthPricedIn > 0 && growthPricedIn < 30:
		confidence = contracts.ConfidenceHigh
	case growthPricedIn > 0 && growthPricedIn < 50:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          e.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"implied_pe":            round2(impliedPE),
			"growth_priced_in":      round1(growthPricedIn),
			"maintenance_capex_pct": maintenancePct * 100,
			"ebit":                  ebit,
			"nopat":                 nopat,
			"distributable_cf":      distributable,
			"epv_operating":         epvOperating,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

func epvSensitivity(revenue, operatingMargin, taxRate, depreciation, capex, maintenancePct, costOfCapital, shares, netDebt float64) float64 {
	if operatingMargin <= 0 || costOfCapital <= 0 {
		return 0
	}
	nopat := revenue * operatingMargin * (1 - taxRate)
	distributable := nopat - capex*maintenancePct + depreciation*0.5*taxRate
	if distributable <= 0 {
		return 0
	}
	return (distributable/costOfCapital - netDebt) / shares
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
