package valuation

import (
	"fmt"
	"math"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// OwnerEarnings applies Buffett's owner earnings: net income plus
// depreciation less maintenance capex and the working capital change,
// capitalized with and without growth. Missing statement items are
// estimated from revenue.
type OwnerEarnings struct {
	// MaintenanceCapexPct overrides the share of capex treated as
	// maintenance (fraction). Zero means 0.7, or 0.07 of revenue when
	// capex is unreported.
	MaintenanceCapexPct float64
	// CostOfCapital overrides the stock's assumption when non-zero (percent).
	CostOfCapital float64
}

const (
	defaultDepreciationPct = 0.05
	defaultCapexPct        = 0.07
	defaultNWCChangePct    = 0.01
)

func (OwnerEarnings) Name() string { return "owner_earnings" }

func (o OwnerEarnings) Value(s *contracts.Stock) contracts.ValuationResult {
	var missing []string
	netIncome := needMetric(&missing, "net_income", s.NetIncome)
	shares := needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	if len(missing) > 0 {
		return missingResult(o.Name(), s, missing)
	}

	depreciation := s.Depreciation.Float()
	capex := s.Capex.Float()
	nwc := s.NetWorkingCapital.Float()

	revenue := s.Revenue.Float()
	if revenue <= 0 {
		revenue = netIncome * 10
	}

	var warnings []string
	if depreciation == 0 {
		depreciation = revenue * defaultDepreciationPct
		warnings = append(warnings, fmt.Sprintf("Depreciation estimated at %.0f%% of revenue", defaultDepreciationPct*100))
	}

	var maintenanceCapex float64
	if capex == 0 {
		pctOfRevenue := override(o.MaintenanceCapexPct, defaultCapexPct)
		maintenanceCapex = revenue * pctOfRevenue
		warnings = append(warnings, fmt.Sprintf("Maintenance capex estimated at %.0f%% of revenue", pctOfRevenue*100))
	} else {
		maintenanceCapex = abs(capex) * override(o.MaintenanceCapexPct, 0.7)
	}

	var nwcChange float64
	if nwc != 0 {
		nwcChange = abs(nwc) * 0.1
		warnings = append(warnings, "Using 10% of NWC as proxy for change in working capital")
	} else {
		nwcChange = revenue * defaultNWCChangePct
	}

	ownerEarnings := netIncome + depreciation - maintenanceCapex - nwcChange
	if ownerEarnings <= 0 {
		return errorResult(o.Name(), s,
			fmt.Sprintf("Owner Earnings is negative (%.2fB) - company may be value destructive", ownerEarnings/1e9), nil)
	}

	perShare := ownerEarnings / shares
	costOfCapital := override(o.CostOfCapital, s.CostOfCapital) / 100

	zeroGrowth := perShare / costOfCapital
	growth := s.GrowthRate.Float() / 100
	withGrowth := zeroGrowth * 1.5
	if costOfCapital > growth {
		withGrowth = perShare * (1 + growth) / (costOfCapital - growth)
	}
	fair := (zeroGrowth + withGrowth) / 2

	earningsQuality := 0.0
	if netIncome != 0 {
		earningsQuality = ownerEarnings / netIncome
	}
	impliedPE := price / perShare

	low := perShare * 0.9 / (costOfCapital + 0.02)
	high := perShare * 1.1 / math.Max(0.01, costOfCapital-0.02)

	analysis := []string{
		fmt.Sprintf("Owner earnings: %.2fB (vs net income %.2fB)", ownerEarnings/1e9, netIncome/1e9),
		fmt.Sprintf("Owner earnings/share: %.2f", perShare),
		fmt.Sprintf("Earnings quality: %.0f%%", earningsQuality*100),
		fmt.Sprintf("Implied P/E on owner earnings: %.1fx", impliedPE),
		fmt.Sprintf("Zero-growth value: %.2f", zeroGrowth),
		fmt.Sprintf("With %.1f%% growth: %.2f", growth*100, withGrowth),
	}
	if earningsQuality < 0.7 {
		analysis = append(analysis, "Warning: low earnings quality - reported earnings may not reflect cash reality")
	} else if earningsQuality > 1.3 {
		analysis = append(analysis, "Note: high earnings quality - strong cash conversion")
	}
	analysis = noteWarnings(analysis, warnings)

	confidence := contracts.ConfidenceLow
	switch {
	case earningsQuality > 0.8 && len(warnings) == 0:
		confidence = contracts.ConfidenceHigh
	case earningsQuality > 0.6:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          o.Name(),
		FairValue:       round2(fair),
		CurrentPrice:    price,
		PremiumDiscount: round1(premiumVsPrice(fair, price)),
		Assessment:      assess(fair, price),
		Confidence:      confidence,
		Details: map[string]float64{
			"owner_earnings":           ownerEarnings,
			"owner_earnings_per_share": round2(perShare),
			"earnings_quality":         round2(earningsQuality),
			"implied_pe":               round1(impliedPE),
			"zero_growth_value":        round2(zeroGrowth),
			"growth_value":             round2(withGrowth),
			"depreciation_used":        depreciation,
			"maintenance_capex":        maintenanceCapex,
			"nwc_change":               nwcChange,
		},
		Analysis:       analysis,
		FairValueRange: valueRange(low, fair, high),
		Applicable:     true,
	}
}

// AltmanZScore computes the original public-manufacturer Z-score
// Z = 1.2 X1 + 1.4 X2 + 3.3 X3 + 0.6 X4 + 1.0 X5. It is a distress
// screen, so the fair value is pinned to the market price.
type AltmanZScore struct {
	ZoneSafe     float64 // zero means 2.99
	ZoneDistress float64 // zero means 1.81
}

func (AltmanZScore) Name() string { return "altman_z" }

func (a AltmanZScore) Value(s *contracts.Stock) contracts.ValuationResult {
	zoneSafe := override(a.ZoneSafe, 2.99)
	zoneDistress := override(a.ZoneDistress, 1.81)

	var missing []string
	totalAssets := needPositiveMetric(&missing, "total_assets", s.TotalAssets)
	totalLiabilities := needMetric(&missing, "total_liabilities", s.TotalLiabilities)
	price := needPositive(&missing, "current_price", s.CurrentPrice)
	needPositive(&missing, "shares_outstanding", s.SharesOutstanding)
	if len(missing) > 0 {
		return missingResult(a.Name(), s, missing)
	}

	var warnings []string
	if totalLiabilities <= 0 {
		totalLiabilities = totalAssets * 0.5
		warnings = append(warnings, fmt.Sprintf("Total liabilities estimated at 50%% of assets: %.2fB", totalLiabilities/1e9))
	}

	nwc := s.NetWorkingCapital.Float()
	if nwc == 0 && s.CurrentAssets.Float() > 0 {
		nwc = s.CurrentAssets.Value - totalLiabilities*0.3
		warnings = append(warnings, "Working capital estimated from current assets")
	}
	x1 := nwc / totalAssets

	retainedEarnings := s.RetainedEarnings.Float()
	if retainedEarnings == 0 {
		retainedEarnings = (totalAssets - totalLiabilities) * 0.3
		warnings = append(warnings, "Retained earnings estimated at 30% of equity")
	}
	x2 := retainedEarnings / totalAssets

	ebit := s.EBIT.Float()
	if ebit == 0 {
		switch {
		case s.OperatingMargin.Float() > 0 && s.Revenue.Float() > 0:
			ebit = s.Revenue.Value * s.OperatingMargin.Value / 100
			warnings = append(warnings, "EBIT estimated from operating margin")
		case s.NetIncome.Float() > 0:
			ebit = s.NetIncome.Value * 1.3
			warnings = append(warnings, "EBIT estimated from net income")
		}
	}
	x3 := ebit / totalAssets

	x4 := s.MarketCap() / totalLiabilities

	revenue := s.Revenue.Float()
	if revenue == 0 {
		if s.NetIncome.Float() > 0 {
			revenue = s.NetIncome.Value * 10
		} else {
			revenue = totalAssets * 0.8
		}
		warnings = append(warnings, "Revenue estimated from net income")
	}
	x5 := revenue / totalAssets

	z := 1.2*x1 + 1.4*x2 + 3.3*x3 + 0.6*x4 + 1.0*x5

	var zone, assessment, riskLevel string
	switch {
	case z >= zoneSafe:
		zone = "Safe Zone"
		assessment = "Low Bankruptcy Risk"
		riskLevel = "Low"
	case z >= zoneDistress:
		zone = "Grey Zone"
		assessment = "Moderate Bankruptcy Risk"
		riskLevel = "Moderate"
	default:
		zone = "Distress Zone"
		assessment = "High Bankruptcy Risk"
		riskLevel = "High"
	}

	analysis := []string{
		fmt.Sprintf("Z-Score: %.2f (%s)", z, zone),
		fmt.Sprintf("Safe zone: >%.2f | grey zone: %.2f-%.2f | distress: <%.2f", zoneSafe, zoneDistress, zoneSafe, zoneDistress),
		"Risk level: " + riskLevel,
		fmt.Sprintf("X1 (WC/assets): %.3f, X2 (RE/assets): %.3f, X3 (EBIT/assets): %.3f", x1, x2, x3),
		fmt.Sprintf("X4 (mcap/liabilities): %.3f, X5 (revenue/assets): %.3f", x4, x5),
	}
	switch {
	case z < 1.0:
		analysis = append(analysis, "CRITICAL: extremely high distress - avoid or investigate deeply")
	case z < zoneDistress:
		analysis = append(analysis, "WARNING: company shows significant financial stress")
	case z < zoneSafe:
		analysis = append(analysis, "CAUTION: company in grey zone - monitor closely")
	}
	analysis = noteWarnings(analysis, warnings)

	confidence := contracts.ConfidenceLow
	switch {
	case len(warnings) == 0:
		confidence = contracts.ConfidenceHigh
	case len(warnings) <= 2:
		confidence = contracts.ConfidenceMedium
	}

	return contracts.ValuationResult{
		Method:          a.Name(),
		FairValue:       price,
		CurrentPrice:    price,
		PremiumDiscount: 0,
		Assessment:      assessment,
		Confidence:      confidence,
		Details: map[string]float64{
			"z_score":                round2(z),
			"x1_working_capital":      round2(x1),
			"x2_retained_earnings":    round2(x2),
			"x3_ebit":                 round2(x3),
			"x4_market_cap_to_liab":   round2(x4),
			"x5_asset_turnover":       round2(x5),
			"safe_zone_threshold":     zoneSafe,
			"distress_zone_threshold": zoneDistress,
		},
		Analysis:   analysis,
		Applicable: true,
	}
}
