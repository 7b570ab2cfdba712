package screener

import (
	"github.com/valueinvest/valueinvest/internal/contracts"
)

// ExtractFundamentals fills the valuation, quality, dividend, and growth
// metric fields of a screening result from the fundamentals snapshot and
// the valuation summary. Missing inputs degrade to missing metrics or
// neutral defaults, never errors.
func ExtractFundamentals(r *contracts.ScreeningResult, s *contracts.Stock, summary contracts.ValuationSummary) {
	r.Name = s.Name
	r.CurrentPrice = s.CurrentPrice
	r.MarketCap = s.MarketCap()

	r.FairValueMedian = summary.MedianValue
	r.FairValueAvg = summary.AverageValue
	r.MarginOfSafety = summary.AveragePremiumDiscount
	r.UndervaluedMethods = summary.UndervaluedCount
	r.TotalMethods = summary.TotalMethods

	r.PERatio = s.PE()
	r.PBRatio = s.PB()
	r.OperatingMargin = s.OperatingMargin

	// Reported ROE when positive, otherwise derived from per-share items.
	switch {
	case s.ROE.Float() > 0:
		r.ROE = s.ROE
	case s.EPS.Valid && s.BVPS.Positive():
		r.ROE = contracts.EstimatedMetric(s.EPS.Value / s.BVPS.Value * 100)
	}

	if s.FCF.Valid && r.MarketCap > 0 {
		r.FCFYield = contracts.EstimatedMetric(s.FCF.Value / r.MarketCap * 100)
	}

	r.AltmanZ = estimateAltmanZ(s)
	r.ROIC = estimateROIC(s)

	// Reported yield when positive, otherwise derived from the dividend.
	switch {
	case s.DividendYield.Float() > 0:
		r.DividendYield = s.DividendYield
	case s.DividendPerShare.Positive() && s.CurrentPrice > 0:
		r.DividendYield = contracts.EstimatedMetric(s.DividendPerShare.Value / s.CurrentPrice * 100)
	}
	r.PayoutRatio = s.PayoutRatio()
	r.DividendGrowthRate = s.DividendGrowthRate

	r.EarningsGrowth = s.GrowthRate
	r.RevenueGrowth = s.RevenueGrowth
	if pe := r.PERatio.Float(); pe > 0 && r.EarningsGrowth.Float() > 0 {
		r.PEGRatio = contracts.EstimatedMetric(pe / r.EarningsGrowth.Value)
	}
}

// ExtractMomentum fills CAGR and 52-week position from a price history.
// A nil or empty history leaves the momentum metrics missing.
func ExtractMomentum(r *contracts.ScreeningResult, h *contracts.PriceHistory) {
	if h == nil || h.Len() == 0 {
		return
	}

	r.CAGR3Y = h.CAGR()
	r.CAGR1Y = h.TailCAGR(contracts.TradingDaysPerYear)

	if stats, ok := h.FiftyTwoWeek(); ok {
		r.PriceVs52WHigh = contracts.EstimatedMetric(stats.PctBelowHigh)
		r.PriceVs52WLow = contracts.EstimatedMetric(stats.PctAboveLow)
	}
}

// estimateAltmanZ computes the five-factor Z-score with the same
// fallbacks the altman_z valuation method uses. Any fallback marks the
// output estimated; a missing balance sheet leaves it missing.
func estimateAltmanZ(s *contracts.Stock) contracts.Metric {
	totalAssets := s.TotalAssets.Float()
	if totalAssets <= 0 {
		return contracts.Metric{}
	}

	estimated := false
	totalLiabilities := s.TotalLiabilities.Float()
	if totalLiabilities <= 0 {
		totalLiabilities = totalAssets * 0.5
		estimated = true
	}

	nwc := s.NetWorkingCapital.Float()
	if nwc == 0 && s.CurrentAssets.Float() > 0 {
		nwc = s.CurrentAssets.Value - totalLiabilities*0.3
		estimated = true
	}

	retainedEarnings := s.RetainedEarnings.Float()
	if retainedEarnings == 0 {
		retainedEarnings = (totalAssets - totalLiabilities) * 0.3
		estimated = true
	}

	ebit := s.EBIT.Float()
	if ebit == 0 {
		estimated = true
		switch {
		case s.OperatingMargin.Float() > 0 && s.Revenue.Float() > 0:
			ebit = s.Revenue.Value * s.OperatingMargin.Value / 100
		case s.NetIncome.Float() > 0:
			ebit = s.NetIncome.Value * 1.3
		}
	}

	revenue := s.Revenue.Float()
	if revenue == 0 {
		estimated = true
		if s.NetIncome.Float() > 0 {
			revenue = s.NetIncome.Value * 10
		} else {
			revenue = totalAssets * 0.8
		}
	}

	z := 1.2*nwc/totalAssets +
		1.4*retainedEarnings/totalAssets +
		3.3*ebit/totalAssets +
		0.6*s.MarketCap()/totalLiabilities +
		1.0*revenue/totalAssets

	if estimated {
		return contracts.EstimatedMetric(z)
	}
	return contracts.MetricOf(z)
}

// estimateROIC approximates return on invested capital as net income
// over book equity plus net debt.
func estimateROIC(s *contracts.Stock) contracts.Metric {
	if !s.NetIncome.Valid {
		return contracts.Metric{}
	}

	investedCapital := s.BVPS.Float()*s.SharesOutstanding + s.NetDebt.Float()
	if investedCapital <= 0 {
		return contracts.Metric{}
	}
	return contracts.EstimatedMetric(s.NetIncome.Value / investedCapital * 100)
}
