package contracts

import (
	"math"
	"time"
)

// TradingDaysPerYear is the annualization convention used throughout.
const TradingDaysPerYear = 252

// PricePoint is one daily adjusted close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceHistory is a daily adjusted close series, oldest first.
type PriceHistory struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of points.
func (h *PriceHistory) Len() int {
	return len(h.Points)
}

// Last returns the most recent close, or 0 when empty.
func (h *PriceHistory) Last() float64 {
	if len(h.Points) == 0 {
		return 0
	}
	return h.Points[len(h.Points)-1].Close
}

// CAGR returns the annualized growth rate in percent over the whole
// series, treating 252 points as one year.
func (h *PriceHistory) CAGR() Metric {
	n := len(h.Points)
	if n < 2 {
		return Metric{}
	}

	start := h.Points[0].Close
	end := h.Points[n-1].Close
	if start <= 0 || end <= 0 {
		return Metric{}
	}

	years := float64(n) / TradingDaysPerYear
	if years <= 0 {
		return Metric{}
	}

	cagr := (math.Pow(end/start, 1/years) - 1) * 100
	return EstimatedMetric(cagr)
}

// TailCAGR returns the CAGR over the trailing n points.
func (h *PriceHistory) TailCAGR(n int) Metric {
	if n <= 1 || len(h.Points) < n {
		return h.CAGR()
	}
	tail := &PriceHistory{Ticker: h.Ticker, Points: h.Points[len(h.Points)-n:]}
	return tail.CAGR()
}

// Volatility returns the annualized daily-return volatility in percent.
func (h *PriceHistory) Volatility() Metric {
	n := len(h.Points)
	if n < 2 {
		return Metric{}
	}

	returns := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		prev := h.Points[i-1].Close
		if prev <= 0 {
			continue
		}
		returns = append(returns, h.Points[i].Close/prev-1)
	}
	if len(returns) < 2 {
		return Metric{}
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	return EstimatedMetric(math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear) * 100)
}

// MaxDrawdown returns the worst peak-to-trough decline in percent
// (a negative number).
func (h *PriceHistory) MaxDrawdown() Metric {
	if len(h.Points) < 2 {
		return Metric{}
	}

	peak := h.Points[0].Close
	worst := 0.0
	for _, p := range h.Points {
		if p.Close > peak {
			peak = p.Close
		}
		if peak > 0 {
			dd := (p.Close - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}
	return EstimatedMetric(worst)
}

// FiftyTwoWeekStats summarizes the trailing 252-day window.
type FiftyTwoWeekStats struct {
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	PctBelowHigh float64 `json:"pct_below_high"`
	PctAboveLow  float64 `json:"pct_above_low"`
}

// FiftyTwoWeek computes high/low position over the trailing year.
func (h *PriceHistory) FiftyTwoWeek() (FiftyTwoWeekStats, bool) {
	n := len(h.Points)
	if n == 0 {
		return FiftyTwoWeekStats{}, false
	}

	window := h.Points
	if n > TradingDaysPerYear {
		window = h.Points[n-TradingDaysPerYear:]
	}

	high := window[0].Close
	low := window[0].Close
	for _, p := range window {
		if p.Close > high {
			high = p.Close
		}
		if p.Close < low {
			low = p.Close
		}
	}

	price := h.Last()
	stats := FiftyTwoWeekStats{High: high, Low: low}
	if high > 0 {
		stats.PctBelowHigh = (high - price) / high * 100
	}
	if low > 0 {
		stats.PctAboveLow = (price - low) / low * 100
	}
	return stats, true
}
