// Package insider aggregates insider transaction records into a
// buy/sell summary and a sentiment label for the screening pipeline.
package insider

import (
	"github.com/valueinvest/valueinvest/internal/contracts"
)

// Summary aggregates insider trading activity over a period.
type Summary struct {
	Ticker     string `json:"ticker"`
	PeriodDays int    `json:"period_days"`

	TotalTrades int `json:"total_trades"`
	BuyCount    int `json:"buy_count"`
	SellCount   int `json:"sell_count"`
	OtherCount  int `json:"other_count"`

	BuyShares  float64 `json:"buy_shares"`
	SellShares float64 `json:"sell_shares"`
	NetShares  float64 `json:"net_shares"`

	BuyValue  float64 `json:"buy_value"`
	SellValue float64 `json:"sell_value"`
	NetValue  float64 `json:"net_value"`

	UniqueInsiders   int `json:"unique_insiders"`
	KeyInsiderTrades int `json:"key_insider_trades"`

	// Sentiment is bullish when insiders were net buyers by value,
	// bearish when net sellers, neutral otherwise.
	Sentiment string `json:"sentiment"`
}

// BuyRatio returns buy value as a fraction of total traded value.
func (s *Summary) BuyRatio() float64 {
	total := s.BuyValue + s.SellValue
	if total == 0 {
		return 0
	}
	return s.BuyValue / total
}

// HasActivity reports whether any trades were recorded.
func (s *Summary) HasActivity() bool {
	return s.TotalTrades > 0
}

// Summarize aggregates trades for one ticker.
func Summarize(ticker string, trades []contracts.InsiderTrade, periodDays int) Summary {
	s := Summary{
		Ticker:      ticker,
		PeriodDays:  periodDays,
		TotalTrades: len(trades),
		Sentiment:   contracts.InsiderNeutral,
	}

	insiders := make(map[string]struct{})
	for i := range trades {
		t := &trades[i]
		insiders[t.Insider] = struct{}{}
		if t.IsKeyInsider() {
			s.KeyInsiderTrades++
		}

		switch {
		case t.IsBuy():
			s.BuyCount++
			s.BuyShares += t.Shares
			s.BuyValue += t.Value
		case t.IsSell():
			s.SellCount++
			s.SellShares += t.Shares
			s.SellValue += t.Value
		default:
			s.OtherCount++
		}
	}

	s.UniqueInsiders = len(insiders)
	s.NetShares = s.BuyShares - s.SellShares
	s.NetValue = s.BuyValue - s.SellValue

	switch {
	case s.NetValue > 0:
		s.Sentiment = contracts.InsiderBullish
	case s.NetValue < 0:
		s.Sentiment = contracts.InsiderBearish
	}

	return s
}
