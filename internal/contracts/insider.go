package contracts

import (
	"strings"
	"time"
)

// TradeType classifies an insider transaction.
type TradeType string

const (
	TradeBuy      TradeType = "buy"
	TradeSell     TradeType = "sell"
	TradeGrant    TradeType = "grant"
	TradeExercise TradeType = "exercise"
	TradeGift     TradeType = "gift"
	TradeOther    TradeType = "other"
)

// Insider sentiment labels.
const (
	InsiderBullish = "bullish"
	InsiderBearish = "bearish"
	InsiderNeutral = "neutral"
)

// InsiderTrade is one reported insider transaction.
type InsiderTrade struct {
	Ticker  string    `json:"ticker"`
	Insider string    `json:"insider"`
	Title   string    `json:"title"`
	Type    TradeType `json:"type"`
	Shares  float64   `json:"shares"`
	Price   float64   `json:"price"`
	Value   float64   `json:"value"`
	Date    time.Time `json:"date"`
}

// IsBuy reports whether the trade is an open-market purchase.
func (t *InsiderTrade) IsBuy() bool {
	return t.Type == TradeBuy
}

// IsSell reports whether the trade is a sale.
func (t *InsiderTrade) IsSell() bool {
	return t.Type == TradeSell
}

// IsKeyInsider reports whether the insider holds a top executive title.
func (t *InsiderTrade) IsKeyInsider() bool {
	title := strings.ToLower(t.Title)
	for _, key := range []string{"ceo", "cfo", "chairman", "chief executive", "chief financial"} {
		if strings.Contains(title, key) {
			return true
		}
	}
	return false
}
