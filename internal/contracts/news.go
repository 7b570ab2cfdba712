package contracts

import "time"

// NewsItem is one headline fetched for a ticker.
type NewsItem struct {
	Ticker      string    `json:"ticker"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)
