package sentiment

import (
	"math"
	"testing"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.5, "positive"},
		{0.31, "positive"},
		{0.2, "slightly_positive"},
		{0.05, "neutral"},
		{0, "neutral"},
		{-0.05, "neutral"},
		{-0.2, "slightly_negative"},
		{-0.5, "negative"},
	}

	for _, tt := range tests {
		if got := Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestAnalyzeItem(t *testing.T) {
	a := NewKeywordAnalyzer()

	tests := []struct {
		name       string
		title      string
		sentiment  string
		confidence float64
		impact     float64
	}{
		{"clear positive", "Record profit growth beats expectations", contracts.SentimentPositive, 0.9, 1},
		{"clear negative", "Company faces lawsuit and investigation over losses", contracts.SentimentNegative, 0.9, -1},
		{"no keywords", "Quarterly report published", contracts.SentimentNeutral, 0.3, 0},
		{"mixed signals", "Profit falls", contracts.SentimentNeutral, 0.4, 0},
	}

	for _, tt := range tests {
		out := a.AnalyzeItem(contracts.NewsItem{Title: tt.title})
		if out.Sentiment != tt.sentiment {
			t.Errorf("%s: sentiment = %q, want %q", tt.name, out.Sentiment, tt.sentiment)
		}
		if math.Abs(out.Confidence-tt.confidence) > 1e-9 {
			t.Errorf("%s: confidence = %v, want %v", tt.name, out.Confidence, tt.confidence)
		}
		if math.Abs(out.Impact-tt.impact) > 1e-9 {
			t.Errorf("%s: impact = %v, want %v", tt.name, out.Impact, tt.impact)
		}
	}
}

func TestAnalyzeItem_ChineseHeadline(t *testing.T) {
	a := NewKeywordAnalyzer()

	out := a.AnalyzeItem(contracts.NewsItem{Title: "公司营收增长超预期，宣布回购"})
	if out.Sentiment != contracts.SentimentPositive {
		t.Errorf("sentiment = %q, want positive", out.Sentiment)
	}

	out = a.AnalyzeItem(contracts.NewsItem{Title: "业绩不及预期，股价暴跌"})
	if out.Sentiment != contracts.SentimentNegative {
		t.Errorf("sentiment = %q, want negative", out.Sentiment)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Quarterly earnings beat estimates", CategoryEarnings},
		{"Dividend payout raised", CategoryDividend},
		{"Management shakeup on the board", CategoryGovernance},
		{"Federal rate decision looms", CategoryMacro},
		{"New store opening", CategoryCompany},
		{"营收增长创新高", CategoryEarnings},
	}

	for _, tt := range tests {
		if got := classify(tt.title); got != tt.want {
			t.Errorf("classify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestAnalyzeBatch(t *testing.T) {
	a := NewKeywordAnalyzer()

	items := []contracts.NewsItem{
		{Ticker: "T1", Title: "Record profit growth beats expectations"},
		{Ticker: "T1", Title: "Dividend increase announced"},
		{Ticker: "T1", Title: "Company faces lawsuit over losses"},
	}

	batch := a.AnalyzeBatch(items, "T1")

	if batch.PositiveCount != 2 || batch.NegativeCount != 1 || batch.NeutralCount != 0 {
		t.Errorf("counts = %d/%d/%d, want 2/1/0",
			batch.PositiveCount, batch.NegativeCount, batch.NeutralCount)
	}
	// (1 + 1 - 1) / 3
	if math.Abs(batch.Score-1.0/3.0) > 1e-9 {
		t.Errorf("score = %v, want 1/3", batch.Score)
	}
	if batch.Label != "positive" {
		t.Errorf("label = %q, want positive", batch.Label)
	}
	if math.Abs(batch.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9", batch.Confidence)
	}

	if len(batch.Risks) != 1 || batch.Risks[0] != "lawsuit" {
		t.Errorf("risks = %v, want [lawsuit]", batch.Risks)
	}
	// Catalysts come from positive headlines only; the lawsuit item
	// contributes nothing.
	if len(batch.Catalysts) != 3 {
		t.Errorf("catalysts = %v, want growth/record/beat", batch.Catalysts)
	}

	if len(batch.Themes) != 5 || batch.Themes[0] != "growth" {
		t.Errorf("themes = %v", batch.Themes)
	}
	if len(batch.Items) != 3 {
		t.Errorf("items = %d, want 3", len(batch.Items))
	}
}

func TestAnalyzeBatch_Empty(t *testing.T) {
	batch := NewKeywordAnalyzer().AnalyzeBatch(nil, "T1")

	if batch.Score != 0 || batch.Label != "neutral" {
		t.Errorf("empty batch = %v/%q, want 0/neutral", batch.Score, batch.Label)
	}
}
