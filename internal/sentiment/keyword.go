// Package sentiment scores news headlines with bilingual keyword lists.
// It is intentionally crude: a fast, deterministic signal for the
// screening pipeline rather than a language model.
package sentiment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

var positiveCN = []string{
	"增长", "上升", "突破", "创新高", "超预期", "利好", "中标",
	"回购", "增持", "分红", "利润增长", "营收增长", "盈利",
	"扩张", "并购", "合作", "签约", "订单", "市场份额提升",
	"扭亏", "业绩向好", "强劲", "看好", "上调", "买入",
	"龙头", "领先", "竞争力", "成长", "机会", "乐观",
	"复苏", "回暖", "改善", "优化", "升级", "创新",
}

var negativeCN = []string{
	"下降", "下跌", "亏损", "减持", "利空", "下修",
	"诉讼", "调查", "处罚", "风险", "下滑", "裁员",
	"关停", "违约", "债务", "破产", "退市", "跌停", "暴跌",
	"不及预期", "下调", "卖出", "看空", "悲观", "萎缩",
	"恶化", "受损", "冲击", "压力", "减少",
	"竞争加剧", "成本上升", "毛利下降", "资金链", "质押",
}

var positiveEN = []string{
	"growth", "surge", "jump", "rise", "gain", "profit", "beat",
	"upgrade", "buyback", "dividend", "acquire", "expand", "win",
	"record", "high", "strong", "bullish", "outperform", "overweight",
	"positive", "optimistic", "opportunity", "breakthrough",
	"increase", "improve", "exceed", "milestone", "partnership",
}

var negativeEN = []string{
	"decline", "drop", "fall", "loss", "downgrade", "sell", "lawsuit",
	"investigation", "fine", "penalty", "bankrupt", "delist", "crash",
	"miss", "bearish", "underperform", "underweight", "negative",
	"pessimistic", "risk", "threat", "challenge", "concern", "worst",
	"decrease", "reduce", "cut", "layoff", "shutdown", "default",
}

var riskWords = []string{
	"风险", "诉讼", "调查", "处罚", "违约", "质押", "减持",
	"竞争加剧", "成本上升", "下滑", "压力", "不确定性",
	"risk", "lawsuit", "investigation", "fine", "penalty", "default",
	"competition", "pressure", "uncertainty", "concern", "threat",
}

var catalystWords = []string{
	"订单", "中标", "签约", "并购", "回购", "新产品",
	"扩张", "增长", "创新高", "超预期", "利好",
	"order", "contract", "acquisition", "buyback", "new product",
	"expansion", "growth", "record", "beat", "positive",
}

// News categories.
const (
	CategoryEarnings   = "earnings"
	CategoryDividend   = "dividend"
	CategoryGuidance   = "guidance"
	CategoryIndustry   = "industry"
	CategoryMacro      = "macro"
	CategoryGovernance = "governance"
	CategoryCompany    = "company"
)

type categoryPattern struct {
	category string
	re       *regexp.Regexp
}

// Checked in order; the first match wins.
var categoryPatterns = []categoryPattern{
	{CategoryEarnings, regexp.MustCompile(`(?i)业绩|利润|营收|盈利|亏损|财报|earnings|profit|revenue|loss|quarter`)},
	{CategoryDividend, regexp.MustCompile(`(?i)分红|股息|派息|dividend|payout`)},
	{CategoryGuidance, regexp.MustCompile(`(?i)指引|预期|展望|预测|guidance|forecast|outlook|estimate`)},
	{CategoryIndustry, regexp.MustCompile(`(?i)行业|市场|竞争|份额|industry|market|sector|competition`)},
	{CategoryMacro, regexp.MustCompile(`(?i)宏观|政策|经济|利率|央行|macro|policy|economy|rate|federal`)},
	{CategoryGovernance, regexp.MustCompile(`(?i)治理|股东|管理层|董事|governance|shareholder|management|board`)},
}

// ItemAnalysis is the verdict for one headline.
type ItemAnalysis struct {
	Item       contracts.NewsItem `json:"item"`
	Sentiment  string             `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	Impact     float64            `json:"impact"` // -1..1
	Keywords   []string           `json:"keywords,omitempty"`
	Category   string             `json:"category"`
}

// BatchAnalysis aggregates a set of headlines for one ticker.
type BatchAnalysis struct {
	Ticker        string         `json:"ticker"`
	Score         float64        `json:"score"` // -1..1
	Label         string         `json:"label"`
	Confidence    float64        `json:"confidence"`
	PositiveCount int            `json:"positive_count"`
	NegativeCount int            `json:"negative_count"`
	NeutralCount  int            `json:"neutral_count"`
	Themes        []string       `json:"themes,omitempty"`
	Risks         []string       `json:"risks,omitempty"`
	Catalysts     []string       `json:"catalysts,omitempty"`
	Items         []ItemAnalysis `json:"items,omitempty"`
}

// Label buckets an aggregate score.
func Label(score float64) string {
	switch {
	case score > 0.3:
		return "positive"
	case score < -0.3:
		return "negative"
	case score > 0.1:
		return "slightly_positive"
	case score < -0.1:
		return "slightly_negative"
	default:
		return "neutral"
	}
}

// KeywordAnalyzer classifies headlines by counting hits against the
// positive and negative word lists.
type KeywordAnalyzer struct {
	positive []string
	negative []string
}

// NewKeywordAnalyzer returns an analyzer with the built-in CN + EN
// word lists.
func NewKeywordAnalyzer() *KeywordAnalyzer {
	return &KeywordAnalyzer{
		positive: append(append([]string{}, positiveCN...), positiveEN...),
		negative: append(append([]string{}, negativeCN...), negativeEN...),
	}
}

// AnalyzeItem classifies a single headline.
func (a *KeywordAnalyzer) AnalyzeItem(item contracts.NewsItem) ItemAnalysis {
	text := strings.ToLower(item.Title)

	positiveHits := countHits(text, a.positive)
	negativeHits := countHits(text, a.negative)
	total := positiveHits + negativeHits

	out := ItemAnalysis{
		Item:     item,
		Keywords: matchWords(text, append(append([]string{}, a.positive...), a.negative...), 10),
		Category: classify(item.Title),
	}

	if total == 0 {
		out.Sentiment = contracts.SentimentNeutral
		out.Confidence = 0.3
		return out
	}

	ratio := float64(positiveHits) / float64(total)
	switch {
	case ratio > 0.6:
		out.Sentiment = contracts.SentimentPositive
		out.Confidence = minFloat(0.9, 0.5+ratio*0.4)
		out.Impact = ratio
	case ratio < 0.4:
		out.Sentiment = contracts.SentimentNegative
		out.Confidence = minFloat(0.9, 0.5+(1-ratio)*0.4)
		out.Impact = -(1 - ratio)
	default:
		out.Sentiment = contracts.SentimentNeutral
		out.Confidence = 0.4
		out.Impact = ratio - 0.5
	}
	return out
}

// AnalyzeBatch classifies every headline and aggregates the scores.
func (a *KeywordAnalyzer) AnalyzeBatch(items []contracts.NewsItem, ticker string) BatchAnalysis {
	batch := BatchAnalysis{Ticker: ticker, Label: Label(0)}
	if len(items) == 0 {
		return batch
	}

	var scoreSum, confidenceSum float64
	confident := 0

	for _, item := range items {
		analyzed := a.AnalyzeItem(item)
		batch.Items = append(batch.Items, analyzed)

		switch analyzed.Sentiment {
		case contracts.SentimentPositive:
			batch.PositiveCount++
			scoreSum += impactOrDefault(analyzed.Impact, 0.5)
		case contracts.SentimentNegative:
			batch.NegativeCount++
			scoreSum += impactOrDefault(analyzed.Impact, -0.5)
		default:
			batch.NeutralCount++
		}

		if analyzed.Confidence > 0 {
			confidenceSum += analyzed.Confidence
			confident++
		}
	}

	batch.Score = scoreSum / float64(len(items))
	batch.Label = Label(batch.Score)
	if confident > 0 {
		batch.Confidence = confidenceSum / float64(confident)
	}

	batch.Themes = topThemes(batch.Items, 5)
	batch.Risks = a.extractRisks(items)
	batch.Catalysts = a.extractCatalysts(batch.Items)
	return batch
}

func (a *KeywordAnalyzer) extractRisks(items []contracts.NewsItem) []string {
	var risks []string
	for _, item := range items {
		for _, word := range matchWords(strings.ToLower(item.Title), riskWords, len(riskWords)) {
			if !containsString(risks, word) {
				risks = append(risks, word)
			}
		}
	}
	return truncate(risks, 5)
}

// extractCatalysts collects catalyst keywords from positive headlines.
func (a *KeywordAnalyzer) extractCatalysts(items []ItemAnalysis) []string {
	var catalysts []string
	for _, analyzed := range items {
		if analyzed.Sentiment != contracts.SentimentPositive {
			continue
		}
		for _, word := range matchWords(strings.ToLower(analyzed.Item.Title), catalystWords, len(catalystWords)) {
			if !containsString(catalysts, word) {
				catalysts = append(catalysts, word)
			}
		}
	}
	return truncate(catalysts, 5)
}

func classify(text string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(text) {
			return p.category
		}
	}
	return CategoryCompany
}

func countHits(text string, words []string) int {
	hits := 0
	for _, word := range words {
		if strings.Contains(text, word) {
			hits++
		}
	}
	return hits
}

func matchWords(text string, words []string, limit int) []string {
	var found []string
	for _, word := range words {
		if strings.Contains(text, word) {
			found = append(found, word)
			if len(found) == limit {
				break
			}
		}
	}
	return found
}

// topThemes counts keyword occurrences across the batch and returns the
// most frequent, breaking count ties by first appearance.
func topThemes(items []ItemAnalysis, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, analyzed := range items {
		for _, word := range analyzed.Keywords {
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	return truncate(order, limit)
}

func impactOrDefault(impact, fallback float64) float64 {
	if impact == 0 {
		return fallback
	}
	return impact
}

func truncate(words []string, limit int) []string {
	if len(words) > limit {
		return words[:limit]
	}
	return words
}

func containsString(words []string, word string) bool {
	for _, w := range words {
		if w == word {
			return true
		}
	}
	return false
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
