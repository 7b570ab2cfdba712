// Package report renders screening and valuation results as text
// tables, per-stock detail blocks, or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// Output formats.
const (
	FormatTable  = "table"
	FormatJSON   = "json"
	FormatDetail = "detail"
)

// detailLimit caps how many stocks the detail format prints.
const detailLimit = 10

// Render formats a screening run in the requested format. showAll adds
// the sentiment and dividend columns to the table and includes
// disqualified stocks in JSON.
func Render(out *contracts.ScreeningOutput, format string, showAll bool) (string, error) {
	switch format {
	case FormatTable, "":
		return SummaryText(out.Summary) + "\n\n" + Table(out.Qualified, showAll), nil
	case FormatJSON:
		return JSON(out, showAll)
	case FormatDetail:
		var b strings.Builder
		b.WriteString(SummaryText(out.Summary))
		results := out.Qualified
		if len(results) > detailLimit {
			results = results[:detailLimit]
		}
		for _, r := range results {
			b.WriteString(Detail(r))
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// SummaryText renders the run statistics block.
func SummaryText(s contracts.ScreeningSummary) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "筛选结果: %s 策略\n", strings.ToUpper(s.StrategyName))
	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "总计: %d 只\n", s.Total)
	fmt.Fprintf(&b, "符合条件: %d 只\n", s.QualifiedCount)
	fmt.Fprintf(&b, "未通过: %d 只\n", s.FailedCount)
	fmt.Fprintf(&b, "错误: %d 只\n", s.ErrorCount)
	fmt.Fprintf(&b, "通过率: %.1f%%\n", s.PassRate)
	fmt.Fprintf(&b, "耗时: %.1f秒", s.Duration.Seconds())
	return b.String()
}

// Table renders ranked results as a fixed-width table.
func Table(results []*contracts.ScreeningResult, showAll bool) string {
	if len(results) == 0 {
		return "No qualified stocks found."
	}

	var header string
	if showAll {
		header = fmt.Sprintf("%4s %-10s %-8s %4s %7s %7s %7s %7s %8s %6s %7s",
			"排名", "代码", "名称", "评级", "综合分", "估值分", "质量分", "情感分", "安全边际", "ROE", "股息率")
	} else {
		header = fmt.Sprintf("%4s %-10s %-8s %4s %7s %7s %7s %8s %6s",
			"排名", "代码", "名称", "评级", "综合分", "估值分", "质量分", "安全边际", "ROE")
	}

	var lines []string
	lines = append(lines, strings.Repeat("=", len(header)))
	lines = append(lines, header)
	lines = append(lines, strings.Repeat("-", len(header)))

	for i, r := range results {
		name := r.Name
		if name == "" {
			name = "-"
		}
		if n := []rune(name); len(n) > 6 {
			name = string(n[:6])
		}

		if showAll {
			lines = append(lines, fmt.Sprintf("%4d %-10s %-8s %4s %7.1f %7.1f %7.1f %7.1f %+7.1f%% %5.1f%% %6.2f%%",
				i+1, r.Ticker, name, r.Grade(),
				r.CompositeScore, r.ValuationScore, r.QualityScore, r.SentimentScore,
				r.MarginOfSafety, r.ROE.Float(), r.DividendYield.Float()))
		} else {
			lines = append(lines, fmt.Sprintf("%4d %-10s %-8s %4s %7.1f %7.1f %7.1f %+7.1f%% %5.1f%%",
				i+1, r.Ticker, name, r.Grade(),
				r.CompositeScore, r.ValuationScore, r.QualityScore,
				r.MarginOfSafety, r.ROE.Float()))
		}
	}

	lines = append(lines, strings.Repeat("=", len(header)))
	return strings.Join(lines, "\n")
}

// Detail renders one result with the full metric breakdown.
func Detail(r *contracts.ScreeningResult) string {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	name := r.Name
	if name == "" {
		name = "Unknown"
	}
	fmt.Fprintf(&b, "\n\n%s\n%s - %s\n%s\n", rule, r.Ticker, name, rule)

	fmt.Fprintf(&b, "\n当前价格: ¥%.2f\n", r.CurrentPrice)
	fmt.Fprintf(&b, "市值: ¥%.1f亿\n", r.MarketCap/1e8)
	fmt.Fprintf(&b, "综合评级: %s (%.1f分)\n", r.Grade(), r.CompositeScore)

	b.WriteString("\n【评分明细】\n")
	fmt.Fprintf(&b, "  估值分: %.1f\n", r.ValuationScore)
	fmt.Fprintf(&b, "  质量分: %.1f\n", r.QualityScore)
	fmt.Fprintf(&b, "  情感分: %.1f\n", r.SentimentScore)
	fmt.Fprintf(&b, "  动量分: %.1f\n", r.MomentumScore)

	b.WriteString("\n【估值指标】\n")
	fmt.Fprintf(&b, "  公允价值(中位数): ¥%.2f\n", r.FairValueMedian)
	fmt.Fprintf(&b, "  安全边际: %+.1f%%\n", r.MarginOfSafety)
	fmt.Fprintf(&b, "  估值评估: %s\n", r.ValuationAssessment())
	fmt.Fprintf(&b, "  P/E: %s\n", metricText(r.PERatio, "%.1f"))
	fmt.Fprintf(&b, "  P/B: %s\n", metricText(r.PBRatio, "%.2f"))
	fmt.Fprintf(&b, "  PEG: %s\n", metricText(r.PEGRatio, "%.2f"))

	b.WriteString("\n【质量指标】\n")
	fmt.Fprintf(&b, "  ROE: %s\n", metricText(r.ROE, "%.1f%%"))
	fmt.Fprintf(&b, "  FCF收益率: %s\n", metricText(r.FCFYield, "%.2f%%"))
	fmt.Fprintf(&b, "  Altman Z: %s\n", metricText(r.AltmanZ, "%.2f"))
	fmt.Fprintf(&b, "  ROIC: %s\n", metricText(r.ROIC, "%.1f%%"))
	fmt.Fprintf(&b, "  质量评估: %s\n", r.QualityAssessment())

	if r.DividendYield.Positive() {
		b.WriteString("\n【分红指标】\n")
		fmt.Fprintf(&b, "  股息率: %.2f%%\n", r.DividendYield.Value)
		fmt.Fprintf(&b, "  分红率: %s\n", metricText(r.PayoutRatio, "%.1f%%"))
		fmt.Fprintf(&b, "  分红增长: %s\n", metricText(r.DividendGrowthRate, "%.1f%%"))
	}

	b.WriteString("\n【情感信号】\n")
	fmt.Fprintf(&b, "  新闻情感: %+.2f (%s)\n", r.NewsSentiment, r.NewsSentimentLabel)
	fmt.Fprintf(&b, "  内幕交易: %s\n", r.InsiderSentiment)

	if len(r.PassedFilters) > 0 {
		fmt.Fprintf(&b, "\n【通过过滤器】: %s\n", strings.Join(r.PassedFilters, ", "))
	}
	if len(r.FailedFilters) > 0 {
		fmt.Fprintf(&b, "【未通过过滤器】: %s\n", strings.Join(r.FailedFilters, ", "))
	}
	return b.String()
}

// metricText formats a metric or "N/A" when it is missing.
func metricText(m contracts.Metric, format string) string {
	if !m.Valid {
		return "N/A"
	}
	return fmt.Sprintf(format, m.Value)
}

type jsonSummary struct {
	Strategy        string  `json:"strategy"`
	Total           int     `json:"total"`
	Qualified       int     `json:"qualified"`
	Failed          int     `json:"failed"`
	Errors          int     `json:"errors"`
	PassRate        float64 `json:"pass_rate"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type jsonOutput struct {
	Summary      jsonSummary                  `json:"summary"`
	Results      []*contracts.ScreeningResult `json:"results"`
	Disqualified []*contracts.ScreeningResult `json:"disqualified,omitempty"`
	Errors       []contracts.TaskError        `json:"errors,omitempty"`
}

// JSON renders the run as indented JSON. includeDisqualified adds the
// disqualified stocks and per-ticker errors.
func JSON(out *contracts.ScreeningOutput, includeDisqualified bool) (string, error) {
	payload := jsonOutput{
		Summary: jsonSummary{
			Strategy:        out.Summary.StrategyName,
			Total:           out.Summary.Total,
			Qualified:       out.Summary.QualifiedCount,
			Failed:          out.Summary.FailedCount,
			Errors:          out.Summary.ErrorCount,
			PassRate:        out.Summary.PassRate,
			DurationSeconds: out.Summary.Duration.Seconds(),
		},
		Results: out.Qualified,
	}
	if includeDisqualified {
		payload.Disqualified = out.Disqualified
		payload.Errors = out.Errors
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal screening output: %w", err)
	}
	return string(data), nil
}
