package report

import (
	"fmt"
	"strings"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

const boxWidth = 68

// ValuationReport renders per-method fair values as a boxed table with
// an average row, the current price, and the leading analysis notes.
func ValuationReport(results []contracts.ValuationResult, title string) string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, "╔"+strings.Repeat("═", boxWidth)+"╗")
	lines = append(lines, "║"+center(" "+title+" ", boxWidth)+"║")
	lines = append(lines, "╚"+strings.Repeat("═", boxWidth)+"╝")

	var valid []contracts.ValuationResult
	for _, r := range results {
		if r.FairValue > 0 {
			valid = append(valid, r)
		}
	}
	currentPrice := 0.0
	if len(results) > 0 {
		currentPrice = results[0].CurrentPrice
	}

	lines = append(lines, "")
	lines = append(lines, "┌"+strings.Repeat("─", boxWidth)+"┐")
	lines = append(lines, boxRow(" VALUATION SUMMARY"))
	lines = append(lines, "├"+strings.Repeat("─", boxWidth)+"┤")
	lines = append(lines, fmt.Sprintf("│ %-30s %12s %12s %12s │", "Method", "Fair Value", "Margin", "Assessment"))
	lines = append(lines, "├"+strings.Repeat("─", boxWidth)+"┤")

	for _, r := range results {
		fairStr, marginStr := "N/A", "N/A"
		if r.FairValue > 0 {
			fairStr = fmt.Sprintf("$%.2f", r.FairValue)
			marginStr = fmt.Sprintf("%+.1f%%", r.PremiumDiscount)
		}
		lines = append(lines, fmt.Sprintf("│ %-30s %12s %12s %12s │", r.Method, fairStr, marginStr, r.Assessment))
	}

	if len(valid) > 0 && currentPrice > 0 {
		sum := 0.0
		for _, r := range valid {
			sum += r.FairValue
		}
		avg := sum / float64(len(valid))
		avgMargin := (avg - currentPrice) / currentPrice * 100
		lines = append(lines, "├"+strings.Repeat("─", boxWidth)+"┤")
		lines = append(lines, fmt.Sprintf("│ %-30s $%11.2f %+11.1f%% %12s │", "AVERAGE", avg, avgMargin, ""))
	}

	lines = append(lines, "├"+strings.Repeat("─", boxWidth)+"┤")
	lines = append(lines, fmt.Sprintf("│ %-30s $%11.2f %12s %12s │", "CURRENT PRICE", currentPrice, "--", "--"))
	lines = append(lines, "└"+strings.Repeat("─", boxWidth)+"┘")

	lines = append(lines, "")
	lines = append(lines, "┌"+strings.Repeat("─", boxWidth)+"┐")
	lines = append(lines, boxRow(" ANALYSIS NOTES"))
	lines = append(lines, "├"+strings.Repeat("─", boxWidth)+"┤")

	for _, r := range valid {
		if len(r.Analysis) == 0 {
			continue
		}
		lines = append(lines, boxRow(fmt.Sprintf(" %s:", r.Method)))
		notes := r.Analysis
		if len(notes) > 2 {
			notes = notes[:2]
		}
		for _, note := range notes {
			lines = append(lines, boxRow(fmt.Sprintf("   • %s", note)))
		}
	}

	lines = append(lines, "└"+strings.Repeat("─", boxWidth)+"┘")
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// ValuationSummaryLine renders the one-line digest of a valuation run.
func ValuationSummaryLine(results []contracts.ValuationResult) string {
	var valid []contracts.ValuationResult
	for _, r := range results {
		if r.FairValue > 0 {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 || len(results) == 0 {
		return "No valid valuation results."
	}

	sum := 0.0
	undervalued := 0
	for _, r := range valid {
		sum += r.FairValue
		if r.PremiumDiscount > 15 {
			undervalued++
		}
	}
	avg := sum / float64(len(valid))
	currentPrice := results[0].CurrentPrice

	upside := 0.0
	if currentPrice > 0 {
		upside = (avg - currentPrice) / currentPrice * 100
	}

	return fmt.Sprintf("Summary: %d methods, Average Fair Value: $%.2f, Current: $%.2f, Upside: %+.1f%%, Undervalued: %d/%d",
		len(valid), avg, currentPrice, upside, undervalued, len(valid))
}

// boxRow pads text to the box width and closes the border. Content
// wider than the box is truncated.
func boxRow(text string) string {
	runes := []rune(text)
	if len(runes) > boxWidth {
		runes = runes[:boxWidth]
	}
	return "│" + string(runes) + strings.Repeat(" ", boxWidth-len(runes)) + "│"
}

func center(text string, width int) string {
	runes := []rune(text)
	if len(runes) >= width {
		return string(runes[:width])
	}
	left := (width - len(runes)) / 2
	right := width - len(runes) - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}
