package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/internal/report"
)

var (
	valueMethods []string
	valueAll     bool
	valueOutput  string
)

var valueCmd = &cobra.Command{
	Use:   "value <ticker>",
	Short: "Value a single stock with classic models",
	Long: `Value runs valuation methods against one stock and prints a
fair-value report.

Without --methods the engine picks methods suited to the stock
(DDM and P/B for banks, DCF and Graham for the rest). --all runs
every registered method.

Examples:
  valueinvest value AAPL
  valueinvest value 600036.SH --methods ddm,pb_multiple
  valueinvest value MSFT --all`,
	Args: cobra.ExactArgs(1),
	RunE: runValue,
}

func init() {
	rootCmd.AddCommand(valueCmd)

	valueCmd.Flags().StringSliceVarP(&valueMethods, "methods", "m", nil, "valuation methods to run")
	valueCmd.Flags().BoolVar(&valueAll, "all", false, "run every registered method")
	valueCmd.Flags().StringVarP(&valueOutput, "output", "o", "report", "output format (report|json)")
}

func runValue(cmd *cobra.Command, args []string) error {
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))

	d, err := buildDeps(false)
	if err != nil {
		return err
	}
	defer d.close()

	provider, err := d.registry.For(ticker)
	if err != nil {
		return err
	}
	stock, err := provider.Stock(cmd.Context(), ticker)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ticker, err)
	}

	var results []contracts.ValuationResult
	switch {
	case valueAll:
		results = d.engine.RunAll(stock)
	case len(valueMethods) > 0:
		results = d.engine.RunMultiple(stock, valueMethods)
	default:
		results = d.engine.RunRecommended(stock)
	}

	out := cmd.OutOrStdout()
	switch valueOutput {
	case "json":
		payload := map[string]interface{}{
			"ticker":        ticker,
			"name":          stock.Name,
			"current_price": stock.CurrentPrice,
			"results":       results,
			"summary":       d.engine.Summary(results),
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "report":
		title := stock.Name
		if title == "" {
			title = ticker
		}
		fmt.Fprintln(out, report.ValuationReport(results, fmt.Sprintf("%s (%s)", title, ticker)))
		fmt.Fprintln(out, report.ValuationSummaryLine(results))
		return nil
	default:
		return fmt.Errorf("unknown output format %q", valueOutput)
	}
}
