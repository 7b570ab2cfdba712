package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/report"
	"github.com/valueinvest/valueinvest/internal/screener"
)

var (
	screenTickers  []string
	screenFile     string
	screenStrategy string
	screenWorkers  int
	screenNews     bool
	screenInsider  bool
	screenOutput   string
	screenShowAll  bool
	screenSaveFile string
	screenStore    bool
	screenListStr  bool
	screenListFlt  bool

	// Threshold overrides. Zero leaves the strategy default in place.
	screenMinMOS            float64
	screenMinROE            float64
	screenMinFCFYield       float64
	screenMinZ              float64
	screenMaxPE             float64
	screenMaxPB             float64
	screenMinDividendYield  float64
	screenMaxPayout         float64
	screenMinDividendGrowth float64
	screenMinGrowth         float64
	screenMaxPEG            float64
	screenMinRule40         float64
	screenMinROIC           float64
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a ticker list against a strategy",
	Long: `Screen runs the multi-factor pipeline over a batch of tickers.

Tickers come from --tickers, from a watchlist file (--file), or both.
A-share codes (600036, 600036.SH) route to Eastmoney/Sina, US symbols
to Yahoo Finance.

Examples:
  valueinvest screen -t 600036.SH,601318.SH -s value
  valueinvest screen -f watchlist.txt -s dividend --min-dividend 4 -o detail
  valueinvest screen -t AAPL,MSFT -s garp --news --insider --save results.json --store`,
	RunE: runScreen,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringSliceVarP(&screenTickers, "tickers", "t", nil, "comma-separated ticker list")
	screenCmd.Flags().StringVarP(&screenFile, "file", "f", "", "watchlist file (one or more tickers per line, # comments)")
	screenCmd.Flags().StringVarP(&screenStrategy, "strategy", "s", "value", "screening strategy")
	screenCmd.Flags().IntVarP(&screenWorkers, "workers", "w", 0, "concurrent workers (0 = default)")
	screenCmd.Flags().BoolVar(&screenNews, "news", false, "fetch news and score sentiment")
	screenCmd.Flags().BoolVar(&screenInsider, "insider", false, "fetch insider trades")
	screenCmd.Flags().StringVarP(&screenOutput, "output", "o", report.FormatTable, "output format (table|json|detail)")
	screenCmd.Flags().BoolVarP(&screenShowAll, "all", "a", false, "include disqualified stocks in the output")
	screenCmd.Flags().StringVar(&screenSaveFile, "save", "", "also write the JSON output to this file")
	screenCmd.Flags().BoolVar(&screenStore, "store", false, "persist the run to Postgres")
	screenCmd.Flags().BoolVarP(&screenListStr, "list-strategies", "l", false, "list strategies and exit")
	screenCmd.Flags().BoolVar(&screenListFlt, "list-filters", false, "list filters and exit")

	screenCmd.Flags().Float64Var(&screenMinMOS, "min-mos", 0, "minimum margin of safety (%)")
	screenCmd.Flags().Float64Var(&screenMinROE, "min-roe", 0, "minimum ROE (%)")
	screenCmd.Flags().Float64Var(&screenMinFCFYield, "min-fcf-yield", 0, "minimum FCF yield (%)")
	screenCmd.Flags().Float64Var(&screenMinZ, "min-z", 0, "minimum Altman Z-score")
	screenCmd.Flags().Float64Var(&screenMaxPE, "max-pe", 0, "maximum P/E ratio")
	screenCmd.Flags().Float64Var(&screenMaxPB, "max-pb", 0, "maximum P/B ratio")
	screenCmd.Flags().Float64Var(&screenMinDividendYield, "min-dividend", 0, "minimum dividend yield (%)")
	screenCmd.Flags().Float64Var(&screenMaxPayout, "max-payout", 0, "maximum payout ratio (%)")
	screenCmd.Flags().Float64Var(&screenMinDividendGrowth, "min-dividend-growth", 0, "minimum dividend growth (%)")
	screenCmd.Flags().Float64Var(&screenMinGrowth, "min-growth", 0, "minimum earnings growth (%)")
	screenCmd.Flags().Float64Var(&screenMaxPEG, "max-peg", 0, "maximum PEG ratio")
	screenCmd.Flags().Float64Var(&screenMinRule40, "min-rule40", 0, "minimum Rule of 40 score")
	screenCmd.Flags().Float64Var(&screenMinROIC, "min-roic", 0, "minimum ROIC (%)")
}

// collectTickers merges the --tickers flag with the watchlist file.
func collectTickers() ([]string, error) {
	var tickers []string
	for _, t := range screenTickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" {
			tickers = append(tickers, t)
		}
	}

	if screenFile != "" {
		fromFile, err := screener.ReadTickerFile(screenFile)
		if err != nil {
			return nil, fmt.Errorf("read watchlist: %w", err)
		}
		tickers = append(tickers, fromFile...)
	}

	seen := make(map[string]bool, len(tickers))
	unique := tickers[:0]
	for _, t := range tickers {
		if !seen[t] {
			seen[t] = true
			unique = append(unique, t)
		}
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("no tickers given: use --tickers or --file")
	}
	return unique, nil
}

func screenOverrides() screener.Overrides {
	return screener.Overrides{
		MinMOS:            screenMinMOS,
		MinROE:            screenMinROE,
		MinFCFYield:       screenMinFCFYield,
		MinZ:              screenMinZ,
		MaxPE:             screenMaxPE,
		MaxPB:             screenMaxPB,
		MinDividendYield:  screenMinDividendYield,
		MaxPayout:         screenMaxPayout,
		MinDividendGrowth: screenMinDividendGrowth,
		MinGrowth:         screenMinGrowth,
		MaxPEG:            screenMaxPEG,
		MinRule40:         screenMinRule40,
		MinROIC:           screenMinROIC,
	}
}

func runScreen(cmd *cobra.Command, args []string) error {
	if screenListStr {
		return listStrategiesCmd.RunE(cmd, nil)
	}
	if screenListFlt {
		return listFiltersCmd.RunE(cmd, nil)
	}

	tickers, err := collectTickers()
	if err != nil {
		return err
	}

	d, err := buildDeps(screenStore)
	if err != nil {
		return err
	}
	defer d.close()

	pipeline := screener.NewPipeline(d.provider, d.engine, d.log)
	out, err := pipeline.Screen(cmd.Context(), screener.Request{
		Tickers:        tickers,
		Strategy:       screenStrategy,
		Overrides:      screenOverrides(),
		Workers:        screenWorkers,
		IncludeNews:    screenNews,
		IncludeInsider: screenInsider,
	})
	if err != nil {
		return err
	}

	if screenStore {
		runID, err := d.repo.SaveRun(context.Background(), out)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		d.log.WithField("run_id", runID).Info("Screening run saved")
	}

	if screenSaveFile != "" {
		data, err := report.JSON(out, screenShowAll)
		if err != nil {
			return err
		}
		if err := os.WriteFile(screenSaveFile, []byte(data), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", screenSaveFile, err)
		}
	}

	text, err := report.Render(out, screenOutput, screenShowAll)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
