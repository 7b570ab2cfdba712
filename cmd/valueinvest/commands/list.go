package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/screener"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List strategies, filters, or valuation methods",
}

var listStrategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List screening strategies and their default filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, info := range screener.NewStrategyRegistry().List() {
			fmt.Fprintf(out, "%-10s %s\n", info.Name, info.Description)
			fmt.Fprintf(out, "%-10s filters: %s\n", "", strings.Join(info.DefaultFilters, ", "))
		}
		return nil
	},
}

var listFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "List available screening filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, info := range screener.NewFilterRegistry().List() {
			fmt.Fprintf(out, "%-22s [%s] %s\n", info.Name, info.Category, info.Description)
		}
		return nil
	},
}

var listMethodsCmd = &cobra.Command{
	Use:   "methods",
	Short: "List registered valuation methods",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, name := range valuation.NewEngine(logger.New(cfg)).Methods() {
			fmt.Fprintln(out, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listStrategiesCmd)
	listCmd.AddCommand(listFiltersCmd)
	listCmd.AddCommand(listMethodsCmd)
}
