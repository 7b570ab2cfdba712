package screener

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// Strategy bundles an ordered filter list with scoring weights.
type Strategy struct {
	Name        string
	Description string
	Filters     []Filter
	Weights     contracts.ScoringWeights
}

// ApplyFilters runs every filter in order and records the verdicts on
// the result. Qualification is the logical AND of all filters; the
// chain never short-circuits, so failed results still carry the full
// detail list. A panicking filter counts as failed.
func (st *Strategy) ApplyFilters(r *contracts.ScreeningResult) bool {
	allPassed := true
	details := make([]contracts.FilterResult, 0, len(st.Filters))

	for _, f := range st.Filters {
		fr := applyRecovered(f, r)
		details = append(details, fr)

		if fr.Passed {
			r.PassedFilters = append(r.PassedFilters, fr.Name)
		} else {
			r.FailedFilters = append(r.FailedFilters, fr.Name)
			allPassed = false
		}
	}

	r.FilterDetails = details
	r.IsQualified = allPassed
	return allPassed
}

// Overrides carries optional threshold overrides for the strategy
// builders. A zero field keeps the strategy's default.
type Overrides struct {
	MinMOS            float64
	MinROE            float64
	MinFCFYield       float64
	MinZ              float64
	MaxPE             float64
	MaxPB             float64
	MinDividendYield  float64
	MaxPayout         float64
	MinDividendGrowth float64
	MinGrowth         float64
	MaxPEG            float64
	MinRule40         float64
	MinROIC           float64
}

// ValueStrategy screens for deep value: a wide margin of safety on
// solvent businesses at low earnings multiples.
func ValueStrategy(o Overrides) *Strategy {
	return &Strategy{
		Name:        "value",
		Description: "深度价值 - 安全边际优先，Graham风格",
		Filters: []Filter{
			MarginOfSafetyFilter{Min: orDefault(o.MinMOS, 20)},
			ROEFilter{Min: orDefault(o.MinROE, 10)},
			AltmanZFilter{Min: orDefault(o.MinZ, 2.99)},
			PEFilter{Max: orDefault(o.MaxPE, 15)},
		},
		Weights: contracts.ScoringWeights{Valuation: 0.50, Quality: 0.30, Sentiment: 0.15, Momentum: 0.05},
	}
}

// GrowthStrategy screens for high growth at a still-reasonable price.
func GrowthStrategy(o Overrides) *Strategy {
	return &Strategy{
		Name:        "growth",
		Description: "成长股 - 高增长，合理估值",
		Filters: []Filter{
			GrowthRateFilter{Min: orDefault(o.MinGrowth, 15)},
			PEGFilter{Max: orDefault(o.MaxPEG, 1.5)},
			RuleOf40Filter{Min: orDefault(o.MinRule40, 30)},
			ROEFilter{Min: orDefault(o.MinROE, 12)},
		},
		Weights: contracts.ScoringWeights{Valuation: 0.25, Quality: 0.25, Sentiment: 0.15, Momentum: 0.35},
	}
}

// DividendStrategy screens for sustainable dividend income.
func DividendStrategy(o Overrides) *Strategy {
	return &Strategy{
		Name:        "dividend",
		Description: "红利股 - 稳定分红，可持续增长",
		Filters: []Filter{
			DividendYieldFilter{Min: orDefault(o.MinDividendYield, 3)},
			PayoutRatioFilter{Max: orDefault(o.MaxPayout, 70)},
			DividendGrowthFilter{Min: orDefault(o.MinDividendGrowth, 5)},
			MarginOfSafetyFilter{Min: orDefault(o.MinMOS, 10)},
		},
		Weights: contracts.ScoringWeights{Valuation: 0.30, Quality: 0.45, Sentiment: 0.20, Momentum: 0.05},
	}
}

// QualityStrategy screens for high-return compounders.
func QualityStrategy(o Overrides) *Strategy {
	return &Strategy{
		Name:        "quality",
		Description: "高质量 - 优质企业，长期复利",
		Filters: []Filter{
			ROEFilter{Min: orDefault(o.MinROE, 15)},
			FCFYieldFilter{Min: orDefault(o.MinFCFYield, 3)},
			AltmanZFilter{Min: orDefault(o.MinZ, 3.0)},
			ROICFilter{Min: orDefault(o.MinROIC, 12)},
		},
		Weights: contracts.ScoringWeights{Valuation: 0.25, Quality: 0.50, Sentiment: 0.15, Momentum: 0.10},
	}
}

// GARPStrategy balances growth against valuation.
func GARPStrategy(o Overrides) *Strategy {
	return &Strategy{
		Name:        "garp",
		Description: "GARP - 合理价格下的成长",
		Filters: []Filter{
			GrowthRateFilter{Min: orDefault(o.MinGrowth, 10)},
			PEGFilter{Max: orDefault(o.MaxPEG, 1.2)},
			ROEFilter{Min: orDefault(o.MinROE, 12)},
			MarginOfSafetyFilter{Min: orDefault(o.MinMOS, 10)},
		},
		Weights: contracts.ScoringWeights{Valuation: 0.35, Quality: 0.30, Sentiment: 0.15, Momentum: 0.20},
	}
}

// StrategyInfo describes one registered strategy.
type StrategyInfo struct {
	Name           string                   `json:"name"`
	Description    string                   `json:"description"`
	DefaultFilters []string                 `json:"default_filters"`
	Weights        contracts.ScoringWeights `json:"weights"`
}

// StrategyRegistry maps strategy names to builders.
type StrategyRegistry struct {
	builders map[string]func(Overrides) *Strategy
	order    []string
}

// NewStrategyRegistry returns a registry with the five built-in
// strategies.
func NewStrategyRegistry() *StrategyRegistry {
	r := &StrategyRegistry{builders: make(map[string]func(Overrides) *Strategy)}
	r.Register("value", ValueStrategy)
	r.Register("growth", GrowthStrategy)
	r.Register("dividend", DividendStrategy)
	r.Register("quality", QualityStrategy)
	r.Register("garp", GARPStrategy)
	return r
}

// Register adds or replaces a strategy builder.
func (r *StrategyRegistry) Register(name string, builder func(Overrides) *Strategy) {
	if _, exists := r.builders[name]; !exists {
		r.order = append(r.order, name)
	}
	r.builders[name] = builder
}

// Get builds a strategy by name with the given overrides.
func (r *StrategyRegistry) Get(name string, o Overrides) (*Strategy, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, r.Names())
	}
	return builder(o), nil
}

// Names lists registered strategy names in registration order.
func (r *StrategyRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// List describes all registered strategies with their default filters.
func (r *StrategyRegistry) List() []StrategyInfo {
	infos := make([]StrategyInfo, 0, len(r.order))
	for _, name := range r.order {
		st := r.builders[name](Overrides{})
		filters := make([]string, 0, len(st.Filters))
		for _, f := range st.Filters {
			filters = append(filters, f.Name())
		}
		infos = append(infos, StrategyInfo{
			Name:           st.Name,
			Description:    st.Description,
			DefaultFilters: filters,
			Weights:        st.Weights,
		})
	}
	return infos
}
