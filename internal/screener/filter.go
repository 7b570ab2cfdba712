// Package screener implements the multi-factor screening pipeline:
// threshold filters over collected metrics, composite scoring, strategy
// presets, and a concurrent driver that processes a ticker list.
package screener

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

// Filter is a stateless pass/fail predicate over a populated screening
// result. Implementations carry their thresholds as struct fields; a
// zero field means the documented default.
type Filter interface {
	// Name returns the registry key for the filter.
	Name() string
	// Description is a one-line human description.
	Description() string
	// Category returns the contracts.Category* the filter belongs to.
	Category() string
	// Apply evaluates the filter against one result.
	Apply(r *contracts.ScreeningResult) contracts.FilterResult
}

// orDefault substitutes fallback for an unset (zero) threshold.
func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

func verdict(f Filter, passed bool, reason string, value, threshold float64) contracts.FilterResult {
	return contracts.FilterResult{
		Name:      f.Name(),
		Passed:    passed,
		Reason:    reason,
		Value:     value,
		Threshold: threshold,
		Category:  f.Category(),
	}
}

// applyRecovered shields the filter chain from a panicking filter.
func applyRecovered(f Filter, r *contracts.ScreeningResult) (fr contracts.FilterResult) {
	defer func() {
		if p := recover(); p != nil {
			fr = contracts.FilterResult{
				Name:     f.Name(),
				Passed:   false,
				Reason:   fmt.Sprintf("Error: %v", p),
				Category: f.Category(),
			}
		}
	}()
	return f.Apply(r)
}

// FilterInfo describes one registered filter.
type FilterInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// FilterRegistry maps filter names to default-configured factories.
// Construct one per consumer; there is no package-level mutable state.
type FilterRegistry struct {
	factories map[string]func() Filter
	order     []string
}

// NewFilterRegistry returns a registry with every built-in filter.
func NewFilterRegistry() *FilterRegistry {
	r := &FilterRegistry{factories: make(map[string]func() Filter)}
	for _, f := range []func() Filter{
		func() Filter { return MarginOfSafetyFilter{} },
		func() Filter { return PEFilter{} },
		func() Filter { return PBFilter{} },
		func() Filter { return PEGFilter{} },
		func() Filter { return UndervaluedMethodsFilter{} },
		func() Filter { return ROEFilter{} },
		func() Filter { return FCFYieldFilter{} },
		func() Filter { return AltmanZFilter{} },
		func() Filter { return ROICFilter{} },
		func() Filter { return OperatingMarginFilter{} },
		func() Filter { return DividendYieldFilter{} },
		func() Filter { return PayoutRatioFilter{} },
		func() Filter { return DividendGrowthFilter{} },
		func() Filter { return NewsSentimentFilter{} },
		func() Filter { return InsiderSentimentFilter{} },
		func() Filter { return GrowthRateFilter{} },
		func() Filter { return RuleOf40Filter{} },
		func() Filter { return CAGRFilter{} },
		func() Filter { return PriceVs52WeekFilter{} },
	} {
		r.Register(f)
	}
	return r
}

// Register adds or replaces a filter factory under its filter's name.
func (r *FilterRegistry) Register(factory func() Filter) {
	name := factory().Name()
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
}

// Get returns a default-configured filter by name.
func (r *FilterRegistry) Get(name string) (Filter, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter %q", name)
	}
	return factory(), nil
}

// List describes all registered filters in registration order.
func (r *FilterRegistry) List() []FilterInfo {
	infos := make([]FilterInfo, 0, len(r.order))
	for _, name := range r.order {
		f := r.factories[name]()
		infos = append(infos, FilterInfo{
			Name:        f.Name(),
			Description: f.Description(),
			Category:    f.Category(),
		})
	}
	return infos
}
