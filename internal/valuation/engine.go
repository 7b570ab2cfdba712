package valuation

import (
	"fmt"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// Canonical method sets. Bank methods lean on book value, dividend
// methods on distributions, growth methods on projections, value
// methods on asset and earnings-power floors.
var (
	DefaultMethods = []string{
		"graham_number", "graham_formula", "ncav", "dcf", "reverse_dcf",
		"epv", "ddm", "two_stage_ddm", "peg", "garp", "magic_formula",
		"owner_earnings", "ev_ebitda", "altman_z",
	}
	BankMethods = []string{
		"graham_number", "pb", "residual_income", "ddm", "two_stage_ddm", "altman_z",
	}
	DividendMethods = []string{
		"ddm", "two_stage_ddm", "graham_number", "graham_formula", "epv", "owner_earnings",
	}
	GrowthMethods = []string{
		"dcf", "reverse_dcf", "peg", "garp", "rule_of_40", "graham_formula",
		"magic_formula", "ev_ebitda",
	}
	ValueMethods = []string{
		"graham_number", "ncav", "epv", "graham_formula", "owner_earnings", "altman_z",
	}
)

// MethodSet resolves a named method set. Unknown names fall back to the
// default set.
func MethodSet(name string) []string {
	switch name {
	case "bank":
		return BankMethods
	case "dividend":
		return DividendMethods
	case "growth":
		return GrowthMethods
	case "value":
		return ValueMethods
	default:
		return DefaultMethods
	}
}

// Engine runs registered valuation methods against a stock.
type Engine struct {
	methods map[string]Method
	order   []string
	logger  *logger.Logger
}

// NewEngine creates an engine with the full built-in method registry.
func NewEngine(log *logger.Logger) *Engine {
	e := &Engine{
		methods: make(map[string]Method),
		logger:  log,
	}
	for _, m := range []Method{
		GrahamNumber{}, GrahamFormula{}, NCAV{}, DCF{}, ReverseDCF{},
		EPV{}, DDM{}, TwoStageDDM{}, PEG{}, GARP{}, RuleOf40{},
		PBValuation{}, ResidualIncome{}, MagicFormula{}, OwnerEarnings{},
		EVEBITDA{}, AltmanZScore{},
	} {
		e.Register(m)
	}
	return e
}

// Register adds or replaces a method under its own name. Replacing lets
// callers install instances with custom assumptions.
func (e *Engine) Register(m Method) {
	if _, exists := e.methods[m.Name()]; !exists {
		e.order = append(e.order, m.Name())
	}
	e.methods[m.Name()] = m
}

// Methods lists registered method names in registration order.
func (e *Engine) Methods() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// RunSingle runs one method by name.
func (e *Engine) RunSingle(s *contracts.Stock, name string) (contracts.ValuationResult, error) {
	m, ok := e.methods[name]
	if !ok {
		return contracts.ValuationResult{}, fmt.Errorf("unknown valuation method %q", name)
	}
	return e.runSafe(s, m), nil
}

// RunMultiple runs the named methods in order. A nil or empty list runs
// the default set. Unknown names produce an error result instead of
// aborting the batch.
func (e *Engine) RunMultiple(s *contracts.Stock, names []string) []contracts.ValuationResult {
	if len(names) == 0 {
		names = DefaultMethods
	}

	results := make([]contracts.ValuationResult, 0, len(names))
	for _, name := range names {
		m, ok := e.methods[name]
		if !ok {
			results = append(results, contracts.ValuationResult{
				Method:       name,
				CurrentPrice: s.CurrentPrice,
				Assessment:   fmt.Sprintf("Error: unknown method %q", name),
				Confidence:   contracts.ConfidenceNA,
			})
			continue
		}
		results = append(results, e.runSafe(s, m))
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":  s.Ticker,
		"methods": len(names),
	}).Debug("Ran valuation methods")

	return results
}

// RunAll runs every registered method.
func (e *Engine) RunAll(s *contracts.Stock) []contracts.ValuationResult {
	return e.RunMultiple(s, e.Methods())
}

// runSafe shields the batch from a panicking method.
func (e *Engine) runSafe(s *contracts.Stock, m Method) (res contracts.ValuationResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(map[string]interface{}{
				"ticker": s.Ticker,
				"method": m.Name(),
				"panic":  fmt.Sprintf("%v", r),
			}).Error("Valuation method panicked")
			res = contracts.ValuationResult{
				Method:       m.Name(),
				CurrentPrice: s.CurrentPrice,
				Assessment:   fmt.Sprintf("Error: %v", r),
				Confidence:   contracts.ConfidenceNA,
			}
		}
	}()
	return m.Value(s)
}

// Recommendation groups methods by suitability for one stock.
type Recommendation struct {
	Primary        []string `json:"primary"`
	Secondary      []string `json:"secondary"`
	NotRecommended []string `json:"not_recommended"`
}

// Recommend picks method sets from the stock's profile: banks get book
// value models, dividend payers get discount models, growers get
// projection models, and cheap earners get the Graham toolkit.
func (e *Engine) Recommend(s *contracts.Stock) Recommendation {
	isBank := false
	for _, sector := range []string{"银行", "Bank", "Financial", "Insurance"} {
		if s.HasSector(sector) {
			isBank = true
			break
		}
	}
	hasDividend := s.IsDividendPayer()
	hasFCF := s.FCF.Positive()
	hasPositiveEarnings := s.EPS.Positive()
	isGrowth := s.GrowthRate.Float() > 10
	isValue := s.PE().Valid && s.PE().Value < 15

	switch {
	case isBank:
		return Recommendation{
			Primary:        []string{"pb", "residual_income", "ddm", "altman_z"},
			Secondary:      []string{"graham_number", "two_stage_ddm"},
			NotRecommended: []string{"dcf", "reverse_dcf", "magic_formula", "rule_of_40"},
		}
	case hasDividend && !isGrowth:
		return Recommendation{
			Primary:        []string{"ddm", "two_stage_ddm", "graham_number", "owner_earnings"},
			Secondary:      []string{"epv", "graham_formula"},
			NotRecommended: []string{"rule_of_40"},
		}
	case isGrowth && hasFCF:
		return Recommendation{
			Primary:        []string{"dcf", "reverse_dcf", "peg", "garp", "ev_ebitda"},
			Secondary:      []string{"graham_formula", "magic_formula"},
			NotRecommended: []string{"ncav", "ddm"},
		}
	case isValue && hasPositiveEarnings:
		return Recommendation{
			Primary:        []string{"graham_number", "graham_formula", "epv", "owner_earnings"},
			Secondary:      []string{"ncav", "magic_formula", "altman_z"},
			NotRecommended: []string{"rule_of_40", "peg"},
		}
	default:
		secondary := []string{"graham_number"}
		if hasFCF {
			secondary = []string{"dcf"}
		}
		return Recommendation{
			Primary:   []string{"graham_formula", "epv"},
			Secondary: secondary,
		}
	}
}

// RunRecommended runs the primary and secondary recommended methods.
func (e *Engine) RunRecommended(s *contracts.Stock) []contracts.ValuationResult {
	rec := e.Recommend(s)
	return e.RunMultiple(s, append(append([]string{}, rec.Primary...), rec.Secondary...))
}

// Summary aggregates a batch of results.
func (e *Engine) Summary(results []contracts.ValuationResult) contracts.ValuationSummary {
	return contracts.Summarize(results)
}
