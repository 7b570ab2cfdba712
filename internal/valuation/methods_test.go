package valuation

import (
	"math"
	"strings"
	"testing"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

func approx(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestGrahamNumber(t *testing.T) {
	s := contracts.NewStock("600519.SH")
	s.CurrentPrice = 40
	s.EPS = contracts.MetricOf(5)
	s.BVPS = contracts.MetricOf(25)

	r := GrahamNumber{}.Value(s)

	approx(t, "FairValue", r.FairValue, 53.03, 0.01)
	approx(t, "PremiumDiscount", r.PremiumDiscount, 32.6, 0.1)
	if r.Assessment != "Undervalued" {
		t.Errorf("Assessment = %q, want Undervalued", r.Assessment)
	}
	if !r.Applicable || !r.IsReliable() {
		t.Error("expected applicable, reliable result")
	}
	if r.FairValueRange == nil || r.FairValueRange.Low >= r.FairValueRange.High {
		t.Errorf("bad range %+v", r.FairValueRange)
	}
}

func TestGrahamNumber_MissingData(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 40

	r := GrahamNumber{}.Value(s)

	if r.Applicable {
		t.Error("result should not be applicable")
	}
	if len(r.MissingFields) != 2 {
		t.Errorf("MissingFields = %v, want eps and bvps", r.MissingFields)
	}
	if r.Confidence != contracts.ConfidenceNA {
		t.Errorf("Confidence = %q, want N/A", r.Confidence)
	}
}

func TestGrahamFormula(t *testing.T) {
	s := contracts.NewStock("TEST") // AAA yield default 2.28
	s.CurrentPrice = 200
	s.EPS = contracts.MetricOf(5)
	s.GrowthRate = contracts.MetricOf(10)

	r := GrahamFormula{}.Value(s)

	// 5 x (8.5 + 20) x 4.4 / 2.28
	approx(t, "FairValue", r.FairValue, 275.0, 0.01)
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High", r.Confidence)
	}
}

func TestGrahamFormula_GrowthClamped(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 200
	s.EPS = contracts.MetricOf(5)
	s.GrowthRate = contracts.MetricOf(35)

	r := GrahamFormula{}.Value(s)

	if r.Details["growth_rate"] != 20 {
		t.Errorf("growth_rate = %v, want clamped 20", r.Details["growth_rate"])
	}
	if r.Details["original_growth"] != 35 {
		t.Errorf("original_growth = %v, want 35", r.Details["original_growth"])
	}
	if r.Confidence != contracts.ConfidenceMedium {
		t.Errorf("Confidence = %q, want Medium after clamping", r.Confidence)
	}
}

func TestNCAV(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 6
	s.SharesOutstanding = 100
	s.CurrentAssets = contracts.MetricOf(2000)
	s.TotalLiabilities = contracts.MetricOf(800)

	r := NCAV{}.Value(s)

	approx(t, "FairValue", r.FairValue, 12, 0.01)
	approx(t, "liquidating_value", r.Details["liquidating_value"], 9, 0.01)
	approx(t, "buy_target", r.Details["buy_target"], 8.04, 0.01)
	if !r.Applicable {
		t.Error("positive NCAV should be applicable")
	}
}

func TestNCAV_Negative(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 6
	s.SharesOutstanding = 100
	s.CurrentAssets = contracts.MetricOf(500)
	s.TotalLiabilities = contracts.MetricOf(800)

	r := NCAV{}.Value(s)

	if r.Applicable {
		t.Error("negative NCAV should be limited")
	}
}

func TestDCF_ZeroGrowthPerpetuity(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 80
	s.SharesOutstanding = 100
	s.FCF = contracts.MetricOf(1000)
	s.NetDebt = contracts.MetricOf(0)
	s.GrowthRate1to5 = 0
	s.GrowthRate6to10 = 0
	s.TerminalGrowth = 0
	// DiscountRate stays at the default 10%

	r := DCF{}.Value(s)

	// Constant 1000 at 10% discount is a 10000 perpetuity
	approx(t, "FairValue", r.FairValue, 100, 0.01)
	approx(t, "PremiumDiscount", r.PremiumDiscount, 25, 0.1)
	if r.Assessment != "Undervalued" {
		t.Errorf("Assessment = %q, want Undervalued", r.Assessment)
	}
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High with low terminal share", r.Confidence)
	}
}

func TestDCF_Errors(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 80
	s.SharesOutstanding = 100
	s.FCF = contracts.MetricOf(-100)

	r := DCF{}.Value(s)
	if r.Applicable || !strings.Contains(r.Assessment, "positive") {
		t.Errorf("negative FCF should fail, got %q", r.Assessment)
	}

	s.FCF = contracts.MetricOf(1000)
	s.DiscountRate = 2
	s.TerminalGrowth = 2
	r = DCF{}.Value(s)
	if r.Applicable || !strings.Contains(r.Assessment, "terminal growth") {
		t.Errorf("r <= g should fail, got %q", r.Assessment)
	}
}

func TestReverseDCF(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 100
	s.SharesOutstanding = 100
	s.FCF = contracts.MetricOf(1000)
	s.NetDebt = contracts.MetricOf(0)

	r := ReverseDCF{}.Value(s)

	if r.FairValue != s.CurrentPrice || r.PremiumDiscount != 0 {
		t.Errorf("reverse DCF should pin fair value to price, got %v", r.FairValue)
	}
	if r.Assessment != "Priced in growth" {
		t.Errorf("Assessment = %q", r.Assessment)
	}
	if r.Details["converged"] != 1 {
		t.Error("expected convergence")
	}
	if !r.Applicable {
		t.Error("converged result should be applicable")
	}
}

func TestDDM(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 40
	s.DividendPerShare = contracts.MetricOf(2)
	s.DividendGrowthRate = contracts.MetricOf(5)
	// cost of capital default 10%

	r := DDM{}.Value(s)

	// 2 x 1.05 / (0.10 - 0.05) = 42
	approx(t, "FairValue", r.FairValue, 42, 0.01)
	if r.Assessment != "Fair" {
		t.Errorf("Assessment = %q, want Fair", r.Assessment)
	}
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High", r.Confidence)
	}
}

func TestDDM_GrowthExceedsReturn(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 40
	s.DividendPerShare = contracts.MetricOf(2)
	s.DividendGrowthRate = contracts.MetricOf(12)

	r := DDM{}.Value(s)
	if r.Applicable {
		t.Error("g >= r must not produce a value")
	}
}

func TestTwoStageDDM(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 40
	s.DividendPerShare = contracts.MetricOf(2)

	r := TwoStageDDM{}.Value(s)

	if r.FairValue <= 0 || !r.Applicable {
		t.Fatalf("expected a value, got %+v", r)
	}
	if r.Details["stage1_growth"] != 5 || r.Details["stage2_growth"] != 2 {
		t.Errorf("default stages = %v/%v, want 5/2",
			r.Details["stage1_growth"], r.Details["stage2_growth"])
	}
}

func TestPEG(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 100
	s.EPS = contracts.MetricOf(5)
	s.GrowthRate = contracts.MetricOf(20)

	r := PEG{}.Value(s)

	approx(t, "peg_ratio", r.Details["peg_ratio"], 1.0, 0.001)
	approx(t, "FairValue", r.FairValue, 100, 0.01)
	if r.Assessment != "Fair" {
		t.Errorf("Assessment = %q, want Fair at PEG 1.0", r.Assessment)
	}
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High", r.Confidence)
	}
}

func TestPEG_NegativeGrowth(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 100
	s.EPS = contracts.MetricOf(5)
	s.GrowthRate = contracts.MetricOf(-3)

	r := PEG{}.Value(s)
	if r.Applicable {
		t.Error("negative growth should fail PEG")
	}
}

func TestGARP(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 80
	s.EPS = contracts.MetricOf(5)
	s.GrowthRate = contracts.MetricOf(10)

	r := GARP{}.Value(s)

	// 5 x 1.1^5 x 18 / 1.12^5
	approx(t, "FairValue", r.FairValue, 82.24, 0.05)
	if !r.Applicable {
		t.Error("expected applicable result")
	}
}

func TestRuleOf40(t *testing.T) {
	tests := []struct {
		name   string
		growth float64
		fcf    float64
		want   string
	}{
		{"excellent", 40, 150, "Excellent"},
		{"healthy", 30, 150, "Healthy"},
		{"acceptable", 20, 150, "Acceptable"},
		{"weak", 10, 150, "Weak"},
		{"poor", 2, 50, "Poor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := contracts.NewStock("TEST")
			s.CurrentPrice = 50
			s.Revenue = contracts.MetricOf(1000)
			s.GrowthRate = contracts.MetricOf(tt.growth)
			s.FCF = contracts.MetricOf(tt.fcf)

			r := RuleOf40{}.Value(s)
			if r.Assessment != tt.want {
				t.Errorf("Assessment = %q, want %q (score %v)", r.Assessment, tt.want, r.Details["score"])
			}
			if r.FairValue != s.CurrentPrice || r.PremiumDiscount != 0 {
				t.Error("Rule of 40 must not produce a price target")
			}
		})
	}
}

func TestEVEBITDA(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 75
	s.SharesOutstanding = 100
	s.EBITDA = contracts.MetricOf(1000)
	s.NetDebt = contracts.MetricOf(2000)

	r := EVEBITDA{}.Value(s)

	// Fair EV 10000 less net debt 2000 over 100 shares
	approx(t, "FairValue", r.FairValue, 80, 0.01)
	approx(t, "current_ev_ebitda", r.Details["current_ev_ebitda"], 9.5, 0.01)
	if r.Details["fair_ev_ebitda_multiple"] != 10 {
		t.Errorf("fair multiple = %v, want default 10", r.Details["fair_ev_ebitda_multiple"])
	}
	if r.Assessment != "Fair" {
		t.Errorf("Assessment = %q, want Fair", r.Assessment)
	}
}

func TestPBValuation(t *testing.T) {
	s := contracts.NewStock("601398.SH")
	s.CurrentPrice = 12
	s.BVPS = contracts.MetricOf(10)
	s.ROE = contracts.MetricOf(15)

	r := PBValuation{}.Value(s)

	// Fair P/B = (0.15 - 0.02) / (0.10 - 0.02) = 1.625
	approx(t, "fair_pb", r.Details["fair_pb"], 1.63, 0.01)
	approx(t, "FairValue", r.FairValue, 16.25, 0.01)
	if r.Assessment != "Undervalued" {
		t.Errorf("Assessment = %q, want Undervalued", r.Assessment)
	}
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High when ROE > COE", r.Confidence)
	}
}

func TestResidualIncome_ROEAtCost(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 10
	s.BVPS = contracts.MetricOf(10)
	s.ROE = contracts.MetricOf(10)

	r := ResidualIncome{}.Value(s)

	// ROE equal to COE earns nothing above book, terminal ROE 8% adds nothing
	approx(t, "FairValue", r.FairValue, 10, 0.01)
	if r.Confidence != contracts.ConfidenceMedium {
		t.Errorf("Confidence = %q, want Medium", r.Confidence)
	}
}

func TestMagicFormula(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 50
	s.SharesOutstanding = 100
	s.EBIT = contracts.MetricOf(1000)
	s.NetDebt = contracts.MetricOf(1000)
	s.NetFixedAssets = contracts.MetricOf(3000)
	s.NetWorkingCapital = contracts.MetricOf(1000)

	r := MagicFormula{}.Value(s)

	// EV = 5000 + 1000, EY = 16.67%, ROC = 25%
	approx(t, "earnings_yield", r.Details["earnings_yield"], 16.67, 0.01)
	approx(t, "return_on_capital", r.Details["return_on_capital"], 25, 0.01)
	approx(t, "FairValue", r.FairValue, 90, 0.01)
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High when both criteria pass", r.Confidence)
	}
}

func TestMagicFormula_EBITFromMargin(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 50
	s.SharesOutstanding = 100
	s.Revenue = contracts.MetricOf(5000)
	s.OperatingMargin = contracts.MetricOf(20)
	s.NetFixedAssets = contracts.MetricOf(3000)
	s.NetWorkingCapital = contracts.MetricOf(1000)

	r := MagicFormula{}.Value(s)
	approx(t, "ebit", r.Details["ebit"], 1000, 0.01)
}

func TestOwnerEarnings(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 70
	s.SharesOutstanding = 100
	s.NetIncome = contracts.MetricOf(1000)
	s.Revenue = contracts.MetricOf(2000)
	s.Depreciation = contracts.MetricOf(100)
	s.Capex = contracts.MetricOf(-200)

	r := OwnerEarnings{}.Value(s)

	// OE = 1000 + 100 - 140 - 20 = 940, 9.4/share at 10% both ways
	approx(t, "owner_earnings", r.Details["owner_earnings"], 940, 0.01)
	approx(t, "FairValue", r.FairValue, 94, 0.01)
	approx(t, "earnings_quality", r.Details["earnings_quality"], 0.94, 0.001)
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High", r.Confidence)
	}
}

func TestOwnerEarnings_Negative(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 70
	s.SharesOutstanding = 100
	s.NetIncome = contracts.MetricOf(10)
	s.Revenue = contracts.MetricOf(10000)
	s.Capex = contracts.MetricOf(-5000)

	r := OwnerEarnings{}.Value(s)
	if r.Applicable {
		t.Error("negative owner earnings must not be applicable")
	}
}

func TestAltmanZScore(t *testing.T) {
	s := contracts.NewStock("TEST")
	s.CurrentPrice = 50
	s.SharesOutstanding = 100
	s.TotalAssets = contracts.MetricOf(10000)
	s.TotalLiabilities = contracts.MetricOf(4000)
	s.NetWorkingCapital = contracts.MetricOf(2000)
	s.RetainedEarnings = contracts.MetricOf(3000)
	s.EBIT = contracts.MetricOf(1500)
	s.Revenue = contracts.MetricOf(8000)

	r := AltmanZScore{}.Value(s)

	// 1.2(.2) + 1.4(.3) + 3.3(.15) + 0.6(1.25) + 1.0(.8) = 2.705
	approx(t, "z_score", r.Details["z_score"], 2.71, 0.01)
	if r.Assessment != "Moderate Bankruptcy Risk" {
		t.Errorf("Assessment = %q, want grey zone", r.Assessment)
	}
	if r.Confidence != contracts.ConfidenceHigh {
		t.Errorf("Confidence = %q, want High with no estimates", r.Confidence)
	}
	if r.FairValue != s.CurrentPrice || r.PremiumDiscount != 0 {
		t.Error("Z-score must not produce a price target")
	}
}

func TestAnalyzeBankHealth(t *testing.T) {
	h := AnalyzeBankHealth(0.9, 260, 17, 16)

	if h.TotalScore != 12 {
		t.Errorf("TotalScore = %v, want 12", h.TotalScore)
	}
	if h.Overall != "Excellent" {
		t.Errorf("Overall = %q, want Excellent", h.Overall)
	}

	weak := AnalyzeBankHealth(3.5, 90, 9, 5)
	if weak.Overall != "Concern" {
		t.Errorf("Overall = %q, want Concern", weak.Overall)
	}
}
