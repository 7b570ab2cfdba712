package contracts

// Stock holds the fundamentals record for one ticker as returned by a
// data provider. Genuinely optional statement fields use Metric so that
// missing data stays distinguishable from reported zeros; valuation
// assumptions carry defaults set by NewStock.
type Stock struct {
	// Identity
	Ticker   string   `json:"ticker"`
	Name     string   `json:"name"`
	Exchange string   `json:"exchange"`
	Currency string   `json:"currency"`
	Sectors  []string `json:"sectors,omitempty"`

	// Market data
	CurrentPrice      float64 `json:"current_price"`
	SharesOutstanding float64 `json:"shares_outstanding"`

	// Per-share items
	EPS              Metric `json:"eps"`
	BVPS             Metric `json:"bvps"`
	DividendPerShare Metric `json:"dividend_per_share"`

	// Income statement
	Revenue         Metric `json:"revenue"`
	NetIncome       Metric `json:"net_income"`
	EBIT            Metric `json:"ebit"`
	EBITDA          Metric `json:"ebitda"`
	Depreciation    Metric `json:"depreciation"`
	OperatingMargin Metric `json:"operating_margin"` // percent
	TaxRate         Metric `json:"tax_rate"`         // fraction, e.g. 0.25

	// Cash flow
	FCF   Metric `json:"fcf"`
	Capex Metric `json:"capex"`
	SBC   Metric `json:"sbc"` // stock-based compensation

	// Balance sheet
	CurrentAssets     Metric `json:"current_assets"`
	TotalAssets       Metric `json:"total_assets"`
	TotalLiabilities  Metric `json:"total_liabilities"`
	NetDebt           Metric `json:"net_debt"`
	NetWorkingCapital Metric `json:"net_working_capital"`
	NetFixedAssets    Metric `json:"net_fixed_assets"`
	RetainedEarnings  Metric `json:"retained_earnings"`

	// Ratios and growth
	ROE                Metric `json:"roe"`                  // percent
	GrowthRate         Metric `json:"growth_rate"`          // percent, expected EPS growth
	RevenueGrowth      Metric `json:"revenue_growth"`       // percent
	DividendYield      Metric `json:"dividend_yield"`       // percent
	DividendGrowthRate Metric `json:"dividend_growth_rate"` // percent

	// Share count changes (dilution / buybacks)
	SharesIssued      Metric `json:"shares_issued"`
	SharesRepurchased Metric `json:"shares_repurchased"`

	// Valuation assumptions (percent unless noted)
	AAACorporateYield float64 `json:"aaa_corporate_yield"`
	CostOfCapital     float64 `json:"cost_of_capital"`
	DiscountRate      float64 `json:"discount_rate"`
	TerminalGrowth    float64 `json:"terminal_growth"`
	GrowthRate1to5    float64 `json:"growth_rate_1_5"`
	GrowthRate6to10   float64 `json:"growth_rate_6_10"`
}

// NewStock creates a Stock with default valuation assumptions.
func NewStock(ticker string) *Stock {
	return &Stock{
		Ticker:            ticker,
		Exchange:          "SH",
		Currency:          "CNY",
		AAACorporateYield: 2.28,
		CostOfCapital:     10,
		DiscountRate:      10,
		TerminalGrowth:    2,
		GrowthRate1to5:    5,
		GrowthRate6to10:   3,
	}
}

// MarketCap returns price x shares outstanding.
func (s *Stock) MarketCap() float64 {
	return s.CurrentPrice * s.SharesOutstanding
}

// EnterpriseValue returns market cap plus net debt.
func (s *Stock) EnterpriseValue() float64 {
	return s.MarketCap() + s.NetDebt.Float()
}

// PE returns the trailing price/earnings ratio.
func (s *Stock) PE() Metric {
	if !s.EPS.Positive() || s.CurrentPrice <= 0 {
		return Metric{}
	}
	return EstimatedMetric(s.CurrentPrice / s.EPS.Value)
}

// PB returns the price/book ratio.
func (s *Stock) PB() Metric {
	if !s.BVPS.Positive() || s.CurrentPrice <= 0 {
		return Metric{}
	}
	return EstimatedMetric(s.CurrentPrice / s.BVPS.Value)
}

// PayoutRatio returns dividends as a percent of earnings.
func (s *Stock) PayoutRatio() Metric {
	if !s.DividendPerShare.Positive() || !s.EPS.Positive() {
		return Metric{}
	}
	return EstimatedMetric(s.DividendPerShare.Value / s.EPS.Value * 100)
}

// FCFPerShare returns free cash flow per share.
func (s *Stock) FCFPerShare() Metric {
	if !s.FCF.Valid || s.SharesOutstanding <= 0 {
		return Metric{}
	}
	return EstimatedMetric(s.FCF.Value / s.SharesOutstanding)
}

// TrueFCF returns free cash flow reduced by stock-based compensation.
func (s *Stock) TrueFCF() Metric {
	if !s.FCF.Valid {
		return Metric{}
	}
	return EstimatedMetric(s.FCF.Value - s.SBC.Float())
}

// DilutionYield returns shares issued as a percent of shares outstanding.
func (s *Stock) DilutionYield() Metric {
	if !s.SharesIssued.Valid || s.SharesOutstanding <= 0 {
		return Metric{}
	}
	return EstimatedMetric(s.SharesIssued.Value / s.SharesOutstanding * 100)
}

// BuybackYield returns shares repurchased as a percent of shares outstanding.
func (s *Stock) BuybackYield() Metric {
	if !s.SharesRepurchased.Valid || s.SharesOutstanding <= 0 {
		return Metric{}
	}
	return EstimatedMetric(s.SharesRepurchased.Value / s.SharesOutstanding * 100)
}

// HasSector reports whether the stock carries the given sector tag.
func (s *Stock) HasSector(sector string) bool {
	for _, sec := range s.Sectors {
		if sec == sector {
			return true
		}
	}
	return false
}

// IsDividendPayer reports whether the stock pays a meaningful dividend.
func (s *Stock) IsDividendPayer() bool {
	return s.DividendPerShare.Positive() && s.DividendYield.Float() > 1.5
}
