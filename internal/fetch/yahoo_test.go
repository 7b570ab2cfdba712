package fetch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/httputil"
)

const yfQuoteSummaryFixture = `{"quoteSummary":{"result":[{
	"price":{
		"longName":"Apple Inc.","currency":"USD","exchangeName":"NasdaqGS",
		"regularMarketPrice":{"raw":231.5}
	},
	"summaryDetail":{
		"dividendRate":{"raw":1.0},
		"dividendYield":{"raw":0.0043}
	},
	"defaultKeyStatistics":{
		"sharesOutstanding":{"raw":15300000000},
		"trailingEps":{"raw":6.57},
		"bookValue":{"raw":4.38},
		"netIncomeToCommon":{"raw":100389000000}
	},
	"financialData":{
		"totalRevenue":{"raw":391035000000},
		"ebitda":{"raw":134661000000},
		"freeCashflow":{"raw":108807000000},
		"operatingMargins":{"raw":0.3151},
		"returnOnEquity":{"raw":1.474},
		"totalDebt":{"raw":106629000000},
		"totalCash":{"raw":65171000000},
		"earningsGrowth":{"raw":0.101},
		"revenueGrowth":{"raw":0.061}
	}
}],"error":null}}`

const yfInsiderFixture = `{"quoteSummary":{"result":[{
	"insiderTransactions":{"transactions":[
		{"filerName":"COOK TIMOTHY D","filerRelation":"Chief Executive Officer",
		 "transactionText":"Sale at price 225.00 per share.",
		 "shares":{"raw":200000},"value":{"raw":45000000},"startDate":{"raw":1754956800}},
		{"filerName":"LEVINSON ARTHUR D","filerRelation":"Director",
		 "transactionText":"Purchase at price 210.00 per share.",
		 "shares":{"raw":1000},"value":{"raw":210000},"startDate":{"raw":1752278400}}
	]}
}],"error":null}}`

const yfChartFixture = `{"chart":{"result":[{
	"timestamp":[1755475200,1755561600,1755648000],
	"indicators":{
		"adjclose":[{"adjclose":[230.1,null,231.5]}],
		"quote":[{"close":[230.2,230.9,231.6]}]
	}
}],"error":null}}`

const yfSearchFixture = `{"news":[
	{"title":"Apple beats expectations on record services revenue",
	 "publisher":"Reuters","link":"https://example.com/n1","providerPublishTime":1755648000},
	{"title":"Analysts weigh iPhone demand outlook",
	 "publisher":"Bloomberg","link":"https://example.com/n2","providerPublishTime":1755561600}
]}`

func newYahooTestProvider(t *testing.T, handler http.HandlerFunc) *YahooProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p := NewYahooProvider(config.YahooConfig{}, httputil.New(&config.Config{}, newTestLogger()), newTestLogger())
	p.quoteSummaryURL = server.URL + "/quoteSummary"
	p.chartURL = server.URL + "/chart"
	p.searchURL = server.URL + "/search"
	return p
}

func TestYahooStock(t *testing.T) {
	p := newYahooTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/quoteSummary/AAPL") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, yfQuoteSummaryFixture)
	})

	s, err := p.Stock(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}

	if s.Name != "Apple Inc." || s.Exchange != "NasdaqGS" || s.Currency != "USD" {
		t.Errorf("identity = %q/%q/%q", s.Name, s.Exchange, s.Currency)
	}
	if s.CurrentPrice != 231.5 || s.SharesOutstanding != 15.3e9 {
		t.Errorf("market = %v/%v", s.CurrentPrice, s.SharesOutstanding)
	}
	if s.EPS.Float() != 6.57 || s.BVPS.Float() != 4.38 {
		t.Errorf("per-share = %v/%v", s.EPS.Float(), s.BVPS.Float())
	}

	// Fractions become percents.
	if math.Abs(s.OperatingMargin.Float()-31.51) > 1e-9 {
		t.Errorf("operating margin = %v, want 31.51", s.OperatingMargin.Float())
	}
	if math.Abs(s.ROE.Float()-147.4) > 1e-9 {
		t.Errorf("ROE = %v, want 147.4", s.ROE.Float())
	}
	if math.Abs(s.DividendYield.Float()-0.43) > 1e-9 {
		t.Errorf("dividend yield = %v, want 0.43", s.DividendYield.Float())
	}

	// Net debt = total debt - total cash.
	if s.NetDebt.Float() != 106629000000-65171000000 {
		t.Errorf("net debt = %v", s.NetDebt.Float())
	}
	if s.FCF.Float() != 108807000000 {
		t.Errorf("FCF = %v", s.FCF.Float())
	}
}

func TestYahooStock_NotFound(t *testing.T) {
	p := newYahooTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"quoteSummary":{"result":[],"error":{"code":"Not Found"}}}`)
	})

	if _, err := p.Stock(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestYahooHistory(t *testing.T) {
	p := newYahooTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("range") != "1y" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, yfChartFixture)
	})

	h, err := p.History(context.Background(), "AAPL", 252)
	if err != nil {
		t.Fatal(err)
	}

	// The null adjclose is skipped.
	if h.Len() != 2 {
		t.Fatalf("points = %d, want 2", h.Len())
	}
	if h.Points[0].Close != 230.1 || h.Points[1].Close != 231.5 {
		t.Errorf("closes = %v/%v", h.Points[0].Close, h.Points[1].Close)
	}
}

func TestChartRange(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{100, "1y"},
		{252, "1y"},
		{500, "2y"},
		{756, "5y"},
		{2600, "10y"},
	}

	for _, tt := range tests {
		if got := chartRange(tt.days); got != tt.want {
			t.Errorf("chartRange(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestYahooNews(t *testing.T) {
	p := newYahooTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, yfSearchFixture)
	})

	items, err := p.News(context.Background(), "AAPL", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Source != "Reuters" || items[0].PublishedAt.IsZero() {
		t.Errorf("first item = %+v", items[0])
	}
}

func TestYahooInsiderTrades(t *testing.T) {
	p := newYahooTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("modules") != "insiderTransactions" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, yfInsiderFixture)
	})

	trades, err := p.InsiderTrades(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(trades))
	}

	sell := trades[0]
	if !sell.IsSell() || sell.Shares != 200000 || sell.Value != 45000000 {
		t.Errorf("sell = %+v", sell)
	}
	if !sell.IsKeyInsider() {
		t.Error("CEO sale should be flagged as key insider")
	}
	if sell.Price != 225 {
		t.Errorf("derived price = %v, want 225", sell.Price)
	}

	buy := trades[1]
	if !buy.IsBuy() || buy.Shares != 1000 {
		t.Errorf("buy = %+v", buy)
	}
}

func TestClassifyTransaction(t *testing.T) {
	tests := []struct {
		text string
		want contracts.TradeType
	}{
		{"Sale at price 225.00 per share.", contracts.TradeSell},
		{"Purchase at price 210.00 per share.", contracts.TradeBuy},
		{"Stock Award (Grant)", contracts.TradeGrant},
		{"Exercise of stock options", contracts.TradeExercise},
		{"Gift of 500 shares", contracts.TradeGift},
		{"", contracts.TradeOther},
	}

	for _, tt := range tests {
		if got := classifyTransaction(tt.text); got != tt.want {
			t.Errorf("classifyTransaction(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
