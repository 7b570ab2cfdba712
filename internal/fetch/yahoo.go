package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/httputil"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// YahooProvider serves US and international tickers from the Yahoo
// Finance JSON APIs: quoteSummary for fundamentals and insider
// transactions, the chart API for history, and search for headlines.
type YahooProvider struct {
	client  *httputil.Client
	logger  *logger.Logger
	limiter *rate.Limiter

	quoteSummaryURL string
	chartURL        string
	searchURL       string
}

// NewYahooProvider creates a Yahoo Finance provider over the given
// HTTP client. Empty endpoint config falls back to the public APIs.
func NewYahooProvider(cfg config.YahooConfig, client *httputil.Client, log *logger.Logger) *YahooProvider {
	return &YahooProvider{
		client:          client,
		logger:          log.WithField("source", "yahoo"),
		limiter:         rate.NewLimiter(rate.Limit(2), 1),
		quoteSummaryURL: endpointOr(cfg.QuoteSummaryURL, "https://query1.finance.yahoo.com/v10/finance/quoteSummary"),
		chartURL:        endpointOr(cfg.ChartURL, "https://query1.finance.yahoo.com/v8/finance/chart"),
		searchURL:       endpointOr(cfg.SearchURL, "https://query1.finance.yahoo.com/v1/finance/search"),
	}
}

func (p *YahooProvider) Source() string { return "yahoo" }

// yfValue is Yahoo's {raw, fmt} number wrapper.
type yfValue struct {
	Raw float64 `json:"raw"`
}

// metric converts a raw value, treating absent and zero as missing.
func (v *yfValue) metric() contracts.Metric {
	if v == nil || v.Raw == 0 {
		return contracts.Metric{}
	}
	return contracts.MetricOf(v.Raw)
}

// pct converts a raw fraction into a percent metric.
func (v *yfValue) pct() contracts.Metric {
	if v == nil || v.Raw == 0 {
		return contracts.Metric{}
	}
	return contracts.MetricOf(v.Raw * 100)
}

func (v *yfValue) raw() float64 {
	if v == nil {
		return 0
	}
	return v.Raw
}

type yfQuoteResult struct {
	Price *struct {
		LongName           string   `json:"longName"`
		ShortName          string   `json:"shortName"`
		Currency           string   `json:"currency"`
		ExchangeName       string   `json:"exchangeName"`
		RegularMarketPrice *yfValue `json:"regularMarketPrice"`
	} `json:"price"`
	SummaryDetail *struct {
		DividendRate  *yfValue `json:"dividendRate"`
		DividendYield *yfValue `json:"dividendYield"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics *struct {
		SharesOutstanding *yfValue `json:"sharesOutstanding"`
		TrailingEps       *yfValue `json:"trailingEps"`
		BookValue         *yfValue `json:"bookValue"`
		NetIncomeToCommon *yfValue `json:"netIncomeToCommon"`
	} `json:"defaultKeyStatistics"`
	FinancialData *struct {
		TotalRevenue     *yfValue `json:"totalRevenue"`
		Ebitda           *yfValue `json:"ebitda"`
		FreeCashflow     *yfValue `json:"freeCashflow"`
		OperatingMargins *yfValue `json:"operatingMargins"`
		ReturnOnEquity   *yfValue `json:"returnOnEquity"`
		TotalDebt        *yfValue `json:"totalDebt"`
		TotalCash        *yfValue `json:"totalCash"`
		EarningsGrowth   *yfValue `json:"earningsGrowth"`
		RevenueGrowth    *yfValue `json:"revenueGrowth"`
	} `json:"financialData"`
	InsiderTransactions *struct {
		Transactions []struct {
			FilerName       string   `json:"filerName"`
			FilerRelation   string   `json:"filerRelation"`
			TransactionText string   `json:"transactionText"`
			Shares          *yfValue `json:"shares"`
			Value           *yfValue `json:"value"`
			StartDate       *yfValue `json:"startDate"`
		} `json:"transactions"`
	} `json:"insiderTransactions"`
}

func (p *YahooProvider) Stock(ctx context.Context, ticker string) (*contracts.Stock, error) {
	result, err := p.quoteSummary(ctx, ticker, "price,summaryDetail,defaultKeyStatistics,financialData")
	if err != nil {
		return nil, err
	}

	s := contracts.NewStock(ticker)
	s.Exchange = "US"
	s.Currency = "USD"

	if pr := result.Price; pr != nil {
		s.Name = pr.LongName
		if s.Name == "" {
			s.Name = pr.ShortName
		}
		if pr.ExchangeName != "" {
			s.Exchange = pr.ExchangeName
		}
		if pr.Currency != "" {
			s.Currency = pr.Currency
		}
		s.CurrentPrice = pr.RegularMarketPrice.raw()
	}
	if ks := result.DefaultKeyStatistics; ks != nil {
		s.SharesOutstanding = ks.SharesOutstanding.raw()
		s.EPS = ks.TrailingEps.metric()
		s.BVPS = ks.BookValue.metric()
		s.NetIncome = ks.NetIncomeToCommon.metric()
	}
	if fd := result.FinancialData; fd != nil {
		s.Revenue = fd.TotalRevenue.metric()
		s.EBITDA = fd.Ebitda.metric()
		s.FCF = fd.FreeCashflow.metric()
		s.OperatingMargin = fd.OperatingMargins.pct()
		s.ROE = fd.ReturnOnEquity.pct()
		s.GrowthRate = fd.EarningsGrowth.pct()
		s.RevenueGrowth = fd.RevenueGrowth.pct()
		if fd.TotalDebt != nil || fd.TotalCash != nil {
			s.NetDebt = contracts.MetricOf(fd.TotalDebt.raw() - fd.TotalCash.raw())
		}
	}
	if sd := result.SummaryDetail; sd != nil {
		s.DividendPerShare = sd.DividendRate.metric()
		s.DividendYield = sd.DividendYield.pct()
	}
	return s, nil
}

func (p *YahooProvider) History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error) {
	if days <= 0 {
		days = contracts.TradingDaysPerYear
	}

	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", chartRange(days))

	var payload struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Adjclose []struct {
						Adjclose []*float64 `json:"adjclose"`
					} `json:"adjclose"`
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	endpoint := fmt.Sprintf("%s/%s?%s", p.chartURL, url.PathEscape(ticker), params.Encode())
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo history: %w", err)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo history %q: %w", ticker, ErrNotFound)
	}

	result := payload.Chart.Result[0]
	closes := []*float64(nil)
	if len(result.Indicators.Adjclose) > 0 {
		closes = result.Indicators.Adjclose[0].Adjclose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	history := &contracts.PriceHistory{Ticker: ticker}
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		history.Points = append(history.Points, contracts.PricePoint{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	if n := len(history.Points); n > days {
		history.Points = history.Points[n-days:]
	}
	if history.Len() == 0 {
		return nil, fmt.Errorf("yahoo history %q: %w", ticker, ErrNotFound)
	}
	return history, nil
}

// chartRange picks the smallest Yahoo range covering the requested
// trading days.
func chartRange(days int) string {
	switch {
	case days <= contracts.TradingDaysPerYear:
		return "1y"
	case days <= 2*contracts.TradingDaysPerYear:
		return "2y"
	case days <= 5*contracts.TradingDaysPerYear:
		return "5y"
	default:
		return "10y"
	}
}

func (p *YahooProvider) News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	if limit <= 0 {
		limit = 30
	}

	params := url.Values{}
	params.Set("q", ticker)
	params.Set("newsCount", fmt.Sprintf("%d", limit))
	params.Set("quotesCount", "0")

	var payload struct {
		News []struct {
			Title               string `json:"title"`
			Publisher           string `json:"publisher"`
			Link                string `json:"link"`
			ProviderPublishTime int64  `json:"providerPublishTime"`
		} `json:"news"`
	}
	if err := p.getJSON(ctx, p.searchURL+"?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("yahoo news: %w", err)
	}

	items := make([]contracts.NewsItem, 0, len(payload.News))
	for _, n := range payload.News {
		if n.Title == "" {
			continue
		}
		items = append(items, contracts.NewsItem{
			Ticker:      ticker,
			Title:       n.Title,
			Source:      n.Publisher,
			URL:         n.Link,
			PublishedAt: time.Unix(n.ProviderPublishTime, 0).UTC(),
		})
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (p *YahooProvider) InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error) {
	result, err := p.quoteSummary(ctx, ticker, "insiderTransactions")
	if err != nil {
		return nil, err
	}
	if result.InsiderTransactions == nil {
		return nil, nil
	}

	trades := make([]contracts.InsiderTrade, 0, len(result.InsiderTransactions.Transactions))
	for _, tx := range result.InsiderTransactions.Transactions {
		t := contracts.InsiderTrade{
			Ticker:  ticker,
			Insider: tx.FilerName,
			Title:   tx.FilerRelation,
			Type:    classifyTransaction(tx.TransactionText),
			Shares:  tx.Shares.raw(),
			Value:   tx.Value.raw(),
		}
		if ts := tx.StartDate.raw(); ts > 0 {
			t.Date = time.Unix(int64(ts), 0).UTC()
		}
		if t.Shares > 0 && t.Value > 0 {
			t.Price = t.Value / t.Shares
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func classifyTransaction(text string) contracts.TradeType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "purchase"), strings.Contains(lower, "buy"):
		return contracts.TradeBuy
	case strings.Contains(lower, "sale"), strings.Contains(lower, "sell"):
		return contracts.TradeSell
	case strings.Contains(lower, "grant"), strings.Contains(lower, "award"):
		return contracts.TradeGrant
	case strings.Contains(lower, "exercise"), strings.Contains(lower, "conversion"):
		return contracts.TradeExercise
	case strings.Contains(lower, "gift"):
		return contracts.TradeGift
	default:
		return contracts.TradeOther
	}
}

func (p *YahooProvider) quoteSummary(ctx context.Context, ticker, modules string) (*yfQuoteResult, error) {
	params := url.Values{}
	params.Set("modules", modules)

	var payload struct {
		QuoteSummary struct {
			Result []yfQuoteResult `json:"result"`
		} `json:"quoteSummary"`
	}
	endpoint := fmt.Sprintf("%s/%s?%s", p.quoteSummaryURL, url.PathEscape(ticker), params.Encode())
	if err := p.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo quote summary: %w", err)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote summary %q: %w", ticker, ErrNotFound)
	}
	return &payload.QuoteSummary.Result[0], nil
}

func (p *YahooProvider) getJSON(ctx context.Context, fullURL string, dest interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := p.client.Get(ctx, fullURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body failed: %w", err)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return nil
}
