package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/httputil"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// quote fields: price, EPS, code, name, shares, BVPS, net income,
// ROE, revenue, operating margin
const emQuoteFields = "f43,f55,f57,f58,f84,f92,f105,f173,f183,f187"

// EastmoneyProvider serves A-share fundamentals and insider trades
// from the Eastmoney JSON APIs. History and news come from other
// sources.
type EastmoneyProvider struct {
	client  *httputil.Client
	logger  *logger.Logger
	limiter *rate.Limiter

	quoteURL      string
	datacenterURL string
}

// NewEastmoneyProvider creates an Eastmoney provider over the given
// HTTP client. Empty endpoint config falls back to the public APIs.
func NewEastmoneyProvider(cfg config.EastmoneyConfig, client *httputil.Client, log *logger.Logger) *EastmoneyProvider {
	return &EastmoneyProvider{
		client:        client,
		logger:        log.WithField("source", "eastmoney"),
		limiter:       rate.NewLimiter(rate.Limit(5), 1),
		quoteURL:      endpointOr(cfg.QuoteURL, "https://push2.eastmoney.com/api/qt/stock/get"),
		datacenterURL: endpointOr(cfg.DatacenterURL, "https://datacenter-web.eastmoney.com/api/data/v1/get"),
	}
}

func (p *EastmoneyProvider) Source() string { return "eastmoney" }

// secid prefixes the code with the Eastmoney market id: 1 for
// Shanghai, 0 for Shenzhen and Beijing.
func secid(code string) string {
	if AShareExchange(code) == "SH" {
		return "1." + code
	}
	return "0." + code
}

func (p *EastmoneyProvider) Stock(ctx context.Context, ticker string) (*contracts.Stock, error) {
	if !IsAShare(ticker) {
		return nil, fmt.Errorf("eastmoney stock %q: %w", ticker, ErrUnsupported)
	}
	code := NormalizeAShare(ticker)

	quote, err := p.fetchQuote(ctx, code)
	if err != nil {
		return nil, err
	}

	s := contracts.NewStock(ticker)
	s.Exchange = AShareExchange(code)
	s.Currency = "CNY"
	s.Name = emString(quote, "f58")
	s.CurrentPrice = emFloat(quote, "f43") / 100
	s.SharesOutstanding = emFloat(quote, "f84")
	setMetric(&s.EPS, emFloat(quote, "f55"))
	setMetric(&s.BVPS, emFloat(quote, "f92"))
	setMetric(&s.NetIncome, emFloat(quote, "f105"))
	setMetric(&s.ROE, emFloat(quote, "f173")/100)
	setMetric(&s.Revenue, emFloat(quote, "f183"))
	setMetric(&s.OperatingMargin, emFloat(quote, "f187")/100)

	// The quote endpoint has no balance sheet; the finance report
	// fills the rest. Failure there only costs detail.
	if err := p.fillFinance(ctx, code, s); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Debug("Finance report unavailable")
	}
	return s, nil
}

func (p *EastmoneyProvider) fetchQuote(ctx context.Context, code string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("secid", secid(code))
	params.Set("fields", emQuoteFields)

	var payload struct {
		Data map[string]interface{} `json:"data"`
	}
	if err := p.getJSON(ctx, p.quoteURL, params, &payload); err != nil {
		return nil, fmt.Errorf("eastmoney quote: %w", err)
	}
	if payload.Data == nil {
		return nil, fmt.Errorf("eastmoney quote %q: %w", code, ErrNotFound)
	}
	return payload.Data, nil
}

// fillFinance merges the latest main financial indicators into s.
// Quote-level values win over report values.
func (p *EastmoneyProvider) fillFinance(ctx context.Context, code string, s *contracts.Stock) error {
	params := url.Values{}
	params.Set("reportName", "RPT_F10_FINANCE_MAINFINADATA")
	params.Set("columns", "ALL")
	params.Set("filter", fmt.Sprintf(`(SECUCODE="%s.%s")`, code, AShareExchange(code)))
	params.Set("pageSize", "1")
	params.Set("sortColumns", "REPORT_DATE")
	params.Set("sortTypes", "-1")

	rows, err := p.fetchDatacenter(ctx, params)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("eastmoney finance %q: %w", code, ErrNotFound)
	}

	row := rows[0]
	setMetric(&s.EPS, emFloat(row, "EPSJB"))
	setMetric(&s.BVPS, emFloat(row, "BPS"))
	setMetric(&s.ROE, emFloat(row, "ROEJQ"))
	setMetric(&s.Revenue, emFloat(row, "TOTALOPERATEREVE"))
	setMetric(&s.NetIncome, emFloat(row, "PARENTNETPROFIT"))
	setMetric(&s.RevenueGrowth, emFloat(row, "TOTALOPERATEREVETZ"))
	setMetric(&s.GrowthRate, emFloat(row, "PARENTNETPROFITTZ"))
	setMetric(&s.TotalAssets, emFloat(row, "TOTAL_ASSETS"))
	setMetric(&s.TotalLiabilities, emFloat(row, "TOTAL_LIABILITIES"))
	setMetric(&s.DividendPerShare, emFloat(row, "PER_DIVIDEND"))
	return nil
}

func (p *EastmoneyProvider) History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error) {
	return nil, fmt.Errorf("eastmoney history: %w", ErrUnsupported)
}

func (p *EastmoneyProvider) News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	return nil, fmt.Errorf("eastmoney news: %w", ErrUnsupported)
}

func (p *EastmoneyProvider) InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error) {
	if !IsAShare(ticker) {
		return nil, fmt.Errorf("eastmoney insider trades %q: %w", ticker, ErrUnsupported)
	}
	code := NormalizeAShare(ticker)

	params := url.Values{}
	params.Set("reportName", "RPT_EXECUTIVE_HOLD_DETAILS")
	params.Set("columns", "ALL")
	params.Set("filter", fmt.Sprintf(`(SECURITY_CODE="%s")`, code))
	params.Set("pageSize", "100")
	params.Set("sortColumns", "CHANGE_DATE")
	params.Set("sortTypes", "-1")

	rows, err := p.fetchDatacenter(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("eastmoney insider trades: %w", err)
	}

	trades := make([]contracts.InsiderTrade, 0, len(rows))
	for _, row := range rows {
		shares := emFloat(row, "CHANGE_SHARES")
		if shares == 0 {
			continue
		}
		price := emFloat(row, "AVERAGE_PRICE")

		t := contracts.InsiderTrade{
			Ticker:  ticker,
			Insider: emString(row, "PERSON_NAME"),
			Title:   emString(row, "POSITION_NAME"),
			Price:   price,
			Date:    parseEmDate(emString(row, "CHANGE_DATE")),
		}
		if shares > 0 {
			t.Type = contracts.TradeBuy
			t.Shares = shares
		} else {
			t.Type = contracts.TradeSell
			t.Shares = -shares
		}
		t.Value = t.Shares * price
		trades = append(trades, t)
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(trades),
	}).Debug("Fetched insider trades")
	return trades, nil
}

func (p *EastmoneyProvider) fetchDatacenter(ctx context.Context, params url.Values) ([]map[string]interface{}, error) {
	var payload struct {
		Success bool `json:"success"`
		Result  *struct {
			Data []map[string]interface{} `json:"data"`
		} `json:"result"`
	}
	if err := p.getJSON(ctx, p.datacenterURL, params, &payload); err != nil {
		return nil, err
	}
	if !payload.Success || payload.Result == nil {
		return nil, nil
	}
	return payload.Result.Data, nil
}

func (p *EastmoneyProvider) getJSON(ctx context.Context, base string, params url.Values, dest interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := p.client.Get(ctx, base+"?"+params.Encode())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

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

// emFloat reads a numeric field that may arrive as a number, a
// numeric string, or a "-" placeholder for missing.
func emFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func emString(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func parseEmDate(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// setMetric fills dst from a source value, treating zero as missing
// and never overwriting an already-filled metric.
func setMetric(dst *contracts.Metric, v float64) {
	if v != 0 && !dst.Valid {
		*dst = contracts.MetricOf(v)
	}
}
