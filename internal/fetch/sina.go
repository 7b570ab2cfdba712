package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/httputil"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// SinaProvider serves A-share daily price history from the Sina kline
// API and headlines scraped from the Sina Finance news pages.
type SinaProvider struct {
	client  *httputil.Client
	logger  *logger.Logger
	limiter *rate.Limiter

	klineURL string
	newsURL  string
}

// NewSinaProvider creates a Sina provider over the given HTTP client.
// Empty endpoint config falls back to the public APIs.
func NewSinaProvider(cfg config.SinaConfig, client *httputil.Client, log *logger.Logger) *SinaProvider {
	return &SinaProvider{
		client:   client,
		logger:   log.WithField("source", "sina"),
		limiter:  rate.NewLimiter(rate.Limit(10), 2),
		klineURL: endpointOr(cfg.KlineURL, "https://quotes.sina.cn/cn/api/json_v2.php/CN_MarketDataService.getKLineData"),
		newsURL:  endpointOr(cfg.NewsURL, "https://vip.stock.finance.sina.com.cn/corp/go.php/vCB_AllNewsStock/symbol"),
	}
}

func (p *SinaProvider) Source() string { return "sina" }

// sinaSymbol turns 600036 into sh600036.
func sinaSymbol(code string) string {
	return strings.ToLower(AShareExchange(code)) + code
}

func (p *SinaProvider) Stock(ctx context.Context, ticker string) (*contracts.Stock, error) {
	return nil, fmt.Errorf("sina stock: %w", ErrUnsupported)
}

func (p *SinaProvider) History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error) {
	if !IsAShare(ticker) {
		return nil, fmt.Errorf("sina history %q: %w", ticker, ErrUnsupported)
	}
	if days <= 0 {
		days = contracts.TradingDaysPerYear
	}
	code := NormalizeAShare(ticker)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s?symbol=%s&scale=240&ma=no&datalen=%d", p.klineURL, sinaSymbol(code), days)
	resp, err := p.client.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("sina history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina history: unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sina history: read response body failed: %w", err)
	}

	history, err := parseSinaKlines(ticker, body)
	if err != nil {
		return nil, fmt.Errorf("sina history: %w", err)
	}
	if history.Len() == 0 {
		return nil, fmt.Errorf("sina history %q: %w", ticker, ErrNotFound)
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"points": history.Len(),
	}).Debug("Fetched price history")
	return history, nil
}

// parseSinaKlines parses the kline JSON: an array of objects with
// string-valued day/open/high/low/close/volume fields, oldest first.
func parseSinaKlines(ticker string, body []byte) (*contracts.PriceHistory, error) {
	var rows []struct {
		Day   string `json:"day"`
		Close string `json:"close"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	history := &contracts.PriceHistory{Ticker: ticker}
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Day)
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(row.Close, 64)
		if err != nil || closePrice <= 0 {
			continue
		}
		history.Points = append(history.Points, contracts.PricePoint{Date: date, Close: closePrice})
	}
	return history, nil
}

var newsDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}`)

func (p *SinaProvider) News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	if !IsAShare(ticker) {
		return nil, fmt.Errorf("sina news %q: %w", ticker, ErrUnsupported)
	}
	if limit <= 0 {
		limit = 30
	}
	code := NormalizeAShare(ticker)

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fullURL := fmt.Sprintf("%s/%s.phtml", p.newsURL, sinaSymbol(code))
	resp, err := p.client.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("sina news: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina news: unexpected status code: %d", resp.StatusCode)
	}

	items, err := parseSinaNews(ticker, resp.Body, limit)
	if err != nil {
		return nil, fmt.Errorf("sina news: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(items),
	}).Debug("Fetched news")
	return items, nil
}

// parseSinaNews scrapes the headline list. The page interleaves bare
// timestamp text with anchors inside .datelist ul, so anchors and
// timestamps are collected separately and paired by position.
func parseSinaNews(ticker string, r io.Reader, limit int) ([]contracts.NewsItem, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	list := doc.Find(".datelist ul")
	// The page separates date and time with &nbsp;.
	listText := strings.ReplaceAll(list.Text(), "\u00a0", " ")
	dates := newsDateRe.FindAllString(listText, -1)

	var items []contracts.NewsItem
	list.Find("a").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return true
		}

		item := contracts.NewsItem{
			Ticker: ticker,
			Title:  title,
			Source: "sina",
		}
		if href, ok := sel.Attr("href"); ok {
			item.URL = href
		}
		if i < len(dates) {
			if ts, err := time.Parse("2006-01-02 15:04", dates[i]); err == nil {
				item.PublishedAt = ts
			}
		}

		items = append(items, item)
		return len(items) < limit
	})
	return items, nil
}

func (p *SinaProvider) InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error) {
	return nil, fmt.Errorf("sina insider trades: %w", ErrUnsupported)
}
