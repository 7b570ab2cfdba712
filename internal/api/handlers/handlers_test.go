package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/internal/fetch"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

type fakeProvider struct {
	name   string
	stocks map[string]*contracts.Stock
}

func (p *fakeProvider) Source() string { return p.name }

func (p *fakeProvider) Stock(_ context.Context, ticker string) (*contracts.Stock, error) {
	s, ok := p.stocks[ticker]
	if !ok {
		return nil, fetch.ErrNotFound
	}
	return s, nil
}

func (p *fakeProvider) History(context.Context, string, int) (*contracts.PriceHistory, error) {
	return nil, errors.New("no history")
}

func (p *fakeProvider) News(context.Context, string, int) ([]contracts.NewsItem, error) {
	return nil, errors.New("no news")
}

func (p *fakeProvider) InsiderTrades(context.Context, string) ([]contracts.InsiderTrade, error) {
	return nil, errors.New("no trades")
}

func testStock(ticker string) *contracts.Stock {
	s := contracts.NewStock(ticker)
	s.Name = "Stock " + ticker
	s.CurrentPrice = 100
	s.SharesOutstanding = 100
	s.EPS = contracts.MetricOf(8)
	s.BVPS = contracts.MetricOf(40)
	s.ROE = contracts.MetricOf(22)
	s.FCF = contracts.MetricOf(500)
	s.NetIncome = contracts.MetricOf(800)
	s.Revenue = contracts.MetricOf(5000)
	s.TotalAssets = contracts.MetricOf(10000)
	s.TotalLiabilities = contracts.MetricOf(4000)
	s.NetWorkingCapital = contracts.MetricOf(1000)
	s.RetainedEarnings = contracts.MetricOf(2000)
	s.EBIT = contracts.MetricOf(900)
	s.OperatingMargin = contracts.MetricOf(18)
	return s
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

func newScreenHandler(provider *fakeProvider) *ScreenHandler {
	log := testLogger()
	return NewScreenHandler(provider, valuation.NewEngine(log), nil, log)
}

func TestScreen(t *testing.T) {
	provider := &fakeProvider{stocks: map[string]*contracts.Stock{
		"AAA": testStock("AAA"),
		"BBB": testStock("BBB"),
	}}
	h := newScreenHandler(provider)

	body, err := json.Marshal(ScreenRequest{
		Tickers:  []string{"AAA", "BBB"},
		Strategy: "quality",
		Overrides: ThresholdParams{
			MinROE:      0.1,
			MinFCFYield: 0.1,
			MinZ:        0.1,
			MinROIC:     0.1,
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Screen(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                      `json:"success"`
		Data    contracts.ScreeningOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Data.Summary.Total)
	assert.Equal(t, 2, resp.Data.Summary.QualifiedCount)
	assert.Equal(t, "quality", resp.Data.Summary.StrategyName)
}

func TestScreen_BadRequests(t *testing.T) {
	h := newScreenHandler(&fakeProvider{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", "{not json", http.StatusBadRequest},
		{"no tickers", `{"tickers":[]}`, http.StatusBadRequest},
		{"unknown strategy", `{"tickers":["AAA"],"strategy":"moonshot"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Screen(rec, req)
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestScreen_SaveWithoutRepo(t *testing.T) {
	provider := &fakeProvider{stocks: map[string]*contracts.Stock{"AAA": testStock("AAA")}}
	h := newScreenHandler(provider)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screen",
		bytes.NewBufferString(`{"tickers":["AAA"],"save":true}`))
	rec := httptest.NewRecorder()
	h.Screen(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetStrategies(t *testing.T) {
	h := newScreenHandler(&fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/strategies", nil)
	rec := httptest.NewRecorder()
	h.GetStrategies(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Strategies []struct {
			Name string `json:"name"`
		} `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	names := make([]string, 0, len(resp.Strategies))
	for _, s := range resp.Strategies {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"value", "growth", "dividend", "quality", "garp"}, names)
}

func newValuationHandler(provider *fakeProvider) *ValuationHandler {
	log := testLogger()
	registry := fetch.NewRegistry()
	registry.Register(provider)
	return NewValuationHandler(registry, valuation.NewEngine(log), log)
}

func valuationRequest(t *testing.T, h *ValuationHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/valuation/{ticker}", h.GetValuation).Methods("GET")
	router.HandleFunc("/api/v1/valuation/{ticker}/methods", h.GetRecommendedMethods).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetValuation(t *testing.T) {
	provider := &fakeProvider{
		name:   "yahoo",
		stocks: map[string]*contracts.Stock{"AAPL": testStock("AAPL")},
	}
	rec := valuationRequest(t, newValuationHandler(provider), "/api/v1/valuation/AAPL")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Ticker       string                      `json:"ticker"`
			CurrentPrice float64                     `json:"current_price"`
			Results      []contracts.ValuationResult `json:"results"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "AAPL", resp.Data.Ticker)
	assert.Equal(t, 100.0, resp.Data.CurrentPrice)
	assert.NotEmpty(t, resp.Data.Results)
}

func TestGetValuation_NotFound(t *testing.T) {
	provider := &fakeProvider{name: "yahoo", stocks: map[string]*contracts.Stock{}}
	rec := valuationRequest(t, newValuationHandler(provider), "/api/v1/valuation/NOPE")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetValuation_NoProviderForMarket(t *testing.T) {
	// A yahoo-only registry cannot route A-share tickers.
	provider := &fakeProvider{name: "yahoo"}
	rec := valuationRequest(t, newValuationHandler(provider), "/api/v1/valuation/600036.SH")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecommendedMethods(t *testing.T) {
	provider := &fakeProvider{
		name:   "yahoo",
		stocks: map[string]*contracts.Stock{"AAPL": testStock("AAPL")},
	}
	rec := valuationRequest(t, newValuationHandler(provider), "/api/v1/valuation/AAPL/methods")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Available   []string `json:"available"`
			Recommended struct {
				Primary []string `json:"primary"`
			} `json:"recommended"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Available)
	assert.NotEmpty(t, resp.Data.Recommended.Primary)
}

func TestRuns_Unavailable(t *testing.T) {
	h := NewRunsHandler(nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	h.ListRuns(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
