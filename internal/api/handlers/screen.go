package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/valueinvest/valueinvest/internal/screener"
	"github.com/valueinvest/valueinvest/internal/storage"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// ScreenHandler handles screening API endpoints
type ScreenHandler struct {
	provider screener.DataProvider
	engine   *valuation.Engine
	repo     *storage.Repository // nil when persistence is not configured
	logger   *logger.Logger
}

// NewScreenHandler creates a new screening handler
func NewScreenHandler(provider screener.DataProvider, engine *valuation.Engine, repo *storage.Repository, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		provider: provider,
		engine:   engine,
		repo:     repo,
		logger:   log,
	}
}

// ScreenRequest is the body of POST /api/v1/screen and the first
// message on the screening websocket.
type ScreenRequest struct {
	Tickers        []string        `json:"tickers"`
	Strategy       string          `json:"strategy"`
	Workers        int             `json:"workers"`
	IncludeNews    bool            `json:"include_news"`
	IncludeInsider bool            `json:"include_insider"`
	Save           bool            `json:"save"`
	Overrides      ThresholdParams `json:"overrides"`
}

// ThresholdParams overrides individual filter thresholds. Zero fields
// keep the strategy's defaults.
type ThresholdParams struct {
	MinMOS            float64 `json:"min_mos"`
	MinROE            float64 `json:"min_roe"`
	MinFCFYield       float64 `json:"min_fcf_yield"`
	MinZ              float64 `json:"min_z"`
	MaxPE             float64 `json:"max_pe"`
	MaxPB             float64 `json:"max_pb"`
	MinDividendYield  float64 `json:"min_dividend_yield"`
	MaxPayout         float64 `json:"max_payout"`
	MinDividendGrowth float64 `json:"min_dividend_growth"`
	MinGrowth         float64 `json:"min_growth"`
	MaxPEG            float64 `json:"max_peg"`
	MinRule40         float64 `json:"min_rule40"`
	MinROIC           float64 `json:"min_roic"`
}

func (p ThresholdParams) overrides() screener.Overrides {
	return screener.Overrides{
		MinMOS:            p.MinMOS,
		MinROE:            p.MinROE,
		MinFCFYield:       p.MinFCFYield,
		MinZ:              p.MinZ,
		MaxPE:             p.MaxPE,
		MaxPB:             p.MaxPB,
		MinDividendYield:  p.MinDividendYield,
		MaxPayout:         p.MaxPayout,
		MinDividendGrowth: p.MinDividendGrowth,
		MinGrowth:         p.MinGrowth,
		MaxPEG:            p.MaxPEG,
		MinRule40:         p.MinRule40,
		MinROIC:           p.MinROIC,
	}
}

func (req ScreenRequest) screenerRequest() screener.Request {
	return screener.Request{
		Tickers:        req.Tickers,
		Strategy:       req.Strategy,
		Overrides:      req.Overrides.overrides(),
		Workers:        req.Workers,
		IncludeNews:    req.IncludeNews,
		IncludeInsider: req.IncludeInsider,
	}
}

// Screen runs a screening request and returns the full output
// POST /api/v1/screen
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Tickers) == 0 {
		respondError(w, http.StatusBadRequest, "No tickers provided")
		return
	}

	pipeline := screener.NewPipeline(h.provider, h.engine, h.logger)
	out, err := pipeline.Screen(r.Context(), req.screenerRequest())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var runID int64
	if req.Save {
		if h.repo == nil {
			respondError(w, http.StatusServiceUnavailable, "Persistence is not configured")
			return
		}
		runID, err = h.repo.SaveRun(r.Context(), out)
		if err != nil {
			h.logger.WithError(err).Error("Failed to save screening run")
			respondError(w, http.StatusInternalServerError, "Failed to save run")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"run_id":  runID,
		"data":    out,
	})
}

// GetStrategies lists the available screening strategies
// GET /api/v1/strategies
func (h *ScreenHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	registry := screener.NewStrategyRegistry()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"strategies": registry.List(),
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsEvent is one message on the screening websocket.
type wsEvent struct {
	Type      string      `json:"type"` // progress, result, error
	Ticker    string      `json:"ticker,omitempty"`
	Qualified bool        `json:"qualified,omitempty"`
	Completed int         `json:"completed,omitempty"`
	Total     int         `json:"total,omitempty"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// ScreenWS runs a screening request over a websocket, streaming one
// progress event per finished ticker before the final result
// GET /api/v1/screen/ws
func (h *ScreenHandler) ScreenWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade websocket")
		return
	}
	defer conn.Close()

	var req ScreenRequest
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(wsEvent{Type: "error", Error: "Invalid request message"})
		return
	}
	if len(req.Tickers) == 0 {
		conn.WriteJSON(wsEvent{Type: "error", Error: "No tickers provided"})
		return
	}

	var mu sync.Mutex
	var completed int
	total := len(req.Tickers)

	pipeline := screener.NewPipeline(h.provider, h.engine, h.logger)
	pipeline.OnStockComplete(func(ticker string, qualified bool) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		conn.WriteJSON(wsEvent{
			Type:      "progress",
			Ticker:    ticker,
			Qualified: qualified,
			Completed: completed,
			Total:     total,
		})
	})

	out, err := pipeline.Screen(r.Context(), req.screenerRequest())

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		conn.WriteJSON(wsEvent{Type: "error", Error: err.Error()})
		return
	}
	conn.WriteJSON(wsEvent{Type: "result", Data: out})
}
