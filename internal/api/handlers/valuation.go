package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/internal/fetch"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// ValuationHandler handles valuation API endpoints
type ValuationHandler struct {
	registry *fetch.Registry
	engine   *valuation.Engine
	logger   *logger.Logger
}

// NewValuationHandler creates a new valuation handler
func NewValuationHandler(registry *fetch.Registry, engine *valuation.Engine, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		registry: registry,
		engine:   engine,
		logger:   log,
	}
}

// GetValuation values one ticker with the recommended or requested
// methods
// GET /api/v1/valuation/{ticker}?methods=dcf,graham_number
func (h *ValuationHandler) GetValuation(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	provider, err := h.registry.For(ticker)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stock, err := provider.Stock(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Ticker not found")
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch stock")
		respondError(w, http.StatusBadGateway, "Failed to fetch stock data")
		return
	}

	var results []contracts.ValuationResult
	if methods := r.URL.Query().Get("methods"); methods != "" {
		results = h.engine.RunMultiple(stock, strings.Split(methods, ","))
	} else {
		results = h.engine.RunRecommended(stock)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"ticker":        ticker,
			"name":          stock.Name,
			"current_price": stock.CurrentPrice,
			"results":       results,
			"summary":       h.engine.Summary(results),
		},
	})
}

// GetRecommendedMethods explains which methods fit the stock's profile
// GET /api/v1/valuation/{ticker}/methods
func (h *ValuationHandler) GetRecommendedMethods(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	provider, err := h.registry.For(ticker)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	stock, err := provider.Stock(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Ticker not found")
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch stock")
		respondError(w, http.StatusBadGateway, "Failed to fetch stock data")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"ticker":      ticker,
			"available":   h.engine.Methods(),
			"recommended": h.engine.Recommend(stock),
		},
	})
}
