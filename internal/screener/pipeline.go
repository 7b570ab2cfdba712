package screener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/internal/insider"
	"github.com/valueinvest/valueinvest/internal/sentiment"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

const (
	defaultWorkers = 5
	taskTimeout    = 60 * time.Second

	historyDays       = 3 * contracts.TradingDaysPerYear
	newsLimit         = 30
	insiderPeriodDays = 365
)

// DataProvider supplies the market data a screening task needs. The
// fetch package's providers satisfy it.
type DataProvider interface {
	Stock(ctx context.Context, ticker string) (*contracts.Stock, error)
	History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error)
	News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error)
	InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error)
}

// TaskResult is the outcome of screening one ticker. Exactly one side
// is set.
type TaskResult struct {
	Result *contracts.ScreeningResult
	Err    *contracts.TaskError
}

// Request configures one screening run.
type Request struct {
	Tickers        []string
	Strategy       string // zero means value
	Overrides      Overrides
	Workers        int // zero means 5
	IncludeNews    bool
	IncludeInsider bool
}

// Pipeline screens ticker lists against a strategy with a bounded
// worker pool. Each ticker is an independent task; one failure never
// aborts its siblings.
type Pipeline struct {
	provider   DataProvider
	engine     *valuation.Engine
	analyzer   *sentiment.KeywordAnalyzer
	strategies *StrategyRegistry
	scorers    *ScorerRegistry
	logger     *logger.Logger

	// onComplete, when set, is called from worker goroutines after
	// every finished ticker.
	onComplete func(ticker string, qualified bool)
}

// NewPipeline creates a pipeline over the given data provider and
// valuation engine.
func NewPipeline(provider DataProvider, engine *valuation.Engine, log *logger.Logger) *Pipeline {
	return &Pipeline{
		provider:   provider,
		engine:     engine,
		analyzer:   sentiment.NewKeywordAnalyzer(),
		strategies: NewStrategyRegistry(),
		scorers:    NewScorerRegistry(),
		logger:     log.WithField("module", "screener"),
	}
}

// Strategies exposes the pipeline's strategy registry.
func (p *Pipeline) Strategies() *StrategyRegistry {
	return p.strategies
}

// OnStockComplete registers a progress callback. The callback must be
// safe for concurrent use.
func (p *Pipeline) OnStockComplete(fn func(ticker string, qualified bool)) {
	p.onComplete = fn
}

type task struct {
	index  int
	ticker string
}

type taskOutcome struct {
	index  int
	result TaskResult
}

// Screen runs the full pipeline over the request's tickers.
func (p *Pipeline) Screen(ctx context.Context, req Request) (*contracts.ScreeningOutput, error) {
	if len(req.Tickers) == 0 {
		return nil, errors.New("no tickers to screen")
	}

	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = "value"
	}
	strategy, err := p.strategies.Get(strategyName, req.Overrides)
	if err != nil {
		return nil, err
	}
	scorer, err := p.scorers.Get(strategyName)
	if err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(req.Tickers) {
		workers = len(req.Tickers)
	}

	start := time.Now()
	p.logger.WithFields(map[string]interface{}{
		"strategy": strategy.Name,
		"tickers":  len(req.Tickers),
		"workers":  workers,
	}).Info("Starting screening run")

	tasks := make(chan task, len(req.Tickers))
	outcomes := make(chan taskOutcome, len(req.Tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, strategy, scorer, req, tasks, outcomes)
		}()
	}

	for i, ticker := range req.Tickers {
		tasks <- task{index: i, ticker: ticker}
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	// Collect in input order so the later stable sort breaks composite
	// ties by input position.
	results := make([]TaskResult, len(req.Tickers))
	for out := range outcomes {
		results[out.index] = out.result
	}

	var qualified, disqualified []*contracts.ScreeningResult
	var taskErrors []contracts.TaskError
	for _, r := range results {
		switch {
		case r.Err != nil:
			taskErrors = append(taskErrors, *r.Err)
		case r.Result != nil && r.Result.IsQualified:
			qualified = append(qualified, r.Result)
		case r.Result != nil:
			disqualified = append(disqualified, r.Result)
		}
	}

	sort.SliceStable(qualified, func(i, j int) bool {
		return qualified[i].CompositeScore > qualified[j].CompositeScore
	})

	summary := contracts.ScreeningSummary{
		StrategyName:   strategy.Name,
		Total:          len(req.Tickers),
		QualifiedCount: len(qualified),
		FailedCount:    len(disqualified),
		ErrorCount:     len(taskErrors),
		Duration:       time.Since(start),
	}
	summary.PassRate = float64(summary.QualifiedCount) / float64(summary.Total) * 100

	p.logger.WithFields(map[string]interface{}{
		"strategy":  strategy.Name,
		"qualified": summary.QualifiedCount,
		"failed":    summary.FailedCount,
		"errors":    summary.ErrorCount,
		"duration":  summary.Duration.String(),
	}).Info("Screening run completed")

	return &contracts.ScreeningOutput{
		Summary:      summary,
		Qualified:    qualified,
		Disqualified: disqualified,
		Errors:       taskErrors,
	}, nil
}

func (p *Pipeline) worker(ctx context.Context, strategy *Strategy, scorer *CompositeScorer, req Request, tasks <-chan task, outcomes chan<- taskOutcome) {
	for t := range tasks {
		select {
		case <-ctx.Done():
			outcomes <- taskOutcome{index: t.index, result: TaskResult{
				Err: taskError(t.ticker, "analysis", ctx.Err()),
			}}
			continue
		default:
		}

		result := p.analyze(ctx, t.ticker, strategy, scorer, req)
		if p.onComplete != nil {
			p.onComplete(t.ticker, result.Result != nil && result.Result.IsQualified)
		}
		outcomes <- taskOutcome{index: t.index, result: result}
	}
}

// analyze runs the full per-ticker flow: fetch, valuation, metric
// extraction, optional history/news/insider enrichment, filters, and
// scoring. Optional data that fails to load leaves neutral defaults.
func (p *Pipeline) analyze(ctx context.Context, ticker string, strategy *Strategy, scorer *CompositeScorer, req Request) TaskResult {
	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	stock, err := p.provider.Stock(taskCtx, ticker)
	if err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Error("Failed to fetch stock")
		return TaskResult{Err: taskError(ticker, "fetch", err)}
	}

	r := &contracts.ScreeningResult{
		Ticker:             ticker,
		NewsSentimentLabel: sentiment.Label(0),
		InsiderSentiment:   contracts.InsiderNeutral,
	}

	rec := p.engine.Recommend(stock)
	methods := append(append([]string{}, rec.Primary...), rec.Secondary...)
	valuations := p.engine.RunMultiple(stock, methods)
	ExtractFundamentals(r, stock, p.engine.Summary(valuations))

	if history, err := p.provider.History(taskCtx, ticker, historyDays); err != nil {
		p.logger.WithError(err).WithField("ticker", ticker).Debug("No price history")
	} else {
		ExtractMomentum(r, history)
	}

	if req.IncludeNews {
		if items, err := p.provider.News(taskCtx, ticker, newsLimit); err != nil {
			p.logger.WithError(err).WithField("ticker", ticker).Debug("No news")
		} else if len(items) > 0 {
			batch := p.analyzer.AnalyzeBatch(items, ticker)
			r.NewsSentiment = batch.Score
			r.NewsSentimentLabel = batch.Label
		}
	}

	if req.IncludeInsider {
		if trades, err := p.provider.InsiderTrades(taskCtx, ticker); err != nil {
			p.logger.WithError(err).WithField("ticker", ticker).Debug("No insider trades")
		} else if summary := insider.Summarize(ticker, trades, insiderPeriodDays); summary.HasActivity() {
			r.InsiderSentiment = summary.Sentiment
			r.InsiderNetValue = summary.NetValue
		}
	}

	strategy.ApplyFilters(r)
	scorer.Score(r)

	p.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"score":     fmt.Sprintf("%.1f", r.CompositeScore),
		"qualified": r.IsQualified,
	}).Debug("Screened ticker")

	return TaskResult{Result: r}
}

func taskError(ticker, stage string, err error) *contracts.TaskError {
	if errors.Is(err, context.DeadlineExceeded) {
		stage = "timeout"
	}
	return &contracts.TaskError{Ticker: ticker, Stage: stage, Err: err.Error()}
}
