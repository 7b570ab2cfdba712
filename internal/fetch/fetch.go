// Package fetch retrieves stocks, price history, news and insider
// trades from public market data sources. Each source implements
// Provider; a Chain tries sources in order, and a Registry routes
// tickers to the right chain by exchange.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/valueinvest/valueinvest/internal/contracts"
)

var (
	// ErrNotFound means the source answered but knows no such ticker.
	ErrNotFound = errors.New("ticker not found")

	// ErrUnsupported means the source does not serve this kind of data.
	ErrUnsupported = errors.New("not supported by this source")

	// ErrBadPayload means the source answered with something unparseable.
	ErrBadPayload = errors.New("malformed response payload")
)

// Provider supplies market data from one source. Methods a source
// cannot serve return ErrUnsupported so a Chain can move on.
type Provider interface {
	Source() string
	Stock(ctx context.Context, ticker string) (*contracts.Stock, error)
	History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error)
	News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error)
	InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error)
}

var ashareRe = regexp.MustCompile(`^(\d{6})(\.(SH|SZ|BJ))?$`)

// IsAShare reports whether the ticker looks like a mainland China
// listing (6 digits, optionally suffixed .SH/.SZ/.BJ).
func IsAShare(ticker string) bool {
	return ashareRe.MatchString(strings.ToUpper(ticker))
}

// NormalizeAShare strips the exchange suffix from an A-share ticker.
func NormalizeAShare(ticker string) string {
	m := ashareRe.FindStringSubmatch(strings.ToUpper(ticker))
	if m == nil {
		return ticker
	}
	return m[1]
}

// AShareExchange infers the exchange from a 6-digit code prefix.
func AShareExchange(code string) string {
	switch {
	case strings.HasPrefix(code, "6"):
		return "SH"
	case strings.HasPrefix(code, "0"), strings.HasPrefix(code, "3"):
		return "SZ"
	case strings.HasPrefix(code, "4"), strings.HasPrefix(code, "8"):
		return "BJ"
	default:
		return "SH"
	}
}

// Chain tries providers in order, skipping ones that answer
// ErrUnsupported. The first real answer or real error wins.
type Chain struct {
	providers []Provider
}

// NewChain builds a fallback chain over the given providers.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Source() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Source()
	}
	return strings.Join(names, "+")
}

func (c *Chain) Stock(ctx context.Context, ticker string) (*contracts.Stock, error) {
	for _, p := range c.providers {
		s, err := p.Stock(ctx, ticker)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return s, err
	}
	return nil, fmt.Errorf("stock %q: %w", ticker, ErrUnsupported)
}

func (c *Chain) History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error) {
	for _, p := range c.providers {
		h, err := p.History(ctx, ticker, days)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return h, err
	}
	return nil, fmt.Errorf("history %q: %w", ticker, ErrUnsupported)
}

func (c *Chain) News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	for _, p := range c.providers {
		items, err := p.News(ctx, ticker, limit)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return items, err
	}
	return nil, fmt.Errorf("news %q: %w", ticker, ErrUnsupported)
}

func (c *Chain) InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error) {
	for _, p := range c.providers {
		trades, err := p.InsiderTrades(ctx, ticker)
		if errors.Is(err, ErrUnsupported) {
			continue
		}
		return trades, err
	}
	return nil, fmt.Errorf("insider trades %q: %w", ticker, ErrUnsupported)
}

// endpointOr returns the configured endpoint or the fallback.
func endpointOr(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// Routing tables: which sources serve which market, in fallback order.
var (
	cnSources = []string{"eastmoney", "sina"}
	usSources = []string{"yahoo"}
)

// Registry holds named providers and routes tickers to them.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its Source name, replacing any
// previous provider with that name.
func (r *Registry) Register(p Provider) {
	name := p.Source()
	if _, exists := r.providers[name]; !exists {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, r.order)
	}
	return p, nil
}

// Names lists registered providers in registration order.
func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}

// Route returns a provider that resolves the source chain per ticker,
// for callers screening mixed CN and US lists through one provider.
func (r *Registry) Route() Provider {
	return &routedProvider{registry: r}
}

type routedProvider struct {
	registry *Registry
}

func (p *routedProvider) Source() string { return "auto" }

func (p *routedProvider) Stock(ctx context.Context, ticker string) (*contracts.Stock, error) {
	target, err := p.registry.For(ticker)
	if err != nil {
		return nil, err
	}
	return target.Stock(ctx, ticker)
}

func (p *routedProvider) History(ctx context.Context, ticker string, days int) (*contracts.PriceHistory, error) {
	target, err := p.registry.For(ticker)
	if err != nil {
		return nil, err
	}
	return target.History(ctx, ticker, days)
}

func (p *routedProvider) News(ctx context.Context, ticker string, limit int) ([]contracts.NewsItem, error) {
	target, err := p.registry.For(ticker)
	if err != nil {
		return nil, err
	}
	return target.News(ctx, ticker, limit)
}

func (p *routedProvider) InsiderTrades(ctx context.Context, ticker string) ([]contracts.InsiderTrade, error) {
	target, err := p.registry.For(ticker)
	if err != nil {
		return nil, err
	}
	return target.InsiderTrades(ctx, ticker)
}

// For returns the provider chain for a ticker: A-shares go to the CN
// sources, everything else to the US sources.
func (r *Registry) For(ticker string) (Provider, error) {
	sources := usSources
	if IsAShare(ticker) {
		sources = cnSources
	}

	var chain []Provider
	for _, name := range sources {
		if p, ok := r.providers[name]; ok {
			chain = append(chain, p)
		}
	}

	switch len(chain) {
	case 0:
		return nil, fmt.Errorf("no provider registered for %q (want one of %v)", ticker, sources)
	case 1:
		return chain[0], nil
	default:
		return NewChain(chain...), nil
	}
}
