package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/valueinvest/valueinvest/internal/fetch"
	"github.com/valueinvest/valueinvest/internal/screener"
	"github.com/valueinvest/valueinvest/internal/storage"
	"github.com/valueinvest/valueinvest/internal/valuation"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/database"
	"github.com/valueinvest/valueinvest/pkg/httputil"
	"github.com/valueinvest/valueinvest/pkg/logger"
	"github.com/valueinvest/valueinvest/pkg/redis"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "valueinvest",
	Short: "价值投资工具箱 - multi-factor stock screening and valuation",
	Long: `valueinvest - value investing toolkit

Screens batches of A-share and US tickers through a concurrent
multi-factor pipeline (valuation, quality, dividend, sentiment,
momentum, growth) and values single stocks with classic models.

Examples:
  valueinvest screen -t 600036.SH,601318.SH -s value
  valueinvest screen -f watchlist.txt -s dividend --news --insider -o detail
  valueinvest value AAPL --methods dcf,graham_number
  valueinvest list strategies
  valueinvest api
  valueinvest scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads configuration and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// deps bundles the shared dependencies of the data-driven commands.
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *fetch.Registry
	provider screener.DataProvider
	engine   *valuation.Engine
	repo     *storage.Repository // nil without DATABASE_URL
	db       *database.DB
	redis    *redis.Client
}

// close releases held connections.
func (d *deps) close() {
	if d.db != nil {
		d.db.Close()
	}
	if d.redis != nil {
		d.redis.Close()
	}
}

// buildDeps wires the provider registry, cache, valuation engine, and
// the optional Postgres repository.
func buildDeps(needDB bool) (*deps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	redisClient, err := redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	limiter := redis.NewRateLimiter(redisClient, "valueinvest")
	cache := redis.NewCache(redisClient, "valueinvest")

	registry := fetch.NewRegistry()
	registry.Register(fetch.NewEastmoneyProvider(cfg.Eastmoney,
		httputil.New(cfg, log).WithRateLimiter(limiter, redis.EastmoneyRateLimit), log))
	registry.Register(fetch.NewSinaProvider(cfg.Sina,
		httputil.New(cfg, log).WithRateLimiter(limiter, redis.SinaRateLimit), log))
	registry.Register(fetch.NewYahooProvider(cfg.Yahoo,
		httputil.New(cfg, log).WithRateLimiter(limiter, redis.YahooRateLimit), log))

	d := &deps{
		cfg:      cfg,
		log:      log,
		registry: registry,
		redis:    redisClient,
		provider: fetch.NewCachingProvider(registry.Route(), cache, log),
		engine:   valuation.NewEngine(log),
	}

	if cfg.HasDatabase() {
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		d.db = db
		d.repo = storage.NewRepository(db.Pool)
		if err := d.repo.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	} else if needDB {
		return nil, fmt.Errorf("DATABASE_URL is not configured")
	}

	return d, nil
}
