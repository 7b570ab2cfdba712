package logger_test

import (
	"errors"

	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger
	log := logger.New(cfg)

	// Basic logging
	log.Debug("This won't appear (level is info)")
	log.Info("Application started")
	log.Warn("Cache disabled")
	log.Error("Failed to connect")

	// Formatted logging
	log.Infof("Screening %d tickers", 25)
	log.Warnf("Retry attempt %d of %d", 3, 5)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Add single field
	tickerLog := log.WithField("ticker", "600519.SH")
	tickerLog.Info("Valuation completed")

	// Add multiple fields
	runLog := log.WithFields(map[string]interface{}{
		"strategy":  "value",
		"tickers":   25,
		"qualified": 4,
		"duration":  "12.3s",
	})
	runLog.Info("Screening run completed")
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Log with error
	err := errors.New("fetch timeout")
	log.WithError(err).Error("Failed to fetch fundamentals")

	// Combine error with fields
	log.WithError(err).
		WithFields(map[string]interface{}{
			"ticker":     "AAPL",
			"timeout_ms": 60000,
		}).
		Error("Ticker skipped after timeout")
}
