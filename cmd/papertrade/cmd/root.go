package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrade/alphavantage"
	"github.com/rustyeddy/papertrade/config"
	"github.com/rustyeddy/papertrade/engine"
	"github.com/rustyeddy/papertrade/marketdata"
	"github.com/rustyeddy/papertrade/portfolio"
	"github.com/rustyeddy/papertrade/store"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "A paper-trading simulator for stocks, crypto and forex",
	Long: `Papertrade is a trading simulator backed by live market data.

It provides tools for:
  - Creating and resetting simulated trading accounts
  - Executing market buy/sell orders against live prices
  - Tracking holdings with weighted-average cost accounting
  - Valuing portfolios with realized and unrealized P&L
  - Quoting prices and historical candles with local caching`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

var (
	cfgPath string
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// app holds the wired services shared by the subcommands.
type app struct {
	cfg    *config.Config
	store  *store.Store
	prices *marketdata.Service
	engine *engine.Engine
	folio  *portfolio.Service
	log    *zap.Logger
}

func newApp() (*app, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	ttl, err := cfg.MarketData.PriceTTLDuration()
	if err != nil {
		return nil, fmt.Errorf("price_ttl: %w", err)
	}
	wait, err := cfg.MarketData.WaitTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("wait_timeout: %w", err)
	}

	provider := alphavantage.NewClient(cfg.MarketData.APIKey, cfg.MarketData.BaseURL)
	prices := marketdata.New(st, provider, marketdata.Options{
		PriceTTL:          ttl,
		RequestsPerMinute: cfg.MarketData.RequestsPerMinute,
		WaitTimeout:       wait,
		AllowStale:        cfg.MarketData.StaleFallback(),
		Logger:            log,
	})

	eng := engine.New(st, prices, engine.Options{
		Fees: engine.Fees{
			Stock:  decimal.NewFromFloat(cfg.Trading.StockFee),
			Crypto: decimal.NewFromFloat(cfg.Trading.CryptoFee),
			Forex:  decimal.NewFromFloat(cfg.Trading.ForexFee),
		},
		DefaultBalance:  decimal.NewFromFloat(cfg.Account.DefaultBalance),
		Currency:        cfg.Account.Currency,
		ConflictRetries: cfg.Trading.ConflictRetries,
		Logger:          log,
	})

	return &app{
		cfg:    cfg,
		store:  st,
		prices: prices,
		engine: eng,
		folio:  portfolio.New(st, prices, log),
		log:    log,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.log.Sync()
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
