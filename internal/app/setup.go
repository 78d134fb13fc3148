// Package app wires the service graph: database, rate provider,
// quote engine, ledger client and reconciler.
package app

import (
	"context"

	"tokensale-go/internal/common"
	"tokensale-go/internal/database"
	"tokensale-go/internal/ledger"
	"tokensale-go/internal/models"
	"tokensale-go/internal/rates"
	"tokensale-go/internal/reconciler"
	"tokensale-go/internal/sale"
	"tokensale-go/internal/store"

	"go.uber.org/zap"
)

// Services holds every initialized dependency of the sale service.
type Services struct {
	Store      store.SaleStore
	Cache      rates.Cache
	Provider   *rates.Provider
	Calculator *rates.Calculator
	Engine     *sale.Engine
	Ledger     ledger.Ledger
	Reconciler *reconciler.Reconciler

	// CurrencySeed is the default currency set upserted for a company
	// when it is created. Empty unless CURRENCIES_FILE is configured.
	CurrencySeed []common.CurrencyConfig
}

// InitializeServices builds the full dependency graph from
// configuration. Redis backs the rate cache when configured, an
// in-process cache otherwise.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	var cache rates.Cache
	if cfg.Rates.RedisAddr != "" {
		zap.L().Info("Using redis rate cache", zap.String("addr", cfg.Rates.RedisAddr))
		cache = rates.NewRedisCache(cfg.Rates.RedisAddr, cfg.Rates.RedisPassword, cfg.Rates.RedisDB)
	} else {
		zap.L().Info("Using in-process rate cache")
		cache = rates.NewMemoryCache()
	}

	provider := rates.NewProvider(cfg.Rates.ExchangeURL, cfg.Rates.RequestTimeout, cache, cfg.Rates.CacheTTL)
	calculator := rates.NewCalculator(provider, dbService)
	engine := sale.NewEngine(dbService, calculator, cfg.Sale.QuoteReuseWindow)
	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.Token, cfg.Ledger.RequestTimeout)

	var seed []common.CurrencyConfig
	if cfg.Database.CurrenciesFile != "" {
		seed, err = common.LoadCurrencyConfig(cfg.Database.CurrenciesFile)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		zap.L().Info("Loaded currency seed",
			zap.String("file", cfg.Database.CurrenciesFile),
			zap.Int("currencies", len(seed)))
	}

	return &Services{
		Store:        dbService,
		Cache:        cache,
		Provider:     provider,
		Calculator:   calculator,
		Engine:       engine,
		Ledger:       ledgerClient,
		Reconciler:   reconciler.New(dbService, engine, ledgerClient),
		CurrencySeed: seed,
	}, nil
}

// SeedCurrencies upserts the configured default currency set for a
// newly created company.
func (s *Services) SeedCurrencies(ctx context.Context, companyId string) error {
	for _, currency := range s.CurrencySeed {
		_, err := s.Store.UpsertCurrency(ctx, models.Currency{
			CompanyId:    companyId,
			Code:         currency.Code,
			Description:  currency.Description,
			Symbol:       currency.Symbol,
			Unit:         currency.Unit,
			Divisibility: currency.Divisibility,
			Enabled:      currency.Enabled,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close releases held resources.
func (s *Services) Close() {
	s.Store.Close()
}
