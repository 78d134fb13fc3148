// Warm the exchange rate cache. Meant to be run by an external
// scheduler slightly more often than the cache TTL so user requests
// never wait on the exchange API.
package main

import (
	"context"

	"tokensale-go/internal/app"
	"tokensale-go/internal/common"
	"tokensale-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Rates.RequestTimeout*2)
	defer cancel()

	services, err := app.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	fiat, err := services.Provider.FiatRates(ctx)
	if err != nil {
		zap.L().Fatal("Failed to refresh fiat rates", zap.Error(err))
	}
	crypto, err := services.Provider.CryptoRates(ctx)
	if err != nil {
		zap.L().Fatal("Failed to refresh crypto rates", zap.Error(err))
	}

	zap.L().Info("Rate cache warmed",
		zap.Int("fiat_rates", len(fiat)),
		zap.Int("crypto_rates", len(crypto)))
}
