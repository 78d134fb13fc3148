package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"tokensale-go/internal/models"
)

// Load resolves the full service configuration from the environment.
func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	exchangeTimeout, err := getEnvDuration("EXCHANGE_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := getEnvDuration("RATES_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	ledgerTimeout, err := getEnvDuration("LEDGER_REQUEST_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	quoteReuseWindow, err := getEnvDuration("QUOTE_REUSE_WINDOW", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "tokensale.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			CurrenciesFile:  getEnvString("CURRENCIES_FILE", ""),
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Rates: models.RatesConfig{
			ExchangeURL:    getEnvString("EXCHANGE_URL", "https://apiv2.bitcoinaverage.com"),
			RequestTimeout: exchangeTimeout,
			CacheTTL:       cacheTTL,
			RedisAddr:      getEnvString("REDIS_ADDR", ""),
			RedisPassword:  getEnvString("REDIS_PASSWORD", ""),
			RedisDB:        getEnvInt("REDIS_DB", 0),
		},
		Ledger: models.LedgerConfig{
			BaseURL:        getEnvString("LEDGER_URL", ""),
			Token:          getEnvString("LEDGER_TOKEN", ""),
			RequestTimeout: ledgerTimeout,
		},
		Sale: models.SaleConfig{
			QuoteReuseWindow: quoteReuseWindow,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
