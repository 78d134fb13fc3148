package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Rates    RatesConfig
	Ledger   LedgerConfig
	Sale     SaleConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	CurrenciesFile  string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RatesConfig holds exchange feed and rate cache settings
type RatesConfig struct {
	ExchangeURL    string
	RequestTimeout time.Duration
	CacheTTL       time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

// LedgerConfig holds settings for the external ledger service
type LedgerConfig struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
}

// SaleConfig holds quote and purchase tuning knobs
type SaleConfig struct {
	QuoteReuseWindow time.Duration
}
