package common

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// CurrencyConfig describes one currency a company supports.
type CurrencyConfig struct {
	Code         string `yaml:"code"`
	Description  string `yaml:"description"`
	Symbol       string `yaml:"symbol"`
	Unit         string `yaml:"unit"`
	Divisibility int    `yaml:"divisibility"`
	Enabled      bool   `yaml:"enabled"`
}

// CurrenciesConfig is the root of a currency seed file.
type CurrenciesConfig struct {
	Currencies []CurrencyConfig `yaml:"currencies"`
}

// LoadCurrencyConfig reads and validates a currency seed file.
func LoadCurrencyConfig(currenciesFile string) ([]CurrencyConfig, error) {
	var path string
	if filepath.IsAbs(currenciesFile) {
		path = currenciesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, currenciesFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", currenciesFile, err)
	}

	var config CurrenciesConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", currenciesFile, err)
	}

	for i, currency := range config.Currencies {
		if currency.Code == "" {
			return nil, fmt.Errorf("currency at index %d missing code", i)
		}
		if currency.Divisibility < 0 {
			return nil, fmt.Errorf("currency %s has negative divisibility", currency.Code)
		}
	}

	return config.Currencies, nil
}
