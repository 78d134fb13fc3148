package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Exchange endpoints. Fiat rates are quoted relative to USD; crypto
// tickers are keyed by concatenated pair symbol (e.g. "ETHBTC").
const (
	fiatRatesPath   = "/constants/exchangerates/global"
	cryptoRatesPath = "/indices/global/ticker/short"

	fiatRatesCacheKey   = "tokensale_fiat_rates"
	cryptoRatesCacheKey = "tokensale_crypto_rates"
)

// Provider fetches fiat and crypto exchange-rate tables from the
// exchange API, caching them for the configured TTL. External failures
// propagate; there is no stale fallback.
type Provider struct {
	baseURL string
	client  *http.Client
	cache   Cache
	ttl     time.Duration
}

func NewProvider(baseURL string, timeout time.Duration, cache Cache, ttl time.Duration) *Provider {
	return &Provider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
		ttl:     ttl,
	}
}

// FiatRates returns the fiat-rate table keyed by currency code, each
// value the amount of that currency per one USD.
func (p *Provider) FiatRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return p.cachedTable(ctx, fiatRatesCacheKey, p.fetchFiatRates)
}

// CryptoRates returns the crypto ticker table keyed by concatenated
// pair symbol.
func (p *Provider) CryptoRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	return p.cachedTable(ctx, cryptoRatesCacheKey, p.fetchCryptoRates)
}

func (p *Provider) cachedTable(ctx context.Context, key string, fetch func(context.Context) (map[string]decimal.Decimal, error)) (map[string]decimal.Decimal, error) {
	cached, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("Rate cache read failed", zap.String("key", key), zap.Error(err))
	}
	if ok {
		table := map[string]decimal.Decimal{}
		if err := json.Unmarshal([]byte(cached), &table); err == nil {
			return table, nil
		}
		zap.L().Warn("Discarding unreadable cached rate table", zap.String("key", key))
	}

	table, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rate table: %w", err)
	}
	if err := p.cache.Set(ctx, key, string(encoded), p.ttl); err != nil {
		zap.L().Warn("Rate cache write failed", zap.String("key", key), zap.Error(err))
	}

	return table, nil
}

func (p *Provider) fetchFiatRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var payload struct {
		Rates map[string]struct {
			Rate decimal.Decimal `json:"rate"`
		} `json:"rates"`
	}
	if err := p.getJSON(ctx, fiatRatesPath, &payload); err != nil {
		return nil, err
	}

	table := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, entry := range payload.Rates {
		table[code] = entry.Rate
	}
	return table, nil
}

func (p *Provider) fetchCryptoRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var payload map[string]struct {
		Last decimal.Decimal `json:"last"`
	}
	if err := p.getJSON(ctx, cryptoRatesPath, &payload); err != nil {
		return nil, err
	}

	table := make(map[string]decimal.Decimal, len(payload))
	for symbol, entry := range payload {
		table[symbol] = entry.Last
	}
	return table, nil
}

func (p *Provider) getJSON(ctx context.Context, path string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}

	response, err := p.client.Do(request)
	if err != nil {
		return fmt.Errorf("exchange request failed: %w", err)
	}
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read exchange response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("exchange returned %d for %s: %s",
			response.StatusCode, path, string(content))
	}

	if err := json.Unmarshal(content, target); err != nil {
		return fmt.Errorf("exchange returned unexpected payload for %s: %w", path, err)
	}
	return nil
}
