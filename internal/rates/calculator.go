package rates

import (
	"context"
	"errors"
	"fmt"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors surfaced when the external tables cannot price a currency.
// A missing conversion endpoint is always an error, never a zero rate.
var (
	ErrUnknownPair     = errors.New("no trading pair for currency")
	ErrMissingFiatRate = errors.New("no fiat rate for currency")
)

// divisionPrecision keeps divisions at the full 28/18 internal
// precision rather than the decimal package default.
const divisionPrecision = 28

// Calculator derives the price of one token in a given currency for a
// sale phase. Evaluation is explicit: callers invoke Evaluate on every
// read instead of trusting stored snapshots, because the phase's base
// rate and the external feeds move between requests.
type Calculator struct {
	provider *Provider
	store    store.SaleStore
}

func NewCalculator(provider *Provider, saleStore store.SaleStore) *Calculator {
	return &Calculator{provider: provider, store: saleStore}
}

// Evaluate computes units of currencyCode per one token and persists
// the result onto the phase's rate record.
func (c *Calculator) Evaluate(ctx context.Context, currencyCode string, ico *models.Ico, phase *models.Phase) (decimal.Decimal, error) {
	value, err := c.evaluate(ctx, currencyCode, ico, phase)
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := c.store.UpsertRate(ctx, phase.Id, currencyCode, value); err != nil {
		return decimal.Zero, fmt.Errorf("failed to persist rate: %w", err)
	}

	zap.L().Debug("Rate evaluated",
		zap.String("phase_id", phase.Id),
		zap.String("currency", currencyCode),
		zap.String("rate", value.String()))
	return value, nil
}

func (c *Calculator) evaluate(ctx context.Context, currencyCode string, ico *models.Ico, phase *models.Phase) (decimal.Decimal, error) {
	// The token is worth exactly one of itself.
	if currencyCode == ico.CurrencyCode {
		return decimal.NewFromInt(1), nil
	}

	// The base rate is authoritative for the base currency.
	if currencyCode == ico.BaseCurrencyCode {
		return phase.BaseRate, nil
	}

	fiatRates, err := c.provider.FiatRates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	target := canonicalCode(currencyCode)
	base := canonicalCode(ico.BaseCurrencyCode)

	if fiatRate, ok := fiatRates[target]; ok {
		// Fiat feeds are quoted relative to USD: used forward for a
		// USD base, inverted through the base feed otherwise.
		if base == "USD" {
			return fiatRate.Mul(phase.BaseRate), nil
		}
		baseRate, ok := fiatRates[base]
		if !ok || baseRate.IsZero() {
			return decimal.Zero, fmt.Errorf("base currency %s: %w", ico.BaseCurrencyCode, ErrMissingFiatRate)
		}
		return fiatRate.DivRound(baseRate, divisionPrecision).Mul(phase.BaseRate), nil
	}

	cryptoRates, err := c.provider.CryptoRates(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	if pairRate, ok := cryptoRates[base+target]; ok {
		return pairRate.Mul(phase.BaseRate), nil
	}
	if pairRate, ok := cryptoRates[target+base]; ok && !pairRate.IsZero() {
		return decimal.NewFromInt(1).DivRound(pairRate, divisionPrecision).Mul(phase.BaseRate), nil
	}

	return decimal.Zero, fmt.Errorf("currency %s against base %s: %w",
		currencyCode, ico.BaseCurrencyCode, ErrUnknownPair)
}

// canonicalCode maps exchange naming quirks onto feed symbols.
func canonicalCode(code string) string {
	if code == "XBT" {
		return "BTC"
	}
	return code
}
