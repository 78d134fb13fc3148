package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tokensale-go/internal/common"
	"tokensale-go/internal/models"
	"tokensale-go/internal/rates"
	"tokensale-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// divisionPrecision matches the 28/18 fixed-point discipline used for
// all monetary computation.
const divisionPrecision = 28

// QuoteRequest asks for a conversion between a deposit currency and
// sale tokens. Exactly one of DepositAmount/TokenAmount must be set.
type QuoteRequest struct {
	User            *models.User
	Ico             *models.Ico
	DepositCurrency *models.Currency
	DepositAmount   *decimal.Decimal
	TokenAmount     *decimal.Decimal
}

// Engine issues price-locked quotes against the active phase of a sale.
type Engine struct {
	store       store.SaleStore
	calculator  *rates.Calculator
	reuseWindow time.Duration
}

func NewEngine(saleStore store.SaleStore, calculator *rates.Calculator, reuseWindow time.Duration) *Engine {
	return &Engine{store: saleStore, calculator: calculator, reuseWindow: reuseWindow}
}

// ActivePhase loads a sale's live phases and selects the current one.
func (e *Engine) ActivePhase(ctx context.Context, ico *models.Ico) (*models.Phase, error) {
	phases, err := e.store.ListPhases(ctx, ico.Id)
	if err != nil {
		return nil, err
	}
	return ActivePhase(ico, phases)
}

// CreateQuote validates and issues a quote on the user-facing path,
// where the per-user purchase cap applies.
func (e *Engine) CreateQuote(ctx context.Context, req QuoteRequest) (*models.Quote, error) {
	if (req.DepositAmount == nil) == (req.TokenAmount == nil) {
		return nil, newValidationError("amount",
			"exactly one of deposit_amount or token_amount is required")
	}

	if !req.Ico.Enabled || req.Ico.Status != models.IcoStatusOpen {
		return nil, newValidationError("ico", "sale is not open")
	}

	phase, err := e.ActivePhase(ctx, req.Ico)
	if err != nil {
		if errors.Is(err, store.ErrNoActivePhase) {
			return nil, newValidationError("phase", "sale has no active phase")
		}
		return nil, err
	}

	if req.Ico.MaxPurchases > 0 {
		consumed, err := e.store.CountConsumedQuotes(ctx, req.User.Id, req.Ico.Id)
		if err != nil {
			return nil, err
		}
		if consumed >= req.Ico.MaxPurchases {
			return nil, newValidationError("max_purchases",
				"purchase limit of %d reached", req.Ico.MaxPurchases)
		}
	}

	rate, err := e.calculator.Evaluate(ctx, req.DepositCurrency.Code, req.Ico, phase)
	if err != nil {
		return nil, err
	}
	if rate.IsZero() {
		return nil, fmt.Errorf("zero rate for %s on phase %s", req.DepositCurrency.Code, phase.Id)
	}

	tokenCurrency, err := e.store.GetCurrency(ctx, req.Ico.CompanyId, req.Ico.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("sale currency %s: %w", req.Ico.CurrencyCode, err)
	}

	var depositAmount, tokenAmount decimal.Decimal
	if req.DepositAmount != nil {
		depositAmount = *req.DepositAmount
		tokenAmount = common.Quantize(
			depositAmount.DivRound(rate, divisionPrecision), tokenCurrency.Divisibility)
	} else {
		tokenAmount = *req.TokenAmount
		depositAmount = common.Quantize(
			tokenAmount.Mul(rate), req.DepositCurrency.Divisibility)
	}

	if req.Ico.MinPurchaseAmount.IsPositive() && tokenAmount.LessThan(req.Ico.MinPurchaseAmount) {
		return nil, newValidationError("token_amount",
			"token amount %s below minimum purchase %s",
			tokenAmount.String(), req.Ico.MinPurchaseAmount.String())
	}
	if req.Ico.MaxPurchaseAmount.IsPositive() && tokenAmount.GreaterThan(req.Ico.MaxPurchaseAmount) {
		return nil, newValidationError("token_amount",
			"token amount %s above maximum purchase %s",
			tokenAmount.String(), req.Ico.MaxPurchaseAmount.String())
	}

	if common.Quantize(depositAmount, req.DepositCurrency.Divisibility).LessThanOrEqual(decimal.Zero) {
		return nil, newValidationError("deposit_amount",
			"deposit amount is below one minor unit of %s", req.DepositCurrency.Code)
	}

	return e.reuseOrCreate(ctx, req.User, phase, req.DepositCurrency.Code, depositAmount, tokenAmount, rate)
}

// QuoteForDeposit issues a quote on the reconciliation path. The
// max-purchase gate does not apply here: it was enforced when the user
// originally requested a quote, and is re-verified before settlement.
// A deposit that quantizes to zero returns ErrDustAmount.
func (e *Engine) QuoteForDeposit(ctx context.Context, user *models.User, ico *models.Ico, phase *models.Phase, depositCurrency *models.Currency, depositAmount decimal.Decimal) (*models.Quote, error) {
	if common.Quantize(depositAmount, depositCurrency.Divisibility).LessThanOrEqual(decimal.Zero) {
		return nil, ErrDustAmount
	}

	rate, err := e.calculator.Evaluate(ctx, depositCurrency.Code, ico, phase)
	if err != nil {
		return nil, err
	}
	if rate.IsZero() {
		return nil, fmt.Errorf("zero rate for %s on phase %s", depositCurrency.Code, phase.Id)
	}

	tokenCurrency, err := e.store.GetCurrency(ctx, ico.CompanyId, ico.CurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("sale currency %s: %w", ico.CurrencyCode, err)
	}

	tokenAmount := common.Quantize(
		depositAmount.DivRound(rate, divisionPrecision), tokenCurrency.Divisibility)

	return e.reuseOrCreate(ctx, user, phase, depositCurrency.Code, depositAmount, tokenAmount, rate)
}

// reuseOrCreate reuses an identical unconsumed quote from within the
// reuse window, or supersedes stale duplicates with a fresh quote.
func (e *Engine) reuseOrCreate(ctx context.Context, user *models.User, phase *models.Phase, currencyCode string, depositAmount, tokenAmount, rate decimal.Decimal) (*models.Quote, error) {
	cutoff := time.Now().UTC().Add(-e.reuseWindow)

	existing, err := e.store.FindReusableQuote(ctx, user.Id, phase.Id, depositAmount, currencyCode, cutoff)
	if err == nil {
		zap.L().Debug("Reusing quote",
			zap.String("quote_id", existing.Id),
			zap.String("user_id", user.Id))
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if err := e.store.DeleteUnconsumedQuotes(ctx, user.Id, phase.Id, depositAmount, currencyCode); err != nil {
		return nil, err
	}

	quote, err := e.store.CreateQuote(ctx, &models.Quote{
		UserId:              user.Id,
		PhaseId:             phase.Id,
		DepositCurrencyCode: currencyCode,
		DepositAmount:       depositAmount,
		TokenAmount:         tokenAmount,
		Rate:                rate,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Quote created",
		zap.String("quote_id", quote.Id),
		zap.String("user_id", user.Id),
		zap.String("phase_id", phase.Id),
		zap.String("deposit_currency", currencyCode),
		zap.String("deposit_amount", depositAmount.String()),
		zap.String("token_amount", tokenAmount.String()),
		zap.String("rate", rate.String()))
	return quote, nil
}
