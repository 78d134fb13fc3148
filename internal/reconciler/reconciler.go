// Package reconciler turns upstream deposit webhooks into token
// purchases. Initiate prices a pending deposit and opens a purchase
// with an unconfirmed ledger credit; Execute settles the purchase when
// the deposit reaches its final status. Both operations are idempotent
// against webhook redelivery.
package reconciler

import (
	"context"
	"errors"
	"fmt"

	"tokensale-go/internal/common"
	"tokensale-go/internal/ledger"
	"tokensale-go/internal/models"
	"tokensale-go/internal/sale"
	"tokensale-go/internal/store"

	"go.uber.org/zap"
)

// Reconciler drives the purchase state machine keyed by deposit
// transaction id.
type Reconciler struct {
	store  store.SaleStore
	engine *sale.Engine
	ledger ledger.Ledger
}

func New(saleStore store.SaleStore, engine *sale.Engine, ledgerClient ledger.Ledger) *Reconciler {
	return &Reconciler{store: saleStore, engine: engine, ledger: ledgerClient}
}

// Initiate handles a pending deposit notification. Deposits that
// cannot become purchases — duplicates, no live sale, deposits in the
// sale's own token, fully subscribed sales, dust amounts — are skipped
// without error so the upstream never retries them. Transient
// failures (rates, ledger, database) propagate so it does.
func (r *Reconciler) Initiate(ctx context.Context, company *models.Company, tx models.WebhookTransaction) error {
	logger := zap.L().With(
		zap.String("deposit_tx_id", tx.Id),
		zap.String("company", company.Identifier))

	if tx.TxType != "credit" {
		logger.Debug("Skipping non-credit transaction", zap.String("tx_type", tx.TxType))
		return nil
	}

	if _, err := r.store.GetPurchaseByTxId(ctx, tx.Id); err == nil {
		logger.Info("Skipping duplicate deposit transaction")
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("duplicate check for tx %s: %w", tx.Id, err)
	}

	ico, err := r.store.GetEnabledIco(ctx, company.Id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Debug("No enabled sale for company")
			return nil
		}
		return fmt.Errorf("resolving enabled sale: %w", err)
	}

	// Deposits in the sale's own token are the credits this service
	// itself creates; pricing them again would loop.
	if ico.CurrencyCode == tx.Currency.Code {
		logger.Debug("Skipping deposit in sale token currency",
			zap.String("currency", tx.Currency.Code))
		return nil
	}

	phase, err := r.engine.ActivePhase(ctx, ico)
	if err != nil {
		if errors.Is(err, store.ErrNoActivePhase) {
			logger.Info("Skipping deposit, sale has no active phase",
				zap.String("ico_id", ico.Id))
			return nil
		}
		return fmt.Errorf("selecting active phase: %w", err)
	}

	depositCurrency, err := r.store.GetCurrency(ctx, company.Id, tx.Currency.Code)
	if err != nil {
		return fmt.Errorf("deposit currency %s: %w", tx.Currency.Code, err)
	}
	if !depositCurrency.Enabled {
		return fmt.Errorf("deposit currency %s is disabled", tx.Currency.Code)
	}

	tokenCurrency, err := r.store.GetCurrency(ctx, company.Id, ico.CurrencyCode)
	if err != nil {
		return fmt.Errorf("sale currency %s: %w", ico.CurrencyCode, err)
	}

	user, err := r.store.GetOrCreateUser(ctx, company.Id, tx.User.Identifier)
	if err != nil {
		return fmt.Errorf("resolving user %s: %w", tx.User.Identifier, err)
	}

	depositAmount := common.FromCents(tx.Amount, depositCurrency.Divisibility)

	quote, err := r.engine.QuoteForDeposit(ctx, user, ico, phase, depositCurrency, depositAmount)
	if err != nil {
		if errors.Is(err, sale.ErrDustAmount) {
			logger.Info("Skipping dust deposit",
				zap.Int64("amount", tx.Amount),
				zap.String("currency", tx.Currency.Code))
			return nil
		}
		return fmt.Errorf("pricing deposit: %w", err)
	}

	status := models.PurchaseStatusPending
	if tx.Status != "" {
		status = models.PurchaseStatus(tx.Status)
	}

	metadata := "{}"
	if len(tx.Metadata) > 0 {
		metadata = string(tx.Metadata)
	}

	purchase := &models.Purchase{
		QuoteId:     quote.Id,
		DepositTxId: tx.Id,
		Status:      status,
		Metadata:    metadata,
	}

	creditAmount := common.ToCents(quote.TokenAmount, tokenCurrency.Divisibility)
	_, err = r.store.CreatePurchase(ctx, purchase, func(ctx context.Context) (string, error) {
		return r.ledger.CreateCredit(ctx, user.Identifier, creditAmount, ico.CurrencyCode)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			logger.Info("Purchase already exists for deposit transaction")
			return nil
		}
		return fmt.Errorf("creating purchase: %w", err)
	}

	logger.Info("Purchase initiated",
		zap.String("purchase_id", purchase.Id),
		zap.String("quote_id", quote.Id),
		zap.String("token_tx_id", purchase.TokenTxId),
		zap.String("token_amount", quote.TokenAmount.String()))
	return nil
}

// Execute settles the pending purchase for a deposit that reached its
// final status. A completed deposit is re-verified against the sale's
// rules before inventory is deducted; a legality failure downgrades
// the purchase to failed instead of blocking the webhook. Inventory
// exhaustion and ledger failures propagate after being recorded on the
// purchase's audit trail.
func (r *Reconciler) Execute(ctx context.Context, company *models.Company, tx models.WebhookTransaction) error {
	logger := zap.L().With(
		zap.String("deposit_tx_id", tx.Id),
		zap.String("company", company.Identifier))

	if tx.TxType != "credit" {
		logger.Debug("Skipping non-credit transaction", zap.String("tx_type", tx.TxType))
		return nil
	}

	finalStatus := models.PurchaseStatus(tx.Status)
	if finalStatus != models.PurchaseStatusComplete && finalStatus != models.PurchaseStatusFailed {
		logger.Debug("Skipping transaction without final status", zap.String("status", tx.Status))
		return nil
	}

	purchase, err := r.store.GetPendingPurchaseByDepositTx(ctx, tx.Id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Info("No pending purchase for deposit transaction")
			return nil
		}
		return fmt.Errorf("loading pending purchase: %w", err)
	}

	quote, err := r.store.GetQuoteById(ctx, purchase.QuoteId)
	if err != nil {
		return r.recordFailure(ctx, purchase, fmt.Errorf("loading quote %s: %w", purchase.QuoteId, err))
	}
	phase, err := r.store.GetPhaseById(ctx, quote.PhaseId)
	if err != nil {
		return r.recordFailure(ctx, purchase, fmt.Errorf("loading phase %s: %w", quote.PhaseId, err))
	}
	ico, err := r.store.GetIcoById(ctx, phase.IcoId)
	if err != nil {
		return r.recordFailure(ctx, purchase, fmt.Errorf("loading sale %s: %w", phase.IcoId, err))
	}

	if finalStatus == models.PurchaseStatusComplete {
		if reason := r.reverify(ctx, ico, quote); reason != "" {
			logger.Info("Downgrading purchase to failed",
				zap.String("purchase_id", purchase.Id),
				zap.String("reason", reason))
			if err := r.store.AppendPurchaseMessage(ctx, purchase.Id, reason); err != nil {
				return fmt.Errorf("recording downgrade reason: %w", err)
			}
			finalStatus = models.PurchaseStatusFailed
		}
	}

	err = r.store.FinalizePurchase(ctx, store.FinalizeParams{
		PurchaseId:  purchase.Id,
		Status:      finalStatus,
		IcoId:       ico.Id,
		IcoVersion:  ico.Version,
		TokenAmount: quote.TokenAmount,
		Deduct:      finalStatus == models.PurchaseStatusComplete,
	}, func(ctx context.Context) error {
		return r.ledger.PatchTransaction(ctx, purchase.TokenTxId, string(finalStatus))
	})
	if err != nil {
		return r.recordFailure(ctx, purchase, fmt.Errorf("settling purchase %s: %w", purchase.Id, err))
	}

	logger.Info("Purchase settled",
		zap.String("purchase_id", purchase.Id),
		zap.String("status", string(finalStatus)),
		zap.String("token_amount", quote.TokenAmount.String()))
	return nil
}

// reverify re-checks purchase legality at settlement time. The rules
// can have changed since the quote was issued; a violation returns the
// downgrade reason, an empty string means the purchase stands.
func (r *Reconciler) reverify(ctx context.Context, ico *models.Ico, quote *models.Quote) string {
	if ico.MaxPurchases > 0 {
		consumed, err := r.store.CountConsumedQuotes(ctx, quote.UserId, ico.Id)
		if err != nil {
			return fmt.Sprintf("purchase count check failed: %v", err)
		}
		// The pending purchase itself already consumed this quote.
		if consumed > ico.MaxPurchases {
			return fmt.Sprintf("purchase limit of %d exceeded", ico.MaxPurchases)
		}
	}

	if ico.MinPurchaseAmount.IsPositive() && quote.TokenAmount.LessThan(ico.MinPurchaseAmount) {
		return fmt.Sprintf("token amount %s below minimum purchase %s",
			quote.TokenAmount.String(), ico.MinPurchaseAmount.String())
	}
	if ico.MaxPurchaseAmount.IsPositive() && quote.TokenAmount.GreaterThan(ico.MaxPurchaseAmount) {
		return fmt.Sprintf("token amount %s above maximum purchase %s",
			quote.TokenAmount.String(), ico.MaxPurchaseAmount.String())
	}
	return ""
}

// recordFailure appends the error to the purchase's audit trail before
// propagating it. The purchase stays pending so the webhook retry can
// settle it.
func (r *Reconciler) recordFailure(ctx context.Context, purchase *models.Purchase, cause error) error {
	zap.L().Error("Purchase settlement failed",
		zap.String("purchase_id", purchase.Id),
		zap.Error(cause))
	if err := r.store.AppendPurchaseMessage(ctx, purchase.Id, cause.Error()); err != nil {
		zap.L().Error("Failed to record purchase message",
			zap.String("purchase_id", purchase.Id),
			zap.Error(err))
	}
	return cause
}
