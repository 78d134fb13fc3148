package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePurchase inserts the purchase row and invokes issueCredit
// inside the same database transaction. The committed row carries the
// credit transaction id issueCredit returned; if the credit call fails
// the whole step rolls back so the upstream webhook can retry.
func (s *Service) CreatePurchase(ctx context.Context, purchase *models.Purchase, issueCredit func(context.Context) (string, error)) (*models.Purchase, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingId string
	err = tx.QueryRowContext(ctx, queryCheckDuplicatePurchase,
		purchase.DepositTxId, purchase.DepositTxId).Scan(&existingId)
	if err == nil {
		return nil, fmt.Errorf("%w: transaction %s already settled by purchase %s",
			store.ErrDuplicateTransaction, purchase.DepositTxId, existingId)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate purchase: %w", err)
	}

	purchase.Id = uuid.New().String()
	if purchase.Status == "" {
		purchase.Status = models.PurchaseStatusPending
	}
	if purchase.Metadata == "" {
		purchase.Metadata = "{}"
	}

	_, err = tx.ExecContext(ctx, queryInsertPurchase,
		purchase.Id, purchase.QuoteId, purchase.DepositTxId,
		string(purchase.Status), purchase.Metadata)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: purchase insert for tx %s",
				store.ErrDuplicateTransaction, purchase.DepositTxId)
		}
		return nil, fmt.Errorf("failed to insert purchase: %w", err)
	}

	tokenTxId, err := issueCredit(ctx)
	if err != nil {
		return nil, fmt.Errorf("credit issuance failed: %w", err)
	}

	if _, err := tx.ExecContext(ctx, querySetPurchaseTokenTx, tokenTxId, purchase.Id); err != nil {
		return nil, fmt.Errorf("failed to record credit transaction: %w", err)
	}
	purchase.TokenTxId = tokenTxId

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	zap.L().Info("Purchase created",
		zap.String("purchase_id", purchase.Id),
		zap.String("deposit_tx_id", purchase.DepositTxId),
		zap.String("token_tx_id", tokenTxId))
	return purchase, nil
}

// GetPurchaseByTxId matches a purchase by either its deposit or token
// transaction id.
func (s *Service) GetPurchaseByTxId(ctx context.Context, txId string) (*models.Purchase, error) {
	row := s.db.QueryRowContext(ctx, queryGetPurchaseByTxId, txId, txId)
	return scanPurchaseOrNotFound(row)
}

// GetPendingPurchaseByDepositTx finds the pending purchase for a
// deposit transaction that already has a ledger credit attached.
func (s *Service) GetPendingPurchaseByDepositTx(ctx context.Context, txId string) (*models.Purchase, error) {
	row := s.db.QueryRowContext(ctx, queryGetPendingPurchaseByDepositTx, txId)
	return scanPurchaseOrNotFound(row)
}

func (s *Service) UpdatePurchaseStatus(ctx context.Context, purchaseId string, status models.PurchaseStatus) error {
	result, err := s.db.ExecContext(ctx, queryUpdatePurchaseStatus, string(status), purchaseId)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FinalizePurchase settles a pending purchase atomically: deduct sale
// inventory (when the outcome is complete), persist the final status,
// then patch the ledger credit before committing. Any failure rolls
// everything back so a webhook retry sees the purchase still pending.
func (s *Service) FinalizePurchase(ctx context.Context, params store.FinalizeParams, patchLedger func(context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if params.Deduct {
		if err := deductInventoryTx(ctx, tx, params.IcoId, params.TokenAmount, params.IcoVersion); err != nil {
			return err
		}
	}

	result, err := tx.ExecContext(ctx, queryUpdatePurchaseStatus, string(params.Status), params.PurchaseId)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}

	if err := patchLedger(ctx); err != nil {
		return fmt.Errorf("ledger status update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit purchase settlement: %w", err)
	}

	zap.L().Info("Purchase finalized",
		zap.String("purchase_id", params.PurchaseId),
		zap.String("status", string(params.Status)))
	return nil
}

// AppendPurchaseMessage appends one audit entry, truncated to the
// message limit on a rune boundary.
func (s *Service) AppendPurchaseMessage(ctx context.Context, purchaseId, message string) error {
	if runes := []rune(message); len(runes) > models.MaxMessageLength {
		message = string(runes[:models.MaxMessageLength])
	}
	_, err := s.db.ExecContext(ctx, queryInsertPurchaseMessage,
		uuid.New().String(), purchaseId, message)
	if err != nil {
		return fmt.Errorf("failed to append purchase message: %w", err)
	}
	return nil
}

func (s *Service) ListPurchaseMessages(ctx context.Context, purchaseId string) ([]models.PurchaseMessage, error) {
	rows, err := s.db.QueryContext(ctx, queryListPurchaseMessages, purchaseId)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase messages: %w", err)
	}
	defer rows.Close()

	var messages []models.PurchaseMessage
	for rows.Next() {
		var message models.PurchaseMessage
		if err := rows.Scan(&message.Id, &message.PurchaseId, &message.Message, &message.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, rows.Err()
}

func (s *Service) ListIcoPurchases(ctx context.Context, icoId string) ([]models.Purchase, error) {
	return s.listPurchases(ctx, queryListIcoPurchases, icoId)
}

func (s *Service) ListUserPurchases(ctx context.Context, userId, icoId string) ([]models.Purchase, error) {
	return s.listPurchases(ctx, queryListUserPurchases, userId, icoId)
}

func (s *Service) GetIcoPurchase(ctx context.Context, icoId, purchaseId string) (*models.Purchase, error) {
	row := s.db.QueryRowContext(ctx, queryGetIcoPurchase, icoId, purchaseId)
	return scanPurchaseOrNotFound(row)
}

func (s *Service) listPurchases(ctx context.Context, query string, args ...any) ([]models.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		purchase, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, *purchase)
	}
	return purchases, rows.Err()
}

func scanPurchaseOrNotFound(row rowScanner) (*models.Purchase, error) {
	purchase, err := scanPurchase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return purchase, nil
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	purchase := &models.Purchase{}
	var status string
	err := row.Scan(
		&purchase.Id, &purchase.QuoteId, &purchase.DepositTxId, &purchase.TokenTxId,
		&status, &purchase.Metadata, &purchase.CreatedAt, &purchase.UpdatedAt)
	if err != nil {
		return nil, err
	}
	purchase.Status = models.PurchaseStatus(status)
	return purchase, nil
}
