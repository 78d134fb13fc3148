package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateIco persists a sale. Enabling it disables the company's other
// sales in the same transaction: at most one sale per company is live.
func (s *Service) CreateIco(ctx context.Context, ico *models.Ico) (*models.Ico, error) {
	ico.Id = uuid.New().String()
	if ico.Status == "" {
		ico.Status = models.IcoStatusHidden
	}
	ico.AmountRemaining = ico.Amount

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, queryInsertIco,
		ico.Id, ico.CompanyId, ico.CurrencyCode,
		ico.Amount.String(), ico.AmountRemaining.String(),
		ico.BaseCurrencyCode, ico.BaseGoalAmount.String(),
		ico.MinPurchaseAmount.String(), ico.MaxPurchaseAmount.String(),
		ico.MaxPurchases, string(ico.Status), ico.Public, ico.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to create ico: %w", err)
	}

	if ico.Enabled {
		if _, err := tx.ExecContext(ctx, queryDisableSiblingIcos, ico.CompanyId, ico.Id); err != nil {
			return nil, fmt.Errorf("failed to disable sibling icos: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ico: %w", err)
	}

	return s.GetIcoById(ctx, ico.Id)
}

func (s *Service) ListIcos(ctx context.Context, companyId string) ([]models.Ico, error) {
	rows, err := s.db.QueryContext(ctx, queryListIcos, companyId)
	if err != nil {
		return nil, fmt.Errorf("failed to list icos: %w", err)
	}
	defer rows.Close()

	var icos []models.Ico
	for rows.Next() {
		ico, err := scanIco(rows)
		if err != nil {
			return nil, err
		}
		icos = append(icos, *ico)
	}
	return icos, rows.Err()
}

func (s *Service) GetIco(ctx context.Context, companyId, icoId string) (*models.Ico, error) {
	return s.getIcoRow(ctx, queryGetIco, companyId, icoId)
}

func (s *Service) GetIcoById(ctx context.Context, icoId string) (*models.Ico, error) {
	return s.getIcoRow(ctx, queryGetIcoById, icoId)
}

// GetEnabledIco returns the single live sale for a company, if any.
func (s *Service) GetEnabledIco(ctx context.Context, companyId string) (*models.Ico, error) {
	return s.getIcoRow(ctx, queryGetEnabledIco, companyId)
}

func (s *Service) getIcoRow(ctx context.Context, query string, args ...any) (*models.Ico, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	ico, err := scanIco(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ico: %w", err)
	}
	return ico, nil
}

func (s *Service) UpdateIco(ctx context.Context, ico *models.Ico) (*models.Ico, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryUpdateIco,
		ico.Amount.String(), ico.AmountRemaining.String(), ico.BaseGoalAmount.String(),
		ico.MinPurchaseAmount.String(), ico.MaxPurchaseAmount.String(), ico.MaxPurchases,
		string(ico.Status), ico.Public, ico.Enabled, ico.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to update ico: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, store.ErrNotFound
	}

	if ico.Enabled {
		if _, err := tx.ExecContext(ctx, queryDisableSiblingIcos, ico.CompanyId, ico.Id); err != nil {
			return nil, fmt.Errorf("failed to disable sibling icos: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ico update: %w", err)
	}

	return s.GetIcoById(ctx, ico.Id)
}

func (s *Service) DeleteIco(ctx context.Context, companyId, icoId string) error {
	result, err := s.db.ExecContext(ctx, querySoftDeleteIco, companyId, icoId)
	if err != nil {
		return fmt.Errorf("failed to delete ico: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// deductInventoryTx subtracts amount from amount_remaining under a
// version compare-and-swap, inside the caller's transaction. The
// version is the caller's snapshot; if another execution moved it, the
// caller gets ErrConcurrentModification and the webhook retries. A
// deduction that would drive the remaining inventory negative never
// commits.
func deductInventoryTx(ctx context.Context, tx *sql.Tx, icoId string, amount decimal.Decimal, version int64) error {
	var remainingStr string
	err := tx.QueryRowContext(ctx, queryGetIcoRemainingForUpdate, icoId, version).Scan(&remainingStr)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("sale %s at version %d: %w", icoId, version, store.ErrConcurrentModification)
	}
	if err != nil {
		return fmt.Errorf("failed to read remaining inventory: %w", err)
	}

	remaining, err := parseDecimal(remainingStr, "amount_remaining")
	if err != nil {
		return err
	}

	newRemaining := remaining.Sub(amount)
	if newRemaining.IsNegative() {
		return fmt.Errorf("deducting %s from %s: %w",
			amount.String(), remaining.String(), store.ErrInsufficientInventory)
	}

	result, err := tx.ExecContext(ctx, queryDeductIcoAmount, newRemaining.String(), icoId, version)
	if err != nil {
		return fmt.Errorf("failed to deduct inventory: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("sale %s: %w", icoId, store.ErrConcurrentModification)
	}

	zap.L().Info("Sale inventory deducted",
		zap.String("ico_id", icoId),
		zap.String("amount", amount.String()),
		zap.String("remaining", newRemaining.String()))
	return nil
}

func scanIco(row rowScanner) (*models.Ico, error) {
	ico := &models.Ico{}
	var amount, remaining, goal, minPurchase, maxPurchase string
	var status string
	err := row.Scan(
		&ico.Id, &ico.CompanyId, &ico.CurrencyCode, &amount, &remaining,
		&ico.BaseCurrencyCode, &goal, &minPurchase, &maxPurchase,
		&ico.MaxPurchases, &status, &ico.Public, &ico.Enabled,
		&ico.Deleted, &ico.Version, &ico.CreatedAt, &ico.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ico.Status = models.IcoStatus(status)

	if ico.Amount, err = parseDecimal(amount, "amount"); err != nil {
		return nil, err
	}
	if ico.AmountRemaining, err = parseDecimal(remaining, "amount_remaining"); err != nil {
		return nil, err
	}
	if ico.BaseGoalAmount, err = parseDecimal(goal, "base_goal_amount"); err != nil {
		return nil, err
	}
	if ico.MinPurchaseAmount, err = parseDecimal(minPurchase, "min_purchase_amount"); err != nil {
		return nil, err
	}
	if ico.MaxPurchaseAmount, err = parseDecimal(maxPurchase, "max_purchase_amount"); err != nil {
		return nil, err
	}
	return ico, nil
}
