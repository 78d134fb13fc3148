package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/google/uuid"
)

// UpsertCurrency inserts or refreshes a company currency by code.
func (s *Service) UpsertCurrency(ctx context.Context, currency models.Currency) (*models.Currency, error) {
	_, err := s.db.ExecContext(ctx, queryInsertCurrency,
		uuid.New().String(), currency.CompanyId, currency.Code, currency.Description,
		currency.Symbol, currency.Unit, currency.Divisibility, currency.Enabled)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert currency %s: %w", currency.Code, err)
	}
	return s.GetCurrency(ctx, currency.CompanyId, currency.Code)
}

func (s *Service) ListCurrencies(ctx context.Context, companyId string) ([]models.Currency, error) {
	rows, err := s.db.QueryContext(ctx, queryListCurrencies, companyId)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	defer rows.Close()

	var currencies []models.Currency
	for rows.Next() {
		currency, err := scanCurrency(rows)
		if err != nil {
			return nil, err
		}
		currencies = append(currencies, *currency)
	}
	return currencies, rows.Err()
}

// GetCurrency looks up a currency by code, case-insensitively.
func (s *Service) GetCurrency(ctx context.Context, companyId, code string) (*models.Currency, error) {
	row := s.db.QueryRowContext(ctx, queryGetCurrency, companyId, code)
	currency, err := scanCurrency(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency %s: %w", code, err)
	}
	return currency, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCurrency(row rowScanner) (*models.Currency, error) {
	currency := &models.Currency{}
	err := row.Scan(
		&currency.Id, &currency.CompanyId, &currency.Code, &currency.Description,
		&currency.Symbol, &currency.Unit, &currency.Divisibility, &currency.Enabled,
		&currency.CreatedAt, &currency.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return currency, nil
}
