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
)

// UpsertRate stores the latest evaluated rate for a (phase, currency)
// pair. Stored values are snapshots for inspection; live reads go
// through the calculator.
func (s *Service) UpsertRate(ctx context.Context, phaseId, currencyCode string, value decimal.Decimal) (*models.Rate, error) {
	_, err := s.db.ExecContext(ctx, queryUpsertRate,
		uuid.New().String(), phaseId, currencyCode, value.String())
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rate: %w", err)
	}

	row := s.db.QueryRowContext(ctx, queryGetRateByPhaseCurrency, phaseId, currencyCode)
	rate, err := scanRate(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reload rate: %w", err)
	}
	return rate, nil
}

func (s *Service) ListRates(ctx context.Context, phaseId string) ([]models.Rate, error) {
	rows, err := s.db.QueryContext(ctx, queryListRates, phaseId)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	var rates []models.Rate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, *rate)
	}
	return rates, rows.Err()
}

func (s *Service) GetRate(ctx context.Context, phaseId, rateId string) (*models.Rate, error) {
	row := s.db.QueryRowContext(ctx, queryGetRate, phaseId, rateId)
	rate, err := scanRate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate: %w", err)
	}
	return rate, nil
}

func scanRate(row rowScanner) (*models.Rate, error) {
	rate := &models.Rate{}
	var value string
	err := row.Scan(
		&rate.Id, &rate.PhaseId, &rate.CurrencyCode, &value,
		&rate.CreatedAt, &rate.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if rate.Value, err = parseDecimal(value, "rate"); err != nil {
		return nil, err
	}
	return rate, nil
}
