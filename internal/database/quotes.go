package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Service) CreateQuote(ctx context.Context, quote *models.Quote) (*models.Quote, error) {
	quote.Id = uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertQuote,
		quote.Id, quote.UserId, quote.PhaseId, quote.DepositCurrencyCode,
		quote.DepositAmount.String(), quote.TokenAmount.String(), quote.Rate.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}
	return s.GetQuoteById(ctx, quote.Id)
}

func (s *Service) GetQuoteById(ctx context.Context, quoteId string) (*models.Quote, error) {
	row := s.db.QueryRowContext(ctx, queryGetQuoteById, quoteId)
	return scanQuoteOrNotFound(row)
}

func (s *Service) GetUserQuote(ctx context.Context, userId, icoId, quoteId string) (*models.Quote, error) {
	row := s.db.QueryRowContext(ctx, queryGetUserQuote, quoteId, userId, icoId)
	return scanQuoteOrNotFound(row)
}

func (s *Service) ListUserQuotes(ctx context.Context, userId, icoId string) ([]models.Quote, error) {
	return s.listQuotes(ctx, queryListUserQuotes, userId, icoId)
}

func (s *Service) ListIcoQuotes(ctx context.Context, icoId string) ([]models.Quote, error) {
	return s.listQuotes(ctx, queryListIcoQuotes, icoId)
}

func (s *Service) listQuotes(ctx context.Context, query string, args ...any) ([]models.Quote, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *quote)
	}
	return quotes, rows.Err()
}

// FindReusableQuote returns the newest unconsumed quote matching the
// reuse key created at or after the cutoff. The cutoff is bound in the
// CURRENT_TIMESTAMP text format so the comparison against created_at
// stays exact.
func (s *Service) FindReusableQuote(ctx context.Context, userId, phaseId string, depositAmount decimal.Decimal, currencyCode string, cutoff time.Time) (*models.Quote, error) {
	row := s.db.QueryRowContext(ctx, queryFindReusableQuote,
		userId, phaseId, depositAmount.String(), currencyCode,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	return scanQuoteOrNotFound(row)
}

// DeleteUnconsumedQuotes removes stale unconsumed quotes matching the
// reuse key; a fresh quote supersedes them.
func (s *Service) DeleteUnconsumedQuotes(ctx context.Context, userId, phaseId string, depositAmount decimal.Decimal, currencyCode string) error {
	_, err := s.db.ExecContext(ctx, queryDeleteUnconsumedQuotes,
		userId, phaseId, depositAmount.String(), currencyCode)
	if err != nil {
		return fmt.Errorf("failed to delete unconsumed quotes: %w", err)
	}
	return nil
}

// CountConsumedQuotes counts the user's quotes for a sale that are
// attached to a purchase, the basis of the max-purchases cap.
func (s *Service) CountConsumedQuotes(ctx context.Context, userId, icoId string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, queryCountConsumedQuotes, userId, icoId).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count consumed quotes: %w", err)
	}
	return count, nil
}

func scanQuoteOrNotFound(row rowScanner) (*models.Quote, error) {
	quote, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

func scanQuote(row rowScanner) (*models.Quote, error) {
	quote := &models.Quote{}
	var depositAmount, tokenAmount, rate string
	err := row.Scan(
		&quote.Id, &quote.UserId, &quote.PhaseId, &quote.DepositCurrencyCode,
		&depositAmount, &tokenAmount, &rate, &quote.CreatedAt)
	if err != nil {
		return nil, err
	}
	if quote.DepositAmount, err = parseDecimal(depositAmount, "deposit_amount"); err != nil {
		return nil, err
	}
	if quote.TokenAmount, err = parseDecimal(tokenAmount, "token_amount"); err != nil {
		return nil, err
	}
	if quote.Rate, err = parseDecimal(rate, "rate"); err != nil {
		return nil, err
	}
	return quote, nil
}
