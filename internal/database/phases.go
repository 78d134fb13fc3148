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

// CreatePhase persists a phase after checking that the live phases of
// the sale stay within 100 percent of inventory.
func (s *Service) CreatePhase(ctx context.Context, phase *models.Phase) (*models.Phase, error) {
	if phase.Level < 1 || phase.Level > 7 {
		return nil, fmt.Errorf("phase level must be between 1 and 7, got %d", phase.Level)
	}
	if phase.Percentage < 1 || phase.Percentage > 100 {
		return nil, fmt.Errorf("phase percentage must be between 1 and 100, got %d", phase.Percentage)
	}

	var allocated int
	if err := s.db.QueryRowContext(ctx, querySumPhasePercentages, phase.IcoId).Scan(&allocated); err != nil {
		return nil, fmt.Errorf("failed to sum phase percentages: %w", err)
	}
	if allocated+phase.Percentage > 100 {
		return nil, fmt.Errorf("phase percentages would exceed 100 (have %d, adding %d)",
			allocated, phase.Percentage)
	}

	phase.Id = uuid.New().String()
	_, err := s.db.ExecContext(ctx, queryInsertPhase,
		phase.Id, phase.IcoId, phase.Level, phase.Percentage, phase.BaseRate.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create phase: %w", err)
	}

	return s.GetPhaseById(ctx, phase.Id)
}

func (s *Service) ListPhases(ctx context.Context, icoId string) ([]models.Phase, error) {
	rows, err := s.db.QueryContext(ctx, queryListPhases, icoId)
	if err != nil {
		return nil, fmt.Errorf("failed to list phases: %w", err)
	}
	defer rows.Close()

	var phases []models.Phase
	for rows.Next() {
		phase, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, *phase)
	}
	return phases, rows.Err()
}

func (s *Service) GetPhase(ctx context.Context, icoId, phaseId string) (*models.Phase, error) {
	return s.getPhaseRow(ctx, queryGetPhase, icoId, phaseId)
}

func (s *Service) GetPhaseById(ctx context.Context, phaseId string) (*models.Phase, error) {
	return s.getPhaseRow(ctx, queryGetPhaseById, phaseId)
}

func (s *Service) getPhaseRow(ctx context.Context, query string, args ...any) (*models.Phase, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	phase, err := scanPhase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}
	return phase, nil
}

func (s *Service) DeletePhase(ctx context.Context, icoId, phaseId string) error {
	result, err := s.db.ExecContext(ctx, querySoftDeletePhase, icoId, phaseId)
	if err != nil {
		return fmt.Errorf("failed to delete phase: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanPhase(row rowScanner) (*models.Phase, error) {
	phase := &models.Phase{}
	var baseRate string
	err := row.Scan(
		&phase.Id, &phase.IcoId, &phase.Level, &phase.Percentage,
		&baseRate, &phase.Deleted, &phase.CreatedAt, &phase.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if phase.BaseRate, err = parseDecimal(baseRate, "base_rate"); err != nil {
		return nil, err
	}
	return phase, nil
}
