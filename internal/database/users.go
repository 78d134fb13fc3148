package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tokensale-go/internal/models"

	"github.com/google/uuid"
)

// GetOrCreateUser resolves a company-scoped user by external identifier,
// creating the local record on first sight.
func (s *Service) GetOrCreateUser(ctx context.Context, companyId, identifier string) (*models.User, error) {
	user, err := s.getUser(ctx, companyId, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	_, err = s.db.ExecContext(ctx, queryInsertUser, uuid.New().String(), identifier, companyId)
	if err != nil && !isUniqueViolation(err) {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err = s.getUser(ctx, companyId, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return user, nil
}

func (s *Service) getUser(ctx context.Context, companyId, identifier string) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRowContext(ctx, queryGetUserByIdentifier, companyId, identifier).Scan(
		&user.Id, &user.Identifier, &user.CompanyId, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}
