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

// CreateCompany registers a company and generates its webhook secret.
func (s *Service) CreateCompany(ctx context.Context, identifier, name string) (*models.Company, error) {
	company := &models.Company{
		Id:         uuid.New().String(),
		Identifier: identifier,
		Secret:     uuid.New().String(),
		Name:       name,
	}

	_, err := s.db.ExecContext(ctx, queryInsertCompany,
		company.Id, company.Identifier, company.Secret, company.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: company %s already activated", store.ErrDuplicateTransaction, identifier)
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	return s.GetCompanyByIdentifier(ctx, identifier)
}

func (s *Service) GetCompanyByIdentifier(ctx context.Context, identifier string) (*models.Company, error) {
	company := &models.Company{}
	err := s.db.QueryRowContext(ctx, queryGetCompanyByIdentifier, identifier).Scan(
		&company.Id, &company.Identifier, &company.Secret, &company.Name,
		&company.CreatedAt, &company.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

func (s *Service) UpdateCompanyName(ctx context.Context, companyId, name string) (*models.Company, error) {
	result, err := s.db.ExecContext(ctx, queryUpdateCompanyName, name, companyId)
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, store.ErrNotFound
	}

	company := &models.Company{}
	err = s.db.QueryRowContext(ctx, queryGetCompanyById, companyId).Scan(
		&company.Id, &company.Identifier, &company.Secret, &company.Name,
		&company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reload company: %w", err)
	}
	return company, nil
}

// DeleteCompany removes a company; child rows cascade.
func (s *Service) DeleteCompany(ctx context.Context, companyId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteCompany, companyId)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
