package database

import (
	"context"
	"errors"
	"testing"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"
)

func TestCreateIco_InitializesRemaining(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	fixture := seedSale(t, service, "1000000")

	if !fixture.ico.AmountRemaining.Equal(fixture.ico.Amount) {
		t.Errorf("Expected remaining %s to equal amount %s",
			fixture.ico.AmountRemaining.String(), fixture.ico.Amount.String())
	}
	if fixture.ico.Version != 1 {
		t.Errorf("Expected initial version 1, got %d", fixture.ico.Version)
	}
}

func TestCreateIco_DisablesSiblings(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")

	second, err := service.CreateIco(ctx, &models.Ico{
		CompanyId:        fixture.company.Id,
		CurrencyCode:     "TOK2",
		Amount:           dec(t, "500"),
		BaseCurrencyCode: "USD",
		Status:           models.IcoStatusOpen,
		Enabled:          true,
	})
	if err != nil {
		t.Fatalf("CreateIco failed: %v", err)
	}

	enabled, err := service.GetEnabledIco(ctx, fixture.company.Id)
	if err != nil {
		t.Fatalf("GetEnabledIco failed: %v", err)
	}
	if enabled.Id != second.Id {
		t.Errorf("Expected the new sale to be the enabled one, got %s", enabled.Id)
	}

	first, err := service.GetIcoById(ctx, fixture.ico.Id)
	if err != nil {
		t.Fatalf("GetIcoById failed: %v", err)
	}
	if first.Enabled {
		t.Error("Expected the previous sale to be disabled")
	}
}

func TestDeleteIco_SoftDeletes(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")

	if err := service.DeleteIco(ctx, fixture.company.Id, fixture.ico.Id); err != nil {
		t.Fatalf("DeleteIco failed: %v", err)
	}

	if _, err := service.GetIcoById(ctx, fixture.ico.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got: %v", err)
	}
	if _, err := service.GetEnabledIco(ctx, fixture.company.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected no enabled sale after delete, got: %v", err)
	}
}

func TestCreatePhase_RejectsOversubscription(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")

	// The fixture phase already covers 100%.
	_, err := service.CreatePhase(ctx, &models.Phase{
		IcoId:      fixture.ico.Id,
		Level:      2,
		Percentage: 10,
		BaseRate:   dec(t, "2"),
	})
	if err == nil {
		t.Fatal("Expected phase creation beyond 100% to fail")
	}
}

func TestCreatePhase_RejectsInvalidLevel(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")

	for _, level := range []int{0, 8} {
		_, err := service.CreatePhase(ctx, &models.Phase{
			IcoId:      fixture.ico.Id,
			Level:      level,
			Percentage: 10,
			BaseRate:   dec(t, "1"),
		})
		if err == nil {
			t.Errorf("Expected level %d to be rejected", level)
		}
	}
}
