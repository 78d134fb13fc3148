package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"
)

func TestFindReusableQuote_RespectsCutoff(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")
	quote := fixture.createQuote(t, service, "100", "100")

	found, err := service.FindReusableQuote(ctx,
		fixture.user.Id, fixture.phase.Id, dec(t, "100"), "USD",
		time.Now().UTC().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("FindReusableQuote failed: %v", err)
	}
	if found.Id != quote.Id {
		t.Errorf("Expected quote %s, got %s", quote.Id, found.Id)
	}

	// A cutoff in the future makes the quote stale.
	_, err = service.FindReusableQuote(ctx,
		fixture.user.Id, fixture.phase.Id, dec(t, "100"), "USD",
		time.Now().UTC().Add(time.Hour))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for stale quote, got: %v", err)
	}

	// A different deposit amount is a different reuse key.
	_, err = service.FindReusableQuote(ctx,
		fixture.user.Id, fixture.phase.Id, dec(t, "200"), "USD",
		time.Now().UTC().Add(-10*time.Minute))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for different amount, got: %v", err)
	}
}

func TestFindReusableQuote_ExactCutoffBoundary(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")
	quote := fixture.createQuote(t, service, "100", "100")

	// created_at >= cutoff must hold at exact-second equality; the
	// comparison against the stored text is lexicographic, so the bound
	// value must match its format.
	found, err := service.FindReusableQuote(ctx,
		fixture.user.Id, fixture.phase.Id, dec(t, "100"), "USD",
		quote.CreatedAt)
	if err != nil {
		t.Fatalf("FindReusableQuote at exact cutoff failed: %v", err)
	}
	if found.Id != quote.Id {
		t.Errorf("Expected quote %s, got %s", quote.Id, found.Id)
	}
}

func TestFindReusableQuote_IgnoresConsumedQuotes(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")
	quote := fixture.createQuote(t, service, "100", "100")

	_, err := service.CreatePurchase(ctx, &models.Purchase{
		QuoteId:     quote.Id,
		DepositTxId: "tx-1",
	}, func(context.Context) (string, error) { return "credit-1", nil })
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	_, err = service.FindReusableQuote(ctx,
		fixture.user.Id, fixture.phase.Id, dec(t, "100"), "USD",
		time.Now().UTC().Add(-10*time.Minute))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected consumed quote to be ineligible, got: %v", err)
	}
}

func TestDeleteUnconsumedQuotes_KeepsConsumed(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")

	consumed := fixture.createQuote(t, service, "100", "100")
	_, err := service.CreatePurchase(ctx, &models.Purchase{
		QuoteId:     consumed.Id,
		DepositTxId: "tx-1",
	}, func(context.Context) (string, error) { return "credit-1", nil })
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	stale := fixture.createQuote(t, service, "100", "100")

	if err := service.DeleteUnconsumedQuotes(ctx,
		fixture.user.Id, fixture.phase.Id, dec(t, "100"), "USD"); err != nil {
		t.Fatalf("DeleteUnconsumedQuotes failed: %v", err)
	}

	if _, err := service.GetQuoteById(ctx, stale.Id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected unconsumed quote to be deleted, got: %v", err)
	}
	if _, err := service.GetQuoteById(ctx, consumed.Id); err != nil {
		t.Errorf("Expected consumed quote to survive, got: %v", err)
	}
}

func TestCountConsumedQuotes(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	fixture := seedSale(t, service, "1000")

	count, err := service.CountConsumedQuotes(ctx, fixture.user.Id, fixture.ico.Id)
	if err != nil {
		t.Fatalf("CountConsumedQuotes failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected zero consumed quotes, got %d", count)
	}

	// One consumed, one open.
	quote := fixture.createQuote(t, service, "100", "100")
	fixture.createQuote(t, service, "200", "200")
	_, err = service.CreatePurchase(ctx, &models.Purchase{
		QuoteId:     quote.Id,
		DepositTxId: "tx-1",
	}, func(context.Context) (string, error) { return "credit-1", nil })
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	count, err = service.CountConsumedQuotes(ctx, fixture.user.Id, fixture.ico.Id)
	if err != nil {
		t.Fatalf("CountConsumedQuotes failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected one consumed quote, got %d", count)
	}
}
