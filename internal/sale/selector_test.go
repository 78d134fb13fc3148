package sale

import (
	"errors"
	"testing"

	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/shopspring/decimal"
)

func testIco(t *testing.T, amount, remaining string) *models.Ico {
	t.Helper()
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		t.Fatalf("Invalid amount %q: %v", amount, err)
	}
	parsedRemaining, err := decimal.NewFromString(remaining)
	if err != nil {
		t.Fatalf("Invalid remaining %q: %v", remaining, err)
	}
	return &models.Ico{Amount: parsedAmount, AmountRemaining: parsedRemaining}
}

func testPhases(percentages ...int) []models.Phase {
	phases := make([]models.Phase, 0, len(percentages))
	for i, percentage := range percentages {
		phases = append(phases, models.Phase{
			Id:         string(rune('a' + i)),
			Level:      i + 1,
			Percentage: percentage,
		})
	}
	return phases
}

func TestActivePhase_ProgressesWithSales(t *testing.T) {
	phases := testPhases(10, 40, 50)

	cases := []struct {
		name      string
		remaining string
		wantLevel int
	}{
		{"nothing sold", "1000", 1},
		{"first slice partially sold", "950", 1},
		{"first slice exhausted", "900", 2},
		{"second slice partially sold", "600", 2},
		{"second slice exhausted", "500", 3},
		{"last token available", "1", 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			phase, err := ActivePhase(testIco(t, "1000", tc.remaining), phases)
			if err != nil {
				t.Fatalf("ActivePhase failed: %v", err)
			}
			if phase.Level != tc.wantLevel {
				t.Errorf("Expected level %d, got %d", tc.wantLevel, phase.Level)
			}
		})
	}
}

func TestActivePhase_ExhaustedSale(t *testing.T) {
	phases := testPhases(50, 50)

	if _, err := ActivePhase(testIco(t, "1000", "0"), phases); !errors.Is(err, store.ErrNoActivePhase) {
		t.Errorf("Expected ErrNoActivePhase when sold out, got: %v", err)
	}
	if _, err := ActivePhase(testIco(t, "0", "0"), phases); !errors.Is(err, store.ErrNoActivePhase) {
		t.Errorf("Expected ErrNoActivePhase for empty sale, got: %v", err)
	}
}

func TestActivePhase_PartialCoverage(t *testing.T) {
	// Phases covering only 50% leave the rest of the inventory
	// unsellable.
	phases := testPhases(50)

	phase, err := ActivePhase(testIco(t, "1000", "600"), phases)
	if err != nil {
		t.Fatalf("ActivePhase failed: %v", err)
	}
	if phase.Level != 1 {
		t.Errorf("Expected level 1, got %d", phase.Level)
	}

	if _, err := ActivePhase(testIco(t, "1000", "400"), phases); !errors.Is(err, store.ErrNoActivePhase) {
		t.Errorf("Expected ErrNoActivePhase past phase coverage, got: %v", err)
	}
}

func TestActivePhase_NoPhases(t *testing.T) {
	if _, err := ActivePhase(testIco(t, "1000", "1000"), nil); !errors.Is(err, store.ErrNoActivePhase) {
		t.Errorf("Expected ErrNoActivePhase without phases, got: %v", err)
	}
}
