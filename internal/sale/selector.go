package sale

import (
	"tokensale-go/internal/models"
	"tokensale-go/internal/store"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ActivePhase selects the phase currently on sale. Phases must be
// ordered by ascending level (the store returns them that way). Each
// phase covers its percentage of total inventory; the first phase whose
// slice is not yet fully sold is active. A fully subscribed sale
// returns store.ErrNoActivePhase, which is an expected terminal state.
func ActivePhase(ico *models.Ico, phases []models.Phase) (*models.Phase, error) {
	if ico.AmountRemaining.LessThanOrEqual(decimal.Zero) || ico.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, store.ErrNoActivePhase
	}

	sold := ico.Amount.Sub(ico.AmountRemaining)
	percentSold := sold.DivRound(ico.Amount, 28).Mul(oneHundred)

	for i := range phases {
		percentage := decimal.NewFromInt(int64(phases[i].Percentage))
		if percentSold.LessThan(percentage) {
			return &phases[i], nil
		}
		percentSold = percentSold.Sub(percentage)
	}

	return nil, store.ErrNoActivePhase
}
