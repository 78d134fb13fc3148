package server

import (
	"net/http"

	"tokensale-go/internal/models"
	"tokensale-go/internal/sale"
	"tokensale-go/internal/store"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// publicIco loads a sale visible to end users: public, not hidden.
func (s *Server) publicIco(r *http.Request) (*models.Ico, error) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		return nil, err
	}
	if !ico.Public || ico.Status == models.IcoStatusHidden {
		return nil, store.ErrNotFound
	}
	return ico, nil
}

func (s *Server) handleListPublicIcos(w http.ResponseWriter, r *http.Request) {
	icos, err := s.services.Store.ListIcos(r.Context(), companyFrom(r).Id)
	if err != nil {
		respondError(w, err)
		return
	}

	visible := make([]models.Ico, 0, len(icos))
	for _, ico := range icos {
		if ico.Public && ico.Status != models.IcoStatusHidden {
			visible = append(visible, ico)
		}
	}
	respondData(w, http.StatusOK, visible)
}

func (s *Server) handleGetPublicIco(w http.ResponseWriter, r *http.Request) {
	ico, err := s.publicIco(r)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, ico)
}

// handleEvaluateRate prices one token of a sale in the requested
// currency at the sale's current phase. The evaluation refreshes the
// stored rate snapshot.
func (s *Server) handleEvaluateRate(w http.ResponseWriter, r *http.Request) {
	ico, err := s.publicIco(r)
	if err != nil {
		respondError(w, err)
		return
	}

	phase, err := s.services.Engine.ActivePhase(r.Context(), ico)
	if err != nil {
		respondError(w, err)
		return
	}

	code := mux.Vars(r)["currencyCode"]
	value, err := s.services.Calculator.Evaluate(r.Context(), code, ico, phase)
	if err != nil {
		respondError(w, err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"ico_id":        ico.Id,
		"phase_id":      phase.Id,
		"currency_code": code,
		"rate":          value,
	})
}

type createQuoteRequest struct {
	DepositCurrency string           `json:"deposit_currency"`
	DepositAmount   *decimal.Decimal `json:"deposit_amount"`
	TokenAmount     *decimal.Decimal `json:"token_amount"`
}

func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.DepositCurrency == "" {
		respondMessage(w, http.StatusBadRequest, "deposit_currency is required", "deposit_currency")
		return
	}

	ico, err := s.publicIco(r)
	if err != nil {
		respondError(w, err)
		return
	}

	currency, err := s.services.Store.GetCurrency(r.Context(), companyFrom(r).Id, req.DepositCurrency)
	if err != nil {
		respondError(w, err)
		return
	}
	if !currency.Enabled {
		respondMessage(w, http.StatusBadRequest, "deposit currency is disabled", "deposit_currency")
		return
	}

	user, err := s.services.Store.GetOrCreateUser(r.Context(), companyFrom(r).Id, mux.Vars(r)["identifier"])
	if err != nil {
		respondError(w, err)
		return
	}

	quote, err := s.services.Engine.CreateQuote(r.Context(), sale.QuoteRequest{
		User:            user,
		Ico:             ico,
		DepositCurrency: currency,
		DepositAmount:   req.DepositAmount,
		TokenAmount:     req.TokenAmount,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, quote)
}

func (s *Server) handleListUserQuotes(w http.ResponseWriter, r *http.Request) {
	ico, err := s.publicIco(r)
	if err != nil {
		respondError(w, err)
		return
	}
	user, err := s.services.Store.GetOrCreateUser(r.Context(), companyFrom(r).Id, mux.Vars(r)["identifier"])
	if err != nil {
		respondError(w, err)
		return
	}
	quotes, err := s.services.Store.ListUserQuotes(r.Context(), user.Id, ico.Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, quotes)
}

func (s *Server) handleGetUserQuote(w http.ResponseWriter, r *http.Request) {
	ico, err := s.publicIco(r)
	if err != nil {
		respondError(w, err)
		return
	}
	user, err := s.services.Store.GetOrCreateUser(r.Context(), companyFrom(r).Id, mux.Vars(r)["identifier"])
	if err != nil {
		respondError(w, err)
		return
	}
	quote, err := s.services.Store.GetUserQuote(r.Context(), user.Id, ico.Id, mux.Vars(r)["quoteId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, quote)
}

func (s *Server) handleListUserPurchases(w http.ResponseWriter, r *http.Request) {
	ico, err := s.publicIco(r)
	if err != nil {
		respondError(w, err)
		return
	}
	user, err := s.services.Store.GetOrCreateUser(r.Context(), companyFrom(r).Id, mux.Vars(r)["identifier"])
	if err != nil {
		respondError(w, err)
		return
	}
	purchases, err := s.services.Store.ListUserPurchases(r.Context(), user.Id, ico.Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, purchases)
}
