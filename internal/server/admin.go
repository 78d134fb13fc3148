package server

import (
	"net/http"

	"tokensale-go/internal/models"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type createCompanyRequest struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// handleCreateCompany bootstraps a tenant. The response carries the
// generated secret; it is not retrievable afterwards through listing
// endpoints. The configured default currency set is seeded alongside.
func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Identifier == "" {
		respondMessage(w, http.StatusBadRequest, "identifier is required", "identifier")
		return
	}

	company, err := s.services.Store.CreateCompany(r.Context(), req.Identifier, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.services.SeedCurrencies(r.Context(), company.Id); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, company)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r)
	company.Secret = ""
	respondData(w, http.StatusOK, company)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	company, err := s.services.Store.UpdateCompanyName(r.Context(), companyFrom(r).Id, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	company.Secret = ""
	respondData(w, http.StatusOK, company)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Store.DeleteCompany(r.Context(), companyFrom(r).Id); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

type upsertCurrencyRequest struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	Symbol       string `json:"symbol"`
	Unit         string `json:"unit"`
	Divisibility int    `json:"divisibility"`
	Enabled      bool   `json:"enabled"`
}

func (s *Server) handleUpsertCurrency(w http.ResponseWriter, r *http.Request) {
	var req upsertCurrencyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondMessage(w, http.StatusBadRequest, "code is required", "code")
		return
	}
	if req.Divisibility < 0 {
		respondMessage(w, http.StatusBadRequest, "divisibility must not be negative", "divisibility")
		return
	}

	currency, err := s.services.Store.UpsertCurrency(r.Context(), models.Currency{
		CompanyId:    companyFrom(r).Id,
		Code:         req.Code,
		Description:  req.Description,
		Symbol:       req.Symbol,
		Unit:         req.Unit,
		Divisibility: req.Divisibility,
		Enabled:      req.Enabled,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, currency)
}

func (s *Server) handleListCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := s.services.Store.ListCurrencies(r.Context(), companyFrom(r).Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, currencies)
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	currency, err := s.services.Store.GetCurrency(r.Context(), companyFrom(r).Id, mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, currency)
}

type createIcoRequest struct {
	CurrencyCode      string           `json:"currency_code"`
	Amount            decimal.Decimal  `json:"amount"`
	BaseCurrencyCode  string           `json:"base_currency_code"`
	BaseGoalAmount    decimal.Decimal  `json:"base_goal_amount"`
	MinPurchaseAmount decimal.Decimal  `json:"min_purchase_amount"`
	MaxPurchaseAmount decimal.Decimal  `json:"max_purchase_amount"`
	MaxPurchases      *int             `json:"max_purchases"`
	Status            models.IcoStatus `json:"status"`
	Public            bool             `json:"public"`
	Enabled           bool             `json:"enabled"`
}

func (s *Server) handleCreateIco(w http.ResponseWriter, r *http.Request) {
	var req createIcoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrencyCode == "" || req.BaseCurrencyCode == "" {
		respondMessage(w, http.StatusBadRequest, "currency_code and base_currency_code are required", "currency_code")
		return
	}
	if !req.Amount.IsPositive() {
		respondMessage(w, http.StatusBadRequest, "amount must be positive", "amount")
		return
	}

	maxPurchases := 10
	if req.MaxPurchases != nil {
		maxPurchases = *req.MaxPurchases
	}

	ico, err := s.services.Store.CreateIco(r.Context(), &models.Ico{
		CompanyId:         companyFrom(r).Id,
		CurrencyCode:      req.CurrencyCode,
		Amount:            req.Amount,
		BaseCurrencyCode:  req.BaseCurrencyCode,
		BaseGoalAmount:    req.BaseGoalAmount,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxPurchaseAmount: req.MaxPurchaseAmount,
		MaxPurchases:      maxPurchases,
		Status:            req.Status,
		Public:            req.Public,
		Enabled:           req.Enabled,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, ico)
}

func (s *Server) handleListIcos(w http.ResponseWriter, r *http.Request) {
	icos, err := s.services.Store.ListIcos(r.Context(), companyFrom(r).Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, icos)
}

func (s *Server) handleGetIco(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, ico)
}

type updateIcoRequest struct {
	Amount            *decimal.Decimal  `json:"amount"`
	BaseGoalAmount    *decimal.Decimal  `json:"base_goal_amount"`
	MinPurchaseAmount *decimal.Decimal  `json:"min_purchase_amount"`
	MaxPurchaseAmount *decimal.Decimal  `json:"max_purchase_amount"`
	MaxPurchases      *int              `json:"max_purchases"`
	Status            *models.IcoStatus `json:"status"`
	Public            *bool             `json:"public"`
	Enabled           *bool             `json:"enabled"`
}

// handleUpdateIco applies a partial update. Growing or shrinking the
// total amount moves amount_remaining by the same delta so sold
// inventory is preserved.
func (s *Server) handleUpdateIco(w http.ResponseWriter, r *http.Request) {
	var req updateIcoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}

	if req.Amount != nil {
		delta := req.Amount.Sub(ico.Amount)
		ico.Amount = *req.Amount
		ico.AmountRemaining = ico.AmountRemaining.Add(delta)
		if ico.AmountRemaining.IsNegative() {
			respondMessage(w, http.StatusBadRequest, "amount cannot drop below sold inventory", "amount")
			return
		}
	}
	if req.BaseGoalAmount != nil {
		ico.BaseGoalAmount = *req.BaseGoalAmount
	}
	if req.MinPurchaseAmount != nil {
		ico.MinPurchaseAmount = *req.MinPurchaseAmount
	}
	if req.MaxPurchaseAmount != nil {
		ico.MaxPurchaseAmount = *req.MaxPurchaseAmount
	}
	if req.MaxPurchases != nil {
		ico.MaxPurchases = *req.MaxPurchases
	}
	if req.Status != nil {
		ico.Status = *req.Status
	}
	if req.Public != nil {
		ico.Public = *req.Public
	}
	if req.Enabled != nil {
		ico.Enabled = *req.Enabled
	}

	updated, err := s.services.Store.UpdateIco(r.Context(), ico)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteIco(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Store.DeleteIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"]); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

type createPhaseRequest struct {
	Level      int             `json:"level"`
	Percentage int             `json:"percentage"`
	BaseRate   decimal.Decimal `json:"base_rate"`
}

func (s *Server) handleCreatePhase(w http.ResponseWriter, r *http.Request) {
	var req createPhaseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Scope the phase to a sale the tenant owns.
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}

	phase, err := s.services.Store.CreatePhase(r.Context(), &models.Phase{
		IcoId:      ico.Id,
		Level:      req.Level,
		Percentage: req.Percentage,
		BaseRate:   req.BaseRate,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusCreated, phase)
}

func (s *Server) handleListPhases(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	phases, err := s.services.Store.ListPhases(r.Context(), ico.Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, phases)
}

func (s *Server) handleGetPhase(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	phase, err := s.services.Store.GetPhase(r.Context(), ico.Id, mux.Vars(r)["phaseId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, phase)
}

func (s *Server) handleDeletePhase(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	if err := s.services.Store.DeletePhase(r.Context(), ico.Id, mux.Vars(r)["phaseId"]); err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, nil)
}

func (s *Server) handleListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := s.services.Store.ListRates(r.Context(), mux.Vars(r)["phaseId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, rates)
}

func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rate, err := s.services.Store.GetRate(r.Context(), vars["phaseId"], vars["rateId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, rate)
}

func (s *Server) handleListIcoQuotes(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	quotes, err := s.services.Store.ListIcoQuotes(r.Context(), ico.Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, quotes)
}

func (s *Server) handleListIcoPurchases(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	purchases, err := s.services.Store.ListIcoPurchases(r.Context(), ico.Id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, purchases)
}

func (s *Server) handleGetIcoPurchase(w http.ResponseWriter, r *http.Request) {
	ico, err := s.services.Store.GetIco(r.Context(), companyFrom(r).Id, mux.Vars(r)["icoId"])
	if err != nil {
		respondError(w, err)
		return
	}
	purchase, err := s.services.Store.GetIcoPurchase(r.Context(), ico.Id, mux.Vars(r)["purchaseId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, purchase)
}

func (s *Server) handleListPurchaseMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.services.Store.ListPurchaseMessages(r.Context(), mux.Vars(r)["purchaseId"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondData(w, http.StatusOK, messages)
}
