package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokensale-go/internal/app"
	"tokensale-go/internal/common"
	"tokensale-go/internal/database"
	"tokensale-go/internal/models"
	"tokensale-go/internal/rates"
	"tokensale-go/internal/reconciler"
	"tokensale-go/internal/sale"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

type stubLedger struct {
	credits int
	patches int
}

func (s *stubLedger) CreateCredit(context.Context, string, int64, string) (string, error) {
	s.credits++
	return fmt.Sprintf("credit-%d", s.credits), nil
}

func (s *stubLedger) PatchTransaction(context.Context, string, string) error {
	s.patches++
	return nil
}

type serverFixture struct {
	server  *Server
	service *database.Service
	ledger  *stubLedger
	cleanup func()
}

func setupServer(t *testing.T) *serverFixture {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	service := database.NewServiceWithDB(db)
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	provider := rates.NewProvider("http://exchange.invalid", time.Second, rates.NewMemoryCache(), time.Minute)
	calculator := rates.NewCalculator(provider, service)
	engine := sale.NewEngine(service, calculator, 10*time.Minute)
	ledger := &stubLedger{}

	services := &app.Services{
		Store:      service,
		Calculator: calculator,
		Engine:     engine,
		Ledger:     ledger,
		Reconciler: reconciler.New(service, engine, ledger),
		CurrencySeed: []common.CurrencyConfig{
			{Code: "USD", Description: "US Dollar", Divisibility: 2, Enabled: true},
			{Code: "TOK", Description: "Sale Token", Divisibility: 8, Enabled: true},
		},
	}

	return &serverFixture{
		server:  NewServer(services),
		service: service,
		ledger:  ledger,
		cleanup: func() { db.Close() },
	}
}

func (f *serverFixture) request(t *testing.T, method, path string, body any, company *models.Company) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if company != nil {
		req.Header.Set(headerCompany, company.Identifier)
		req.Header.Set(headerCompanySecret, company.Secret)
	}

	recorder := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(recorder, req)
	return recorder
}

// createCompany bootstraps a tenant through the API so the currency
// seed runs exactly as it does in production.
func (f *serverFixture) createCompany(t *testing.T) *models.Company {
	t.Helper()
	response := f.request(t, http.MethodPost, "/companies",
		map[string]string{"identifier": "acme", "name": "Acme Corp"}, nil)
	if response.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", response.Code, response.Body.String())
	}

	var envelope struct {
		Status string         `json:"status"`
		Data   models.Company `json:"data"`
	}
	if err := json.Unmarshal(response.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode company response: %v", err)
	}
	if envelope.Status != "success" || envelope.Data.Secret == "" {
		t.Fatalf("Unexpected company payload: %s", response.Body.String())
	}
	return &envelope.Data
}

func TestCreateCompany_SeedsCurrencies(t *testing.T) {
	fixture := setupServer(t)
	defer fixture.cleanup()

	company := fixture.createCompany(t)

	currencies, err := fixture.service.ListCurrencies(context.Background(), company.Id)
	if err != nil {
		t.Fatalf("ListCurrencies failed: %v", err)
	}
	if len(currencies) != 2 {
		t.Errorf("Expected seeded currencies, got %d", len(currencies))
	}
}

func TestAuthenticate_RejectsBadCredentials(t *testing.T) {
	fixture := setupServer(t)
	defer fixture.cleanup()

	company := fixture.createCompany(t)

	response := fixture.request(t, http.MethodGet, "/admin/company", nil, nil)
	if response.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", response.Code)
	}

	forged := *company
	forged.Secret = "wrong-secret"
	response = fixture.request(t, http.MethodGet, "/admin/company", nil, &forged)
	if response.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong secret, got %d", response.Code)
	}

	response = fixture.request(t, http.MethodGet, "/admin/company", nil, company)
	if response.Code != http.StatusOK {
		t.Errorf("Expected 200 with valid credentials, got %d: %s", response.Code, response.Body.String())
	}
}

func TestWebhookInitiate_ValidatesEnvelope(t *testing.T) {
	fixture := setupServer(t)
	defer fixture.cleanup()

	company := fixture.createCompany(t)

	event := models.WebhookEvent{
		Event:   models.EventTransactionExecute,
		Company: company.Identifier,
		Data: models.WebhookTransaction{
			Id:       "tx-1",
			Status:   "pending",
			Currency: models.WebhookCurrency{Code: "USD"},
			Amount:   10000,
			TxType:   "credit",
			User:     models.WebhookUser{Identifier: "alice"},
		},
	}

	// Wrong event name on the initiate route.
	response := fixture.request(t, http.MethodPost, "/webhooks/initiate", event, company)
	if response.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for wrong event, got %d", response.Code)
	}

	event.Event = models.EventTransactionInitiate
	event.Data.TxType = "debit"
	response = fixture.request(t, http.MethodPost, "/webhooks/initiate", event, company)
	if response.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-credit tx, got %d", response.Code)
	}

	event.Data.TxType = "credit"
	event.Data.Status = "complete"
	response = fixture.request(t, http.MethodPost, "/webhooks/initiate", event, company)
	if response.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-pending initiate, got %d", response.Code)
	}
}

func TestWebhookFlow_InitiateAndExecute(t *testing.T) {
	fixture := setupServer(t)
	defer fixture.cleanup()

	ctx := context.Background()
	company := fixture.createCompany(t)

	ico, err := fixture.service.CreateIco(ctx, &models.Ico{
		CompanyId:        company.Id,
		CurrencyCode:     "TOK",
		Amount:           decimal.NewFromInt(1000000),
		BaseCurrencyCode: "USD",
		MaxPurchases:     10,
		Status:           models.IcoStatusOpen,
		Public:           true,
		Enabled:          true,
	})
	if err != nil {
		t.Fatalf("CreateIco failed: %v", err)
	}
	if _, err := fixture.service.CreatePhase(ctx, &models.Phase{
		IcoId: ico.Id, Level: 1, Percentage: 100, BaseRate: decimal.NewFromInt(1),
	}); err != nil {
		t.Fatalf("CreatePhase failed: %v", err)
	}

	event := models.WebhookEvent{
		Event:   models.EventTransactionInitiate,
		Company: company.Identifier,
		Data: models.WebhookTransaction{
			Id:       "tx-1",
			Status:   "pending",
			Currency: models.WebhookCurrency{Code: "USD"},
			Amount:   10000,
			TxType:   "credit",
			User:     models.WebhookUser{Identifier: "alice"},
		},
	}

	response := fixture.request(t, http.MethodPost, "/webhooks/initiate", event, company)
	if response.Code != http.StatusOK {
		t.Fatalf("Initiate webhook failed with %d: %s", response.Code, response.Body.String())
	}
	if fixture.ledger.credits != 1 {
		t.Errorf("Expected one ledger credit, got %d", fixture.ledger.credits)
	}

	event.Event = models.EventTransactionExecute
	event.Data.Status = "complete"
	response = fixture.request(t, http.MethodPost, "/webhooks/execute", event, company)
	if response.Code != http.StatusOK {
		t.Fatalf("Execute webhook failed with %d: %s", response.Code, response.Body.String())
	}

	updated, err := fixture.service.GetIcoById(ctx, ico.Id)
	if err != nil {
		t.Fatalf("GetIcoById failed: %v", err)
	}
	if !updated.AmountRemaining.Equal(decimal.RequireFromString("999900")) {
		t.Errorf("Expected remaining 999900, got %s", updated.AmountRemaining.String())
	}
}
