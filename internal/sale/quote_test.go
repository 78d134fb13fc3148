package sale

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"tokensale-go/internal/database"
	"tokensale-go/internal/models"
	"tokensale-go/internal/rates"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

type engineFixture struct {
	service *database.Service
	engine  *Engine
	company *models.Company
	user    *models.User
	ico     *models.Ico
	phase   *models.Phase
	usd     *models.Currency
	tok     *models.Currency
	cleanup func()
}

// setupEngine builds a quote engine over an in-memory store with a
// USD-based sale of TOK tokens. Pricing in the base currency never
// reaches the exchange API.
func setupEngine(t *testing.T, baseRate string) *engineFixture {
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

	ctx := context.Background()
	company, err := service.CreateCompany(ctx, "acme", "Acme Corp")
	if err != nil {
		t.Fatalf("CreateCompany failed: %v", err)
	}
	user, err := service.GetOrCreateUser(ctx, company.Id, "alice")
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	usd, err := service.UpsertCurrency(ctx, models.Currency{
		CompanyId: company.Id, Code: "USD", Divisibility: 2, Enabled: true,
	})
	if err != nil {
		t.Fatalf("UpsertCurrency USD failed: %v", err)
	}
	tok, err := service.UpsertCurrency(ctx, models.Currency{
		CompanyId: company.Id, Code: "TOK", Divisibility: 18, Enabled: true,
	})
	if err != nil {
		t.Fatalf("UpsertCurrency TOK failed: %v", err)
	}

	ico, err := service.CreateIco(ctx, &models.Ico{
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

	rate, err := decimal.NewFromString(baseRate)
	if err != nil {
		t.Fatalf("Invalid base rate: %v", err)
	}
	phase, err := service.CreatePhase(ctx, &models.Phase{
		IcoId: ico.Id, Level: 1, Percentage: 100, BaseRate: rate,
	})
	if err != nil {
		t.Fatalf("CreatePhase failed: %v", err)
	}

	provider := rates.NewProvider("http://exchange.invalid", time.Second, rates.NewMemoryCache(), time.Minute)
	calculator := rates.NewCalculator(provider, service)
	engine := NewEngine(service, calculator, 10*time.Minute)

	return &engineFixture{
		service: service,
		engine:  engine,
		company: company,
		user:    user,
		ico:     ico,
		phase:   phase,
		usd:     usd,
		tok:     tok,
		cleanup: func() { db.Close() },
	}
}

func amountPtr(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("Invalid decimal %q: %v", value, err)
	}
	return &parsed
}

func TestCreateQuote_DerivesTokenAmount(t *testing.T) {
	fixture := setupEngine(t, "2")
	defer fixture.cleanup()

	quote, err := fixture.engine.CreateQuote(context.Background(), QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   amountPtr(t, "100"),
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	// 100 USD at 2 USD per token buys 50 tokens.
	if !quote.TokenAmount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected 50 tokens, got %s", quote.TokenAmount.String())
	}
	if !quote.Rate.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected rate 2, got %s", quote.Rate.String())
	}
	if quote.PhaseId != fixture.phase.Id {
		t.Errorf("Expected phase %s, got %s", fixture.phase.Id, quote.PhaseId)
	}
}

func TestCreateQuote_DerivesDepositAmount(t *testing.T) {
	fixture := setupEngine(t, "2")
	defer fixture.cleanup()

	quote, err := fixture.engine.CreateQuote(context.Background(), QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		TokenAmount:     amountPtr(t, "50"),
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if !quote.DepositAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected deposit 100, got %s", quote.DepositAmount.String())
	}
}

func TestCreateQuote_RoundTripWithinMinorUnit(t *testing.T) {
	// A rate of 3 forces a repeating decimal, so the token amount cannot
	// represent the deposit exactly. Quoting the deposit forward and the
	// resulting tokens back must land within one minor unit of USD.
	fixture := setupEngine(t, "3")
	defer fixture.cleanup()

	ctx := context.Background()
	deposit := decimal.NewFromInt(100)

	forward, err := fixture.engine.CreateQuote(ctx, QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   &deposit,
	})
	if err != nil {
		t.Fatalf("Forward CreateQuote failed: %v", err)
	}

	tokenAmount := forward.TokenAmount
	back, err := fixture.engine.CreateQuote(ctx, QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		TokenAmount:     &tokenAmount,
	})
	if err != nil {
		t.Fatalf("Backward CreateQuote failed: %v", err)
	}

	minorUnit := decimal.New(1, -int32(fixture.usd.Divisibility))
	if diff := deposit.Sub(back.DepositAmount).Abs(); diff.GreaterThan(minorUnit) {
		t.Errorf("Round trip drifted by %s: %s -> %s tokens -> %s",
			diff.String(), deposit.String(), tokenAmount.String(), back.DepositAmount.String())
	}
}

func TestCreateQuote_RequiresExactlyOneAmount(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	ctx := context.Background()
	requests := []QuoteRequest{
		{User: fixture.user, Ico: fixture.ico, DepositCurrency: fixture.usd},
		{User: fixture.user, Ico: fixture.ico, DepositCurrency: fixture.usd,
			DepositAmount: amountPtr(t, "10"), TokenAmount: amountPtr(t, "10")},
	}

	for _, req := range requests {
		_, err := fixture.engine.CreateQuote(ctx, req)
		var validation *ValidationError
		if !errors.As(err, &validation) || validation.Field != "amount" {
			t.Errorf("Expected amount validation error, got: %v", err)
		}
	}
}

func TestCreateQuote_RejectsClosedSale(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	fixture.ico.Status = models.IcoStatusClosed
	_, err := fixture.engine.CreateQuote(context.Background(), QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   amountPtr(t, "100"),
	})
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Field != "ico" {
		t.Errorf("Expected ico validation error, got: %v", err)
	}
}

func TestCreateQuote_EnforcesTokenBounds(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	ctx := context.Background()
	fixture.ico.MinPurchaseAmount = decimal.NewFromInt(10)
	fixture.ico.MaxPurchaseAmount = decimal.NewFromInt(1000)

	for _, deposit := range []string{"5", "5000"} {
		_, err := fixture.engine.CreateQuote(ctx, QuoteRequest{
			User:            fixture.user,
			Ico:             fixture.ico,
			DepositCurrency: fixture.usd,
			DepositAmount:   amountPtr(t, deposit),
		})
		var validation *ValidationError
		if !errors.As(err, &validation) || validation.Field != "token_amount" {
			t.Errorf("Deposit %s: expected token_amount validation error, got: %v", deposit, err)
		}
	}
}

func TestCreateQuote_EnforcesMaxPurchases(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	ctx := context.Background()
	fixture.ico.MaxPurchases = 1

	quote, err := fixture.engine.CreateQuote(ctx, QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   amountPtr(t, "100"),
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	// Consume the quote; the next request exceeds the cap.
	_, err = fixture.service.CreatePurchase(ctx, &models.Purchase{
		QuoteId:     quote.Id,
		DepositTxId: "tx-1",
	}, func(context.Context) (string, error) { return "credit-1", nil })
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	_, err = fixture.engine.CreateQuote(ctx, QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   amountPtr(t, "200"),
	})
	var validation *ValidationError
	if !errors.As(err, &validation) || validation.Field != "max_purchases" {
		t.Errorf("Expected max_purchases validation error, got: %v", err)
	}
}

func TestCreateQuote_ReusesRecentQuote(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	ctx := context.Background()
	request := QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   amountPtr(t, "100"),
	}

	first, err := fixture.engine.CreateQuote(ctx, request)
	if err != nil {
		t.Fatalf("First CreateQuote failed: %v", err)
	}
	second, err := fixture.engine.CreateQuote(ctx, request)
	if err != nil {
		t.Fatalf("Second CreateQuote failed: %v", err)
	}
	if first.Id != second.Id {
		t.Errorf("Expected quote reuse, got %s and %s", first.Id, second.Id)
	}

	// A different amount is a fresh quote.
	request.DepositAmount = amountPtr(t, "200")
	third, err := fixture.engine.CreateQuote(ctx, request)
	if err != nil {
		t.Fatalf("Third CreateQuote failed: %v", err)
	}
	if third.Id == first.Id {
		t.Error("Expected a new quote for a different amount")
	}
}

func TestQuoteForDeposit_RejectsDust(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	_, err := fixture.engine.QuoteForDeposit(context.Background(),
		fixture.user, fixture.ico, fixture.phase, fixture.usd,
		decimal.RequireFromString("0.001"))
	if !errors.Is(err, ErrDustAmount) {
		t.Errorf("Expected ErrDustAmount, got: %v", err)
	}
}

func TestQuoteForDeposit_IgnoresMaxPurchases(t *testing.T) {
	fixture := setupEngine(t, "1")
	defer fixture.cleanup()

	ctx := context.Background()
	fixture.ico.MaxPurchases = 1

	quote, err := fixture.engine.CreateQuote(ctx, QuoteRequest{
		User:            fixture.user,
		Ico:             fixture.ico,
		DepositCurrency: fixture.usd,
		DepositAmount:   amountPtr(t, "100"),
	})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	_, err = fixture.service.CreatePurchase(ctx, &models.Purchase{
		QuoteId:     quote.Id,
		DepositTxId: "tx-1",
	}, func(context.Context) (string, error) { return "credit-1", nil })
	if err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}

	// The reconciliation path prices the deposit regardless of the cap;
	// settlement re-verifies it.
	_, err = fixture.engine.QuoteForDeposit(ctx,
		fixture.user, fixture.ico, fixture.phase, fixture.usd,
		decimal.NewFromInt(200))
	if err != nil {
		t.Errorf("Expected reconciliation quote to succeed, got: %v", err)
	}
}
