package store

import (
	"context"
	"errors"
	"time"

	"tokensale-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrNotFound               = errors.New("record not found")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrInsufficientInventory  = errors.New("sale inventory would go negative")
	ErrNoActivePhase          = errors.New("no active phase")
)

// FinalizeParams carries everything FinalizePurchase needs to settle a
// pending purchase. Deduct is set only when the outcome is complete;
// IcoVersion is the caller's snapshot of the sale row.
type FinalizeParams struct {
	PurchaseId  string
	Status      models.PurchaseStatus
	IcoId       string
	IcoVersion  int64
	TokenAmount decimal.Decimal
	Deduct      bool
}

// SaleStore defines the contract the SQLite backend satisfies. Every
// balance-mutating method is atomic within a single call.
type SaleStore interface {
	// --- Companies ---
	CreateCompany(ctx context.Context, identifier, name string) (*models.Company, error)
	GetCompanyByIdentifier(ctx context.Context, identifier string) (*models.Company, error)
	UpdateCompanyName(ctx context.Context, companyId, name string) (*models.Company, error)
	DeleteCompany(ctx context.Context, companyId string) error

	// --- Users ---
	GetOrCreateUser(ctx context.Context, companyId, identifier string) (*models.User, error)

	// --- Currencies ---
	UpsertCurrency(ctx context.Context, currency models.Currency) (*models.Currency, error)
	ListCurrencies(ctx context.Context, companyId string) ([]models.Currency, error)
	GetCurrency(ctx context.Context, companyId, code string) (*models.Currency, error)

	// --- Sales ---
	CreateIco(ctx context.Context, ico *models.Ico) (*models.Ico, error)
	ListIcos(ctx context.Context, companyId string) ([]models.Ico, error)
	GetIco(ctx context.Context, companyId, icoId string) (*models.Ico, error)
	GetIcoById(ctx context.Context, icoId string) (*models.Ico, error)
	GetEnabledIco(ctx context.Context, companyId string) (*models.Ico, error)
	UpdateIco(ctx context.Context, ico *models.Ico) (*models.Ico, error)
	DeleteIco(ctx context.Context, companyId, icoId string) error

	// --- Phases ---
	CreatePhase(ctx context.Context, phase *models.Phase) (*models.Phase, error)
	ListPhases(ctx context.Context, icoId string) ([]models.Phase, error)
	GetPhase(ctx context.Context, icoId, phaseId string) (*models.Phase, error)
	GetPhaseById(ctx context.Context, phaseId string) (*models.Phase, error)
	DeletePhase(ctx context.Context, icoId, phaseId string) error

	// --- Rates ---
	UpsertRate(ctx context.Context, phaseId, currencyCode string, value decimal.Decimal) (*models.Rate, error)
	ListRates(ctx context.Context, phaseId string) ([]models.Rate, error)
	GetRate(ctx context.Context, phaseId, rateId string) (*models.Rate, error)

	// --- Quotes ---
	CreateQuote(ctx context.Context, quote *models.Quote) (*models.Quote, error)
	GetQuoteById(ctx context.Context, quoteId string) (*models.Quote, error)
	GetUserQuote(ctx context.Context, userId, icoId, quoteId string) (*models.Quote, error)
	ListUserQuotes(ctx context.Context, userId, icoId string) ([]models.Quote, error)
	ListIcoQuotes(ctx context.Context, icoId string) ([]models.Quote, error)

	// FindReusableQuote returns an unconsumed quote matching the reuse
	// key created at or after the cutoff, or ErrNotFound.
	FindReusableQuote(ctx context.Context, userId, phaseId string, depositAmount decimal.Decimal, currencyCode string, cutoff time.Time) (*models.Quote, error)

	// DeleteUnconsumedQuotes removes stale unconsumed quotes matching
	// the reuse key so a fresh quote supersedes them.
	DeleteUnconsumedQuotes(ctx context.Context, userId, phaseId string, depositAmount decimal.Decimal, currencyCode string) error

	// CountConsumedQuotes counts the user's quotes for a sale that are
	// attached to a purchase.
	CountConsumedQuotes(ctx context.Context, userId, icoId string) (int, error)

	// --- Purchases ---

	// CreatePurchase inserts the purchase and invokes issueCredit inside
	// the same database transaction; the purchase row is committed with
	// the returned credit transaction id, or rolled back entirely if
	// issueCredit fails. A deposit/token tx collision returns
	// ErrDuplicateTransaction.
	CreatePurchase(ctx context.Context, purchase *models.Purchase, issueCredit func(context.Context) (string, error)) (*models.Purchase, error)

	GetPurchaseByTxId(ctx context.Context, txId string) (*models.Purchase, error)
	GetPendingPurchaseByDepositTx(ctx context.Context, txId string) (*models.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, purchaseId string, status models.PurchaseStatus) error

	// FinalizePurchase settles a pending purchase in one transaction:
	// it deducts sale inventory when requested, writes the final status
	// and invokes patchLedger before committing, so a ledger failure
	// rolls the settlement back. Deduction uses a version
	// compare-and-swap on the sale row; it returns
	// ErrInsufficientInventory if the deduction would go negative and
	// ErrConcurrentModification if the version moved underneath us.
	FinalizePurchase(ctx context.Context, params FinalizeParams, patchLedger func(context.Context) error) error
	AppendPurchaseMessage(ctx context.Context, purchaseId, message string) error
	ListPurchaseMessages(ctx context.Context, purchaseId string) ([]models.PurchaseMessage, error)
	ListIcoPurchases(ctx context.Context, icoId string) ([]models.Purchase, error)
	ListUserPurchases(ctx context.Context, userId, icoId string) ([]models.Purchase, error)
	GetIcoPurchase(ctx context.Context, icoId, purchaseId string) (*models.Purchase, error)

	// --- Lifecycle ---
	Close()
}
