package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IcoStatus enumerates the lifecycle of a token sale.
type IcoStatus string

const (
	IcoStatusHidden IcoStatus = "hidden"
	IcoStatusOpen   IcoStatus = "open"
	IcoStatusClosed IcoStatus = "closed"
)

// PurchaseStatus enumerates the settlement state of a purchase.
type PurchaseStatus string

const (
	PurchaseStatusPending  PurchaseStatus = "pending"
	PurchaseStatusComplete PurchaseStatus = "complete"
	PurchaseStatusFailed   PurchaseStatus = "failed"
)

// Company is a tenant of the sale service. The secret authenticates
// webhook deliveries and admin requests for that tenant.
type Company struct {
	Id         string    `db:"id" json:"id"`
	Identifier string    `db:"identifier" json:"identifier"`
	Secret     string    `db:"secret" json:"secret,omitempty"`
	Name       string    `db:"name" json:"name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// User is an external-identity-linked account scoped to one company.
type User struct {
	Id         string    `db:"id" json:"id"`
	Identifier string    `db:"identifier" json:"identifier"`
	CompanyId  string    `db:"company_id" json:"company_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Currency is a company-scoped asset descriptor. Divisibility is the
// number of decimal places of the currency's minor unit; every amount
// crossing the wire is an integer at that divisibility.
type Currency struct {
	Id           string    `db:"id" json:"id"`
	CompanyId    string    `db:"company_id" json:"company_id"`
	Code         string    `db:"code" json:"code"`
	Description  string    `db:"description" json:"description"`
	Symbol       string    `db:"symbol" json:"symbol"`
	Unit         string    `db:"unit" json:"unit"`
	Divisibility int       `db:"divisibility" json:"divisibility"`
	Enabled      bool      `db:"enabled" json:"enabled"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Ico is a company-scoped token sale. Amounts use 28/18 fixed-point
// precision. Version guards concurrent mutation of AmountRemaining.
type Ico struct {
	Id                string          `db:"id" json:"id"`
	CompanyId         string          `db:"company_id" json:"company_id"`
	CurrencyCode      string          `db:"currency_code" json:"currency_code"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	AmountRemaining   decimal.Decimal `db:"amount_remaining" json:"amount_remaining"`
	BaseCurrencyCode  string          `db:"base_currency_code" json:"base_currency_code"`
	BaseGoalAmount    decimal.Decimal `db:"base_goal_amount" json:"base_goal_amount"`
	MinPurchaseAmount decimal.Decimal `db:"min_purchase_amount" json:"min_purchase_amount"`
	MaxPurchaseAmount decimal.Decimal `db:"max_purchase_amount" json:"max_purchase_amount"`
	MaxPurchases      int             `db:"max_purchases" json:"max_purchases"`
	Status            IcoStatus       `db:"status" json:"status"`
	Public            bool            `db:"public" json:"public"`
	Enabled           bool            `db:"enabled" json:"enabled"`
	Deleted           bool            `db:"deleted" json:"-"`
	Version           int64           `db:"version" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// Phase is an ordered slice of a sale's inventory. BaseRate is the
// authoritative price of one token in the sale's base currency.
type Phase struct {
	Id         string          `db:"id" json:"id"`
	IcoId      string          `db:"ico_id" json:"ico_id"`
	Level      int             `db:"level" json:"level"`
	Percentage int             `db:"percentage" json:"percentage"`
	BaseRate   decimal.Decimal `db:"base_rate" json:"base_rate"`
	Deleted    bool            `db:"deleted" json:"-"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Rate is the last evaluated price of one token in a given currency for
// a phase. Stored values are snapshots; reads go through the calculator.
type Rate struct {
	Id           string          `db:"id" json:"id"`
	PhaseId      string          `db:"phase_id" json:"phase_id"`
	CurrencyCode string          `db:"currency_code" json:"currency_code"`
	Value        decimal.Decimal `db:"rate" json:"rate"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Quote is a time-bounded price lock for one user, one phase and one
// deposit currency. A quote is consumed once a purchase references it.
type Quote struct {
	Id                  string          `db:"id" json:"id"`
	UserId              string          `db:"user_id" json:"user_id"`
	PhaseId             string          `db:"phase_id" json:"phase_id"`
	DepositCurrencyCode string          `db:"deposit_currency_code" json:"deposit_currency_code"`
	DepositAmount       decimal.Decimal `db:"deposit_amount" json:"deposit_amount"`
	TokenAmount         decimal.Decimal `db:"token_amount" json:"token_amount"`
	Rate                decimal.Decimal `db:"rate" json:"rate"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}

// Purchase records the settlement of one external deposit transaction
// into tokens. DepositTxId and TokenTxId are unique across all
// purchases; TokenTxId stays empty until the ledger credit is created.
type Purchase struct {
	Id          string         `db:"id" json:"id"`
	QuoteId     string         `db:"quote_id" json:"quote_id"`
	DepositTxId string         `db:"deposit_tx_id" json:"deposit_tx_id"`
	TokenTxId   string         `db:"token_tx_id" json:"token_tx_id,omitempty"`
	Status      PurchaseStatus `db:"status" json:"status"`
	Metadata    string         `db:"metadata" json:"metadata"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// PurchaseMessage is one entry of a purchase's audit trail. Messages
// are truncated to MaxMessageLength before storage.
type PurchaseMessage struct {
	Id         string    `db:"id" json:"id"`
	PurchaseId string    `db:"purchase_id" json:"purchase_id"`
	Message    string    `db:"message" json:"message"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// MaxMessageLength bounds a single purchase audit message.
const MaxMessageLength = 300
