package models

import "encoding/json"

// Webhook event names delivered by the upstream platform.
const (
	EventTransactionInitiate = "transaction.initiate"
	EventTransactionExecute  = "transaction.execute"
)

// WebhookCurrency carries the currency code of a webhook transaction.
type WebhookCurrency struct {
	Code string `json:"code"`
}

// WebhookUser identifies the external account behind a transaction.
type WebhookUser struct {
	Identifier string `json:"identifier"`
}

// WebhookTransaction is the transaction payload inside a webhook event.
// Amount is an integer in the currency's minor unit. Metadata is
// free-form JSON carried through to the purchase untouched.
type WebhookTransaction struct {
	Id       string          `json:"id"`
	Status   string          `json:"status"`
	Currency WebhookCurrency `json:"currency"`
	Amount   int64           `json:"amount"`
	TxType   string          `json:"tx_type"`
	User     WebhookUser     `json:"user"`
	Metadata json.RawMessage `json:"metadata"`
}

// WebhookEvent is the envelope of an upstream webhook delivery.
type WebhookEvent struct {
	Event   string             `json:"event"`
	Company string             `json:"company"`
	Data    WebhookTransaction `json:"data"`
}
