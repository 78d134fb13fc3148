// Package ledger talks to the external ledger that holds the actual
// token balances. The sale service only instructs it: create a credit
// when a purchase is initiated, patch its status when settled.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Ledger is the contract the reconciler depends on; tests substitute a
// fake.
type Ledger interface {
	// CreateCredit issues an unconfirmed token credit for a user and
	// returns the ledger's transaction id. Amount is an integer in the
	// currency's minor unit.
	CreateCredit(ctx context.Context, userIdentifier string, amount int64, currencyCode string) (string, error)

	// PatchTransaction updates the status of a previously created
	// credit ("complete" or "failed").
	PatchTransaction(ctx context.Context, txId, status string) error
}

// Client is the HTTP implementation of Ledger.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Ledger = (*Client)(nil)

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

type createCreditRequest struct {
	User            string `json:"user"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ConfirmOnCreate bool   `json:"confirm_on_create"`
}

type transactionResponse struct {
	Status string `json:"status"`
	Data   struct {
		Id string `json:"id"`
	} `json:"data"`
}

func (c *Client) CreateCredit(ctx context.Context, userIdentifier string, amount int64, currencyCode string) (string, error) {
	payload := createCreditRequest{
		User:            userIdentifier,
		Amount:          amount,
		Currency:        currencyCode,
		ConfirmOnCreate: false,
	}

	var response transactionResponse
	err := c.call(ctx, http.MethodPost, "/admin/transactions/credit/", payload, &response)
	if err != nil {
		return "", err
	}
	if response.Data.Id == "" {
		return "", fmt.Errorf("ledger returned no transaction id for credit")
	}

	zap.L().Info("Ledger credit created",
		zap.String("user", userIdentifier),
		zap.Int64("amount", amount),
		zap.String("currency", currencyCode),
		zap.String("token_tx_id", response.Data.Id))
	return response.Data.Id, nil
}

func (c *Client) PatchTransaction(ctx context.Context, txId, status string) error {
	payload := map[string]string{"status": status}
	err := c.call(ctx, http.MethodPatch, "/admin/transactions/"+txId+"/", payload, nil)
	if err != nil {
		return err
	}

	zap.L().Info("Ledger transaction patched",
		zap.String("token_tx_id", txId),
		zap.String("status", status))
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode ledger request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Token "+c.token)

	response, err := c.client.Do(request)
	if err != nil {
		return fmt.Errorf("ledger request failed: %w", err)
	}
	defer response.Body.Close()

	content, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read ledger response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("ledger returned %d for %s %s: %s",
			response.StatusCode, method, path, string(content))
	}

	if target != nil {
		if err := json.Unmarshal(content, target); err != nil {
			return fmt.Errorf("ledger returned unexpected payload: %w", err)
		}
	}
	return nil
}
