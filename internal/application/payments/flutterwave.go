package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

var ErrGatewayNotConfigured = errors.New("Payment gateway not configured")

// Verification is the gateway's view of a funding transaction.
type Verification struct {
	Status    string          `json:"status"`
	Reference string          `json:"tx_ref"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// Successful reports whether the gateway settled the funds.
func (v *Verification) Successful() bool {
	return v != nil && (v.Status == "success" || v.Status == "successful")
}

type TransferRequest struct {
	Reference     string
	Amount        decimal.Decimal
	Currency      string
	AccountBank   string
	AccountNumber string
	Narration     string
}

type TransferResult struct {
	Status    string
	Message   string
	Reference string
	ID        int64
}

func (r *TransferResult) Successful() bool {
	return r != nil && r.Status == "success"
}

// Gateway verifies inbound payments and sends payouts.
type Gateway interface {
	VerifyTransaction(ctx context.Context, reference string) (*Verification, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
}

// FlutterwaveClient calls the Flutterwave v3 REST API.
type FlutterwaveClient struct {
	SecretKey string
	BaseURL   string
	Client    *http.Client
}

type flwEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *FlutterwaveClient) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://api.flutterwave.com"
}

func (c *FlutterwaveClient) do(ctx context.Context, method, path string, body interface{}) (*flwEnvelope, error) {
	if c.SecretKey == "" {
		return nil, ErrGatewayNotConfigured
	}
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 20 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env flwEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("flutterwave %s %s: status %d: %w", method, path, resp.StatusCode, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("flutterwave %s %s: status %d: %s", method, path, resp.StatusCode, env.Message)
	}
	return &env, nil
}

// VerifyTransaction looks a funding transaction up by the merchant reference.
func (c *FlutterwaveClient) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	env, err := c.do(ctx, http.MethodGet, "/v3/transactions/verify_by_reference?tx_ref="+url.QueryEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	if env.Status != "success" || len(env.Data) == 0 || string(env.Data) == "null" {
		return &Verification{Status: env.Status, Reference: reference}, nil
	}
	var v Verification
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, err
	}
	if v.Reference == "" {
		v.Reference = reference
	}
	return &v, nil
}

// Transfer sends a bank payout. A non-success envelope is returned as a result, not an error.
func (c *FlutterwaveClient) Transfer(ctx context.Context, r TransferRequest) (*TransferResult, error) {
	currency := r.Currency
	if currency == "" {
		currency = "NGN"
	}
	body := map[string]interface{}{
		"account_bank":   r.AccountBank,
		"account_number": r.AccountNumber,
		"amount":         r.Amount.InexactFloat64(),
		"currency":       currency,
		"narration":      r.Narration,
		"reference":      r.Reference,
	}
	env, err := c.do(ctx, http.MethodPost, "/v3/transfers", body)
	if err != nil {
		return nil, err
	}
	out := &TransferResult{Status: env.Status, Message: env.Message, Reference: r.Reference}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		var data struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &data); err == nil {
			out.ID = data.ID
		}
	}
	return out, nil
}
