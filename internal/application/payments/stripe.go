package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/webhook"
)

const EventPaymentIntentSucceeded = "payment_intent.succeeded"

var ErrMissingTopUpMetadata = errors.New("payment intent is missing wallet metadata")

// IntentCreator abstracts Stripe PaymentIntent creation for testability.
type IntentCreator interface {
	Create(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// StripeClient creates PaymentIntents with the Stripe Go SDK.
type StripeClient struct {
	SecretKey string
}

func (s *StripeClient) Create(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	if s.SecretKey == "" {
		return nil, ErrGatewayNotConfigured
	}
	stripe.Key = s.SecretKey
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
		Metadata: metadata,
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// ToMinorUnits converts naira to kobo.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// StripeTopUp is a succeeded wallet top-up extracted from a webhook event.
type StripeTopUp struct {
	EventID        string
	IntentID       string
	UserID         uuid.UUID
	Amount         decimal.Decimal
	AmountReceived int64
	Currency       string
	Status         string
	Raw            json.RawMessage
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func ParseWebhook(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	if secret == "" {
		return stripe.Event{}, errors.New("missing webhook secret")
	}
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

// TopUpFromEvent reads the wallet metadata (user_id, amount) off a payment_intent event.
func TopUpFromEvent(ev stripe.Event) (*StripeTopUp, error) {
	if ev.Data == nil {
		return nil, ErrMissingTopUpMetadata
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}
	userID, err := uuid.Parse(pi.Metadata["user_id"])
	if err != nil {
		return nil, ErrMissingTopUpMetadata
	}
	amount, err := decimal.NewFromString(pi.Metadata["amount"])
	if err != nil || !amount.IsPositive() {
		return nil, ErrMissingTopUpMetadata
	}
	return &StripeTopUp{
		EventID:        ev.ID,
		IntentID:       pi.ID,
		UserID:         userID,
		Amount:         amount,
		AmountReceived: pi.AmountReceived,
		Currency:       string(pi.Currency),
		Status:         string(pi.Status),
		Raw:            ev.Data.Raw,
	}, nil
}
