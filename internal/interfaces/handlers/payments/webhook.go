package payments

import (
	"errors"
	"fmt"

	paysvc "stablebricks-backend/internal/application/payments"
	"stablebricks-backend/internal/application/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

type WebhookHandler struct {
	Wallets       *wallet.Service
	WebhookSecret string
}

// HandleWebhook POST /api/v1/stripe/webhook. Signature failures are 400; domain
// failures are acknowledged with 200 so Stripe stops retrying, storage failures
// return 500 so it tries again.
func (wh *WebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	rawBody := c.BodyRaw()
	sig := c.Get("Stripe-Signature")

	if len(rawBody) == 0 {
		log.Warn().Msg("Stripe webhook received empty body")
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: empty body")
	}

	event, err := paysvc.ParseWebhook(rawBody, sig, wh.WebhookSecret)
	if err != nil {
		log.Warn().Err(err).Bool("has_sig", sig != "").Bool("has_secret", wh.WebhookSecret != "").Msg("Stripe webhook signature verification failed")
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("Webhook Error: %s", err.Error()))
	}

	if event.Type != paysvc.EventPaymentIntentSucceeded {
		log.Debug().Str("event_id", event.ID).Str("type", string(event.Type)).Msg("Stripe webhook ignored")
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	topUp, err := paysvc.TopUpFromEvent(event)
	if err != nil {
		log.Warn().Err(err).Str("event_id", event.ID).Msg("Stripe payment intent skipped")
		return c.Status(fiber.StatusOK).SendString("ok")
	}

	err = wh.Wallets.CreditStripeTopUp(c.UserContext(), topUp)
	switch {
	case err == nil:
		log.Info().Str("event_id", event.ID).Str("intent_id", topUp.IntentID).Str("user_id", topUp.UserID.String()).Str("amount", topUp.Amount.String()).Msg("wallet topped up via Stripe")
	case errors.Is(err, wallet.ErrPaymentAlreadyProcessed):
		log.Info().Str("intent_id", topUp.IntentID).Msg("Stripe payment intent already processed")
	case errors.Is(err, wallet.ErrPaymentAmountMismatch), errors.Is(err, wallet.ErrAmountRequired):
		log.Warn().Err(err).Str("intent_id", topUp.IntentID).Msg("Stripe payment intent rejected")
	default:
		log.Error().Err(err).Str("intent_id", topUp.IntentID).Msg("Stripe top-up failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Webhook Error: processing failed")
	}
	return c.Status(fiber.StatusOK).SendString("ok")
}
