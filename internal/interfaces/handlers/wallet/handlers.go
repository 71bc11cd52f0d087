package wallet

import (
	"strings"

	"stablebricks-backend/internal/application/payments"
	walletsvc "stablebricks-backend/internal/application/wallet"
	"stablebricks-backend/internal/domain"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// StripeCurrency is the currency wallet top-up intents are created in.
const StripeCurrency = "ngn"

type Handlers struct {
	Service *walletsvc.Service
	Intents payments.IntentCreator
}

var statuses = response.StatusMap{
	walletsvc.ErrAmountRequired:            fiber.StatusBadRequest,
	walletsvc.ErrBankDetailsRequired:       fiber.StatusBadRequest,
	walletsvc.ErrPaymentVerificationFailed: fiber.StatusBadRequest,
	walletsvc.ErrPaymentAmountMismatch:     fiber.StatusBadRequest,
	walletsvc.ErrPaymentAlreadyProcessed:   fiber.StatusConflict,
	walletsvc.ErrInsufficientBalance:       fiber.StatusBadRequest,
	walletsvc.ErrWithdrawalFailed:          fiber.StatusBadGateway,
	payments.ErrGatewayNotConfigured:       fiber.StatusServiceUnavailable,
}

// Get GET /api/v1/wallet.
func (h *Handlers) Get(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	w, err := h.Service.GetWallet(c.UserContext(), p.UserID)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to fetch wallet")
	}
	return response.Success(c, "Wallet fetched successfully", w, nil)
}

type addFundsRequest struct {
	UserID         *uuid.UUID      `json:"user_id"`
	Amount         decimal.Decimal `json:"amount"`
	FlutterwaveRef string          `json:"flutterwave_ref"`
}

// AddFunds POST /api/v1/wallet/add-funds. Users credit a verified Flutterwave
// reference; a manual credit without a reference, or for another user, is admin only.
func (h *Handlers) AddFunds(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req addFundsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !req.Amount.IsPositive() {
		return response.BadRequest(c, walletsvc.ErrAmountRequired.Error())
	}
	req.FlutterwaveRef = strings.TrimSpace(req.FlutterwaveRef)
	userID := p.UserID
	if req.UserID != nil && *req.UserID != p.UserID {
		if !p.IsAdmin() {
			return response.Error(c, "User is Forbidden from performing this action", fiber.StatusForbidden, nil)
		}
		userID = *req.UserID
	}
	if req.FlutterwaveRef == "" && !p.IsAdmin() {
		return response.BadRequest(c, "flutterwave_ref is required")
	}
	entry, err := h.Service.AddFunds(c.UserContext(), userID, req.Amount, req.FlutterwaveRef)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to add funds")
	}
	return response.Success(c, "Funds added successfully", entry, nil)
}

type withdrawRequest struct {
	Amount decimal.Decimal `json:"amount"`
	walletsvc.BankAccount
}

// Withdraw POST /api/v1/wallet/withdraw.
func (h *Handlers) Withdraw(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	entry, err := h.Service.WithdrawFunds(c.UserContext(), p.UserID, req.Amount, req.BankAccount)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to withdraw funds")
	}
	if entry.Status == domain.LedgerPending {
		return response.SuccessAccepted(c, "Withdrawal is processing", entry, nil)
	}
	return response.Success(c, "Withdrawal successful", entry, nil)
}

// History GET /api/v1/wallet/history.
func (h *Handlers) History(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	limit, offset := request.Page(c)
	rows, total, err := h.Service.History(c.UserContext(), p.UserID, limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to fetch wallet history")
	}
	return response.Success(c, "Wallet history fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// StripeIntent POST /api/v1/wallet/stripe-intent creates a PaymentIntent whose
// metadata lets the webhook credit the caller's wallet.
func (h *Handlers) StripeIntent(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if !body.Amount.IsPositive() {
		return response.BadRequest(c, walletsvc.ErrAmountRequired.Error())
	}
	if h.Intents == nil {
		return response.FromError(c, payments.ErrGatewayNotConfigured, statuses, "Failed to create payment intent")
	}
	intent, err := h.Intents.Create(c.UserContext(), payments.ToMinorUnits(body.Amount), StripeCurrency, map[string]string{
		"user_id": p.UserID.String(),
		"amount":  body.Amount.String(),
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", p.UserID.String()).Msg("stripe intent creation failed")
		return response.FromError(c, err, statuses, "Failed to create payment intent")
	}
	return response.SuccessCreated(c, "Payment intent created", intent, nil)
}
