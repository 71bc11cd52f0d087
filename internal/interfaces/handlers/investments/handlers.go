package investments

import (
	"strconv"

	investsvc "stablebricks-backend/internal/application/investments"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers serves /api/v1/investments and the public verification page data.
type Handlers struct {
	Service *investsvc.Service
}

var statuses = response.StatusMap{
	investsvc.ErrAmountRequired:         fiber.StatusBadRequest,
	investsvc.ErrUserNotFound:           fiber.StatusNotFound,
	investsvc.ErrProjectNotFound:        fiber.StatusNotFound,
	investsvc.ErrProjectNotOpen:         fiber.StatusConflict,
	investsvc.ErrNoShares:               fiber.StatusBadRequest,
	investsvc.ErrNotEnoughShares:        fiber.StatusConflict,
	investsvc.ErrInvestmentNotFound:     fiber.StatusNotFound,
	investsvc.ErrForbidden:              fiber.StatusForbidden,
	investsvc.ErrCertificateUnavailable: fiber.StatusServiceUnavailable,
	request.ErrInvalidID:                fiber.StatusBadRequest,
}

type createRequest struct {
	UserID         *uuid.UUID      `json:"user_id"`
	ProjectID      uuid.UUID       `json:"project_id"`
	Amount         decimal.Decimal `json:"amount"`
	Shares         *int            `json:"shares"`
	TransactionRef *string         `json:"transaction_ref"`
	FlutterwaveRef *string         `json:"flutterwave_ref"`
}

// Create POST /api/v1/investments. Admins may invest on behalf of user_id; everyone else invests for themselves.
func (h *Handlers) Create(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.ProjectID == uuid.Nil {
		return response.BadRequest(c, "project_id is required")
	}
	userID := p.UserID
	if req.UserID != nil && *req.UserID != p.UserID {
		if !p.IsAdmin() {
			return response.Error(c, investsvc.ErrForbidden.Error(), fiber.StatusForbidden, nil)
		}
		userID = *req.UserID
	}
	inv, err := h.Service.Create(c.UserContext(), investsvc.CreateInput{
		UserID:         userID,
		ProjectID:      req.ProjectID,
		Amount:         req.Amount,
		Shares:         req.Shares,
		TransactionRef: req.TransactionRef,
		FlutterwaveRef: req.FlutterwaveRef,
	})
	if err != nil {
		return response.FromError(c, err, statuses, investsvc.ErrCreateFailed.Error())
	}
	return response.SuccessCreated(c, "Investment created successfully", inv, nil)
}

// ListMine GET /api/v1/investments/mine.
func (h *Handlers) ListMine(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	limit, offset := request.Page(c)
	rows, total, err := h.Service.ListMine(c.UserContext(), p.UserID, limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Investments fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// ListAll GET /api/v1/investments?status= (admin).
func (h *Handlers) ListAll(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.ListAll(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Investments fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// Get GET /api/v1/investments/:id (owner or admin).
func (h *Handlers) Get(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	d, err := h.Service.GetByID(c.UserContext(), *p, id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Investment fetched successfully", d, nil)
}

// GetByToken GET /api/v1/investments/token/:token (admin) returns the full record with investor and project.
func (h *Handlers) GetByToken(c *fiber.Ctx) error {
	inv, err := h.Service.GetByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Investment fetched successfully", inv, nil)
}

// Verify GET /user-investment/:token is the unauthenticated certificate check behind the QR code.
func (h *Handlers) Verify(c *fiber.Ctx) error {
	pub, err := h.Service.GetPublicByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Investment verified", pub, nil)
}

// ChangeStatus PATCH /api/v1/investments/:id/status (admin).
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	inv, err := h.Service.ChangeStatus(c.UserContext(), id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update investment status")
	}
	return response.Success(c, "Investment status updated", inv, nil)
}

// Certificate GET /api/v1/investments/:id/certificate streams the PDF (owner or admin).
func (h *Handlers) Certificate(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	pdf, filename, err := h.Service.Certificate(c.UserContext(), *p, id)
	if err != nil {
		return response.FromError(c, err, statuses, investsvc.ErrCertificateUnavailable.Error())
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, "inline; filename="+strconv.Quote(filename))
	return c.Send(pdf)
}
