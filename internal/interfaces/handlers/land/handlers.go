package land

import (
	landsvc "stablebricks-backend/internal/application/land"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *landsvc.Service
}

var statuses = response.StatusMap{
	landsvc.ErrLocationRequired:   fiber.StatusBadRequest,
	landsvc.ErrInvalidSize:        fiber.StatusBadRequest,
	landsvc.ErrInvalidPrice:       fiber.StatusBadRequest,
	landsvc.ErrSubmissionNotFound: fiber.StatusNotFound,
}

// Submit POST /api/v1/land-submissions.
func (h *Handlers) Submit(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in landsvc.SubmitInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	sub, err := h.Service.Submit(c.UserContext(), *p, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to submit land")
	}
	return response.SuccessCreated(c, "Land submitted successfully", sub, nil)
}

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
	return response.Success(c, "Land submissions fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

func (h *Handlers) ListAll(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.ListAll(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Land submissions fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// Review PATCH /api/v1/land-submissions/:id/review (admin).
func (h *Handlers) Review(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var in landsvc.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	sub, err := h.Service.Review(c.UserContext(), *p, id, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to review land submission")
	}
	return response.Success(c, "Land submission reviewed", sub, nil)
}
