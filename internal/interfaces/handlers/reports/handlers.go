package reports

import (
	reportsvc "stablebricks-backend/internal/application/reports"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *reportsvc.Service
}

var statuses = response.StatusMap{
	reportsvc.ErrInvalidTargetType: fiber.StatusBadRequest,
	reportsvc.ErrReasonRequired:    fiber.StatusBadRequest,
	reportsvc.ErrTargetNotFound:    fiber.StatusNotFound,
	reportsvc.ErrReportNotFound:    fiber.StatusNotFound,
}

// Create POST /api/v1/reports flags a project, listing or user.
func (h *Handlers) Create(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in reportsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	report, err := h.Service.Create(c.UserContext(), *p, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to submit report")
	}
	return response.SuccessCreated(c, "Report submitted successfully", report, nil)
}

// List GET /api/v1/reports?status=&target_type= (admin).
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.List(c.UserContext(), c.Query("status"), c.Query("target_type"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Reports fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

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
	report, err := h.Service.ChangeStatus(c.UserContext(), id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update report status")
	}
	return response.Success(c, "Report status updated", report, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err, statuses, "Failed to delete report")
	}
	return response.Success(c, "Report deleted successfully", nil, nil)
}
