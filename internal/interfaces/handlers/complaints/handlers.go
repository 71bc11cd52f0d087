package complaints

import (
	complaintsvc "stablebricks-backend/internal/application/complaints"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *complaintsvc.Service
}

var statuses = response.StatusMap{
	complaintsvc.ErrSubjectRequired:     fiber.StatusBadRequest,
	complaintsvc.ErrDescriptionRequired: fiber.StatusBadRequest,
	complaintsvc.ErrResponseRequired:    fiber.StatusBadRequest,
	complaintsvc.ErrComplaintNotFound:   fiber.StatusNotFound,
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in complaintsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	complaint, err := h.Service.Create(c.UserContext(), *p, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to file complaint")
	}
	return response.SuccessCreated(c, "Complaint filed successfully", complaint, nil)
}

// ListMine GET /api/v1/complaints/mine.
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
	return response.Success(c, "Complaints fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// ListAll GET /api/v1/complaints?status= (admin).
func (h *Handlers) ListAll(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.ListAll(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Complaints fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// Respond POST /api/v1/complaints/:id/respond emails the complainant and resolves the complaint.
func (h *Handlers) Respond(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var body struct {
		Response string `json:"response"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	complaint, err := h.Service.Respond(c.UserContext(), id, body.Response)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to respond to complaint")
	}
	return response.Success(c, "Response sent successfully", complaint, nil)
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
	complaint, err := h.Service.ChangeStatus(c.UserContext(), id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update complaint status")
	}
	return response.Success(c, "Complaint status updated", complaint, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err, statuses, "Failed to delete complaint")
	}
	return response.Success(c, "Complaint deleted successfully", nil, nil)
}
