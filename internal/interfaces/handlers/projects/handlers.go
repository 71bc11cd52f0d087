package projects

import (
	projectsvc "stablebricks-backend/internal/application/projects"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/v1/projects.
type Handlers struct {
	Service *projectsvc.Service
}

var statuses = response.StatusMap{
	projectsvc.ErrProjectNotFound:       fiber.StatusNotFound,
	projectsvc.ErrNameRequired:          fiber.StatusBadRequest,
	projectsvc.ErrInvalidRequirement:    fiber.StatusBadRequest,
	projectsvc.ErrInvalidSharePrice:     fiber.StatusBadRequest,
	projectsvc.ErrSharePriceTooHigh:     fiber.StatusBadRequest,
	projectsvc.ErrInvalidInitialStatus:  fiber.StatusBadRequest,
	projectsvc.ErrInvalidReturn:         fiber.StatusBadRequest,
	projectsvc.ErrProjectHasInvestments: fiber.StatusConflict,
	projectsvc.ErrForbidden:             fiber.StatusForbidden,
	request.ErrInvalidID:                fiber.StatusBadRequest,
}

// Create POST /api/v1/projects (developer, admin).
func (h *Handlers) Create(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in projectsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	v, err := h.Service.Create(c.UserContext(), *p, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to create project")
	}
	return response.SuccessCreated(c, "Project created successfully", v, nil)
}

// List GET /api/v1/projects?status=.
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.List(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Projects fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

// Get GET /api/v1/projects/:id.
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	v, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Project fetched successfully", v, nil)
}

// Update PUT /api/v1/projects/:id (admin or owning developer).
func (h *Handlers) Update(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var in projectsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	v, err := h.Service.Update(c.UserContext(), *p, id, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update project")
	}
	return response.Success(c, "Project updated successfully", v, nil)
}

// ChangeStatus PATCH /api/v1/projects/:id/status {status}.
func (h *Handlers) ChangeStatus(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
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
	v, err := h.Service.ChangeStatus(c.UserContext(), *p, id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update project status")
	}
	return response.Success(c, "Project status updated", v, nil)
}

// Delete DELETE /api/v1/projects/:id (admin).
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err, statuses, "Failed to delete project")
	}
	return response.Success(c, "Project deleted successfully", nil, nil)
}
