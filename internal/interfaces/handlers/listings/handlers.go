package listings

import (
	listsvc "stablebricks-backend/internal/application/listings"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *listsvc.Service
}

var statuses = response.StatusMap{
	listsvc.ErrTitleRequired:    fiber.StatusBadRequest,
	listsvc.ErrLocationRequired: fiber.StatusBadRequest,
	listsvc.ErrInvalidPrice:     fiber.StatusBadRequest,
	listsvc.ErrInvalidSize:      fiber.StatusBadRequest,
	listsvc.ErrInvalidBedrooms:  fiber.StatusBadRequest,
	listsvc.ErrProjectNotFound:  fiber.StatusNotFound,
	listsvc.ErrListingNotFound:  fiber.StatusNotFound,
	listsvc.ErrForbidden:        fiber.StatusForbidden,
}

// Create POST /api/v1/listings (developer or admin).
func (h *Handlers) Create(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in listsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	l, err := h.Service.Create(c.UserContext(), *p, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to create listing")
	}
	return response.SuccessCreated(c, "Listing created successfully", l, nil)
}

// List GET /api/v1/listings?status=&location= is public.
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	f := listsvc.Filter{Status: c.Query("status"), Location: c.Query("location")}
	rows, total, err := h.Service.List(c.UserContext(), f, limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Listings fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	l, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Listing fetched successfully", l, nil)
}

// Update PUT /api/v1/listings/:id (owner or admin).
func (h *Handlers) Update(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var in listsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	l, err := h.Service.Update(c.UserContext(), *p, id, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update listing")
	}
	return response.Success(c, "Listing updated successfully", l, nil)
}

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
	l, err := h.Service.ChangeStatus(c.UserContext(), *p, id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update listing status")
	}
	return response.Success(c, "Listing status updated", l, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.Service.Delete(c.UserContext(), *p, id); err != nil {
		return response.FromError(c, err, statuses, "Failed to delete listing")
	}
	return response.Success(c, "Listing deleted successfully", nil, nil)
}
