package events

import (
	eventsvc "stablebricks-backend/internal/application/events"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *eventsvc.Service
}

var statuses = response.StatusMap{
	eventsvc.ErrTitleRequired:        fiber.StatusBadRequest,
	eventsvc.ErrStartRequired:        fiber.StatusBadRequest,
	eventsvc.ErrInvalidCapacity:      fiber.StatusBadRequest,
	eventsvc.ErrCapacityBelowSeats:   fiber.StatusConflict,
	eventsvc.ErrEventNotFound:        fiber.StatusNotFound,
	eventsvc.ErrEventNotOpen:         fiber.StatusConflict,
	eventsvc.ErrAlreadyRegistered:    fiber.StatusConflict,
	eventsvc.ErrEventFull:            fiber.StatusConflict,
	eventsvc.ErrRegistrationNotFound: fiber.StatusNotFound,
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in eventsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	ev, err := h.Service.Create(c.UserContext(), *p, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to create event")
	}
	return response.SuccessCreated(c, "Event created successfully", ev, nil)
}

// List GET /api/v1/events?status= is public.
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.List(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Events fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	ev, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Event fetched successfully", ev, nil)
}

func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var in eventsvc.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	ev, err := h.Service.Update(c.UserContext(), id, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update event")
	}
	return response.Success(c, "Event updated successfully", ev, nil)
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
	ev, err := h.Service.ChangeStatus(c.UserContext(), id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update event status")
	}
	return response.Success(c, "Event status updated", ev, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err, statuses, "Failed to delete event")
	}
	return response.Success(c, "Event deleted successfully", nil, nil)
}

// Register POST /api/v1/events/:id/register takes a seat for the caller.
func (h *Handlers) Register(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	reg, err := h.Service.Register(c.UserContext(), *p, id)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to register for event")
	}
	return response.SuccessCreated(c, "Registered successfully", reg, nil)
}

// CancelRegistration DELETE /api/v1/events/:id/register releases the caller's seat.
func (h *Handlers) CancelRegistration(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	reg, err := h.Service.CancelRegistration(c.UserContext(), *p, id)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to cancel registration")
	}
	return response.Success(c, "Registration cancelled", reg, nil)
}

// Registrations GET /api/v1/events/:id/registrations (admin).
func (h *Handlers) Registrations(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	rows, err := h.Service.Registrations(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Registrations fetched successfully", rows, nil)
}
