package contacts

import (
	contactsvc "stablebricks-backend/internal/application/contacts"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *contactsvc.Service
}

var statuses = response.StatusMap{
	contactsvc.ErrNameRequired:     fiber.StatusBadRequest,
	contactsvc.ErrInvalidEmail:     fiber.StatusBadRequest,
	contactsvc.ErrInvalidPhone:     fiber.StatusBadRequest,
	contactsvc.ErrSubjectRequired:  fiber.StatusBadRequest,
	contactsvc.ErrMessageRequired:  fiber.StatusBadRequest,
	contactsvc.ErrResponseRequired: fiber.StatusBadRequest,
	contactsvc.ErrContactNotFound:  fiber.StatusNotFound,
}

// Create POST /api/v1/contacts is open to visitors.
func (h *Handlers) Create(c *fiber.Ctx) error {
	var in contactsvc.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	contact, err := h.Service.Create(c.UserContext(), in)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to submit contact form")
	}
	return response.SuccessCreated(c, "Message received successfully", contact, nil)
}

func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	rows, total, err := h.Service.List(c.UserContext(), c.Query("status"), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Contacts fetched successfully", rows, response.Page{Limit: limit, Offset: offset, Total: total})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	contact, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Contact fetched successfully", contact, nil)
}

// Respond POST /api/v1/contacts/:id/respond emails the reply and marks the message Responded.
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
	contact, err := h.Service.Respond(c.UserContext(), id, body.Response)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to respond to contact")
	}
	return response.Success(c, "Response sent successfully", contact, nil)
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
	contact, err := h.Service.ChangeStatus(c.UserContext(), id, body.Status)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to update contact status")
	}
	return response.Success(c, "Contact status updated", contact, nil)
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.FromError(c, err, statuses, "Failed to delete contact")
	}
	return response.Success(c, "Contact deleted successfully", nil, nil)
}
