package user

import (
	authsvc "stablebricks-backend/internal/application/auth"
	usersvc "stablebricks-backend/internal/application/user"
	"stablebricks-backend/internal/middleware"
	"stablebricks-backend/internal/pkg/request"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/v1/users.
type Handlers struct {
	Service *usersvc.Service
}

var statuses = response.StatusMap{
	usersvc.ErrUserNotFound:     fiber.StatusNotFound,
	usersvc.ErrNameRequired:     fiber.StatusBadRequest,
	usersvc.ErrInvalidName:      fiber.StatusBadRequest,
	usersvc.ErrInvalidPhone:     fiber.StatusBadRequest,
	usersvc.ErrWeakPassword:     fiber.StatusBadRequest,
	usersvc.ErrInvalidRole:      fiber.StatusBadRequest,
	usersvc.ErrNoUpdateFields:   fiber.StatusBadRequest,
	usersvc.ErrCannotDeleteSelf: fiber.StatusBadRequest,
	request.ErrInvalidID:        fiber.StatusBadRequest,

	usersvc.ErrCannotChangeOwnRole: fiber.StatusForbidden,
	usersvc.ErrLastAdmin:           fiber.StatusConflict,
}

// List GET /api/v1/users (admin).
func (h *Handlers) List(c *fiber.Ctx) error {
	limit, offset := request.Page(c)
	users, total, err := h.Service.List(c.UserContext(), limit, offset)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Users fetched successfully", users, response.Page{Limit: limit, Offset: offset, Total: total})
}

// Get GET /api/v1/users/:id (admin).
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	u, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "User fetched successfully", u, nil)
}

// Me GET /api/v1/users/me.
func (h *Handlers) Me(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	u, err := h.Service.Get(c.UserContext(), p.UserID)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Profile fetched successfully", u, nil)
}

// UpdateMe PUT /api/v1/users/me updates name, phone or password and refreshes the session copy.
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var in usersvc.UpdateProfileInput
	if err := c.BodyParser(&in); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	u, err := h.Service.UpdateProfile(c.UserContext(), p.UserID, in)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	if middleware.GetSessionID(c) != "" {
		middleware.SetSessionUser(c, authsvc.NewSessionUser(u))
	}
	return response.Success(c, "Profile updated successfully", u, nil)
}

// ChangeRole PATCH /api/v1/users/:id/role (admin).
func (h *Handlers) ChangeRole(c *fiber.Ctx) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := request.UUIDParam(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	u, err := h.Service.ChangeRole(c.UserContext(), *p, id, body.Role)
	if err != nil {
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "Role updated successfully", u, nil)
}

// Delete DELETE /api/v1/users/:id (admin).
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
		return response.FromError(c, err, statuses, "Internal Server Error")
	}
	return response.Success(c, "User deleted successfully", nil, nil)
}
