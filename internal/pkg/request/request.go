package request

import (
	"errors"

	"stablebricks-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var ErrInvalidID = errors.New("Invalid id")

// Page reads ?limit= and ?offset=. Bad values fall back to the defaults; limit is capped at MaxLimit.
func Page(c *fiber.Ctx) (limit, offset int) {
	return validation.Pagination(c.Query("limit"), c.Query("offset"), DefaultLimit, MaxLimit)
}

// UUIDParam parses the named route parameter.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
