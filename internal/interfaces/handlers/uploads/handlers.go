package uploads

import (
	"io"

	uploadsvc "stablebricks-backend/internal/application/uploads"
	"stablebricks-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers serves /api/v1/uploads.
type Handlers struct {
	Service *uploadsvc.Service
}

var statuses = response.StatusMap{
	uploadsvc.ErrUnknownFolder:            fiber.StatusBadRequest,
	uploadsvc.ErrFileNameRequired:         fiber.StatusBadRequest,
	uploadsvc.ErrFileRequired:             fiber.StatusBadRequest,
	uploadsvc.ErrUnsupportedType:          fiber.StatusUnsupportedMediaType,
	uploadsvc.ErrFileTooLarge:             fiber.StatusRequestEntityTooLarge,
	uploadsvc.ErrSignedUploadsUnavailable: fiber.StatusNotImplemented,
	uploadsvc.ErrFileNotFound:             fiber.StatusNotFound,
}

// Sign POST /api/v1/uploads/:folder/sign
func (h *Handlers) Sign(c *fiber.Ctx) error {
	var body struct {
		FileName string `json:"file_name"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	res, err := h.Service.SignedUpload(c.UserContext(), c.Params("folder"), body.FileName)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to generate upload URL")
	}
	return response.Success(c, "Upload URL generated", res, nil)
}

// Upload POST /api/v1/uploads/:folder (multipart field "file").
func (h *Handlers) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return response.FromError(c, uploadsvc.ErrFileRequired, statuses, "")
	}
	if fh.Size > uploadsvc.MaxFileSize {
		return response.FromError(c, uploadsvc.ErrFileTooLarge, statuses, "")
	}
	f, err := fh.Open()
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to read upload")
	}
	defer f.Close()
	body, err := io.ReadAll(io.LimitReader(f, uploadsvc.MaxFileSize+1))
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to read upload")
	}
	res, err := h.Service.Upload(c.UserContext(), c.Params("folder"), fh.Filename, body)
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to store upload")
	}
	return response.SuccessCreated(c, "File uploaded", res, nil)
}

// Serve GET /api/v1/uploads/:folder/:name (public).
func (h *Handlers) Serve(c *fiber.Ctx) error {
	body, contentType, err := h.Service.Open(c.UserContext(), c.Params("folder"), c.Params("name"))
	if err != nil {
		return response.FromError(c, err, statuses, "Failed to read upload")
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.Send(body)
}
