package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) Upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  StatusError,
			"message": "Unable to parse form",
		})
	}

	files, err := h.s.Upload(c.Context(), form.File["file"])
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"files": files})
}

func (h *MediaHandler) List(c *fiber.Ctx) error {
	files, err := h.s.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"files": files})
}

func (h *MediaHandler) Delete(c *fiber.Ctx) error {
	var req transfer.MediaDelete
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	if err := h.s.Delete(c.Context(), req.URL); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "File deleted"})
}

// Serve streams an uploaded image for /uploads/:name.
func (h *MediaHandler) Serve(c *fiber.Ctx) error {
	data, mime, err := h.s.Open(c.Context(), c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, mime)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}
