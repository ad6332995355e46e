package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

type SettingsHandler struct {
	s service.SettingsService
}

func NewSettingsHandler(service service.SettingsService) *SettingsHandler {
	return &SettingsHandler{s: service}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	url, err := h.s.GetAPIURL(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"fb_api_url": url})
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req transfer.SettingsUpdate
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	if err := h.s.UpdateAPIURL(c.Context(), req.FBAPIURL); err != nil {
		return fail(c, err)
	}

	url, err := h.s.GetAPIURL(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"fb_api_url": url, "message": "Settings saved"})
}
