package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

type PageHandler struct {
	s service.PageService
}

func NewPageHandler(service service.PageService) *PageHandler {
	return &PageHandler{s: service}
}

// GetPages serves the page cache; ?refresh=true pulls the remote list first.
func (h *PageHandler) GetPages(c *fiber.Ctx) error {
	return h.pages(c, optionalID(c, "session_id"), c.QueryBool("refresh", false))
}

func (h *PageHandler) RefreshPages(c *fiber.Ctx) error {
	var req transfer.PagesRequest
	if len(c.Body()) > 0 {
		if valid, err := parseBody(c, &req); !valid {
			return err
		}
	}
	return h.pages(c, req.SessionID, req.Refresh)
}

func (h *PageHandler) pages(c *fiber.Ctx, sessionID *int64, refresh bool) error {
	listing, err := h.s.GetPages(c.Context(), sessionID, refresh)
	if err != nil {
		return fail(c, err)
	}

	status := StatusOK
	if listing.Cached {
		status = StatusCached
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":     status,
		"session_id": listing.SessionID,
		"pages":      listing.Pages,
	})
}

func (h *PageHandler) SelectPages(c *fiber.Ctx) error {
	var req transfer.PageSelection
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	updated, err := h.s.SetSelection(c.Context(), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"updated": updated})
}
