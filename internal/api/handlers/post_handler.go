package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	var sessionID int64
	if id := optionalID(c, "session_id"); id != nil {
		sessionID = *id
	}

	posts, err := h.s.List(c.Context(), sessionID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"posts": posts})
}

// PublishPost is the single publish entry point, shared by the dashboard and
// the due-post poller. Failed attempts still answer with the stored post.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	var req transfer.PublishPost
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	outcome, err := h.s.Publish(c.Context(), &req)
	if err != nil {
		return fail(c, err)
	}

	body := fiber.Map{"post": outcome.Post, "message": outcome.Message}
	switch {
	case outcome.Failed():
		body["status"] = StatusError
		return c.Status(fiber.StatusBadGateway).JSON(body)
	case outcome.Result == service.OutcomeAuth || outcome.Post.Status == models.PostStatusPending:
		body["status"] = StatusError
		body["code"] = CodeSessionExpired
		return c.Status(fiber.StatusOK).JSON(body)
	}

	return ok(c, fiber.StatusOK, body)
}

func (h *PostHandler) SchedulePost(c *fiber.Ctx) error {
	var req transfer.SchedulePost
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	post, err := h.s.Schedule(c.Context(), &req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"post": post, "message": "Post scheduled"})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	id, found := pathID(c)
	if !found {
		return fail(c, service.ErrPostNotFound)
	}

	if err := h.s.Remove(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Post deleted"})
}
