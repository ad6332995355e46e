package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

type SessionHandler struct {
	s                service.SessionService
	posts            service.PostService
	loginWaitSeconds int
}

func NewSessionHandler(sessions service.SessionService, posts service.PostService, loginWaitSeconds int) *SessionHandler {
	return &SessionHandler{s: sessions, posts: posts, loginWaitSeconds: loginWaitSeconds}
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.s.List(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	var req transfer.SessionCreate
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	session, err := h.s.Create(c.Context(), req.Name, req.Cookie)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusCreated, fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	id, found := pathID(c)
	if !found {
		return fail(c, service.ErrSessionNotFound)
	}

	var req transfer.SessionUpdate
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	session, err := h.s.Update(c.Context(), id, req.Name, req.Cookie)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"session": session})
}

func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	id, found := pathID(c)
	if !found {
		return fail(c, service.ErrSessionNotFound)
	}

	if err := h.s.Delete(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"message": "Session deleted"})
}

// VerifySession checks the cookie against the automation API and, once the
// session is verified, publishes the posts that were waiting on it.
func (h *SessionHandler) VerifySession(c *fiber.Ctx) error {
	id, found := pathID(c)
	if !found {
		return fail(c, service.ErrSessionNotFound)
	}

	session, err := h.s.Verify(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}

	outcomes, err := h.posts.PublishPending(c.Context(), session.ID)
	if err != nil {
		slog.Error("publish pending after verify", "session_id", session.ID, "error", err)
	}

	published := 0
	for _, o := range outcomes {
		if o.Post != nil && o.Post.Status == models.PostStatusPublished {
			published++
		}
	}

	return ok(c, fiber.StatusOK, fiber.Map{
		"session":   session,
		"retried":   len(outcomes),
		"published": published,
	})
}

// Login starts a background login and answers immediately; the dashboard
// polls the returned task.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req transfer.LoginRequest
	if valid, err := parseBody(c, &req); !valid {
		return err
	}

	identity, secret := req.Identity(), req.Secret()
	if identity == "" || secret == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  StatusError,
			"message": "email and password are required",
		})
	}

	task, err := h.s.StartLogin(c.Context(), identity, secret, req.WaitSeconds(h.loginWaitSeconds))
	if err != nil {
		return fail(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  StatusProcessing,
		"message": "Login started, approve the login on your device if asked",
		"task":    task,
	})
}

func (h *SessionHandler) LoginStatus(c *fiber.Ctx) error {
	task, err := h.s.GetLoginTask(c.Context(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.StatusOK, fiber.Map{"task": task})
}
