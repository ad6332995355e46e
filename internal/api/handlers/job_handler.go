package handlers

import (
	"github.com/gofiber/fiber/v2"
	job "github.com/maheshrc27/fbscheduler/internal/jobs"
)

type JobHandler struct {
	duePosts *job.DuePostJob
}

func NewJobHandler(duePosts *job.DuePostJob) *JobHandler {
	return &JobHandler{duePosts: duePosts}
}

// RunDuePosts runs one due-post sweep on demand.
func (h *JobHandler) RunDuePosts(c *fiber.Ctx) error {
	result, err := h.duePosts.Run(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  StatusError,
			"message": "Unable to run due post sweep",
		})
	}
	return ok(c, fiber.StatusOK, fiber.Map{"result": result})
}
