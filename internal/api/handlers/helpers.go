package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/fbscheduler/internal/service"
)

const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusProcessing = "processing"
	StatusCached     = "cached"

	CodeSessionExpired = "SESSION_EXPIRED"
)

var validate = validator.New()

// parseBody decodes and validates a JSON body. On failure the 400 response
// has already been written and the returned error is what the handler should
// return.
func parseBody(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  StatusError,
			"message": "Unable to parse json",
		})
	}
	if err := validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  StatusError,
			"message": validationMessage(err),
		})
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" is "+fe.Tag())
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

func ok(c *fiber.Ctx, status int, body fiber.Map) error {
	body["status"] = StatusOK
	return c.Status(status).JSON(body)
}

// fail maps a service error onto an HTTP status and the error envelope.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"status": StatusError, "message": err.Error()}

	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrLoginTaskNotFound),
		errors.Is(err, service.ErrMediaNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrSessionExpired):
		status = fiber.StatusUnauthorized
		body["code"] = CodeSessionExpired
	case errors.Is(err, service.ErrPublishInProgress),
		errors.Is(err, service.ErrPostNotRemovable):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, service.ErrInvalidMedia),
		errors.Is(err, service.ErrCorruptCookie),
		errors.Is(err, service.ErrConfiguration):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrCritical):
		body["message"] = "Critical error while publishing"
	case errors.Is(err, service.ErrConnectivity),
		errors.Is(err, service.ErrUpstreamFormat),
		errors.Is(err, service.ErrUpstream):
		status = fiber.StatusBadGateway
	case errors.Is(err, service.ErrPersistence),
		errors.Is(err, service.ErrLocalStorage):
		body["message"] = "Internal storage error"
	}

	if status >= fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path())
	}

	return c.Status(status).JSON(body)
}

// optionalID reads an int64 query parameter; absent or non-positive values
// yield nil.
func optionalID(c *fiber.Ctx, key string) *int64 {
	v := c.QueryInt(key, 0)
	if v <= 0 {
		return nil
	}
	id := int64(v)
	return &id
}

func pathID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
