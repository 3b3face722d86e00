package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Success and Error wrap the REST endpoints that sit next to /graphql;
// GraphQL responses keep their own {data, errors} shape.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// ErrorHandler renders unhandled errors with the Error envelope and hides
// internal messages behind a generic one.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return Error(c, fiberErr.Code, fiberErr.Message)
	}
	return Error(c, fiber.StatusInternalServerError, "internal server error")
}
