package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-lms-api/internal/utils"
)

// ErrorHandler renders errors returned by handlers. API routes get the plain
// envelope; pages get the error view.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	logger = logger.With().Str("component", "error_handler").Logger()

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "internal server error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		} else {
			requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		}

		if strings.HasPrefix(c.Path(), "/api/") {
			return utils.SendError(c, status, message)
		}
		return renderError(c, status, message)
	}
}
