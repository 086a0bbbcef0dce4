package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	contractx "github.com/tanpawarit/yearboard/board/contract"
	kvx "github.com/tanpawarit/yearboard/board/kv"
	memoryx "github.com/tanpawarit/yearboard/board/memory"
)

var (
	errCoachDisabled = errors.New("coach is not configured")
	errNoProgress    = errors.New("no progress recorded for goal")
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, contractx.ErrValidation),
		errors.Is(err, memoryx.ErrInvalidEvent),
		errors.Is(err, kvx.ErrInvalidKey):
		return fiber.StatusBadRequest
	case errors.Is(err, errNoProgress):
		return fiber.StatusNotFound
	case errors.Is(err, errCoachDisabled):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, contractx.ErrModelInvoke),
		errors.Is(err, contractx.ErrSchemaViolation):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := statusFor(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func badRequest(msg string) error {
	return fiber.NewError(fiber.StatusBadRequest, msg)
}
