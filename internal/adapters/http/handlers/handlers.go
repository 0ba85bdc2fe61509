package handlers

import (
	"log/slog"
	"strconv"

	"libralend/internal/core/domain"
	"libralend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// handleServiceError maps a service error onto the HTTP response. Domain
// errors carry their stable code and context map; anything else is an
// internal failure, logged with full context and never detailed to the
// client.
func handleServiceError(c *fiber.Ctx, err error) error {
	if de := domain.AsDomain(err); de != nil {
		return response.Domain(c, de)
	}

	slog.Error("unclassified service error",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return response.InternalServerError(c, "Internal server error")
}

// paramUint parses a numeric path parameter
func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
