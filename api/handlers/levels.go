package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/suwandre/odette/internal/scheduler"
)

type LevelsHandler struct {
	scheduler *scheduler.Scheduler
}

func NewLevelsHandler(scheduler *scheduler.Scheduler) *LevelsHandler {
	return &LevelsHandler{scheduler}
}

// Handles GET /v1/levels/:currency.
func (h *LevelsHandler) GetLevels(c fiber.Ctx) error {
	currency := strings.ToUpper(c.Params("currency"))

	if currency == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "currency parameter is required",
		})
	}

	result, ok := h.scheduler.GetResult(currency)

	if !ok {
		log.Warn().Str("currency", currency).Msg("currency not found in cache")
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "currency not available, check configured currencies",
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
