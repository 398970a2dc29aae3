package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/suwandre/odette/api/handlers"
	"github.com/suwandre/odette/internal/scheduler"
)

func SetupRoutes(app *fiber.App, sched *scheduler.Scheduler) {
	levelsHandler := handlers.NewLevelsHandler(sched)

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.SendString("ok")
	})

	v1 := app.Group("/v1")

	v1.Get("/levels/:currency", levelsHandler.GetLevels)
}
