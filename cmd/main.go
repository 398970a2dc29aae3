package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/suwandre/odette/api"
	"github.com/suwandre/odette/config"
	"github.com/suwandre/odette/internal/analytics"
	"github.com/suwandre/odette/internal/deribit"
	"github.com/suwandre/odette/internal/scheduler"
)

func main() {
	// ── 1. Logger setup
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// ── 2. Root context setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. Config
	cfg := config.Load()
	log.Info().Msg("config loaded")

	// ── 4. Deribit client + analytics engine
	client := deribit.NewClient(cfg.DeribitURL)
	engine := analytics.NewEngine(client, analytics.Options{
		LookbackHours: cfg.LookbackHours,
		ChunkHours:    cfg.ChunkHours,
	})
	log.Info().Strs("currencies", cfg.Currencies).Msg("analytics engine initialized")

	// ── 5. Scheduler
	sched := scheduler.NewScheduler(engine, cfg.Currencies, cfg.RefreshInterval)
	sched.Start(ctx)
	defer sched.Stop()

	// ── 6. Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Odette",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// ── 7. Routes
	api.SetupRoutes(app, sched)

	// ── 8. Graceful shutdown listener
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	// ── 9. Start server (blocking)
	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
