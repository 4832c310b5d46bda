package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/aemet-tools/antartida-api/internal/api/http"
	"github.com/aemet-tools/antartida-api/internal/config"
	"github.com/aemet-tools/antartida-api/internal/scheduler"
	"github.com/aemet-tools/antartida-api/internal/store"
	"github.com/aemet-tools/antartida-api/internal/weather"
	"github.com/aemet-tools/antartida-api/internal/weather/aemet"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound AEMET calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Segmented fetch client with resilience (backoff + circuit breaker).
	client := aemet.NewClient(httpClient, aemet.Config{
		APIKey:         cfg.AemetAPIKey,
		BaseURL:        cfg.AemetBaseURL,
		SafeWindowDays: cfg.SafeWindowDays,
		MaxRetries:     cfg.FetchMaxRetries,
		InitialBackoff: cfg.FetchInitialBackoff,
	})

	// Normalization/aggregation pipeline presenting in the civil zone.
	pipeline := weather.NewPipeline(cfg.Location)

	// In-memory probe history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	// Scheduler that periodically probes upstream availability.
	sched := scheduler.New(client, memStore, cfg.ProbeStation, cfg.ProbeInterval, cfg.Location)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "antartida-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.FetchTimeout + 10*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "antartida-api",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, client, pipeline, memStore, cfg)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
