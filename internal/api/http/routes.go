package httpapi

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/aemet-tools/antartida-api/internal/config"
	"github.com/aemet-tools/antartida-api/internal/store"
	"github.com/aemet-tools/antartida-api/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, fetcher weather.Fetcher, pipeline *weather.Pipeline, st *store.MemoryStore, cfg *config.AppConfig) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		var req weatherQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		level, err := weather.ParseAggregationLevel(req.Aggregation)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		initInstant, endInstant, err := weather.CivilRange(req.InitDate, req.EndDate, cfg.Location)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.Context(), cfg.FetchTimeout)
		defer cancel()

		records, err := fetcher.Fetch(ctx, initInstant, endInstant, req.Station)
		if err != nil {
			var vErr *weather.ValidationError
			if errors.As(err, &vErr) {
				return fiber.NewError(fiber.StatusBadRequest, vErr.Error())
			}
			log.Printf("weather fetch failed for station %s [%s..%s]: %v", req.Station, req.InitDate, req.EndDate, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		// Successful fetch with zero observations is not a failure;
		// the range simply holds no data.
		if len(records) == 0 {
			return c.JSON([]map[string]any{})
		}

		table, err := pipeline.Process(records, req.Features, level)
		if err != nil {
			var vErr *weather.ValidationError
			if errors.As(err, &vErr) {
				return fiber.NewError(fiber.StatusBadRequest, vErr.Error())
			}
			log.Printf("weather processing failed for station %s: %v", req.Station, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to process weather data")
		}

		return c.JSON(table.Records())
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		latest, err := st.GetLatest(cfg.ProbeStation)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no upstream probe results yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read probe results")
		}

		history, err := st.Recent(cfg.ProbeStation, time.Now().Add(-24*time.Hour))
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read probe results")
		}

		return c.JSON(fiber.Map{
			"station": cfg.ProbeStation,
			"latest":  latest,
			"history": history,
		})
	})
}

// weatherQuery holds query parameters for the weather endpoint.
type weatherQuery struct {
	Station     string `validate:"required"`
	InitDate    string `validate:"required,datetime=2006-01-02"`
	EndDate     string `validate:"required,datetime=2006-01-02"`
	Features    []string
	Aggregation string `validate:"omitempty,oneof=none hourly daily monthly"`
}

func (q *weatherQuery) bind(c *fiber.Ctx) error {
	q.Station = c.Query("station")
	q.InitDate = c.Query("init_date")
	q.EndDate = c.Query("end_date")
	q.Features = splitFeatures(c.Query("desired_features"))
	q.Aggregation = c.Query("aggregation_value")

	if q.Station == "" || q.InitDate == "" || q.EndDate == "" {
		return errors.New("missing required parameters: station, init_date, end_date")
	}
	return validate.Struct(q)
}

// splitFeatures parses the comma-separated desired_features value.
func splitFeatures(s string) []string {
	if s == "" {
		return nil
	}
	var features []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return features
}
