package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// AEMET OpenData access.
	AemetAPIKey  string
	AemetBaseURL string

	// Location is the civil timezone used for date-range boundaries
	// and presentation of timestamps. The stations report in UTC.
	Location *time.Location

	// Outbound HTTP client timeout (single call).
	HTTPTimeout time.Duration

	// Fetch client tuning.
	SafeWindowDays      int           // max query window the upstream reliably accepts
	FetchMaxRetries     int           // retry attempts per segment beyond the first
	FetchInitialBackoff time.Duration // first backoff delay, doubled per attempt
	FetchTimeout        time.Duration // overall deadline for a multi-segment fetch

	// Upstream availability probe.
	ProbeInterval time.Duration
	ProbeStation  string

	// Probe history retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.AemetAPIKey = os.Getenv("AEMET_API_KEY")
	if cfg.AemetAPIKey == "" {
		return nil, fmt.Errorf("AEMET_API_KEY is required")
	}
	cfg.AemetBaseURL = os.Getenv("AEMET_BASE_URL") // empty means client default

	tz := getenvDefault("LOCAL_TIMEZONE", "Europe/Madrid")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCAL_TIMEZONE %q: %w", tz, err)
	}
	cfg.Location = loc

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	// Safe window: the upstream's undocumented maximum query span.
	cfg.SafeWindowDays = getenvInt("SAFE_WINDOW_DAYS", 30)

	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 3)

	cfg.FetchInitialBackoff, err = getenvDuration("FETCH_INITIAL_BACKOFF", "500ms")
	if err != nil {
		return nil, err
	}

	cfg.FetchTimeout, err = getenvDuration("FETCH_TIMEOUT", "2m")
	if err != nil {
		return nil, err
	}

	// Probe interval: the upstream allows roughly five calls a minute,
	// so the default keeps the probe well under quota.
	cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	cfg.ProbeStation = getenvDefault("PROBE_STATION", "89064") // Juan Carlos I

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)

	cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
