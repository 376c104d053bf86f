package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/station-telemetry-monitor/internal/store"
	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
	"github.com/i474232898/station-telemetry-monitor/internal/telemetry/providers"
)

var validate = validator.New()

type AppConfig struct {
	// Endpoint is the telemetry API polled every cycle.
	Endpoint    string `validate:"required,url"`
	InsecureTLS bool

	HTTPTimeout time.Duration `validate:"gt=0"`

	// FetchInterval controls how often a cycle runs.
	FetchInterval time.Duration `validate:"gte=1s"`
	RunOnStart    bool

	// Persisted table.
	CSVPath      string             `validate:"required"`
	SchemaPolicy store.SchemaPolicy `validate:"oneof=overwrite rotate"`

	// Catalog.
	Stations    []string `validate:"min=1,dive,required"`
	SensorTypes []int    `validate:"min=1"`

	Location *time.Location `validate:"required"`

	// Optional SQL archive; empty driver disables it.
	ArchiveDriver string `validate:"omitempty,oneof=sqlite postgres"`
	ArchiveDSN    string `validate:"required_with=ArchiveDriver"`

	// HTTPAddr is the query API listen address; empty disables it.
	HTTPAddr string

	Debug bool

	// DotEnvLoaded reports whether a .env file was found and applied.
	DotEnvLoaded bool
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	// A missing .env file is normal; a malformed one is not.
	err := godotenv.Load()
	switch {
	case err == nil:
		cfg.DotEnvLoaded = true
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg.Endpoint = getenvDefault("TELEMETRY_ENDPOINT", providers.DefaultRTDataURL)
	cfg.InsecureTLS = getenvBool("TELEMETRY_INSECURE_TLS", true)

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	// Scheduler interval: default 15 minutes.
	interval, err := time.ParseDuration(getenvDefault("FETCH_INTERVAL", "15m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
	}
	cfg.FetchInterval = interval
	cfg.RunOnStart = getenvBool("RUN_ON_START", false)

	cfg.CSVPath = getenvDefault("CSV_PATH", "dati_meteo_stazioni.csv")
	cfg.SchemaPolicy = store.SchemaPolicy(strings.ToLower(getenvDefault("SCHEMA_CHANGE_POLICY", string(store.PolicyOverwrite))))

	cfg.Stations = telemetry.DefaultStations
	if v := os.Getenv("STATIONS"); v != "" {
		cfg.Stations = splitList(v)
	}

	cfg.SensorTypes = telemetry.DefaultSensorTypes
	if v := os.Getenv("SENSOR_TYPES"); v != "" {
		codes, err := parseInts(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SENSOR_TYPES: %w", err)
		}
		cfg.SensorTypes = codes
	}

	loc, err := time.LoadLocation(getenvDefault("TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

	cfg.ArchiveDriver = strings.ToLower(os.Getenv("ARCHIVE_DRIVER"))
	cfg.ArchiveDSN = os.Getenv("ARCHIVE_DSN")

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	cfg.Debug = getenvBool("LOG_DEBUG", false)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Catalog returns the sensor catalog described by the configuration.
func (c *AppConfig) Catalog() telemetry.Catalog {
	return telemetry.NewCatalog(c.Stations, c.SensorTypes)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}
