package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/station-telemetry-monitor/internal/api/http"
	"github.com/i474232898/station-telemetry-monitor/internal/config"
	applog "github.com/i474232898/station-telemetry-monitor/internal/log"
	"github.com/i474232898/station-telemetry-monitor/internal/metrics"
	"github.com/i474232898/station-telemetry-monitor/internal/scheduler"
	"github.com/i474232898/station-telemetry-monitor/internal/store"
	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
	"github.com/i474232898/station-telemetry-monitor/internal/telemetry/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := applog.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if !cfg.DotEnvLoaded {
		log.Info("no .env file found; using environment only")
	}
	if cfg.InsecureTLS {
		log.Warnw("TLS certificate verification is disabled for the telemetry endpoint",
			"endpoint", cfg.Endpoint)
	}

	collector := metrics.NewCollector("station_monitor")

	// Outbound client for the telemetry endpoint.
	httpClient := providers.NewHTTPClient(cfg.HTTPTimeout, cfg.InsecureTLS)
	source := providers.NewRTDataProvider(httpClient, cfg.Endpoint)

	// Persisted table; the tracker resumes from the header already on disk.
	table := store.NewCSVTable(cfg.CSVPath, cfg.SchemaPolicy)
	existing, err := table.ReadHeader()
	if err != nil {
		log.Fatalw("failed to read existing table header", "path", cfg.CSVPath, "error", err)
	}
	tracker := telemetry.NewSchemaTracker(existing)

	opts := []telemetry.Option{
		telemetry.WithClock(func() time.Time { return time.Now().In(cfg.Location) }),
	}
	// Left as a nil interface when no archive is configured.
	var archiveReader httpapi.ArchiveReader
	if cfg.ArchiveDriver != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		archive, err := store.OpenSQLArchive(ctx, cfg.ArchiveDriver, cfg.ArchiveDSN)
		cancel()
		if err != nil {
			log.Fatalw("failed to open archive", "driver", cfg.ArchiveDriver, "error", err)
		}
		defer archive.Close()
		opts = append(opts, telemetry.WithArchive(archive))
		archiveReader = archive
	}

	// Core service: fetch, extract, aggregate, persist.
	service := telemetry.NewService(source, cfg.Catalog(), table, tracker, log, collector, opts...)

	log.Infow("starting station monitor",
		"csv_path", cfg.CSVPath,
		"schema_policy", string(cfg.SchemaPolicy),
		"stations", cfg.Stations,
		"sensor_types", cfg.SensorTypes,
		"interval", cfg.FetchInterval.String(),
		"existing_columns", len(existing),
	)

	// Bound a whole cycle slightly above the HTTP timeout.
	sched := scheduler.New(service, cfg.FetchInterval, cfg.HTTPTimeout+30*time.Second, cfg.RunOnStart, log)
	if err := sched.Start(); err != nil {
		log.Fatalw("failed to start scheduler", "error", err)
	}

	var app *fiber.App
	if cfg.HTTPAddr != "" {
		app = fiber.New(fiber.Config{
			AppName:               "station-monitor",
			DisableStartupMessage: true,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
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

		app.Use(logger.New())
		app.Use(recover.New())

		app.Get("/health", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"status":   "ok",
				"service":  "station-monitor",
				"lastPoll": service.LastPoll(),
			})
		})

		httpapi.RegisterRoutes(app, table, archiveReader, cfg.Location, collector)

		go func() {
			if err := app.Listen(cfg.HTTPAddr); err != nil {
				log.Errorw("query API stopped", "error", err)
			}
		}()
	}

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info("termination requested; shutting down")

	sched.Stop()

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Errorw("error during shutdown", "error", err)
		}
	}
}
