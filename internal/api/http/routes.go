package httpapi

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/station-telemetry-monitor/internal/metrics"
	"github.com/i474232898/station-telemetry-monitor/internal/store"
	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

var validate = validator.New()

// ArchiveReader serves archived readings for one sensor label.
type ArchiveReader interface {
	Readings(ctx context.Context, label string) ([]store.ArchivedReading, error)
}

// RegisterRoutes wires the read-only handlers over the persisted table.
// The archive route is only registered when archive is non-nil.
func RegisterRoutes(app *fiber.App, table *store.CSVTable, archive ArchiveReader, loc *time.Location, collector *metrics.Collector) {
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	v1 := app.Group("/api/v1")
	v1.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
		collector.RecordAPIRequest(c.Route().Path, strconv.Itoa(status))
		return err
	})

	v1.Get("/readings/schema", func(c *fiber.Ctx) error {
		header, err := table.ReadHeader()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read table header")
		}
		if header == nil {
			return fiber.NewError(fiber.StatusNotFound, "no telemetry table yet")
		}
		return c.JSON(fiber.Map{
			"timestampColumn": telemetry.TimestampColumn,
			"columns":         header,
		})
	})

	v1.Get("/readings/latest", func(c *fiber.Ctx) error {
		header, row, err := table.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no telemetry rows yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read telemetry table")
		}

		return c.JSON(fiber.Map{
			"columns": header,
			"reading": row,
		})
	})

	v1.Get("/readings/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c, loc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := table.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no telemetry rows for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read telemetry history")
		}

		return c.JSON(fiber.Map{
			"from":     req.From,
			"to":       req.To,
			"readings": rows,
		})
	})

	if archive == nil {
		return
	}

	v1.Get("/archive/readings", func(c *fiber.Ctx) error {
		req := archiveQuery{Label: strings.TrimSpace(c.Query("label"))}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "label query parameter is required")
		}

		readings, err := archive.Readings(c.UserContext(), req.Label)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read archive")
		}
		if len(readings) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no archived readings for label")
		}

		out := make([]archivedReading, 0, len(readings))
		for _, r := range readings {
			ar := archivedReading{
				CycleID:  r.CycleID,
				PolledAt: r.PolledAt.In(loc),
				Value:    r.Value,
			}
			if r.NumericValue.Valid {
				f := r.NumericValue.Float64
				ar.Numeric = &f
			}
			out = append(out, ar)
		}

		return c.JSON(fiber.Map{
			"label":    req.Label,
			"readings": out,
		})
	})
}

type archiveQuery struct {
	Label string `validate:"required"`
}

type archivedReading struct {
	CycleID  string    `json:"cycleId"`
	PolledAt time.Time `json:"polledAt"`
	Value    string    `json:"value"`
	Numeric  *float64  `json:"numeric,omitempty"`
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, loc *time.Location) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr, loc)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr, loc)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime accepts RFC3339, Unix seconds, or the table's DD/MM/YYYY HH:MM.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).In(loc), nil
	}
	if ts, err := time.ParseInLocation(telemetry.TimestampLayout, s, loc); err == nil {
		return ts, nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339, unix seconds or DD/MM/YYYY HH:MM")
}
