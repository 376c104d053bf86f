package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

const archiveSchema = `
CREATE TABLE IF NOT EXISTS station_readings (
	cycle_id      TEXT             NOT NULL,
	polled_at     TIMESTAMP        NOT NULL,
	label         TEXT             NOT NULL,
	value         TEXT             NOT NULL,
	numeric_value DOUBLE PRECISION,
	PRIMARY KEY (cycle_id, label)
)`

// ArchivedReading is one cell of an archived row.
type ArchivedReading struct {
	CycleID      string          `db:"cycle_id"`
	PolledAt     time.Time       `db:"polled_at"`
	Label        string          `db:"label"`
	Value        string          `db:"value"`
	NumericValue sql.NullFloat64 `db:"numeric_value"`
}

// SQLArchive stores persisted rows in long form so header changes never
// affect it. Supported drivers are "sqlite" and "postgres".
type SQLArchive struct {
	db *sqlx.DB
}

// OpenSQLArchive connects to the archive database and ensures the schema exists.
func OpenSQLArchive(ctx context.Context, driver, dsn string) (*SQLArchive, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}
	if driver == "sqlite" {
		// One writer; avoids SQLITE_BUSY and keeps :memory: databases on one connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping archive database: %w", err)
	}
	if _, err := db.ExecContext(ctx, archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return &SQLArchive{db: db}, nil
}

// Record inserts every cell of row in one transaction.
func (a *SQLArchive) Record(ctx context.Context, cycleID string, row telemetry.AggregatedRow) error {
	if len(row.Labels) == 0 {
		return nil
	}

	readings := make([]ArchivedReading, 0, len(row.Labels))
	for i, label := range row.Labels {
		r := ArchivedReading{
			CycleID:  cycleID,
			PolledAt: row.PolledAt,
			Label:    string(label),
			Value:    row.Values[i],
		}
		if f, err := strconv.ParseFloat(row.Values[i], 64); err == nil {
			r.NumericValue = sql.NullFloat64{Float64: f, Valid: true}
		}
		readings = append(readings, r)
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO station_readings (cycle_id, polled_at, label, value, numeric_value)
		VALUES (:cycle_id, :polled_at, :label, :value, :numeric_value)`, readings)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to insert archived readings: %w", err)
	}
	return tx.Commit()
}

// Readings returns the archived cells of label, oldest first.
func (a *SQLArchive) Readings(ctx context.Context, label string) ([]ArchivedReading, error) {
	var out []ArchivedReading
	q := a.db.Rebind(`
		SELECT cycle_id, polled_at, label, value, numeric_value
		FROM station_readings
		WHERE label = ?
		ORDER BY polled_at`)
	if err := a.db.SelectContext(ctx, &out, q, label); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *SQLArchive) Close() error {
	return a.db.Close()
}
