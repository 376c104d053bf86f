package telemetry

import (
	"context"
)

// Source abstracts the telemetry endpoint (e.g. the regional RT-data API).
type Source interface {
	Name() string
	Fetch(ctx context.Context) (RawSnapshot, error)
}

// TableWriter persists one row per cycle. It is the only writer of the table.
type TableWriter interface {
	Write(mode WriteMode, header, record []string) error
}

// Archive is an optional secondary sink for persisted rows.
type Archive interface {
	Record(ctx context.Context, cycleID string, row AggregatedRow) error
}
