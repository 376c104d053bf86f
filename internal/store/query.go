package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

var (
	// ErrNotFound is returned when the table is missing or has no matching rows.
	ErrNotFound = errors.New("no telemetry rows")
)

// Row is one persisted row keyed by column name.
type Row struct {
	Timestamp time.Time         `json:"timestamp"`
	Values    map[string]string `json:"values"`
}

// Table is a read-only view of the persisted CSV.
type Table struct {
	Header []string
	Rows   []Row
}

// Load reads the whole table. Data_Ora cells are parsed in loc; rows whose
// timestamp cannot be parsed are skipped.
func (t *CSVTable) Load(loc *time.Location) (Table, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Table{}, ErrNotFound
		}
		return Table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("reading %s: %w", t.path, err)
	}
	if len(records) == 0 {
		return Table{}, ErrNotFound
	}

	header := trimBOM(records[0])
	table := Table{Header: header, Rows: make([]Row, 0, len(records)-1)}
	for _, rec := range records[1:] {
		if len(rec) == 0 {
			continue
		}
		ts, err := time.ParseInLocation(telemetry.TimestampLayout, rec[0], loc)
		if err != nil {
			continue
		}
		row := Row{Timestamp: ts, Values: make(map[string]string, len(header)-1)}
		for i := 1; i < len(header) && i < len(rec); i++ {
			row.Values[header[i]] = rec[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// GetLatest returns the header and the most recent row.
func (t *CSVTable) GetLatest(loc *time.Location) ([]string, Row, error) {
	table, err := t.Load(loc)
	if err != nil {
		return nil, Row{}, err
	}
	if len(table.Rows) == 0 {
		return table.Header, Row{}, ErrNotFound
	}
	return table.Header, table.Rows[len(table.Rows)-1], nil
}

// GetRange returns all rows between from and to (inclusive).
func (t *CSVTable) GetRange(loc *time.Location, from, to time.Time) ([]Row, error) {
	table, err := t.Load(loc)
	if err != nil {
		return nil, err
	}

	var result []Row
	for _, row := range table.Rows {
		if !row.Timestamp.Before(from) && !row.Timestamp.After(to) {
			result = append(result, row)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
