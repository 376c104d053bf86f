package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/station-telemetry-monitor/internal/telemetry"
)

func seededTable(t *testing.T) *CSVTable {
	t.Helper()
	tbl := NewCSVTable(filepath.Join(t.TempDir(), "dati.csv"), PolicyOverwrite)
	mustWrite(t, tbl, telemetry.WriteOverwrite, h1, []string{"19/10/2026 10:00", "16.50"})
	mustWrite(t, tbl, telemetry.WriteAppend, h1, []string{"19/10/2026 10:15", "17.00"})
	mustWrite(t, tbl, telemetry.WriteAppend, h1, []string{"19/10/2026 10:30", "N/A"})
	return tbl
}

func TestGetLatest(t *testing.T) {
	tbl := seededTable(t)

	header, row, err := tbl.GetLatest(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(header) != 2 {
		t.Fatalf("unexpected header %v", header)
	}
	if !row.Timestamp.Equal(time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", row.Timestamp)
	}
	if row.Values["Temperatura (°C)"] != "N/A" {
		t.Fatalf("unexpected values %v", row.Values)
	}
}

func TestGetRangeInclusive(t *testing.T) {
	tbl := seededTable(t)

	from := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 19, 10, 15, 0, 0, time.UTC)
	rows, err := tbl.GetRange(time.UTC, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	_, err = tbl.GetRange(time.UTC, to.Add(time.Hour), to.Add(2*time.Hour))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadMissingTable(t *testing.T) {
	tbl := NewCSVTable(filepath.Join(t.TempDir(), "absent.csv"), PolicyOverwrite)
	if _, err := tbl.Load(time.UTC); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadSkipsUnparseableTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dati.csv")
	content := "Data_Ora,Temperatura (°C)\nieri,1\n19/10/2026 10:00,2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := NewCSVTable(path, PolicyOverwrite).Load(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(table.Rows) != 1 || table.Rows[0].Values["Temperatura (°C)"] != "2" {
		t.Fatalf("unexpected rows %+v", table.Rows)
	}
}
