package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

var testNow = time.Date(2026, 10, 19, 14, 30, 0, 0, time.UTC)

func reading(code int, descr, unit, value string) AnalogReading {
	return AnalogReading{TypeCode: &code, Description: descr, Unit: strPtr(unit), Value: json.RawMessage(value)}
}

func TestExtractFiltersStationsAndSensorTypes(t *testing.T) {
	cat := NewCatalog([]string{"Misa", "Barbara"}, []int{0, 1})
	snap := RawSnapshot{
		{Name: "Misa", Analog: []AnalogReading{
			reading(1, "Temperatura", "°C", "15.5"),
			reading(7, "Vento", "m/s", "3.2"),
		}},
		{Name: "Ancona", Analog: []AnalogReading{
			reading(1, "Temperatura", "°C", "20"),
		}},
		{Name: "Barbara", Analog: []AnalogReading{
			reading(0, "Pioggia", "mm", "0.2"),
		}},
	}

	out := Extract(snap, cat, testNow)

	if len(out) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(out))
	}
	for name, ss := range out {
		if !cat.HasStation(name) {
			t.Errorf("station %q is outside the catalog", name)
		}
		for label := range ss.Readings {
			if label == "Vento (m/s)" {
				t.Errorf("reading with type code outside the catalog kept: %q", label)
			}
		}
	}
	if v := out["Misa"].Readings["Temperatura (°C)"]; v.Kind != KindNumeric || v.Number != 15.5 {
		t.Errorf("unexpected Misa temperature %+v", v)
	}
}

func TestExtractTimestamps(t *testing.T) {
	cat := NewCatalog([]string{"Misa"}, []int{1})

	tests := []struct {
		name string
		ts   *string
		want time.Time
	}{
		{"null", nil, testNow},
		{"malformed", strPtr("ieri"), testNow},
		{"empty", strPtr(""), testNow},
		{"zulu", strPtr("2026-10-19T12:15:00Z"), time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC)},
		{"naive", strPtr("2026-10-19T12:15:00"), time.Date(2026, 10, 19, 12, 15, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			snap := RawSnapshot{{Name: "Misa", LastUpdateTime: tc.ts}}
			out := Extract(snap, cat, testNow)

			ss, ok := out["Misa"]
			if !ok {
				t.Fatalf("station snapshot missing")
			}
			if !ss.Timestamp.Equal(tc.want) {
				t.Fatalf("timestamp = %v, want %v", ss.Timestamp, tc.want)
			}
		})
	}
}

func TestExtractNoCatalogStations(t *testing.T) {
	cat := DefaultCatalog()
	snap := RawSnapshot{{Name: "Ancona"}, {Name: "Pesaro"}}

	if out := Extract(snap, cat, testNow); len(out) != 0 {
		t.Fatalf("expected empty result, got %v", out)
	}
}

func TestExtractLastDuplicateLabelWins(t *testing.T) {
	cat := NewCatalog([]string{"Misa"}, []int{1, 5})
	snap := RawSnapshot{{Name: "Misa", Analog: []AnalogReading{
		reading(1, "Temperatura", "°C", "10"),
		reading(5, "Temperatura ", "°C", "12"),
	}}}

	out := Extract(snap, cat, testNow)
	if v := out["Misa"].Readings["Temperatura (°C)"]; v.Text != "12" {
		t.Fatalf("expected last reading to win, got %+v", v)
	}
}

func TestExtractDropsReadingsWithoutTypeCode(t *testing.T) {
	var snap RawSnapshot
	body := `[{"nome": "Misa", "analog": [
		{"tipoSens": null, "descr": "Batteria", "valore": 12.6, "unmis": "V"},
		{"descr": "Segnale", "valore": -70, "unmis": "dBm"},
		{"tipoSens": "0", "descr": "Pioggia testo", "valore": 1, "unmis": "mm"},
		{"tipoSens": 0.5, "descr": "Pioggia frazione", "valore": 1, "unmis": "mm"},
		{"tipoSens": 0, "descr": "Pioggia", "valore": 0.2, "unmis": "mm"}
	]}]`
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	out := Extract(snap, DefaultCatalog(), testNow)

	readings := out["Misa"].Readings
	if len(readings) != 1 {
		t.Fatalf("expected only the typed rainfall reading, got %v", readings)
	}
	if _, ok := readings["Pioggia (mm)"]; !ok {
		t.Fatalf("expected Pioggia (mm) to be kept, got %v", readings)
	}
}

func TestExtractDropsMalformedDescriptionAndUnit(t *testing.T) {
	var snap RawSnapshot
	body := `[{"nome": "Misa", "analog": [
		{"tipoSens": 1, "descr": 42, "valore": 15.5, "unmis": "°C"},
		{"tipoSens": 1, "descr": "Temperatura", "valore": 15.5, "unmis": 3},
		{"tipoSens": 1, "descr": null, "valore": 15.5, "unmis": "°C"},
		{"tipoSens": 5, "descr": "Umidità", "valore": 80, "unmis": null}
	]}]`
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	readings := Extract(snap, DefaultCatalog(), testNow)["Misa"].Readings
	if len(readings) != 1 {
		t.Fatalf("expected one well-formed reading, got %v", readings)
	}
	if _, ok := readings["Umidità ()"]; !ok {
		t.Fatalf("expected null unit to yield an empty unit label, got %v", readings)
	}
}
