package telemetry

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestLabelTrimsDescriptionAndUnit(t *testing.T) {
	tests := []struct {
		name string
		r    AnalogReading
		want SensorLabel
	}{
		{"plain", AnalogReading{Description: "Temperatura", Unit: strPtr("°C")}, "Temperatura (°C)"},
		{"padded", AnalogReading{Description: "  Temperatura ", Unit: strPtr(" °C  ")}, "Temperatura (°C)"},
		{"null unit", AnalogReading{Description: "Pioggia"}, "Pioggia ()"},
		{"empty unit", AnalogReading{Description: "Pioggia", Unit: strPtr("")}, "Pioggia ()"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Label(); got != tc.want {
				t.Fatalf("Label() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind ValueKind
		wantText string
	}{
		{"", KindUnavailable, ""},
		{"null", KindUnavailable, ""},
		{`"N/A"`, KindUnavailable, ""},
		{"15.5", KindNumeric, "15.5"},
		{"10.0", KindNumeric, "10.0"},
		{"-3", KindNumeric, "-3"},
		{`"abc"`, KindRaw, "abc"},
		{`"12.5"`, KindRaw, "12.5"},
		{"true", KindRaw, "true"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			v := ParseValue(json.RawMessage(tc.raw))
			if v.Kind != tc.wantKind {
				t.Fatalf("kind = %v, want %v", v.Kind, tc.wantKind)
			}
			if v.Text != tc.wantText {
				t.Fatalf("text = %q, want %q", v.Text, tc.wantText)
			}
		})
	}
}

func TestAggregatedRowHeaderAndRecord(t *testing.T) {
	row := AggregatedRow{
		Labels: []SensorLabel{"A (x)", "B (y)"},
		Values: []string{"1.00", NotAvailable},
	}
	h := row.Header()
	if len(h) != 3 || h[0] != TimestampColumn || h[1] != "A (x)" {
		t.Fatalf("unexpected header %v", h)
	}
	rec := row.Record()
	if len(rec) != len(h) {
		t.Fatalf("record has %d fields, header has %d", len(rec), len(h))
	}
}
