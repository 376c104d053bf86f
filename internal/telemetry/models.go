package telemetry

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is the token written for a label no station reported.
const NotAvailable = "N/A"

// TimestampColumn is the first column of every persisted header.
const TimestampColumn = "Data_Ora"

// TimestampLayout renders poll times as DD/MM/YYYY HH:MM.
const TimestampLayout = "02/01/2006 15:04"

// RawStation is one station record of the telemetry API response.
// Fields of the wrong JSON type decode as absent; see decode.go.
type RawStation struct {
	Name           string          `json:"nome"`
	LastUpdateTime *string         `json:"lastUpdateTime"`
	Analog         []AnalogReading `json:"analog"`
}

// AnalogReading is a single sensor reading of a station.
// TypeCode is nil when tipoSens is missing, null or not an integer.
// Malformed marks a description or unit that is not a string.
type AnalogReading struct {
	TypeCode    *int            `json:"tipoSens"`
	Description string          `json:"descr"`
	Value       json.RawMessage `json:"valore"`
	Unit        *string         `json:"unmis"`
	Malformed   bool            `json:"-"`
}

// RawSnapshot is the full API response of one poll.
type RawSnapshot []RawStation

// SensorLabel is the join key of readings across stations.
type SensorLabel string

// Label builds the SensorLabel of a reading from its trimmed description and unit.
func (r AnalogReading) Label() SensorLabel {
	unit := ""
	if r.Unit != nil {
		unit = strings.TrimSpace(*r.Unit)
	}
	return SensorLabel(strings.TrimSpace(r.Description) + " (" + unit + ")")
}

// ValueKind tags a Value.
type ValueKind int

const (
	KindUnavailable ValueKind = iota
	KindNumeric
	KindRaw
)

// Value is a reading value: numeric, a raw string, or unavailable.
// Numeric values keep their source text so passthrough output stays verbatim.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
}

func Unavailable() Value { return Value{Kind: KindUnavailable} }

func Numeric(f float64, text string) Value {
	if text == "" {
		text = strconv.FormatFloat(f, 'f', -1, 64)
	}
	return Value{Kind: KindNumeric, Number: f, Text: text}
}

func Raw(s string) Value { return Value{Kind: KindRaw, Text: s} }

// Available reports whether the value can contribute to an aggregate.
func (v Value) Available() bool {
	return v.Kind != KindUnavailable
}

// ParseValue converts the JSON of a reading value into a Value.
// null, absent, and the literal string "N/A" are unavailable.
func ParseValue(raw json.RawMessage) Value {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return Unavailable()
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Raw(text)
		}
		if s == NotAvailable {
			return Unavailable()
		}
		return Raw(s)
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Numeric(f, text)
	}
	// Booleans, objects and arrays pass through as their JSON text.
	return Raw(text)
}

// StationSnapshot holds the readings of one catalog station in one cycle.
type StationSnapshot struct {
	Station   string
	Timestamp time.Time
	Readings  map[SensorLabel]Value
}

// AggregatedRow is one persisted row: the poll time plus one cell per label.
type AggregatedRow struct {
	PolledAt time.Time
	Labels   []SensorLabel
	Values   []string
}

// Header returns the CSV header for the row, timestamp column first.
func (r AggregatedRow) Header() []string {
	h := make([]string, 0, len(r.Labels)+1)
	h = append(h, TimestampColumn)
	for _, l := range r.Labels {
		h = append(h, string(l))
	}
	return h
}

// Record returns the CSV fields of the row in header order.
func (r AggregatedRow) Record() []string {
	rec := make([]string, 0, len(r.Values)+1)
	rec = append(rec, r.PolledAt.Format(TimestampLayout))
	rec = append(rec, r.Values...)
	return rec
}
