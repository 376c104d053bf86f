package telemetry

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// CandidateLabels returns the union of labels across stations, sorted ascending.
func CandidateLabels(stations map[string]StationSnapshot) []SensorLabel {
	seen := make(map[SensorLabel]struct{})
	for _, ss := range stations {
		for l := range ss.Readings {
			seen[l] = struct{}{}
		}
	}

	labels := make([]SensorLabel, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// AggregateValues collapses the values reported for one label into a cell.
// All numeric: mean with two decimals. Otherwise the first value verbatim.
// Empty: NotAvailable.
func AggregateValues(values []Value) string {
	var collected []Value
	for _, v := range values {
		if v.Available() {
			collected = append(collected, v)
		}
	}
	if len(collected) == 0 {
		return NotAvailable
	}

	var sum float64
	for _, v := range collected {
		f, ok := asNumber(v)
		if !ok {
			return collected[0].Text
		}
		sum += f
	}
	return strconv.FormatFloat(sum/float64(len(collected)), 'f', 2, 64)
}

func asNumber(v Value) (float64, bool) {
	if v.Kind == KindNumeric {
		return v.Number, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Aggregate builds the row of one poll cycle. Values are collected in
// catalog station order. ok is false when no station had a qualifying
// reading, in which case the cycle must be skipped.
func Aggregate(stations map[string]StationSnapshot, order []string, polledAt time.Time) (AggregatedRow, bool) {
	labels := CandidateLabels(stations)
	if len(labels) == 0 {
		return AggregatedRow{}, false
	}

	row := AggregatedRow{
		PolledAt: polledAt,
		Labels:   labels,
		Values:   make([]string, 0, len(labels)),
	}

	for _, l := range labels {
		var values []Value
		for _, name := range order {
			ss, ok := stations[name]
			if !ok {
				continue
			}
			if v, ok := ss.Readings[l]; ok {
				values = append(values, v)
			}
		}
		row.Values = append(row.Values, AggregateValues(values))
	}

	return row, true
}
