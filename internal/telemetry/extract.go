package telemetry

import (
	"strings"
	"time"
)

// isoLayouts are tried in order when parsing lastUpdateTime.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseUpdateTime parses an ISO-8601 station timestamp. Naive values are
// interpreted in loc.
func ParseUpdateTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Extract filters snap down to the catalog and groups readings per station.
// A missing or malformed lastUpdateTime is replaced by now. An empty result
// means there is nothing to persist this cycle.
func Extract(snap RawSnapshot, cat Catalog, now time.Time) map[string]StationSnapshot {
	out := make(map[string]StationSnapshot)

	for _, st := range snap {
		if !cat.HasStation(st.Name) {
			continue
		}

		ts := now
		if st.LastUpdateTime != nil {
			if parsed, ok := ParseUpdateTime(*st.LastUpdateTime, now.Location()); ok {
				ts = parsed
			}
		}

		ss := StationSnapshot{
			Station:   st.Name,
			Timestamp: ts,
			Readings:  make(map[SensorLabel]Value),
		}
		for _, r := range st.Analog {
			if r.TypeCode == nil || r.Malformed || !cat.HasSensorType(*r.TypeCode) {
				continue
			}
			// Later readings with the same label replace earlier ones.
			ss.Readings[r.Label()] = ParseValue(r.Value)
		}

		// A station listed twice in one response keeps its last record.
		out[st.Name] = ss
	}

	return out
}
