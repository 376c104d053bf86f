package telemetry

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

var (
	stationType = reflect.TypeOf(RawStation{})
	readingType = reflect.TypeOf(AnalogReading{})
)

// UnmarshalJSON decodes a station object. Only a non-object is an error;
// badly typed fields are dropped so one broken reading cannot void a snapshot.
func (s *RawStation) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return &json.UnmarshalTypeError{Value: "null", Type: stationType}
	}

	*s = RawStation{}
	s.Name, _ = decodeString(fields["nome"])
	if ts, ok := decodeString(fields["lastUpdateTime"]); ok {
		s.LastUpdateTime = &ts
	}

	var analog []json.RawMessage
	if err := json.Unmarshal(fields["analog"], &analog); err != nil {
		return nil
	}
	for _, raw := range analog {
		var r AnalogReading
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		s.Analog = append(s.Analog, r)
	}
	return nil
}

// UnmarshalJSON decodes a reading object leniently.
func (r *AnalogReading) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return &json.UnmarshalTypeError{Value: "null", Type: readingType}
	}

	*r = AnalogReading{Value: fields["valore"]}
	r.TypeCode = decodeTypeCode(fields["tipoSens"])

	if raw, ok := fields["descr"]; ok {
		descr, isString := decodeString(raw)
		r.Description = descr
		r.Malformed = !isString
	}
	if raw, ok := fields["unmis"]; ok && !isNull(raw) {
		unit, isString := decodeString(raw)
		if isString {
			r.Unit = &unit
		} else {
			r.Malformed = true
		}
	}
	return nil
}

// decodeTypeCode accepts integral JSON numbers only (1 and 1.0, not "1").
func decodeTypeCode(raw json.RawMessage) *int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || isNull(raw) {
		return nil
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil
	}
	code := int(f)
	return &code
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
