package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ForecastRecord is one timestamped data point from the weather service.
// Fields holds the record's named values as decoded JSON; Time is zero when
// the record carries no parseable "datetime".
type ForecastRecord struct {
	Time   time.Time
	Fields map[string]any
}

// NormalizeForecast converts a raw forecast payload into an ordered sequence
// of records. Accepted shapes:
//
//   - a single record object (recognized by a "datetime" key)
//   - a list of record objects
//   - an object embedding a "forecast" list
//   - a one-element list wrapping either object form
//
// The second return value is false when the shape is unrecognized; callers
// log that and treat the cycle as "no data". Malformed list elements are
// skipped, never fatal.
func NormalizeForecast(payload any) ([]ForecastRecord, bool) {
	switch v := payload.(type) {
	case map[string]any:
		if inner, ok := v["forecast"]; ok {
			list, ok := inner.([]any)
			if !ok {
				return nil, false
			}
			return recordsFromList(list), true
		}
		if _, ok := v["datetime"]; ok {
			return []ForecastRecord{newForecastRecord(v)}, true
		}
		return nil, false
	case []any:
		if len(v) == 0 {
			return nil, true
		}
		// Service responses sometimes arrive wrapped in a one-element list.
		if first, ok := v[0].(map[string]any); ok {
			if _, embedded := first["forecast"]; embedded && len(v) == 1 {
				return NormalizeForecast(first)
			}
			return recordsFromList(v), true
		}
		return nil, false
	default:
		return nil, false
	}
}

func recordsFromList(list []any) []ForecastRecord {
	records := make([]ForecastRecord, 0, len(list))
	for _, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, newForecastRecord(fields))
	}
	return records
}

func newForecastRecord(fields map[string]any) ForecastRecord {
	return ForecastRecord{
		Time:   ParseForecastTime(fields["datetime"]),
		Fields: fields,
	}
}

// ParseForecastTime parses an ISO-8601 timestamp value from a forecast
// record. It tolerates a trailing "Z", an explicit offset, or no zone at all
// (treated as UTC). Returns the zero time for anything unparseable; a missing
// timestamp is not an error.
func ParseForecastTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// CoerceNumber attempts numeric coercion of a decoded field value. JSON
// decoding yields float64, YAML yields int, and some weather integrations
// serialize numbers as strings; all are accepted. Returns false for missing
// or non-numeric values.
func CoerceNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
