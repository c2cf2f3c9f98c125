package domain

// Signal extracts one named numeric value from a forecast record and carries
// the metadata used to present it. Implementations never fail: a missing
// field or a value that resists numeric coercion reports absence.
type Signal interface {
	// Extract pulls the signal value from a record. The second return value
	// is false when the field is missing or non-numeric.
	Extract(rec ForecastRecord) (float64, bool)

	// Description is the human-readable signal name used in logs.
	Description() string

	// Unit is the display unit appended to notification messages.
	Unit() string

	// Title is the notification-title fragment for this signal.
	Title() string
}

// fieldSignal reads a single named field from the record. All variants are
// instances of this; the polymorphism is pure metadata plus a field name.
type fieldSignal struct {
	field       string
	description string
	unit        string
	title       string
}

func (s fieldSignal) Extract(rec ForecastRecord) (float64, bool) {
	v, ok := rec.Fields[s.field]
	if !ok {
		return 0, false
	}
	return CoerceNumber(v)
}

func (s fieldSignal) Description() string { return s.description }
func (s fieldSignal) Unit() string        { return s.unit }
func (s fieldSignal) Title() string       { return s.title }

// PrecipitationSignal watches hourly rainfall.
func PrecipitationSignal() Signal {
	return fieldSignal{field: "precipitation", description: "Precipitation", unit: "mm/h", title: "Rain Warning"}
}

// TemperatureSignal watches forecast temperature.
func TemperatureSignal() Signal {
	return fieldSignal{field: "temperature", description: "Temperature", unit: "°C", title: "Temperature Warning"}
}

// WindGustSignal watches forecast wind gust speed.
func WindGustSignal() Signal {
	return fieldSignal{field: "wind_gust_speed", description: "Wind gust speed", unit: "m/s", title: "Wind Warning"}
}

// SignalByName resolves the configuration name of a signal variant.
func SignalByName(name string) (Signal, bool) {
	switch name {
	case "precipitation", "rain":
		return PrecipitationSignal(), true
	case "temperature":
		return TemperatureSignal(), true
	case "wind_gust_speed", "wind":
		return WindGustSignal(), true
	default:
		return nil, false
	}
}
