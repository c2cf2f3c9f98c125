// Package domain models weather-alarm configuration and forecast data.
//
// # Alarm model
//
// An alarm watches exactly one numeric forecast signal (precipitation,
// temperature, or wind gust speed) against an ordered table of half-open
// numeric bands. Each band carries a message and a cooldown period:
//
//	lower <= value < upper  →  band matches
//
// Evaluation is first-match-wins in table order. Bands should be disjoint,
// but overlap is not rejected; list order resolves it. This mirrors the
// configuration surface of the original deployments, e.g.:
//
//	bands:
//	  - lower: 10
//	    upper: 20
//	    message: "Lite blåsigt"
//	    cooldown_seconds: 86400
//	  - lower: 40
//	    upper: 1000
//	    message: "STORM VARNING!"
//	    cooldown_seconds: 3600
//
// # Forecast payloads
//
// Forecast data arrives as decoded JSON of no fixed shape. The weather
// service may return a single record, a list of records, or a wrapper object
// embedding a "forecast" list; all three are accepted by [NormalizeForecast].
// Record timestamps live in a "datetime" field as ISO-8601 text, with or
// without a trailing "Z". A record with no parseable timestamp is still
// usable; notifications simply omit the time annotation.
//
// Numeric signal values may arrive as JSON numbers or as numeric strings,
// depending on the weather integration. [Signal] implementations coerce both
// and report absence rather than failing.
package domain
