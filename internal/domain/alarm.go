package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ScheduleMode selects how scans are scheduled for an alarm.
type ScheduleMode string

const (
	// ScheduleInterval runs a scan once at startup and then at a fixed interval.
	ScheduleInterval ScheduleMode = "interval"
	// ScheduleDaily runs a scan once at startup and then once per day at each
	// distinct recipient time-of-day.
	ScheduleDaily ScheduleMode = "daily"
)

// SchedulePolicy describes when an alarm's scan loop runs. PruneAt is the
// daily housekeeping tick (HH:MM) that ages out stale cooldown entries,
// independent of the scan schedule.
type SchedulePolicy struct {
	Mode     ScheduleMode
	Interval time.Duration
	PruneAt  string
}

// Recipient is one notification target.
type Recipient struct {
	// Target keys the cooldown and rate-limit stores and addresses the
	// notification service. Duplicated targets share state.
	Target string
	// StartupMessage enables the one-time "now active" message.
	StartupMessage bool
	// TimeOfDay is the daily scan time ("HH:MM") under ScheduleDaily.
	TimeOfDay string
}

// AlarmConfig is the validated, immutable configuration of one alarm
// instance. Construction goes through the config package; engine code treats
// it as read-only.
type AlarmConfig struct {
	Name       string
	DeviceID   string
	Signal     Signal
	Recipients []Recipient
	Bands      BandTable

	// MinSendInterval is the global per-recipient spacing between any two
	// notifications, regardless of band.
	MinSendInterval time.Duration

	// SaneMin and SaneMax bound plausible signal values; readings outside
	// are treated as bad upstream data and skipped.
	SaneMin float64
	SaneMax float64

	Schedule SchedulePolicy
}

// ParseTimeOfDay parses an "HH:MM" clock time with hour 0-23 and minute 0-59.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("time of day %q must be HH:MM", s)
	}
	hour, errH := strconv.Atoi(parts[0])
	minute, errM := strconv.Atoi(parts[1])
	if errH != nil || errM != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("time of day %q must be HH:MM with hour 0-23 and minute 0-59", s)
	}
	return hour, minute, nil
}
