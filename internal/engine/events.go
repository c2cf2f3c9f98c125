package engine

import (
	"context"
	"time"
)

// NotificationEvent is the audit record published after each successful
// dispatch. ForecastTime is zero when the triggering record carried no
// timestamp.
type NotificationEvent struct {
	Alarm        string    `json:"alarm"`
	Signal       string    `json:"signal"`
	Recipient    string    `json:"recipient"`
	BandMessage  string    `json:"band_message"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	ForecastTime time.Time `json:"forecast_time,omitzero"`
	SentAt       time.Time `json:"sent_at"`
}

// EventPublisher receives dispatched-notification events. Publishing is best
// effort: the engine logs failures and moves on, it never blocks or retries
// a notification over them.
type EventPublisher interface {
	Publish(ctx context.Context, ev NotificationEvent) error
}
