// Package engine implements the threshold-notification engine: it scans
// forecast data for one alarm, matches values against the alarm's band
// table, and dispatches cooldown- and rate-limited notifications.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-alarm-service/internal/domain"
	"github.com/couchcryptid/weather-alarm-service/internal/observability"
)

const (
	// forecastGranularity is the forecast type requested from the weather
	// service on every scan.
	forecastGranularity = "hourly"

	// maxMessageLength caps composed notification messages; longer text is
	// cut off with an ellipsis.
	maxMessageLength = 1000

	// cooldownRetention is how long stale cooldown entries survive before
	// the daily housekeeping tick drops them.
	cooldownRetention = 7 * 24 * time.Hour
)

// ForecastService fetches the raw forecast payload for a device. The payload
// is decoded JSON of no fixed shape; it may be nil, and the call may fail.
// The engine tolerates both.
type ForecastService interface {
	GetForecast(ctx context.Context, deviceID, granularity string) (any, error)
}

// Notifier delivers one notification to one recipient target.
type Notifier interface {
	Notify(ctx context.Context, target, title, message string) error
}

// Registrar is the scheduling surface the engine registers its callbacks
// with. The implementation must invoke callbacks one at a time.
type Registrar interface {
	RunOnce(ctx context.Context, name string, fn func(context.Context))
	RunEvery(ctx context.Context, name string, every time.Duration, fn func(context.Context))
	RunDaily(ctx context.Context, name, timeOfDay string, fn func(context.Context))
}

// Alarm is one threshold-notification engine instance. Each instance owns
// its cooldown store and rate limiter exclusively; nothing is shared between
// alarms.
type Alarm struct {
	cfg      domain.AlarmConfig
	forecast ForecastService
	notifier Notifier
	events   EventPublisher // nil disables audit events

	cooldown *CooldownStore
	rate     *RateLimiter

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates an alarm engine from a validated config. Pass a nil events
// publisher to disable the audit stream.
func New(cfg domain.AlarmConfig, forecast ForecastService, notifier Notifier, events EventPublisher,
	clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Alarm {
	return &Alarm{
		cfg:      cfg,
		forecast: forecast,
		notifier: notifier,
		events:   events,
		cooldown: NewCooldownStore(),
		rate:     NewRateLimiter(cfg.MinSendInterval),
		clock:    clock,
		logger:   logger.With("alarm", cfg.Name),
		metrics:  metrics,
	}
}

// Name returns the alarm's display name.
func (a *Alarm) Name() string { return a.cfg.Name }

// CheckReadiness returns nil once the alarm has completed at least one scan
// that yielded usable forecast data.
func (a *Alarm) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return fmt.Errorf("alarm %q has not completed a scan yet", a.cfg.Name)
	}
	return nil
}

// Register binds the alarm's callbacks to the scheduler: an immediate
// startup-message pass, an immediate first scan, the recurring scan schedule
// per the configured policy, and the daily cooldown-pruning tick. Under the
// daily policy, recipient times are deduplicated so a time shared by several
// recipients registers once.
func (a *Alarm) Register(ctx context.Context, reg Registrar) {
	reg.RunOnce(ctx, a.cfg.Name+" startup", a.SendStartupMessages)
	reg.RunOnce(ctx, a.cfg.Name+" scan", a.Scan)

	switch a.cfg.Schedule.Mode {
	case domain.ScheduleDaily:
		seen := make(map[string]bool, len(a.cfg.Recipients))
		for _, r := range a.cfg.Recipients {
			if seen[r.TimeOfDay] {
				continue
			}
			seen[r.TimeOfDay] = true
			reg.RunDaily(ctx, a.cfg.Name+" scan", r.TimeOfDay, a.Scan)
		}
	default:
		reg.RunEvery(ctx, a.cfg.Name+" scan", a.cfg.Schedule.Interval, a.Scan)
	}

	reg.RunDaily(ctx, a.cfg.Name+" prune", a.cfg.Schedule.PruneAt, a.PruneCooldowns)
}

// Scan runs one fetch-extract-match-dispatch pass over the current forecast.
// Every failure mode degrades to "no notifications this cycle"; the next
// scheduled scan starts fresh.
func (a *Alarm) Scan(ctx context.Context) {
	a.logger.Info("checking weather forecast", "device_id", a.cfg.DeviceID)
	a.metrics.Scans.WithLabelValues(a.cfg.Name).Inc()

	start := a.clock.Now()
	payload, err := a.forecast.GetForecast(ctx, a.cfg.DeviceID, forecastGranularity)
	a.metrics.FetchDuration.WithLabelValues(a.cfg.Name).Observe(a.clock.Since(start).Seconds())
	if err != nil {
		a.logger.Error("forecast fetch failed", "error", err)
		a.metrics.FetchErrors.WithLabelValues(a.cfg.Name).Inc()
		return
	}
	if payload == nil {
		a.logger.Warn("no response from weather service")
		a.metrics.FetchErrors.WithLabelValues(a.cfg.Name).Inc()
		return
	}

	records, ok := domain.NormalizeForecast(payload)
	if !ok {
		a.logger.Warn("could not extract forecast data from response")
		a.metrics.FetchErrors.WithLabelValues(a.cfg.Name).Inc()
		return
	}

	for _, rec := range records {
		a.checkRecord(ctx, rec)
	}
	a.ready.Store(true)
}

// PruneCooldowns ages out cooldown entries older than the retention window.
func (a *Alarm) PruneCooldowns(_ context.Context) {
	before := a.cooldown.Len()
	a.cooldown.Prune(a.clock.Now(), cooldownRetention)
	if dropped := before - a.cooldown.Len(); dropped > 0 {
		a.logger.Info("pruned stale cooldown entries", "dropped", dropped)
	}
}

// SendStartupMessages sends the one-time "now active" message to each
// recipient that opted in. Runs outside the scan loop and does not touch
// cooldown or rate-limit state; failures are logged and not retried.
func (a *Alarm) SendStartupMessages(ctx context.Context) {
	title := fmt.Sprintf("%s - %s", a.cfg.Name, a.cfg.Signal.Title())
	message := fmt.Sprintf("%s alarm active, monitoring %s", a.cfg.Name, strings.ToLower(a.cfg.Signal.Description()))

	for _, r := range a.cfg.Recipients {
		if !r.StartupMessage {
			continue
		}
		if err := a.notifier.Notify(ctx, r.Target, title, message); err != nil {
			a.logger.Warn("startup message failed", "recipient", r.Target, "error", err)
			continue
		}
		a.logger.Info("startup message sent", "recipient", r.Target)
	}
}

func (a *Alarm) checkRecord(ctx context.Context, rec domain.ForecastRecord) {
	value, ok := a.cfg.Signal.Extract(rec)
	if !ok {
		a.metrics.RecordsSkipped.WithLabelValues(a.cfg.Name, "missing").Inc()
		return
	}

	if value < a.cfg.SaneMin || value > a.cfg.SaneMax {
		a.logger.Info("forecast value outside sane bounds, skipping",
			"value", value, "min", a.cfg.SaneMin, "max", a.cfg.SaneMax)
		a.metrics.RecordsSkipped.WithLabelValues(a.cfg.Name, "out_of_range").Inc()
		return
	}

	band, ok := a.cfg.Bands.Match(value)
	if !ok {
		return
	}

	a.logger.Info("forecast value triggers band",
		"signal", a.cfg.Signal.Description(),
		"value", value,
		"unit", a.cfg.Signal.Unit(),
		"band", band.Message)
	a.dispatch(ctx, band, value, rec.Time)
}

// dispatch sends the band's notification to every recipient that both the
// cooldown store and the rate limiter permit. Stores are only updated after
// a successful send, so blocked and failed sends retry on the next scan.
func (a *Alarm) dispatch(ctx context.Context, band domain.Band, value float64, forecastTime time.Time) {
	now := a.clock.Now()
	message := composeMessage(band.Message, value, a.cfg.Signal.Unit(), forecastTime)
	title := fmt.Sprintf("%s - %s", a.cfg.Name, a.cfg.Signal.Title())

	for _, r := range a.cfg.Recipients {
		if !a.cooldown.Elapsed(r.Target, band.Message, band.Cooldown, now) {
			a.logger.Info("cooldown active, suppressing notification",
				"recipient", r.Target,
				"band", band.Message,
				"remaining", a.cooldown.Remaining(r.Target, band.Message, band.Cooldown, now))
			a.metrics.NotificationsSuppressed.WithLabelValues(a.cfg.Name, "cooldown").Inc()
			continue
		}

		if !a.rate.Allowed(r.Target, now) {
			// Intentionally no cooldown update: the next scan retries.
			a.logger.Info("rate limit active, suppressing notification",
				"recipient", r.Target, "band", band.Message)
			a.metrics.NotificationsSuppressed.WithLabelValues(a.cfg.Name, "rate_limit").Inc()
			continue
		}

		if err := a.notifier.Notify(ctx, r.Target, title, message); err != nil {
			a.logger.Error("notification send failed",
				"recipient", r.Target, "band", band.Message, "error", err)
			a.metrics.SendErrors.WithLabelValues(a.cfg.Name).Inc()
			continue
		}

		a.cooldown.Record(r.Target, band.Message, now)
		a.rate.Record(r.Target, now)
		a.metrics.NotificationsSent.WithLabelValues(a.cfg.Name).Inc()
		a.logger.Info("notification sent", "recipient", r.Target, "band", band.Message)

		a.publishEvent(ctx, r.Target, band, value, forecastTime, now)
	}
}

func (a *Alarm) publishEvent(ctx context.Context, recipient string, band domain.Band, value float64, forecastTime, sentAt time.Time) {
	if a.events == nil {
		return
	}
	ev := NotificationEvent{
		Alarm:        a.cfg.Name,
		Signal:       a.cfg.Signal.Description(),
		Recipient:    recipient,
		BandMessage:  band.Message,
		Value:        value,
		Unit:         a.cfg.Signal.Unit(),
		ForecastTime: forecastTime,
		SentAt:       sentAt,
	}
	if err := a.events.Publish(ctx, ev); err != nil {
		a.logger.Warn("notification event publish failed", "error", err)
		a.metrics.EventPublishErrors.Inc()
	}
}

// composeMessage renders "{band message} ({value} {unit})" with the value at
// one decimal, appends the forecast time when known, and truncates the
// result to the maximum notification length.
func composeMessage(bandMessage string, value float64, unit string, forecastTime time.Time) string {
	message := fmt.Sprintf("%s (%.1f %s)", bandMessage, value, unit)
	if !forecastTime.IsZero() {
		message += "\nForecast time: " + forecastTime.Format("2006-01-02 15:04")
	}
	return truncateMessage(message, maxMessageLength)
}

func truncateMessage(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
