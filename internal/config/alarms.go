package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/weather-alarm-service/internal/domain"
)

// Alarm-level defaults applied when the YAML omits a field.
const (
	defaultTimeOfDay       = "18:15"
	defaultPruneAt         = "02:00"
	defaultScanInterval    = 6 * time.Hour
	defaultCooldownSeconds = 86400
	defaultSaneMin         = -100
	defaultSaneMax         = 1000
)

// Verdict is the per-alarm outcome of parsing the definitions file. A
// rejected alarm carries its reason; the rest of the file is unaffected.
type Verdict struct {
	Index    int
	Name     string
	Config   domain.AlarmConfig
	Err      error
	Warnings []string
}

type rawAlarmsFile struct {
	// Decoded lazily so a type error in one alarm rejects only that alarm.
	Alarms []yaml.Node `yaml:"alarms"`
}

type rawAlarm struct {
	Name                   string           `yaml:"name"`
	Signal                 string           `yaml:"signal"`
	DeviceID               string           `yaml:"device_id"`
	Recipients             rawRecipientList `yaml:"recipients"`
	Bands                  []rawBand        `yaml:"bands"`
	MinSendIntervalSeconds *float64         `yaml:"min_send_interval_seconds"`
	SaneMin                *float64         `yaml:"sane_min"`
	SaneMax                *float64         `yaml:"sane_max"`
	Schedule               rawSchedule      `yaml:"schedule"`
}

type rawSchedule struct {
	Mode            string   `yaml:"mode"`
	IntervalSeconds *float64 `yaml:"interval_seconds"`
	PruneAt         string   `yaml:"prune_at"`
}

type rawRecipient struct {
	NotificationTarget string `yaml:"notification_target"`
	Name               string `yaml:"name"`
	StartupMessage     *bool  `yaml:"startup_message"`
	TimeOfDay          string `yaml:"time_of_day"`
}

// UnmarshalYAML accepts the shorthand where a recipient is a bare scalar
// naming the notification target.
func (r *rawRecipient) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var target string
		if err := node.Decode(&target); err != nil {
			return err
		}
		*r = rawRecipient{NotificationTarget: target}
		return nil
	}
	type plain rawRecipient
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = rawRecipient(p)
	return nil
}

type rawRecipientList []rawRecipient

// UnmarshalYAML promotes a single scalar or mapping to a one-element list.
func (l *rawRecipientList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var rs []rawRecipient
		if err := node.Decode(&rs); err != nil {
			return err
		}
		*l = rs
		return nil
	}
	var r rawRecipient
	if err := node.Decode(&r); err != nil {
		return err
	}
	*l = rawRecipientList{r}
	return nil
}

type rawBand struct {
	Lower           *float64 `yaml:"lower"`
	Upper           *float64 `yaml:"upper"`
	Message         string   `yaml:"message"`
	CooldownSeconds *float64 `yaml:"cooldown_seconds"`
}

// ParseAlarmsFile reads the alarm definitions file and returns one Verdict
// per alarm entry. Only an unreadable or structurally invalid file is a hard
// error; individual alarm problems are reported in their Verdict.
func ParseAlarmsFile(path string) ([]Verdict, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alarms file: %w", err)
	}

	var file rawAlarmsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse alarms file: %w", err)
	}
	if len(file.Alarms) == 0 {
		return nil, errors.New("alarms file defines no alarms")
	}

	verdicts := make([]Verdict, 0, len(file.Alarms))
	for i, node := range file.Alarms {
		verdicts = append(verdicts, buildAlarm(i, node))
	}
	return verdicts, nil
}

// LoadAlarms parses the definitions file and returns the alarms that
// validated, logging a warning for each rejection. Rejected alarms stay
// inert; they never stop the service from starting.
func LoadAlarms(path string, logger *slog.Logger) ([]domain.AlarmConfig, error) {
	verdicts, err := ParseAlarmsFile(path)
	if err != nil {
		return nil, err
	}

	var configs []domain.AlarmConfig
	for _, v := range verdicts {
		if v.Err != nil {
			logger.Warn("alarm definition rejected",
				"index", v.Index, "alarm", v.Name, "error", v.Err)
			continue
		}
		for _, w := range v.Warnings {
			logger.Warn("alarm definition warning", "alarm", v.Name, "warning", w)
		}
		configs = append(configs, v.Config)
	}
	return configs, nil
}

func buildAlarm(index int, node yaml.Node) Verdict {
	var raw rawAlarm
	if err := node.Decode(&raw); err != nil {
		return Verdict{Index: index, Err: fmt.Errorf("decode alarm %d: %w", index, err)}
	}

	v := Verdict{Index: index, Name: raw.Name}

	signal, ok := domain.SignalByName(raw.Signal)
	if !ok {
		v.Err = fmt.Errorf("unknown signal %q", raw.Signal)
		return v
	}
	if v.Name == "" {
		v.Name = signal.Description()
	}

	if raw.DeviceID == "" {
		v.Err = errors.New("device_id is required")
		return v
	}

	recipients, err := buildRecipients(raw.Recipients)
	if err != nil {
		v.Err = err
		return v
	}

	bands, err := buildBands(raw.Bands)
	if err != nil {
		v.Err = err
		return v
	}

	minSendInterval := time.Duration(0)
	if raw.MinSendIntervalSeconds != nil {
		if *raw.MinSendIntervalSeconds < 0 {
			v.Err = errors.New("min_send_interval_seconds must not be negative")
			return v
		}
		minSendInterval = time.Duration(*raw.MinSendIntervalSeconds * float64(time.Second))
	}

	saneMin, saneMax := float64(defaultSaneMin), float64(defaultSaneMax)
	if raw.SaneMin != nil {
		saneMin = *raw.SaneMin
	}
	if raw.SaneMax != nil {
		saneMax = *raw.SaneMax
	}
	if saneMin >= saneMax {
		v.Err = fmt.Errorf("sane bounds [%v, %v] are empty", saneMin, saneMax)
		return v
	}

	schedule, err := buildSchedule(raw.Schedule)
	if err != nil {
		v.Err = err
		return v
	}

	v.Config = domain.AlarmConfig{
		Name:            v.Name,
		DeviceID:        raw.DeviceID,
		Signal:          signal,
		Recipients:      recipients,
		Bands:           bands,
		MinSendInterval: minSendInterval,
		SaneMin:         saneMin,
		SaneMax:         saneMax,
		Schedule:        schedule,
	}
	v.Warnings = bands.Overlaps()
	return v
}

func buildRecipients(raws rawRecipientList) ([]domain.Recipient, error) {
	if len(raws) == 0 {
		return nil, errors.New("at least one recipient is required")
	}

	recipients := make([]domain.Recipient, 0, len(raws))
	for i, raw := range raws {
		target := raw.NotificationTarget
		if target == "" {
			target = raw.Name
		}
		if target == "" {
			return nil, fmt.Errorf("recipient %d has no notification_target or name", i)
		}

		timeOfDay := raw.TimeOfDay
		if timeOfDay == "" {
			timeOfDay = defaultTimeOfDay
		}
		if _, _, err := domain.ParseTimeOfDay(timeOfDay); err != nil {
			return nil, fmt.Errorf("recipient %d: %w", i, err)
		}

		startup := true
		if raw.StartupMessage != nil {
			startup = *raw.StartupMessage
		}

		recipients = append(recipients, domain.Recipient{
			Target:         target,
			StartupMessage: startup,
			TimeOfDay:      timeOfDay,
		})
	}
	return recipients, nil
}

func buildBands(raws []rawBand) (domain.BandTable, error) {
	if len(raws) == 0 {
		return nil, errors.New("at least one band is required")
	}

	bands := make(domain.BandTable, 0, len(raws))
	for i, raw := range raws {
		lower, upper := 0.0, math.Inf(1)
		if raw.Lower != nil {
			lower = *raw.Lower
		}
		if raw.Upper != nil {
			upper = *raw.Upper
		}

		cooldown := float64(defaultCooldownSeconds)
		if raw.CooldownSeconds != nil {
			if *raw.CooldownSeconds < 0 {
				return nil, fmt.Errorf("band %d: cooldown_seconds must not be negative", i)
			}
			cooldown = *raw.CooldownSeconds
		}

		bands = append(bands, domain.Band{
			Lower:    lower,
			Upper:    upper,
			Message:  raw.Message,
			Cooldown: time.Duration(cooldown * float64(time.Second)),
		})
	}

	if err := bands.Validate(); err != nil {
		return nil, err
	}
	return bands, nil
}

func buildSchedule(raw rawSchedule) (domain.SchedulePolicy, error) {
	mode := domain.ScheduleMode(raw.Mode)
	if raw.Mode == "" {
		mode = domain.ScheduleInterval
	}
	if mode != domain.ScheduleInterval && mode != domain.ScheduleDaily {
		return domain.SchedulePolicy{}, fmt.Errorf("unknown schedule mode %q", raw.Mode)
	}

	interval := defaultScanInterval
	if raw.IntervalSeconds != nil {
		if *raw.IntervalSeconds <= 0 {
			return domain.SchedulePolicy{}, errors.New("interval_seconds must be positive")
		}
		interval = time.Duration(*raw.IntervalSeconds * float64(time.Second))
	}

	pruneAt := raw.PruneAt
	if pruneAt == "" {
		pruneAt = defaultPruneAt
	}
	if _, _, err := domain.ParseTimeOfDay(pruneAt); err != nil {
		return domain.SchedulePolicy{}, fmt.Errorf("prune_at: %w", err)
	}

	return domain.SchedulePolicy{Mode: mode, Interval: interval, PruneAt: pruneAt}, nil
}
