package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/thermolog/thermolog/services/collector/internal/aliases"
	"github.com/thermolog/thermolog/services/collector/internal/models"
)

// Plausible range for the cheap BLE thermometers the gateway relays.
const (
	minCelsius = -60.0
	maxCelsius = 100.0
)

// BuildReadings converts gateway devices into API readings. Devices without
// a usable temperature, excluded by the alias table, or last heard longer than
// maxAge before now are dropped. A zero last_seen or maxAge disables the age check.
func BuildReadings(devices []models.Device, names aliases.Table, now time.Time, maxAge time.Duration) []models.Reading {
	out := make([]models.Reading, 0, len(devices))
	for _, d := range devices {
		if maxAge > 0 && d.LastSeen > 0 && now.Sub(time.Unix(d.LastSeen, 0)) > maxAge {
			continue
		}
		temp := normalizeCelsius(d.Temperature)
		if temp == nil {
			continue
		}
		addr := strings.TrimSpace(d.Address)
		if addr == "" {
			addr = strings.TrimSpace(d.Name)
		}
		if addr == "" {
			continue
		}
		name, keep := names.Resolve(addr)
		if !keep {
			continue
		}
		out = append(out, models.Reading{
			Sensor:      name,
			Temperature: *temp,
			Humidity:    NormalizeValue(d.Humidity),
			Battery:     NormalizeValue(d.Battery),
			RSSI:        d.RSSI,
			Voltage:     NormalizeValue(d.Voltage),
			Power:       NormalizeValue(d.Power),
		})
	}
	return out
}

// NormalizeValue cleans raw sensor values; -999 sentinel -> nil.
func NormalizeValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || *v <= -900 {
		return nil
	}
	val := *v
	return &val
}

// normalizeCelsius additionally rejects temperatures outside the plausible
// range, which the gateway emits for half-decoded advertisements.
func normalizeCelsius(v *float64) *float64 {
	t := NormalizeValue(v)
	if t == nil || *t < minCelsius || *t > maxCelsius {
		return nil
	}
	return t
}

// FilterChanged selects readings worth forwarding: new sensors, changed
// values, and unchanged values once resend has elapsed.
func FilterChanged(
	readings []models.Reading,
	last map[string]models.LastSent,
	resend time.Duration,
	epsilon float64,
	now time.Time,
) []models.Reading {
	out := make([]models.Reading, 0, len(readings))
	for _, r := range readings {
		prev, ok := last[r.Sensor]
		if !ok {
			out = append(out, r)
			continue
		}

		if now.Sub(prev.TS) >= resend {
			out = append(out, r)
			continue
		}

		if !ValuesEqual(&prev.Temperature, &r.Temperature, epsilon) {
			out = append(out, r)
		}
	}
	return out
}

// MarkSent records readings as forwarded at now.
func MarkSent(last map[string]models.LastSent, readings []models.Reading, now time.Time) {
	for _, r := range readings {
		last[r.Sensor] = models.LastSent{Temperature: r.Temperature, TS: now}
	}
}

// ValuesEqual compares two optional float values with tolerance.
func ValuesEqual(a, b *float64, epsilon float64) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return math.Abs(*a-*b) <= epsilon
	}
}

// ValuePtrString prints pointer values for logging.
func ValuePtrString(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%.2f", *v)
}
