// Package dht reads a locally wired DHT22 as one more sensor.
package dht

import (
	"fmt"
	"sync"

	godht "github.com/MichaelS11/go-dht"

	"github.com/thermolog/thermolog/services/collector/internal/models"
)

const readRetries = 11

var hostOnce sync.Once
var hostErr error

// Source wraps a DHT22 on a GPIO pin.
type Source struct {
	name   string
	sensor *godht.DHT
}

// New initializes the host GPIO driver once and opens the sensor on pin
// (for example "GPIO4").
func New(pin, name string) (*Source, error) {
	hostOnce.Do(func() { hostErr = godht.HostInit() })
	if hostErr != nil {
		return nil, fmt.Errorf("gpio host init: %w", hostErr)
	}

	sensor, err := godht.NewDHT(pin, godht.Celsius, "")
	if err != nil {
		return nil, fmt.Errorf("open dht on %s: %w", pin, err)
	}
	return &Source{name: name, sensor: sensor}, nil
}

// Name returns the sensor name readings are reported under.
func (s *Source) Name() string { return s.name }

// Read returns one reading, retrying the flaky one-wire protocol.
func (s *Source) Read() (models.Reading, error) {
	humidity, temperature, err := s.sensor.ReadRetry(readRetries)
	if err != nil {
		return models.Reading{}, fmt.Errorf("read %s: %w", s.name, err)
	}
	return models.Reading{
		Sensor:      s.name,
		Temperature: temperature,
		Humidity:    &humidity,
	}, nil
}
