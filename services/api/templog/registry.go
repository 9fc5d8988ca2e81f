package templog

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned when a new sensor would exceed MaxSensors.
var ErrCapacityExceeded = errors.New("sensor capacity exceeded")

// Registry maps sensor names to dense ids. It is not safe for concurrent use;
// Store serializes access.
type Registry struct {
	names []string
	ids   map[string]SensorID
}

// NewRegistry creates a registry holding at most maxSensors names.
func NewRegistry(maxSensors int) *Registry {
	return &Registry{
		names: make([]string, 0, maxSensors),
		ids:   make(map[string]SensorID, maxSensors),
	}
}

// GetOrCreateID returns the id for name, assigning the next free one on first sight.
func (r *Registry) GetOrCreateID(name string) (SensorID, bool, error) {
	if id, ok := r.ids[name]; ok {
		return id, false, nil
	}
	if len(r.names) == cap(r.names) {
		return 0, false, fmt.Errorf("register %q: %w (max %d)", name, ErrCapacityExceeded, cap(r.names))
	}
	id := SensorID(len(r.names))
	r.names = append(r.names, name)
	r.ids[name] = id
	return id, true, nil
}

// LookupName returns the name registered for id.
func (r *Registry) LookupName(id SensorID) (string, bool) {
	if int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// LookupID returns the id registered for name.
func (r *Registry) LookupID(name string) (SensorID, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// Len is the number of registered sensors.
func (r *Registry) Len() int { return len(r.names) }

// Cap is the maximum number of sensors.
func (r *Registry) Cap() int { return cap(r.names) }

// Names returns registered names in id order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Reset forgets every registration.
func (r *Registry) Reset() {
	clear(r.ids)
	r.names = r.names[:0]
}
