package templog

import "time"

// Reading is one decoded sensor report handed to Store.Record.
type Reading struct {
	Sensor      string   `json:"sensor"`
	Temperature float64  `json:"temperature"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Battery     *float64 `json:"battery,omitempty"`
	RSSI        *int     `json:"rssi,omitempty"`
	Voltage     *float64 `json:"voltage,omitempty"`
	Power       *float64 `json:"power,omitempty"`
}

// Snapshot is the latest full telemetry for one sensor.
type Snapshot struct {
	SensorID    SensorID  `json:"sensor_id"`
	Sensor      string    `json:"sensor"`
	Temperature float64   `json:"temperature"`
	Humidity    *float64  `json:"humidity,omitempty"`
	Battery     *float64  `json:"battery,omitempty"`
	RSSI        *int      `json:"rssi,omitempty"`
	Voltage     *float64  `json:"voltage,omitempty"`
	Power       *float64  `json:"power,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	AgeMinutes  float64   `json:"age_minutes"`
}

type detailSlot struct {
	set  bool
	snap Snapshot
}

// detailTable holds one snapshot per sensor id.
type detailTable struct {
	slots []detailSlot
}

func newDetailTable(maxSensors int) *detailTable {
	return &detailTable{slots: make([]detailSlot, maxSensors)}
}

func (d *detailTable) update(id SensorID, r Reading, now time.Time) {
	d.slots[id] = detailSlot{
		set: true,
		snap: Snapshot{
			SensorID:    id,
			Sensor:      r.Sensor,
			Temperature: r.Temperature,
			Humidity:    copyPtr(r.Humidity),
			Battery:     copyPtr(r.Battery),
			RSSI:        copyPtr(r.RSSI),
			Voltage:     copyPtr(r.Voltage),
			Power:       copyPtr(r.Power),
			UpdatedAt:   now,
		},
	}
}

func (d *detailTable) get(id SensorID) (Snapshot, bool) {
	if int(id) >= len(d.slots) || !d.slots[id].set {
		return Snapshot{}, false
	}
	return d.slots[id].snap, true
}

func (d *detailTable) count(n int) int {
	c := 0
	for i := range n {
		if d.slots[i].set {
			c++
		}
	}
	return c
}

func (d *detailTable) reset() {
	clear(d.slots)
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
