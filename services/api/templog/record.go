package templog

import (
	"encoding/binary"
	"math"
	"time"
)

// RecordSize is the encoded size of one ring slot.
const RecordSize = 5

// maxRelativeMinutes is the largest offset a record can hold (~45.5 days).
const maxRelativeMinutes = math.MaxUint16

// SensorID is the compact handle assigned by the Registry.
type SensorID uint8

// Record is the binary tuple stored in each ring slot.
type Record struct {
	Minutes  uint16
	SensorID SensorID
	Scaled   int16
}

// ScaleTemperature converts Celsius to hundredths, truncating toward zero and
// saturating at the int16 range.
func ScaleTemperature(celsius float64) int16 {
	v := math.Trunc(celsius * 100)
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}
	return int16(v)
}

// Celsius returns the stored temperature.
func (r Record) Celsius() float64 {
	return float64(r.Scaled) / 100
}

// Timestamp resolves the record against the given epoch.
func (r Record) Timestamp(epoch time.Time) time.Time {
	return epoch.Add(time.Duration(r.Minutes) * time.Minute)
}

// encode writes r into dst using the little endian <HBh layout.
func (r Record) encode(dst []byte) {
	_ = dst[RecordSize-1]
	binary.LittleEndian.PutUint16(dst[0:2], r.Minutes)
	dst[2] = byte(r.SensorID)
	binary.LittleEndian.PutUint16(dst[3:5], uint16(r.Scaled))
}

func decodeRecord(src []byte) (Record, bool) {
	if len(src) < RecordSize {
		return Record{}, false
	}
	return Record{
		Minutes:  binary.LittleEndian.Uint16(src[0:2]),
		SensorID: SensorID(src[2]),
		Scaled:   int16(binary.LittleEndian.Uint16(src[3:5])),
	}, true
}

// relativeMinutes returns whole minutes between epoch and now, and false when
// the value does not fit in 16 bits.
func relativeMinutes(epoch, now time.Time) (uint16, bool) {
	d := now.Sub(epoch)
	if d < 0 {
		return 0, true
	}
	m := int64(d / time.Minute)
	if m > maxRelativeMinutes {
		return 0, false
	}
	return uint16(m), true
}
