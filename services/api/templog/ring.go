package templog

import (
	"iter"
	"time"
)

// DefaultSearchLimit bounds the backward search in OverwriteLatestFor.
const DefaultSearchLimit = 50

// Entry is a decoded ring slot.
type Entry struct {
	Timestamp   time.Time
	SensorID    SensorID
	Temperature float64
}

// Ring is a fixed-size circular buffer of encoded records. It is not safe for
// concurrent use; Store guards it together with the epoch.
type Ring struct {
	buf         []byte
	capacity    int
	head        int
	tail        int
	count       int
	start       time.Time
	searchLimit int
}

// NewRing allocates capacity slots with the given epoch.
func NewRing(capacity int, epoch time.Time, searchLimit int) *Ring {
	if searchLimit <= 0 {
		searchLimit = DefaultSearchLimit
	}
	return &Ring{
		buf:         make([]byte, capacity*RecordSize),
		capacity:    capacity,
		start:       epoch,
		searchLimit: searchLimit,
	}
}

func (r *Ring) slot(pos int) []byte {
	off := pos * RecordSize
	return r.buf[off : off+RecordSize]
}

// Append writes rec at head and returns the slot it landed in. When the ring
// is full the oldest record is dropped.
func (r *Ring) Append(rec Record) int {
	pos := r.head
	rec.encode(r.slot(pos))
	r.head = (r.head + 1) % r.capacity
	if r.count < r.capacity {
		r.count++
	} else {
		r.tail = (r.tail + 1) % r.capacity
	}
	return pos
}

// live reports whether pos currently holds a record.
func (r *Ring) live(pos int) bool {
	if pos < 0 || pos >= r.capacity {
		return false
	}
	return (pos-r.tail+r.capacity)%r.capacity < r.count
}

// OverwriteAt replaces the temperature stored at pos if the slot is live and
// belongs to id.
func (r *Ring) OverwriteAt(pos int, id SensorID, scaled int16) bool {
	if !r.live(pos) {
		return false
	}
	s := r.slot(pos)
	rec, ok := decodeRecord(s)
	if !ok || rec.SensorID != id {
		return false
	}
	rec.Scaled = scaled
	rec.encode(s)
	return true
}

// OverwriteLatestFor searches backward from head for the most recent record of
// id, looking at no more than the search limit, and replaces its temperature.
// It returns the slot that was rewritten, or -1.
func (r *Ring) OverwriteLatestFor(id SensorID, scaled int16) int {
	limit := min(r.count, r.searchLimit)
	pos := (r.head - 1 + r.capacity) % r.capacity
	for range limit {
		if r.OverwriteAt(pos, id, scaled) {
			return pos
		}
		pos = (pos - 1 + r.capacity) % r.capacity
	}
	return -1
}

// Scan yields every live record from tail to head that passes keep, decoded
// against the current epoch. Slots for which valid returns false are skipped.
func (r *Ring) Scan(valid func(SensorID) bool, keep func(Entry) bool) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		pos := r.tail
		for range r.count {
			rec, ok := decodeRecord(r.slot(pos))
			pos = (pos + 1) % r.capacity
			if !ok || (valid != nil && !valid(rec.SensorID)) {
				continue
			}
			e := Entry{
				Timestamp:   rec.Timestamp(r.start),
				SensorID:    rec.SensorID,
				Temperature: rec.Celsius(),
			}
			if keep != nil && !keep(e) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// RebaseEpoch moves the epoch to now. Stored records keep their raw offsets.
func (r *Ring) RebaseEpoch(now time.Time) {
	r.start = now
}

// Epoch is the current time reference.
func (r *Ring) Epoch() time.Time { return r.start }

// Clear drops every record without touching the epoch.
func (r *Ring) Clear() {
	r.head, r.tail, r.count = 0, 0, 0
	clear(r.buf)
}

func (r *Ring) Len() int { return r.count }
func (r *Ring) Cap() int { return r.capacity }
func (r *Ring) Head() int { return r.head }
func (r *Ring) Tail() int { return r.tail }
func (r *Ring) Bytes() int { return len(r.buf) }
func (r *Ring) Full() bool { return r.count == r.capacity }
