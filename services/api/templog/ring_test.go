package templog

import (
	"testing"
	"time"
)

func TestRingAppendInvariant(t *testing.T) {
	const capacity = 7
	r := NewRing(capacity, time.Unix(0, 0), 0)

	for i := range 3 * capacity {
		r.Append(Record{Minutes: uint16(i), SensorID: SensorID(i % 5), Scaled: int16(i)})

		wantCount := min(i+1, capacity)
		if r.Len() != wantCount {
			t.Fatalf("after %d appends count = %d, want %d", i+1, r.Len(), wantCount)
		}
		if r.Head() != (r.Tail()+r.Len())%capacity {
			t.Fatalf("after %d appends head=%d tail=%d count=%d", i+1, r.Head(), r.Tail(), r.Len())
		}
	}
}

func TestRingScanChronological(t *testing.T) {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRing(3, epoch, 0)
	for i := range 5 {
		r.Append(Record{Minutes: uint16(i), SensorID: 1, Scaled: int16(i * 100)})
	}

	var got []float64
	for e := range r.Scan(nil, nil) {
		got = append(got, e.Temperature)
	}
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("scan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan = %v, want %v", got, want)
		}
	}
}

func TestRingScanSkipsInvalidAndFilters(t *testing.T) {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRing(10, epoch, 0)
	r.Append(Record{Minutes: 0, SensorID: 0, Scaled: 100})
	r.Append(Record{Minutes: 5, SensorID: 9, Scaled: 200})
	r.Append(Record{Minutes: 10, SensorID: 1, Scaled: 300})

	valid := func(id SensorID) bool { return id < 2 }
	cutoff := epoch.Add(time.Minute)
	keep := func(e Entry) bool { return !e.Timestamp.Before(cutoff) }

	var got []Entry
	for e := range r.Scan(valid, keep) {
		got = append(got, e)
	}
	if len(got) != 1 || got[0].SensorID != 1 || got[0].Temperature != 3 {
		t.Fatalf("scan = %+v, want only sensor 1 at 3.00", got)
	}
	if !got[0].Timestamp.Equal(epoch.Add(10 * time.Minute)) {
		t.Fatalf("timestamp = %v", got[0].Timestamp)
	}
}

func TestRingScanStopsEarly(t *testing.T) {
	r := NewRing(4, time.Unix(0, 0), 0)
	for i := range 4 {
		r.Append(Record{SensorID: SensorID(i)})
	}
	n := 0
	for range r.Scan(nil, nil) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("iterations = %d, want 2", n)
	}
}

func TestRingOverwriteLatestFor(t *testing.T) {
	r := NewRing(10, time.Unix(0, 0), 0)
	r.Append(Record{Minutes: 1, SensorID: 1, Scaled: 100})
	r.Append(Record{Minutes: 2, SensorID: 2, Scaled: 200})
	r.Append(Record{Minutes: 3, SensorID: 1, Scaled: 300})
	r.Append(Record{Minutes: 4, SensorID: 3, Scaled: 400})

	pos := r.OverwriteLatestFor(1, 999)
	if pos != 2 {
		t.Fatalf("overwrite position = %d, want 2", pos)
	}
	rec, _ := decodeRecord(r.slot(2))
	if rec.Scaled != 999 || rec.Minutes != 3 {
		t.Fatalf("slot 2 = %+v, want scaled 999 at minute 3", rec)
	}
	first, _ := decodeRecord(r.slot(0))
	if first.Scaled != 100 {
		t.Fatalf("older record touched: %+v", first)
	}
	if r.Len() != 4 {
		t.Fatalf("count changed to %d", r.Len())
	}

	if pos := r.OverwriteLatestFor(7, 1); pos != -1 {
		t.Fatalf("unknown sensor overwrite = %d, want -1", pos)
	}
}

func TestRingOverwriteSearchLimit(t *testing.T) {
	r := NewRing(100, time.Unix(0, 0), 3)
	r.Append(Record{SensorID: 1, Scaled: 1})
	r.Append(Record{SensorID: 2})
	r.Append(Record{SensorID: 3})
	r.Append(Record{SensorID: 4})

	if pos := r.OverwriteLatestFor(1, 5); pos != -1 {
		t.Fatalf("record beyond search limit was found at %d", pos)
	}

	r.searchLimit = 4
	if pos := r.OverwriteLatestFor(1, 5); pos != 0 {
		t.Fatalf("record within search limit: pos = %d, want 0", pos)
	}
}

func TestRingOverwriteAtRejectsDeadOrForeignSlot(t *testing.T) {
	r := NewRing(2, time.Unix(0, 0), 0)
	if r.OverwriteAt(0, 0, 1) {
		t.Fatal("overwrite of empty ring succeeded")
	}
	r.Append(Record{SensorID: 1})
	if r.OverwriteAt(0, 2, 1) {
		t.Fatal("overwrite of another sensor's slot succeeded")
	}
	if r.OverwriteAt(1, 1, 1) {
		t.Fatal("overwrite of a slot that is not live succeeded")
	}
	if r.OverwriteAt(-1, 1, 1) {
		t.Fatal("overwrite at -1 succeeded")
	}
	if !r.OverwriteAt(0, 1, 1) {
		t.Fatal("overwrite of own live slot failed")
	}
}

func TestRingClear(t *testing.T) {
	r := NewRing(3, time.Unix(0, 0), 0)
	r.Append(Record{SensorID: 1})
	r.Append(Record{SensorID: 2})
	r.Clear()
	if r.Len() != 0 || r.Head() != 0 || r.Tail() != 0 {
		t.Fatalf("after clear head=%d tail=%d count=%d", r.Head(), r.Tail(), r.Len())
	}
	for range r.Scan(nil, nil) {
		t.Fatal("scan yielded after clear")
	}
}
