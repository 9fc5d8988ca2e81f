package templog

import (
	"math"
	"testing"
	"time"
)

func TestRecordRoundTrip(t *testing.T) {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		minutes uint16
		id      SensorID
		temp    float64
	}{
		{0, 0, 21.5},
		{1, 7, -12.34},
		{65535, 255, 99.99},
		{300, 42, 0.01},
		{12, 3, -0.5},
	}

	for _, tc := range cases {
		rec := Record{Minutes: tc.minutes, SensorID: tc.id, Scaled: ScaleTemperature(tc.temp)}
		buf := make([]byte, RecordSize)
		rec.encode(buf)

		got, ok := decodeRecord(buf)
		if !ok {
			t.Fatalf("decode failed for %+v", tc)
		}
		if got.SensorID != tc.id {
			t.Errorf("sensor id = %d, want %d", got.SensorID, tc.id)
		}
		if got.Minutes != tc.minutes {
			t.Errorf("minutes = %d, want %d", got.Minutes, tc.minutes)
		}
		if diff := math.Abs(got.Celsius() - tc.temp); diff > 0.01+1e-9 {
			t.Errorf("temperature = %v, want %v (diff %v)", got.Celsius(), tc.temp, diff)
		}
		want := epoch.Add(time.Duration(tc.minutes) * time.Minute)
		if !got.Timestamp(epoch).Equal(want) {
			t.Errorf("timestamp = %v, want %v", got.Timestamp(epoch), want)
		}
	}
}

func TestRecordLayout(t *testing.T) {
	buf := make([]byte, RecordSize)
	Record{Minutes: 0x0102, SensorID: 0x03, Scaled: -2}.encode(buf)
	want := []byte{0x02, 0x01, 0x03, 0xfe, 0xff}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("encoded = % x, want % x", buf, want)
		}
	}
}

func TestDecodeShortSlot(t *testing.T) {
	if _, ok := decodeRecord([]byte{1, 2, 3}); ok {
		t.Fatal("expected short slot to be rejected")
	}
}

func TestScaleTemperature(t *testing.T) {
	cases := []struct {
		in   float64
		want int16
	}{
		{21.5, 2150},
		{-5.25, -525},
		{0.009, 0},
		{-0.009, 0},
		{400, math.MaxInt16},
		{-400, math.MinInt16},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := ScaleTemperature(tc.in); got != tc.want {
			t.Errorf("ScaleTemperature(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestRelativeMinutes(t *testing.T) {
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if m, ok := relativeMinutes(epoch, epoch.Add(90*time.Second)); !ok || m != 1 {
		t.Errorf("90s = (%d, %v), want (1, true)", m, ok)
	}
	if m, ok := relativeMinutes(epoch, epoch.Add(65535*time.Minute)); !ok || m != 65535 {
		t.Errorf("limit = (%d, %v), want (65535, true)", m, ok)
	}
	if _, ok := relativeMinutes(epoch, epoch.Add(65536*time.Minute)); ok {
		t.Error("expected overflow past 65535 minutes")
	}
	if m, ok := relativeMinutes(epoch, epoch.Add(-time.Hour)); !ok || m != 0 {
		t.Errorf("clock before epoch = (%d, %v), want (0, true)", m, ok)
	}
}
