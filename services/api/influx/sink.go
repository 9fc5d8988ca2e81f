// Package influx mirrors archive batches into an InfluxDB v2 bucket.
package influx

import (
	"context"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/thermolog/thermolog/services/api/archive"
)

const (
	measurementTemperature = "temperature"
	measurementDetail      = "sensor_detail"
)

// Sink writes ring readings and detail snapshots as points.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
}

// New connects a blocking writer to org/bucket.
func New(url, token, org, bucket string) *Sink {
	client := influxdb2.NewClient(url, token)
	return &Sink{client: client, writeAPI: client.WriteAPIBlocking(org, bucket)}
}

// Name implements archive.Sink.
func (s *Sink) Name() string { return "influxdb" }

// Write implements archive.Sink.
func (s *Sink) Write(ctx context.Context, b archive.Batch) error {
	pts := Points(b)
	if len(pts) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, pts...)
}

// Ping reports whether the server is reachable.
func (s *Sink) Ping(ctx context.Context) (bool, error) {
	return s.client.Ping(ctx)
}

// Close releases the client.
func (s *Sink) Close() {
	s.client.Close()
}

// Points converts a batch into line-protocol points: one temperature point
// per ring entry and one detail point per snapshot.
func Points(b archive.Batch) []*write.Point {
	pts := make([]*write.Point, 0, len(b.Readings)+len(b.Details))
	for _, r := range b.Readings {
		pts = append(pts, influxdb2.NewPointWithMeasurement(measurementTemperature).
			AddTag("sensor", r.Sensor).
			AddField("celsius", r.Temperature).
			SetTime(r.Timestamp))
	}

	for name, snap := range b.Details {
		p := influxdb2.NewPointWithMeasurement(measurementDetail).
			AddTag("sensor", name).
			AddTag("run_id", b.RunID.String()).
			AddField("temperature", snap.Temperature).
			SetTime(snap.UpdatedAt)
		if snap.Humidity != nil {
			p.AddField("humidity", *snap.Humidity)
		}
		if snap.Battery != nil {
			p.AddField("battery", *snap.Battery)
		}
		if snap.RSSI != nil {
			p.AddField("rssi", *snap.RSSI)
		}
		if snap.Voltage != nil {
			p.AddField("voltage", *snap.Voltage)
		}
		if snap.Power != nil {
			p.AddField("power", *snap.Power)
		}
		pts = append(pts, p)
	}
	return pts
}
