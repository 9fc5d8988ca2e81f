// Package metrics exposes the temperature store to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/thermolog/thermolog/services/api/templog"
)

const namespace = "thermolog"

// StoreCollector reads MemoryInfo and the ingestion counters on every scrape
// instead of mirroring them into separate gauges.
type StoreCollector struct {
	store *templog.Store

	records       *prometheus.Desc
	capacity      *prometheus.Desc
	bytesUsed     *prometheus.Desc
	sensors       *prometheus.Desc
	maxSensors    *prometheus.Desc
	detailed      *prometheus.Desc
	wrapped       *prometheus.Desc
	epoch         *prometheus.Desc
	ingested      *prometheus.Desc
	evicted       *prometheus.Desc
	rejected      *prometheus.Desc
	rebases       *prometheus.Desc
	sensorRecords *prometheus.Desc
}

// NewStoreCollector builds a collector bound to store.
func NewStoreCollector(store *templog.Store) *StoreCollector {
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "ring", name), help, labels, nil)
	}
	return &StoreCollector{
		store:         store,
		records:       desc("records", "Records currently held in the ring."),
		capacity:      desc("capacity_records", "Ring capacity in records."),
		bytesUsed:     desc("used_bytes", "Bytes of the ring occupied by live records."),
		sensors:       desc("sensors", "Registered sensors."),
		maxSensors:    desc("max_sensors", "Sensor registry capacity."),
		detailed:      desc("detailed_sensors", "Sensors with a detail snapshot."),
		wrapped:       desc("wrapped", "1 once the ring has evicted records."),
		epoch:         desc("epoch_seconds", "Unix time of the ring epoch."),
		ingested:      desc("readings_total", "Readings handled by the admission policy.", "action"),
		evicted:       desc("evicted_total", "Records evicted by appends to a full ring."),
		rejected:      desc("rejected_total", "Readings rejected because the registry was full."),
		rebases:       desc("rebases_total", "Epoch rebases."),
		sensorRecords: desc("sensor_records", "Records currently held per sensor.", "sensor"),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.records, c.capacity, c.bytesUsed, c.sensors, c.maxSensors, c.detailed,
		c.wrapped, c.epoch, c.ingested, c.evicted, c.rejected, c.rebases, c.sensorRecords,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	info := c.store.MemoryInfo()
	stats := c.store.StorageStats()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v uint64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), labels...)
	}

	gauge(c.records, float64(info.UsedRecords))
	gauge(c.capacity, float64(info.MaxRecords))
	gauge(c.bytesUsed, float64(info.UsedBytes))
	gauge(c.sensors, float64(info.SensorCount))
	gauge(c.maxSensors, float64(info.MaxSensors))
	gauge(c.detailed, float64(info.DetailedCount))
	wrapped := 0.0
	if info.BufferWrapped {
		wrapped = 1
	}
	gauge(c.wrapped, wrapped)
	gauge(c.epoch, float64(info.Epoch.Unix()))

	counters := info.IngestionCounter
	counter(c.ingested, counters.Appended, "appended")
	counter(c.ingested, counters.Overwritten, "overwritten")
	counter(c.evicted, counters.Evicted)
	counter(c.rejected, counters.Rejected)
	counter(c.rebases, counters.Rebases)

	for sensor, n := range stats.RecordsPerSensor {
		gauge(c.sensorRecords, float64(n), sensor)
	}
}

// NewRegistry returns a registry carrying the store collector plus the
// standard Go and process collectors.
func NewRegistry(store *templog.Store) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewStoreCollector(store),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
