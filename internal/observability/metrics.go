package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// chunk adjustment pipeline.
type Metrics struct {
	ChunksConsumed  prometheus.Counter
	ChunksProduced  prometheus.Counter
	TransformErrors prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Adjustment metrics.
	LocationsAdjusted prometheus.Counter
	LocationsFailed   prometheus.Counter
	ChunkLocations    prometheus.Histogram
	AdjustDuration    prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ChunksConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_debias",
			Name:      "chunks_consumed_total",
			Help:      "Total chunk jobs read from the source topic.",
		}),
		ChunksProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_debias",
			Name:      "chunks_produced_total",
			Help:      "Total adjusted chunks written to the sink topic.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_debias",
			Name:      "transform_errors_total",
			Help:      "Total chunk jobs that failed to parse or adjust.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_debias",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_debias",
			Name:      "batch_size",
			Help:      "Number of chunk jobs per batch extracted from Kafka.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_debias",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-adjust-load cycle.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LocationsAdjusted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_debias",
			Name:      "locations_adjusted_total",
			Help:      "Total spatial locations successfully adjusted.",
		}),
		LocationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climate_debias",
			Name:      "locations_failed_total",
			Help:      "Total spatial locations sentinel-filled in failsafe mode.",
		}),
		ChunkLocations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_debias",
			Name:      "chunk_locations",
			Help:      "Spatial locations per chunk job.",
			Buckets:   []float64{16, 64, 256, 1024, 4096, 16384},
		}),
		AdjustDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climate_debias",
			Name:      "adjust_duration_seconds",
			Help:      "Duration of adjusting one chunk job.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.ChunksConsumed,
		m.ChunksProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.LocationsAdjusted,
		m.LocationsFailed,
		m.ChunkLocations,
		m.AdjustDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ChunksConsumed:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_debias", Name: "chunks_consumed_total"}),
		ChunksProduced:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_debias", Name: "chunks_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_debias", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climate_debias", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_debias", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_debias", Name: "batch_processing_duration_seconds"}),
		LocationsAdjusted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_debias", Name: "locations_adjusted_total"}),
		LocationsFailed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climate_debias", Name: "locations_failed_total"}),
		ChunkLocations:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_debias", Name: "chunk_locations"}),
		AdjustDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climate_debias", Name: "adjust_duration_seconds"}),
	}
}
