package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Histogram bucket presets
var (
	LatencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	RequestBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0}
	SizeBuckets    = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}
)

// Metrics holds every Prometheus collector exported by the server.
type Metrics struct {
	// --- Model ---
	SemanticsLookupsTotal *prometheus.CounterVec
	DataSetDispatchTotal  *prometheus.CounterVec
	ProjectionsTotal      *prometheus.CounterVec
	BuildErrorsTotal      *prometheus.CounterVec

	// --- Native services ---
	ServiceFramesTotal *prometheus.CounterVec
	ServiceFrameBytes  *prometheus.HistogramVec
	ServiceLatency     *prometheus.HistogramVec
	ServiceErrorsTotal *prometheus.CounterVec
	ServiceInstancesUp *prometheus.GaugeVec

	// --- Snapshot cache ---
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// --- Storage ---
	PGQueryLatency    *prometheus.HistogramVec
	PGConnectionsOpen prometheus.Gauge
	RedisLatency      *prometheus.HistogramVec
	S3OperationsTotal *prometheus.CounterVec
	S3Latency         *prometheus.HistogramVec
	S3BytesTotal      *prometheus.CounterVec
	ExportsTotal      *prometheus.CounterVec

	// --- HTTP ---
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ConfigReloadsTotal prometheus.Counter
}

// NewMetrics registers and returns all metrics on reg. A nil reg uses the
// default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Model
		SemanticsLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_semantics_lookups_total",
			Help: "Semantics registry lookups",
		}, []string{"result"}),

		DataSetDispatchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_dataset_dispatch_total",
			Help: "Dataset records classified by variant",
		}, []string{"variant"}),

		ProjectionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_projections_total",
			Help: "Entity projections produced",
		}, []string{"kind", "projection"}),

		BuildErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_build_errors_total",
			Help: "Entity construction failures",
		}, []string{"kind"}),

		// Native services
		ServiceFramesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_service_frames_total",
			Help: "Frames exchanged with native services",
		}, []string{"service", "signal", "direction"}),

		ServiceFrameBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrama2_service_frame_bytes",
			Help:    "Frame size in bytes",
			Buckets: SizeBuckets,
		}, []string{"service", "direction"}),

		ServiceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrama2_service_latency_seconds",
			Help:    "Round trip latency of native service requests",
			Buckets: LatencyBuckets,
		}, []string{"service", "signal"}),

		ServiceErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_service_errors_total",
			Help: "Native service request failures",
		}, []string{"service", "signal"}),

		ServiceInstancesUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "terrama2_service_instances_up",
			Help: "Native service instances answering STATUS",
		}, []string{"service"}),

		// Snapshot cache
		CacheHitsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_cache_hits_total",
			Help: "Snapshot cache hits",
		}, []string{"cache_level"}),

		CacheMissesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_cache_misses_total",
			Help: "Snapshot cache misses",
		}, []string{"cache_level"}),

		// Storage
		PGQueryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrama2_pg_query_latency_seconds",
			Help:    "PostgreSQL query latency",
			Buckets: LatencyBuckets,
		}, []string{"query"}),

		PGConnectionsOpen: f.NewGauge(prometheus.GaugeOpts{
			Name: "terrama2_pg_connections_open",
			Help: "Open PostgreSQL connections",
		}),

		RedisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrama2_redis_latency_seconds",
			Help:    "Redis command latency",
			Buckets: LatencyBuckets,
		}, []string{"command"}),

		S3OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_s3_operations_total",
			Help: "S3 operations",
		}, []string{"operation", "status"}),

		S3Latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrama2_s3_latency_seconds",
			Help:    "S3 operation latency",
			Buckets: LatencyBuckets,
		}, []string{"operation"}),

		S3BytesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_s3_bytes_total",
			Help: "S3 bytes transferred",
		}, []string{"operation"}),

		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_exports_total",
			Help: "Project exports and imports",
		}, []string{"operation", "status"}),

		// HTTP
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "terrama2_http_requests_total",
			Help: "Total HTTP API requests",
		}, []string{"endpoint", "method", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "terrama2_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: RequestBuckets,
		}, []string{"endpoint", "method"}),

		ConfigReloadsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "terrama2_config_reloads_total",
			Help: "Configuration reload events",
		}),
	}
}

// NopMetrics registers on a private registry that nothing scrapes.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
