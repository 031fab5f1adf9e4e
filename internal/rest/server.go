package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
)

// MetricsRecorder records per-request metrics.
type MetricsRecorder func(endpoint, method string, statusCode int, duration time.Duration)

// HealthSource is satisfied by health.Tracker.
type HealthSource interface {
	GetStatuses() map[string]*common.ComponentHealth
	AggregateStatus() string
}

// Server wraps the HTTP server of the model API.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	health     HealthSource
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components,omitempty"`
	Timestamp  string                     `json:"timestamp,omitempty"`
}

// ComponentStatus is the health status of a single component.
type ComponentStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewServer creates a new REST server. A nil gatherer serves the default
// Prometheus registry on /metrics.
func NewServer(address string, gatherer prometheus.Gatherer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         address,
			Handler:      withTraceID(mux),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		mux: mux,
	}

	mux.HandleFunc("GET /health/live", s.handleLiveness)
	mux.HandleFunc("GET /health/ready", s.handleReadiness)

	if gatherer == nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	} else {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return s
}

// TraceHeader carries the request trace id in and out.
const TraceHeader = "X-Trace-Id"

// withTraceID propagates the caller's trace id, or assigns one, into the
// request context and the response headers.
func withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TraceHeader)
		if id == "" {
			id = observability.TraceIDFromContext(r.Context())
		}
		if id == "" {
			id = common.GenerateTraceID()
		}
		w.Header().Set(TraceHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.WithTraceID(r.Context(), id)))
	})
}

// SetHealthSource sets the tracker readiness is read from. Without one the
// server reports ready.
func (s *Server) SetHealthSource(h HealthSource) {
	s.health = h
}

// Route is implemented by every handler group.
type Route interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Register mounts handler groups on the server mux.
func (s *Server) Register(routes ...Route) {
	for _, r := range routes {
		r.RegisterRoutes(s.mux)
	}
}

// SetMetricsRecorder wraps the server handler with per-request metrics
// recording. The endpoint label is the matched route pattern, so path ids
// do not explode label cardinality.
func (s *Server) SetMetricsRecorder(recorder MetricsRecorder) {
	inner := s.httpServer.Handler
	s.httpServer.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		inner.ServeHTTP(rw, r)
		_, endpoint := s.mux.Handler(r)
		if endpoint == "" {
			endpoint = "unmatched"
		}
		recorder(endpoint, r.Method, rw.statusCode, time.Since(start))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Handler returns the root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve starts the REST server.
func (s *Server) Serve() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the REST server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleLiveness returns 200 if the process is running.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReadiness returns 503 once any component is unhealthy. Degraded
// components are reported but keep the server ready.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	resp := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.health == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Components = make(map[string]ComponentStatus)
	for name, h := range s.health.GetStatuses() {
		resp.Components[name] = ComponentStatus{
			Status:    h.Status,
			LatencyMs: h.LatencyMs,
			Error:     h.Message,
		}
	}

	status := http.StatusOK
	if s.health.AggregateStatus() == common.HealthStatusUnhealthy {
		resp.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
