package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
	"github.com/TerraMA2/terrama2-sub002/internal/semantics"
)

// maxBodySize bounds preview and admin request bodies.
const maxBodySize = 4 << 20

// APIError is the standard error response format.
type APIError struct {
	Error APIErrorBody `json:"error"`
}

// APIErrorBody holds error details.
type APIErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// Projection names accepted by the projection query parameter.
const (
	ProjectionObject  = "object"
	ProjectionRaw     = "raw"
	ProjectionService = "service"
)

// Project renders e in the named projection. An empty name is the object
// projection.
func Project(e model.Entity, projection string) (model.Object, error) {
	switch projection {
	case "", ProjectionObject:
		return e.ToObject(), nil
	case ProjectionRaw:
		return model.RawObjectOf(e), nil
	case ProjectionService:
		return model.ServiceObjectOf(e), nil
	}
	return nil, fmt.Errorf("%w: unknown projection %q", common.ErrValidation, projection)
}

// APIHandler serves the semantics catalogue and entity previews.
type APIHandler struct {
	registry *semantics.Registry
	metrics  *observability.Metrics
	logger   *logrus.Entry
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(registry *semantics.Registry, logger *observability.Logger, metrics *observability.Metrics) *APIHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &APIHandler{
		registry: registry,
		metrics:  metrics,
		logger:   logger.ForComponent("rest"),
	}
}

// RegisterRoutes registers the API routes on the given mux.
func (h *APIHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/semantics", h.listSemantics)
	mux.HandleFunc("GET /api/v1/semantics/{code}", h.getSemantics)
	mux.HandleFunc("POST /api/v1/preview/{kind}", h.preview)
}

func (h *APIHandler) listSemantics(w http.ResponseWriter, r *http.Request) {
	descriptors := h.registry.List()
	out := make([]map[string]interface{}, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Object())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"semantics": out,
		"count":     len(out),
	})
}

func (h *APIHandler) getSemantics(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	d, err := h.registry.Lookup(code)
	if err != nil {
		h.metrics.SemanticsLookupsTotal.WithLabelValues("miss").Inc()
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}
	h.metrics.SemanticsLookupsTotal.WithLabelValues("hit").Inc()
	writeJSON(w, http.StatusOK, d.Object())
}

// preview builds an entity from the posted body and returns one of its
// projections. validate=true also checks data series formats.
func (h *APIHandler) preview(w http.ResponseWriter, r *http.Request) {
	kind := model.Kind(r.PathValue("kind"))
	projection := r.URL.Query().Get("projection")

	var body map[string]interface{}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	e, err := model.Build(kind, body, h.registry)
	if err != nil {
		h.metrics.BuildErrorsTotal.WithLabelValues(string(kind)).Inc()
		handleError(w, err)
		return
	}

	if validate, _ := strconv.ParseBool(r.URL.Query().Get("validate")); validate {
		if ds, ok := e.(*model.DataSeries); ok {
			if err := ds.Validate(h.registry); err != nil {
				handleError(w, err)
				return
			}
		}
	}

	out, err := Project(e, projection)
	if err != nil {
		handleError(w, err)
		return
	}
	if projection == "" {
		projection = ProjectionObject
	}
	h.metrics.ProjectionsTotal.WithLabelValues(string(e.Kind()), projection).Inc()
	writeJSON(w, http.StatusOK, out)
}

// --- helpers ---

func decodeBody(r *http.Request, v interface{}) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxBodySize {
		return fmt.Errorf("body exceeds %d bytes", maxBodySize)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", common.ErrValidation, name)
	}
	return id, nil
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeErrorDetails(w, status, code, message, nil)
}

func writeErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	traceID := w.Header().Get(TraceHeader)
	if traceID == "" {
		traceID = common.GenerateTraceID()
	}
	writeJSON(w, status, APIError{
		Error: APIErrorBody{
			Code:    code,
			Message: message,
			Details: details,
			TraceID: traceID,
		},
	})
}

// fieldErrors extracts per-path validation failures, if any.
func fieldErrors(err error) []common.FieldError {
	var many *model.ValidationErrors
	if errors.As(err, &many) {
		return many.Errors
	}
	var one *common.ValidationError
	if errors.As(err, &one) {
		return one.Errors
	}
	return nil
}

// handleError maps the error kinds of the model and its adapters to HTTP
// statuses.
func handleError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrAbstractInstantiation) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	switch common.StatusKind(err) {
	case common.ErrValidation, common.ErrEncoding:
		if details := fieldErrors(err); len(details) > 0 {
			writeErrorDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), details)
			return
		}
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case common.ErrNotFound:
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case common.ErrTimeout:
		writeError(w, http.StatusGatewayTimeout, "TIMEOUT", err.Error())
	case common.ErrUnavailable, common.ErrConnection, common.ErrProtocol:
		writeError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fmt.Sprintf("internal error: %v", err))
	}
}
