package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/exportation"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
	"github.com/TerraMA2/terrama2-sub002/internal/service"
)

// ServiceDispatcher is satisfied by service.Dispatcher.
type ServiceDispatcher interface {
	Configs() []service.Config
	Status(ctx context.Context) map[string]error
	AddData(ctx context.Context, batch *service.Batch) error
	RemoveData(ctx context.Context, batch *service.Batch) error
	StartProcess(ctx context.Context, instanceID int64, ids []int64, executionDate time.Time) error
	Log(ctx context.Context, instanceID int64, req service.LogRequest) ([]*model.Log, error)
}

// AdminHandler drives the native services and project exports.
type AdminHandler struct {
	loader     EntityLoader
	dispatcher ServiceDispatcher
	exporter   *exportation.Exporter
	logger     *logrus.Entry
}

// NewAdminHandler creates a new admin handler. exporter may be nil, which
// disables the export routes.
func NewAdminHandler(loader EntityLoader, dispatcher ServiceDispatcher, exporter *exportation.Exporter, logger *observability.Logger) *AdminHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AdminHandler{
		loader:     loader,
		dispatcher: dispatcher,
		exporter:   exporter,
		logger:     logger.ForComponent("rest::admin"),
	}
}

// RegisterRoutes registers admin API routes.
func (ah *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/services", ah.listServices)
	mux.HandleFunc("GET /api/v1/services/status", ah.servicesStatus)
	mux.HandleFunc("POST /api/v1/services/{id}/start", ah.startProcess)
	mux.HandleFunc("POST /api/v1/services/{id}/log", ah.processLog)
	mux.HandleFunc("POST /api/v1/dataseries/{id}/dispatch", ah.dispatchDataSeries)
	mux.HandleFunc("DELETE /api/v1/dataseries/{id}/dispatch", ah.removeDataSeries)
	if ah.exporter != nil {
		mux.HandleFunc("POST /api/v1/projects/{id}/exports", ah.exportProject)
		mux.HandleFunc("GET /api/v1/projects/{id}/exports", ah.listExports)
		mux.HandleFunc("POST /api/v1/imports", ah.importProject)
	}
}

// --- Native services ---

type serviceView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Address   string `json:"address"`
	TimeoutMs int64  `json:"timeout_ms"`
}

func (ah *AdminHandler) listServices(w http.ResponseWriter, r *http.Request) {
	configs := ah.dispatcher.Configs()
	out := make([]serviceView, 0, len(configs))
	for _, c := range configs {
		out = append(out, serviceView{
			ID:        c.ID,
			Name:      c.Name,
			Type:      string(c.Type),
			Address:   c.Address,
			TimeoutMs: c.Timeout.Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": out})
}

func (ah *AdminHandler) servicesStatus(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]ComponentStatus)
	for addr, err := range ah.dispatcher.Status(r.Context()) {
		if err != nil {
			out[addr] = ComponentStatus{Status: common.HealthStatusUnhealthy, Error: err.Error()}
			continue
		}
		out[addr] = ComponentStatus{Status: common.HealthStatusHealthy}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"instances": out})
}

func (ah *AdminHandler) startProcess(w http.ResponseWriter, r *http.Request) {
	instanceID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	var req struct {
		IDs           []int64   `json:"ids"`
		ExecutionDate time.Time `json:"execution_date"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "ids is required")
		return
	}
	if err := ah.dispatcher.StartProcess(r.Context(), instanceID, req.IDs, req.ExecutionDate); err != nil {
		handleError(w, err)
		return
	}
	observability.WithTrace(ah.logger, r.Context()).WithFields(logrus.Fields{
		"instance_id": instanceID,
		"ids":         req.IDs,
	}).Info("Process start requested")
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"started": req.IDs})
}

func (ah *AdminHandler) processLog(w http.ResponseWriter, r *http.Request) {
	instanceID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	var req service.LogRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	logs, err := ah.dispatcher.Log(r.Context(), instanceID, req)
	if err != nil {
		handleError(w, err)
		return
	}
	out := make([]model.Object, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.ToObject())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": out})
}

// seriesBatch loads a data series and its provider as one batch.
func (ah *AdminHandler) seriesBatch(ctx context.Context, id int64) (*service.Batch, error) {
	series, err := ah.loader.DataSeries(ctx, id)
	if err != nil {
		return nil, err
	}
	batch := service.NewBatch()
	if series.DataProviderID != nil {
		provider, err := ah.loader.DataProvider(ctx, *series.DataProviderID)
		if err != nil {
			return nil, err
		}
		series.SetDataProvider(provider)
		batch.Add(provider)
	}
	batch.Add(series)
	return batch, nil
}

func (ah *AdminHandler) dispatchDataSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	batch, err := ah.seriesBatch(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := ah.dispatcher.AddData(r.Context(), batch); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"sent": batch.Keys()})
}

func (ah *AdminHandler) removeDataSeries(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	series, err := ah.loader.DataSeries(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}
	if err := ah.dispatcher.RemoveData(r.Context(), service.NewBatch(series)); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Project export ---

func (ah *AdminHandler) exportProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	project := exportation.Project{}
	if err := decodeBody(r, &project); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	project.ID = projectID

	series, err := ah.loader.ListDataSeries(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}
	seen := make(map[int64]bool)
	for _, s := range series {
		if s.DataProviderID == nil || seen[*s.DataProviderID] {
			continue
		}
		seen[*s.DataProviderID] = true
		provider, err := ah.loader.DataProvider(r.Context(), *s.DataProviderID)
		if err != nil {
			handleError(w, err)
			return
		}
		project.Entities = append(project.Entities, provider)
	}
	for _, s := range series {
		project.Entities = append(project.Entities, s)
	}

	key, err := ah.exporter.Export(r.Context(), project)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"key":      key,
		"entities": len(project.Entities),
	})
}

func (ah *AdminHandler) listExports(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	keys, err := ah.exporter.List(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exports": keys})
}

func (ah *AdminHandler) importProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "key is required")
		return
	}
	project, err := ah.exporter.Import(r.Context(), req.Key)
	if err != nil {
		handleError(w, err)
		return
	}
	doc := exportation.Document(project)
	writeJSON(w, http.StatusOK, doc)
}
