package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/TerraMA2/terrama2-sub002/internal/cache"
	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
)

// EntityLoader reads pre-joined entities from storage. *postgres.Loader
// satisfies it.
type EntityLoader interface {
	DataSeries(ctx context.Context, id int64) (*model.DataSeries, error)
	ListDataSeries(ctx context.Context, projectID int64) ([]*model.DataSeries, error)
	DataProvider(ctx context.Context, id int64) (*model.DataProvider, error)
	Legend(ctx context.Context, id int64) (*model.Legend, error)
}

// QueryHandler serves stored entities in any projection.
type QueryHandler struct {
	loader    EntityLoader
	snapshots *cache.SnapshotStore
	registry  model.SemanticsLookup
	metrics   *observability.Metrics
	logger    *logrus.Entry
}

// NewQueryHandler creates a query handler. snapshots may be nil.
func NewQueryHandler(loader EntityLoader, snapshots *cache.SnapshotStore, registry model.SemanticsLookup, logger *observability.Logger, metrics *observability.Metrics) *QueryHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &QueryHandler{
		loader:    loader,
		snapshots: snapshots,
		registry:  registry,
		metrics:   metrics,
		logger:    logger.ForComponent("rest::query"),
	}
}

// RegisterRoutes registers the query routes.
func (qh *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/dataseries/{id}", qh.getDataSeries)
	mux.HandleFunc("GET /api/v1/projects/{id}/dataseries", qh.listDataSeries)
	mux.HandleFunc("GET /api/v1/providers/{id}", qh.getProvider)
	mux.HandleFunc("GET /api/v1/legends/{id}", qh.getLegend)
	mux.HandleFunc("DELETE /api/v1/snapshots/{kind}/{id}", qh.invalidate)
}

// cached serves the object projection from the snapshot store and falls
// back to load, storing what it loaded. Other projections always load,
// since snapshots only keep the object form.
func (qh *QueryHandler) cached(ctx context.Context, kind model.Kind, id int64, projection string, load func() (model.Entity, error)) (model.Entity, error) {
	useCache := qh.snapshots != nil && (projection == "" || projection == ProjectionObject)
	if useCache {
		e, err := qh.snapshots.Rehydrate(ctx, kind, id, qh.registry)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			observability.WithTrace(qh.logger, ctx).WithError(err).WithField("kind", kind).Warn("Snapshot unusable, loading from storage")
		}
	}

	e, err := load()
	if err != nil {
		return nil, err
	}
	if useCache {
		if err := qh.snapshots.Put(ctx, e); err != nil {
			observability.WithTrace(qh.logger, ctx).WithError(err).WithField("kind", kind).Warn("Failed to store snapshot")
		}
	}
	return e, nil
}

func (qh *QueryHandler) serve(w http.ResponseWriter, r *http.Request, kind model.Kind, load func(ctx context.Context, id int64) (model.Entity, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	projection := r.URL.Query().Get("projection")
	e, err := qh.cached(r.Context(), kind, id, projection, func() (model.Entity, error) {
		return load(r.Context(), id)
	})
	if err != nil {
		handleError(w, err)
		return
	}
	out, err := Project(e, projection)
	if err != nil {
		handleError(w, err)
		return
	}
	if projection == "" {
		projection = ProjectionObject
	}
	qh.metrics.ProjectionsTotal.WithLabelValues(string(kind), projection).Inc()
	writeJSON(w, http.StatusOK, out)
}

func (qh *QueryHandler) getDataSeries(w http.ResponseWriter, r *http.Request) {
	qh.serve(w, r, model.KindDataSeries, func(ctx context.Context, id int64) (model.Entity, error) {
		return qh.loader.DataSeries(ctx, id)
	})
}

func (qh *QueryHandler) getProvider(w http.ResponseWriter, r *http.Request) {
	qh.serve(w, r, model.KindDataProvider, func(ctx context.Context, id int64) (model.Entity, error) {
		return qh.loader.DataProvider(ctx, id)
	})
}

func (qh *QueryHandler) getLegend(w http.ResponseWriter, r *http.Request) {
	qh.serve(w, r, model.KindLegend, func(ctx context.Context, id int64) (model.Entity, error) {
		return qh.loader.Legend(ctx, id)
	})
}

func (qh *QueryHandler) listDataSeries(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	projection := r.URL.Query().Get("projection")

	series, err := qh.loader.ListDataSeries(r.Context(), projectID)
	if err != nil {
		handleError(w, err)
		return
	}
	out := make([]model.Object, 0, len(series))
	for _, s := range series {
		obj, err := Project(s, projection)
		if err != nil {
			handleError(w, err)
			return
		}
		out = append(out, obj)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data_series": out,
		"count":       len(out),
	})
}

func (qh *QueryHandler) invalidate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, err)
		return
	}
	if qh.snapshots != nil {
		if err := qh.snapshots.Invalidate(r.Context(), model.Kind(r.PathValue("kind")), id); err != nil {
			handleError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
