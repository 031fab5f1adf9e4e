package postgres

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
)

const (
	seriesSelect = `SELECT ds.id, ds.name, ds.description, ds.active, ds.data_provider_id, ds.project_id,
       s.id AS semantics_id, s.code AS semantics_code
  FROM terrama2.data_series ds
  JOIN terrama2.data_series_semantics s ON s.id = ds.data_series_semantics_id`

	dataSetSelect = `SELECT d.id, d.data_series_id, d.active,
       ST_AsGeoJSON(dcp.position) AS position, ST_AsEWKT(dcp.position) AS position_wkt,
       mo.time_column, mo.geometry_column, mo.id_column,
       s.data_series_type AS series_type
  FROM terrama2.data_sets d
  JOIN terrama2.data_series ds ON ds.id = d.data_series_id
  JOIN terrama2.data_series_semantics s ON s.id = ds.data_series_semantics_id
  LEFT JOIN terrama2.data_set_dcps dcp ON dcp.data_set_id = d.id
  LEFT JOIN terrama2.data_set_monitored_objects mo ON mo.data_set_id = d.id`

	formatSelect = `SELECT f.data_set_id, f.key, f.value
  FROM terrama2.data_set_formats f
  JOIN terrama2.data_sets d ON d.id = f.data_set_id
  JOIN terrama2.data_series ds ON ds.id = d.data_series_id`

	providerSelect = `SELECT p.id, p.project_id, p.name, p.description, p.uri, p.active, p.timeout,
       t.name AS type_name
  FROM terrama2.data_providers p
  JOIN terrama2.data_provider_types t ON t.id = p.data_provider_type_id
 WHERE p.id = $1`

	providerOptionsSelect = `SELECT key, value FROM terrama2.data_provider_options WHERE data_provider_id = $1`

	legendSelect = `SELECT id, name, description FROM terrama2.legends WHERE id = $1`

	legendLevelsSelect = `SELECT id, legend_id, name, value, level
  FROM terrama2.legend_levels
 WHERE legend_id = $1
 ORDER BY level`
)

// Loader reads configuration rows and assembles them into the pre-joined
// shape the model constructors accept.
type Loader struct {
	adapter  *Adapter
	registry model.SemanticsLookup
	metrics  *observability.Metrics
	logger   *logrus.Entry
	tracer   trace.Tracer
}

// NewLoader creates a loader. Nil logger and metrics are replaced by no-op
// implementations.
func NewLoader(adapter *Adapter, registry model.SemanticsLookup, logger *observability.Logger, metrics *observability.Metrics) *Loader {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &Loader{
		adapter:  adapter,
		registry: registry,
		metrics:  metrics,
		logger:   logger.ForComponent("storage::postgres"),
		tracer:   observability.Tracer("storage"),
	}
}

func (l *Loader) query(ctx context.Context, name, query string, args ...interface{}) ([]Row, error) {
	ctx, span := l.tracer.Start(ctx, "postgres."+name)
	defer span.End()

	out, err := l.adapter.Query(ctx, name, query, args...)
	if err != nil {
		observability.FailSpan(span, err)
		return nil, err
	}
	l.logger.WithField("query", name).WithField("rows", len(out)).Debug("Query done")
	return out, nil
}

// DataSeries loads one data series with its semantics, data sets and formats.
func (l *Loader) DataSeries(ctx context.Context, id int64) (s *model.DataSeries, err error) {
	ctx, span := l.tracer.Start(ctx, "loader.DataSeries", trace.WithAttributes(
		observability.EntityKindAttr(string(model.KindDataSeries)),
		observability.EntityIDAttr(id),
	))
	defer func() {
		observability.FailSpan(span, err)
		span.End()
	}()

	series, err := l.loadSeries(ctx, "WHERE ds.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: data series %d", common.ErrNotFound, id)
	}
	span.SetAttributes(observability.SemanticsCodeAttr(series[0].Semantics.Code))
	return series[0], nil
}

// ListDataSeries loads every data series of a project.
func (l *Loader) ListDataSeries(ctx context.Context, projectID int64) ([]*model.DataSeries, error) {
	return l.loadSeries(ctx, "WHERE ds.project_id = $1", projectID)
}

func (l *Loader) loadSeries(ctx context.Context, where string, arg int64) ([]*model.DataSeries, error) {
	seriesRows, err := l.query(ctx, "data_series", seriesSelect+"\n "+where+"\n ORDER BY ds.id", arg)
	if err != nil {
		return nil, err
	}
	if len(seriesRows) == 0 {
		return []*model.DataSeries{}, nil
	}
	dataSetRows, err := l.query(ctx, "data_sets", dataSetSelect+"\n "+where+"\n ORDER BY d.id", arg)
	if err != nil {
		return nil, err
	}
	formatRows, err := l.query(ctx, "data_set_formats", formatSelect+"\n "+where, arg)
	if err != nil {
		return nil, err
	}

	formats := groupBy(formatRows, "data_set_id")
	dataSets := make(map[int64][]Row)
	for _, r := range dataSetRows {
		id, _ := asInt64(r["id"])
		seriesID, _ := asInt64(r["data_series_id"])
		dataSets[seriesID] = append(dataSets[seriesID], joinDataSet(r, formats[id]))
	}

	out := make([]*model.DataSeries, 0, len(seriesRows))
	for _, r := range seriesRows {
		id, _ := asInt64(r["id"])
		r["DataSeriesSemantic"] = Row{"id": r["semantics_id"], "code": r["semantics_code"]}
		delete(r, "semantics_id")
		delete(r, "semantics_code")
		r["DataSets"] = dataSets[id]

		series, err := model.NewDataSeries(r, l.registry)
		if err != nil {
			return nil, fmt.Errorf("data series %d: %w", id, err)
		}
		for _, ds := range series.DataSets {
			l.metrics.DataSetDispatchTotal.WithLabelValues(string(ds.Variant)).Inc()
		}
		out = append(out, series)
	}
	return out, nil
}

// joinDataSet nests the variant columns of a data set row under the relation
// keys the model reads. Grid series carry no variant table, so their type
// becomes the data set marker.
func joinDataSet(r Row, formats []Row) Row {
	out := Row{
		"id":             r["id"],
		"data_series_id": r["data_series_id"],
		"active":         r["active"],
		"DataSetFormats": formats,
	}
	if t, ok := r["series_type"].(string); ok {
		for _, marker := range model.AnalysisOutputTypes {
			if t == marker {
				out["type"] = t
			}
		}
	}
	if r["position"] != nil {
		out["DataSetDcp"] = Row{"position": r["position"], "positionWkt": r["position_wkt"]}
	}
	if r["time_column"] != nil && r["geometry_column"] != nil {
		out["DataSetMonitored"] = Row{
			"time_column":     r["time_column"],
			"geometry_column": r["geometry_column"],
			"id_column":       r["id_column"],
		}
	}
	return out
}

// DataProvider loads one data provider with its type and options.
func (l *Loader) DataProvider(ctx context.Context, id int64) (*model.DataProvider, error) {
	rows, err := l.query(ctx, "data_provider", providerSelect, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: data provider %d", common.ErrNotFound, id)
	}
	options, err := l.query(ctx, "data_provider_options", providerOptionsSelect, id)
	if err != nil {
		return nil, err
	}

	r := rows[0]
	r["DataProviderType"] = Row{"name": r["type_name"]}
	delete(r, "type_name")
	r["DataProviderOptions"] = options
	return model.NewDataProvider(r), nil
}

// Legend loads one legend with its levels.
func (l *Loader) Legend(ctx context.Context, id int64) (*model.Legend, error) {
	rows, err := l.query(ctx, "legend", legendSelect, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: legend %d", common.ErrNotFound, id)
	}
	levels, err := l.query(ctx, "legend_levels", legendLevelsSelect, id)
	if err != nil {
		return nil, err
	}

	r := rows[0]
	r["LegendLevels"] = levels
	return model.NewLegend(r), nil
}
