// Package exportation writes whole projects to object storage and reads
// them back as entities.
package exportation

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
	"github.com/TerraMA2/terrama2-sub002/internal/service"
)

// KeyProjects holds the project header in an export document.
const KeyProjects = "Projects"

// DocumentKeys lists every collection an export document may carry, in
// write order.
var DocumentKeys = []string{
	KeyProjects,
	service.KeyDataProviders,
	service.KeyDataSeries,
	service.KeyCollectors,
	service.KeyAnalysis,
	service.KeyViews,
	service.KeyAlerts,
	service.KeyLegends,
	service.KeyInterpolators,
	service.KeyStorages,
}

// ObjectStore is the subset of the S3 adapter the exporter needs.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// Project is a project header plus every entity it owns.
type Project struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Version     int            `json:"version"`
	Description string         `json:"description"`
	Protected   bool           `json:"protected"`
	Entities    []model.Entity `json:"-"`
}

// Exporter serializes projects to an ObjectStore.
type Exporter struct {
	store    ObjectStore
	prefix   string
	registry model.SemanticsLookup
	metrics  *observability.Metrics
	logger   *logrus.Entry
	tracer   trace.Tracer
	newID    func() string
}

// NewExporter creates an exporter writing under prefix.
func NewExporter(store ObjectStore, prefix string, registry model.SemanticsLookup, logger *observability.Logger, metrics *observability.Metrics) *Exporter {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	if prefix == "" {
		prefix = "exports"
	}
	return &Exporter{
		store:    store,
		prefix:   prefix,
		registry: registry,
		metrics:  metrics,
		logger:   logger.ForComponent("exportation"),
		tracer:   observability.Tracer("exportation"),
		newID:    func() string { return uuid.New().String() },
	}
}

// ProjectPrefix is the key prefix of every export of a project.
func (x *Exporter) ProjectPrefix(projectID int64) string {
	return path.Join(x.prefix, fmt.Sprint(projectID)) + "/"
}

// Document builds the export mapping of p. Entities without a collection
// are skipped.
func Document(p Project) map[string][]model.Object {
	doc := map[string][]model.Object{
		KeyProjects: {{
			"id":          p.ID,
			"name":        p.Name,
			"version":     p.Version,
			"description": p.Description,
			"protected":   p.Protected,
		}},
	}
	for _, e := range p.Entities {
		if e == nil {
			continue
		}
		key, ok := service.CollectionKey(e.Kind())
		if !ok {
			continue
		}
		doc[key] = append(doc[key], e.ToObject())
	}
	return doc
}

// Export writes p to <prefix>/<project id>/<uuid>.json and returns the key.
func (x *Exporter) Export(ctx context.Context, p Project) (key string, err error) {
	ctx, span := x.tracer.Start(ctx, "exportation.Export",
		trace.WithAttributes(observability.ProjectIDAttr(p.ID)))
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			observability.FailSpan(span, err)
		}
		x.metrics.ExportsTotal.WithLabelValues("export", status).Inc()
		span.End()
	}()

	data, err := json.Marshal(Document(p))
	if err != nil {
		return "", fmt.Errorf("%w: project %d: %v", common.ErrEncoding, p.ID, err)
	}

	key = x.ProjectPrefix(p.ID) + x.newID() + ".json"
	span.SetAttributes(attribute.String("terrama2.export.key", key))
	if err := x.store.PutObject(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("export project %d: %w", p.ID, err)
	}

	x.logger.WithFields(logrus.Fields{
		"project_id": p.ID,
		"key":        key,
		"entities":   len(p.Entities),
		"bytes":      len(data),
	}).Info("Project exported")
	return key, nil
}

// Import reads an export document and rebuilds its entities in document
// key order.
func (x *Exporter) Import(ctx context.Context, key string) (p Project, err error) {
	ctx, span := x.tracer.Start(ctx, "exportation.Import",
		trace.WithAttributes(attribute.String("terrama2.export.key", key)))
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			observability.FailSpan(span, err)
		}
		x.metrics.ExportsTotal.WithLabelValues("import", status).Inc()
		span.End()
	}()

	data, err := x.store.GetObject(ctx, key)
	if err != nil {
		return Project{}, fmt.Errorf("import %s: %w", key, err)
	}
	return x.Decode(data)
}

// Decode rebuilds a project from export document bytes.
func (x *Exporter) Decode(data []byte) (Project, error) {
	var doc map[string][]map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Project{}, fmt.Errorf("%w: export document: %v", common.ErrEncoding, err)
	}

	var p Project
	if headers := doc[KeyProjects]; len(headers) > 0 {
		header, err := json.Marshal(headers[0])
		if err != nil {
			return Project{}, fmt.Errorf("%w: project header: %v", common.ErrEncoding, err)
		}
		if err := json.Unmarshal(header, &p); err != nil {
			return Project{}, fmt.Errorf("%w: project header: %v", common.ErrValidation, err)
		}
	}

	for _, key := range DocumentKeys[1:] {
		for i, item := range doc[key] {
			e, err := model.BuildTagged(item, x.registry)
			if err != nil {
				x.metrics.BuildErrorsTotal.WithLabelValues(fmt.Sprint(item[model.KindKey])).Inc()
				return Project{}, fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			p.Entities = append(p.Entities, e)
		}
	}
	return p, nil
}

// List returns the export keys of a project in key order.
func (x *Exporter) List(ctx context.Context, projectID int64) ([]string, error) {
	keys, err := x.store.ListObjects(ctx, x.ProjectPrefix(projectID))
	if err != nil {
		return nil, fmt.Errorf("list exports of project %d: %w", projectID, err)
	}
	sort.Strings(keys)
	return keys, nil
}
