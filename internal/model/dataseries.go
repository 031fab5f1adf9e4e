package model

import (
	"fmt"

	"github.com/TerraMA2/terrama2-sub002/internal/semantics"
	"github.com/TerraMA2/terrama2-sub002/internal/transforms"
)

// SemanticsLookup resolves semantics codes. *semantics.Registry implements it.
type SemanticsLookup interface {
	Lookup(code string) (semantics.Descriptor, error)
}

// FormatValidator checks data set formats. *semantics.Registry implements it.
type FormatValidator interface {
	ValidateFormat(code string, format map[string]interface{}) error
}

// DefaultProviderTimeout is the request timeout in seconds used when a data
// provider has none configured.
const DefaultProviderTimeout int64 = 8

// DataProvider is a server or directory hosting data series.
type DataProvider struct {
	Base
	ID          *int64
	ProjectID   *int64
	Name        string
	Description string
	Intent      *int64
	URI         string
	Active      bool
	Type        string
	Options     map[string]interface{}
	Timeout     int64
}

func NewDataProvider(input interface{}) *DataProvider {
	p := ToParams(input)

	providerType := p.Text("data_provider_type")
	if rel, ok := p.Relation("DataProviderType", "data_provider_type"); ok {
		providerType = rel.Text("name")
	}

	options := p.Map("DataProviderOptions", "options")
	timeout := DefaultProviderTimeout
	if t, ok := options["timeout"]; ok {
		if v, err := transforms.ToInt64(t); err == nil && v > 0 {
			timeout = v
		}
	} else if v := p.Int64("timeout"); v != nil && *v > 0 {
		timeout = *v
	}

	return &DataProvider{
		Base:        mustBase(KindDataProvider),
		ID:          p.Int64("id"),
		ProjectID:   p.Int64("project_id"),
		Name:        p.Text("name"),
		Description: p.Text("description"),
		Intent:      p.Int64("data_provider_intent_id", "intent"),
		URI:         p.Text("uri"),
		Active:      p.Bool(true, "active"),
		Type:        providerType,
		Options:     options,
		Timeout:     timeout,
	}
}

func (d *DataProvider) ToObject() Object {
	return d.object(Object{
		"id":                 valueOf(d.ID),
		"project_id":         valueOf(d.ProjectID),
		"name":               d.Name,
		"description":        d.Description,
		"intent":             valueOf(d.Intent),
		"uri":                d.URI,
		"active":             d.Active,
		"data_provider_type": d.Type,
		"timeout":            d.Timeout,
		"options":            transforms.DeepCopy(d.Options),
	})
}

// DataSeries groups the data sets that share one semantics.
type DataSeries struct {
	Base
	ID             *int64
	Name           string
	Description    string
	DataProviderID *int64
	ProjectID      *int64
	Active         bool
	Semantics      semantics.Descriptor
	DataSets       []*DataSet
	DataProvider   *DataProvider
}

// NewDataSeries resolves the semantics code through registry and builds every
// data set. It fails with semantics.ErrSemanticsNotFound or ErrInvalidDataSet.
func NewDataSeries(input interface{}, registry SemanticsLookup) (*DataSeries, error) {
	p := ToParams(input)

	code := semanticsCode(p)
	desc, err := registry.Lookup(code)
	if err != nil {
		return nil, err
	}

	s := &DataSeries{
		Base:           mustBase(KindDataSeries),
		ID:             p.Int64("id"),
		Name:           p.Text("name"),
		Description:    p.Text("description"),
		DataProviderID: p.Int64("data_provider_id"),
		ProjectID:      p.Int64("project_id"),
		Active:         p.Bool(true, "active"),
		Semantics:      desc,
		DataSets:       []*DataSet{},
	}

	if rel, ok := p.Relation("DataProvider", "dataProvider", "data_provider"); ok {
		s.DataProvider = NewDataProvider(rel)
		if s.DataProviderID == nil {
			s.DataProviderID = s.DataProvider.ID
		}
	}

	items, _ := p.RelationList("DataSets", "dataSets", "datasets", "dataset_list")
	for i, item := range items {
		ds, err := NewDataSet(item)
		if err != nil {
			return nil, fmt.Errorf("data series %q data set %d: %w", s.Name, i, err)
		}
		if ds.DataSeriesID == nil && s.ID != nil {
			id := *s.ID
			ds.DataSeriesID = &id
		}
		s.DataSets = append(s.DataSets, ds)
	}

	return s, nil
}

func semanticsCode(p Params) string {
	if rel, ok := p.Relation("DataSeriesSemantic", "DataSeriesSemantics"); ok {
		return rel.Text("code")
	}
	for _, key := range []string{"semantics", "data_series_semantics"} {
		if rel, ok := p.Relation(key); ok {
			return rel.Text("code")
		}
		if code := p.Text(key); code != "" {
			return code
		}
	}
	return p.Text("semantics_code", "data_series_semantics_code")
}

// SetDataProvider attaches the provider hosting the series.
func (s *DataSeries) SetDataProvider(provider *DataProvider) {
	s.DataProvider = provider
	if provider != nil && provider.ID != nil {
		id := *provider.ID
		s.DataProviderID = &id
	}
}

func (s *DataSeries) fields() Object {
	return Object{
		"id":               valueOf(s.ID),
		"name":             s.Name,
		"description":      s.Description,
		"data_provider_id": valueOf(s.DataProviderID),
		"project_id":       valueOf(s.ProjectID),
		"semantics":        s.Semantics.Code,
		"active":           s.Active,
	}
}

func (s *DataSeries) ToObject() Object {
	out := s.object(s.fields())
	out["datasets"] = objectList(s.DataSets)
	return out
}

// RawObject adds the full semantics descriptor and raw data sets.
func (s *DataSeries) RawObject() Object {
	out := s.object(s.fields())
	out["datasets"] = rawList(s.DataSets)
	out["data_series_semantics"] = s.Semantics.Object()
	if s.DataProvider != nil {
		out["data_provider"] = s.DataProvider.ToObject()
	}
	return out
}

func (s *DataSeries) ToService() Object {
	out := s.object(s.fields())
	out["datasets"] = serviceList(s.DataSets)
	return out
}

// Validate checks data set formats against the semantics form schema and
// that every point sensor has a readable position.
func (s *DataSeries) Validate(v FormatValidator) error {
	errs := &ValidationErrors{}
	for i, ds := range s.DataSets {
		prefix := fmt.Sprintf("$.datasets[%d]", i)
		if v != nil {
			errs.Merge(prefix+".format", v.ValidateFormat(s.Semantics.Code, ds.Format))
		}
		if ds.PointSensor != nil {
			if _, err := ds.Point(); err != nil {
				errs.Add(prefix+".position", err.Error())
			}
		}
	}
	return errs.OrNil()
}
