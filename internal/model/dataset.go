package model

import (
	"fmt"

	"github.com/TerraMA2/terrama2-sub002/internal/transforms"

	"github.com/paulmach/orb"
)

// Variant is the concrete kind of a data set.
type Variant string

const (
	VariantPointSensor     Variant = "POINT_SENSOR"
	VariantMonitoredObject Variant = "MONITORED_OBJECT"
	VariantGrid            Variant = "GRID"
	VariantOccurrence      Variant = "OCCURRENCE"
)

// AnalysisOutputTypes are the data set type markers of analysis outputs.
var AnalysisOutputTypes = [2]string{"GRID", "ANALYSIS_MONITORED_OBJECT"}

// DataSetRule is one discriminator of the data set factory.
type DataSetRule struct {
	Name    string
	Variant Variant
	Matches func(Params) bool
}

// dataSetRules is evaluated top to bottom, first match wins. A record with a
// position and the time/geometry column pair is a point sensor.
var dataSetRules = []DataSetRule{
	{Name: "position", Variant: VariantPointSensor, Matches: func(p Params) bool {
		return present(p, "position")
	}},
	{Name: "time_and_geometry_columns", Variant: VariantMonitoredObject, Matches: func(p Params) bool {
		return present(p, "time_column") && present(p, "geometry_column")
	}},
	{Name: "analysis_output_type", Variant: VariantGrid, Matches: func(p Params) bool {
		t := p.Text("type")
		return t == AnalysisOutputTypes[0] || t == AnalysisOutputTypes[1]
	}},
	{Name: "positive_id", Variant: VariantOccurrence, Matches: func(p Params) bool {
		v, ok := p.Value("id")
		if !ok {
			return false
		}
		switch v.(type) {
		case bool, nil:
			return false
		}
		f, err := transforms.ToFloat64(v)
		return err == nil && f > 0
	}},
}

// DataSetRules returns the factory rules in evaluation order.
func DataSetRules() []DataSetRule {
	out := make([]DataSetRule, len(dataSetRules))
	copy(out, dataSetRules)
	return out
}

func present(p Params, key string) bool {
	v, ok := p.Value(key)
	if !ok {
		return false
	}
	if s, isString := v.(string); isString {
		return s != ""
	}
	return true
}

// dataSetRelations are the per-variant storage tables joined to a data set row.
var dataSetRelations = []string{"DataSetDcp", "DataSetOccurrence", "DataSetMonitored", "DataSetGrid"}

// flattenDataSet merges pre-joined variant rows into one mapping.
func flattenDataSet(p Params) Params {
	flat := make(Params, len(p))
	for k, v := range p {
		flat[k] = v
	}
	for _, rel := range dataSetRelations {
		sub, ok := p.Relation(rel)
		if !ok {
			continue
		}
		for k, v := range sub {
			if k == "id" || k == "data_set_id" || isNil(v) {
				continue
			}
			flat[k] = v
		}
	}
	return flat
}

// ClassifyDataSet returns the variant the factory would build for input.
func ClassifyDataSet(input interface{}) (Variant, error) {
	p := flattenDataSet(ToParams(input))
	for _, rule := range dataSetRules {
		if rule.Matches(p) {
			return rule.Variant, nil
		}
	}
	return "", NewDomainError(ErrInvalidDataSet, "no data set rule matches the input")
}

// PointSensorFields are carried by point-sensor (DCP) data sets.
type PointSensorFields struct {
	Position    interface{}
	PositionWKT *string
}

// MonitoredObjectFields are carried by monitored-object data sets.
type MonitoredObjectFields struct {
	TimeColumn     string
	GeometryColumn string
	IDColumn       *string
}

// DataSet is one physical record source of a data series. Exactly one of
// the variant field groups is set, matching Variant.
type DataSet struct {
	Base
	Variant         Variant
	Type            string // grid marker, one of AnalysisOutputTypes
	ID              *int64
	DataSeriesID    *int64
	Active          bool
	Format          map[string]interface{}
	PointSensor     *PointSensorFields
	MonitoredObject *MonitoredObjectFields
}

// NewDataSet builds the data set variant implied by the input fields.
func NewDataSet(input interface{}) (*DataSet, error) {
	p := flattenDataSet(ToParams(input))

	variant, err := ClassifyDataSet(p)
	if err != nil {
		return nil, err
	}

	ds := &DataSet{
		Base:         mustBase(KindDataSet),
		Variant:      variant,
		ID:           p.Int64("id"),
		DataSeriesID: p.Int64("data_series_id"),
		Active:       p.Bool(true, "active"),
		Format:       p.Map("DataSetFormats", "format", "dataSetFormats"),
	}

	switch variant {
	case VariantGrid:
		ds.Type = p.Text("type")
	case VariantPointSensor:
		ds.PointSensor = &PointSensorFields{
			Position:    copyValue(p.Raw("position")),
			PositionWKT: p.TextPtr("position_wkt", "positionWkt"),
		}
	case VariantMonitoredObject:
		ds.MonitoredObject = &MonitoredObjectFields{
			TimeColumn:     p.Text("time_column"),
			GeometryColumn: p.Text("geometry_column"),
			IDColumn:       p.TextPtr("id_column"),
		}
	}
	return ds, nil
}

func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Params:
		return transforms.DeepCopy(val)
	case map[string]interface{}:
		return transforms.DeepCopy(val)
	}
	return v
}

// Point parses the sensor position. Only point-sensor data sets have one.
func (d *DataSet) Point() (orb.Point, error) {
	if d.PointSensor == nil {
		return orb.Point{}, fmt.Errorf("data set variant %s has no position", d.Variant)
	}
	if d.PointSensor.PositionWKT != nil && *d.PointSensor.PositionWKT != "" {
		return ParsePoint(*d.PointSensor.PositionWKT)
	}
	return ParsePoint(d.PointSensor.Position)
}

func (d *DataSet) fields(format map[string]interface{}) Object {
	out := Object{
		"id":             valueOf(d.ID),
		"data_series_id": valueOf(d.DataSeriesID),
		"active":         d.Active,
		"format":         format,
	}
	if d.Variant == VariantGrid {
		out["type"] = d.Type
	}
	if d.MonitoredObject != nil {
		out["time_column"] = d.MonitoredObject.TimeColumn
		out["geometry_column"] = d.MonitoredObject.GeometryColumn
		out["id_column"] = valueOf(d.MonitoredObject.IDColumn)
	}
	return out
}

// ToObject projects the data set. A point sensor exposes its WKT position
// when known and the stored value otherwise.
func (d *DataSet) ToObject() Object {
	out := d.object(d.fields(transforms.DeepCopy(d.Format)))
	if d.PointSensor != nil {
		if d.PointSensor.PositionWKT != nil && *d.PointSensor.PositionWKT != "" {
			out["position"] = *d.PointSensor.PositionWKT
		} else {
			out["position"] = copyValue(d.PointSensor.Position)
		}
	}
	return out
}

// RawObject keeps the stored position and the variant name.
func (d *DataSet) RawObject() Object {
	out := d.object(d.fields(transforms.DeepCopy(d.Format)))
	out["variant"] = string(d.Variant)
	if d.PointSensor != nil {
		out["position"] = copyValue(d.PointSensor.Position)
		out["position_wkt"] = valueOf(d.PointSensor.PositionWKT)
	}
	return out
}

// ToService renders format values as strings, as the native services read
// them.
func (d *DataSet) ToService() Object {
	out := d.ToObject()
	out["format"] = transforms.StringMap(d.Format)
	if d.PointSensor != nil {
		out["position"] = geometryText(out["position"])
	}
	return out
}
