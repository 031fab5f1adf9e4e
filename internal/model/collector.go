package model

import (
	"strconv"

	"github.com/TerraMA2/terrama2-sub002/internal/transforms"
)

// Filter restricts the data a collector keeps.
type Filter struct {
	Base
	ID            *int64
	CollectorID   *int64
	DataSeriesID  *int64
	DiscardBefore *string
	DiscardAfter  *string
	Region        interface{}
	RegionWKT     *string
	ByValue       *string
	CropRaster    bool
}

func NewFilter(input interface{}) *Filter {
	p := ToParams(input)
	return &Filter{
		Base:          mustBase(KindFilter),
		ID:            p.Int64("id"),
		CollectorID:   p.Int64("collector_id"),
		DataSeriesID:  p.Int64("data_series_id"),
		DiscardBefore: p.Timestamp("discard_before"),
		DiscardAfter:  p.Timestamp("discard_after"),
		Region:        copyValue(p.Raw("region")),
		RegionWKT:     p.TextPtr("region_wkt", "regionWkt"),
		ByValue:       p.TextPtr("by_value"),
		CropRaster:    p.Bool(false, "crop_raster"),
	}
}

func (f *Filter) IsEmpty() bool {
	return f.ID == nil && f.DiscardBefore == nil && f.DiscardAfter == nil &&
		f.Region == nil && f.RegionWKT == nil && f.ByValue == nil
}

func (f *Filter) region() interface{} {
	if f.RegionWKT != nil && *f.RegionWKT != "" {
		return *f.RegionWKT
	}
	return copyValue(f.Region)
}

func (f *Filter) ToObject() Object {
	return f.object(Object{
		"id":             valueOf(f.ID),
		"collector_id":   valueOf(f.CollectorID),
		"data_series_id": valueOf(f.DataSeriesID),
		"discard_before": valueOf(f.DiscardBefore),
		"discard_after":  valueOf(f.DiscardAfter),
		"region":         f.region(),
		"by_value":       valueOf(f.ByValue),
		"crop_raster":    f.CropRaster,
	})
}

// ToService writes the region as WKT.
func (f *Filter) ToService() Object {
	out := f.ToObject()
	out["region"] = geometryText(out["region"])
	return out
}

// Intersection names an attribute of a data series intersected with the
// collected data.
type Intersection struct {
	Base
	ID           *int64
	CollectorID  *int64
	DataSeriesID *int64
	Attribute    string
}

func NewIntersection(input interface{}) *Intersection {
	p := ToParams(input)
	return &Intersection{
		Base:         mustBase(KindIntersection),
		ID:           p.Int64("id"),
		CollectorID:  p.Int64("collector_id"),
		DataSeriesID: p.Int64("dataseries_id", "data_series_id"),
		Attribute:    p.Text("attribute"),
	}
}

func (i *Intersection) ToObject() Object {
	return i.object(Object{
		"id":            valueOf(i.ID),
		"collector_id":  valueOf(i.CollectorID),
		"dataseries_id": valueOf(i.DataSeriesID),
		"attribute":     i.Attribute,
	})
}

// InputOutput maps an input data set to the data set it is stored into.
type InputOutput struct {
	InputDataSet  *int64
	OutputDataSet *int64
}

// Collector copies data from a remote provider into storage.
type Collector struct {
	Base
	Scheduling
	ID                *int64
	ProjectID         *int64
	ServiceInstanceID *int64
	DataSeriesInput   *int64
	DataSeriesOutput  *int64
	InputOutputMap    []InputOutput
	Filter            *Filter
	Intersections     []*Intersection
	Active            bool
	CollectorType     *int64
}

func NewCollector(input interface{}) *Collector {
	p := ToParams(input)

	c := &Collector{
		Base:              mustBase(KindCollector),
		Scheduling:        newScheduling(p),
		ID:                p.Int64("id"),
		ProjectID:         p.Int64("project_id"),
		ServiceInstanceID: p.Int64("service_instance_id"),
		DataSeriesInput:   p.Int64("data_series_input"),
		DataSeriesOutput:  p.Int64("data_series_output"),
		InputOutputMap:    []InputOutput{},
		Intersections:     []*Intersection{},
		Active:            p.Bool(true, "active"),
		CollectorType:     p.Int64("collector_type"),
	}

	filter, _ := p.Relation("Filter", "filter")
	c.Filter = NewFilter(filter)

	pairs, _ := p.RelationList("CollectorInputOutputs", "input_output_map", "inputOutputMap")
	for _, pair := range pairs {
		c.InputOutputMap = append(c.InputOutputMap, InputOutput{
			InputDataSet:  pair.Int64("input_dataset", "input"),
			OutputDataSet: pair.Int64("output_dataset", "output"),
		})
	}

	items, _ := p.RelationList("Intersections", "intersection", "intersections")
	for _, item := range items {
		c.Intersections = append(c.Intersections, NewIntersection(item))
	}
	return c
}

func (c *Collector) fields() Object {
	out := Object{
		"id":                  valueOf(c.ID),
		"project_id":          valueOf(c.ProjectID),
		"service_instance_id": valueOf(c.ServiceInstanceID),
		"active":              c.Active,
		"collector_type":      valueOf(c.CollectorType),
	}
	c.scheduleFields(out)
	return out
}

func (c *Collector) ToObject() Object {
	out := c.object(c.fields())
	out["data_series_input"] = valueOf(c.DataSeriesInput)
	out["data_series_output"] = valueOf(c.DataSeriesOutput)

	pairs := make([]interface{}, 0, len(c.InputOutputMap))
	for _, pair := range c.InputOutputMap {
		pairs = append(pairs, Object{
			"input_dataset":  valueOf(pair.InputDataSet),
			"output_dataset": valueOf(pair.OutputDataSet),
		})
	}
	out["input_output_map"] = pairs
	out["filter"] = c.Filter.ToObject()
	out["intersection"] = objectList(c.Intersections)
	return out
}

// ToService renames the data series keys, shortens the input/output pairs and
// groups intersection attributes by data series id.
func (c *Collector) ToService() Object {
	out := c.object(c.fields())
	out["input_data_series"] = valueOf(c.DataSeriesInput)
	out["output_data_series"] = valueOf(c.DataSeriesOutput)
	out["schedule_type"] = transforms.OptionalNumber(valueOf(c.ScheduleType))

	pairs := make([]interface{}, 0, len(c.InputOutputMap))
	for _, pair := range c.InputOutputMap {
		pairs = append(pairs, Object{
			"input":  valueOf(pair.InputDataSet),
			"output": valueOf(pair.OutputDataSet),
		})
	}
	out["input_output_map"] = pairs
	out["filter"] = c.Filter.ToService()
	out["intersection"] = c.intersectionGroups()
	return out
}

func (c *Collector) intersectionGroups() Object {
	groups := Object{}
	for _, in := range c.Intersections {
		if in.DataSeriesID == nil {
			continue
		}
		key := strconv.FormatInt(*in.DataSeriesID, 10)
		attrs, _ := groups[key].([]string)
		groups[key] = append(attrs, in.Attribute)
	}
	return groups
}
