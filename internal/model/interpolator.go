package model

import (
	"encoding/json"
	"strconv"

	"github.com/TerraMA2/terrama2-sub002/internal/transforms"
)

// InterpolatorStrategy selects the interpolation algorithm.
type InterpolatorStrategy int64

const (
	InterpolatorNearestNeighbor         InterpolatorStrategy = 1
	InterpolatorAverageNeighbor         InterpolatorStrategy = 2
	InterpolatorWeightedAverageNeighbor InterpolatorStrategy = 3
)

// Interpolator builds a grid from point data series.
type Interpolator struct {
	Base
	Scheduling
	ID                     *int64
	ProjectID              *int64
	ServiceInstanceID      *int64
	Active                 bool
	DataSeriesInput        *int64
	DataSeriesOutput       *int64
	BoundingRect           interface{}
	InterpolationAttribute *string
	InterpolatorStrategy   interface{}
	ResolutionX            interface{}
	ResolutionY            interface{}
	SRID                   interface{}
	Metadata               map[string]interface{}
	InputDataSeries        *DataSeries
	OutputDataSeries       *DataSeries
}

// NewInterpolator casts every metadata value to a number.
func NewInterpolator(input interface{}) *Interpolator {
	p := ToParams(input)

	metadata := map[string]interface{}{}
	for k, v := range p.Map("InterpolatorMetadata", "interpolator_metadata", "metadata") {
		metadata[k] = transforms.Number(v)
	}

	return &Interpolator{
		Base:                   mustBase(KindInterpolator),
		Scheduling:             newScheduling(p),
		ID:                     p.Int64("id"),
		ProjectID:              p.Int64("project_id"),
		ServiceInstanceID:      p.Int64("service_instance_id"),
		Active:                 p.Bool(true, "active"),
		DataSeriesInput:        p.Int64("data_series_input"),
		DataSeriesOutput:       p.Int64("data_series_output"),
		BoundingRect:           copyValue(p.Raw("bounding_rect")),
		InterpolationAttribute: p.TextPtr("interpolation_attribute"),
		InterpolatorStrategy:   p.Raw("interpolator_strategy"),
		ResolutionX:            p.Raw("resolution_x"),
		ResolutionY:            p.Raw("resolution_y"),
		SRID:                   p.Raw("srid"),
		Metadata:               metadata,
	}
}

// SetDataSeries attaches the input and output series for the raw projection.
func (i *Interpolator) SetDataSeries(input, output *DataSeries) {
	i.InputDataSeries = input
	i.OutputDataSeries = output
}

// boundingRect decodes the rectangle, which storage keeps as JSON text.
func (i *Interpolator) boundingRect() interface{} {
	text, ok := i.BoundingRect.(string)
	if !ok {
		return copyValue(i.BoundingRect)
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil
	}
	return decoded
}

func (i *Interpolator) ToObject() Object {
	out := i.object(Object{
		"id":                      valueOf(i.ID),
		"project_id":              valueOf(i.ProjectID),
		"service_instance_id":     valueOf(i.ServiceInstanceID),
		"active":                  i.Active,
		"data_series_input":       valueOf(i.DataSeriesInput),
		"data_series_output":      valueOf(i.DataSeriesOutput),
		"bounding_rect":           copyValue(i.BoundingRect),
		"interpolation_attribute": valueOf(i.InterpolationAttribute),
		"interpolator_strategy":   transforms.Number(i.InterpolatorStrategy),
		"resolution_x":            transforms.Number(i.ResolutionX),
		"resolution_y":            transforms.Number(i.ResolutionY),
		"srid":                    transforms.Number(i.SRID),
		"metadata":                transforms.DeepCopy(i.Metadata),
	})
	i.scheduleFields(out)
	out["schedule_type"] = transforms.Number(valueOf(i.ScheduleType))
	return out
}

func (i *Interpolator) RawObject() Object {
	out := i.ToObject()
	out["dataSeriesInput"] = objectOrNil(i.InputDataSeries)
	out["dataSeriesOutput"] = objectOrNil(i.OutputDataSeries)
	return out
}

// ToService sends active as text and lifts the neighbor settings out of the
// metadata.
func (i *Interpolator) ToService() Object {
	return i.object(Object{
		"id":                      valueOf(i.ID),
		"active":                  strconv.FormatBool(i.Active),
		"project_id":              valueOf(i.ProjectID),
		"service_instance_id":     valueOf(i.ServiceInstanceID),
		"bounding_rect":           i.boundingRect(),
		"input_data_series":       valueOf(i.DataSeriesInput),
		"output_data_series":      valueOf(i.DataSeriesOutput),
		"interpolation_attribute": valueOf(i.InterpolationAttribute),
		"interpolator_strategy":   transforms.Number(i.InterpolatorStrategy),
		"resolution_x":            transforms.Number(i.ResolutionX),
		"resolution_y":            transforms.Number(i.ResolutionY),
		"srid":                    transforms.Number(i.SRID),
		"number_of_neighbors":     i.Metadata["number_of_neighbors"],
		"power_factor":            i.Metadata["power_factor"],
		"filter":                  "",
	})
}
