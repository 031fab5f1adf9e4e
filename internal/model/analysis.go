package model

import "github.com/TerraMA2/terrama2-sub002/internal/transforms"

// AnalysisType identifies what an analysis produces.
type AnalysisType int64

const (
	AnalysisTypeDCP       AnalysisType = 1
	AnalysisTypeGrid      AnalysisType = 2
	AnalysisTypeMonitored AnalysisType = 3
)

// OutputGridClass is the class name the analysis service reads for output
// grids.
const OutputGridClass = "OutputGrid"

// AnalysisDataSeries is an input of an analysis.
type AnalysisDataSeries struct {
	Base
	ID           *int64
	DataSeriesID *int64
	AnalysisID   *int64
	Type         *int64
	Alias        string
	Metadata     map[string]interface{}
}

func NewAnalysisDataSeries(input interface{}) *AnalysisDataSeries {
	p := ToParams(input)
	a := &AnalysisDataSeries{
		Base:         mustBase(KindAnalysisDataSeries),
		ID:           p.Int64("id"),
		DataSeriesID: p.Int64("data_series_id"),
		AnalysisID:   p.Int64("analysis_id"),
		Type:         p.Int64("type", "type_id"),
		Alias:        p.Text("alias"),
		Metadata:     p.Map("AnalysisDataSeriesMetadata", "metadata"),
	}
	if rel, ok := p.Relation("AnalysisDataSeriesType", "type"); ok {
		a.Type = rel.Int64("id")
	}
	return a
}

func (a *AnalysisDataSeries) ToObject() Object {
	return a.object(Object{
		"id":             valueOf(a.ID),
		"data_series_id": valueOf(a.DataSeriesID),
		"analysis_id":    valueOf(a.AnalysisID),
		"type":           valueOf(a.Type),
		"alias":          a.Alias,
		"metadata":       transforms.DeepCopy(a.Metadata),
	})
}

func (a *AnalysisDataSeries) ToService() Object {
	out := a.ToObject()
	out["metadata"] = transforms.StringMap(a.Metadata)
	return out
}

// AnalysisOutputGrid configures the raster written by a grid analysis.
type AnalysisOutputGrid struct {
	Base
	ID                         *int64
	AnalysisID                 *int64
	InterpolationMethod        *int64
	InterpolationDummy         interface{}
	ResolutionType             *int64
	ResolutionDataSeriesID     *int64
	ResolutionX                interface{}
	ResolutionY                interface{}
	SRID                       interface{}
	AreaOfInterestType         *int64
	AreaOfInterestDataSeriesID *int64
	AreaOfInterestBox          interface{}
	AreaOfInterestBoxWKT       *string
}

func NewAnalysisOutputGrid(input interface{}) *AnalysisOutputGrid {
	p := ToParams(input)
	return &AnalysisOutputGrid{
		Base:                       mustBase(KindAnalysisOutputGrid),
		ID:                         p.Int64("id"),
		AnalysisID:                 p.Int64("analysis_id"),
		InterpolationMethod:        p.Int64("interpolation_method"),
		InterpolationDummy:         p.Raw("interpolation_dummy"),
		ResolutionType:             p.Int64("resolution_type"),
		ResolutionDataSeriesID:     p.Int64("resolution_data_series_id"),
		ResolutionX:                p.Raw("resolution_x"),
		ResolutionY:                p.Raw("resolution_y"),
		SRID:                       p.Raw("srid"),
		AreaOfInterestType:         p.Int64("area_of_interest_type"),
		AreaOfInterestDataSeriesID: p.Int64("area_of_interest_data_series_id"),
		AreaOfInterestBox:          copyValue(p.Raw("area_of_interest_box")),
		AreaOfInterestBoxWKT:       p.TextPtr("area_of_interest_box_wkt", "interestBoxWkt"),
	}
}

func (g *AnalysisOutputGrid) IsEmpty() bool {
	return g.ID == nil && g.InterpolationMethod == nil && g.ResolutionType == nil &&
		g.AreaOfInterestType == nil && g.AreaOfInterestBox == nil
}

func (g *AnalysisOutputGrid) box() interface{} {
	if g.AreaOfInterestBoxWKT != nil && *g.AreaOfInterestBoxWKT != "" {
		return *g.AreaOfInterestBoxWKT
	}
	return copyValue(g.AreaOfInterestBox)
}

// ToObject casts interpolation_dummy only when it is set so a missing dummy
// stays distinct from 0.
func (g *AnalysisOutputGrid) ToObject() Object {
	return g.object(Object{
		"id":                              valueOf(g.ID),
		"analysis_id":                     valueOf(g.AnalysisID),
		"interpolation_method":            valueOf(g.InterpolationMethod),
		"interpolation_dummy":             transforms.NumberIfTruthy(g.InterpolationDummy),
		"resolution_type":                 valueOf(g.ResolutionType),
		"resolution_data_series_id":       valueOf(g.ResolutionDataSeriesID),
		"resolution_x":                    transforms.OptionalNumber(g.ResolutionX),
		"resolution_y":                    transforms.OptionalNumber(g.ResolutionY),
		"srid":                            transforms.OptionalID(g.SRID),
		"area_of_interest_type":           valueOf(g.AreaOfInterestType),
		"area_of_interest_data_series_id": valueOf(g.AreaOfInterestDataSeriesID),
		"area_of_interest_box":            g.box(),
	})
}

func (g *AnalysisOutputGrid) RawObject() Object {
	out := g.ToObject()
	out["area_of_interest_box"] = copyValue(g.AreaOfInterestBox)
	out["area_of_interest_box_wkt"] = valueOf(g.AreaOfInterestBoxWKT)
	return out
}

func (g *AnalysisOutputGrid) ToService() Object {
	out := g.ToObject()
	out[KindKey] = OutputGridClass
	out["area_of_interest_box"] = geometryText(out["area_of_interest_box"])
	return out
}

// Analysis runs a script over input data series and writes one output series.
type Analysis struct {
	Base
	Scheduling
	ID                     *int64
	ProjectID              *int64
	Script                 string
	ScriptLanguage         map[string]interface{}
	Type                   map[string]interface{}
	Name                   string
	Description            string
	Active                 bool
	OutputDataSetID        *int64
	OutputDataSeriesID     *int64
	Metadata               map[string]interface{}
	AnalysisDataSeriesList []*AnalysisDataSeries
	ServiceInstanceID      *int64
	DataSeries             *DataSeries
	OutputGrid             *AnalysisOutputGrid
	HistoricalData         *ReprocessingHistoricalData
}

// NewAnalysis never fails. A missing output data series, output grid or
// historical range is left nil.
func NewAnalysis(input interface{}) *Analysis {
	p := ToParams(input)

	a := &Analysis{
		Base:                   mustBase(KindAnalysis),
		Scheduling:             newScheduling(p),
		ID:                     p.Int64("id"),
		ProjectID:              p.Int64("project_id"),
		Script:                 p.Text("script"),
		ScriptLanguage:         lookupObject(p, "ScriptLanguage", "script_language"),
		Type:                   lookupObject(p, "AnalysisType", "type"),
		Name:                   p.Text("name"),
		Description:            p.Text("description"),
		Active:                 p.Bool(true, "active"),
		OutputDataSetID:        p.Int64("dataset_output", "output_dataset_id"),
		OutputDataSeriesID:     p.Int64("output_dataseries_id"),
		Metadata:               p.Map("AnalysisMetadata", "metadata"),
		AnalysisDataSeriesList: []*AnalysisDataSeries{},
		ServiceInstanceID:      p.Int64("instance_id", "service_instance_id"),
	}

	items, _ := p.RelationList("AnalysisDataSeries", "AnalysisDataSeriesList", "analysis_dataseries_list", "analysisDataSeries")
	for _, item := range items {
		a.AnalysisDataSeriesList = append(a.AnalysisDataSeriesList, NewAnalysisDataSeries(item))
	}

	if ds, ok := p["dataSeries"].(*DataSeries); ok && ds != nil {
		a.SetDataSeries(ds)
	}

	if rel, ok := p.Relation("AnalysisOutputGrid", "outputGrid", "output_grid"); ok && len(rel) > 0 {
		if grid := NewAnalysisOutputGrid(rel); !grid.IsEmpty() {
			a.OutputGrid = grid
		}
	}

	if rel, ok := p.Relation("ReprocessingHistoricalDatum", "historicalData", "reprocessing_historical_data"); ok {
		if h := NewReprocessingHistoricalData(rel); !h.IsEmpty() {
			a.HistoricalData = h
		}
	}
	return a
}

// lookupObject reads a lookup-table relation, which the normalized shape may
// carry as a bare id.
func lookupObject(p Params, keys ...string) map[string]interface{} {
	if rel, ok := p.Relation(keys...); ok {
		return transforms.DeepCopy(rel)
	}
	if id := p.Int64(keys...); id != nil {
		return map[string]interface{}{"id": *id}
	}
	return map[string]interface{}{}
}

// SetDataSeries attaches the output data series.
func (a *Analysis) SetDataSeries(ds *DataSeries) {
	a.DataSeries = ds
	if ds != nil && ds.ID != nil {
		id := *ds.ID
		a.OutputDataSeriesID = &id
	}
}

// AddAnalysisDataSeries appends an input.
func (a *Analysis) AddAnalysisDataSeries(ads *AnalysisDataSeries) {
	a.AnalysisDataSeriesList = append(a.AnalysisDataSeriesList, ads)
}

// TypeID returns the analysis type, or 0 when unknown.
func (a *Analysis) TypeID() AnalysisType {
	id, err := transforms.ToInt64(a.Type["id"])
	if err != nil {
		return 0
	}
	return AnalysisType(id)
}

func (a *Analysis) fields() Object {
	out := Object{
		"id":                   valueOf(a.ID),
		"project_id":           valueOf(a.ProjectID),
		"script":               a.Script,
		"script_language":      transforms.OptionalID(a.ScriptLanguage["id"]),
		"type":                 transforms.OptionalID(a.Type["id"]),
		"name":                 a.Name,
		"description":          a.Description,
		"active":               a.Active,
		"output_dataseries_id": valueOf(a.OutputDataSeriesID),
		"output_dataset_id":    valueOf(a.OutputDataSetID),
		"service_instance_id":  valueOf(a.ServiceInstanceID),
	}
	a.scheduleFields(out)
	return out
}

func (a *Analysis) ToObject() Object {
	out := a.object(a.fields())
	out["metadata"] = transforms.DeepCopy(a.Metadata)
	out["analysis_dataseries_list"] = objectList(a.AnalysisDataSeriesList)
	out["output_grid"] = nil
	if a.OutputGrid != nil {
		out["output_grid"] = a.OutputGrid.ToObject()
	}
	out["reprocessing_historical_data"] = nil
	if a.HistoricalData != nil {
		out["reprocessing_historical_data"] = a.HistoricalData.ToObject()
	}
	return out
}

// RawObject adds the output data series and the full type record.
func (a *Analysis) RawObject() Object {
	out := a.ToObject()
	out["type"] = transforms.DeepCopy(a.Type)
	out["dataSeries"] = Object{}
	if a.DataSeries != nil {
		out["dataSeries"] = a.DataSeries.RawObject()
	}
	if a.OutputGrid != nil {
		out["output_grid"] = a.OutputGrid.RawObject()
	}
	return out
}

// ToService renders metadata values as strings and omits relations that are
// not set.
func (a *Analysis) ToService() Object {
	out := a.object(a.fields())
	out["schedule_type"] = transforms.OptionalNumber(valueOf(a.ScheduleType))
	out["metadata"] = transforms.StringMap(a.Metadata)
	out["analysis_dataseries_list"] = serviceList(a.AnalysisDataSeriesList)
	if a.OutputGrid != nil {
		out["output_grid"] = a.OutputGrid.ToService()
	}
	if a.HistoricalData != nil {
		out["reprocessing_historical_data"] = a.HistoricalData.ToObject()
	}
	return out
}
