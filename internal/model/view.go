package model

import "github.com/TerraMA2/terrama2-sub002/internal/transforms"

// ViewStyleColor is one color stop of a view legend.
type ViewStyleColor struct {
	ID          *int64
	ViewStyleID *int64
	Title       string
	Color       string
	Value       interface{}
	IsDefault   bool
}

// ViewStyleLegend styles the layer published by a view.
type ViewStyleLegend struct {
	Base
	ID          *int64
	ViewID      *int64
	OperationID *int64
	Type        *int64
	Column      *string
	BandNumber  *int64
	Classify    *int64
	Colors      []ViewStyleColor
	Metadata    map[string]interface{}
}

func NewViewStyleLegend(input interface{}) *ViewStyleLegend {
	p := ToParams(input)
	l := &ViewStyleLegend{
		Base:        mustBase(KindViewStyleLegend),
		ID:          p.Int64("id"),
		ViewID:      p.Int64("view_id"),
		OperationID: p.Int64("operation_id"),
		Type:        p.Int64("type_id", "type"),
		Column:      p.TextPtr("column"),
		BandNumber:  p.Int64("band_number"),
		Classify:    p.Int64("classify"),
		Colors:      []ViewStyleColor{},
		Metadata:    p.Map("ViewStyleLegendMetadata", "metadata"),
	}
	colors, _ := p.RelationList("ViewStyleColors", "colors")
	for _, c := range colors {
		l.Colors = append(l.Colors, ViewStyleColor{
			ID:          c.Int64("id"),
			ViewStyleID: c.Int64("view_style_id"),
			Title:       c.Text("title"),
			Color:       c.Text("color"),
			Value:       copyValue(c.Raw("value")),
			IsDefault:   c.Bool(false, "isDefault", "is_default"),
		})
	}
	return l
}

func (l *ViewStyleLegend) IsEmpty() bool {
	return l.ID == nil && l.OperationID == nil && len(l.Colors) == 0
}

func (l *ViewStyleLegend) fields() Object {
	return Object{
		"id":           valueOf(l.ID),
		"view_id":      valueOf(l.ViewID),
		"operation_id": valueOf(l.OperationID),
		"type":         valueOf(l.Type),
		"column":       valueOf(l.Column),
		"band_number":  valueOf(l.BandNumber),
		"classify":     valueOf(l.Classify),
	}
}

func (l *ViewStyleLegend) ToObject() Object {
	out := l.object(l.fields())
	colors := make([]interface{}, 0, len(l.Colors))
	for _, c := range l.Colors {
		colors = append(colors, Object{
			"id":            valueOf(c.ID),
			"view_style_id": valueOf(c.ViewStyleID),
			"title":         c.Title,
			"color":         c.Color,
			"value":         c.Value,
			"isDefault":     c.IsDefault,
		})
	}
	out["colors"] = colors
	out["metadata"] = transforms.DeepCopy(l.Metadata)
	return out
}

// ToService drops the color ids and renders metadata as strings.
func (l *ViewStyleLegend) ToService() Object {
	out := l.object(l.fields())
	colors := make([]interface{}, 0, len(l.Colors))
	for _, c := range l.Colors {
		colors = append(colors, Object{
			"title":     c.Title,
			"color":     c.Color,
			"value":     c.Value,
			"isDefault": c.IsDefault,
		})
	}
	out["colors"] = colors
	out["metadata"] = transforms.StringMap(l.Metadata)
	return out
}

// View publishes a data series as a map layer.
type View struct {
	Base
	Scheduling
	ID                *int64
	ProjectID         *int64
	ServiceInstanceID *int64
	DataSeriesID      *int64
	Name              string
	Description       string
	Active            bool
	Style             *string
	Private           bool
	SourceType        *int64
	SRID              interface{}
	Legend            *ViewStyleLegend
	RegisteredView    *RegisteredView
}

func NewView(input interface{}) *View {
	p := ToParams(input)
	v := &View{
		Base:              mustBase(KindView),
		Scheduling:        newScheduling(p),
		ID:                p.Int64("id"),
		ProjectID:         p.Int64("project_id"),
		ServiceInstanceID: p.Int64("service_instance_id"),
		DataSeriesID:      p.Int64("data_series_id"),
		Name:              p.Text("name"),
		Description:       p.Text("description"),
		Active:            p.Bool(true, "active"),
		Style:             p.TextPtr("style"),
		Private:           p.Bool(false, "private"),
		SourceType:        p.Int64("source_type"),
		SRID:              p.Raw("srid"),
	}
	if rel, ok := p.Relation("ViewStyleLegend", "legend"); ok {
		if legend := NewViewStyleLegend(rel); !legend.IsEmpty() {
			v.Legend = legend
		}
	}
	if rel, ok := p.Relation("RegisteredView", "RegisteredViews", "registeredView", "registered_view"); ok {
		v.RegisteredView = NewRegisteredView(rel)
	}
	return v
}

func (v *View) IsEmpty() bool {
	return v.ID == nil && v.Name == "" && v.DataSeriesID == nil
}

// SetLegend attaches the layer style.
func (v *View) SetLegend(legend *ViewStyleLegend) {
	v.Legend = legend
}

func (v *View) fields() Object {
	out := Object{
		"id":                  valueOf(v.ID),
		"project_id":          valueOf(v.ProjectID),
		"service_instance_id": valueOf(v.ServiceInstanceID),
		"data_series_id":      valueOf(v.DataSeriesID),
		"name":                v.Name,
		"description":         v.Description,
		"active":              v.Active,
		"style":               valueOf(v.Style),
		"private":             v.Private,
		"source_type":         valueOf(v.SourceType),
		"srid":                transforms.OptionalID(v.SRID),
	}
	v.scheduleFields(out)
	return out
}

func (v *View) ToObject() Object {
	out := v.object(v.fields())
	out["legend"] = nil
	if v.Legend != nil {
		out["legend"] = v.Legend.ToObject()
	}
	return out
}

func (v *View) RawObject() Object {
	out := v.ToObject()
	if v.RegisteredView != nil {
		out["registered_view"] = v.RegisteredView.ToObject()
	}
	return out
}

func (v *View) ToService() Object {
	out := v.object(v.fields())
	out["schedule_type"] = transforms.OptionalNumber(valueOf(v.ScheduleType))
	out["legend"] = nil
	if v.Legend != nil {
		out["legend"] = v.Legend.ToService()
	}
	return out
}

// RegisteredView is a layer already published by the view service.
type RegisteredView struct {
	Base
	ID             *int64
	ViewID         *int64
	Workspace      string
	URI            string
	DataSeriesType string
	Layers         []string
	View           *View
}

func NewRegisteredView(input interface{}) *RegisteredView {
	p := ToParams(input)
	r := &RegisteredView{
		Base:           mustBase(KindRegisteredView),
		ID:             p.Int64("id"),
		ViewID:         p.Int64("view_id"),
		Workspace:      p.Text("workspace"),
		URI:            p.Text("uri"),
		DataSeriesType: p.Text("data_series_type"),
		Layers:         []string{},
	}
	for _, item := range p.List("Layers", "layers") {
		if layer, ok := item.(string); ok {
			r.Layers = append(r.Layers, layer)
			continue
		}
		if name := ToParams(item).Text("name"); name != "" {
			r.Layers = append(r.Layers, name)
		}
	}
	if rel, ok := p.Relation("View", "view"); ok {
		r.View = NewView(rel)
	}
	return r
}

func (r *RegisteredView) ToObject() Object {
	return r.object(Object{
		"id":               valueOf(r.ID),
		"view_id":          valueOf(r.ViewID),
		"workspace":        r.Workspace,
		"uri":              r.URI,
		"data_series_type": r.DataSeriesType,
		"layers":           append([]string{}, r.Layers...),
		"view":             objectOrNil(r.View),
	})
}
