package model

import "github.com/TerraMA2/terrama2-sub002/internal/transforms"

// LegendLevel is one class of a legend.
type LegendLevel struct {
	ID       *int64
	LegendID *int64
	Name     string
	Value    interface{}
	Level    *int64
}

func newLegendLevel(p Params) LegendLevel {
	return LegendLevel{
		ID:       p.Int64("id"),
		LegendID: p.Int64("legend_id"),
		Name:     p.Text("name"),
		Value:    transforms.OptionalNumber(p.Raw("value")),
		Level:    p.Int64("level"),
	}
}

// Legend classifies alert values into levels.
type Legend struct {
	Base
	ID          *int64
	ProjectID   *int64
	Name        string
	Description string
	Levels      []LegendLevel
}

func NewLegend(input interface{}) *Legend {
	p := ToParams(input)
	l := &Legend{
		Base:        mustBase(KindLegend),
		ID:          p.Int64("id"),
		ProjectID:   p.Int64("project_id"),
		Name:        p.Text("name"),
		Description: p.Text("description"),
		Levels:      []LegendLevel{},
	}
	items, _ := p.RelationList("LegendLevels", "levels")
	for _, item := range items {
		l.Levels = append(l.Levels, newLegendLevel(item))
	}
	return l
}

func (l *Legend) IsEmpty() bool {
	return l.ID == nil && l.Name == "" && len(l.Levels) == 0
}

func (l *Legend) ToObject() Object {
	levels := make([]interface{}, 0, len(l.Levels))
	for _, lv := range l.Levels {
		levels = append(levels, Object{
			"id":        valueOf(lv.ID),
			"legend_id": valueOf(lv.LegendID),
			"name":      lv.Name,
			"value":     lv.Value,
			"level":     valueOf(lv.Level),
		})
	}
	return l.object(Object{
		"id":          valueOf(l.ID),
		"project_id":  valueOf(l.ProjectID),
		"name":        l.Name,
		"description": l.Description,
		"levels":      levels,
	})
}

// ToService never sends level ids.
func (l *Legend) ToService() Object {
	return l.object(Object{
		"id":          valueOf(l.ID),
		"project_id":  valueOf(l.ProjectID),
		"name":        l.Name,
		"description": l.Description,
		"levels":      serviceLevels(l.Levels),
	})
}

func serviceLevels(levels []LegendLevel) []interface{} {
	out := make([]interface{}, 0, len(levels))
	for _, lv := range levels {
		out = append(out, Object{
			"name":  lv.Name,
			"value": lv.Value,
			"level": valueOf(lv.Level),
		})
	}
	return out
}

// Risk is the legend as read by the alert service.
type Risk struct {
	Base
	ID          *int64
	Name        string
	Description string
	Levels      []LegendLevel
}

// NewRisk accepts legend shaped input.
func NewRisk(input interface{}) *Risk {
	return RiskFromLegend(NewLegend(input))
}

// RiskFromLegend copies the levels of l.
func RiskFromLegend(l *Legend) *Risk {
	return &Risk{
		Base:        mustBase(KindRisk),
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Levels:      append([]LegendLevel{}, l.Levels...),
	}
}

func (r *Risk) ToObject() Object {
	return r.object(Object{
		"id":          valueOf(r.ID),
		"name":        r.Name,
		"description": r.Description,
		"levels":      serviceLevels(r.Levels),
	})
}
