package semantics

import (
	"strings"

	"github.com/TerraMA2/terrama2-sub002/internal/transforms"
)

// Temporality tells whether a data series grows over time.
type Temporality string

const (
	TemporalityStatic  Temporality = "STATIC"
	TemporalityDynamic Temporality = "DYNAMIC"
)

// Data series types a descriptor can declare.
const (
	TypeDCP                     = "DCP"
	TypeOccurrence              = "OCCURRENCE"
	TypeGrid                    = "GRID"
	TypeAnalysisMonitoredObject = "ANALYSIS_MONITORED_OBJECT"
	TypeGeometricObject         = "GEOMETRIC_OBJECT"
	TypePostGIS                 = "POSTGIS"
)

// Descriptor describes one supported data format and type combination.
type Descriptor struct {
	Code              string                 `json:"code" yaml:"code"`
	Name              string                 `json:"name" yaml:"name"`
	Driver            string                 `json:"driver" yaml:"driver"`
	DataSeriesType    string                 `json:"type" yaml:"type"`
	Format            string                 `json:"format" yaml:"format"`
	Temporality       Temporality            `json:"temporality" yaml:"temporality"`
	AllowStorage      bool                   `json:"allow_storage" yaml:"allow_storage"`
	AllowDirectAccess bool                   `json:"allow_direct_access" yaml:"allow_direct_access"`
	CustomFormat      bool                   `json:"custom_format" yaml:"custom_format"`
	Collector         bool                   `json:"collector" yaml:"collector"`
	ProvidersTypeList []string               `json:"providers_type_list" yaml:"providers_type_list"`
	Metadata          map[string]interface{} `json:"metadata" yaml:"metadata"`
	GUI               *GUI                   `json:"gui" yaml:"gui"`
}

// GUI holds the dynamic form used by the web UI to edit a data set format.
type GUI struct {
	Form     []interface{}          `json:"form" yaml:"form"`
	Schema   map[string]interface{} `json:"schema" yaml:"schema"`
	Demand   []string               `json:"demand" yaml:"demand"`
	Metadata map[string]interface{} `json:"metadata" yaml:"metadata"`
}

func (d *Descriptor) normalize() {
	d.Code = strings.TrimSpace(d.Code)
	d.Temporality = Temporality(strings.ToUpper(string(d.Temporality)))
	if d.Temporality == "" {
		d.Temporality = TemporalityDynamic
	}
	if d.ProvidersTypeList == nil {
		d.ProvidersTypeList = []string{}
	}
	if d.Metadata == nil {
		d.Metadata = map[string]interface{}{}
	}
}

// ProviderTypes returns the provider types that may host this format.
func (d Descriptor) ProviderTypes() []string {
	if len(d.ProvidersTypeList) > 0 {
		return append([]string(nil), d.ProvidersTypeList...)
	}
	if d.GUI != nil {
		return append([]string(nil), d.GUI.Demand...)
	}
	return []string{}
}

// IsStatic reports whether the format describes static data.
func (d Descriptor) IsStatic() bool {
	return d.Temporality == TemporalityStatic
}

// Object returns the descriptor as a plain mapping, the form embedded in a
// data series raw projection.
func (d Descriptor) Object() map[string]interface{} {
	out := map[string]interface{}{
		"code":                d.Code,
		"name":                d.Name,
		"driver":              d.Driver,
		"data_series_type":    d.DataSeriesType,
		"format":              d.Format,
		"temporality":         string(d.Temporality),
		"allow_storage":       d.AllowStorage,
		"allow_direct_access": d.AllowDirectAccess,
		"custom_format":       d.CustomFormat,
		"collector":           d.Collector,
		"providers_type_list": d.ProviderTypes(),
		"metadata":            transforms.DeepCopy(d.Metadata),
	}
	if d.GUI != nil {
		form := make([]interface{}, len(d.GUI.Form))
		copy(form, d.GUI.Form)
		out["gui"] = map[string]interface{}{
			"form":     form,
			"schema":   transforms.DeepCopy(d.GUI.Schema),
			"demand":   append([]string{}, d.GUI.Demand...),
			"metadata": transforms.DeepCopy(d.GUI.Metadata),
		}
	}
	return out
}
