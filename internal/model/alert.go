package model

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/transforms"
)

// ListSeparator joins attribute and recipient lists in storage.
const ListSeparator = ";"

// WorkspacePrefix prefixes the map server workspace of every view layer.
const WorkspacePrefix = "terrama2_"

// AlertAttachedView is a view rendered with the alert report.
type AlertAttachedView struct {
	Base
	ID         *int64
	AlertID    *int64
	ViewID     *int64
	LayerOrder *int64
	MapsServer string
}

func NewAlertAttachedView(input interface{}) *AlertAttachedView {
	p := ToParams(input)
	a := &AlertAttachedView{
		Base:       mustBase(KindAlertAttachedView),
		ID:         p.Int64("id"),
		AlertID:    p.Int64("alert_id"),
		ViewID:     p.Int64("view_id"),
		LayerOrder: p.Int64("layer_order"),
		MapsServer: p.Text("maps_server"),
	}
	if view, ok := p.Relation("View", "view"); ok {
		if a.ViewID == nil {
			a.ViewID = view.Int64("id")
		}
		if a.MapsServer == "" {
			a.MapsServer = mapsServerOf(view)
		}
	}
	return a
}

// mapsServerOf reads the maps_server metadata of the service instance
// hosting a view.
func mapsServerOf(view Params) string {
	instance, ok := view.Relation("ServiceInstance", "service_instance")
	if !ok {
		return ""
	}
	return Params(instance.Map("ServiceMetadata", "metadata")).Text("maps_server")
}

func (a *AlertAttachedView) ToObject() Object {
	return a.object(Object{
		"id":          valueOf(a.ID),
		"alert_id":    valueOf(a.AlertID),
		"view_id":     valueOf(a.ViewID),
		"layer_order": valueOf(a.LayerOrder),
	})
}

// ToService returns the layer entry of the alert view block.
func (a *AlertAttachedView) ToService() Object {
	return layerEntry(valueOf(a.ViewID))
}

func layerEntry(viewID interface{}) Object {
	return Object{
		"view_id":   viewID,
		"workspace": fmt.Sprintf("%s%v", WorkspacePrefix, viewID),
	}
}

// Alert evaluates a data series against a legend and notifies recipients.
type Alert struct {
	Base
	Scheduling
	ID                  *int64
	ProjectID           *int64
	ServiceInstanceID   *int64
	DataSeriesID        *int64
	ViewID              *int64
	Active              bool
	Name                string
	Description         string
	LegendAttribute     *string
	ConditionalSchedule *ConditionalSchedule
	Legend              *Legend
	AdditionalData      []map[string]interface{}
	Notifications       []map[string]interface{}
	ReportMetadata      map[string]interface{}
	View                *View
	AttachedViews       []*AlertAttachedView
	MapsServer          string
}

// NewAlert normalizes attribute and recipient lists, which storage keeps as
// joined strings, into string slices.
func NewAlert(input interface{}) *Alert {
	p := ToParams(input)

	a := &Alert{
		Base:              mustBase(KindAlert),
		Scheduling:        newScheduling(p),
		ID:                p.Int64("id"),
		ProjectID:         p.Int64("project_id"),
		ServiceInstanceID: p.Int64("service_instance_id"),
		DataSeriesID:      p.Int64("data_series_id"),
		ViewID:            p.Int64("view_id"),
		Active:            p.Bool(true, "active"),
		Name:              p.Text("name"),
		Description:       p.Text("description"),
		LegendAttribute:   p.TextPtr("legend_attribute", "risk_attribute"),
		AdditionalData:    []map[string]interface{}{},
		Notifications:     []map[string]interface{}{},
		AttachedViews:     []*AlertAttachedView{},
		MapsServer:        p.Text("maps_server"),
	}

	conditional, _ := p.Relation("ConditionalSchedule", "conditional_schedule", "conditionalSchedule")
	a.ConditionalSchedule = NewConditionalSchedule(conditional)

	legend, _ := p.Relation("Legend", "legend", "Risk", "risk")
	a.Legend = NewLegend(legend)

	items, _ := p.RelationList("AlertAdditionalData", "AlertAdditionalDatas", "additionalData", "additional_data")
	for _, item := range items {
		a.AdditionalData = append(a.AdditionalData, withList(item, "attributes"))
	}
	items, _ = p.RelationList("AlertNotifications", "notifications")
	for _, item := range items {
		a.Notifications = append(a.Notifications, withList(item, "recipients"))
	}

	if rel, ok := p.Relation("ReportMetadata", "reportMetadata", "report_metadata"); ok {
		a.ReportMetadata = transforms.DeepCopy(rel)
	} else {
		a.ReportMetadata = map[string]interface{}{}
	}

	if rel, ok := p.Relation("View", "view"); ok {
		if view := NewView(rel); !view.IsEmpty() {
			a.View = view
		}
	}

	views, _ := p.RelationList("AlertAttachedViews", "attachedViews", "attached_views")
	for _, item := range views {
		a.AttachedViews = append(a.AttachedViews, NewAlertAttachedView(item))
	}
	return a
}

// withList copies item with the field under key turned into a string slice.
func withList(item Params, key string) map[string]interface{} {
	out := transforms.DeepCopy(item)
	switch v := item[key].(type) {
	case nil:
	case string:
		out[key] = common.SplitList(v, ListSeparator)
	case []string:
		out[key] = append([]string{}, v...)
	default:
		values := []string{}
		items, _ := toSlice(v)
		for _, it := range items {
			if s, err := transforms.ToString(it); err == nil {
				values = append(values, s)
			}
		}
		out[key] = values
	}
	return out
}

// withJoined copies item with the list under key joined back into one string.
func withJoined(item map[string]interface{}, key string) map[string]interface{} {
	out := transforms.DeepCopy(item)
	if values, ok := item[key].([]string); ok {
		out[key] = strings.Join(values, ListSeparator)
	}
	return out
}

func copyRows(rows []map[string]interface{}, fn func(map[string]interface{}) map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}

// SetAttachedViews replaces the views rendered with the alert.
func (a *Alert) SetAttachedViews(views []*AlertAttachedView) {
	a.AttachedViews = views
}

func (a *Alert) fields() Object {
	out := Object{
		"id":                  valueOf(a.ID),
		"project_id":          valueOf(a.ProjectID),
		"service_instance_id": valueOf(a.ServiceInstanceID),
		"active":              a.Active,
		"name":                a.Name,
		"description":         a.Description,
		"data_series_id":      valueOf(a.DataSeriesID),
		"legend_attribute":    valueOf(a.LegendAttribute),
		"legend_id":           valueOf(a.Legend.ID),
	}
	a.scheduleFields(out)
	return out
}

func (a *Alert) ToObject() Object {
	out := a.object(a.fields())
	out["conditional_schedule"] = a.ConditionalSchedule.ToObject()
	out["legend"] = a.Legend.ToObject()
	out["additional_data"] = copyRows(a.AdditionalData, transforms.DeepCopy)
	out["notifications"] = copyRows(a.Notifications, transforms.DeepCopy)
	out["report_metadata"] = transforms.DeepCopy(a.ReportMetadata)
	out["view_id"] = valueOf(a.ViewID)
	out["view"] = Object{}
	if a.View != nil {
		out["view"] = a.View.ToObject()
	}
	out["attached_views"] = objectList(a.AttachedViews)
	return out
}

// RawObject keeps attribute and recipient lists joined, as the edit form
// shows them.
func (a *Alert) RawObject() Object {
	out := a.ToObject()
	out["additional_data"] = copyRows(a.AdditionalData, func(m map[string]interface{}) map[string]interface{} {
		return withJoined(m, "attributes")
	})
	out["notifications"] = copyRows(a.Notifications, func(m map[string]interface{}) map[string]interface{} {
		return withJoined(m, "recipients")
	})
	if a.View != nil {
		out["view"] = a.View.RawObject()
	}
	return out
}

// ToService strips storage ids from notifications and report metadata, sends
// the legend as a risk and adds the map layers of attached views. Empty
// additional data and notification lists are omitted.
func (a *Alert) ToService() Object {
	out := a.object(a.fields())
	out["schedule_type"] = transforms.OptionalNumber(valueOf(a.ScheduleType))
	out["conditional_schedule"] = a.ConditionalSchedule.ToObject()
	out["risk"] = RiskFromLegend(a.Legend).ToObject()

	if len(a.AdditionalData) > 0 {
		out["additional_data"] = copyRows(a.AdditionalData, transforms.DeepCopy)
	}
	if len(a.Notifications) > 0 {
		out["notifications"] = copyRows(a.Notifications, func(m map[string]interface{}) map[string]interface{} {
			return transforms.Omit(transforms.DeepCopy(m), "id", "alert_id")
		})
	}
	out["report_metadata"] = transforms.Omit(transforms.DeepCopy(a.ReportMetadata), "id", "alert_id")

	if view := a.viewBlock(); view != nil {
		out["view"] = view
	}
	return out
}

func (a *Alert) mapsServer() string {
	if a.MapsServer != "" {
		return a.MapsServer
	}
	for _, v := range a.AttachedViews {
		if v.MapsServer != "" {
			return v.MapsServer
		}
	}
	return ""
}

// viewBlock lists the alert view first, followed by the attached views.
func (a *Alert) viewBlock() Object {
	if len(a.AttachedViews) == 0 {
		return nil
	}
	uri, err := GeoServerURI(a.mapsServer())
	if err != nil {
		return nil
	}

	layers := []interface{}{}
	viewID := a.ViewID
	if viewID == nil && a.View != nil {
		viewID = a.View.ID
	}
	if viewID != nil {
		layers = append(layers, layerEntry(*viewID))
	}
	for _, v := range a.AttachedViews {
		layers = append(layers, v.ToService())
	}
	return Object{
		"geoserver_uri": uri,
		"layers":        layers,
	}
}

// GeoServerURI reduces a maps server address to scheme, host, port and path
// and appends the OWS endpoint. Credentials are dropped.
func GeoServerURI(mapsServer string) (string, error) {
	if mapsServer == "" {
		return "", fmt.Errorf("no maps server")
	}
	u, err := url.Parse(mapsServer)
	if err != nil {
		return "", fmt.Errorf("parse maps server uri: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("maps server uri %q has no host", mapsServer)
	}
	return fmt.Sprintf("%s://%s%s/ows", strings.ToLower(u.Scheme), u.Host, strings.TrimRight(u.Path, "/")), nil
}
