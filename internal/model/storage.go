package model

import "github.com/TerraMA2/terrama2-sub002/internal/transforms"

// Storage is a retention policy applied to the data of one data series.
type Storage struct {
	Base
	Scheduling
	ID                *int64
	ProjectID         *int64
	ServiceInstanceID *int64
	DataSeriesID      *int64
	Name              string
	Description       string
	Active            bool
	KeepData          interface{}
	KeepDataUnit      *string
	EraseAll          bool
	Backup            bool
	Zip               bool
	URI               *string
}

func NewStorage(input interface{}) *Storage {
	p := ToParams(input)
	return &Storage{
		Base:              mustBase(KindStorage),
		Scheduling:        newScheduling(p),
		ID:                p.Int64("id"),
		ProjectID:         p.Int64("project_id"),
		ServiceInstanceID: p.Int64("service_instance_id"),
		DataSeriesID:      p.Int64("data_series_id"),
		Name:              p.Text("name"),
		Description:       p.Text("description"),
		Active:            p.Bool(true, "active"),
		KeepData:          p.Raw("keep_data"),
		KeepDataUnit:      p.TextPtr("keep_data_unit"),
		EraseAll:          p.Bool(false, "erase_all"),
		Backup:            p.Bool(false, "backup"),
		Zip:               p.Bool(false, "zip"),
		URI:               p.TextPtr("uri"),
	}
}

func (s *Storage) fields() Object {
	out := Object{
		"id":                  valueOf(s.ID),
		"project_id":          valueOf(s.ProjectID),
		"service_instance_id": valueOf(s.ServiceInstanceID),
		"data_series_id":      valueOf(s.DataSeriesID),
		"name":                s.Name,
		"description":         s.Description,
		"active":              s.Active,
		"keep_data_unit":      valueOf(s.KeepDataUnit),
		"erase_all":           s.EraseAll,
		"backup":              s.Backup,
		"zip":                 s.Zip,
		"uri":                 valueOf(s.URI),
	}
	s.scheduleFields(out)
	return out
}

func (s *Storage) ToObject() Object {
	out := s.object(s.fields())
	out["keep_data"] = transforms.OptionalNumber(s.KeepData)
	return out
}

// ToService sends keep_data as 0 when every file is to be erased.
func (s *Storage) ToService() Object {
	out := s.object(s.fields())
	out["schedule_type"] = transforms.OptionalNumber(valueOf(s.ScheduleType))
	out["keep_data"] = transforms.OptionalNumber(s.KeepData)
	if s.EraseAll {
		out["keep_data"] = float64(0)
	}
	return out
}
