package model

import "github.com/TerraMA2/terrama2-sub002/internal/transforms"

// ScheduleType tells how a process is triggered.
type ScheduleType int64

const (
	ScheduleTypeManual                 ScheduleType = 1
	ScheduleTypeScheduled              ScheduleType = 2
	ScheduleTypeAutomatic              ScheduleType = 3
	ScheduleTypeReprocessingHistorical ScheduleType = 4
)

// Schedule is a time based trigger.
type Schedule struct {
	Base
	ID                  *int64
	Frequency           *int64
	FrequencyUnit       *string
	FrequencyStartTime  *string
	Day                 *string
	ScheduleTime        *string
	ScheduleUnit        *string
	ScheduleRetry       *int64
	ScheduleRetryUnit   *string
	ScheduleTimeout     *int64
	ScheduleTimeoutUnit *string
}

// NewSchedule builds a schedule; nil input yields an empty schedule.
func NewSchedule(input interface{}) *Schedule {
	p := ToParams(input)
	return &Schedule{
		Base:                mustBase(KindSchedule),
		ID:                  p.Int64("id"),
		Frequency:           p.Int64("frequency"),
		FrequencyUnit:       p.TextPtr("frequency_unit"),
		FrequencyStartTime:  p.TextPtr("frequency_start_time"),
		Day:                 p.TextPtr("schedule"),
		ScheduleTime:        p.TextPtr("schedule_time"),
		ScheduleUnit:        p.TextPtr("schedule_unit"),
		ScheduleRetry:       p.Int64("schedule_retry"),
		ScheduleRetryUnit:   p.TextPtr("schedule_retry_unit"),
		ScheduleTimeout:     p.Int64("schedule_timeout"),
		ScheduleTimeoutUnit: p.TextPtr("schedule_timeout_unit"),
	}
}

// IsEmpty reports whether no schedule was configured.
func (s *Schedule) IsEmpty() bool {
	return s.ID == nil && s.Frequency == nil && s.Day == nil
}

func (s *Schedule) ToObject() Object {
	return s.object(Object{
		"id":                    valueOf(s.ID),
		"frequency":             valueOf(s.Frequency),
		"frequency_unit":        valueOf(s.FrequencyUnit),
		"frequency_start_time":  valueOf(s.FrequencyStartTime),
		"schedule":              valueOf(s.Day),
		"schedule_time":         valueOf(s.ScheduleTime),
		"schedule_unit":         valueOf(s.ScheduleUnit),
		"schedule_retry":        valueOf(s.ScheduleRetry),
		"schedule_retry_unit":   valueOf(s.ScheduleRetryUnit),
		"schedule_timeout":      valueOf(s.ScheduleTimeout),
		"schedule_timeout_unit": valueOf(s.ScheduleTimeoutUnit),
	})
}

// AutomaticSchedule runs a process whenever one of its data series gets new
// data.
type AutomaticSchedule struct {
	Base
	ID      *int64
	DataIDs []int64
}

func NewAutomaticSchedule(input interface{}) *AutomaticSchedule {
	p := ToParams(input)
	return &AutomaticSchedule{
		Base:    mustBase(KindAutomaticSchedule),
		ID:      p.Int64("id"),
		DataIDs: transforms.IDList(p.Raw("data_ids")),
	}
}

func (a *AutomaticSchedule) IsEmpty() bool {
	return a.ID == nil && len(a.DataIDs) == 0
}

func (a *AutomaticSchedule) ToObject() Object {
	return a.object(Object{
		"id":       valueOf(a.ID),
		"data_ids": append([]int64{}, a.DataIDs...),
	})
}

// ConditionalSchedule runs an alert when its condition script holds for new
// data of the listed data series.
type ConditionalSchedule struct {
	Base
	ID      *int64
	DataIDs []int64
	Script  *string
}

func NewConditionalSchedule(input interface{}) *ConditionalSchedule {
	p := ToParams(input)
	return &ConditionalSchedule{
		Base:    mustBase(KindConditionalSchedule),
		ID:      p.Int64("id"),
		DataIDs: transforms.IDList(p.Raw("data_ids")),
		Script:  p.TextPtr("script"),
	}
}

func (c *ConditionalSchedule) IsEmpty() bool {
	return c.ID == nil && len(c.DataIDs) == 0 && c.Script == nil
}

func (c *ConditionalSchedule) ToObject() Object {
	return c.object(Object{
		"id":       valueOf(c.ID),
		"data_ids": append([]int64{}, c.DataIDs...),
		"script":   valueOf(c.Script),
	})
}

// ReprocessingHistoricalData bounds a re-run of an analysis over past data.
type ReprocessingHistoricalData struct {
	Base
	ID        *int64
	StartDate *string
	EndDate   *string
}

func NewReprocessingHistoricalData(input interface{}) *ReprocessingHistoricalData {
	p := ToParams(input)
	return &ReprocessingHistoricalData{
		Base:      mustBase(KindReprocessingHistoricalData),
		ID:        p.Int64("id"),
		StartDate: p.Timestamp("start_date", "startDate"),
		EndDate:   p.Timestamp("end_date", "endDate"),
	}
}

func (r *ReprocessingHistoricalData) IsEmpty() bool {
	return r.ID == nil && r.StartDate == nil && r.EndDate == nil
}

func (r *ReprocessingHistoricalData) ToObject() Object {
	return r.object(Object{
		"id":         valueOf(r.ID),
		"start_date": valueOf(r.StartDate),
		"end_date":   valueOf(r.EndDate),
	})
}

// scheduleRelations resolves the schedule triple shared by every scheduled
// composite.
func scheduleRelations(p Params) (*Schedule, *AutomaticSchedule) {
	s, _ := p.Relation("Schedule", "schedule")
	a, _ := p.Relation("AutomaticSchedule", "automatic_schedule", "automaticSchedule")
	return NewSchedule(s), NewAutomaticSchedule(a)
}

func scheduleTypeOf(p Params) *int64 {
	return p.Int64("schedule_type", "scheduleType")
}

// Scheduling is the trigger configuration shared by processes.
type Scheduling struct {
	ScheduleType      *int64
	Schedule          *Schedule
	AutomaticSchedule *AutomaticSchedule
}

func newScheduling(p Params) Scheduling {
	schedule, automatic := scheduleRelations(p)
	return Scheduling{
		ScheduleType:      scheduleTypeOf(p),
		Schedule:          schedule,
		AutomaticSchedule: automatic,
	}
}

// IsAutomatic reports whether the process runs on new input data.
func (s Scheduling) IsAutomatic() bool {
	return s.ScheduleType != nil && ScheduleType(*s.ScheduleType) == ScheduleTypeAutomatic
}

func (s Scheduling) scheduleFields(out Object) {
	out["schedule_type"] = valueOf(s.ScheduleType)
	out["schedule"] = s.Schedule.ToObject()
	out["automatic_schedule"] = s.AutomaticSchedule.ToObject()
}
