// Package model holds the TerraMA2 configuration entities and their three
// projections: ToObject for the API, RawObject for re-editing in the UI and
// ToService for the native execution services.
package model

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the concrete type of an entity.
type Kind string

// KindKey is the key under which every projection carries the entity kind.
// "class" is the wire name of the kind tag: the native services and the
// administration webapp both read the kind under it.
const KindKey = "class"

const (
	KindAbstract                   Kind = "AbstractData"
	KindDataProvider               Kind = "DataProvider"
	KindDataSeries                 Kind = "DataSeries"
	KindDataSet                    Kind = "DataSet"
	KindSchedule                   Kind = "Schedule"
	KindAutomaticSchedule          Kind = "AutomaticSchedule"
	KindConditionalSchedule        Kind = "ConditionalSchedule"
	KindReprocessingHistoricalData Kind = "ReprocessingHistoricalData"
	KindFilter                     Kind = "Filter"
	KindIntersection               Kind = "Intersection"
	KindCollector                  Kind = "Collector"
	KindAnalysis                   Kind = "Analysis"
	KindAnalysisDataSeries         Kind = "AnalysisDataSeries"
	KindAnalysisOutputGrid         Kind = "AnalysisOutputGrid"
	KindLegend                     Kind = "Legend"
	KindRisk                       Kind = "Risk"
	KindAlert                      Kind = "Alert"
	KindAlertAttachedView          Kind = "AlertAttachedView"
	KindStorage                    Kind = "Storage"
	KindView                       Kind = "View"
	KindViewStyleLegend            Kind = "ViewStyleLegend"
	KindRegisteredView             Kind = "RegisteredView"
	KindInterpolator               Kind = "Interpolator"
	KindLog                        Kind = "Log"
)

// Object is the plain mapping every projection produces.
type Object = map[string]interface{}

// Entity is implemented by every configuration entity.
type Entity interface {
	Kind() Kind
	ToObject() Object
}

// RawProjector is implemented by entities that keep extra detail for the UI.
type RawProjector interface {
	Entity
	RawObject() Object
}

// ServiceProjector is implemented by entities sent to the native services.
type ServiceProjector interface {
	Entity
	ToService() Object
}

// Base carries the kind tag. Concrete entities embed it.
type Base struct {
	kind Kind
}

// NewBase returns a Base for a concrete kind. The abstract kind and the empty
// kind are rejected with ErrAbstractInstantiation.
func NewBase(kind Kind) (Base, error) {
	if kind == "" || kind == KindAbstract {
		return Base{}, NewDomainError(ErrAbstractInstantiation, fmt.Sprintf("cannot instantiate %q directly", kind))
	}
	return Base{kind: kind}, nil
}

func mustBase(kind Kind) Base {
	b, err := NewBase(kind)
	if err != nil {
		panic(err)
	}
	return b
}

// Kind returns the entity kind.
func (b Base) Kind() Kind {
	return b.kind
}

// ToObject returns the tag-only projection.
func (b Base) ToObject() Object {
	return Object{KindKey: string(b.kind)}
}

// object merges fields over the tag-only projection.
func (b Base) object(fields Object) Object {
	out := b.ToObject()
	for k, v := range fields {
		if k == KindKey {
			continue
		}
		out[k] = v
	}
	return out
}

// ToJSON encodes the ToObject projection.
func ToJSON(e Entity) ([]byte, error) {
	return json.Marshal(e.ToObject())
}

// RawObjectOf returns the raw projection when e has one and ToObject otherwise.
func RawObjectOf(e Entity) Object {
	if r, ok := e.(RawProjector); ok {
		return r.RawObject()
	}
	return e.ToObject()
}

// ServiceObjectOf returns the service projection when e has one and ToObject
// otherwise.
func ServiceObjectOf(e Entity) Object {
	if s, ok := e.(ServiceProjector); ok {
		return s.ToService()
	}
	return e.ToObject()
}
