package model

import (
	"reflect"

	"github.com/TerraMA2/terrama2-sub002/internal/transforms"
)

// Record is a row handed over by the storage layer.
type Record interface {
	Get() map[string]interface{}
}

// Params is the normalized constructor input of an entity.
//
// Constructors accept a Record, a Params or a plain map. Relations are looked
// up by a list of keys in priority order: the capitalized pre-joined storage
// key first, then the lower-case normalized keys.
type Params map[string]interface{}

// ToParams detects the input shape and returns it as Params. Typed entities
// are reduced to their ToObject projection.
func ToParams(input interface{}) Params {
	switch v := input.(type) {
	case nil:
		return Params{}
	case Params:
		return v
	case map[string]interface{}:
		return Params(v)
	case map[string]string:
		out := make(Params, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out
	case Record:
		if isNil(v) {
			return Params{}
		}
		return Params(v.Get())
	case Entity:
		if isNil(v) {
			return Params{}
		}
		return Params(v.ToObject())
	default:
		return Params{}
	}
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Value returns the first non-nil value found under keys.
func (p Params) Value(keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && !isNil(v) {
			return v, true
		}
	}
	return nil, false
}

// Raw returns the first non-nil value under keys, or nil.
func (p Params) Raw(keys ...string) interface{} {
	v, _ := p.Value(keys...)
	return v
}

// Has reports whether any of keys holds a non-nil value.
func (p Params) Has(keys ...string) bool {
	_, ok := p.Value(keys...)
	return ok
}

// Int64 returns the first value under keys parsed as an integer.
func (p Params) Int64(keys ...string) *int64 {
	v, ok := p.Value(keys...)
	if !ok {
		return nil
	}
	id, err := transforms.ToInt64(v)
	if err != nil {
		return nil
	}
	return &id
}

// Float64 returns the first value under keys parsed as a number.
func (p Params) Float64(keys ...string) *float64 {
	v, ok := p.Value(keys...)
	if !ok {
		return nil
	}
	f, err := transforms.ToFloat64(v)
	if err != nil {
		return nil
	}
	return &f
}

// Text returns the first value under keys as text, or "".
func (p Params) Text(keys ...string) string {
	s := p.TextPtr(keys...)
	if s == nil {
		return ""
	}
	return *s
}

// TextPtr returns the first value under keys as text, or nil.
func (p Params) TextPtr(keys ...string) *string {
	v, ok := p.Value(keys...)
	if !ok {
		return nil
	}
	s, err := transforms.ToString(v)
	if err != nil {
		return nil
	}
	return &s
}

// Bool returns the first value under keys as a boolean, or def.
func (p Params) Bool(def bool, keys ...string) bool {
	v, ok := p.Value(keys...)
	if !ok {
		return def
	}
	b, err := transforms.ToBool(v)
	if err != nil {
		return def
	}
	return b
}

// Timestamp returns the first value under keys formatted for the native
// services, or nil.
func (p Params) Timestamp(keys ...string) *string {
	v, ok := p.Value(keys...)
	if !ok {
		return nil
	}
	formatted := transforms.FormatTimestamp(v)
	s, isString := formatted.(string)
	if !isString {
		return nil
	}
	return &s
}

// Map returns a copy of the first mapping found under keys. Storage rows of
// the form [{key, value}] are folded into a mapping. A missing mapping yields
// an empty one.
func (p Params) Map(keys ...string) map[string]interface{} {
	v, ok := p.Value(keys...)
	if !ok {
		return map[string]interface{}{}
	}
	if items, isList := toSlice(v); isList {
		rows := make([]map[string]interface{}, 0, len(items))
		for _, item := range items {
			rows = append(rows, ToParams(item))
		}
		return transforms.KeyValueMap(rows, nil)
	}
	m := ToParams(v)
	return transforms.DeepCopy(m)
}

// Relation returns the first nested relation found under keys.
func (p Params) Relation(keys ...string) (Params, bool) {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || isNil(v) {
			continue
		}
		switch v.(type) {
		case Record, Entity, map[string]interface{}, Params:
			return ToParams(v), true
		}
	}
	return nil, false
}

// RelationList returns the items of the first list found under keys as Params.
// Non-mapping items are skipped.
func (p Params) RelationList(keys ...string) ([]Params, bool) {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || isNil(v) {
			continue
		}
		items, isList := toSlice(v)
		if !isList {
			continue
		}
		out := make([]Params, 0, len(items))
		for _, item := range items {
			switch item.(type) {
			case Record, Entity, map[string]interface{}, Params:
				out = append(out, ToParams(item))
			}
		}
		return out, true
	}
	return nil, false
}

// List returns the items of the first list found under keys.
func (p Params) List(keys ...string) []interface{} {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || isNil(v) {
			continue
		}
		if items, isList := toSlice(v); isList {
			return items
		}
	}
	return nil
}

// toSlice turns any slice value into []interface{}.
func toSlice(v interface{}) ([]interface{}, bool) {
	if items, ok := v.([]interface{}); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// valueOf dereferences optional fields for projections.
func valueOf[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func objectOrNil(e Entity) interface{} {
	if e == nil || isNil(e) {
		return nil
	}
	return e.ToObject()
}

func objectList[T Entity](items []T) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToObject())
	}
	return out
}

func rawList[T RawProjector](items []T) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, item.RawObject())
	}
	return out
}

func serviceList[T ServiceProjector](items []T) []interface{} {
	out := make([]interface{}, 0, len(items))
	for _, item := range items {
		out = append(out, item.ToService())
	}
	return out
}
