package service

import (
	"sort"

	"github.com/TerraMA2/terrama2-sub002/internal/model"
)

// Collection keys of an ADD_DATA or REMOVE_DATA payload.
const (
	KeyDataProviders = "DataProviders"
	KeyDataSeries    = "DataSeries"
	KeyCollectors    = "Collectors"
	KeyAnalysis      = "Analysis"
	KeyAlerts        = "Alerts"
	KeyViews         = "Views"
	KeyLegends       = "Legends"
	KeyInterpolators = "Interpolators"
	KeyStorages      = "Storages"
)

var collectionKeys = map[model.Kind]string{
	model.KindDataProvider: KeyDataProviders,
	model.KindDataSeries:   KeyDataSeries,
	model.KindCollector:    KeyCollectors,
	model.KindAnalysis:     KeyAnalysis,
	model.KindAlert:        KeyAlerts,
	model.KindView:         KeyViews,
	model.KindLegend:       KeyLegends,
	model.KindRisk:         KeyLegends,
	model.KindInterpolator: KeyInterpolators,
	model.KindStorage:      KeyStorages,
}

// CollectionKey returns the payload key entities of kind travel under.
func CollectionKey(kind model.Kind) (string, bool) {
	key, ok := collectionKeys[kind]
	return key, ok
}

// Batch groups entities for one ADD_DATA frame. Providers and series are
// sent as their plain projection, everything else as its service projection.
type Batch struct {
	entries map[string][]model.Entity
}

func NewBatch(entities ...model.Entity) *Batch {
	b := &Batch{entries: make(map[string][]model.Entity)}
	for _, e := range entities {
		b.Add(e)
	}
	return b
}

// Add appends e under its collection. Kinds without a collection are
// reported false and ignored.
func (b *Batch) Add(e model.Entity) bool {
	if e == nil {
		return false
	}
	key, ok := collectionKeys[e.Kind()]
	if !ok {
		return false
	}
	b.entries[key] = append(b.entries[key], e)
	return true
}

// Len is the number of entities in the batch.
func (b *Batch) Len() int {
	n := 0
	for _, list := range b.entries {
		n += len(list)
	}
	return n
}

// Keys lists the non-empty collections in sorted order.
func (b *Batch) Keys() []string {
	keys := make([]string, 0, len(b.entries))
	for k, list := range b.entries {
		if len(list) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Payload renders the ADD_DATA body.
func (b *Batch) Payload() model.Object {
	out := model.Object{}
	for key, list := range b.entries {
		items := make([]interface{}, 0, len(list))
		for _, e := range list {
			switch key {
			case KeyDataProviders, KeyDataSeries:
				items = append(items, e.ToObject())
			default:
				items = append(items, model.ServiceObjectOf(e))
			}
		}
		out[key] = items
	}
	return out
}

// RemovalPayload renders the REMOVE_DATA body: ids only, keyed like Payload.
func (b *Batch) RemovalPayload() model.Object {
	out := model.Object{}
	for key, list := range b.entries {
		items := make([]interface{}, 0, len(list))
		for _, e := range list {
			items = append(items, model.Object{"id": e.ToObject()["id"]})
		}
		out[key] = items
	}
	return out
}
