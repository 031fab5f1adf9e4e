package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalInput(kind Kind) map[string]interface{} {
	switch kind {
	case KindDataSeries:
		return map[string]interface{}{"semantics": "OCCURRENCE-wfp"}
	case KindDataSet:
		return map[string]interface{}{"id": 1}
	}
	return map[string]interface{}{}
}

func TestEntities_CarryTheirKind(t *testing.T) {
	registry := testRegistry()
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			e, err := Build(kind, minimalInput(kind), registry)
			require.NoError(t, err)
			assert.Equal(t, kind, e.Kind())
			assert.Equal(t, string(kind), e.ToObject()[KindKey])

			if r, ok := e.(RawProjector); ok {
				assert.Equal(t, string(kind), r.RawObject()[KindKey])
			}

			data, err := ToJSON(e)
			require.NoError(t, err)
			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, string(kind), decoded[KindKey])
		})
	}
}

func TestKindKey_WireName(t *testing.T) {
	assert.Equal(t, "class", KindKey)

	data, err := ToJSON(NewLegend(map[string]interface{}{"id": 1}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"class":"Legend"`)
}

func TestEntities_KindCannotBeOverridden(t *testing.T) {
	collector := NewCollector(map[string]interface{}{KindKey: "Analysis", "id": 1})
	assert.Equal(t, "Collector", collector.ToObject()[KindKey])
}

func TestNewBase_RejectsAbstractKinds(t *testing.T) {
	for _, kind := range []Kind{"", KindAbstract} {
		_, err := NewBase(kind)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAbstractInstantiation))
		assert.False(t, errors.Is(err, common.ErrValidation))
	}

	b, err := NewBase(KindLegend)
	require.NoError(t, err)
	assert.Equal(t, Object{KindKey: "Legend"}, b.ToObject())
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build("Spaceship", nil, testRegistry())
	assert.True(t, errors.Is(err, ErrUnknownKind))

	_, err = Build(KindAbstract, nil, testRegistry())
	assert.True(t, errors.Is(err, ErrAbstractInstantiation))

	_, err = Build(KindDataSet, map[string]interface{}{}, testRegistry())
	assert.True(t, errors.Is(err, ErrInvalidDataSet))

	_, err = Build(KindDataSeries, map[string]interface{}{"semantics": "DCP-generic"}, nil)
	assert.Error(t, err)
}

func TestBuildTagged_RehydratesProjection(t *testing.T) {
	registry := testRegistry()
	original := NewStorage(map[string]interface{}{"id": 4, "name": "retention", "keep_data": 3, "schedule_type": 2})

	e, err := BuildTagged(original.ToObject(), registry)
	require.NoError(t, err)
	assert.Equal(t, KindStorage, e.Kind())
	assert.Equal(t, original.ToObject(), e.ToObject())
}

func TestServiceObjectOf_FallsBackToObject(t *testing.T) {
	schedule := NewSchedule(map[string]interface{}{"id": 1})
	assert.Equal(t, schedule.ToObject(), ServiceObjectOf(schedule))
	assert.Equal(t, schedule.ToObject(), RawObjectOf(schedule))

	storage := NewStorage(map[string]interface{}{"id": 1, "erase_all": true, "keep_data": 5})
	assert.Equal(t, float64(0), ServiceObjectOf(storage)["keep_data"])
}

func TestParams_InputShapes(t *testing.T) {
	schedule := NewSchedule(map[string]interface{}{"id": 3, "frequency": "15", "frequency_unit": "min"})

	shapes := map[string]interface{}{
		"record":     row{"Schedule": row{"id": 3, "frequency": 15, "frequency_unit": "min"}},
		"prejoined":  map[string]interface{}{"Schedule": row{"id": 3, "frequency": 15, "frequency_unit": "min"}},
		"normalized": map[string]interface{}{"schedule": map[string]interface{}{"id": "3", "frequency": 15.0, "frequency_unit": "min"}},
		"typed":      map[string]interface{}{"schedule": schedule},
	}
	for name, input := range shapes {
		t.Run(name, func(t *testing.T) {
			storage := NewStorage(input)
			assert.Equal(t, schedule.ToObject(), storage.Schedule.ToObject())
		})
	}
}
