package service

import (
	"testing"

	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/semantics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatch_PayloadProjections(t *testing.T) {
	registry := semantics.NewRegistry(semantics.Descriptor{
		Code:           "OCCURRENCE-wfp",
		DataSeriesType: semantics.TypeOccurrence,
		GUI:            &semantics.GUI{},
	})
	_, err := registry.Lookup("OCCURRENCE-wfp")
	require.NoError(t, err)
	series, err := model.NewDataSeries(map[string]interface{}{"id": 2, "semantics": "OCCURRENCE-wfp"}, registry)
	require.NoError(t, err)

	batch := NewBatch(
		model.NewDataProvider(map[string]interface{}{"id": 1, "name": "ftp"}),
		series,
		model.NewStorage(map[string]interface{}{"id": 3, "erase_all": true, "keep_data": 5}),
		model.NewSchedule(map[string]interface{}{"id": 4}),
		nil,
	)
	assert.Equal(t, 3, batch.Len())
	assert.Equal(t, []string{KeyDataProviders, KeyDataSeries, KeyStorages}, batch.Keys())

	payload := batch.Payload()
	assert.Equal(t, []interface{}{series.ToObject()}, payload[KeyDataSeries])
	storages := payload[KeyStorages].([]interface{})
	assert.Equal(t, float64(0), storages[0].(model.Object)["keep_data"])

	removal := batch.RemovalPayload()
	assert.Equal(t, []interface{}{model.Object{"id": int64(3)}}, removal[KeyStorages])
}

func TestCollectionKey(t *testing.T) {
	key, ok := CollectionKey(model.KindAnalysis)
	assert.True(t, ok)
	assert.Equal(t, KeyAnalysis, key)

	_, ok = CollectionKey(model.KindDataSet)
	assert.False(t, ok)
}
