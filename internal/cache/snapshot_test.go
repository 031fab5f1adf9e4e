package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/semantics"
	"github.com/TerraMA2/terrama2-sub002/internal/storage/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	adapter, err := redis.NewAdapter(redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { adapter.Close() })

	store := NewSnapshotStore(Config{L1Capacity: 10, L1TTL: time.Minute, L2TTL: time.Hour}, adapter, nil, nil)
	return store, mr
}

func retention() *model.Storage {
	return model.NewStorage(map[string]interface{}{
		"id":             4,
		"name":           "retention",
		"keep_data":      "30",
		"keep_data_unit": "day",
		"erase_all":      true,
	})
}

func TestSnapshotStore_PutWritesBothLevels(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, retention()))

	key := Key(model.KindStorage, 4)
	assert.Equal(t, "terrama2:snapshot:Storage:4", key)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
	assert.Equal(t, 1, store.l1.Len())
}

func TestSnapshotStore_GetPromotesFromRedis(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, mr.Set(Key(model.KindDataProvider, 2), `{"class":"DataProvider","id":2,"name":"ftp"}`))

	obj, found, err := store.Get(ctx, model.KindDataProvider, 2)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "ftp", obj["name"])

	// served from L1 once redis forgets it
	mr.Del(Key(model.KindDataProvider, 2))
	obj, found, err = store.Get(ctx, model.KindDataProvider, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, float64(2), obj["id"])
}

func TestSnapshotStore_GetReturnsCopies(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, retention()))

	obj, _, err := store.Get(ctx, model.KindStorage, 4)
	require.NoError(t, err)
	obj["name"] = "changed"

	again, _, err := store.Get(ctx, model.KindStorage, 4)
	require.NoError(t, err)
	assert.Equal(t, "retention", again["name"])
}

func TestSnapshotStore_Miss(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, model.KindStorage, 99)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = store.Rehydrate(ctx, model.KindStorage, 99, nil)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.NoError(t, mr.Set(Key(model.KindStorage, 5), "not json"))
	_, found, err = store.Get(ctx, model.KindStorage, 5)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists(Key(model.KindStorage, 5)))
}

func TestSnapshotStore_Rehydrate(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, retention()))

	e, err := store.Rehydrate(ctx, model.KindStorage, 4, nil)
	require.NoError(t, err)
	require.Equal(t, model.KindStorage, e.Kind())

	storage := e.(*model.Storage)
	assert.Equal(t, int64(4), *storage.ID)
	assert.Equal(t, "retention", storage.Name)
	assert.True(t, storage.EraseAll)
	assert.Equal(t, float64(0), storage.ToService()["keep_data"])
	assert.Equal(t, float64(30), storage.ToObject()["keep_data"])
}

func TestSnapshotStore_RehydrateGridSeries(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()
	registry := semantics.NewRegistry(semantics.Descriptor{
		Code:           "GRID-gdal",
		DataSeriesType: semantics.TypeGrid,
		GUI:            &semantics.GUI{},
	})

	series, err := model.NewDataSeries(map[string]interface{}{
		"id":        12,
		"semantics": "GRID-gdal",
		"dataSets":  []interface{}{map[string]interface{}{"id": 30, "type": "GRID", "format": map[string]interface{}{"mask": "%Y.tif"}}},
	}, registry)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, series))
	store.Evict(Key(model.KindDataSeries, 12))

	e, err := store.Rehydrate(ctx, model.KindDataSeries, 12, registry)
	require.NoError(t, err)
	rebuilt := e.(*model.DataSeries)
	require.Len(t, rebuilt.DataSets, 1)
	assert.Equal(t, model.VariantGrid, rebuilt.DataSets[0].Variant)
	assert.Equal(t, series.ToObject(), rebuilt.ToObject())
}

func TestSnapshotStore_PutNeedsID(t *testing.T) {
	store, _ := newStore(t)
	err := store.Put(context.Background(), model.NewStorage(map[string]interface{}{"name": "x"}))
	assert.True(t, errors.Is(err, common.ErrValidation))

	err = store.Put(context.Background(), nil)
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestSnapshotStore_Invalidate(t *testing.T) {
	store, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, retention()))

	adapter, err := redis.NewAdapter(redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	defer adapter.Close()
	sub := adapter.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Invalidate(ctx, model.KindStorage, 4))

	key := Key(model.KindStorage, 4)
	assert.False(t, mr.Exists(key))
	assert.Equal(t, 0, store.l1.Len())

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, key, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("no invalidation published")
	}
}

func TestSnapshotStore_L1Only(t *testing.T) {
	store := NewSnapshotStore(Config{L1Capacity: 1}, nil, nil, nil)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, retention()))

	_, found, err := store.Get(ctx, model.KindStorage, 4)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, store.Invalidate(ctx, model.KindStorage, 4))
	_, found, _ = store.Get(ctx, model.KindStorage, 4)
	assert.False(t, found)
}
