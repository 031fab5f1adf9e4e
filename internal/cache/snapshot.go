// Package cache keeps entity snapshots in two levels: an in-process LRU and
// Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TerraMA2/terrama2-sub002/internal/common"
	"github.com/TerraMA2/terrama2-sub002/internal/model"
	"github.com/TerraMA2/terrama2-sub002/internal/observability"
	"github.com/TerraMA2/terrama2-sub002/internal/transforms"

	"github.com/sirupsen/logrus"
)

// KeyPrefix prefixes every snapshot key in Redis.
const KeyPrefix = "terrama2:snapshot:"

// InvalidationChannel carries the keys dropped by Invalidate so peers can
// evict their own L1.
const InvalidationChannel = "terrama2:snapshot:invalidate"

// Backend is the L2 store. *redis.Adapter satisfies it.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, message []byte) error
}

// Config sizes both levels.
type Config struct {
	L1Capacity int
	L1TTL      time.Duration
	L2TTL      time.Duration
}

// SnapshotStore caches ToObject snapshots keyed by kind and id.
type SnapshotStore struct {
	l1      *common.LRU[model.Object]
	l2      Backend
	l2TTL   time.Duration
	metrics *observability.Metrics
	logger  *logrus.Entry
}

// NewSnapshotStore creates a store. A nil backend keeps L1 only.
func NewSnapshotStore(cfg Config, backend Backend, logger *observability.Logger, metrics *observability.Metrics) *SnapshotStore {
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &SnapshotStore{
		l1:      common.NewLRU[model.Object](cfg.L1Capacity, cfg.L1TTL),
		l2:      backend,
		l2TTL:   cfg.L2TTL,
		metrics: metrics,
		logger:  logger.ForComponent("cache"),
	}
}

// Key returns the cache key of an entity.
func Key(kind model.Kind, id int64) string {
	return fmt.Sprintf("%s%s:%d", KeyPrefix, kind, id)
}

func entityID(e model.Entity) (int64, error) {
	raw := e.ToObject()["id"]
	if raw == nil {
		return 0, fmt.Errorf("%w: %s snapshot needs an id", common.ErrValidation, e.Kind())
	}
	id, err := transforms.ToInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s id: %v", common.ErrValidation, e.Kind(), err)
	}
	return id, nil
}

// Put stores the ToObject projection of e in both levels.
func (s *SnapshotStore) Put(ctx context.Context, e model.Entity) error {
	if e == nil {
		return fmt.Errorf("%w: nil entity", common.ErrValidation)
	}
	id, err := entityID(e)
	if err != nil {
		return err
	}
	key := Key(e.Kind(), id)
	obj := e.ToObject()

	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("%w: snapshot %s: %v", common.ErrEncoding, key, err)
	}
	// L1 holds the decoded form so hits look the same at both levels.
	var decoded model.Object
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: snapshot %s: %v", common.ErrEncoding, key, err)
	}
	s.l1.Set(key, decoded)

	if s.l2 == nil {
		return nil
	}
	if err := s.l2.Set(ctx, key, data, s.l2TTL); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConnection, err)
	}
	return nil
}

// Get returns the cached mapping and whether it was found. L2 hits are
// promoted to L1.
func (s *SnapshotStore) Get(ctx context.Context, kind model.Kind, id int64) (model.Object, bool, error) {
	key := Key(kind, id)
	if obj, ok := s.l1.Get(key); ok {
		s.metrics.CacheHitsTotal.WithLabelValues("l1").Inc()
		return transforms.DeepCopy(obj), true, nil
	}
	s.metrics.CacheMissesTotal.WithLabelValues("l1").Inc()

	if s.l2 == nil {
		return nil, false, nil
	}
	data, found, err := s.l2.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", common.ErrConnection, err)
	}
	if !found {
		s.metrics.CacheMissesTotal.WithLabelValues("l2").Inc()
		return nil, false, nil
	}
	s.metrics.CacheHitsTotal.WithLabelValues("l2").Inc()

	var obj model.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Dropping undecodable snapshot")
		_ = s.l2.Delete(ctx, key)
		return nil, false, nil
	}
	s.l1.Set(key, obj)
	return transforms.DeepCopy(obj), true, nil
}

// Rehydrate rebuilds the cached entity through model.Build. A miss is
// common.ErrNotFound.
func (s *SnapshotStore) Rehydrate(ctx context.Context, kind model.Kind, id int64, registry model.SemanticsLookup) (model.Entity, error) {
	obj, found, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: snapshot %s", common.ErrNotFound, Key(kind, id))
	}
	e, err := model.Build(kind, obj, registry)
	if err != nil {
		s.metrics.BuildErrorsTotal.WithLabelValues(string(kind)).Inc()
		return nil, err
	}
	return e, nil
}

// Invalidate drops the snapshot from both levels and announces the key on
// InvalidationChannel.
func (s *SnapshotStore) Invalidate(ctx context.Context, kind model.Kind, id int64) error {
	key := Key(kind, id)
	s.l1.Delete(key)
	if s.l2 == nil {
		return nil
	}
	if err := s.l2.Delete(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConnection, err)
	}
	if err := s.l2.Publish(ctx, InvalidationChannel, []byte(key)); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Failed to publish invalidation")
	}
	return nil
}

// Evict drops a key from L1 only. Used for invalidations received from
// peers.
func (s *SnapshotStore) Evict(key string) {
	s.l1.Delete(key)
}
