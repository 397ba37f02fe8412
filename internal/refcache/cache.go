// Package refcache caches the low-churn lookup collections (seasons, stages,
// tasks) in memory with time-based staleness and an offline fallback.
//
// Staleness is advisory, not a correctness gate: offline devices are served
// stale data because no network path exists to refresh it. Network failures
// are recovered locally and never surface to callers.
package refcache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lvminh/farmdiary/internal/api"
	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/models"
	"github.com/lvminh/farmdiary/internal/netmon"
)

// MaxAge is the advisory freshness window. A dataset whose age has reached
// MaxAge counts as stale, the exact-threshold read included.
const MaxAge = time.Hour

const (
	kvSeasons = "refcache.seasons"
	kvStages  = "refcache.stages"
	kvTasks   = "refcache.tasks"
)

// KV is the durable key-value surface used to persist datasets across
// restarts. store.KV satisfies it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type dataset[T any] struct {
	items       []T
	lastUpdated *time.Time
}

// persistedDataset is the serialized shape written to the KV store. Only the
// items and the freshness stamp survive a restart; nothing else does.
type persistedDataset[T any] struct {
	Items       []T       `json:"items"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Cache is the reference-data read-through cache. Construct one per
// application (or per test); there is no shared instance.
type Cache struct {
	client  api.Client
	monitor *netmon.Monitor
	kv      KV
	logger  logging.Logger
	now     func() time.Time

	mu      sync.RWMutex
	seasons dataset[models.Season]
	stages  dataset[models.Stage]
	tasks   dataset[models.Task]
}

func New(client api.Client, monitor *netmon.Monitor, kv KV, logger logging.Logger) *Cache {
	return &Cache{
		client:  client,
		monitor: monitor,
		kv:      kv,
		logger:  logger,
		now:     time.Now,
	}
}

func (c *Cache) stale(lastUpdated *time.Time) bool {
	return lastUpdated == nil || c.now().Sub(*lastUpdated) >= MaxAge
}

// serveCached reports whether the policy allows skipping the network:
// cached data present, still fresh, and the device offline. Online devices
// always attempt a refresh, fresh data or not; a guaranteed-failure request
// is only avoided when no network path exists.
func serveCached[T any](c *Cache, ds *dataset[T]) bool {
	return len(ds.items) > 0 && !c.stale(ds.lastUpdated) && !c.monitor.IsOnline()
}

func fetchDataset[T any](ctx context.Context, c *Cache, ds *dataset[T], kvKey string,
	fetch func(context.Context) ([]T, error)) []T {

	c.mu.RLock()
	if serveCached(c, ds) {
		items := ds.items
		c.mu.RUnlock()
		return items
	}
	c.mu.RUnlock()

	items, err := fetch(ctx)
	if err != nil {
		// Fall back to whatever is in memory, possibly empty.
		c.logger.Warn(ctx, "reference fetch failed, serving cache", "key", kvKey, "error", err)
		c.mu.RLock()
		defer c.mu.RUnlock()
		return ds.items
	}

	stamp := c.now()
	c.mu.Lock()
	ds.items = items
	ds.lastUpdated = &stamp
	c.mu.Unlock()

	c.persist(ctx, kvKey, persistedDataset[T]{Items: items, LastUpdated: stamp})
	return items
}

func (c *Cache) persist(ctx context.Context, key string, v any) {
	if c.kv == nil {
		return
	}
	b, err := json.Marshal(v)
	if err == nil {
		err = c.kv.Set(ctx, key, b)
	}
	if err != nil {
		// Persistence is best-effort; the in-memory copy stays authoritative.
		c.logger.Warn(ctx, "failed to persist reference dataset", "key", key, "error", err)
	}
}

func loadDataset[T any](ctx context.Context, c *Cache, ds *dataset[T], kvKey string) {
	if c.kv == nil {
		return
	}
	b, err := c.kv.Get(ctx, kvKey)
	if err != nil || b == nil {
		return
	}
	var p persistedDataset[T]
	if err := json.Unmarshal(b, &p); err != nil {
		c.logger.Warn(ctx, "failed to load reference dataset", "key", kvKey, "error", err)
		return
	}
	c.mu.Lock()
	ds.items = p.Items
	stamp := p.LastUpdated
	ds.lastUpdated = &stamp
	c.mu.Unlock()
}

// Load restores persisted datasets. Call once at startup, before serving.
func (c *Cache) Load(ctx context.Context) {
	loadDataset(ctx, c, &c.seasons, kvSeasons)
	loadDataset(ctx, c, &c.stages, kvStages)
	loadDataset(ctx, c, &c.tasks, kvTasks)
}

// Seasons returns the season list, fetching per the read-through policy.
func (c *Cache) Seasons(ctx context.Context) []models.Season {
	return fetchDataset(ctx, c, &c.seasons, kvSeasons, c.client.ListSeasons)
}

// Stages returns the stage list, fetching per the read-through policy.
func (c *Cache) Stages(ctx context.Context) []models.Stage {
	return fetchDataset(ctx, c, &c.stages, kvStages, c.client.ListStages)
}

// Tasks returns the task list, fetching per the read-through policy.
func (c *Cache) Tasks(ctx context.Context) []models.Task {
	return fetchDataset(ctx, c, &c.tasks, kvTasks, c.client.ListTasks)
}
