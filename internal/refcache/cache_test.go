package refcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvminh/farmdiary/internal/api"
	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/models"
	"github.com/lvminh/farmdiary/internal/netmon"
)

type fakeClient struct {
	api.Client

	seasons []models.Season
	stages  []models.Stage
	tasks   []models.Task
	err     error

	calls atomic.Int64
}

func (f *fakeClient) ListSeasons(ctx context.Context) ([]models.Season, error) {
	f.calls.Add(1)
	return f.seasons, f.err
}

func (f *fakeClient) ListStages(ctx context.Context) ([]models.Stage, error) {
	f.calls.Add(1)
	return f.stages, f.err
}

func (f *fakeClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	f.calls.Add(1)
	return f.tasks, f.err
}

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) { return m.data[key], nil }
func (m *memKV) Set(ctx context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func newTestCache(client *fakeClient, online bool) (*Cache, *netmon.Monitor) {
	monitor := netmon.NewMonitor(online)
	c := New(client, monitor, newMemKV(), logging.NewNopLogger())
	return c, monitor
}

func TestSeasons_FetchesAndStamps(t *testing.T) {
	client := &fakeClient{seasons: []models.Season{{ID: "m1", Name: "Đông Xuân"}}}
	c, _ := newTestCache(client, true)

	got := c.Seasons(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
	assert.EqualValues(t, 1, client.calls.Load())
	require.NotNil(t, c.seasons.lastUpdated)
}

func TestSeasons_OfflineFreshCache_NoNetworkCall(t *testing.T) {
	client := &fakeClient{seasons: []models.Season{{ID: "m1"}}}
	c, monitor := newTestCache(client, true)

	c.Seasons(context.Background())
	require.EqualValues(t, 1, client.calls.Load())

	monitor.Set(false)
	got := c.Seasons(context.Background())

	require.Len(t, got, 1)
	// Fresh cache plus offline device: the guaranteed-failure request is skipped.
	assert.EqualValues(t, 1, client.calls.Load())
}

func TestSeasons_OnlineAlwaysRefetches(t *testing.T) {
	client := &fakeClient{seasons: []models.Season{{ID: "m1"}}}
	c, _ := newTestCache(client, true)

	c.Seasons(context.Background())
	c.Seasons(context.Background())

	// Staleness only gates the offline path; online fetches every time.
	assert.EqualValues(t, 2, client.calls.Load())
}

func TestSeasons_StaleOfflineCache_AttemptsNetwork(t *testing.T) {
	client := &fakeClient{seasons: []models.Season{{ID: "m1"}}}
	c, monitor := newTestCache(client, true)

	c.Seasons(context.Background())
	require.EqualValues(t, 1, client.calls.Load())

	// Age the dataset exactly to the threshold: that counts as stale.
	c.now = func() time.Time { return c.seasons.lastUpdated.Add(MaxAge) }
	monitor.Set(false)
	client.err = errors.New("no route to host")

	got := c.Seasons(context.Background())

	assert.EqualValues(t, 2, client.calls.Load())
	// The failed refetch falls back to the cached copy.
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID)
}

func TestStages_FetchFailureReturnsCacheNeverErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("boom")}
	c, _ := newTestCache(client, true)

	got := c.Stages(context.Background())
	assert.Empty(t, got)
}

func TestLoad_RestoresPersistedDatasets(t *testing.T) {
	kv := newMemKV()
	monitor := netmon.NewMonitor(true)
	client := &fakeClient{tasks: []models.Task{{ID: "t1", Name: "Gieo sạ", StageID: "gd1"}}}

	first := New(client, monitor, kv, logging.NewNopLogger())
	first.Tasks(context.Background())

	second := New(&fakeClient{err: errors.New("down")}, monitor, kv, logging.NewNopLogger())
	second.Load(context.Background())

	task, ok := second.TaskByID("t1")
	require.True(t, ok)
	assert.Equal(t, "Gieo sạ", task.Name)
	require.NotNil(t, second.tasks.lastUpdated)
}

func TestDerivedLookups(t *testing.T) {
	client := &fakeClient{
		stages: []models.Stage{{ID: "gd1", Name: "Làm đất"}, {ID: "gd2", Name: "Gieo trồng"}},
		tasks: []models.Task{
			{ID: "t1", StageID: "gd1"},
			{ID: "t2", StageID: "gd2"},
			{ID: "t3", StageID: "gd1"},
		},
	}
	c, _ := newTestCache(client, true)
	c.Stages(context.Background())
	c.Tasks(context.Background())
	calls := client.calls.Load()

	stage, ok := c.StageByID("gd2")
	require.True(t, ok)
	assert.Equal(t, "Gieo trồng", stage.Name)

	_, ok = c.StageByID("missing")
	assert.False(t, ok)

	tasks := c.TasksForStage("gd1")
	require.Len(t, tasks, 2)

	// Lookups never fetch.
	assert.Equal(t, calls, client.calls.Load())
}
