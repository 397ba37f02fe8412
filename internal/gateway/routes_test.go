package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/lvminh/farmdiary/internal/api"
	"github.com/lvminh/farmdiary/internal/cachestore"
	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/models"
	"github.com/lvminh/farmdiary/internal/msgbus"
	"github.com/lvminh/farmdiary/internal/netmon"
	"github.com/lvminh/farmdiary/internal/refcache"
	"github.com/lvminh/farmdiary/internal/store"
	"github.com/lvminh/farmdiary/internal/timeline"
)

// fakeDiaryAPI serves reference data; the entry endpoints are never reached
// because these tests hold the monitor offline.
type fakeDiaryAPI struct {
	api.Client
}

func (f *fakeDiaryAPI) ListSeasons(ctx context.Context) ([]models.Season, error) {
	return []models.Season{{ID: "s1", Name: "Đông Xuân", StartDate: "01-11-2025"}}, nil
}

func (f *fakeDiaryAPI) ListStages(ctx context.Context) ([]models.Stage, error) {
	return []models.Stage{{ID: "g1", Name: "Làm đất", Order: 1}}, nil
}

func (f *fakeDiaryAPI) ListTasks(ctx context.Context) ([]models.Task, error) {
	return []models.Task{{ID: "t1", Name: "Cày ruộng", StageID: "g1"}}, nil
}

func newLocalServer(t *testing.T) *echo.Echo {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.RunMigrations(context.Background(), db))

	client := &fakeDiaryAPI{}
	monitor := netmon.NewMonitor(false)
	bus := msgbus.New()
	logger := logging.NewNopLogger()

	rt := NewRouter(Config{Version: "v1", UpstreamBase: "http://127.0.0.1:1"},
		cachestore.NewMemoryStorage(), &http.Client{Timeout: time.Second}, monitor, bus, logger)
	refs := refcache.New(client, monitor, store.NewKV(db), logger)
	diary := timeline.NewStore(client, store.NewSQLiteRepository(db), monitor, logger)

	return NewEchoServer(rt, diary, refs, "user-7")
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLocalRoutes_EntryLifecycleOffline(t *testing.T) {
	e := newLocalServer(t)

	rec := doJSON(e, http.MethodPost, "/local/nhatky",
		`{"congViec":"t1","giaiDoan":"g1","muaVu":"s1","ngayThucHien":"05-01-2026","chiPhi":120000}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.TimelineEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, models.IsLocalID(created.ID))
	assert.Equal(t, "user-7", created.OwnerID)
	assert.True(t, created.PendingCreation)

	rec = doJSON(e, http.MethodGet, "/local/nhatky", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.TimelineEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	rec = doJSON(e, http.MethodPut, "/local/nhatky/"+created.ID,
		`{"congViec":"t1","giaiDoan":"g1","muaVu":"s1","ngayThucHien":"05-01-2026","ghiChu":"sửa lại"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.TimelineEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "sửa lại", updated.Note)

	rec = doJSON(e, http.MethodDelete, "/local/nhatky/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodGet, "/local/nhatky", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

func TestLocalRoutes_DeleteUnknownEntry(t *testing.T) {
	e := newLocalServer(t)

	rec := doJSON(e, http.MethodDelete, "/local/nhatky/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLocalRoutes_ReferenceData(t *testing.T) {
	e := newLocalServer(t)

	rec := doJSON(e, http.MethodGet, "/local/muavu", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var seasons []models.Season
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seasons))
	require.Len(t, seasons, 1)
	assert.Equal(t, "Đông Xuân", seasons[0].Name)

	rec = doJSON(e, http.MethodGet, "/local/congviec", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "g1", tasks[0].StageID)
}

func TestHealthz_ReportsPendingChanges(t *testing.T) {
	e := newLocalServer(t)

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, false, health["pending"])
	assert.Equal(t, false, health["online"])
	assert.Equal(t, "v1", health["version"])

	doJSON(e, http.MethodPost, "/local/nhatky", `{"congViec":"t1","ngayThucHien":"05-01-2026"}`)

	rec = doJSON(e, http.MethodGet, "/healthz", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, true, health["pending"])
}
