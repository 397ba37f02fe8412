// Package app assembles the gateway daemon: local database, cache storage,
// network monitor, message bus, offline diary core, and the intercepting
// request router, plus graceful shutdown on OS signals.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	_ "modernc.org/sqlite"

	"github.com/lvminh/farmdiary/internal/api"
	"github.com/lvminh/farmdiary/internal/cachestore"
	"github.com/lvminh/farmdiary/internal/config"
	"github.com/lvminh/farmdiary/internal/gateway"
	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/msgbus"
	"github.com/lvminh/farmdiary/internal/netmon"
	"github.com/lvminh/farmdiary/internal/refcache"
	"github.com/lvminh/farmdiary/internal/store"
	"github.com/lvminh/farmdiary/internal/timeline"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	router      *gateway.Router
	watcher     *netmon.Watcher
	refs        *refcache.Cache
	diary       *timeline.Store
	coordinator *timeline.Coordinator
	server      *echo.Echo
	closeDB     func() error
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()
	db, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	client := api.NewHTTPClient(c.UpstreamBase)
	monitor := netmon.NewMonitor(true)
	bus := msgbus.New()
	storage := cachestore.NewSQLiteStorage(db)

	refs := refcache.New(client, monitor, store.NewKV(db), logger)
	diary := timeline.NewStore(client, store.NewSQLiteRepository(db), monitor, logger)
	coordinator := timeline.NewCoordinator(diary, monitor, bus, c.OwnerID, logger)

	router := gateway.NewRouter(gateway.Config{
		Version:      c.Version,
		UpstreamBase: c.UpstreamBase,
		ShellAssets:  c.ShellAssets,
	}, storage, &http.Client{}, monitor, bus, logger)

	watcher := netmon.NewWatcher(monitor, client, c.OnlineCheckInterval, logger)

	return &App{
		config:      c,
		logger:      logger,
		router:      router,
		watcher:     watcher,
		refs:        refs,
		diary:       diary,
		coordinator: coordinator,
		server:      gateway.NewEchoServer(router, diary, refs, c.OwnerID),
		closeDB:     db.Close,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)

	if err := app.router.Install(ctx); err != nil {
		return fmt.Errorf("install error: %w", err)
	}
	if err := app.router.Activate(ctx); err != nil {
		return fmt.Errorf("activate error: %w", err)
	}

	// Warm the reference cache and surface any changes queued before the
	// last shutdown. Both tolerate an unreachable upstream.
	app.refs.Load(ctx)
	if _, err := app.diary.CheckPendingChanges(ctx, app.config.OwnerID); err != nil {
		app.logger.Warn(ctx, "pending-change scan failed", "error", err)
	}

	go app.watcher.Run(ctx)
	go app.router.Run(ctx)
	go app.coordinator.Run(ctx)

	go func() {
		<-ctx.Done()
		_ = app.server.Shutdown(context.Background())
	}()

	app.logger.Info(ctx, "gateway listening",
		"addr", app.config.ListenAddr, "upstream", app.config.UpstreamBase)
	err := app.server.Start(app.config.ListenAddr)
	if closeErr := app.closeDB(); closeErr != nil {
		app.logger.Warn(ctx, "failed to close database", "error", closeErr)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
