package gateway

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lvminh/farmdiary/internal/models"
	"github.com/lvminh/farmdiary/internal/refcache"
	"github.com/lvminh/farmdiary/internal/store"
	"github.com/lvminh/farmdiary/internal/timeline"
)

// NewEchoServer mounts the router on an echo server. Everything except the
// gateway's own control endpoints flows through the strategy dispatch.
//
// The /local/ routes answer from the offline core (durable store and
// reference cache) and keep working with no upstream reachable; they never
// touch the strategy dispatch.
func NewEchoServer(rt *Router, diary *timeline.Store, refs *refcache.Cache, ownerID string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"version": rt.version,
			"online":  rt.monitor.IsOnline(),
			"pending": diary.HasPendingChanges(),
		})
	})

	// Background-sync trigger: relayed to subscribers, never queued here.
	e.POST("/internal/sync", func(c echo.Context) error {
		rt.TriggerSync()
		return c.NoContent(http.StatusAccepted)
	})

	e.GET("/local/muavu", func(c echo.Context) error {
		return c.JSON(http.StatusOK, refs.Seasons(c.Request().Context()))
	})
	e.GET("/local/giaidoan", func(c echo.Context) error {
		return c.JSON(http.StatusOK, refs.Stages(c.Request().Context()))
	})
	e.GET("/local/congviec", func(c echo.Context) error {
		return c.JSON(http.StatusOK, refs.Tasks(c.Request().Context()))
	})

	e.GET("/local/nhatky", func(c echo.Context) error {
		entries, err := diary.FetchEntries(c.Request().Context(), ownerID)
		if err != nil {
			return diaryError(err)
		}
		return c.JSON(http.StatusOK, entries)
	})
	e.POST("/local/nhatky", func(c echo.Context) error {
		var in models.TimelineEntry
		if err := c.Bind(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		in.OwnerID = ownerID
		saved, err := diary.AddEntry(c.Request().Context(), in)
		if err != nil {
			return diaryError(err)
		}
		return c.JSON(http.StatusCreated, saved)
	})
	e.PUT("/local/nhatky/:id", func(c echo.Context) error {
		var in models.TimelineEntry
		if err := c.Bind(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		in.OwnerID = ownerID
		saved, err := diary.UpdateEntry(c.Request().Context(), c.Param("id"), in)
		if err != nil {
			return diaryError(err)
		}
		return c.JSON(http.StatusOK, saved)
	})
	e.DELETE("/local/nhatky/:id", func(c echo.Context) error {
		if err := diary.RemoveEntry(c.Request().Context(), c.Param("id")); err != nil {
			return diaryError(err)
		}
		return c.NoContent(http.StatusNoContent)
	})

	e.Any("/*", echo.WrapHandler(rt))
	return e
}

func diaryError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrQuotaExceeded):
		return echo.NewHTTPError(http.StatusInsufficientStorage, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
