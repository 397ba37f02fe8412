// Package api is the REST client for the diary server. The server owns
// validation and persistence; this client only moves JSON.
package api

import (
	"context"
	"errors"

	"github.com/lvminh/farmdiary/internal/models"
)

var (
	// ErrUnavailable means the server could not be reached at all.
	ErrUnavailable = errors.New("server unavailable")

	// ErrNotFound maps HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrServer maps any other non-2xx response.
	ErrServer = errors.New("server error")
)

// Client is the surface the stores and the sync coordinator depend on.
type Client interface {
	Ping(ctx context.Context) error

	ListSeasons(ctx context.Context) ([]models.Season, error)
	ListStages(ctx context.Context) ([]models.Stage, error)
	ListTasks(ctx context.Context) ([]models.Task, error)

	ListEntries(ctx context.Context, ownerID string) ([]models.TimelineEntry, error)

	// CreateEntry returns the server copy, id and update stamp assigned.
	CreateEntry(ctx context.Context, e *models.TimelineEntry) (*models.TimelineEntry, error)
	UpdateEntry(ctx context.Context, id string, e *models.TimelineEntry) (*models.TimelineEntry, error)
	DeleteEntry(ctx context.Context, id string) error
}
