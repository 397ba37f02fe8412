// Package store is the client-side durable layer for timeline entries.
//
// Records survive restarts in a local SQLite database. Deletes are soft: the
// row stays as a tombstone until the sync coordinator confirms the server has
// applied the deletion, then Purge removes it physically.
package store

import (
	"context"
	"errors"

	"github.com/lvminh/farmdiary/internal/models"
)

var (
	// ErrNotFound is returned when no entry matches the given id.
	ErrNotFound = errors.New("entry not found")

	// ErrQuotaExceeded wraps write failures caused by exhausted local
	// storage. Callers must surface these as a user-visible warning
	// rather than dropping the write silently.
	ErrQuotaExceeded = errors.New("local storage quota exceeded")
)

// Repository describes the durable operations the in-memory stores rely on.
type Repository interface {
	// Put upserts an entry by id, sync metadata included.
	Put(ctx context.Context, e *models.TimelineEntry) error

	// SoftDelete marks an entry as a tombstone awaiting server-side deletion.
	SoftDelete(ctx context.Context, id string) error

	// Purge physically removes an entry. Only called after the server has
	// confirmed a deletion.
	Purge(ctx context.Context, id string) error

	// GetAll returns every entry for the owner, tombstones included.
	// Callers decide what to filter.
	GetAll(ctx context.Context, ownerID string) ([]models.TimelineEntry, error)

	// GetByID returns a single entry, tombstoned or not.
	GetByID(ctx context.Context, id string) (*models.TimelineEntry, error)

	// GetAllPending returns entries with unconfirmed local changes:
	// pending sync status, any pending-* flag, or a tombstone.
	GetAllPending(ctx context.Context, ownerID string) ([]*models.TimelineEntry, error)

	// Confirm stores the server-confirmed copy of a pushed creation,
	// atomically adopting the server-assigned id when it differs from
	// the temporary one.
	Confirm(ctx context.Context, oldID string, e *models.TimelineEntry) error
}
