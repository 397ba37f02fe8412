// Package timeline is the read/write store for work-log entries. Writes land
// in the durable store first, then in the in-memory display list, then on the
// server when connectivity allows; the sync coordinator drains whatever could
// not be pushed immediately.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lvminh/farmdiary/internal/api"
	"github.com/lvminh/farmdiary/internal/logging"
	"github.com/lvminh/farmdiary/internal/models"
	"github.com/lvminh/farmdiary/internal/netmon"
	"github.com/lvminh/farmdiary/internal/store"
)

// ErrOffline is returned by SyncWithServer when invoked while the device is
// offline. Mutation operations never return it; they defer instead.
var ErrOffline = errors.New("device is offline")

// Store keeps the in-memory entry list for one signed-in owner, backed by the
// durable store. Display order is always performed-date descending with
// tombstones filtered out.
type Store struct {
	client  api.Client
	repo    store.Repository
	monitor *netmon.Monitor
	logger  logging.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries []models.TimelineEntry
	pending bool
}

func NewStore(client api.Client, repo store.Repository, monitor *netmon.Monitor, logger logging.Logger) *Store {
	return &Store{
		client:  client,
		repo:    repo,
		monitor: monitor,
		logger:  logger,
		now:     time.Now,
	}
}

// Entries returns a copy of the current display list.
func (s *Store) Entries() []models.TimelineEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.TimelineEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// HasPendingChanges reports whether unsynced local work exists. UI layers use
// it for the "has unsynced work" indicator.
func (s *Store) HasPendingChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// FetchEntries refreshes the display list for the owner. Online it replaces
// the list with the server's copy; offline, or when the server cannot be
// reached, it rebuilds the list from the durable store. Network failure is
// never surfaced: the local path is the fallback, not an error.
func (s *Store) FetchEntries(ctx context.Context, ownerID string) ([]models.TimelineEntry, error) {
	if s.monitor.IsOnline() {
		entries, err := s.client.ListEntries(ctx, ownerID)
		if err == nil {
			for i := range entries {
				entries[i].SyncStatus = models.SyncStatusSynced
			}
			models.SortEntriesByDateDesc(entries)
			s.mu.Lock()
			s.entries = entries
			s.mu.Unlock()
			return s.Entries(), nil
		}
		s.logger.Warn(ctx, "server fetch failed, falling back to local store", "error", err)
	}
	return s.fetchLocal(ctx, ownerID)
}

func (s *Store) fetchLocal(ctx context.Context, ownerID string) ([]models.TimelineEntry, error) {
	all, err := s.repo.GetAll(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read local entries: %w", err)
	}
	entries := make([]models.TimelineEntry, 0, len(all))
	for _, e := range all {
		if e.Deleted {
			continue
		}
		entries = append(entries, e)
	}
	models.SortEntriesByDateDesc(entries)
	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	return s.Entries(), nil
}

// AddEntry records a new work log. The durable write happens first so a crash
// before the network round-trip cannot lose the entry; the in-memory list is
// then updated optimistically, and the server push happens immediately when
// online or is deferred when offline.
func (s *Store) AddEntry(ctx context.Context, e models.TimelineEntry) (*models.TimelineEntry, error) {
	if e.ID == "" {
		e.ID = models.NewLocalID()
	}
	e.SyncStatus = models.SyncStatusPending
	e.PendingCreation = true

	if err := s.repo.Put(ctx, &e); err != nil {
		return nil, fmt.Errorf("failed to save entry locally: %w", err)
	}

	s.mu.Lock()
	s.entries = append([]models.TimelineEntry{e}, s.entries...)
	models.SortEntriesByDateDesc(s.entries)
	s.mu.Unlock()

	// Decision point: connectivity is re-read here, not carried over from
	// the durable write above.
	if !s.monitor.IsOnline() {
		s.setPending(true)
		return &e, nil
	}

	confirmed, err := s.pushCreation(ctx, &e)
	if err != nil {
		s.logger.Warn(ctx, "immediate push failed, deferring to sync", "id", e.ID, "error", err)
		s.setPending(true)
		return &e, nil
	}
	return confirmed, nil
}

// UpdateEntry replaces an entry in place by id, durable store first.
func (s *Store) UpdateEntry(ctx context.Context, id string, e models.TimelineEntry) (*models.TimelineEntry, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	e.ID = id
	e.OwnerID = current.OwnerID
	e.SyncStatus = models.SyncStatusPending
	e.PendingCreation = current.PendingCreation
	if !e.PendingCreation {
		e.PendingUpdate = true
	}

	if err := s.repo.Put(ctx, &e); err != nil {
		return nil, fmt.Errorf("failed to save entry locally: %w", err)
	}
	s.replaceInMemory(e)

	if !s.monitor.IsOnline() {
		s.setPending(true)
		return &e, nil
	}

	confirmed, err := s.pushMutation(ctx, &e)
	if err != nil {
		s.logger.Warn(ctx, "immediate push failed, deferring to sync", "id", e.ID, "error", err)
		s.setPending(true)
		return &e, nil
	}
	return confirmed, nil
}

// RemoveEntry drops the entry from the display list and tombstones it in the
// durable store. The row survives locally until the server confirms deletion.
func (s *Store) RemoveEntry(ctx context.Context, id string) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	filtered := s.entries[:0]
	for _, e := range s.entries {
		if e.ID != id {
			filtered = append(filtered, e)
		}
	}
	s.entries = filtered
	s.mu.Unlock()

	if !s.monitor.IsOnline() {
		s.setPending(true)
		return nil
	}

	if err := s.pushDeletion(ctx, id); err != nil {
		s.logger.Warn(ctx, "immediate delete failed, deferring to sync", "id", id, "error", err)
		s.setPending(true)
	}
	return nil
}

// CheckPendingChanges scans the durable store and refreshes the pending flag.
func (s *Store) CheckPendingChanges(ctx context.Context, ownerID string) (bool, error) {
	pending, err := s.repo.GetAllPending(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to scan pending entries: %w", err)
	}
	has := len(pending) > 0
	s.setPending(has)
	return has, nil
}

func (s *Store) setPending(v bool) {
	s.mu.Lock()
	s.pending = v
	s.mu.Unlock()
}

func (s *Store) replaceInMemory(e models.TimelineEntry) {
	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].ID == e.ID {
			s.entries[i] = e
			break
		}
	}
	models.SortEntriesByDateDesc(s.entries)
	s.mu.Unlock()
}

func (s *Store) replaceInMemoryID(oldID string, e models.TimelineEntry) {
	s.mu.Lock()
	for i := range s.entries {
		if s.entries[i].ID == oldID {
			s.entries[i] = e
			break
		}
	}
	s.mu.Unlock()
}
