package timeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/lvminh/farmdiary/internal/api"
	"github.com/lvminh/farmdiary/internal/models"
)

func clearPending(e *models.TimelineEntry) {
	e.SyncStatus = models.SyncStatusSynced
	e.Deleted = false
	e.PendingCreation = false
	e.PendingUpdate = false
	e.PendingDeletion = false
}

func (s *Store) markConfirmed(ctx context.Context, e *models.TimelineEntry) error {
	clearPending(e)
	return s.repo.Put(ctx, e)
}

// pushCreation POSTs a locally created entry. On success the server-assigned
// id replaces the temporary one in the durable store and the display list.
func (s *Store) pushCreation(ctx context.Context, e *models.TimelineEntry) (*models.TimelineEntry, error) {
	confirmed, err := s.client.CreateEntry(ctx, e)
	if err != nil {
		return nil, err
	}

	localID := e.ID
	clearPending(confirmed)
	if err := s.repo.Confirm(ctx, localID, confirmed); err != nil {
		return nil, fmt.Errorf("failed to adopt server id: %w", err)
	}
	s.replaceInMemoryID(localID, *confirmed)
	return confirmed, nil
}

// pushMutation PUTs a locally updated entry. The server copy wins: its
// update stamp is authoritative under the last-write-wins policy.
func (s *Store) pushMutation(ctx context.Context, e *models.TimelineEntry) (*models.TimelineEntry, error) {
	confirmed, err := s.client.UpdateEntry(ctx, e.ID, e)
	if err != nil {
		return nil, err
	}
	if err := s.markConfirmed(ctx, confirmed); err != nil {
		return nil, err
	}
	s.replaceInMemory(*confirmed)
	return confirmed, nil
}

// pushDeletion DELETEs on the server, then purges the tombstone locally.
// A 404 counts as confirmation: the record is already gone server-side.
func (s *Store) pushDeletion(ctx context.Context, id string) error {
	err := s.client.DeleteEntry(ctx, id)
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return err
	}
	return s.repo.Purge(ctx, id)
}

func (s *Store) syncOne(ctx context.Context, e *models.TimelineEntry) error {
	switch {
	case e.Deleted || e.PendingDeletion:
		if e.PendingCreation {
			// Created and deleted entirely offline: the server never
			// saw it, so the tombstone just gets purged.
			return s.repo.Purge(ctx, e.ID)
		}
		return s.pushDeletion(ctx, e.ID)
	case e.PendingCreation:
		_, err := s.pushCreation(ctx, e)
		return err
	default:
		_, err := s.pushMutation(ctx, e)
		return err
	}
}

// SyncWithServer drains the owner's queued local mutations with per-item
// confirmation: creations POST, updates PUT, tombstones DELETE then purge.
// Each item retries transient transport failures with capped exponential
// backoff. The pending flag clears only once every queued item is confirmed;
// a partial failure leaves the flag set and the failed items queued.
func (s *Store) SyncWithServer(ctx context.Context, ownerID string) error {
	if !s.monitor.IsOnline() {
		return ErrOffline
	}

	queued, err := s.repo.GetAllPending(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("failed to read sync queue: %w", err)
	}
	if len(queued) == 0 {
		s.setPending(false)
		return nil
	}

	var failures []error
	for _, e := range queued {
		backoff := retry.WithMaxRetries(3, retry.NewExponential(250*time.Millisecond))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := s.syncOne(ctx, e); err != nil {
				if errors.Is(err, api.ErrUnavailable) {
					return retry.RetryableError(err)
				}
				return err
			}
			return nil
		})
		if err != nil {
			s.logger.Warn(ctx, "failed to sync entry", "id", e.ID, "error", err)
			failures = append(failures, fmt.Errorf("entry %s: %w", e.ID, err))
		}
	}

	if len(failures) > 0 {
		return errors.Join(failures...)
	}
	s.setPending(false)
	s.logger.Info(ctx, "sync queue drained", "owner", ownerID, "count", len(queued))
	return nil
}
