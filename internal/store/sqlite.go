package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lvminh/farmdiary/internal/dbx"
	"github.com/lvminh/farmdiary/internal/models"
)

// SQLiteRepository implements Repository. Statements run against db, which
// is the root handle normally and a transaction inside Confirm.
type SQLiteRepository struct {
	db   dbx.DBTX
	root *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, root: db}
}

// entryRecord is the persisted shape of a TimelineEntry. Supplies collapse
// into one JSON column; everything else maps to scalar columns. Keeping the
// conversion in two named functions makes the persisted contract visible.
type entryRecord struct {
	id              string
	ownerID         string
	performedOn     string
	taskID          string
	stageID         string
	seasonID        string
	cost            float64
	supplies        string
	note            string
	updatedAt       int64
	syncStatus      string
	deleted         bool
	pendingCreation bool
	pendingUpdate   bool
	pendingDeletion bool
}

func serializeEntry(e *models.TimelineEntry) (*entryRecord, error) {
	supplies, err := json.Marshal(e.Supplies)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize supplies: %w", err)
	}
	status := e.SyncStatus
	if status == "" {
		status = models.SyncStatusPending
	}
	return &entryRecord{
		id:              e.ID,
		ownerID:         e.OwnerID,
		performedOn:     e.PerformedOn,
		taskID:          e.TaskID,
		stageID:         e.StageID,
		seasonID:        e.SeasonID,
		cost:            e.Cost,
		supplies:        string(supplies),
		note:            e.Note,
		updatedAt:       e.UpdatedAt,
		syncStatus:      string(status),
		deleted:         e.Deleted,
		pendingCreation: e.PendingCreation,
		pendingUpdate:   e.PendingUpdate,
		pendingDeletion: e.PendingDeletion,
	}, nil
}

func deserializeEntry(r *entryRecord) (*models.TimelineEntry, error) {
	var supplies []models.SupplyUsage
	if r.supplies != "" {
		if err := json.Unmarshal([]byte(r.supplies), &supplies); err != nil {
			return nil, fmt.Errorf("failed to deserialize supplies: %w", err)
		}
	}
	return &models.TimelineEntry{
		ID:              r.id,
		OwnerID:         r.ownerID,
		PerformedOn:     r.performedOn,
		TaskID:          r.taskID,
		StageID:         r.stageID,
		SeasonID:        r.seasonID,
		Cost:            r.cost,
		Supplies:        supplies,
		Note:            r.note,
		UpdatedAt:       r.updatedAt,
		SyncStatus:      models.SyncStatus(r.syncStatus),
		Deleted:         r.deleted,
		PendingCreation: r.pendingCreation,
		PendingUpdate:   r.pendingUpdate,
		PendingDeletion: r.pendingDeletion,
	}, nil
}

// mapWriteError wraps storage-exhaustion failures in ErrQuotaExceeded so
// callers can warn the user instead of losing data silently.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database or disk is full") || strings.Contains(msg, "SQLITE_FULL") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}

const entryColumns = `id, owner_id, performed_on, task_id, stage_id, season_id,
	cost, supplies, note, updated_at, sync_status, deleted,
	pending_creation, pending_update, pending_deletion`

func scanEntry(row interface{ Scan(...any) error }) (*models.TimelineEntry, error) {
	var r entryRecord
	err := row.Scan(&r.id, &r.ownerID, &r.performedOn, &r.taskID, &r.stageID,
		&r.seasonID, &r.cost, &r.supplies, &r.note, &r.updatedAt,
		&r.syncStatus, &r.deleted,
		&r.pendingCreation, &r.pendingUpdate, &r.pendingDeletion)
	if err != nil {
		return nil, err
	}
	return deserializeEntry(&r)
}

// Put upserts an entry by id. On conflict every mutable column is replaced.
func (s *SQLiteRepository) Put(ctx context.Context, e *models.TimelineEntry) error {
	r, err := serializeEntry(e)
	if err != nil {
		return err
	}
	query := `INSERT INTO timeline_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			performed_on = excluded.performed_on,
			task_id = excluded.task_id,
			stage_id = excluded.stage_id,
			season_id = excluded.season_id,
			cost = excluded.cost,
			supplies = excluded.supplies,
			note = excluded.note,
			updated_at = excluded.updated_at,
			sync_status = excluded.sync_status,
			deleted = excluded.deleted,
			pending_creation = excluded.pending_creation,
			pending_update = excluded.pending_update,
			pending_deletion = excluded.pending_deletion
	`
	_, err = s.db.ExecContext(ctx, query,
		r.id, r.ownerID, r.performedOn, r.taskID, r.stageID, r.seasonID,
		r.cost, r.supplies, r.note, r.updatedAt, r.syncStatus, r.deleted,
		r.pendingCreation, r.pendingUpdate, r.pendingDeletion)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", mapWriteError(err))
	}
	return nil
}

// SoftDelete tombstones an entry and flags it for server-side deletion.
func (s *SQLiteRepository) SoftDelete(ctx context.Context, id string) error {
	query := `UPDATE timeline_entries
		SET deleted = 1, pending_deletion = 1, sync_status = ?
		WHERE id = ? AND deleted = 0`
	res, err := s.db.ExecContext(ctx, query, string(models.SyncStatusPending), id)
	if err != nil {
		return fmt.Errorf("failed to tombstone entry: %w", mapWriteError(err))
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge removes a row for good.
func (s *SQLiteRepository) Purge(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM timeline_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to purge entry: %w", err)
	}
	return nil
}

// GetAll lists the owner's entries, tombstones included.
func (s *SQLiteRepository) GetAll(ctx context.Context, ownerID string) ([]models.TimelineEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timeline_entries WHERE owner_id = ?`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select entries: %w", err)
	}
	defer rows.Close()

	var result []models.TimelineEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.TimelineEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timeline_entries WHERE id = ?`
	e, err := scanEntry(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

// GetAllPending returns entries still awaiting server confirmation.
func (s *SQLiteRepository) GetAllPending(ctx context.Context, ownerID string) ([]*models.TimelineEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM timeline_entries
		WHERE owner_id = ?
		AND (sync_status = ? OR deleted = 1
			OR pending_creation = 1 OR pending_update = 1 OR pending_deletion = 1)`
	rows, err := s.db.QueryContext(ctx, query, ownerID, string(models.SyncStatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to select pending entries: %w", err)
	}
	defer rows.Close()

	var pending []*models.TimelineEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pending, nil
}

// ReplaceID swaps a temporary local id for the server-assigned one.
func (s *SQLiteRepository) ReplaceID(ctx context.Context, oldID, newID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE timeline_entries SET id = ? WHERE id = ?`, newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to replace entry id: %w", mapWriteError(err))
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return ErrNotFound
	}
	return nil
}

// Confirm adopts the server copy of a pushed creation: the temporary id is
// rewritten to the server-assigned one and the confirmed entry stored, both
// in one transaction. A crash between the two steps cannot leave the row
// under the old id with confirmed flags.
func (s *SQLiteRepository) Confirm(ctx context.Context, oldID string, e *models.TimelineEntry) error {
	return dbx.WithTx(ctx, s.root, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := &SQLiteRepository{db: tx}
		if oldID != e.ID {
			if err := r.ReplaceID(ctx, oldID, e.ID); err != nil {
				return err
			}
		}
		return r.Put(ctx, e)
	})
}
