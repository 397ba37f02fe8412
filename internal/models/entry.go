// Package models defines the timeline and reference-data types shared by the
// farm-diary sync components.
package models

import (
	"strings"

	"github.com/google/uuid"
)

// SyncStatus tracks whether a local record matches the server copy.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
)

// LocalIDPrefix marks ids assigned on the client before the server has
// confirmed a creation. They are replaced by the server id on first sync.
const LocalIDPrefix = "local-"

// NewLocalID returns a temporary client-side id for an offline creation.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}

// IsLocalID reports whether id was assigned locally and still awaits a
// server-assigned replacement.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// SupplyUsage records consumption of one supply item within a work log.
type SupplyUsage struct {
	SupplyID string  `json:"vatTuId"`
	Quantity float64 `json:"soLuong"`
	UnitCost float64 `json:"donGia"`
}

// TimelineEntry is a single work-log record (nhật ký). JSON field names match
// the diary server's wire format.
//
// The underscore-prefixed fields are sync metadata maintained by the local
// store; the server never sees them.
type TimelineEntry struct {
	ID          string        `json:"_id,omitempty"`
	OwnerID     string        `json:"uId"`
	PerformedOn string        `json:"ngayThucHien"` // DD-MM-YYYY
	TaskID      string        `json:"congViec"`
	StageID     string        `json:"giaiDoan"`
	SeasonID    string        `json:"muaVu"`
	Cost        float64       `json:"chiPhi"`
	Supplies    []SupplyUsage `json:"vatTu,omitempty"`
	Note        string        `json:"ghiChu,omitempty"`
	UpdatedAt   int64         `json:"updatedAt,omitempty"` // server-assigned, unix millis

	SyncStatus      SyncStatus `json:"_syncStatus,omitempty"`
	Deleted         bool       `json:"_deleted,omitempty"`
	PendingCreation bool       `json:"_pendingCreation,omitempty"`
	PendingUpdate   bool       `json:"_pendingUpdate,omitempty"`
	PendingDeletion bool       `json:"_pendingDeletion,omitempty"`
}

// HasPendingWork reports whether the entry still carries a local change that
// has not been confirmed by the server.
func (e *TimelineEntry) HasPendingWork() bool {
	return e.SyncStatus == SyncStatusPending || e.Deleted ||
		e.PendingCreation || e.PendingUpdate || e.PendingDeletion
}
