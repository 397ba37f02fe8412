package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePerformedDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    PerformedDate
		wantErr bool
	}{
		{name: "valid", in: "05-06-2024", want: PerformedDate{Day: 5, Month: 6, Year: 2024}},
		{name: "ambiguous day month kept positional", in: "03-04-2023", want: PerformedDate{Day: 3, Month: 4, Year: 2023}},
		{name: "missing segment", in: "05-2024", wantErr: true},
		{name: "non numeric", in: "aa-06-2024", wantErr: true},
		{name: "month out of range", in: "05-13-2024", wantErr: true},
		{name: "day out of range", in: "32-01-2024", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "iso format rejected", in: "2024-06-05", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePerformedDate(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSortEntriesByDateDesc(t *testing.T) {
	entries := []TimelineEntry{
		{ID: "a", PerformedOn: "01-06-2024"},
		{ID: "b", PerformedOn: "15-06-2024"},
		{ID: "c", PerformedOn: "28-05-2024"},
		{ID: "d", PerformedOn: "15-06-2024"},
	}

	SortEntriesByDateDesc(entries)

	require.Len(t, entries, 4)
	assert.Equal(t, "b", entries[0].ID)
	// Stable: d keeps its position after b for the tied date.
	assert.Equal(t, "d", entries[1].ID)
	assert.Equal(t, "a", entries[2].ID)
	assert.Equal(t, "c", entries[3].ID)
}

func TestSortEntriesByDateDesc_InvalidDatesLast(t *testing.T) {
	entries := []TimelineEntry{
		{ID: "bad", PerformedOn: "not-a-date"},
		{ID: "good", PerformedOn: "01-01-2020"},
	}

	SortEntriesByDateDesc(entries)

	assert.Equal(t, "good", entries[0].ID)
	assert.Equal(t, "bad", entries[1].ID)
}

func TestLocalIDs(t *testing.T) {
	id := NewLocalID()
	assert.True(t, IsLocalID(id))
	assert.False(t, IsLocalID("665f1c2e9b3a7d0012345678"))
}

func TestHasPendingWork(t *testing.T) {
	assert.False(t, (&TimelineEntry{SyncStatus: SyncStatusSynced}).HasPendingWork())
	assert.True(t, (&TimelineEntry{SyncStatus: SyncStatusPending}).HasPendingWork())
	assert.True(t, (&TimelineEntry{SyncStatus: SyncStatusSynced, Deleted: true}).HasPendingWork())
	assert.True(t, (&TimelineEntry{SyncStatus: SyncStatusSynced, PendingUpdate: true}).HasPendingWork())
}
