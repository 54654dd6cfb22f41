package entrystatus

import (
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	entryStatusesTable = "entry_statuses"
	entriesTable       = "entries"
)

// EntryStatusRow represents the database row for an entry status
type EntryStatusRow struct {
	ID        int64  `db:"id" fieldtag:"pk"`
	Name      string `db:"name"`
	Handle    string `db:"handle"`
	Color     string `db:"color"`
	SortOrder int    `db:"sort_order"`
	IsDefault bool   `db:"is_default"`
}

var entryStatusStruct = database.NewStruct(new(EntryStatusRow))

func FromEntryStatus(s *models.EntryStatus) *EntryStatusRow {
	return &EntryStatusRow{
		ID:        s.ID,
		Name:      s.Name,
		Handle:    s.Handle,
		Color:     s.Color,
		SortOrder: s.SortOrder,
		IsDefault: s.IsDefault,
	}
}

func ToEntryStatus(row *EntryStatusRow) *models.EntryStatus {
	return &models.EntryStatus{
		ID:        row.ID,
		Name:      row.Name,
		Handle:    row.Handle,
		Color:     row.Color,
		SortOrder: row.SortOrder,
		IsDefault: row.IsDefault,
	}
}

func ToEntryStatuses(rows []EntryStatusRow) []models.EntryStatus {
	statuses := make([]models.EntryStatus, len(rows))
	for i, row := range rows {
		statuses[i] = *ToEntryStatus(&row)
	}
	return statuses
}
