package entry

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	entriesTable   = "entries"
	relationsTable = "relations"
)

// EntryRow represents the database row for an entry. Field values are stored
// serialized, keyed by field handle.
type EntryRow struct {
	ID          int64                           `db:"id" fieldtag:"pk"`
	FormID      int64                           `db:"form_id"`
	StatusID    int64                           `db:"status_id"`
	SiteID      int64                           `db:"site_id"`
	Enabled     bool                            `db:"enabled"`
	FieldValues database.JSONB[map[string]any] `db:"field_values"`
	IPAddress   sql.NullString                  `db:"ip_address"`
	UserAgent   sql.NullString                  `db:"user_agent"`
	CreatedAt   time.Time                       `db:"created_at"`
	UpdatedAt   time.Time                       `db:"updated_at"`
}

var entryStruct = database.NewStruct(new(EntryRow))

// FromEntry converts an entry to a row. values must already be serialized by
// the form's fields.
func FromEntry(e *models.Entry, values map[string]any) *EntryRow {
	return &EntryRow{
		ID:          e.ID,
		FormID:      e.FormID,
		StatusID:    e.StatusID,
		SiteID:      e.SiteID,
		Enabled:     e.Enabled,
		FieldValues: database.NewJSONB(values),
		IPAddress:   sql.NullString{String: e.IPAddress, Valid: e.IPAddress != ""},
		UserAgent:   sql.NullString{String: e.UserAgent, Valid: e.UserAgent != ""},
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// ToEntry converts a row to an entry holding raw stored values.
func ToEntry(row *EntryRow) *models.Entry {
	values := row.FieldValues.Data
	if values == nil {
		values = map[string]any{}
	}
	return &models.Entry{
		ID:        row.ID,
		FormID:    row.FormID,
		StatusID:  row.StatusID,
		SiteID:    row.SiteID,
		Enabled:   row.Enabled,
		Values:    values,
		Errors:    errors.ValidationErrors{},
		IPAddress: row.IPAddress.String,
		UserAgent: row.UserAgent.String,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func ToEntries(rows []EntryRow) []*models.Entry {
	entries := make([]*models.Entry, len(rows))
	for i, row := range rows {
		entries[i] = ToEntry(&row)
	}
	return entries
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
