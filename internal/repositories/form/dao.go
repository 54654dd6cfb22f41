package form

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	formsTable  = "forms"
	fieldsTable = "fields"
)

// FormRow represents the database row for a form
type FormRow struct {
	ID           int64          `db:"id" fieldtag:"pk"`
	Handle       string         `db:"handle"`
	Name         string         `db:"name"`
	SubmitAction sql.NullString `db:"submit_action"`
	SaveData     bool           `db:"save_data"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// FieldRow represents the database row for a field definition
type FieldRow struct {
	ID           int64                           `db:"id" fieldtag:"pk"`
	FormID       int64                           `db:"form_id"`
	Handle       string                          `db:"handle"`
	Name         string                          `db:"name"`
	Type         string                          `db:"type"`
	Instructions sql.NullString                  `db:"instructions"`
	Required     bool                            `db:"required"`
	SortOrder    int                             `db:"sort_order"`
	Settings     database.JSONB[map[string]any] `db:"settings"`
}

var (
	formStruct  = database.NewStruct(new(FormRow))
	fieldStruct = database.NewStruct(new(FieldRow))
)

func FromForm(f *models.Form) *FormRow {
	return &FormRow{
		ID:           f.ID,
		Handle:       f.Handle,
		Name:         f.Name,
		SubmitAction: sql.NullString{String: f.SubmitAction, Valid: f.SubmitAction != ""},
		SaveData:     f.SaveData,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func ToForm(row *FormRow) *models.Form {
	return &models.Form{
		ID:           row.ID,
		Handle:       row.Handle,
		Name:         row.Name,
		SubmitAction: row.SubmitAction.String,
		SaveData:     row.SaveData,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func FromField(f *models.FieldDefinition) *FieldRow {
	return &FieldRow{
		ID:           f.ID,
		FormID:       f.FormID,
		Handle:       f.Handle,
		Name:         f.Name,
		Type:         f.Type,
		Instructions: sql.NullString{String: f.Instructions, Valid: f.Instructions != ""},
		Required:     f.Required,
		SortOrder:    f.SortOrder,
		Settings:     database.NewJSONB(f.Settings),
	}
}

func ToField(row *FieldRow) models.FieldDefinition {
	return models.FieldDefinition{
		ID:           row.ID,
		FormID:       row.FormID,
		Handle:       row.Handle,
		Name:         row.Name,
		Type:         row.Type,
		Instructions: row.Instructions.String,
		Required:     row.Required,
		SortOrder:    row.SortOrder,
		Settings:     row.Settings.Data,
	}
}

func ToFields(rows []FieldRow) []models.FieldDefinition {
	fields := make([]models.FieldDefinition, len(rows))
	for i, row := range rows {
		fields[i] = ToField(&row)
	}
	return fields
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
