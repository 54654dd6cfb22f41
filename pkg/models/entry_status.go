package models

import "github.com/Ramsey-B/fern/pkg/errors"

// EntryStatus is an orderable label attached to entries. At most one is the default.
type EntryStatus struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" validate:"required"`
	Handle    string `json:"handle" validate:"required"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
	IsDefault bool   `json:"is_default"`
	// Errors holds the validation messages of the last failed save.
	Errors errors.ValidationErrors `json:"errors,omitempty"`
}

// Relation links an entry field to a target record.
type Relation struct {
	ID           int64  `json:"id"`
	FieldID      int64  `json:"field_id"`
	SourceID     int64  `json:"source_id"`
	SourceSiteID *int64 `json:"source_site_id,omitempty"`
	TargetID     int64  `json:"target_id"`
	SortOrder    int    `json:"sort_order"`
}
