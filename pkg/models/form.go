package models

import "time"

// Form is an ordered collection of field definitions that can be submitted.
type Form struct {
	ID           int64             `json:"id" yaml:"-"`
	Handle       string            `json:"handle" yaml:"handle" validate:"required"`
	Name         string            `json:"name" yaml:"name" validate:"required"`
	SubmitAction string            `json:"submit_action,omitempty" yaml:"submitAction"`
	SaveData     bool              `json:"save_data" yaml:"saveData"`
	CreatedAt    time.Time         `json:"created_at" yaml:"-"`
	UpdatedAt    time.Time         `json:"updated_at" yaml:"-"`
	Fields       []FieldDefinition `json:"fields,omitempty" yaml:"fields" validate:"dive"`
}

// FieldByHandle returns the definition with the given handle.
func (f *Form) FieldByHandle(handle string) (FieldDefinition, bool) {
	for _, field := range f.Fields {
		if field.Handle == handle {
			return field, true
		}
	}
	return FieldDefinition{}, false
}

// FieldDefinition configures one input of a form.
type FieldDefinition struct {
	ID           int64          `json:"id" yaml:"-"`
	FormID       int64          `json:"form_id" yaml:"-"`
	Handle       string         `json:"handle" yaml:"handle" validate:"required"`
	Name         string         `json:"name" yaml:"name" validate:"required"`
	Type         string         `json:"type" yaml:"type" validate:"required"`
	Instructions string         `json:"instructions,omitempty" yaml:"instructions"`
	Required     bool           `json:"required" yaml:"required"`
	SortOrder    int            `json:"sort_order" yaml:"sortOrder"`
	Settings     map[string]any `json:"settings,omitempty" yaml:"settings"`
}
