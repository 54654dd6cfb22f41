package models

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/errors"
)

// Entry is one submission of a form. ID is zero until it has been persisted.
type Entry struct {
	ID         int64                   `json:"id"`
	FormID     int64                   `json:"form_id"`
	FormHandle string                  `json:"form_handle"`
	StatusID   int64                   `json:"status_id"`
	SiteID     int64                   `json:"site_id"`
	Enabled    bool                    `json:"enabled"`
	Values     map[string]any          `json:"values"`
	Errors     errors.ValidationErrors `json:"errors,omitempty"`
	IPAddress  string                  `json:"ip_address,omitempty"`
	UserAgent  string                  `json:"user_agent,omitempty"`
	// Owner is the session or user that temporary uploads belong to.
	Owner     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// Faked is set when a before-save listener asked for simulated success.
	Faked bool `json:"faked,omitempty"`
}

func NewEntry(form *Form) *Entry {
	return &Entry{
		FormID:     form.ID,
		FormHandle: form.Handle,
		SiteID:     1,
		Enabled:    true,
		Values:     map[string]any{},
		Errors:     errors.ValidationErrors{},
	}
}

func (e *Entry) IsNew() bool {
	return e.ID == 0
}

func (e *Entry) GetValue(handle string) any {
	if e.Values == nil {
		return nil
	}
	return e.Values[handle]
}

func (e *Entry) SetValue(handle string, value any) {
	if e.Values == nil {
		e.Values = map[string]any{}
	}
	e.Values[handle] = value
}

func (e *Entry) AddError(handle string, messages ...string) {
	if e.Errors == nil {
		e.Errors = errors.ValidationErrors{}
	}
	e.Errors.Add(handle, messages...)
}

func (e *Entry) HasErrors() bool {
	return e.Errors.HasErrors()
}

func (e *Entry) ClearErrors() {
	e.Errors = errors.ValidationErrors{}
}
