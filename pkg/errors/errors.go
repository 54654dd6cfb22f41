package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// ErrNotPersisted is returned by a repository when the row could not be written
// for a reason that is a normal negative result rather than a fault.
var ErrNotPersisted = stderrors.New("entry was not persisted")

// ErrAssetsNotMoved is returned next to a successful save when related assets
// could not be moved into their upload folder. They stay where they were.
var ErrAssetsNotMoved = stderrors.New("related assets were not moved")

type ConfigErrorKind string

const (
	InvalidVolume  ConfigErrorKind = "invalid_volume"
	InvalidSubpath ConfigErrorKind = "invalid_subpath"
	MissingStatus  ConfigErrorKind = "missing_status"
)

// ConfigError reports misconfigured storage or status records.
type ConfigError struct {
	Kind    ConfigErrorKind
	Field   string
	Message string
}

func NewConfigError(kind ConfigErrorKind, field string, format string, args ...any) *ConfigError {
	return &ConfigError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s': %s", e.Field, e.Message)
}

func (e *ConfigError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusInternalServerError, e.Error()).
		AddMetaValue("kind", string(e.Kind)).
		AddMetaValue("field", e.Field)
}

func IsConfigError(err error) bool {
	var configErr *ConfigError
	return stderrors.As(err, &configErr)
}

func AsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	ok := stderrors.As(err, &configErr)
	return configErr, ok
}

// IsNotFound reports a 404 httperror.
func IsNotFound(err error) bool {
	return httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

// ValidationErrors maps a field handle to its messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) Add(handle string, messages ...string) {
	for _, msg := range messages {
		if msg == "" {
			continue
		}
		v[handle] = append(v[handle], msg)
	}
}

func (v ValidationErrors) Merge(other map[string][]string) {
	for handle, messages := range other {
		v.Add(handle, messages...)
	}
}

func (v ValidationErrors) HasErrors() bool {
	for _, messages := range v {
		if len(messages) > 0 {
			return true
		}
	}
	return false
}

func (v ValidationErrors) Error() string {
	handles := make([]string, 0, len(v))
	for handle := range v {
		handles = append(handles, handle)
	}
	sort.Strings(handles)

	parts := make([]string, 0, len(handles))
	for _, handle := range handles {
		parts = append(parts, fmt.Sprintf("%s: %s", handle, strings.Join(v[handle], "; ")))
	}
	return strings.Join(parts, ", ")
}

func (v ValidationErrors) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusUnprocessableEntity, "entry failed validation").
		AddMetaValue("errors", map[string][]string(v))
}
