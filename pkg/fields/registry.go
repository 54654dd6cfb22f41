package fields

import (
	"net/http"
	"sort"
	"sync"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Ramsey-B/fern/pkg/models"
)

type Factory func(def models.FieldDefinition, deps Dependencies) (Field, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register binds a type tag to a factory. Registering a tag twice replaces it.
func Register(tag string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[tag] = factory
}

// New builds the field for a definition from its type tag.
func New(def models.FieldDefinition, deps Dependencies) (Field, error) {
	registryMu.RLock()
	factory, ok := registry[def.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown field type '%s'", def.Type).
			AddMetaValue("field", def.Handle)
	}

	field, err := factory(def, deps)
	if err != nil {
		if httperror.IsHTTPError(err) {
			return nil, err
		}
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid settings for field '%s': %s", def.Handle, err.Error()).
			AddMetaValue("field", def.Handle)
	}
	return field, nil
}

// Build creates the fields of a form in definition order.
func Build(form *models.Form, deps Dependencies) ([]Field, error) {
	fields := make([]Field, 0, len(form.Fields))
	for _, def := range form.Fields {
		field, err := New(def, deps)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// Types lists the registered type tags.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
