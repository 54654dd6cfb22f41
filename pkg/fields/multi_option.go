package fields

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const (
	TypeCheckboxes  = "checkboxes"
	TypeMultiSelect = "multiselect"
)

func init() {
	Register(TypeCheckboxes, NewMultiOptionField)
	Register(TypeMultiSelect, NewMultiOptionField)
}

// MultiOptionField is a many-of field (checkboxes, multi-select).
type MultiOptionField struct {
	base
	options *OptionSet
}

func NewMultiOptionField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ParseArguments[optionSettings](def.Settings)
	if err != nil {
		return nil, err
	}

	options, err := NewOptionSet(settings.Options, true)
	if err != nil {
		return nil, err
	}

	return &MultiOptionField{
		base:    newBase(def, deps),
		options: options,
	}, nil
}

func (f *MultiOptionField) Options() *OptionSet {
	return f.options
}

func (f *MultiOptionField) NormalizeValue(raw any, entry *models.Entry) (any, error) {
	value, err := f.options.NormalizeMulti(raw, entry)
	if err != nil {
		return nil, fmt.Errorf("%s must be a list of values.", f.name())
	}
	return value, nil
}

func (f *MultiOptionField) SerializeValue(value any) any {
	if v, ok := value.(models.MultiOptionValue); ok {
		return v.Values()
	}
	return value
}

func (f *MultiOptionField) Validate(_ context.Context, value any, _ *models.Entry) []string {
	v, ok := value.(models.MultiOptionValue)
	if !ok || v.Malformed {
		return []string{fmt.Sprintf("%s must be a list of values.", f.name())}
	}

	invalid := ectolinq.Filter(v.Values(), func(value string) bool {
		return !f.options.Contains(value)
	})
	if len(invalid) > 0 {
		return []string{fmt.Sprintf("%s is invalid.", f.name())}
	}
	return nil
}

func (f *MultiOptionField) IsEmpty(value any) bool {
	v, ok := value.(models.MultiOptionValue)
	if !ok {
		return value == nil
	}
	return len(v.Selections) == 0 && !v.Malformed
}

func (f *MultiOptionField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	v, _ := value.(models.MultiOptionValue)
	return f.markup(v.Values(), map[string]any{
		"options": v.Options,
	})
}

func (f *MultiOptionField) RenderSummary(value any) string {
	v, ok := value.(models.MultiOptionValue)
	if !ok {
		return toString(value)
	}
	labels := ectolinq.Map(v.Selections, func(option models.OptionData) string {
		return option.Label
	})
	return strings.Join(labels, ", ")
}
