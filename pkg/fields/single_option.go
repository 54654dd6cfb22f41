package fields

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const (
	TypeDropdown     = "dropdown"
	TypeRadioButtons = "radiobuttons"
)

type optionSettings struct {
	Options any `json:"options"`
}

func init() {
	Register(TypeDropdown, NewSingleOptionField)
	Register(TypeRadioButtons, NewSingleOptionField)
}

// SingleOptionField is a one-of field (dropdown, radio buttons).
type SingleOptionField struct {
	base
	options *OptionSet
}

func NewSingleOptionField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ParseArguments[optionSettings](def.Settings)
	if err != nil {
		return nil, err
	}

	options, err := NewOptionSet(settings.Options, false)
	if err != nil {
		return nil, err
	}

	return &SingleOptionField{
		base:    newBase(def, deps),
		options: options,
	}, nil
}

func (f *SingleOptionField) Options() *OptionSet {
	return f.options
}

func (f *SingleOptionField) NormalizeValue(raw any, entry *models.Entry) (any, error) {
	value, err := f.options.NormalizeSingle(raw, entry)
	if err != nil {
		return nil, fmt.Errorf("%s is invalid.", f.name())
	}
	return value, nil
}

func (f *SingleOptionField) SerializeValue(value any) any {
	if v, ok := value.(models.SingleOptionValue); ok {
		return v.Value
	}
	return value
}

func (f *SingleOptionField) Validate(_ context.Context, value any, _ *models.Entry) []string {
	v, ok := value.(models.SingleOptionValue)
	if !ok {
		return []string{fmt.Sprintf("%s is invalid.", f.name())}
	}
	if v.Value != "" && !f.options.Contains(v.Value) {
		return []string{fmt.Sprintf("%s is invalid.", f.name())}
	}
	return nil
}

func (f *SingleOptionField) IsEmpty(value any) bool {
	v, ok := value.(models.SingleOptionValue)
	if !ok {
		return value == nil
	}
	return v.Value == ""
}

func (f *SingleOptionField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	v, _ := value.(models.SingleOptionValue)
	return f.markup(v.Value, map[string]any{
		"options": v.Options,
	})
}

func (f *SingleOptionField) RenderSummary(value any) string {
	if v, ok := value.(models.SingleOptionValue); ok {
		return v.Value
	}
	return toString(value)
}
