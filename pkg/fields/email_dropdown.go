package fields

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const TypeEmailDropdown = "emaildropdown"

func init() {
	Register(TypeEmailDropdown, NewEmailDropdownField)
}

// EmailDropdownField is a one-of field whose option values are email
// addresses. Inputs render the option index so addresses never reach the page.
type EmailDropdownField struct {
	SingleOptionField
}

func NewEmailDropdownField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	field, err := NewSingleOptionField(def, deps)
	if err != nil {
		return nil, err
	}
	single := field.(*SingleOptionField)

	for _, option := range single.options.Options() {
		if option.Value == "" {
			continue
		}
		if err := utils.ValidateValue(option.Value, "email"); err != nil {
			return nil, fmt.Errorf("option '%s' is not a valid email address", option.Label)
		}
	}

	return &EmailDropdownField{SingleOptionField: *single}, nil
}

// Unobfuscate swaps a submitted option index for the option's address.
// Non-numeric or out of range indexes are returned unchanged.
func (f *EmailDropdownField) Unobfuscate(raw any) any {
	var index int
	switch v := raw.(type) {
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return raw
		}
		index = i
	case float64:
		if v != float64(int(v)) {
			return raw
		}
		index = int(v)
	case int:
		index = v
	default:
		return raw
	}

	options := f.options.Options()
	if index < 0 || index >= len(options) {
		return raw
	}
	return options[index].Value
}

func (f *EmailDropdownField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	v, _ := value.(models.SingleOptionValue)

	obfuscated := make([]models.OptionData, 0, len(v.Options))
	selected := ""
	for i, option := range v.Options {
		index := strconv.Itoa(i)
		if option.Selected {
			selected = index
		}
		obfuscated = append(obfuscated, models.OptionData{
			Label:    option.Label,
			Value:    index,
			Selected: option.Selected,
		})
	}

	return f.markup(selected, map[string]any{
		"options": obfuscated,
	})
}

func (f *EmailDropdownField) RenderSummary(value any) string {
	if v, ok := value.(models.SingleOptionValue); ok {
		return v.Label
	}
	return toString(value)
}
