package fields

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const TypeNumber = "number"

func init() {
	Register(TypeNumber, NewNumberField)
}

type numberSettings struct {
	Placeholder string   `json:"placeholder"`
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	Decimals    int      `json:"decimals" validate:"gte=0"`
}

type NumberField struct {
	base
	settings numberSettings
}

func NewNumberField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ValidateArguments[numberSettings](def.Settings)
	if err != nil {
		return nil, err
	}
	if settings.Min != nil && settings.Max != nil && *settings.Min > *settings.Max {
		return nil, fmt.Errorf("min %v is greater than max %v", *settings.Min, *settings.Max)
	}
	return &NumberField{
		base:     newBase(def, deps),
		settings: settings,
	}, nil
}

// NormalizeValue parses numeric strings. Unparseable input is kept as a string
// so Validate can report it.
func (f *NumberField) NormalizeValue(raw any, _ *models.Entry) (any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return n, nil
		}
		return v, nil
	default:
		return toString(v), nil
	}
}

func (f *NumberField) Validate(_ context.Context, value any, _ *models.Entry) []string {
	n, ok := value.(float64)
	if !ok {
		return []string{fmt.Sprintf("%s must be a number.", f.name())}
	}

	var errs []string
	if f.settings.Min != nil && n < *f.settings.Min {
		errs = append(errs, fmt.Sprintf("%s must be no less than %s.", f.name(), toString(*f.settings.Min)))
	}
	if f.settings.Max != nil && n > *f.settings.Max {
		errs = append(errs, fmt.Sprintf("%s must be no greater than %s.", f.name(), toString(*f.settings.Max)))
	}
	if decimals(n) > f.settings.Decimals {
		errs = append(errs, fmt.Sprintf("%s must have no more than %d decimal places.", f.name(), f.settings.Decimals))
	}
	return errs
}

func decimals(n float64) int {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return len(s) - i - 1
	}
	return 0
}

func (f *NumberField) IsEmpty(value any) bool {
	return value == nil || value == ""
}

func (f *NumberField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	return f.markup(value, map[string]any{
		"placeholder": f.settings.Placeholder,
		"min":         f.settings.Min,
		"max":         f.settings.Max,
		"decimals":    f.settings.Decimals,
	})
}
