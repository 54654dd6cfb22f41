package fields

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/goccy/go-json"
)

// OptionDefinition is one configured choice.
type OptionDefinition struct {
	Label   string `json:"label" yaml:"label"`
	Value   string `json:"value" yaml:"value"`
	Default bool   `json:"default" yaml:"default"`
}

// NormalizeOptions accepts a list of {label, value, default} records or a flat
// value→label map, and returns the list form. Map keys are sorted.
func NormalizeOptions(raw any) ([]OptionDefinition, error) {
	switch v := raw.(type) {
	case nil:
		return []OptionDefinition{}, nil
	case []OptionDefinition:
		return append([]OptionDefinition{}, v...), nil
	case []any:
		options := make([]OptionDefinition, 0, len(v))
		for i, item := range v {
			if record, ok := item.(map[string]any); ok {
				options = append(options, optionFromRecord(record))
				continue
			}
			options = append(options, OptionDefinition{Label: toString(item), Value: fmt.Sprint(i)})
		}
		return options, nil
	case []map[string]any:
		options := make([]OptionDefinition, 0, len(v))
		for _, record := range v {
			options = append(options, optionFromRecord(record))
		}
		return options, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		options := make([]OptionDefinition, 0, len(v))
		for _, key := range keys {
			if record, ok := v[key].(map[string]any); ok {
				options = append(options, optionFromRecord(record))
				continue
			}
			options = append(options, OptionDefinition{Label: toString(v[key]), Value: key})
		}
		return options, nil
	case map[string]string:
		generic := make(map[string]any, len(v))
		for key, label := range v {
			generic[key] = label
		}
		return NormalizeOptions(generic)
	default:
		return nil, fmt.Errorf("options must be a list or a map, got %T", raw)
	}
}

func optionFromRecord(record map[string]any) OptionDefinition {
	option := OptionDefinition{
		Label: toString(record["label"]),
		Value: toString(record["value"]),
	}
	switch d := record["default"].(type) {
	case bool:
		option.Default = d
	case string:
		option.Default = d != "" && d != "0" && d != "false"
	case float64:
		option.Default = d != 0
	case int:
		option.Default = d != 0
	}
	return option
}

// OptionSet holds the shared behavior of one-of and many-of fields.
type OptionSet struct {
	options []OptionDefinition
	multi   bool
}

func NewOptionSet(raw any, multi bool) (*OptionSet, error) {
	options, err := NormalizeOptions(raw)
	if err != nil {
		return nil, err
	}
	return &OptionSet{options: options, multi: multi}, nil
}

func (s *OptionSet) Options() []OptionDefinition {
	return s.options
}

func (s *OptionSet) Multi() bool {
	return s.multi
}

func (s *OptionSet) Label(value string) string {
	for _, option := range s.options {
		if option.Value == value {
			return option.Label
		}
	}
	return value
}

func (s *OptionSet) Contains(value string) bool {
	for _, option := range s.options {
		if option.Value == value {
			return true
		}
	}
	return false
}

func (s *OptionSet) defaultValues() []string {
	values := []string{}
	for _, option := range s.options {
		if option.Default {
			values = append(values, option.Value)
			if !s.multi {
				break
			}
		}
	}
	return values
}

func (s *OptionSet) optionData(selected []string) []models.OptionData {
	chosen := make(map[string]bool, len(selected))
	for _, value := range selected {
		chosen[value] = true
	}

	data := make([]models.OptionData, 0, len(s.options))
	for _, option := range s.options {
		data = append(data, models.OptionData{
			Label:    option.Label,
			Value:    option.Value,
			Selected: chosen[option.Value],
		})
	}
	return data
}

func isFresh(entry *models.Entry) bool {
	return entry == nil || entry.IsNew()
}

// NormalizeSingle resolves raw input to a SingleOptionValue.
func (s *OptionSet) NormalizeSingle(raw any, entry *models.Entry) (models.SingleOptionValue, error) {
	var value string

	switch v := raw.(type) {
	case nil:
		if isFresh(entry) {
			if defaults := s.defaultValues(); len(defaults) > 0 {
				value = defaults[0]
			}
		}
	case models.SingleOptionValue:
		value = v.Value
	case *models.SingleOptionValue:
		if v != nil {
			value = v.Value
		}
	case []any, []string, map[string]any:
		return models.SingleOptionValue{}, fmt.Errorf("expected a single value, got %T", raw)
	default:
		value = toString(v)
	}

	return models.SingleOptionValue{
		Value:   value,
		Label:   s.Label(value),
		Options: s.optionData([]string{value}),
	}, nil
}

// NormalizeMulti resolves raw input to a MultiOptionValue. A non-empty scalar
// is kept as a single selection flagged Malformed.
func (s *OptionSet) NormalizeMulti(raw any, entry *models.Entry) (models.MultiOptionValue, error) {
	var (
		values    []string
		malformed bool
	)

	switch v := raw.(type) {
	case nil:
		if isFresh(entry) {
			values = s.defaultValues()
		}
	case models.MultiOptionValue:
		values = v.Values()
		malformed = v.Malformed
	case *models.MultiOptionValue:
		if v != nil {
			values = v.Values()
			malformed = v.Malformed
		}
	case []string:
		values = v
	case []any:
		values = make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, toString(item))
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			break
		}
		if strings.HasPrefix(trimmed, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return s.NormalizeMulti(decoded, entry)
			}
		}
		values = []string{v}
		malformed = true
	case map[string]any:
		return models.MultiOptionValue{}, fmt.Errorf("expected a list of values, got %T", raw)
	default:
		values = []string{toString(v)}
		malformed = true
	}

	values = uniqueStrings(values)

	selections := make([]models.OptionData, 0, len(values))
	for _, value := range values {
		selections = append(selections, models.OptionData{
			Label:    s.Label(value),
			Value:    value,
			Selected: true,
		})
	}

	return models.MultiOptionValue{
		Selections: selections,
		Options:    s.optionData(values),
		Malformed:  malformed,
	}, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		unique = append(unique, value)
	}
	return unique
}
