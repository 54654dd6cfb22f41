package fields

import (
	"context"
	"testing"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestField(t *testing.T, fieldType string, settings map[string]any) Field {
	t.Helper()
	field, err := New(models.FieldDefinition{
		Handle:   "choice",
		Name:     "Choice",
		Type:     fieldType,
		Settings: settings,
	}, Dependencies{})
	require.NoError(t, err)
	return field
}

var listOptions = map[string]any{
	"options": []any{
		map[string]any{"label": "Red", "value": "red", "default": ""},
		map[string]any{"label": "Green", "value": "green", "default": "1"},
		map[string]any{"label": "Blue", "value": "blue", "default": true},
	},
}

var mapOptions = map[string]any{
	"options": map[string]any{
		"b": "Bee",
		"a": "Ay",
	},
}

func TestNormalizeOptions(t *testing.T) {
	options, err := NormalizeOptions(listOptions["options"])
	require.NoError(t, err)
	assert.Equal(t, []OptionDefinition{
		{Label: "Red", Value: "red"},
		{Label: "Green", Value: "green", Default: true},
		{Label: "Blue", Value: "blue", Default: true},
	}, options)

	options, err = NormalizeOptions(mapOptions["options"])
	require.NoError(t, err)
	assert.Equal(t, []OptionDefinition{
		{Label: "Ay", Value: "a"},
		{Label: "Bee", Value: "b"},
	}, options)

	_, err = NormalizeOptions(42)
	assert.Error(t, err)
}

func TestOptionNormalizationIsIdempotent(t *testing.T) {
	inputs := []any{nil, "", "red", "purple", []any{"red", "blue"}, []any{"blue", "blue", "red"}, "[\"green\"]", "green", 7.0}

	for _, fieldType := range []string{TypeDropdown, TypeRadioButtons, TypeCheckboxes, TypeMultiSelect} {
		for _, settings := range []map[string]any{listOptions, mapOptions} {
			field := newTestField(t, fieldType, settings)
			for _, entry := range []*models.Entry{nil, {ID: 4}} {
				for _, raw := range inputs {
					once, err := field.NormalizeValue(raw, entry)
					if err != nil {
						continue
					}
					twice, err := field.NormalizeValue(once, entry)
					require.NoError(t, err)
					assert.Equal(t, once, twice, "type %s input %v", fieldType, raw)
				}
			}
		}
	}
}

func TestSingleOptionNormalize(t *testing.T) {
	field := newTestField(t, TypeDropdown, listOptions)

	value, err := field.NormalizeValue("red", &models.Entry{ID: 1})
	require.NoError(t, err)
	single := value.(models.SingleOptionValue)
	assert.Equal(t, "red", single.Value)
	assert.Equal(t, "Red", single.Label)
	assert.True(t, single.Options[0].Selected)
	assert.False(t, single.Options[1].Selected)

	value, err = field.NormalizeValue("retired", &models.Entry{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, "retired", value.(models.SingleOptionValue).Label)
	assert.Equal(t, []string{"Choice is invalid."}, field.Validate(context.Background(), value, nil))

	value, err = field.NormalizeValue(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "green", value.(models.SingleOptionValue).Value)

	value, err = field.NormalizeValue(nil, &models.Entry{ID: 9})
	require.NoError(t, err)
	assert.True(t, field.IsEmpty(value))
	assert.Empty(t, field.Validate(context.Background(), value, nil))

	_, err = field.NormalizeValue([]any{"red"}, nil)
	assert.EqualError(t, err, "Choice is invalid.")
}

func TestMultiOptionRejectsScalar(t *testing.T) {
	for _, fieldType := range []string{TypeCheckboxes, TypeMultiSelect} {
		field := newTestField(t, fieldType, listOptions)

		value, err := field.NormalizeValue("red", &models.Entry{ID: 1})
		require.NoError(t, err)
		assert.False(t, field.IsEmpty(value))
		assert.Equal(t, []string{"Choice must be a list of values."}, field.Validate(context.Background(), value, nil))

		value, err = field.NormalizeValue([]any{"red", "blue"}, &models.Entry{ID: 1})
		require.NoError(t, err)
		assert.Empty(t, field.Validate(context.Background(), value, nil))
		assert.Equal(t, []string{"red", "blue"}, field.SerializeValue(value))
		assert.Equal(t, "Red, Blue", field.RenderSummary(value))

		value, err = field.NormalizeValue([]any{"red", "purple"}, &models.Entry{ID: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Choice is invalid."}, field.Validate(context.Background(), value, nil))
	}
}

func TestMultiOptionEmptiness(t *testing.T) {
	field := newTestField(t, TypeCheckboxes, listOptions)

	for _, raw := range []any{"", []any{}} {
		value, err := field.NormalizeValue(raw, &models.Entry{ID: 1})
		require.NoError(t, err)
		assert.True(t, field.IsEmpty(value))
	}

	value, err := field.NormalizeValue(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"green", "blue"}, value.(models.MultiOptionValue).Values())
}

func TestEmailDropdownUnobfuscate(t *testing.T) {
	field, err := New(models.FieldDefinition{
		Handle: "recipient",
		Name:   "Recipient",
		Type:   TypeEmailDropdown,
		Settings: map[string]any{
			"options": []any{
				map[string]any{"label": "Sales", "value": "sales@example.com"},
				map[string]any{"label": "Support", "value": "support@example.com"},
			},
		},
	}, Dependencies{})
	require.NoError(t, err)

	unobfuscator, ok := field.(Unobfuscator)
	require.True(t, ok)

	assert.Equal(t, "support@example.com", unobfuscator.Unobfuscate("1"))
	assert.Equal(t, "sales@example.com", unobfuscator.Unobfuscate(0.0))
	assert.Equal(t, "7", unobfuscator.Unobfuscate("7"))
	assert.Equal(t, "-1", unobfuscator.Unobfuscate("-1"))
	assert.Equal(t, "abc", unobfuscator.Unobfuscate("abc"))

	value, err := field.NormalizeValue("7", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Recipient is invalid."}, field.Validate(context.Background(), value, nil))

	value, err = field.NormalizeValue("support@example.com", nil)
	require.NoError(t, err)
	markup := field.RenderInput(context.Background(), value, nil)
	assert.Equal(t, "1", markup.Vars["value"])
	options := markup.Vars["options"].([]models.OptionData)
	assert.Equal(t, "0", options[0].Value)
	assert.Equal(t, "Support", field.RenderSummary(value))
}

func TestEmailDropdownRejectsInvalidAddresses(t *testing.T) {
	_, err := New(models.FieldDefinition{
		Handle: "recipient",
		Name:   "Recipient",
		Type:   TypeEmailDropdown,
		Settings: map[string]any{
			"options": []any{map[string]any{"label": "Sales", "value": "not-an-email"}},
		},
	}, Dependencies{})
	assert.Error(t, err)
}
