package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type urlSettings struct {
	Placeholder         string `json:"placeholder"`
	CustomPatternToggle bool   `json:"customPatternToggle"`
	CustomPattern       string `json:"customPattern" validate:"required_if=CustomPatternToggle true"`
}

func TestParseArguments(t *testing.T) {
	settings, err := ParseArguments[urlSettings](map[string]any{
		"placeholder":         "https://",
		"customPatternToggle": true,
		"customPattern":       "^https://",
	})
	require.NoError(t, err)
	assert.Equal(t, urlSettings{Placeholder: "https://", CustomPatternToggle: true, CustomPattern: "^https://"}, settings)

	empty, err := ParseArguments[urlSettings](nil)
	require.NoError(t, err)
	assert.Equal(t, urlSettings{}, empty)

	_, err = ParseArguments[urlSettings]("not a map")
	assert.Error(t, err)
}

func TestValidateArguments(t *testing.T) {
	_, err := ValidateArguments[urlSettings](map[string]any{"customPatternToggle": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CustomPattern")

	_, err = ValidateArguments[urlSettings](map[string]any{"customPatternToggle": false})
	assert.NoError(t, err)
}

func TestValidateValue(t *testing.T) {
	assert.NoError(t, ValidateValue("https://example.com/hook", "url"))
	assert.Error(t, ValidateValue("not-a-url", "url"))
	assert.NoError(t, ValidateValue("jane@example.com", "email"))
	assert.Error(t, ValidateValue("jane@", "email"))
}
