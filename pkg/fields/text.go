package fields

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"unicode/utf8"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const (
	TypePlainText = "plaintext"
	TypeURL       = "url"
	TypeEmail     = "email"
)

func init() {
	Register(TypePlainText, NewPlainTextField)
	Register(TypeURL, NewURLField)
	Register(TypeEmail, NewEmailField)
}

// scalar is shared by the string valued fields.
type scalar struct {
	base
}

func (f *scalar) NormalizeValue(raw any, _ *models.Entry) (any, error) {
	switch raw.(type) {
	case []any, map[string]any:
		return nil, fmt.Errorf("%s must be a single value.", f.name())
	}
	return toString(raw), nil
}

func (f *scalar) IsEmpty(value any) bool {
	return toString(value) == ""
}

type plainTextSettings struct {
	Placeholder string `json:"placeholder"`
	CharLimit   int    `json:"charLimit" validate:"gte=0"`
	Multiline   bool   `json:"multiline"`
	InitialRows int    `json:"initialRows" validate:"gte=0"`
}

type PlainTextField struct {
	scalar
	settings plainTextSettings
}

func NewPlainTextField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ValidateArguments[plainTextSettings](def.Settings)
	if err != nil {
		return nil, err
	}
	return &PlainTextField{
		scalar:   scalar{base: newBase(def, deps)},
		settings: settings,
	}, nil
}

func (f *PlainTextField) Validate(_ context.Context, value any, _ *models.Entry) []string {
	if f.settings.CharLimit > 0 && utf8.RuneCountInString(toString(value)) > f.settings.CharLimit {
		return []string{fmt.Sprintf("%s should contain at most %d characters.", f.name(), f.settings.CharLimit)}
	}
	return nil
}

func (f *PlainTextField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	return f.markup(value, map[string]any{
		"placeholder": f.settings.Placeholder,
		"charLimit":   f.settings.CharLimit,
		"multiline":   f.settings.Multiline,
		"initialRows": f.settings.InitialRows,
	})
}

// patternSettings are the custom pattern settings of URL and email fields.
type patternSettings struct {
	Placeholder               string `json:"placeholder"`
	CustomPatternToggle       bool   `json:"customPatternToggle"`
	CustomPattern             string `json:"customPattern" validate:"required_if=CustomPatternToggle true"`
	CustomPatternErrorMessage string `json:"customPatternErrorMessage"`
}

func (s patternSettings) compile() (*regexp.Regexp, error) {
	if !s.CustomPatternToggle {
		return nil, nil
	}
	pattern, err := regexp.Compile(s.CustomPattern)
	if err != nil {
		return nil, fmt.Errorf("custom pattern is not a valid regular expression: %w", err)
	}
	return pattern, nil
}

func (s patternSettings) errorMessage(fallback string) string {
	if s.CustomPatternToggle && s.CustomPatternErrorMessage != "" {
		return s.CustomPatternErrorMessage
	}
	return fallback
}

type URLField struct {
	scalar
	settings patternSettings
	pattern  *regexp.Regexp
}

func NewURLField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ValidateArguments[patternSettings](def.Settings)
	if err != nil {
		return nil, err
	}
	pattern, err := settings.compile()
	if err != nil {
		return nil, err
	}
	return &URLField{
		scalar:   scalar{base: newBase(def, deps)},
		settings: settings,
		pattern:  pattern,
	}, nil
}

func (f *URLField) Validate(_ context.Context, value any, _ *models.Entry) []string {
	if !f.valid(toString(value)) {
		return []string{f.settings.errorMessage(fmt.Sprintf("%s must be a valid URL.", f.name()))}
	}
	return nil
}

func (f *URLField) valid(value string) bool {
	if f.pattern != nil {
		return f.pattern.MatchString(value)
	}
	return IsWebURL(value)
}

// IsWebURL reports whether value is an absolute http or https URL.
func IsWebURL(value string) bool {
	if err := utils.ValidateValue(value, "url"); err != nil {
		return false
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func (f *URLField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	vars := map[string]any{
		"placeholder": f.settings.Placeholder,
	}
	if f.pattern != nil {
		vars["pattern"] = f.settings.CustomPattern
		vars["errorMessage"] = f.settings.errorMessage(fmt.Sprintf("%s must be a valid URL.", f.name()))
	}
	return f.markup(value, vars)
}

func (f *URLField) RenderSummary(value any) string {
	s := toString(value)
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return `<a href="` + escaped + `" target="_blank">` + escaped + `</a>`
}

type emailSettings struct {
	patternSettings
	UniqueEmail bool `json:"uniqueEmail"`
}

type EmailField struct {
	scalar
	settings emailSettings
	pattern  *regexp.Regexp
}

func NewEmailField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ValidateArguments[emailSettings](def.Settings)
	if err != nil {
		return nil, err
	}
	pattern, err := settings.compile()
	if err != nil {
		return nil, err
	}
	return &EmailField{
		scalar:   scalar{base: newBase(def, deps)},
		settings: settings,
		pattern:  pattern,
	}, nil
}

func (f *EmailField) Validate(ctx context.Context, value any, entry *models.Entry) []string {
	email := toString(value)

	var valid bool
	if f.pattern != nil {
		valid = f.pattern.MatchString(email)
	} else {
		valid = utils.ValidateValue(email, "email") == nil
	}
	if !valid {
		return []string{f.settings.errorMessage(fmt.Sprintf("%s must be a valid email address.", f.name()))}
	}

	if f.settings.UniqueEmail && f.deps.Entries != nil && entry != nil {
		exists, err := f.deps.Entries.ValueExists(ctx, entry.FormID, f.Handle(), email, entry.ID)
		if err != nil {
			if f.deps.Logger != nil {
				f.deps.Logger.WithContext(ctx).WithError(err).Errorf("failed to check uniqueness of field %s", f.Handle())
			}
			return []string{fmt.Sprintf("%s could not be verified.", f.name())}
		}
		if exists {
			return []string{fmt.Sprintf("%s must be a unique email address.", f.name())}
		}
	}
	return nil
}

func (f *EmailField) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	vars := map[string]any{
		"placeholder": f.settings.Placeholder,
	}
	if f.pattern != nil {
		vars["pattern"] = f.settings.CustomPattern
	}
	return f.markup(value, vars)
}
