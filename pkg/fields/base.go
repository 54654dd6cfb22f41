package fields

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Ramsey-B/fern/pkg/models"
)

type base struct {
	def  models.FieldDefinition
	deps Dependencies
}

func newBase(def models.FieldDefinition, deps Dependencies) base {
	return base{def: def, deps: deps}
}

func (b *base) Definition() models.FieldDefinition {
	return b.def
}

func (b *base) Handle() string {
	return b.def.Handle
}

func (b *base) Type() string {
	return b.def.Type
}

func (b *base) name() string {
	if b.def.Name != "" {
		return b.def.Name
	}
	return b.def.Handle
}

func (b *base) SerializeValue(value any) any {
	return value
}

func (b *base) RenderSummary(value any) string {
	return toString(value)
}

func (b *base) RenderInput(_ context.Context, value any, _ *models.Entry) Markup {
	return b.markup(value, nil)
}

func (b *base) BeforeEntrySave(context.Context, *models.Entry) (bool, error) {
	return true, nil
}

func (b *base) AfterEntrySave(context.Context, *models.Entry, bool) error {
	return nil
}

// markup merges field specific vars over the common ones.
func (b *base) markup(value any, vars map[string]any) Markup {
	merged := map[string]any{
		"name":         b.def.Handle,
		"label":        b.name(),
		"instructions": b.def.Instructions,
		"required":     b.def.Required,
		"value":        value,
	}
	for k, v := range vars {
		merged[k] = v
	}
	return Markup{
		Template: b.def.Type + "/input",
		Vars:     merged,
	}
}

func toString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
