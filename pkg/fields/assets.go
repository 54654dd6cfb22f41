package fields

import (
	"context"
	"strings"

	"github.com/Gobusters/ectolinq"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/utils"
)

const TypeAssets = "assets"

func init() {
	Register(TypeAssets, NewAssetsField)
}

// AssetsField relates an entry to uploaded or existing assets.
type AssetsField struct {
	base
	relation *RelationBehavior
}

func NewAssetsField(def models.FieldDefinition, deps Dependencies) (Field, error) {
	settings, err := utils.ValidateArguments[relationSettings](def.Settings)
	if err != nil {
		return nil, err
	}

	b := newBase(def, deps)
	return &AssetsField{
		base:     b,
		relation: NewRelationBehavior(def.Handle, b.name(), settings, deps),
	}, nil
}

func (f *AssetsField) Relation() *RelationBehavior {
	return f.relation
}

func (f *AssetsField) NormalizeValue(raw any, _ *models.Entry) (any, error) {
	return f.relation.Normalize(raw)
}

func (f *AssetsField) SerializeValue(value any) any {
	if v, ok := value.(models.RelationValue); ok {
		return v.IDs
	}
	return value
}

func (f *AssetsField) Validate(ctx context.Context, value any, _ *models.Entry) []string {
	v, _ := value.(models.RelationValue)
	return f.relation.Validate(ctx, v)
}

func (f *AssetsField) IsEmpty(value any) bool {
	v, ok := value.(models.RelationValue)
	if !ok {
		return value == nil
	}
	return len(v.IDs) == 0 && len(v.Uploads) == 0
}

func (f *AssetsField) RelationTargets(value any) []int64 {
	v, _ := value.(models.RelationValue)
	return v.IDs
}

func (f *AssetsField) LocalizeRelations() bool {
	return f.relation.settings.LocalizeRelations
}

func (f *AssetsField) BeforeEntrySave(ctx context.Context, entry *models.Entry) (bool, error) {
	v, _ := entry.GetValue(f.Handle()).(models.RelationValue)
	return f.relation.StoreUploads(ctx, entry, v)
}

func (f *AssetsField) AfterEntrySave(ctx context.Context, entry *models.Entry, _ bool) error {
	v, _ := entry.GetValue(f.Handle()).(models.RelationValue)
	return f.relation.MoveRelated(ctx, entry, v)
}

// RenderInput shows a warning in place of the input when the upload location
// cannot be resolved.
func (f *AssetsField) RenderInput(ctx context.Context, value any, entry *models.Entry) Markup {
	v, _ := value.(models.RelationValue)

	folderID, err := f.relation.UploadFolderID(ctx, entry, false)
	if err != nil {
		markup := f.markup(v.IDs, nil)
		if configErr, ok := errors.AsConfigError(err); ok {
			markup.Warning = configErr.Message
		} else {
			markup.Warning = err.Error()
		}
		return markup
	}

	return f.markup(v.IDs, map[string]any{
		"folderId":     folderID,
		"hideSidebar":  f.relation.settings.UseSingleFolder,
		"limit":        f.relation.settings.Limit,
		"allowedKinds": f.relation.AllowedKinds(),
	})
}

func (f *AssetsField) RenderSummary(value any) string {
	v, ok := value.(models.RelationValue)
	if !ok {
		return toString(value)
	}
	ids := ectolinq.Map(v.IDs, func(id int64) string {
		return toString(id)
	})
	return strings.Join(ids, ", ")
}
