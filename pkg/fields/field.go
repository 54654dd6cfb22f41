package fields

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Field is implemented by every field type. Values passed to Validate, IsEmpty,
// RenderInput, RenderSummary and SerializeValue are outputs of NormalizeValue.
type Field interface {
	Definition() models.FieldDefinition
	Handle() string
	Type() string
	// NormalizeValue turns submitted or stored input into the canonical value.
	// Normalizing a normalized value returns an equal value. The error message
	// is suitable for showing next to the field.
	NormalizeValue(raw any, entry *models.Entry) (any, error)
	// SerializeValue returns the form the value is stored in.
	SerializeValue(value any) any
	Validate(ctx context.Context, value any, entry *models.Entry) []string
	IsEmpty(value any) bool
	RenderInput(ctx context.Context, value any, entry *models.Entry) Markup
	RenderSummary(value any) string
	// BeforeEntrySave runs inside the save transaction before the entry row is
	// written. Returning false rejects the save, with errors set on the entry.
	BeforeEntrySave(ctx context.Context, entry *models.Entry) (bool, error)
	// AfterEntrySave runs after the save transaction has committed. A failure
	// must leave the field's side effects as they were before the call.
	AfterEntrySave(ctx context.Context, entry *models.Entry, isNew bool) error
}

// Relational is implemented by fields whose value references other records
// through relation rows.
type Relational interface {
	Field
	RelationTargets(value any) []int64
	LocalizeRelations() bool
}

// Unobfuscator is implemented by fields that render option values as indexes
// and need the submitted index swapped back before normalization.
type Unobfuscator interface {
	Field
	Unobfuscate(raw any) any
}

// Markup is the rendering contract handed to a template layer.
type Markup struct {
	Template string         `json:"template"`
	Vars     map[string]any `json:"vars"`
	// Warning replaces the input when the field is misconfigured.
	Warning string `json:"warning,omitempty"`
}

// AssetManager is the storage side of relation fields.
type AssetManager interface {
	GetAssetsByIDs(ctx context.Context, ids []int64) ([]models.Asset, error)
	GetFolder(ctx context.Context, id int64) (*models.VolumeFolder, error)
	// VolumeRoot returns the root folder of the volume a "folder:{id}" source
	// lives in, or an InvalidVolume config error.
	VolumeRoot(ctx context.Context, source string) (*models.VolumeFolder, error)
	// EnsureFolder finds the folder at subpath below root, creating missing
	// segments when create is set, else returning an InvalidSubpath config error.
	EnsureFolder(ctx context.Context, root *models.VolumeFolder, subpath string, create bool) (int64, error)
	// TemporaryFolderID returns the owner's temporary upload folder. Without
	// create it only looks the folder up and returns 0 when there is none.
	TemporaryFolderID(ctx context.Context, owner string, create bool) (int64, error)
	Store(ctx context.Context, folderID int64, uploads []models.Upload) ([]int64, error)
	Move(ctx context.Context, asset models.Asset, folderID int64) error
}

// EntryLookup answers questions about other entries of a form.
type EntryLookup interface {
	ValueExists(ctx context.Context, formID int64, handle string, value string, excludeEntryID int64) (bool, error)
}

// Dependencies are handed to every field factory.
type Dependencies struct {
	Logger         ectologger.Logger
	Assets         AssetManager
	Entries        EntryLookup
	ASCIIFilenames bool
}
