package fields

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

type relationSettings struct {
	Limit                        int      `json:"limit" validate:"gte=0"`
	LocalizeRelations            bool     `json:"localizeRelations"`
	UseSingleFolder              bool     `json:"useSingleFolder"`
	DefaultUploadLocationSource  string   `json:"defaultUploadLocationSource"`
	DefaultUploadLocationSubpath string   `json:"defaultUploadLocationSubpath"`
	SingleUploadLocationSource   string   `json:"singleUploadLocationSource"`
	SingleUploadLocationSubpath  string   `json:"singleUploadLocationSubpath"`
	RestrictFiles                bool     `json:"restrictFiles"`
	AllowedKinds                 []string `json:"allowedKinds"`
}

// RelationBehavior holds the asset relation logic: id normalization, limits,
// file kind checks, upload folder resolution, storing uploads and moving
// related assets into place.
type RelationBehavior struct {
	handle   string
	name     string
	settings relationSettings
	deps     Dependencies
}

func NewRelationBehavior(handle, name string, settings relationSettings, deps Dependencies) *RelationBehavior {
	return &RelationBehavior{
		handle:   handle,
		name:     name,
		settings: settings,
		deps:     deps,
	}
}

// Normalize accepts a RelationValue, a list mixing ids and data URIs, a single
// id, or a map with "ids", "data", "filenames" and "uploads" keys.
func (r *RelationBehavior) Normalize(raw any) (models.RelationValue, error) {
	value := models.RelationValue{IDs: []int64{}}

	switch v := raw.(type) {
	case nil:
	case models.RelationValue:
		value.IDs = append(value.IDs, v.IDs...)
		value.Uploads = append(value.Uploads, v.Uploads...)
	case *models.RelationValue:
		if v != nil {
			value.IDs = append(value.IDs, v.IDs...)
			value.Uploads = append(value.Uploads, v.Uploads...)
		}
	case []int64:
		value.IDs = append(value.IDs, v...)
	case []any:
		if err := r.appendItems(&value, v, nil); err != nil {
			return models.RelationValue{}, err
		}
	case map[string]any:
		if err := r.appendMap(&value, v); err != nil {
			return models.RelationValue{}, err
		}
	default:
		if err := r.appendItems(&value, []any{v}, nil); err != nil {
			return models.RelationValue{}, err
		}
	}

	value.IDs = uniqueIDs(value.IDs)
	return value, nil
}

func (r *RelationBehavior) appendMap(value *models.RelationValue, m map[string]any) error {
	if ids, ok := m["ids"]; ok {
		items, _ := ids.([]any)
		if err := r.appendItems(value, items, nil); err != nil {
			return err
		}
	}

	if data, ok := m["data"]; ok {
		items, _ := data.([]any)
		var names []any
		if filenames, ok := m["filenames"].([]any); ok {
			names = filenames
		}
		if err := r.appendItems(value, items, names); err != nil {
			return err
		}
	}

	if uploads, ok := m["uploads"].([]models.Upload); ok {
		value.Uploads = append(value.Uploads, uploads...)
	}
	return nil
}

func (r *RelationBehavior) appendItems(value *models.RelationValue, items []any, filenames []any) error {
	for i, item := range items {
		switch v := item.(type) {
		case nil:
		case float64:
			if v <= 0 || v != float64(int64(v)) {
				return fmt.Errorf("%s contains an invalid id.", r.name)
			}
			value.IDs = append(value.IDs, int64(v))
		case int64:
			value.IDs = append(value.IDs, v)
		case int:
			value.IDs = append(value.IDs, int64(v))
		case models.Upload:
			value.Uploads = append(value.Uploads, v)
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
				value.IDs = append(value.IDs, id)
				continue
			}
			if !assets.IsDataURI(s) {
				return fmt.Errorf("%s contains an invalid file.", r.name)
			}
			filename := ""
			if i < len(filenames) {
				filename = assets.SanitizeFilename(toString(filenames[i]), r.deps.ASCIIFilenames)
			}
			upload, err := assets.ParseDataURI(s, filename)
			if err != nil {
				return fmt.Errorf("%s contains an invalid file.", r.name)
			}
			value.Uploads = append(value.Uploads, upload)
		default:
			return fmt.Errorf("%s contains an invalid id.", r.name)
		}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	unique := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}

func (r *RelationBehavior) restricted() bool {
	return r.settings.RestrictFiles && len(r.settings.AllowedKinds) > 0
}

// disallowedFilenames returns one entry per filename outside the allowed kinds.
func (r *RelationBehavior) disallowedFilenames(filenames []string) []string {
	if !r.restricted() {
		return nil
	}
	allowed := assets.AllowedExtensions(r.settings.AllowedKinds)

	var failed []string
	for _, filename := range filenames {
		if !assets.IsAllowed(filename, allowed) {
			failed = append(failed, filename)
		}
	}
	return failed
}

func notAllowedMessage(filename string) string {
	return fmt.Sprintf("\"%s\" is not allowed in this field.", filename)
}

// Validate checks the limit, that related assets exist and that every related
// or pending file is of an allowed kind.
func (r *RelationBehavior) Validate(ctx context.Context, value models.RelationValue) []string {
	var errs []string

	if r.settings.Limit > 0 && len(value.IDs)+len(value.Uploads) > r.settings.Limit {
		noun := "selections"
		if r.settings.Limit == 1 {
			noun = "selection"
		}
		errs = append(errs, fmt.Sprintf("%s should contain at most %d %s.", r.name, r.settings.Limit, noun))
	}

	filenames := []string{}
	if len(value.IDs) > 0 {
		if r.deps.Assets == nil {
			return append(errs, fmt.Sprintf("%s cannot reference assets.", r.name))
		}
		found, err := r.deps.Assets.GetAssetsByIDs(ctx, value.IDs)
		if err != nil {
			if r.deps.Logger != nil {
				r.deps.Logger.WithContext(ctx).WithError(err).Errorf("failed to load related assets of field %s", r.handle)
			}
			return append(errs, fmt.Sprintf("%s could not be verified.", r.name))
		}

		byID := make(map[int64]models.Asset, len(found))
		for _, asset := range found {
			byID[asset.ID] = asset
		}
		for _, id := range value.IDs {
			asset, ok := byID[id]
			if !ok {
				errs = append(errs, fmt.Sprintf("Asset %d does not exist.", id))
				continue
			}
			filenames = append(filenames, asset.Filename)
		}
	}

	for _, upload := range value.Uploads {
		filenames = append(filenames, upload.Filename)
	}

	for _, filename := range r.disallowedFilenames(filenames) {
		errs = append(errs, notAllowedMessage(filename))
	}
	return errs
}

func (r *RelationBehavior) uploadLocation() (string, string) {
	if r.settings.UseSingleFolder {
		return r.settings.SingleUploadLocationSource, r.settings.SingleUploadLocationSubpath
	}
	return r.settings.DefaultUploadLocationSource, r.settings.DefaultUploadLocationSubpath
}

// UploadFolderID resolves the folder uploads for entry go to. An unusable
// subpath sends new, disabled or unsaved entries to the owner's temporary
// folder; for saved entries it is a config error.
func (r *RelationBehavior) UploadFolderID(ctx context.Context, entry *models.Entry, create bool) (int64, error) {
	if r.deps.Assets == nil {
		return 0, errors.NewConfigError(errors.InvalidVolume, r.handle, "This field's Volume configuration is invalid.")
	}

	source, subpath := r.uploadLocation()
	if source == "" {
		return 0, errors.NewConfigError(errors.InvalidVolume, r.handle, "This field's Volume configuration is invalid.")
	}

	root, err := r.deps.Assets.VolumeRoot(ctx, source)
	if err != nil {
		if configErr, ok := errors.AsConfigError(err); ok && configErr.Kind == errors.InvalidVolume {
			message := "This field’s default upload location Volume is missing"
			if r.settings.UseSingleFolder {
				message = "This field’s single upload location Volume is missing"
			}
			return 0, errors.NewConfigError(errors.InvalidVolume, r.handle, "%s", message)
		}
		return 0, err
	}

	folderID, err := r.resolveSubpath(ctx, root, subpath, entry, create)
	if err == nil {
		return folderID, nil
	}

	configErr, ok := errors.AsConfigError(err)
	if !ok || configErr.Kind != errors.InvalidSubpath {
		return 0, err
	}
	if entry == nil || entry.IsNew() || !entry.Enabled || !create {
		owner := ""
		if entry != nil {
			owner = entry.Owner
		}
		return r.deps.Assets.TemporaryFolderID(ctx, owner, create)
	}
	return 0, err
}

func (r *RelationBehavior) resolveSubpath(ctx context.Context, root *models.VolumeFolder, subpath string, entry *models.Entry, create bool) (int64, error) {
	subpath = strings.Trim(subpath, "/")
	if subpath == "" {
		return root.ID, nil
	}

	rendered := assets.RenderSubpath(subpath, entry)
	if !assets.ValidSubpath(rendered) {
		return 0, errors.NewConfigError(errors.InvalidSubpath, r.handle, "This field’s target subfolder path is invalid: %s", subpath)
	}

	return r.deps.Assets.EnsureFolder(ctx, root, assets.SanitizePath(rendered, r.deps.ASCIIFilenames), create)
}

// StoreUploads writes pending uploads and replaces them with asset ids in the
// entry value. Any disallowed file aborts before anything is written.
func (r *RelationBehavior) StoreUploads(ctx context.Context, entry *models.Entry, value models.RelationValue) (bool, error) {
	if len(value.Uploads) == 0 {
		return true, nil
	}

	filenames := make([]string, 0, len(value.Uploads))
	for _, upload := range value.Uploads {
		filenames = append(filenames, upload.Filename)
	}
	if failed := r.disallowedFilenames(filenames); len(failed) > 0 {
		for _, filename := range failed {
			entry.AddError(r.handle, notAllowedMessage(filename))
		}
		return false, nil
	}

	folderID, err := r.UploadFolderID(ctx, entry, true)
	if err != nil {
		return false, err
	}

	ids, err := r.deps.Assets.Store(ctx, folderID, value.Uploads)
	if err != nil {
		return false, err
	}
	if len(ids) != len(value.Uploads) {
		return false, fmt.Errorf("stored %d of %d uploads for field %s", len(ids), len(value.Uploads), r.handle)
	}

	entry.SetValue(r.handle, models.RelationValue{IDs: uniqueIDs(append(append([]int64{}, value.IDs...), ids...))})
	return true, nil
}

// MoveRelated moves related assets into the resolved upload folder. Single
// folder fields move every asset outside it; other fields only move assets
// still sitting in a temporary folder.
func (r *RelationBehavior) MoveRelated(ctx context.Context, entry *models.Entry, value models.RelationValue) error {
	if len(value.IDs) == 0 {
		return nil
	}

	folderID, err := r.UploadFolderID(ctx, entry, true)
	if err != nil {
		return err
	}

	target, err := r.deps.Assets.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	if target.IsTemporary() {
		return nil
	}

	related, err := r.deps.Assets.GetAssetsByIDs(ctx, value.IDs)
	if err != nil {
		return err
	}
	sort.SliceStable(related, func(i, j int) bool { return related[i].ID < related[j].ID })

	for _, asset := range related {
		if asset.FolderID == folderID {
			continue
		}
		if !r.settings.UseSingleFolder && asset.VolumeID != nil {
			continue
		}
		if err := r.deps.Assets.Move(ctx, asset, folderID); err != nil {
			return err
		}
	}
	return nil
}

func (r *RelationBehavior) AllowedKinds() []string {
	if !r.restricted() {
		return nil
	}
	return r.settings.AllowedKinds
}
