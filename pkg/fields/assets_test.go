package fields

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	assets  map[int64]models.Asset
	folders map[int64]models.VolumeFolder
	nextID  int64
	stored  []models.Upload
	moves   map[int64]int64
	// tempCreates counts temporary folder lookups allowed to create one
	tempCreates int
}

func newFakeAssets() *fakeAssets {
	volumeID := int64(1)
	return &fakeAssets{
		assets: map[int64]models.Asset{},
		folders: map[int64]models.VolumeFolder{
			1:  {ID: 1, VolumeID: &volumeID, Name: "Uploads", Path: ""},
			99: {ID: 99, Name: "temp", Path: "user_temp/"},
		},
		nextID: 100,
		moves:  map[int64]int64{},
	}
}

func (f *fakeAssets) addAsset(id int64, filename string, folderID int64) {
	folder := f.folders[folderID]
	f.assets[id] = models.Asset{ID: id, Filename: filename, FolderID: folderID, VolumeID: folder.VolumeID}
}

func (f *fakeAssets) GetAssetsByIDs(_ context.Context, ids []int64) ([]models.Asset, error) {
	var found []models.Asset
	for _, id := range ids {
		if asset, ok := f.assets[id]; ok {
			found = append(found, asset)
		}
	}
	return found, nil
}

func (f *fakeAssets) GetFolder(_ context.Context, id int64) (*models.VolumeFolder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %d not found", id)
	}
	return &folder, nil
}

func (f *fakeAssets) VolumeRoot(_ context.Context, source string) (*models.VolumeFolder, error) {
	id, err := assets.ParseSource(source)
	if err != nil {
		return nil, errors.NewConfigError(errors.InvalidVolume, "", "%s", err.Error())
	}
	folder, ok := f.folders[id]
	if !ok || folder.VolumeID == nil {
		return nil, errors.NewConfigError(errors.InvalidVolume, "", "volume missing")
	}
	root := f.folders[1]
	return &root, nil
}

func (f *fakeAssets) EnsureFolder(_ context.Context, root *models.VolumeFolder, subpath string, create bool) (int64, error) {
	target := subpath + "/"
	for id, folder := range f.folders {
		if folder.VolumeID != nil && folder.Path == target {
			return id, nil
		}
	}
	if !create {
		return 0, errors.NewConfigError(errors.InvalidSubpath, "", "missing %s", subpath)
	}
	f.nextID++
	f.folders[f.nextID] = models.VolumeFolder{ID: f.nextID, VolumeID: root.VolumeID, Path: target, Name: subpath}
	return f.nextID, nil
}

func (f *fakeAssets) TemporaryFolderID(_ context.Context, _ string, create bool) (int64, error) {
	if create {
		f.tempCreates++
	}
	return 99, nil
}

func (f *fakeAssets) Store(_ context.Context, folderID int64, uploads []models.Upload) ([]int64, error) {
	ids := make([]int64, 0, len(uploads))
	for _, upload := range uploads {
		f.nextID++
		f.addAsset(f.nextID, upload.Filename, folderID)
		f.stored = append(f.stored, upload)
		ids = append(ids, f.nextID)
	}
	return ids, nil
}

func (f *fakeAssets) Move(_ context.Context, asset models.Asset, folderID int64) error {
	f.moves[asset.ID] = folderID
	f.addAsset(asset.ID, asset.Filename, folderID)
	return nil
}

func newAssetsField(t *testing.T, store *fakeAssets, settings map[string]any) Field {
	t.Helper()
	field, err := New(models.FieldDefinition{
		Handle:   "attachments",
		Name:     "Attachments",
		Type:     TypeAssets,
		Settings: settings,
	}, Dependencies{Assets: store})
	require.NoError(t, err)
	return field
}

func dataURI(mime, content string) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

var imageOnly = map[string]any{
	"restrictFiles":               true,
	"allowedKinds":                []any{"image"},
	"defaultUploadLocationSource": "folder:1",
}

func TestAssetsAllowedKinds(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssets()
	store.addAsset(5, "malware.exe", 1)
	store.addAsset(6, "photo.jpg", 1)
	field := newAssetsField(t, store, imageOnly)

	value, err := field.NormalizeValue([]any{"5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`"malware.exe" is not allowed in this field.`}, field.Validate(ctx, value, nil))

	value, err = field.NormalizeValue([]any{6.0}, nil)
	require.NoError(t, err)
	assert.Empty(t, field.Validate(ctx, value, nil))

	value, err = field.NormalizeValue(map[string]any{
		"data":      []any{dataURI("application/octet-stream", "MZ"), dataURI("image/jpeg", "jpg")},
		"filenames": []any{"malware.exe", "photo.jpg"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{`"malware.exe" is not allowed in this field.`}, field.Validate(ctx, value, nil))

	value, err = field.NormalizeValue([]any{7.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Asset 7 does not exist."}, field.Validate(ctx, value, nil))
}

func TestAssetsNormalize(t *testing.T) {
	field := newAssetsField(t, newFakeAssets(), imageOnly)

	value, err := field.NormalizeValue([]any{"5", 5.0, 3.0, dataURI("image/png", "x")}, nil)
	require.NoError(t, err)
	relation := value.(models.RelationValue)
	assert.Equal(t, []int64{5, 3}, relation.IDs)
	require.Len(t, relation.Uploads, 1)
	assert.Equal(t, "Uploaded_file.png", relation.Uploads[0].Filename)

	again, err := field.NormalizeValue(value, nil)
	require.NoError(t, err)
	assert.Equal(t, value, again)
	assert.Equal(t, []int64{5, 3}, field.SerializeValue(value))

	empty, err := field.NormalizeValue(nil, nil)
	require.NoError(t, err)
	assert.True(t, field.IsEmpty(empty))

	_, err = field.NormalizeValue([]any{"https://example.com/a.png"}, nil)
	assert.EqualError(t, err, "Attachments contains an invalid file.")
}

func TestAssetsLimit(t *testing.T) {
	store := newFakeAssets()
	store.addAsset(5, "a.jpg", 1)
	store.addAsset(6, "b.jpg", 1)
	field := newAssetsField(t, store, map[string]any{"limit": 1, "defaultUploadLocationSource": "folder:1"})

	value, err := field.NormalizeValue([]any{5.0, 6.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Attachments should contain at most 1 selection."}, field.Validate(context.Background(), value, nil))
}

func TestAssetsUploadRejectsBeforeWriting(t *testing.T) {
	store := newFakeAssets()
	field := newAssetsField(t, store, imageOnly)
	entry := &models.Entry{FormID: 1, Enabled: true}

	value, err := field.NormalizeValue(map[string]any{
		"data":      []any{dataURI("image/jpeg", "jpg"), dataURI("application/octet-stream", "MZ")},
		"filenames": []any{"photo.jpg", "malware.exe"},
	}, entry)
	require.NoError(t, err)
	entry.SetValue("attachments", value)

	ok, err := field.BeforeEntrySave(context.Background(), entry)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, store.stored)
	assert.Equal(t, []string{`"malware.exe" is not allowed in this field.`}, entry.Errors["attachments"])
}

func TestAssetsUploadAndMove(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssets()
	store.addAsset(5, "existing.jpg", 1)
	field := newAssetsField(t, store, map[string]any{
		"defaultUploadLocationSource":  "folder:1",
		"defaultUploadLocationSubpath": "{formHandle}/{id}",
	})

	entry := &models.Entry{FormID: 1, FormHandle: "contact", Enabled: true, Owner: "session"}
	value, err := field.NormalizeValue([]any{5.0, dataURI("image/png", "png")}, entry)
	require.NoError(t, err)
	entry.SetValue("attachments", value)

	ok, err := field.BeforeEntrySave(ctx, entry)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, store.stored, 1)

	saved := entry.GetValue("attachments").(models.RelationValue)
	require.Len(t, saved.IDs, 2)
	uploadedID := saved.IDs[1]
	assert.Equal(t, int64(99), store.assets[uploadedID].FolderID)

	entry.ID = 12
	require.NoError(t, field.AfterEntrySave(ctx, entry, true))

	target := store.assets[uploadedID].FolderID
	assert.Equal(t, "contact/12/", store.folders[target].Path)
	_, movedExisting := store.moves[5]
	assert.False(t, movedExisting)
}

func TestAssetsSingleFolderMovesEverything(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssets()
	store.addAsset(5, "existing.jpg", 1)
	field := newAssetsField(t, store, map[string]any{
		"useSingleFolder":             true,
		"singleUploadLocationSource":  "folder:1",
		"singleUploadLocationSubpath": "forms",
	})

	entry := &models.Entry{ID: 3, FormID: 1, Enabled: true}
	entry.SetValue("attachments", models.RelationValue{IDs: []int64{5}})

	require.NoError(t, field.AfterEntrySave(ctx, entry, false))
	assert.Equal(t, "forms/", store.folders[store.moves[5]].Path)
}

func TestAssetsInvalidSubpathOnSavedEntry(t *testing.T) {
	store := newFakeAssets()
	field := newAssetsField(t, store, map[string]any{
		"defaultUploadLocationSource":  "folder:1",
		"defaultUploadLocationSubpath": "{statusId}",
	})

	entry := &models.Entry{ID: 3, FormID: 1, Enabled: true}
	entry.SetValue("attachments", models.RelationValue{Uploads: []models.Upload{{Filename: "a.jpg", Content: []byte("a")}}})

	_, err := field.BeforeEntrySave(context.Background(), entry)
	require.Error(t, err)
	configErr, ok := errors.AsConfigError(err)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidSubpath, configErr.Kind)

	entry.Enabled = false
	ok2, err := field.BeforeEntrySave(context.Background(), entry)
	require.NoError(t, err)
	assert.True(t, ok2)
}

func TestAssetsRenderInputWarnings(t *testing.T) {
	ctx := context.Background()

	missing := newAssetsField(t, newFakeAssets(), map[string]any{})
	assert.Equal(t, "This field's Volume configuration is invalid.", missing.RenderInput(ctx, nil, nil).Warning)

	gone := newAssetsField(t, newFakeAssets(), map[string]any{
		"useSingleFolder":            true,
		"singleUploadLocationSource": "folder:404",
	})
	assert.Equal(t, "This field’s single upload location Volume is missing", gone.RenderInput(ctx, nil, nil).Warning)

	ok := newAssetsField(t, newFakeAssets(), imageOnly)
	markup := ok.RenderInput(ctx, models.RelationValue{IDs: []int64{}}, nil)
	assert.Empty(t, markup.Warning)
	assert.Equal(t, int64(1), markup.Vars["folderId"])
	assert.Equal(t, []string{"image"}, markup.Vars["allowedKinds"])
}

func TestAssetsRenderInputDoesNotCreateTemporaryFolder(t *testing.T) {
	ctx := context.Background()
	store := newFakeAssets()
	field := newAssetsField(t, store, map[string]any{
		"defaultUploadLocationSource":  "folder:1",
		"defaultUploadLocationSubpath": "{id}",
	})

	markup := field.RenderInput(ctx, nil, &models.Entry{FormID: 1, Enabled: true, Owner: "session"})
	assert.Empty(t, markup.Warning)
	assert.Equal(t, int64(99), markup.Vars["folderId"])
	assert.Zero(t, store.tempCreates)

	entry := &models.Entry{FormID: 1, Enabled: true, Owner: "session"}
	entry.SetValue("attachments", models.RelationValue{Uploads: []models.Upload{{Filename: "a.jpg", Content: []byte("a")}}})
	ok, err := field.BeforeEntrySave(ctx, entry)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, store.tempCreates)
}
