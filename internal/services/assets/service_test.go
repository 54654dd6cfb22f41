package assets

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories/asset"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fixture struct {
	service *Service
	repo    *asset.Repository
	root    *models.VolumeFolder
	files   string
	temp    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	logger := testutil.Logger()
	repo := asset.NewRepository(db, logger)

	files := t.TempDir()
	local, err := assets.NewLocalStorage(files)
	require.NoError(t, err)
	temp := t.TempDir()
	tempStorage, err := assets.NewLocalStorage(temp)
	require.NoError(t, err)

	root, err := repo.CreateVolume(context.Background(), &models.Volume{Handle: "uploads", Name: "Uploads", Storage: models.StorageLocal})
	require.NoError(t, err)

	return &fixture{
		service: NewService(repo, map[string]assets.Storage{models.StorageLocal: local}, tempStorage, false, logger),
		repo:    repo,
		root:    root,
		files:   files,
		temp:    temp,
	}
}

func TestVolumeRoot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sub, err := f.service.EnsureFolder(ctx, f.root, "forms", true)
	require.NoError(t, err)

	root, err := f.service.VolumeRoot(ctx, "folder:"+itoa(sub))
	require.NoError(t, err)
	assert.Equal(t, f.root.ID, root.ID)

	_, err = f.service.VolumeRoot(ctx, "folder:999")
	configErr, ok := errors.AsConfigError(err)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidVolume, configErr.Kind)

	_, err = f.service.VolumeRoot(ctx, "volume:1")
	assert.True(t, errors.IsConfigError(err))
}

func TestEnsureFolderIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.service.EnsureFolder(ctx, f.root, "contact/12", true)
	require.NoError(t, err)
	second, err := f.service.EnsureFolder(ctx, f.root, "contact/12", true)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	folder, err := f.service.GetFolder(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "contact/12/", folder.Path)
	assert.Equal(t, "12", folder.Name)

	parent, err := f.repo.FindFolderByPath(ctx, *f.root.VolumeID, "contact/")
	require.NoError(t, err)
	require.NotNil(t, parent)
	assert.Equal(t, parent.ID, *folder.ParentID)

	_, err = f.service.EnsureFolder(ctx, f.root, "contact/13", false)
	configErr, ok := errors.AsConfigError(err)
	require.True(t, ok)
	assert.Equal(t, errors.InvalidSubpath, configErr.Kind)

	rootID, err := f.service.EnsureFolder(ctx, f.root, "", false)
	require.NoError(t, err)
	assert.Equal(t, f.root.ID, rootID)
}

func TestStoreKeepsBothNames(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids, err := f.service.Store(ctx, f.root.ID, []models.Upload{
		{Filename: "photo.jpg", Content: []byte("one")},
		{Filename: "photo.jpg", Content: []byte("two")},
		{Filename: "Quarterly Report.PDF", Content: []byte("three")},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)

	stored, err := f.service.GetAssetsByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "photo.jpg", stored[0].Filename)
	assert.Equal(t, "photo_1.jpg", stored[1].Filename)
	assert.Equal(t, "Quarterly-Report.PDF", stored[2].Filename)
	assert.Equal(t, "image", stored[0].Kind)
	assert.Equal(t, "pdf", stored[2].Kind)
	assert.Equal(t, int64(3), stored[0].Size)

	assert.FileExists(t, filepath.Join(f.files, "uploads", "photo_1.jpg"))
}

func TestMoveFromTemporaryFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	missing, err := f.service.TemporaryFolderID(ctx, "alice", false)
	require.NoError(t, err)
	assert.Zero(t, missing)

	tempID, err := f.service.TemporaryFolderID(ctx, "alice", true)
	require.NoError(t, err)
	again, err := f.service.TemporaryFolderID(ctx, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, tempID, again)
	other, err := f.service.TemporaryFolderID(ctx, "", true)
	require.NoError(t, err)
	assert.NotEqual(t, tempID, other)

	target, err := f.service.EnsureFolder(ctx, f.root, "contact", true)
	require.NoError(t, err)
	_, err = f.service.Store(ctx, target, []models.Upload{{Filename: "photo.jpg", Content: []byte("existing")}})
	require.NoError(t, err)

	ids, err := f.service.Store(ctx, tempID, []models.Upload{{Filename: "photo.jpg", Content: []byte("new")}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(f.temp, "temp", itoa(tempID), "photo.jpg"))

	uploaded, err := f.service.GetAssetsByIDs(ctx, ids)
	require.NoError(t, err)
	require.Len(t, uploaded, 1)
	assert.Nil(t, uploaded[0].VolumeID)

	require.NoError(t, f.service.Move(ctx, uploaded[0], target))

	moved, err := f.service.GetAssetsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, target, moved[0].FolderID)
	assert.Equal(t, "photo_1.jpg", moved[0].Filename)
	require.NotNil(t, moved[0].VolumeID)
	assert.Equal(t, *f.root.VolumeID, *moved[0].VolumeID)

	assert.NoFileExists(t, filepath.Join(f.temp, "temp", itoa(tempID), "photo.jpg"))
	assert.FileExists(t, filepath.Join(f.files, "uploads", "contact", "photo_1.jpg"))
	assert.FileExists(t, filepath.Join(f.files, "uploads", "contact", "photo.jpg"))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
