package entries

import (
	"context"
	"encoding/base64"
	"net/http"
	"io/fs"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories/asset"
	"github.com/Ramsey-B/fern/internal/repositories/entry"
	"github.com/Ramsey-B/fern/internal/repositories/entrystatus"
	"github.com/Ramsey-B/fern/internal/repositories/form"
	"github.com/Ramsey-B/fern/internal/repositories/relation"
	assetsservice "github.com/Ramsey-B/fern/internal/services/assets"
	"github.com/Ramsey-B/fern/internal/services/entrystatuses"
	"github.com/Ramsey-B/fern/internal/services/forms"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/assets"
	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/session"
)

type fixture struct {
	service   *Service
	forms     *forms.Service
	entries   *entry.Repository
	relations *relation.Repository
	bus       *events.Bus
	form      *models.Form
	assets    *assetsservice.Service
	assetRepo *asset.Repository
	root      *models.VolumeFolder
	files     string
	tempFiles string
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.NewDB(t)
	logger := testutil.Logger()

	assetRepo := asset.NewRepository(db, logger)
	files, tempFiles := t.TempDir(), t.TempDir()
	local, err := assets.NewLocalStorage(files)
	require.NoError(t, err)
	temp, err := assets.NewLocalStorage(tempFiles)
	require.NoError(t, err)
	root, err := assetRepo.CreateVolume(ctx, &models.Volume{Handle: "uploads", Name: "Uploads", Storage: models.StorageLocal})
	require.NoError(t, err)

	entryRepo := entry.NewRepository(db, logger)
	relationRepo := relation.NewRepository(db, logger)
	assetService := assetsservice.NewService(assetRepo, map[string]assets.Storage{models.StorageLocal: local}, temp, false, logger)
	formService := forms.NewService(db, form.NewRepository(db, logger), fields.Dependencies{
		Logger:  logger,
		Assets:  assetService,
		Entries: entryRepo,
	}, logger)

	contact, err := formService.Save(ctx, &models.Form{
		Handle:   "contact",
		Name:     "Contact",
		SaveData: true,
		Fields: []models.FieldDefinition{
			{Handle: "name", Name: "Name", Type: "plaintext", Required: true},
			{Handle: "attachments", Name: "Attachments", Type: fields.TypeAssets, Settings: map[string]any{
				"defaultUploadLocationSource":  folderSource(root.ID),
				"defaultUploadLocationSubpath": "contact",
			}},
		},
	})
	require.NoError(t, err)

	bus := events.NewBus()
	return &fixture{
		service: NewService(cfg, Dependencies{
			DB:        db,
			Logger:    logger,
			Forms:     formService,
			Statuses:  entrystatuses.NewService(db, entrystatus.NewRepository(db, logger), logger),
			Entries:   entryRepo,
			Relations: relationRepo,
			Bus:       bus,
			Forwarder: httpclient.NewClient(httpclient.DefaultConfig(), logger),
		}),
		forms:     formService,
		entries:   entryRepo,
		relations: relationRepo,
		bus:       bus,
		form:      contact,
		assets:    assetService,
		assetRepo: assetRepo,
		root:      root,
		files:     files,
		tempFiles: tempFiles,
	}
}

func folderSource(id int64) string {
	return assets.SourcePrefix + strconv.FormatInt(id, 10)
}

func assetsDefinition(handle string, settings map[string]any) models.FieldDefinition {
	return models.FieldDefinition{Handle: handle, Name: handle, Type: fields.TypeAssets, Settings: settings}
}

func (f *fixture) saveForm(t *testing.T, handle string, definitions ...models.FieldDefinition) *models.Form {
	t.Helper()
	saved, err := f.forms.Save(context.Background(), &models.Form{
		Handle:   handle,
		Name:     handle,
		SaveData: true,
		Fields:   definitions,
	})
	require.NoError(t, err)
	return saved
}

func (f *fixture) entryOf(t *testing.T, form *models.Form) *models.Entry {
	t.Helper()
	e, err := f.service.GetEntry(context.Background(), nil, form)
	require.NoError(t, err)
	return e
}

// filesUnder lists the regular files below dir relative to it.
func filesUnder(t *testing.T, dir string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		found = append(found, rel)
		return err
	})
	require.NoError(t, err)
	return found
}

func (f *fixture) field(t *testing.T, handle string) fields.Field {
	t.Helper()
	return f.fieldOf(t, f.form, handle)
}

func (f *fixture) fieldOf(t *testing.T, form *models.Form, handle string) fields.Field {
	t.Helper()
	built, err := f.forms.Fields(form)
	require.NoError(t, err)
	for _, field := range built {
		if field.Handle() == handle {
			return field
		}
	}
	t.Fatalf("field %s not found", handle)
	return nil
}

func (f *fixture) newEntry(t *testing.T) *models.Entry {
	t.Helper()
	return f.entryOf(t, f.form)
}

func imageDataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not really a png"))
}

func TestGetEntryStartsWithDefaultStatus(t *testing.T) {
	f := newFixture(t, Config{EnableSaveData: true})
	ctx := appctx.SetSessionID(context.Background(), "abc")
	ctx = appctx.SetSiteID(ctx, 2)

	e, err := f.service.GetEntry(ctx, nil, f.form)
	require.NoError(t, err)
	assert.True(t, e.IsNew())
	assert.Equal(t, int64(1), e.StatusID)
	assert.Equal(t, int64(2), e.SiteID)
	assert.Equal(t, "abc", e.Owner)
	assert.Equal(t, "contact", e.FormHandle)
}

func TestSaveEntryWithUpload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})

	var afterSave []events.AfterSaveEntryEvent
	f.bus.OnAfterSaveEntry(func(_ context.Context, event events.AfterSaveEntryEvent) {
		afterSave = append(afterSave, event)
	})

	e := f.newEntry(t)
	e.SetValue("name", "Jane")
	e.SetValue("attachments", []any{imageDataURI()})

	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, saved, e.Errors.Error())
	assert.NotZero(t, e.ID)

	value, ok := e.GetValue("attachments").(models.RelationValue)
	require.True(t, ok)
	require.Len(t, value.IDs, 1)

	rows, err := f.relations.ListForSource(ctx, f.field(t, "attachments").Definition().ID, e.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, value.IDs[0], rows[0].TargetID)
	assert.Equal(t, 1, rows[0].SortOrder)
	assert.Nil(t, rows[0].SourceSiteID)

	require.Len(t, afterSave, 1)
	assert.True(t, afterSave[0].IsNewEntry)

	stored, err := f.service.GetEntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", stored.GetValue("name"))
	assert.Equal(t, value.IDs, stored.GetValue("attachments").(models.RelationValue).IDs)

	e.SetValue("name", "Janet")
	saved, err = f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, saved)
	require.Len(t, afterSave, 2)
	assert.False(t, afterSave[1].IsNewEntry)
}

func TestSaveEntryMovesUploadIntoEntryFolder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})
	form := f.saveForm(t, "claims", assetsDefinition("files", map[string]any{
		"defaultUploadLocationSource":  folderSource(f.root.ID),
		"defaultUploadLocationSubpath": "{id}",
	}))

	e := f.entryOf(t, form)
	e.SetValue("files", []any{imageDataURI()})

	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, saved, e.Errors.Error())

	value := e.GetValue("files").(models.RelationValue)
	require.Len(t, value.IDs, 1)
	stored, err := f.assets.GetAssetsByIDs(ctx, value.IDs)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	folder, err := f.assets.GetFolder(ctx, stored[0].FolderID)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(e.ID, 10)+"/", folder.Path)
	assert.FileExists(t, filepath.Join(f.files, "uploads", folder.Path, stored[0].Filename))

	temp, err := f.assetRepo.GetTemporaryFolder(ctx, "guest")
	require.NoError(t, err)
	require.NotNil(t, temp, "the upload waits in the temporary folder until the entry has an id")
	assert.Empty(t, filesUnder(t, f.tempFiles))
}

func TestSaveEntryKeepsSavedEntryWhenAMoveFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})
	remote, err := f.assetRepo.CreateVolume(ctx, &models.Volume{Handle: "remote", Name: "Remote", Storage: models.StorageGCS})
	require.NoError(t, err)
	form := f.saveForm(t, "claims",
		assetsDefinition("a", map[string]any{
			"defaultUploadLocationSource":  folderSource(f.root.ID),
			"defaultUploadLocationSubpath": "{id}",
		}),
		assetsDefinition("b", map[string]any{
			"defaultUploadLocationSource": folderSource(remote.ID),
		}),
	)

	tempID, err := f.assets.TemporaryFolderID(ctx, "", true)
	require.NoError(t, err)
	pending, err := f.assets.Store(ctx, tempID, []models.Upload{{Filename: "waiting.jpg", Content: []byte("waiting")}})
	require.NoError(t, err)

	e := f.entryOf(t, form)
	e.SetValue("a", []any{imageDataURI()})
	e.SetValue("b", []any{float64(pending[0])})

	saved, err := f.service.SaveEntry(ctx, e)
	assert.True(t, saved)
	require.ErrorIs(t, err, errors.ErrAssetsNotMoved)
	require.NotZero(t, e.ID)

	a := e.GetValue("a").(models.RelationValue)
	require.Len(t, a.IDs, 1)
	moved, err := f.assets.GetAssetsByIDs(ctx, a.IDs)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	folder, err := f.assets.GetFolder(ctx, moved[0].FolderID)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(e.ID, 10)+"/", folder.Path)
	assert.FileExists(t, filepath.Join(f.files, "uploads", folder.Path, moved[0].Filename))

	waiting, err := f.assets.GetAssetsByIDs(ctx, pending)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, tempID, waiting[0].FolderID)
	assert.FileExists(t, filepath.Join(f.tempFiles, "temp", strconv.FormatInt(tempID, 10), "waiting.jpg"))

	stored, err := f.service.GetEntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, a.IDs, stored.GetValue("a").(models.RelationValue).IDs)
	assert.Equal(t, pending, stored.GetValue("b").(models.RelationValue).IDs)
}

func TestSaveEntryRollbackRemovesUploads(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})
	remote, err := f.assetRepo.CreateVolume(ctx, &models.Volume{Handle: "remote", Name: "Remote", Storage: models.StorageGCS})
	require.NoError(t, err)
	form := f.saveForm(t, "claims",
		assetsDefinition("a", map[string]any{
			"defaultUploadLocationSource":  folderSource(f.root.ID),
			"defaultUploadLocationSubpath": "{id}",
		}),
		assetsDefinition("b", map[string]any{
			"defaultUploadLocationSource": folderSource(remote.ID),
		}),
	)

	e := f.entryOf(t, form)
	e.SetValue("a", []any{imageDataURI()})
	e.SetValue("b", []any{imageDataURI()})

	saved, err := f.service.SaveEntry(ctx, e)
	assert.False(t, saved)
	require.Error(t, err)
	assert.Zero(t, e.ID)

	assert.Empty(t, filesUnder(t, f.tempFiles))
	assert.Empty(t, filesUnder(t, f.files))
	temp, err := f.assetRepo.GetTemporaryFolder(ctx, "guest")
	require.NoError(t, err)
	assert.Nil(t, temp)

	a := e.GetValue("a").(models.RelationValue)
	assert.Empty(t, a.IDs)
	assert.Len(t, a.Uploads, 1)

	listed, err := f.service.ListEntries(ctx, form.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSaveEntryRejectsInvalidValues(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})

	called := false
	f.bus.OnBeforeSaveEntry(func(context.Context, *events.BeforeSaveEntryEvent) {
		called = true
	})

	e := f.newEntry(t)
	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, []string{"Name cannot be blank."}, e.Errors["name"])
	assert.Zero(t, e.ID)
	assert.False(t, called)

	listed, err := f.service.ListEntries(ctx, f.form.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSaveEntryFakedByListener(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})

	f.bus.OnBeforeSaveEntry(func(_ context.Context, event *events.BeforeSaveEntryEvent) {
		event.IsValid = false
		event.FakeIt = true
	})
	f.bus.OnBeforeSaveEntry(func(_ context.Context, event *events.BeforeSaveEntryEvent) {
		event.AddError("name", "Looks like spam.")
	})

	e := f.newEntry(t)
	e.SetValue("name", "Jane")

	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.True(t, e.Faked)
	assert.Zero(t, e.ID)
	assert.Equal(t, []string{"Looks like spam."}, e.Errors["name"])

	listed, err := f.service.ListEntries(ctx, f.form.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestSaveEntryUnknownIDIsFatal(t *testing.T) {
	f := newFixture(t, Config{EnableSaveData: true})

	e := f.newEntry(t)
	e.ID = 404
	e.SetValue("name", "Jane")

	saved, err := f.service.SaveEntry(context.Background(), e)
	assert.False(t, saved)
	require.Error(t, err)
}

func TestSaveRelationsDeduplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})

	e := f.newEntry(t)
	e.SetValue("name", "Jane")
	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, saved)

	field, ok := f.field(t, "attachments").(fields.Relational)
	require.True(t, ok)

	require.NoError(t, f.service.SaveRelations(ctx, field, e, []int64{5, 5, 7, 3}))
	rows, err := f.relations.ListForSource(ctx, field.Definition().ID, e.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, target := range []int64{5, 7, 3} {
		assert.Equal(t, target, rows[i].TargetID)
		assert.Equal(t, i+1, rows[i].SortOrder)
	}

	require.NoError(t, f.service.SaveRelations(ctx, field, e, nil))
	rows, err = f.relations.ListForSource(ctx, field.Definition().ID, e.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSaveRelationsLocalized(t *testing.T) {
	ctx := appctx.SetSiteID(context.Background(), 1)
	f := newFixture(t, Config{EnableSaveData: true})
	form := f.saveForm(t, "claims", assetsDefinition("files", map[string]any{
		"localizeRelations":           true,
		"defaultUploadLocationSource": folderSource(f.root.ID),
	}))

	e := f.entryOf(t, form)
	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, saved)
	require.Equal(t, int64(1), e.SiteID)

	field, ok := f.fieldOf(t, form, "files").(fields.Relational)
	require.True(t, ok)
	fieldID := field.Definition().ID

	site1, site3 := int64(1), int64(3)
	require.NoError(t, f.relations.Insert(ctx, []models.Relation{
		{FieldID: fieldID, SourceID: e.ID, TargetID: 100, SortOrder: 1},
		{FieldID: fieldID, SourceID: e.ID, SourceSiteID: &site1, TargetID: 200, SortOrder: 1},
		{FieldID: fieldID, SourceID: e.ID, SourceSiteID: &site3, TargetID: 300, SortOrder: 1},
	}))

	require.NoError(t, f.service.SaveRelations(ctx, field, e, []int64{9}))

	rows, err := f.relations.ListForSource(ctx, fieldID, e.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	sites := map[int64]*int64{}
	for _, row := range rows {
		sites[row.TargetID] = row.SourceSiteID
	}
	require.Contains(t, sites, int64(300))
	require.Contains(t, sites, int64(9))
	require.NotNil(t, sites[300])
	assert.Equal(t, int64(3), *sites[300])
	require.NotNil(t, sites[9])
	assert.Equal(t, int64(1), *sites[9])
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})

	var deleted []int64
	f.bus.OnAfterDeleteEntry(func(_ context.Context, event events.AfterDeleteEntryEvent) {
		deleted = append(deleted, event.Entry.ID)
	})

	e := f.newEntry(t)
	e.SetValue("name", "Jane")
	saved, err := f.service.SaveEntry(ctx, e)
	require.NoError(t, err)
	require.True(t, saved)

	ok, err := f.service.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{e.ID}, deleted)

	ok, err = f.service.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestForwardEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})

	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		received = r.PostForm.Get("name")
		if received == "reject" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	target := *f.form
	target.SubmitAction = server.URL + "/hook"

	e := f.newEntry(t)
	e.SetValue("name", "Jane")
	assert.True(t, f.service.ForwardEntry(ctx, e, &target))
	assert.Equal(t, "Jane", received)
	assert.False(t, e.HasErrors())

	e.SetValue("name", "reject")
	assert.False(t, f.service.ForwardEntry(ctx, e, &target))
	assert.NotEmpty(t, e.Errors[GeneralErrorKey])
}

func TestForwardEntryRejectsInvalidURL(t *testing.T) {
	f := newFixture(t, Config{EnableSaveData: true})

	target := *f.form
	target.SubmitAction = "not-a-url"

	e := f.newEntry(t)
	assert.False(t, f.service.ForwardEntry(context.Background(), e, &target))
	assert.Len(t, e.Errors[GeneralErrorKey], 1)
}

func TestIsDataSaved(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		form     models.Form
		expected bool
	}{
		{name: "global on", cfg: Config{EnableSaveData: true}, form: models.Form{}, expected: true},
		{name: "global off", cfg: Config{}, form: models.Form{SaveData: true}, expected: false},
		{name: "per form off", cfg: Config{EnableSaveData: true, EnableSaveDataPerFormBasis: true}, form: models.Form{}, expected: false},
		{name: "per form on", cfg: Config{EnableSaveData: true, EnableSaveDataPerFormBasis: true}, form: models.Form{SaveData: true}, expected: true},
		{name: "submit action uses form", cfg: Config{}, form: models.Form{SaveData: true, SubmitAction: "https://example.com"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Service{cfg: tt.cfg}
			assert.Equal(t, tt.expected, s.IsDataSaved(&tt.form))
		})
	}
}

func TestSubmitEntryResumesSessionEntry(t *testing.T) {
	ctx := appctx.SetSessionID(context.Background(), "visitor")
	f := newFixture(t, Config{EnableSaveData: true})
	store := session.NewMemoryProvider().ForSession("visitor")

	e, ok, err := f.service.SubmitEntry(ctx, store, f.form, map[string]any{"attachments": []any{}})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, e.Errors["name"])

	active, err := store.GetActiveEntry(ctx, f.form.Handle)
	require.NoError(t, err)
	require.NotNil(t, active)

	e, ok, err = f.service.SubmitEntry(ctx, store, f.form, map[string]any{"name": "Jane", "unknown": "x"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotZero(t, e.ID)
	assert.Nil(t, e.GetValue("unknown"))

	active, err = store.GetActiveEntry(ctx, f.form.Handle)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestSubmitEntryUnobfuscatesEmailAddresses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{EnableSaveData: true})
	form := f.saveForm(t, "support", models.FieldDefinition{
		Handle: "recipient",
		Name:   "Recipient",
		Type:   fields.TypeEmailDropdown,
		Settings: map[string]any{
			"options": []any{
				map[string]any{"label": "Sales", "value": "sales@example.com"},
				map[string]any{"label": "Support", "value": "support@example.com"},
			},
		},
	})
	plain := f.saveForm(t, "plain", models.FieldDefinition{Handle: "recipient", Name: "Recipient", Type: "plaintext"})

	e, ok, err := f.service.SubmitEntry(ctx, nil, form, map[string]any{"recipient": "1"})
	require.NoError(t, err)
	require.True(t, ok, e.Errors.Error())
	assert.Equal(t, "support@example.com", e.GetValue("recipient").(models.SingleOptionValue).Value)

	stored, err := f.service.GetEntryByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "support@example.com", stored.GetValue("recipient").(models.SingleOptionValue).Value)

	e, ok, err = f.service.SubmitEntry(ctx, nil, form, map[string]any{"recipient": "7"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"Recipient is invalid."}, e.Errors["recipient"])

	e, ok, err = f.service.SubmitEntry(ctx, nil, plain, map[string]any{"recipient": "1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1", e.GetValue("recipient"))
}

func TestSubmitEntryWithoutSavingValidatesOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	e, ok, err := f.service.SubmitEntry(ctx, nil, f.form, map[string]any{"name": "Jane"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, e.ID)

	listed, err := f.service.ListEntries(ctx, f.form.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
