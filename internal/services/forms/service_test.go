package forms

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Ramsey-B/fern/internal/repositories/form"
	"github.com/Ramsey-B/fern/internal/testutil"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"))
}

const contactYAML = `
handle: contact
name: Contact
saveData: true
fields:
  - handle: name
    name: Name
    type: plaintext
    required: true
  - handle: color
    name: Favourite color
    type: dropdown
    settings:
      options:
        - label: Red
          value: red
          default: true
        - label: Blue
          value: blue
`

func newTestService(t *testing.T) *Service {
	t.Helper()
	db := testutil.NewDB(t)
	logger := testutil.Logger()
	return NewService(db, form.NewRepository(db, logger), fields.Dependencies{Logger: logger}, logger)
}

func TestImportUpsertsByHandle(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.yaml"), []byte(contactYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	imported, err := s.Import(ctx, dir)
	require.NoError(t, err)
	require.Len(t, imported, 1)

	loaded, err := s.GetByHandle(ctx, "contact")
	require.NoError(t, err)
	require.Len(t, loaded.Fields, 2)
	assert.Equal(t, "name", loaded.Fields[0].Handle)
	assert.True(t, loaded.Fields[0].Required)
	assert.Equal(t, 2, loaded.Fields[1].SortOrder)
	colorID := loaded.Fields[1].ID

	built, err := s.Fields(loaded)
	require.NoError(t, err)
	assert.Equal(t, fields.TypeDropdown, built[1].Type())

	changed := `
handle: contact
name: Contact us
fields:
  - handle: color
    name: Colour
    type: radiobuttons
    settings:
      options:
        red: Red
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.yaml"), []byte(changed), 0o644))
	_, err = s.Import(ctx, dir)
	require.NoError(t, err)

	reloaded, err := s.GetByHandle(ctx, "contact")
	require.NoError(t, err)
	assert.Equal(t, loaded.ID, reloaded.ID)
	assert.Equal(t, "Contact us", reloaded.Name)
	require.Len(t, reloaded.Fields, 1)
	assert.Equal(t, colorID, reloaded.Fields[0].ID, "field ids survive re-import")
	assert.Equal(t, fields.TypeRadioButtons, reloaded.Fields[0].Type)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSaveRejectsInvalidForms(t *testing.T) {
	ctx := context.Background()
	s := newTestService(t)

	_, err := s.Save(ctx, &models.Form{Handle: "broken", Name: "Broken", Fields: []models.FieldDefinition{
		{Handle: "a", Name: "A", Type: "hologram"},
	}})
	assert.Error(t, err)

	_, err = s.Save(ctx, &models.Form{Handle: "dupes", Name: "Dupes", Fields: []models.FieldDefinition{
		{Handle: "a", Name: "A", Type: fields.TypePlainText},
		{Handle: "a", Name: "A again", Type: fields.TypePlainText},
	}})
	assert.Error(t, err)

	_, err = s.Save(ctx, &models.Form{Handle: "hook", Name: "Hook", SubmitAction: "not-a-url"})
	assert.Error(t, err)

	_, err = s.Save(ctx, &models.Form{Name: "No handle"})
	assert.Error(t, err)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestWatchReimportsChangedFiles(t *testing.T) {
	s := newTestService(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	imported := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, dir, func(f *models.Form) {
			select {
			case imported <- f.Handle:
			default:
			}
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "contact.yml"), []byte(contactYAML), 0o644)
		select {
		case handle := <-imported:
			return handle == "contact"
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
