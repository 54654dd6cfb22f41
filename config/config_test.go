package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.True(t, cfg.Entries.EnableSaveData)
	assert.False(t, cfg.Entries.EnableSaveDataPerFormBasis)
	assert.Equal(t, "ltr", cfg.Charts.Orientation)
}

func TestLoadLayersFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "fern.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: sqlite
  path: forms.db
http:
  port: 8080
entries:
  enable_save_data_per_form_basis: true
charts:
  orientation: rtl
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FERN_FORWARDER_TIMEOUT=5s\n"), 0o600))
	t.Setenv("FERN_HTTP_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "forms.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Entries.EnableSaveData)
	assert.True(t, cfg.Entries.EnableSaveDataPerFormBasis)
	assert.Equal(t, "rtl", cfg.Charts.Orientation)
	assert.Equal(t, 5*time.Second, cfg.Forwarder.Timeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FERN_DB_DRIVER", "mysql")

	_, err := Load("")
	assert.Error(t, err)
}
