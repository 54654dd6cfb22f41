package asset

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const (
	volumesTable = "volumes"
	foldersTable = "volume_folders"
	assetsTable  = "assets"
)

// VolumeRow represents the database row for a volume
type VolumeRow struct {
	ID      int64  `db:"id" fieldtag:"pk"`
	Handle  string `db:"handle"`
	Name    string `db:"name"`
	Storage string `db:"storage"`
}

// FolderRow represents the database row for a volume folder
type FolderRow struct {
	ID       int64          `db:"id" fieldtag:"pk"`
	VolumeID sql.NullInt64  `db:"volume_id"`
	ParentID sql.NullInt64  `db:"parent_id"`
	Name     string         `db:"name"`
	Path     string         `db:"path"`
	Owner    sql.NullString `db:"owner"`
}

// AssetRow represents the database row for an asset
type AssetRow struct {
	ID        int64         `db:"id" fieldtag:"pk"`
	VolumeID  sql.NullInt64 `db:"volume_id"`
	FolderID  int64         `db:"folder_id"`
	Filename  string        `db:"filename"`
	Kind      string        `db:"kind"`
	Size      int64         `db:"size"`
	CreatedAt time.Time     `db:"created_at"`
}

var (
	volumeStruct = database.NewStruct(new(VolumeRow))
	folderStruct = database.NewStruct(new(FolderRow))
	assetStruct  = database.NewStruct(new(AssetRow))
)

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idPtr(id sql.NullInt64) *int64 {
	if !id.Valid {
		return nil
	}
	v := id.Int64
	return &v
}

func ToVolume(row *VolumeRow) *models.Volume {
	return &models.Volume{
		ID:      row.ID,
		Handle:  row.Handle,
		Name:    row.Name,
		Storage: row.Storage,
	}
}

func FromFolder(f *models.VolumeFolder) *FolderRow {
	return &FolderRow{
		ID:       f.ID,
		VolumeID: nullID(f.VolumeID),
		ParentID: nullID(f.ParentID),
		Name:     f.Name,
		Path:     f.Path,
		Owner:    sql.NullString{String: f.Owner, Valid: f.Owner != ""},
	}
}

func ToFolder(row *FolderRow) *models.VolumeFolder {
	return &models.VolumeFolder{
		ID:       row.ID,
		VolumeID: idPtr(row.VolumeID),
		ParentID: idPtr(row.ParentID),
		Name:     row.Name,
		Path:     row.Path,
		Owner:    row.Owner.String,
	}
}

func FromAsset(a *models.Asset) *AssetRow {
	return &AssetRow{
		ID:        a.ID,
		VolumeID:  nullID(a.VolumeID),
		FolderID:  a.FolderID,
		Filename:  a.Filename,
		Kind:      a.Kind,
		Size:      a.Size,
		CreatedAt: a.CreatedAt,
	}
}

func ToAsset(row *AssetRow) models.Asset {
	return models.Asset{
		ID:        row.ID,
		VolumeID:  idPtr(row.VolumeID),
		FolderID:  row.FolderID,
		Filename:  row.Filename,
		Kind:      row.Kind,
		Size:      row.Size,
		CreatedAt: row.CreatedAt,
	}
}
