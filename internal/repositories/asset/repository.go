package asset

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository stores volumes, their folders and the assets inside them.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetVolume returns nil when the volume does not exist.
func (r *Repository) GetVolume(ctx context.Context, id int64) (*models.Volume, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.GetVolume")
	defer span.End()

	sb := volumeStruct.SelectFrom(volumesTable)
	sb.Where(sb.Equal("id", id))

	sql, args := sb.Build()

	var row VolumeRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, sql, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get volume")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get volume")
	}
	return ToVolume(&row), nil
}

// CreateVolume inserts a volume together with its root folder.
func (r *Repository) CreateVolume(ctx context.Context, volume *models.Volume) (*models.VolumeFolder, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.CreateVolume")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ib := volumeStruct.WithoutTag("pk").InsertInto(volumesTable, &VolumeRow{
		Handle:  volume.Handle,
		Name:    volume.Name,
		Storage: volume.Storage,
	})
	ib.ReturningID()

	sql, args := ib.Build()

	if err := tx.QueryRowxContext(ctx, sql, args...).Scan(&volume.ID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"handle": volume.Handle,
		}).Error("Failed to create volume")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create volume")
	}

	root := &models.VolumeFolder{
		VolumeID: &volume.ID,
		Name:     volume.Name,
	}
	if root.ID, err = r.CreateFolder(ctx, root); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return root, nil
}

// GetFolder returns nil when the folder does not exist.
func (r *Repository) GetFolder(ctx context.Context, id int64) (*models.VolumeFolder, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.GetFolder")
	defer span.End()

	sb := folderStruct.SelectFrom(foldersTable)
	sb.Where(sb.Equal("id", id))

	return r.getFolder(ctx, sb)
}

// FindFolderByPath returns nil when the volume has no folder at path.
func (r *Repository) FindFolderByPath(ctx context.Context, volumeID int64, path string) (*models.VolumeFolder, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.FindFolderByPath")
	defer span.End()

	sb := folderStruct.SelectFrom(foldersTable)
	sb.Where(
		sb.Equal("volume_id", volumeID),
		sb.Equal("path", path),
	)

	return r.getFolder(ctx, sb)
}

// GetTemporaryFolder returns the volume-less folder of an owner, nil if none.
func (r *Repository) GetTemporaryFolder(ctx context.Context, owner string) (*models.VolumeFolder, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.GetTemporaryFolder")
	defer span.End()

	sb := folderStruct.SelectFrom(foldersTable)
	sb.Where(
		sb.IsNull("volume_id"),
		sb.Equal("owner", owner),
	)

	return r.getFolder(ctx, sb)
}

func (r *Repository) getFolder(ctx context.Context, sb *database.SelectBuilder) (*models.VolumeFolder, error) {
	sql, args := sb.Build()

	var row FolderRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, sql, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get folder")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get folder")
	}
	return ToFolder(&row), nil
}

func (r *Repository) CreateFolder(ctx context.Context, folder *models.VolumeFolder) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.CreateFolder")
	defer span.End()

	ib := folderStruct.WithoutTag("pk").InsertInto(foldersTable, FromFolder(folder))
	ib.ReturningID()

	sql, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"path":  folder.Path,
		"owner": folder.Owner,
	}).Debug("Creating folder")

	var id int64
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, sql, args...).Scan(&id); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create folder")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create folder")
	}
	return id, nil
}

func (r *Repository) GetAssetsByIDs(ctx context.Context, ids []int64) ([]models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.GetAssetsByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []models.Asset{}, nil
	}

	sb := assetStruct.SelectFrom(assetsTable)
	sb.Where(sb.In("id", ectolinq.Map(ids, func(id int64) any { return id })...))
	sb.OrderBy("id").Asc()

	sql, args := sb.Build()

	var rows []AssetRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get assets")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get assets")
	}

	assets := make([]models.Asset, len(rows))
	for i, row := range rows {
		assets[i] = ToAsset(&row)
	}
	return assets, nil
}

// Filenames lists the asset filenames stored in a folder.
func (r *Repository) Filenames(ctx context.Context, folderID int64) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.Filenames")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("filename").From(assetsTable)
	sb.Where(sb.Equal("folder_id", folderID))

	sql, args := sb.Build()

	var names []string
	if err := r.db.Conn(ctx).SelectContext(ctx, &names, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list filenames")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list filenames")
	}
	return names, nil
}

func (r *Repository) CreateAsset(ctx context.Context, asset *models.Asset) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.CreateAsset")
	defer span.End()

	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now().UTC()
	}

	ib := assetStruct.WithoutTag("pk").InsertInto(assetsTable, FromAsset(asset))
	ib.ReturningID()

	sql, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"folder_id": asset.FolderID,
		"filename":  asset.Filename,
	}).Debug("Creating asset")

	var id int64
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, sql, args...).Scan(&id); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create asset")
		return 0, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to create asset '%s'", asset.Filename)
	}
	return id, nil
}

// MoveAsset records a new location and filename for an asset.
func (r *Repository) MoveAsset(ctx context.Context, id int64, folder *models.VolumeFolder, filename string) error {
	ctx, span := tracing.StartSpan(ctx, "AssetRepository.MoveAsset")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(assetsTable)
	ub.Set(
		ub.Assign("folder_id", folder.ID),
		ub.Assign("volume_id", nullID(folder.VolumeID)),
		ub.Assign("filename", filename),
	)
	ub.Where(ub.Equal("id", id))

	sql, args := ub.Build()

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"folder_id": folder.ID,
		}).Error("Failed to move asset")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to move asset")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "asset %d not found", id)
	}
	return nil
}
