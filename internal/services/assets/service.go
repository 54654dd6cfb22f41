// Package assets stores uploaded files in volumes and tracks them as assets.
package assets

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/fern/pkg/assets"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	guestOwner       = "guest"
	tempFolderName   = "Temporary uploads"
	maxParallelWrite = 4
)

type Repository interface {
	GetVolume(ctx context.Context, id int64) (*models.Volume, error)
	GetFolder(ctx context.Context, id int64) (*models.VolumeFolder, error)
	FindFolderByPath(ctx context.Context, volumeID int64, path string) (*models.VolumeFolder, error)
	GetTemporaryFolder(ctx context.Context, owner string) (*models.VolumeFolder, error)
	CreateFolder(ctx context.Context, folder *models.VolumeFolder) (int64, error)
	GetAssetsByIDs(ctx context.Context, ids []int64) ([]models.Asset, error)
	Filenames(ctx context.Context, folderID int64) ([]string, error)
	CreateAsset(ctx context.Context, asset *models.Asset) (int64, error)
	MoveAsset(ctx context.Context, id int64, folder *models.VolumeFolder, filename string) error
}

// Service resolves folders and moves file contents between storages. Volumes
// pick their storage by name; temporary folders always use temp.
type Service struct {
	logger         ectologger.Logger
	repo           Repository
	storages       map[string]assets.Storage
	temp           assets.Storage
	asciiFilenames bool
}

func NewService(repo Repository, storages map[string]assets.Storage, temp assets.Storage, asciiFilenames bool, logger ectologger.Logger) *Service {
	return &Service{
		logger:         logger,
		repo:           repo,
		storages:       storages,
		temp:           temp,
		asciiFilenames: asciiFilenames,
	}
}

func (s *Service) GetAssetsByIDs(ctx context.Context, ids []int64) ([]models.Asset, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.GetAssetsByIDs")
	defer span.End()

	return s.repo.GetAssetsByIDs(ctx, ids)
}

func (s *Service) GetFolder(ctx context.Context, id int64) (*models.VolumeFolder, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.GetFolder")
	defer span.End()

	folder, err := s.repo.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if folder == nil {
		return nil, errors.NewConfigError(errors.InvalidVolume, "", "folder %d does not exist", id)
	}
	return folder, nil
}

func (s *Service) VolumeRoot(ctx context.Context, source string) (*models.VolumeFolder, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.VolumeRoot")
	defer span.End()

	folderID, err := assets.ParseSource(source)
	if err != nil {
		return nil, errors.NewConfigError(errors.InvalidVolume, "", "%s", err.Error())
	}

	folder, err := s.repo.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if folder == nil || folder.VolumeID == nil {
		return nil, errors.NewConfigError(errors.InvalidVolume, "", "source %q does not point at a volume folder", source)
	}

	root, err := s.repo.FindFolderByPath(ctx, *folder.VolumeID, "")
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.NewConfigError(errors.InvalidVolume, "", "volume %d has no root folder", *folder.VolumeID)
	}
	return root, nil
}

// EnsureFolder walks subpath below root one segment at a time. Existing
// folders are reused so resolving the same path twice creates nothing new.
func (s *Service) EnsureFolder(ctx context.Context, root *models.VolumeFolder, subpath string, create bool) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.EnsureFolder")
	defer span.End()

	if root.VolumeID == nil {
		return 0, errors.NewConfigError(errors.InvalidVolume, "", "folder %d is not in a volume", root.ID)
	}

	current := root
	for _, segment := range strings.Split(strings.Trim(subpath, "/"), "/") {
		if segment == "" {
			continue
		}
		path := assets.ChildPath(current.Path, segment)

		folder, err := s.repo.FindFolderByPath(ctx, *root.VolumeID, path)
		if err != nil {
			return 0, err
		}
		if folder == nil {
			if !create {
				return 0, errors.NewConfigError(errors.InvalidSubpath, "", "The folder \"%s\" does not exist.", path)
			}
			folder = &models.VolumeFolder{
				VolumeID: root.VolumeID,
				ParentID: &current.ID,
				Name:     segment,
				Path:     path,
			}
			if folder.ID, err = s.repo.CreateFolder(ctx, folder); err != nil {
				return 0, err
			}
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"volume_id": *root.VolumeID,
				"path":      path,
			}).Debug("created folder")
		}
		current = folder
	}
	return current.ID, nil
}

// TemporaryFolderID returns the owner's folder for uploads whose final
// location is not known yet. Without create a missing folder is reported as 0.
func (s *Service) TemporaryFolderID(ctx context.Context, owner string, create bool) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.TemporaryFolderID")
	defer span.End()

	if owner == "" {
		owner = guestOwner
	}

	folder, err := s.repo.GetTemporaryFolder(ctx, owner)
	if err != nil {
		return 0, err
	}
	if folder != nil {
		return folder.ID, nil
	}
	if !create {
		return 0, nil
	}

	return s.repo.CreateFolder(ctx, &models.VolumeFolder{
		Name:  tempFolderName,
		Owner: owner,
	})
}

func (s *Service) locate(ctx context.Context, folder *models.VolumeFolder) (assets.Storage, string, error) {
	if folder.IsTemporary() {
		return s.temp, fmt.Sprintf("temp/%d/", folder.ID), nil
	}

	volume, err := s.repo.GetVolume(ctx, *folder.VolumeID)
	if err != nil {
		return nil, "", err
	}
	if volume == nil {
		return nil, "", errors.NewConfigError(errors.InvalidVolume, "", "volume %d does not exist", *folder.VolumeID)
	}

	storage, ok := s.storages[volume.Storage]
	if !ok {
		return nil, "", errors.NewConfigError(errors.InvalidVolume, "", "volume %s uses unknown storage %q", volume.Handle, volume.Storage)
	}
	return storage, volume.Handle + "/" + folder.Path, nil
}

func (s *Service) takenNames(ctx context.Context, folderID int64, prefix string) (map[string]bool, error) {
	names, err := s.repo.Filenames(ctx, folderID)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(names))
	for _, name := range names {
		taken[prefix+name] = true
	}
	return taken, nil
}

// Store writes the uploads into a folder and records them as assets. Colliding
// names are kept side by side with a numeric suffix.
func (s *Service) Store(ctx context.Context, folderID int64, uploads []models.Upload) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "assets.Store")
	defer span.End()

	if len(uploads) == 0 {
		return []int64{}, nil
	}

	folder, err := s.GetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	storage, prefix, err := s.locate(ctx, folder)
	if err != nil {
		return nil, err
	}
	taken, err := s.takenNames(ctx, folderID, prefix)
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(uploads))
	for i, upload := range uploads {
		filename := assets.SanitizeFilename(upload.Filename, s.asciiFilenames)
		if filename == "" {
			ext := assets.Extension(upload.Filename)
			if ext == "" {
				ext = "bin"
			}
			filename = assets.UploadedFilePrefix + "." + ext
		}
		key, err := assets.AvailableKey(ctx, storage, prefix+filename, func(k string) bool { return taken[k] })
		if err != nil {
			return nil, err
		}
		taken[key] = true
		keys[i] = key
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelWrite)
	for i := range uploads {
		g.Go(func() error {
			return storage.Write(gctx, keys[i], uploads[i].Content)
		})
	}
	if err := g.Wait(); err != nil {
		metrics.AssetUploadsTotal.WithLabelValues("error").Add(float64(len(uploads)))
		s.cleanup(ctx, storage, keys)
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"folder_id": folderID,
		}).Error("failed to write uploads")
		return nil, err
	}

	ids := make([]int64, 0, len(uploads))
	for i, upload := range uploads {
		filename := strings.TrimPrefix(keys[i], prefix)
		asset := &models.Asset{
			VolumeID: folder.VolumeID,
			FolderID: folder.ID,
			Filename: filename,
			Kind:     assets.KindOf(filename),
			Size:     int64(len(upload.Content)),
		}
		id, err := s.repo.CreateAsset(ctx, asset)
		if err != nil {
			metrics.AssetUploadsTotal.WithLabelValues("error").Add(float64(len(uploads)))
			s.cleanup(ctx, storage, keys)
			return nil, err
		}
		ids = append(ids, id)
	}

	// the asset rows go away with a rolled back transaction, so must the files
	database.OnRollback(ctx, func(ctx context.Context) {
		s.logger.WithContext(ctx).WithField("asset_ids", ids).Info("removing uploads of a rolled back transaction")
		s.cleanup(ctx, storage, keys)
	})

	metrics.AssetUploadsTotal.WithLabelValues("success").Add(float64(len(ids)))
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"folder_id": folderID,
		"asset_ids": ids,
	}).Info("stored uploads")
	return ids, nil
}

func (s *Service) cleanup(ctx context.Context, storage assets.Storage, keys []string) {
	for _, key := range keys {
		if err := storage.Delete(ctx, key); err != nil {
			s.logger.WithContext(ctx).WithError(err).Warnf("failed to remove %s", key)
		}
	}
}

// Move relocates an asset into a folder, renaming it when the name is taken.
func (s *Service) Move(ctx context.Context, asset models.Asset, folderID int64) error {
	ctx, span := tracing.StartSpan(ctx, "assets.Move")
	defer span.End()

	if asset.FolderID == folderID {
		return nil
	}

	err := s.move(ctx, asset, folderID)
	if err != nil {
		metrics.AssetMovesTotal.WithLabelValues("error").Inc()
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"asset_id":  asset.ID,
			"folder_id": folderID,
		}).Error("failed to move asset")
		return err
	}
	metrics.AssetMovesTotal.WithLabelValues("success").Inc()
	return nil
}

func (s *Service) move(ctx context.Context, asset models.Asset, folderID int64) error {
	source, err := s.GetFolder(ctx, asset.FolderID)
	if err != nil {
		return err
	}
	target, err := s.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}

	fromStorage, fromPrefix, err := s.locate(ctx, source)
	if err != nil {
		return err
	}
	toStorage, toPrefix, err := s.locate(ctx, target)
	if err != nil {
		return err
	}

	taken, err := s.takenNames(ctx, folderID, toPrefix)
	if err != nil {
		return err
	}
	from := fromPrefix + asset.Filename
	to, err := assets.AvailableKey(ctx, toStorage, toPrefix+asset.Filename, func(k string) bool { return taken[k] })
	if err != nil {
		return err
	}

	if err := transfer(ctx, fromStorage, from, toStorage, to); err != nil {
		return err
	}

	filename := strings.TrimPrefix(to, toPrefix)
	if err := s.repo.MoveAsset(ctx, asset.ID, target, filename); err != nil {
		if revertErr := transfer(ctx, toStorage, to, fromStorage, from); revertErr != nil {
			s.logger.WithContext(ctx).WithError(revertErr).Errorf("failed to restore %s after a failed move", from)
		}
		return err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"asset_id": asset.ID,
		"from":     from,
		"to":       to,
	}).Debug("moved asset")
	return nil
}

func transfer(ctx context.Context, from assets.Storage, fromKey string, to assets.Storage, toKey string) error {
	if from == to {
		return from.Move(ctx, fromKey, toKey)
	}
	content, err := from.Read(ctx, fromKey)
	if err != nil {
		return err
	}
	if err := to.Write(ctx, toKey, content); err != nil {
		return err
	}
	return from.Delete(ctx, fromKey)
}
