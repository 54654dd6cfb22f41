package entrystatuses

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// DefaultSortOrder places statuses saved without an order last.
const DefaultSortOrder = 999

type Repository interface {
	GetAll(ctx context.Context) ([]models.EntryStatus, error)
	GetByID(ctx context.Context, id int64) (*models.EntryStatus, error)
	GetDefault(ctx context.Context) (*models.EntryStatus, error)
	HandleTaken(ctx context.Context, handle string, excludeID int64) (bool, error)
	Count(ctx context.Context) (int, error)
	InUse(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, status *models.EntryStatus) (int64, error)
	Update(ctx context.Context, status *models.EntryStatus) error
	ClearDefault(ctx context.Context) error
	SetSortOrder(ctx context.Context, id int64, sortOrder int) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	db     database.DB
	logger ectologger.Logger
	repo   Repository
}

func NewService(db database.DB, repo Repository, logger ectologger.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		repo:   repo,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]models.EntryStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "entrystatuses.GetAll")
	defer span.End()

	return s.repo.GetAll(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*models.EntryStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "entrystatuses.GetByID")
	defer span.End()

	return s.repo.GetByID(ctx, id)
}

// GetDefaultID returns the status new entries receive.
func (s *Service) GetDefaultID(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "entrystatuses.GetDefaultID")
	defer span.End()

	status, err := s.repo.GetDefault(ctx)
	if err != nil {
		return 0, err
	}
	if status == nil {
		return 0, errors.NewConfigError(errors.MissingStatus, "", "no entry status exists")
	}
	return status.ID, nil
}

// Save creates or updates a status. Invalid input returns false and leaves the
// messages on status.Errors. Making a status the default clears the flag on
// every other status in the same transaction.
func (s *Service) Save(ctx context.Context, status *models.EntryStatus) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "entrystatuses.Save")
	defer span.End()

	if status.ID != 0 {
		if _, err := s.repo.GetByID(ctx, status.ID); err != nil {
			return false, err
		}
	}

	verrs, err := s.validate(ctx, status)
	if err != nil {
		return false, err
	}
	status.Errors = verrs
	if verrs.HasErrors() {
		return false, nil
	}

	if status.SortOrder == 0 {
		status.SortOrder = DefaultSortOrder
	}

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if status.IsDefault {
		if err := s.repo.ClearDefault(ctx); err != nil {
			return false, err
		}
	}

	if status.ID == 0 {
		id, err := s.repo.Create(ctx, status)
		if err != nil {
			return false, err
		}
		status.ID = id
	} else if err := s.repo.Update(ctx, status); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         status.ID,
		"handle":     status.Handle,
		"is_default": status.IsDefault,
	}).Info("saved entry status")
	return true, nil
}

func (s *Service) validate(ctx context.Context, status *models.EntryStatus) (errors.ValidationErrors, error) {
	verrs := errors.ValidationErrors{}
	if status.Name == "" {
		verrs.Add("name", "Name cannot be blank.")
	}
	if status.Handle == "" {
		verrs.Add("handle", "Handle cannot be blank.")
	}
	if status.Handle == "" {
		return verrs, nil
	}

	taken, err := s.repo.HandleTaken(ctx, status.Handle, status.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		verrs.Add("handle", "Handle \""+status.Handle+"\" has already been taken.")
	}
	return verrs, nil
}

// Delete removes a status unless an entry uses it or it is the last one.
// Unknown ids return false.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "entrystatuses.Delete")
	defer span.End()

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return false, err
	}
	if inUse {
		s.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("entry status is in use and cannot be deleted")
		return false, nil
	}

	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count < 2 {
		s.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("the last entry status cannot be deleted")
		return false, nil
	}

	return s.repo.Delete(ctx, id)
}

// Reorder assigns sort orders 1..n following ids.
func (s *Service) Reorder(ctx context.Context, ids []int64) error {
	ctx, span := tracing.StartSpan(ctx, "entrystatuses.Reorder")
	defer span.End()

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, id := range ids {
		if err := s.repo.SetSortOrder(ctx, id, i+1); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
