package forms

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type Repository interface {
	List(ctx context.Context) ([]models.Form, error)
	GetByID(ctx context.Context, id int64) (*models.Form, error)
	GetByHandle(ctx context.Context, handle string) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) (int64, error)
	Update(ctx context.Context, form *models.Form) error
	SaveFields(ctx context.Context, formID int64, definitions []models.FieldDefinition) ([]models.FieldDefinition, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type Service struct {
	db     database.DB
	logger ectologger.Logger
	repo   Repository
	deps   fields.Dependencies
}

func NewService(db database.DB, repo Repository, deps fields.Dependencies, logger ectologger.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
		repo:   repo,
		deps:   deps,
	}
}

func (s *Service) List(ctx context.Context) ([]models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.List")
	defer span.End()

	return s.repo.List(ctx)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.GetByID")
	defer span.End()

	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByHandle(ctx context.Context, handle string) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.GetByHandle")
	defer span.End()

	return s.repo.GetByHandle(ctx, handle)
}

// Fields builds the field types of a form through the registry.
func (s *Service) Fields(form *models.Form) ([]fields.Field, error) {
	return fields.Build(form, s.deps)
}

// Save validates the form and its fields, then writes both in one
// transaction. Forms are matched by id, or by handle when the id is unset.
func (s *Service) Save(ctx context.Context, form *models.Form) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.Save")
	defer span.End()

	if err := s.validate(form); err != nil {
		return nil, err
	}

	if form.ID == 0 {
		existing, err := s.repo.GetByHandle(ctx, form.Handle)
		switch {
		case err == nil:
			form.ID = existing.ID
			form.CreatedAt = existing.CreatedAt
		case !errors.IsNotFound(err):
			return nil, err
		}
	}

	ctx, tx, err := s.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if form.ID == 0 {
		if _, err := s.repo.Create(ctx, form); err != nil {
			return nil, err
		}
	} else if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}

	saved, err := s.repo.SaveFields(ctx, form.ID, form.Fields)
	if err != nil {
		return nil, err
	}
	form.Fields = saved

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"id":     form.ID,
		"handle": form.Handle,
		"fields": len(form.Fields),
	}).Info("saved form")
	return form, nil
}

func (s *Service) validate(form *models.Form) error {
	if _, err := utils.Validate(*form); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	seen := map[string]bool{}
	for _, def := range form.Fields {
		if seen[def.Handle] {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "duplicate field handle '%s'", def.Handle).
				AddMetaValue("form", form.Handle)
		}
		seen[def.Handle] = true
	}

	if form.SubmitAction != "" {
		if err := utils.ValidateValue(form.SubmitAction, "url"); err != nil {
			return httperror.NewHTTPErrorf(http.StatusBadRequest, "submit action of form '%s' is not a valid URL", form.Handle)
		}
	}

	_, err := fields.Build(form, s.deps)
	return err
}

// Delete removes a form with its fields and entries.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "forms.Delete")
	defer span.End()

	return s.repo.Delete(ctx, id)
}
