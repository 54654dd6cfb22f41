package form

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

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

// List returns every form without its fields.
func (r *Repository) List(ctx context.Context) ([]models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.List")
	defer span.End()

	sb := formStruct.SelectFrom(formsTable)
	sb.OrderBy("name", "id").Asc()

	sql, args := sb.Build()

	var rows []FormRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list forms")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list forms")
	}

	forms := make([]models.Form, len(rows))
	for i, row := range rows {
		forms[i] = *ToForm(&row)
	}
	return forms, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.GetByID")
	defer span.End()

	sb := formStruct.SelectFrom(formsTable)
	sb.Where(sb.Equal("id", id))

	return r.get(ctx, sb, map[string]any{"id": id})
}

func (r *Repository) GetByHandle(ctx context.Context, handle string) (*models.Form, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.GetByHandle")
	defer span.End()

	sb := formStruct.SelectFrom(formsTable)
	sb.Where(sb.Equal("handle", handle))

	return r.get(ctx, sb, map[string]any{"handle": handle})
}

func (r *Repository) get(ctx context.Context, sb *database.SelectBuilder, fields map[string]any) (*models.Form, error) {
	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(fields).Debug("Getting form")

	var row FormRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, sql, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "form not found")
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(fields).Error("Failed to get form")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get form")
	}

	form := ToForm(&row)
	definitions, err := r.GetFields(ctx, form.ID)
	if err != nil {
		return nil, err
	}
	form.Fields = definitions
	return form, nil
}

// GetFields returns the field definitions of a form in display order.
func (r *Repository) GetFields(ctx context.Context, formID int64) ([]models.FieldDefinition, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.GetFields")
	defer span.End()

	sb := fieldStruct.SelectFrom(fieldsTable)
	sb.Where(sb.Equal("form_id", formID))
	sb.OrderBy("sort_order", "id").Asc()

	sql, args := sb.Build()

	var rows []FieldRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"form_id": formID,
		}).Error("Failed to list fields")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list fields")
	}

	return ToFields(rows), nil
}

func (r *Repository) Create(ctx context.Context, form *models.Form) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.Create")
	defer span.End()

	now := Now()
	form.CreatedAt = now
	form.UpdatedAt = now

	ib := formStruct.WithoutTag("pk").InsertInto(formsTable, FromForm(form))
	ib.ReturningID()

	sql, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"handle": form.Handle,
	}).Debug("Creating form")

	var id int64
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, sql, args...).Scan(&id); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create form")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create form")
	}
	form.ID = id
	return id, nil
}

func (r *Repository) Update(ctx context.Context, form *models.Form) error {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.Update")
	defer span.End()

	form.UpdatedAt = Now()

	ub := database.NewUpdateBuilder()
	ub.Update(formsTable)
	ub.Set(
		ub.Assign("handle", form.Handle),
		ub.Assign("name", form.Name),
		ub.Assign("submit_action", FromForm(form).SubmitAction),
		ub.Assign("save_data", form.SaveData),
		ub.Assign("updated_at", form.UpdatedAt),
	)
	ub.Where(ub.Equal("id", form.ID))

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":     form.ID,
		"handle": form.Handle,
	}).Debug("Updating form")

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update form")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update form")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "form not found")
	}
	return nil
}

// SaveFields upserts the definitions by handle and removes fields of the form
// that are no longer listed. Existing field ids survive so relation rows stay attached.
func (r *Repository) SaveFields(ctx context.Context, formID int64, definitions []models.FieldDefinition) ([]models.FieldDefinition, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.SaveFields")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	saved := make([]models.FieldDefinition, 0, len(definitions))
	for i, definition := range definitions {
		definition.FormID = formID
		if definition.SortOrder == 0 {
			definition.SortOrder = i + 1
		}

		ib := fieldStruct.WithoutTag("pk").InsertInto(fieldsTable, FromField(&definition))
		ub := ib.OnConflict("form_id", "handle")
		ub.Set(
			ub.Assign("name", database.Excluded("name")),
			ub.Assign("type", database.Excluded("type")),
			ub.Assign("instructions", database.Excluded("instructions")),
			ub.Assign("required", database.Excluded("required")),
			ub.Assign("sort_order", database.Excluded("sort_order")),
			ub.Assign("settings", database.Excluded("settings")),
		)
		ib.ReturningID()

		sql, args := ib.Build()

		if err := tx.QueryRowxContext(ctx, sql, args...).Scan(&definition.ID); err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"form_id": formID,
				"handle":  definition.Handle,
			}).Error("Failed to save field")
			return nil, httperror.NewHTTPErrorf(http.StatusInternalServerError, "failed to save field '%s'", definition.Handle)
		}
		saved = append(saved, definition)
	}

	db := fieldStruct.DeleteFrom(fieldsTable)
	db.Where(db.Equal("form_id", formID))
	if len(saved) > 0 {
		handles := ectolinq.Map(saved, func(d models.FieldDefinition) any { return d.Handle })
		db.Where(db.NotIn("handle", handles...))
	}

	sql, args := db.Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to prune fields")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to prune fields")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "FormRepository.Delete")
	defer span.End()

	db := formStruct.DeleteFrom(formsTable)
	db.Where(db.Equal("id", id))

	sql, args := db.Build()

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete form")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete form")
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}
