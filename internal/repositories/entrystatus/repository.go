package entrystatus

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
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

// GetAll returns every status ordered by sort order.
func (r *Repository) GetAll(ctx context.Context) ([]models.EntryStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.GetAll")
	defer span.End()

	sb := entryStatusStruct.SelectFrom(entryStatusesTable)
	sb.OrderBy("sort_order", "id").Asc()

	sql, args := sb.Build()

	var rows []EntryStatusRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list entry statuses")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list entry statuses")
	}

	return ToEntryStatuses(rows), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.EntryStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.GetByID")
	defer span.End()

	sb := entryStatusStruct.SelectFrom(entryStatusesTable)
	sb.Where(sb.Equal("id", id))

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Debug("Getting entry status by ID")

	var row EntryStatusRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, sql, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "entry status %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get entry status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get entry status")
	}

	return ToEntryStatus(&row), nil
}

// GetDefault returns the default status, or the first by sort order when no
// row is flagged. A nil status means the table is empty.
func (r *Repository) GetDefault(ctx context.Context) (*models.EntryStatus, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.GetDefault")
	defer span.End()

	sb := entryStatusStruct.SelectFrom(entryStatusesTable)
	sb.OrderBy("is_default DESC", "sort_order ASC", "id ASC")
	sb.Limit(1)

	sql, args := sb.Build()

	var row EntryStatusRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, sql, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get default entry status")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get default entry status")
	}

	return ToEntryStatus(&row), nil
}

// HandleTaken reports whether another status already uses the handle.
func (r *Repository) HandleTaken(ctx context.Context, handle string, excludeID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.HandleTaken")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(entryStatusesTable)
	sb.Where(sb.Equal("handle", handle), sb.NotEqual("id", excludeID))

	return r.count(ctx, sb, "failed to check entry status handle")
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.Count")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(entryStatusesTable)

	sql, args := sb.Build()

	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count entry statuses")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count entry statuses")
	}
	return count, nil
}

// InUse reports whether any entry references the status.
func (r *Repository) InUse(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.InUse")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(entriesTable)
	sb.Where(sb.Equal("status_id", id))

	return r.count(ctx, sb, "failed to check entry status usage")
}

func (r *Repository) count(ctx context.Context, sb *database.SelectBuilder, failure string) (bool, error) {
	sql, args := sb.Build()

	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(failure)
		return false, httperror.NewHTTPError(http.StatusInternalServerError, failure)
	}
	return count > 0, nil
}

func (r *Repository) Create(ctx context.Context, status *models.EntryStatus) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.Create")
	defer span.End()

	ib := entryStatusStruct.WithoutTag("pk").InsertInto(entryStatusesTable, FromEntryStatus(status))
	ib.ReturningID()

	sql, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"handle":     status.Handle,
		"is_default": status.IsDefault,
	}).Debug("Creating entry status")

	var id int64
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, sql, args...).Scan(&id); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create entry status")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create entry status")
	}

	return id, nil
}

func (r *Repository) Update(ctx context.Context, status *models.EntryStatus) error {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.Update")
	defer span.End()

	ub := entryStatusStruct.WithoutTag("pk").Update(entryStatusesTable, FromEntryStatus(status))
	ub.Where(ub.Equal("id", status.ID))

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":         status.ID,
		"is_default": status.IsDefault,
	}).Debug("Updating entry status")

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update entry status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update entry status")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "entry status %d not found", status.ID)
	}

	return nil
}

// ClearDefault unsets the default flag on every row.
func (r *Repository) ClearDefault(ctx context.Context) error {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.ClearDefault")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(entryStatusesTable)
	ub.Set(ub.Assign("is_default", false))
	ub.Where(ub.Equal("is_default", true))

	sql, args := ub.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to clear default entry status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to clear default entry status")
	}
	return nil
}

func (r *Repository) SetSortOrder(ctx context.Context, id int64, sortOrder int) error {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.SetSortOrder")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update(entryStatusesTable)
	ub.Set(ub.Assign("sort_order", sortOrder))
	ub.Where(ub.Equal("id", id))

	sql, args := ub.Build()

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to reorder entry status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reorder entry status")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "entry status %d not found", id)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryStatusRepository.Delete")
	defer span.End()

	db := entryStatusStruct.DeleteFrom(entryStatusesTable)
	db.Where(db.Equal("id", id))

	sql, args := db.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Debug("Deleting entry status")

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete entry status")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete entry status")
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}
