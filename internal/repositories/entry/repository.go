package entry

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

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

func (r *Repository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.GetByID")
	defer span.End()

	sb := entryStruct.SelectFrom(entriesTable)
	sb.Where(sb.Equal("id", id))

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Debug("Getting entry by ID")

	var row EntryRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, sql, args...); err != nil {
		if database.IsNoRows(err) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "entry %d not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get entry")
	}

	return ToEntry(&row), nil
}

func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.Exists")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(entriesTable)
	sb.Where(sb.Equal("id", id))

	sql, args := sb.Build()

	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check entry")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check entry")
	}
	return count > 0, nil
}

// ListByForm returns the newest entries of a form first.
func (r *Repository) ListByForm(ctx context.Context, formID int64, limit, offset int) ([]*models.Entry, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.ListByForm")
	defer span.End()

	sb := entryStruct.SelectFrom(entriesTable)
	sb.Where(sb.Equal("form_id", formID))
	sb.OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		sb.Limit(limit)
		sb.Offset(offset)
	}

	sql, args := sb.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"form_id": formID,
		"limit":   limit,
		"offset":  offset,
	}).Debug("Listing entries")

	var rows []EntryRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list entries")
	}

	return ToEntries(rows), nil
}

// Create inserts the entry and returns its generated id.
func (r *Repository) Create(ctx context.Context, entry *models.Entry, values map[string]any) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.Create")
	defer span.End()

	now := Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	ib := entryStruct.WithoutTag("pk").InsertInto(entriesTable, FromEntry(entry, values))
	ib.ReturningID()

	sql, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"form_id":   entry.FormID,
		"status_id": entry.StatusID,
	}).Debug("Creating entry")

	var id int64
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, sql, args...).Scan(&id); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create entry")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create entry")
	}

	return id, nil
}

// Update rewrites the entry row. ErrNotPersisted means no row matched.
func (r *Repository) Update(ctx context.Context, entry *models.Entry, values map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.Update")
	defer span.End()

	entry.UpdatedAt = Now()

	row := FromEntry(entry, values)
	ub := database.NewUpdateBuilder()
	ub.Update(entriesTable)
	ub.Set(
		ub.Assign("status_id", row.StatusID),
		ub.Assign("site_id", row.SiteID),
		ub.Assign("enabled", row.Enabled),
		ub.Assign("field_values", row.FieldValues),
		ub.Assign("updated_at", row.UpdatedAt),
	)
	ub.Where(ub.Equal("id", entry.ID))

	sql, args := ub.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      entry.ID,
		"form_id": entry.FormID,
	}).Debug("Updating entry")

	result, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update entry")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update entry")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return errors.ErrNotPersisted
	}
	return nil
}

// Delete removes the entry and its relation rows.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.Delete")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	rb := database.NewDeleteBuilder()
	rb.DeleteFrom(relationsTable)
	rb.Where(rb.Equal("source_id", id))

	sql, args := rb.Build()
	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete entry relations")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete entry relations")
	}

	db := entryStruct.DeleteFrom(entriesTable)
	db.Where(db.Equal("id", id))

	sql, args = db.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id": id,
	}).Debug("Deleting entry")

	result, err := tx.ExecContext(ctx, sql, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete entry")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete entry")
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ValueExists reports whether another entry of the form stores value under
// handle, compared case-insensitively.
func (r *Repository) ValueExists(ctx context.Context, formID int64, handle string, value string, excludeEntryID int64) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.ValueExists")
	defer span.End()

	if !handlePattern.MatchString(handle) {
		return false, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid field handle '%s'", handle)
	}

	var column string
	switch r.db.DriverName() {
	case "sqlite", "sqlite3":
		column = fmt.Sprintf("json_extract(field_values, '$.%s')", handle)
	default:
		column = fmt.Sprintf("field_values->>'%s'", handle)
	}

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)").From(entriesTable)
	sb.Where(
		sb.Equal("form_id", formID),
		sb.NotEqual("id", excludeEntryID),
		fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, sb.Var(value)),
	)

	sql, args := sb.Build()

	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"form_id": formID,
			"handle":  handle,
		}).Error("Failed to look up entry value")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to look up entry value")
	}
	return count > 0, nil
}

// CreatedAtBetween returns creation times in [start, end), for one form or all when formID is nil.
func (r *Repository) CreatedAtBetween(ctx context.Context, formID *int64, start, end time.Time) ([]time.Time, error) {
	ctx, span := tracing.StartSpan(ctx, "EntryRepository.CreatedAtBetween")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("created_at").From(entriesTable)
	sb.Where(
		sb.GreaterEqualThan("created_at", start.UTC()),
		sb.LessThan("created_at", end.UTC()),
	)
	if formID != nil && *formID != 0 {
		sb.Where(sb.Equal("form_id", *formID))
	}
	sb.OrderBy("created_at").Asc()

	sql, args := sb.Build()

	var timestamps []time.Time
	if err := r.db.Conn(ctx).SelectContext(ctx, &timestamps, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load entry timestamps")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load entry timestamps")
	}
	return timestamps, nil
}
