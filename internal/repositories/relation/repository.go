package relation

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

// DeleteForSource removes the relation rows of a field on a source. With a
// site id only rows for that site or without a site are removed.
func (r *Repository) DeleteForSource(ctx context.Context, fieldID, sourceID int64, siteID *int64) error {
	ctx, span := tracing.StartSpan(ctx, "RelationRepository.DeleteForSource")
	defer span.End()

	db := relationStruct.DeleteFrom(relationsTable)
	db.Where(
		db.Equal("field_id", fieldID),
		db.Equal("source_id", sourceID),
	)
	if siteID != nil {
		db.Where(db.Or(
			db.IsNull("source_site_id"),
			db.Equal("source_site_id", *siteID),
		))
	}

	sql, args := db.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"field_id":  fieldID,
		"source_id": sourceID,
	}).Debug("Deleting relations")

	if _, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete relations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete relations")
	}
	return nil
}

func (r *Repository) Insert(ctx context.Context, relations []models.Relation) error {
	ctx, span := tracing.StartSpan(ctx, "RelationRepository.Insert")
	defer span.End()

	if len(relations) == 0 {
		return nil
	}

	rows := make([]any, len(relations))
	for i := range relations {
		rows[i] = FromRelation(&relations[i])
	}

	ib := relationStruct.WithoutTag("pk").InsertInto(relationsTable, rows...)

	sql, args := ib.Build()

	if _, err := r.db.Conn(ctx).ExecContext(ctx, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"count": len(relations),
		}).Error("Failed to insert relations")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert relations")
	}
	return nil
}

// ListForSource returns the relation rows of a field on a source in sort order.
func (r *Repository) ListForSource(ctx context.Context, fieldID, sourceID int64) ([]models.Relation, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationRepository.ListForSource")
	defer span.End()

	sb := relationStruct.SelectFrom(relationsTable)
	sb.Where(
		sb.Equal("field_id", fieldID),
		sb.Equal("source_id", sourceID),
	)
	sb.OrderBy("sort_order", "id").Asc()

	sql, args := sb.Build()

	var rows []RelationRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, sql, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list relations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list relations")
	}

	relations := make([]models.Relation, len(rows))
	for i, row := range rows {
		relations[i] = ToRelation(&row)
	}
	return relations, nil
}
