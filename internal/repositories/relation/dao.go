package relation

import (
	"database/sql"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const relationsTable = "relations"

// RelationRow represents the database row for a relation
type RelationRow struct {
	ID           int64         `db:"id" fieldtag:"pk"`
	FieldID      int64         `db:"field_id"`
	SourceID     int64         `db:"source_id"`
	SourceSiteID sql.NullInt64 `db:"source_site_id"`
	TargetID     int64         `db:"target_id"`
	SortOrder    int           `db:"sort_order"`
}

var relationStruct = database.NewStruct(new(RelationRow))

func FromRelation(rel *models.Relation) *RelationRow {
	row := &RelationRow{
		ID:        rel.ID,
		FieldID:   rel.FieldID,
		SourceID:  rel.SourceID,
		TargetID:  rel.TargetID,
		SortOrder: rel.SortOrder,
	}
	if rel.SourceSiteID != nil {
		row.SourceSiteID = sql.NullInt64{Int64: *rel.SourceSiteID, Valid: true}
	}
	return row
}

func ToRelation(row *RelationRow) models.Relation {
	rel := models.Relation{
		ID:        row.ID,
		FieldID:   row.FieldID,
		SourceID:  row.SourceID,
		TargetID:  row.TargetID,
		SortOrder: row.SortOrder,
	}
	if row.SourceSiteID.Valid {
		siteID := row.SourceSiteID.Int64
		rel.SourceSiteID = &siteID
	}
	return rel
}
