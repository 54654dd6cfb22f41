package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

var flavor = sqlbuilder.PostgreSQL

// SetFlavor picks the placeholder style for the connected driver.
func SetFlavor(driverName string) {
	switch driverName {
	case "sqlite", "sqlite3":
		flavor = sqlbuilder.SQLite
	default:
		flavor = sqlbuilder.PostgreSQL
	}
}

func Flavor() sqlbuilder.Flavor {
	return flavor
}

func Excluded(column string) any {
	return sqlbuilder.Raw(fmt.Sprintf("excluded.%s", column))
}

type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder() *InsertBuilder {
	return &InsertBuilder{flavor.NewInsertBuilder()}
}

func (b *InsertBuilder) OnConflict(columns ...string) *UpdateBuilder {
	ub := NewUpdateBuilder()
	b.SQL(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE %s", strings.Join(columns, ", "), b.Var(ub)))

	return ub
}

func (b *InsertBuilder) OnConflictDoNothing() *InsertBuilder {
	b.SQL("ON CONFLICT DO NOTHING")
	return b
}

// ReturningID appends a RETURNING clause for the generated primary key.
func (b *InsertBuilder) ReturningID() *InsertBuilder {
	b.SQL("RETURNING id")
	return b
}

func (b *InsertBuilder) InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{b.InsertBuilder.InsertInto(table)}
}

func (b *InsertBuilder) Cols(col ...string) *InsertBuilder {
	return &InsertBuilder{b.InsertBuilder.Cols(col...)}
}

func (b *InsertBuilder) Values(value ...any) *InsertBuilder {
	return &InsertBuilder{b.InsertBuilder.Values(value...)}
}

type UpdateBuilder struct {
	*sqlbuilder.UpdateBuilder
}

func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{flavor.NewUpdateBuilder()}
}

type DeleteBuilder struct {
	*sqlbuilder.DeleteBuilder
}

func NewDeleteBuilder() *DeleteBuilder {
	return &DeleteBuilder{flavor.NewDeleteBuilder()}
}

type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{flavor.NewSelectBuilder()}
}

// Struct resolves the flavor when a builder is created, so package level
// structs declared before the connection is opened still follow the driver.
type Struct struct {
	*sqlbuilder.Struct
}

func (s *Struct) SelectFrom(table string) *SelectBuilder {
	return &SelectBuilder{s.Struct.For(flavor).SelectFrom(table)}
}

func (s *Struct) InsertInto(table string, v ...any) *InsertBuilder {
	return &InsertBuilder{s.Struct.For(flavor).InsertInto(table, v...)}
}

func (s *Struct) Update(table string, v any) *UpdateBuilder {
	return &UpdateBuilder{s.Struct.For(flavor).Update(table, v)}
}

func (s *Struct) DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{s.Struct.For(flavor).DeleteFrom(table)}
}

// WithoutTag hides fields marked with any of the given fieldtag values, e.g. a
// generated primary key on insert.
func (s *Struct) WithoutTag(tags ...string) *Struct {
	return &Struct{s.Struct.WithoutTag(tags...)}
}

func NewStruct(v any) *Struct {
	return &Struct{sqlbuilder.NewStruct(v)}
}
