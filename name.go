package rowdb

import (
	"fmt"

	"github.com/andreyvit/rowdb/tuple"
)

// TableName identifies a table by name. It caches its resolution against a
// database catalog; Tx.RefreshTable (re)binds it, and mutations refresh
// automatically. A TableName must not be refreshed from several goroutines
// at once.
type TableName struct {
	name  string
	shove uint64

	db     *DB
	gen    uint64
	state  *tableState
	pkType tuple.Type
}

func NewTableName(name string) *TableName {
	return &TableName{name: name, shove: shove(name)}
}

func (tbl *TableName) Name() string  { return tbl.name }
func (tbl *TableName) Shove() uint64 { return tbl.shove }

func (tbl *TableName) String() string {
	return tbl.name
}

func (tbl *TableName) isBound() bool {
	return tbl != nil && tbl.state != nil
}

// IsUnique reports whether the bound table allows one row per key.
func (tbl *TableName) IsUnique() bool {
	return tbl.isBound() && tbl.state.Unique
}

// ColumnName identifies a column of a table. Like TableName it caches its
// binding: column number and type.
type ColumnName struct {
	table *TableName
	name  string
	shove uint64

	db  *DB
	gen uint64
	num uint
	typ tuple.Type
}

func NewColumnName(tbl *TableName, name string) *ColumnName {
	if tbl == nil {
		panic("nil table")
	}
	return &ColumnName{table: tbl, name: name, shove: shove(name)}
}

func (col *ColumnName) Table() *TableName { return col.table }
func (col *ColumnName) Name() string      { return col.name }
func (col *ColumnName) Shove() uint64     { return col.shove }

// Num returns the bound column number.
func (col *ColumnName) Num() uint { return col.num }

// Type returns the bound column type.
func (col *ColumnName) Type() tuple.Type { return col.typ }

func (col *ColumnName) String() string {
	return col.table.name + "." + col.name
}

// isBound reports whether col was bound at some point. The binding may be
// stale; only Tx.RefreshColumn checks it against a catalog.
func (col *ColumnName) isBound() bool {
	return col != nil && col.db != nil
}

// RefreshTable binds tbl to the catalog visible to tx. It is a no-op when
// tbl is already bound to the same database and generation.
func (tx *Tx) RefreshTable(tbl *TableName) error {
	if tbl == nil {
		return ErrInvalidArgument
	}
	if tbl.db == tx.db && tbl.gen == tx.cat.gen && tbl.state != nil {
		return nil
	}
	ts := tx.cat.table(tbl.shove, tbl.name)
	if ts == nil {
		tbl.db, tbl.state = nil, nil
		return tableErrf(tbl.name, nil, ErrUnknownName, "")
	}
	pk := ts.pk()
	if pk == nil {
		return tableErrf(tbl.name, nil, ErrInvalidArgument, "no primary key in catalog")
	}
	tbl.db, tbl.gen, tbl.state, tbl.pkType = tx.db, tx.cat.gen, ts, pk.Type
	return nil
}

// RefreshColumn binds col and its table to the catalog visible to tx.
func (tx *Tx) RefreshColumn(col *ColumnName) error {
	if col == nil {
		return ErrInvalidArgument
	}
	tbl := col.table
	if err := tx.RefreshTable(tbl); err != nil {
		col.db = nil
		return err
	}
	if col.db == tx.db && col.gen == tx.cat.gen {
		return nil
	}
	cs := tbl.state.column(col.shove, col.name)
	if cs == nil {
		col.db = nil
		return tableErrf(tbl.name, nil, ErrUnknownName, "column %s", col.name)
	}
	col.db, col.gen, col.num, col.typ = tx.db, tx.cat.gen, cs.Num, cs.Type
	return nil
}

func (tbl *TableName) pkName() string {
	if pk := tbl.state.pk(); pk != nil {
		return fmt.Sprintf("%s.%s", tbl.name, pk.Name)
	}
	return tbl.name
}
