package rowdb

import (
	"fmt"
	"strings"

	"github.com/andreyvit/rowdb/tuple"
)

type TableBuilder struct {
	tbl *Table
}

// DefineTable declares a table. f must declare exactly one primary key;
// the primary key becomes column 0 and other columns are numbered from 1
// in declaration order. Invalid definitions panic.
func DefineTable(scm *Schema, name string, f func(b *TableBuilder)) *Table {
	validateName("table", name)
	tbl := &Table{
		schema:             scm,
		name:               name,
		columns:            []*Column{nil},
		columnsByLowerName: make(map[string]*Column),
	}
	b := TableBuilder{tbl: tbl}
	f(&b)
	if tbl.columns[0] == nil {
		panic(fmt.Errorf("table %s: no primary key", name))
	}
	scm.addTable(tbl)
	return tbl
}

// PrimaryKey declares the primary key column. flags must be either
// IndexUnique or IndexWithDups.
func (b *TableBuilder) PrimaryKey(name string, typ tuple.Type, flags IndexFlags) *Column {
	tbl := b.tbl
	if tbl.columns[0] != nil {
		panic(fmt.Errorf("table %s: primary key already defined", tbl.name))
	}
	if flags != IndexUnique && flags != IndexWithDups {
		panic(fmt.Errorf("table %s: primary key %s: invalid flags %v", tbl.name, name, flags))
	}
	if typ == tuple.Null || typ.IsArray() || !typ.IsValid() {
		panic(fmt.Errorf("table %s: primary key %s cannot have type %v", tbl.name, name, typ))
	}
	col := b.add(name, typ)
	col.num = 0
	tbl.columns[0] = col
	tbl.unique = (flags == IndexUnique)
	return col
}

// Column declares a regular column. Null and array types are accepted but
// cannot be written.
func (b *TableBuilder) Column(name string, typ tuple.Type) *Column {
	tbl := b.tbl
	if !typ.IsValid() {
		panic(fmt.Errorf("table %s: column %s: invalid type %v", tbl.name, name, typ))
	}
	if len(tbl.columns) > tuple.MaxCols {
		panic(fmt.Errorf("table %s: too many columns", tbl.name))
	}
	col := b.add(name, typ)
	col.num = uint(len(tbl.columns))
	tbl.columns = append(tbl.columns, col)
	return col
}

func (b *TableBuilder) add(name string, typ tuple.Type) *Column {
	tbl := b.tbl
	validateName("column", name)
	lower := strings.ToLower(name)
	if tbl.columnsByLowerName[lower] != nil {
		panic(fmt.Errorf("table %s: duplicate column %q", tbl.name, name))
	}
	col := &Column{table: tbl, name: name, typ: typ}
	tbl.columnsByLowerName[lower] = col
	return col
}
