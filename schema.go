package rowdb

import (
	"fmt"
	"strings"

	"github.com/andreyvit/rowdb/tuple"
)

// IndexFlags describe the primary key index of a table.
type IndexFlags uint8

const (
	// IndexUnique allows at most one row per primary key value.
	IndexUnique IndexFlags = 1 << iota
	// IndexWithDups allows several distinct rows per primary key value.
	IndexWithDups
)

func (f IndexFlags) String() string {
	switch f {
	case IndexUnique:
		return "unique"
	case IndexWithDups:
		return "dups"
	default:
		return fmt.Sprintf("IndexFlags(%d)", uint8(f))
	}
}

// Schema is the declared set of tables. It is reconciled with the catalog
// stored in the database by Open.
type Schema struct {
	tables            []*Table
	tablesByLowerName map[string]*Table
}

func NewSchema() *Schema {
	return &Schema{
		tablesByLowerName: make(map[string]*Table),
	}
}

func (scm *Schema) Tables() []*Table {
	return append([]*Table(nil), scm.tables...)
}

func (scm *Schema) TableNamed(name string) *Table {
	return scm.tablesByLowerName[strings.ToLower(name)]
}

func (scm *Schema) addTable(tbl *Table) {
	lower := strings.ToLower(tbl.name)
	if scm.tablesByLowerName[lower] != nil {
		panic(fmt.Errorf("duplicate table %q", tbl.name))
	}
	tbl.pos = len(scm.tables)
	scm.tables = append(scm.tables, tbl)
	scm.tablesByLowerName[lower] = tbl
}

type Table struct {
	schema             *Schema
	name               string
	pos                int
	unique             bool
	columns            []*Column
	columnsByLowerName map[string]*Column
}

func (tbl *Table) Name() string        { return tbl.name }
func (tbl *Table) IsUnique() bool      { return tbl.unique }
func (tbl *Table) PrimaryKey() *Column { return tbl.columns[0] }

// Columns returns all columns ordered by column number.
func (tbl *Table) Columns() []*Column {
	return append([]*Column(nil), tbl.columns...)
}

func (tbl *Table) ColumnNamed(name string) *Column {
	return tbl.columnsByLowerName[strings.ToLower(name)]
}

type Column struct {
	table *Table
	name  string
	num   uint
	typ   tuple.Type
}

func (col *Column) Table() *Table      { return col.table }
func (col *Column) Name() string       { return col.name }
func (col *Column) Num() uint          { return col.num }
func (col *Column) Type() tuple.Type   { return col.typ }
func (col *Column) FullName() string   { return col.table.name + "." + col.name }
func (col *Column) IsPrimaryKey() bool { return col.num == 0 }

func validateName(kind, name string) {
	if name == "" {
		panic(fmt.Errorf("empty %s name", kind))
	}
	if name[0] == '_' {
		panic(fmt.Errorf("%s name %q: names starting with _ are reserved", kind, name))
	}
	for i, r := range name {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9')
		if !ok {
			panic(fmt.Errorf("%s name %q: invalid character %q", kind, name, r))
		}
	}
}
