package rowdb

import (
	"fmt"
	"strings"

	"github.com/andreyvit/rowdb/tuple"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpColumns
	DumpRows
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the catalog and contents of every table for debugging.
func (tx *Tx) Dump(f DumpFlags) string {
	var buf strings.Builder
	if f.Contains(DumpTableHeaders) {
		fmt.Fprintf(&buf, "generation %d\n", tx.cat.gen)
	}
	for _, ts := range tx.cat.tables {
		tx.dumpTable(&buf, f, ts)
	}
	return buf.String()
}

func (tx *Tx) dumpTable(w *strings.Builder, f DumpFlags, ts *tableState) {
	tbl := NewTableName(ts.Name)
	prefix := ts.Name

	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(w, dumpSep1)
		kind := "unique"
		if !ts.Unique {
			kind = "dups"
		}
		fmt.Fprintf(w, "%s (ordinal %d, %s)\n", prefix, ts.Ordinal, kind)
	}
	if f.Contains(DumpColumns) {
		for _, cs := range ts.Columns {
			fmt.Fprintf(w, "%s.%s #%d %v\n", prefix, cs.Name, cs.Num, cs.Type)
		}
	}
	if f.Contains(DumpStats) {
		if s, err := tx.TableStats(tbl); err != nil {
			fmt.Fprintf(w, "%s.stats: ** ERROR: %v\n", prefix, err)
		} else {
			fmt.Fprintf(w, "%s.stats: rows = %d, data_size = %d, data_alloc = %d\n", prefix, s.Rows, s.DataSize, s.DataAlloc)
		}
	}
	if f.Contains(DumpRows) {
		if f.Contains(DumpStats) || f.Contains(DumpColumns) {
			fmt.Fprintln(w, dumpSep2)
		}
		var rowPos int
		err := Each(tx, tbl, func(row tuple.RO) error {
			rowPos++
			fmt.Fprintf(w, "%s.%d = %s\n", prefix, rowPos, formatRow(ts, row))
			return nil
		})
		if err != nil {
			fmt.Fprintf(w, "%s.%d ** ERROR: %v\n", prefix, rowPos+1, err)
		}
	}
}

// formatRow renders fields with their catalog column names where known.
func formatRow(ts *tableState, row tuple.RO) string {
	var buf strings.Builder
	buf.WriteByte('{')
	for i, fld := range row.Fields() {
		if i > 0 {
			buf.WriteByte(' ')
		}
		name := ""
		for _, cs := range ts.Columns {
			if cs.Num == fld.Col() && cs.Type == fld.Type() {
				name = cs.Name
				break
			}
		}
		if name == "" {
			buf.WriteString(fld.String())
		} else {
			fmt.Fprintf(&buf, "%s=%v", name, FieldValue(&fld))
		}
	}
	buf.WriteByte('}')
	return buf.String()
}
