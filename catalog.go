package rowdb

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/rowdb/tuple"
)

var catalogStateKey = []byte("state")

// catalogState is the persisted description of all tables. Ordinals are
// assigned once and never reused, so a dropped and re-added table gets a
// fresh bucket.
type catalogState struct {
	Generation  uint64        `msgpack:"g"`
	LastOrdinal uint64        `msgpack:"lo"`
	Tables      []*tableState `msgpack:"t"`
}

type tableState struct {
	Name     string         `msgpack:"n"`
	Ordinal  uint64         `msgpack:"o"`
	Unique   bool           `msgpack:"u"`
	Columns  []*columnState `msgpack:"c"`
	LastSeen time.Time      `msgpack:"ls"`

	shove          uint64                  `msgpack:"-"`
	columnsByShove map[uint64]*columnState `msgpack:"-"`
}

type columnState struct {
	Name string     `msgpack:"n"`
	Num  uint       `msgpack:"i"`
	Type tuple.Type `msgpack:"t"`

	shove uint64 `msgpack:"-"`
}

// catalog is an immutable in-memory view of catalogState.
type catalog struct {
	gen           uint64
	tables        []*tableState
	tablesByShove map[uint64]*tableState
}

// shove hashes an identifier for lookups; names are case-insensitive.
func shove(name string) uint64 {
	return xxhash.Sum64String(strings.ToLower(name))
}

func (ts *tableState) bucketName() string {
	return fmt.Sprintf("%s.%d", strings.ToLower(ts.Name), ts.Ordinal)
}

func (ts *tableState) pk() *columnState {
	for _, cs := range ts.Columns {
		if cs.Num == 0 {
			return cs
		}
	}
	return nil
}

func (ts *tableState) column(sh uint64, name string) *columnState {
	cs := ts.columnsByShove[sh]
	if cs == nil || !strings.EqualFold(cs.Name, name) {
		return nil
	}
	return cs
}

func (ts *tableState) index() {
	ts.shove = shove(ts.Name)
	ts.columnsByShove = make(map[uint64]*columnState, len(ts.Columns))
	for _, cs := range ts.Columns {
		cs.shove = shove(cs.Name)
		ts.columnsByShove[cs.shove] = cs
	}
}

func (cat *catalog) table(sh uint64, name string) *tableState {
	ts := cat.tablesByShove[sh]
	if ts == nil || !strings.EqualFold(ts.Name, name) {
		return nil
	}
	return ts
}

func newCatalog(state *catalogState) *catalog {
	cat := &catalog{
		gen:           state.Generation,
		tables:        state.Tables,
		tablesByShove: make(map[uint64]*tableState, len(state.Tables)),
	}
	for _, ts := range state.Tables {
		ts.index()
		cat.tablesByShove[ts.shove] = ts
	}
	return cat
}

func loadCatalogState(stx storageTx) (*catalogState, error) {
	state := new(catalogState)
	b := stx.Catalog()
	if b == nil {
		return state, nil
	}
	raw := b.Get(catalogStateKey)
	if raw == nil {
		return state, nil
	}
	if err := msgpack.Unmarshal(raw, state); err != nil {
		return nil, errors.Wrap(dataErrf(raw, 0, err, "invalid catalog state"), "rowdb: catalog")
	}
	return state, nil
}

func saveCatalogState(stx storageTx, state *catalogState) error {
	raw, err := msgpack.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "rowdb: encoding catalog")
	}
	b, err := stx.CreateCatalog()
	if err != nil {
		return errors.Wrap(err, "rowdb: catalog bucket")
	}
	return errors.Wrap(b.Put(catalogStateKey, raw), "rowdb: saving catalog")
}

// reconcileCatalog brings the stored catalog in line with the declared
// schema: new tables and columns are added, tables missing from the schema
// are dropped along with their rows. Changing the type, number or
// uniqueness of an existing column is an error.
func reconcileCatalog(stx storageTx, scm *Schema, logger logrus.FieldLogger, now time.Time) (*catalog, error) {
	state, err := loadCatalogState(stx)
	if err != nil {
		return nil, err
	}
	old := newCatalog(state)

	var changed bool
	var tables []*tableState
	for _, tbl := range scm.tables {
		ts := old.table(shove(tbl.name), tbl.name)
		if ts == nil {
			state.LastOrdinal++
			ts = &tableState{
				Name:    tbl.name,
				Ordinal: state.LastOrdinal,
				Unique:  tbl.unique,
			}
			ts.index()
			changed = true
			logger.WithFields(logrus.Fields{"table": tbl.name, "ordinal": ts.Ordinal}).Info("rowdb: created table")
		} else if ts.Unique != tbl.unique {
			return nil, tableErrf(tbl.name, nil, nil, "primary key %s cannot change uniqueness", tbl.columns[0].name)
		}

		colsChanged, err := reconcileColumns(ts, tbl, logger)
		if err != nil {
			return nil, err
		}
		changed = changed || colsChanged

		if _, err := stx.CreateTable(ts.bucketName()); err != nil {
			return nil, errors.Wrapf(err, "rowdb: creating bucket for %s", tbl.name)
		}
		ts.LastSeen = now
		tables = append(tables, ts)
	}

	for _, ts := range state.Tables {
		if scm.TableNamed(ts.Name) != nil {
			continue
		}
		err := stx.DropTable(ts.bucketName())
		if err != nil && !errors.Is(err, errTableNotFound) {
			return nil, errors.Wrapf(err, "rowdb: dropping %s", ts.Name)
		}
		changed = true
		logger.WithFields(logrus.Fields{"table": ts.Name, "ordinal": ts.Ordinal}).Info("rowdb: dropped table")
	}

	state.Tables = tables
	if changed {
		state.Generation++
		logger.WithField("generation", state.Generation).Info("rowdb: catalog updated")
	}
	if err := saveCatalogState(stx, state); err != nil {
		return nil, err
	}
	return newCatalog(state), nil
}

func reconcileColumns(ts *tableState, tbl *Table, logger logrus.FieldLogger) (bool, error) {
	var changed bool
	var cols []*columnState
	for _, col := range tbl.columns {
		cs := ts.column(shove(col.name), col.name)
		if cs == nil {
			for _, other := range ts.Columns {
				if other.Num == col.num && tbl.ColumnNamed(other.Name) == nil {
					// rows may still carry fields of the dropped column
					if other.Type != col.typ {
						return false, tableErrf(tbl.name, nil, nil, "column %s: number %d was used by dropped column %s of type %v", col.name, col.num, other.Name, other.Type)
					}
				}
			}
			cs = &columnState{Name: col.name, Num: col.num, Type: col.typ}
			changed = true
			if len(ts.Columns) > 0 {
				logger.WithFields(logrus.Fields{"table": tbl.name, "column": col.name}).Info("rowdb: added column")
			}
		} else if cs.Num != col.num || cs.Type != col.typ {
			return false, tableErrf(tbl.name, nil, nil, "column %s: stored as %v #%d, declared as %v #%d", col.name, cs.Type, cs.Num, col.typ, col.num)
		}
		cols = append(cols, cs)
	}
	for _, cs := range ts.Columns {
		if tbl.ColumnNamed(cs.Name) == nil {
			changed = true
			logger.WithFields(logrus.Fields{"table": tbl.name, "column": cs.Name}).Info("rowdb: dropped column")
		}
	}
	ts.Columns = cols
	ts.index()
	return changed, nil
}
