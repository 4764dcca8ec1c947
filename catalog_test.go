package rowdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyvit/rowdb/tuple"
)

func notesSchema(withUsers, withNotes bool, noteType tuple.Type) *Schema {
	scm := NewSchema()
	if withUsers {
		DefineTable(scm, "users", func(b *TableBuilder) {
			b.PrimaryKey("id", tuple.Uint64, IndexUnique)
			b.Column("name", tuple.Cstr)
		})
	}
	if withNotes {
		DefineTable(scm, "notes", func(b *TableBuilder) {
			b.PrimaryKey("id", tuple.Uint64, IndexWithDups)
			b.Column("text", noteType)
		})
	}
	return scm
}

func reopen(t *testing.T, path string, scm *Schema) *DB {
	t.Helper()
	db, err := Open(path, scm, Options{IsTesting: true})
	require.NoError(t, err)
	return db
}

func generation(db *DB) uint64 {
	var gen uint64
	db.Read(func(tx *Tx) {
		gen = tx.Generation()
	})
	return gen
}

func TestCatalogGeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db := reopen(t, path, notesSchema(true, false, tuple.Cstr))
	assert.Equal(t, uint64(1), generation(db))
	require.NoError(t, db.Close())

	db = reopen(t, path, notesSchema(true, false, tuple.Cstr))
	assert.Equal(t, uint64(1), generation(db))
	require.NoError(t, db.Close())

	db = reopen(t, path, notesSchema(true, true, tuple.Cstr))
	assert.Equal(t, uint64(2), generation(db))
	require.NoError(t, db.Close())

	db = reopen(t, path, notesSchema(true, false, tuple.Cstr))
	assert.Equal(t, uint64(3), generation(db))
	require.NoError(t, db.Close())
}

func TestCatalogDropTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	notes := NewTableName("notes")
	noteID := NewColumnName(notes, "id")
	noteText := NewColumnName(notes, "text")

	db := reopen(t, path, notesSchema(true, true, tuple.Cstr))
	db.Write(func(tx *Tx) {
		bind(t, tx, noteID, noteText)
		rw := tuple.NewRW()
		require.NoError(t, UpsertColumn(rw, noteID, Uint(1)))
		require.NoError(t, UpsertColumn(rw, noteText, Str("hello")))
		require.NoError(t, Insert(tx, notes, rw.Take()))
	})
	require.NoError(t, db.Close())

	db = reopen(t, path, notesSchema(true, false, tuple.Cstr))
	db.Read(func(tx *Tx) {
		assert.ErrorIs(t, tx.RefreshTable(notes), ErrUnknownName)
		assert.ErrorIs(t, tx.RefreshColumn(noteText), ErrUnknownName)
		_, err := Get(tx, notes, Uint(1))
		assert.ErrorIs(t, err, ErrUnknownName)
	})
	require.NoError(t, db.Close())

	db = reopen(t, path, notesSchema(true, true, tuple.Cstr))
	defer db.Close()
	db.Read(func(tx *Tx) {
		assert.Equal(t, 0, must(Count(tx, notes, Uint(1))))
	})
}

func TestCatalogTypeChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, reopen(t, path, notesSchema(false, true, tuple.Cstr)).Close())

	_, err := Open(path, notesSchema(false, true, tuple.Opaque), Options{IsTesting: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column text: stored as cstr #1, declared as opaque #1")

	// the failed open leaves the catalog intact
	require.NoError(t, reopen(t, path, notesSchema(false, true, tuple.Cstr)).Close())
}

func TestCatalogUniquenessChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, reopen(t, path, notesSchema(false, true, tuple.Cstr)).Close())

	scm := NewSchema()
	DefineTable(scm, "notes", func(b *TableBuilder) {
		b.PrimaryKey("id", tuple.Uint64, IndexUnique)
		b.Column("text", tuple.Cstr)
	})
	_, err := Open(path, scm, Options{IsTesting: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot change uniqueness")
}

func TestCatalogColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, reopen(t, path, notesSchema(false, true, tuple.Cstr)).Close())

	scm := NewSchema()
	DefineTable(scm, "NOTES", func(b *TableBuilder) {
		b.PrimaryKey("id", tuple.Uint64, IndexWithDups)
		b.Column("Text", tuple.Cstr)
		b.Column("extra", tuple.Uint32)
	})
	db := reopen(t, path, scm)
	assert.Equal(t, uint64(2), generation(db))
	extra := NewColumnName(NewTableName("notes"), "EXTRA")
	db.Read(func(tx *Tx) {
		bind(t, tx, extra)
		assert.Equal(t, uint(2), extra.Num())
		assert.Equal(t, tuple.Uint32, extra.Type())
	})
	require.NoError(t, db.Close())

	// extra's number cannot be reused with another type
	scm = NewSchema()
	DefineTable(scm, "notes", func(b *TableBuilder) {
		b.PrimaryKey("id", tuple.Uint64, IndexWithDups)
		b.Column("text", tuple.Cstr)
		b.Column("other", tuple.Fp64)
	})
	_, err := Open(path, scm, Options{IsTesting: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "number 2 was used by dropped column extra")
}

func TestNameBinding(t *testing.T) {
	db := setupMemory(t, basicSchema)
	tbl := NewTableName("USERS")
	col := NewColumnName(tbl, "Name")
	assert.False(t, tbl.IsUnique())

	db.Read(func(tx *Tx) {
		require.NoError(t, tx.RefreshColumn(col))
		assert.True(t, tbl.IsUnique())
		assert.Equal(t, uint(1), col.Num())
		assert.Equal(t, tuple.Cstr, col.Type())
		assert.Equal(t, "USERS.Name", col.String())

		assert.ErrorIs(t, tx.RefreshColumn(NewColumnName(tbl, "missing")), ErrUnknownName)
		assert.Equal(t, ErrInvalidArgument, tx.RefreshTable(nil))
		assert.Equal(t, ErrInvalidArgument, tx.RefreshColumn(nil))
	})

	other := setupMemory(t, basicSchema)
	other.Read(func(tx *Tx) {
		require.NoError(t, tx.RefreshColumn(col))
		assert.Same(t, other, tbl.db)
	})
}

func TestColumnBindingIsCached(t *testing.T) {
	strDB := setupMemory(t, notesSchema(false, true, tuple.Cstr))
	fltDB := setupMemory(t, notesSchema(false, true, tuple.Fp64))
	text := NewColumnName(NewTableName("notes"), "text")

	rw := tuple.NewRW()
	strDB.Read(func(tx *Tx) {
		require.NoError(t, tx.RefreshColumn(text))
	})
	require.NoError(t, UpsertColumn(rw, text, Str("hello")))
	row := rw.Take()

	// using the column elsewhere does not rebind it
	fltDB.Read(func(tx *Tx) {
		assert.ErrorIs(t, UpsertColumn(tuple.NewRW(), text, Float(1)), ErrTypeMismatch)
		assert.Equal(t, "hello", must(GetColumn(row, text)).Str())

		require.NoError(t, tx.RefreshColumn(text))
		assert.Equal(t, tuple.Fp64, text.Type())
		require.NoError(t, UpsertColumn(tuple.NewRW(), text, Float(1)))
		_, err := GetColumn(row, text)
		assert.Equal(t, ErrNoData, err)
	})
}

func TestSchemaBuilder(t *testing.T) {
	scm := NewSchema()
	tbl := DefineTable(scm, "things", func(b *TableBuilder) {
		b.Column("a", tuple.Uint16)
		b.PrimaryKey("id", tuple.Cstr, IndexUnique)
		b.Column("b", tuple.Fp64)
	})
	assert.Equal(t, "id", tbl.PrimaryKey().Name())
	assert.True(t, tbl.PrimaryKey().IsPrimaryKey())
	assert.Equal(t, uint(1), tbl.ColumnNamed("A").Num())
	assert.Equal(t, uint(2), tbl.ColumnNamed("b").Num())
	assert.Equal(t, "things.b", tbl.ColumnNamed("b").FullName())
	assert.Same(t, tbl, scm.TableNamed("THINGS"))

	assert.Panics(t, func() {
		DefineTable(scm, "things", func(b *TableBuilder) { b.PrimaryKey("id", tuple.Cstr, IndexUnique) })
	})
	assert.Panics(t, func() {
		DefineTable(NewSchema(), "nokey", func(b *TableBuilder) { b.Column("a", tuple.Cstr) })
	})
	assert.Panics(t, func() {
		DefineTable(NewSchema(), "_reserved", func(b *TableBuilder) { b.PrimaryKey("id", tuple.Cstr, IndexUnique) })
	})
	assert.Panics(t, func() {
		DefineTable(NewSchema(), "t", func(b *TableBuilder) { b.PrimaryKey("id", tuple.Null, IndexUnique) })
	})
	assert.Panics(t, func() {
		DefineTable(NewSchema(), "t", func(b *TableBuilder) { b.PrimaryKey("id", tuple.Cstr, IndexUnique|IndexWithDups) })
	})
	assert.Panics(t, func() {
		DefineTable(NewSchema(), "t", func(b *TableBuilder) {
			b.PrimaryKey("id", tuple.Cstr, IndexUnique)
			b.Column("ID", tuple.Cstr)
		})
	})
}
