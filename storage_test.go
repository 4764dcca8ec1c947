package rowdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func storages(t *testing.T, f func(t *testing.T, st storage)) {
	t.Run("bolt", func(t *testing.T) {
		bdb := must(bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0666, nil))
		st := newBoltStorage(bdb)
		defer st.Close()
		f(t, st)
	})
	t.Run("mem", func(t *testing.T) {
		st := newMemStorage()
		defer st.Close()
		f(t, st)
	})
}

func keys(b storageBucket, prefix string) []string {
	var out []string
	b.Scan([]byte(prefix), func(k, v []byte) bool {
		out = append(out, string(k)+"="+string(v))
		return true
	})
	return out
}

func TestStorageScan(t *testing.T) {
	storages(t, func(t *testing.T, st storage) {
		tx := must(st.BeginTx(true))
		defer tx.Rollback()
		b := must(tx.CreateTable("t.1"))
		for _, k := range []string{"b2", "a", "b1", "c", "b"} {
			require.NoError(t, b.Put([]byte(k), []byte(k+"!")))
		}

		assert.Equal(t, []string{"a=a!", "b=b!", "b1=b1!", "b2=b2!", "c=c!"}, keys(b, ""))
		assert.Equal(t, []string{"b=b!", "b1=b1!", "b2=b2!"}, keys(b, "b"))
		assert.Equal(t, []string{"b1=b1!"}, keys(b, "b1"))
		assert.Empty(t, keys(b, "bb"))
		assert.Empty(t, keys(b, "d"))

		var seen int
		b.Scan(nil, func(k, v []byte) bool {
			seen++
			return false
		})
		assert.Equal(t, 1, seen)
	})
}

func TestStorageDeletePrefix(t *testing.T) {
	storages(t, func(t *testing.T, st storage) {
		tx := must(st.BeginTx(true))
		defer tx.Rollback()
		b := must(tx.CreateTable("t.1"))
		for _, k := range []string{"a", "b", "b1", "b2", "c"} {
			require.NoError(t, b.Put([]byte(k), []byte{}))
		}

		assert.Equal(t, 3, must(b.DeletePrefix([]byte("b"))))
		assert.Equal(t, []string{"a=", "c="}, keys(b, ""))
		assert.Equal(t, 0, must(b.DeletePrefix([]byte("b"))))
		assert.Nil(t, b.Get([]byte("b")))
	})
}

func TestStorageTables(t *testing.T) {
	storages(t, func(t *testing.T, st storage) {
		tx := must(st.BeginTx(true))
		assert.Nil(t, tx.Catalog())
		assert.Nil(t, tx.Table("t.1"))
		cat := must(tx.CreateCatalog())
		require.NoError(t, cat.Put([]byte("state"), []byte("x")))
		b := must(tx.CreateTable("t.1"))
		require.NoError(t, b.Put([]byte("k"), []byte("v")))
		require.NoError(t, tx.Commit())

		tx = must(st.BeginTx(true))
		defer tx.Rollback()
		assert.Equal(t, []byte("x"), tx.Catalog().Get([]byte("state")))
		assert.Nil(t, tx.Catalog().Get([]byte("k")))
		assert.Equal(t, []byte("v"), tx.Table("t.1").Get([]byte("k")))
		assert.Equal(t, 1, tx.Table("t.1").Stats().KeyN)

		assert.ErrorIs(t, tx.DropTable("t.2"), errTableNotFound)
		require.NoError(t, tx.DropTable("t.1"))
		assert.Nil(t, tx.Table("t.1"))
		assert.NotNil(t, tx.Catalog())
	})
}

func TestStorageReadOnly(t *testing.T) {
	storages(t, func(t *testing.T, st storage) {
		w := must(st.BeginTx(true))
		must(w.CreateTable("t.1"))
		require.NoError(t, w.Commit())

		r := must(st.BeginTx(false))
		defer r.Rollback()
		assert.False(t, r.Writable())
		assert.Error(t, r.Table("t.1").Put([]byte("k"), []byte("v")))
		assert.Error(t, r.DropTable("t.1"))
		_, err := r.CreateTable("t.2")
		assert.Error(t, err)
		require.NoError(t, r.Rollback())
		require.NoError(t, r.Rollback())
	})
}

func TestMemStorageIsolation(t *testing.T) {
	st := newMemStorage()
	defer st.Close()

	w := must(st.BeginTx(true))
	b := must(w.CreateTable("t.1"))
	require.NoError(t, b.Put([]byte("k"), []byte("v")))
	require.NoError(t, w.Commit())

	r := must(st.BeginTx(false))
	defer r.Rollback()

	w = must(st.BeginTx(true))
	require.NoError(t, w.Table("t.1").Put([]byte("k"), []byte("v2")))
	require.NoError(t, w.Table("t.1").Put([]byte("k2"), []byte("v")))
	assert.Equal(t, []byte("v"), r.Table("t.1").Get([]byte("k")))
	assert.Nil(t, r.Table("t.1").Get([]byte("k2")))
	require.NoError(t, w.Rollback())

	w = must(st.BeginTx(true))
	require.NoError(t, w.DropTable("t.1"))
	require.NoError(t, w.Commit())
	assert.Equal(t, []string{"k=v"}, keys(r.Table("t.1"), ""))
	assert.Equal(t, ErrReadOnly, r.Table("t.1").Put([]byte("k"), nil))

	r2 := must(st.BeginTx(false))
	defer r2.Rollback()
	assert.Nil(t, r2.Table("t.1"))
}
