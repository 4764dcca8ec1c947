package rowdb

import (
	"bytes"
	"errors"
	"slices"
	"sort"
	"sync"
)

var errStorageClosed = errors.New("storage closed")

// memCatalogName keys the catalog among tables; table names always carry
// a dot and an ordinal, so it can't collide.
const memCatalogName = "_catalog"

// memStorage keeps committed data as an immutable snapshot shared by all
// readers. A writer (one at a time) copies each table on first write and
// publishes the new snapshot on commit.
type memStorage struct {
	writeMu sync.Mutex

	mu     sync.Mutex
	snap   map[string]*memTable
	closed bool
}

// newMemStorage returns a transient in-memory storage.
func newMemStorage() storage {
	return &memStorage{snap: make(map[string]*memTable)}
}

func (s *memStorage) BeginTx(writable bool) (storageTx, error) {
	if writable {
		s.writeMu.Lock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		if writable {
			s.writeMu.Unlock()
		}
		return nil, errStorageClosed
	}
	tx := &memTx{s: s, writable: writable, tables: s.snap}
	if writable {
		tx.tables = make(map[string]*memTable, len(s.snap))
		for name, t := range s.snap {
			tx.tables[name] = t
		}
		tx.dirty = make(map[*memTable]bool)
	}
	return tx, nil
}

func (s *memStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.snap = nil
	return nil
}

type memTx struct {
	s        *memStorage
	writable bool
	done     bool
	tables   map[string]*memTable

	// dirty holds tables owned by this transaction; others are shared
	// with the committed snapshot and are copied before the first write.
	dirty map[*memTable]bool
}

func (tx *memTx) Writable() bool { return tx.writable }

func (tx *memTx) Catalog() storageBucket {
	return tx.Table(memCatalogName)
}

func (tx *memTx) CreateCatalog() (storageBucket, error) {
	return tx.CreateTable(memCatalogName)
}

func (tx *memTx) Table(name string) storageBucket {
	if tx.tables[name] == nil {
		return nil
	}
	return memBucket{tx: tx, name: name}
}

func (tx *memTx) CreateTable(name string) (storageBucket, error) {
	if !tx.writable {
		return nil, ErrReadOnly
	}
	if tx.tables[name] == nil {
		t := &memTable{}
		tx.tables[name] = t
		tx.dirty[t] = true
	}
	return memBucket{tx: tx, name: name}, nil
}

func (tx *memTx) DropTable(name string) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if tx.tables[name] == nil {
		return errTableNotFound
	}
	delete(tx.tables, name)
	return nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return nil
	}
	if !tx.writable {
		return ErrReadOnly
	}
	tx.done = true
	defer tx.s.writeMu.Unlock()

	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if tx.s.closed {
		return errStorageClosed
	}
	tx.s.snap = tx.tables
	return nil
}

func (tx *memTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	if tx.writable {
		tx.s.writeMu.Unlock()
	}
	return nil
}

func (tx *memTx) Size() int64 {
	var n int64
	for _, t := range tx.tables {
		n += t.inuse()
	}
	return n
}

// mutable returns a table this transaction may modify in place.
func (tx *memTx) mutable(name string) (*memTable, error) {
	if !tx.writable {
		return nil, ErrReadOnly
	}
	t := tx.tables[name]
	if t == nil {
		return nil, errTableNotFound
	}
	if !tx.dirty[t] {
		t = &memTable{items: slices.Clone(t.items)}
		tx.tables[name] = t
		tx.dirty[t] = true
	}
	return t, nil
}

// memTable is a sorted list of pairs. Pairs are never modified after
// insertion, so copies of a table can share them.
type memTable struct {
	items []memPair
}

type memPair struct {
	key, value []byte
}

func (t *memTable) search(key []byte) (int, bool) {
	i := sort.Search(len(t.items), func(i int) bool {
		return bytes.Compare(t.items[i].key, key) >= 0
	})
	return i, i < len(t.items) && bytes.Equal(t.items[i].key, key)
}

// prefixRange returns the index range of keys starting with prefix.
func (t *memTable) prefixRange(prefix []byte) (int, int) {
	start, _ := t.search(prefix)
	end := start
	for end < len(t.items) && bytes.HasPrefix(t.items[end].key, prefix) {
		end++
	}
	return start, end
}

func (t *memTable) inuse() int64 {
	var n int64
	for _, p := range t.items {
		n += int64(len(p.key) + len(p.value))
	}
	return n
}

// memBucket resolves its table on every call, since a write may replace
// the transaction's copy.
type memBucket struct {
	tx   *memTx
	name string
}

func (b memBucket) table() *memTable {
	if t := b.tx.tables[b.name]; t != nil {
		return t
	}
	return &memTable{}
}

func (b memBucket) Get(key []byte) []byte {
	t := b.table()
	if i, ok := t.search(key); ok {
		return t.items[i].value
	}
	return nil
}

func (b memBucket) Put(key, value []byte) error {
	t, err := b.tx.mutable(b.name)
	if err != nil {
		return err
	}
	p := memPair{key: bytes.Clone(key), value: append([]byte{}, value...)}
	i, ok := t.search(key)
	if ok {
		t.items[i] = p
	} else {
		t.items = slices.Insert(t.items, i, p)
	}
	return nil
}

func (b memBucket) Delete(key []byte) error {
	t, err := b.tx.mutable(b.name)
	if err != nil {
		return err
	}
	if i, ok := t.search(key); ok {
		t.items = slices.Delete(t.items, i, i+1)
	}
	return nil
}

func (b memBucket) Scan(prefix []byte, f func(key, value []byte) bool) {
	t := b.table()
	start, end := t.prefixRange(prefix)
	for _, p := range t.items[start:end] {
		if !f(p.key, p.value) {
			return
		}
	}
}

func (b memBucket) DeletePrefix(prefix []byte) (int, error) {
	t, err := b.tx.mutable(b.name)
	if err != nil {
		return 0, err
	}
	start, end := t.prefixRange(prefix)
	t.items = slices.Delete(t.items, start, end)
	return end - start, nil
}

func (b memBucket) Stats() bucketStats {
	t := b.table()
	n := t.inuse()
	return bucketStats{KeyN: len(t.items), LeafInuse: n, LeafAlloc: n}
}
