package rowdb

import "errors"

var errTableNotFound = errors.New("table storage not found")

// storage is a transactional ordered key-value backend holding one catalog
// bucket and one bucket per table.
type storage interface {
	BeginTx(writable bool) (storageTx, error)
	Close() error
}

type storageTx interface {
	Writable() bool

	// Catalog returns the catalog bucket, or nil if it was never created.
	Catalog() storageBucket

	// CreateCatalog returns the catalog bucket, creating it if needed.
	CreateCatalog() (storageBucket, error)

	// Table returns the bucket holding the rows of a table, or nil.
	Table(name string) storageBucket

	// CreateTable returns the bucket of a table, creating it if needed.
	CreateTable(name string) (storageBucket, error)

	// DropTable deletes a table bucket with all of its rows.
	DropTable(name string) error

	Commit() error

	// Rollback aborts the transaction. It is safe to call multiple times.
	Rollback() error

	// Size returns the database size in bytes (0 if unknown).
	Size() int64
}

// storageBucket is a sorted key-value collection. Slices it returns stay
// valid until the end of the transaction and must not be modified. Keys
// must be non-empty.
type storageBucket interface {
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error

	// Scan calls f for every pair whose key starts with prefix, in key
	// order, until f returns false. An empty prefix visits everything.
	// f must not modify the bucket.
	Scan(prefix []byte, f func(key, value []byte) bool)

	// DeletePrefix removes every pair whose key starts with prefix and
	// returns how many were removed.
	DeletePrefix(prefix []byte) (int, error)

	Stats() bucketStats
}

// bucketStats are backend-reported sizes. Backends that don't track
// allocation report in-use sizes only.
type bucketStats struct {
	KeyN        int
	LeafInuse   int64
	InlineInuse int64
	LeafAlloc   int64
	BranchAlloc int64
}

func (s bucketStats) TotalAlloc() int64 { return s.BranchAlloc + s.LeafAlloc }
