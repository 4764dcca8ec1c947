package rowdb

import (
	"bytes"

	"go.etcd.io/bbolt"
)

// Bolt layout: a root catalog bucket and a root "tables" bucket with one
// nested bucket per table.
var (
	boltCatalogBucket = []byte("_catalog")
	boltTablesBucket  = []byte("tables")
)

type boltStorage struct {
	bdb *bbolt.DB
}

func newBoltStorage(bdb *bbolt.DB) storage {
	return &boltStorage{bdb: bdb}
}

func (s *boltStorage) BeginTx(writable bool) (storageTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return boltTx{btx}, nil
}

func (s *boltStorage) Close() error {
	return s.bdb.Close()
}

type boltTx struct {
	btx *bbolt.Tx
}

func (tx boltTx) Writable() bool { return tx.btx.Writable() }
func (tx boltTx) Commit() error  { return tx.btx.Commit() }
func (tx boltTx) Size() int64    { return tx.btx.Size() }

func (tx boltTx) Rollback() error {
	if err := tx.btx.Rollback(); err != bbolt.ErrTxClosed {
		return err
	}
	return nil
}

func (tx boltTx) Catalog() storageBucket {
	return wrapBolt(tx.btx.Bucket(boltCatalogBucket))
}

func (tx boltTx) CreateCatalog() (storageBucket, error) {
	b, err := tx.btx.CreateBucketIfNotExists(boltCatalogBucket)
	if err != nil {
		return nil, err
	}
	return boltBucket{b}, nil
}

func (tx boltTx) Table(name string) storageBucket {
	root := tx.btx.Bucket(boltTablesBucket)
	if root == nil {
		return nil
	}
	return wrapBolt(root.Bucket([]byte(name)))
}

func (tx boltTx) CreateTable(name string) (storageBucket, error) {
	root, err := tx.btx.CreateBucketIfNotExists(boltTablesBucket)
	if err != nil {
		return nil, err
	}
	b, err := root.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, err
	}
	return boltBucket{b}, nil
}

func (tx boltTx) DropTable(name string) error {
	root := tx.btx.Bucket(boltTablesBucket)
	if root == nil {
		return errTableNotFound
	}
	err := root.DeleteBucket([]byte(name))
	if err == bbolt.ErrBucketNotFound {
		return errTableNotFound
	}
	return err
}

type boltBucket struct {
	b *bbolt.Bucket
}

func wrapBolt(b *bbolt.Bucket) storageBucket {
	if b == nil {
		return nil
	}
	return boltBucket{b}
}

func (b boltBucket) Get(key []byte) []byte       { return b.b.Get(key) }
func (b boltBucket) Put(key, value []byte) error { return b.b.Put(key, value) }
func (b boltBucket) Delete(key []byte) error     { return b.b.Delete(key) }

func (b boltBucket) Scan(prefix []byte, f func(key, value []byte) bool) {
	c := b.b.Cursor()
	k, v := c.First()
	if len(prefix) > 0 {
		k, v = c.Seek(prefix)
	}
	for ; k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if !f(k, v) {
			return
		}
	}
}

// DeletePrefix seeks again after every delete; bbolt cursors skip an
// element when Next follows Delete.
func (b boltBucket) DeletePrefix(prefix []byte) (int, error) {
	var n int
	c := b.b.Cursor()
	for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
		if err := c.Delete(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (b boltBucket) Stats() bucketStats {
	s := b.b.Stats()
	return bucketStats{
		KeyN:        s.KeyN,
		LeafInuse:   int64(s.LeafInuse),
		InlineInuse: int64(s.InlineBucketInuse),
		LeafAlloc:   int64(s.LeafAlloc),
		BranchAlloc: int64(s.BranchAlloc),
	}
}
