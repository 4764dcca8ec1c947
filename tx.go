package rowdb

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
)

// Tx is a database transaction. A Tx must be used by a single goroutine.
type Tx struct {
	db      *DB
	stx     storageTx
	cat     *catalog
	buckets map[uint64]rowStore
	closed  bool

	startTime time.Time
	stack     string
}

func (db *DB) newTx(stx storageTx) *Tx {
	tx := &Tx{
		db:        db,
		stx:       stx,
		cat:       db.cat,
		startTime: time.Now(),
	}
	if trackTxns {
		tx.stack = string(debug.Stack())
	}
	if stx.Writable() {
		db.WriterCount.Add(1)
		db.WriteCount.Add(1)
	} else {
		db.ReaderCount.Add(1)
		db.ReadCount.Add(1)
	}
	db.addTx(tx)
	return tx
}

// Begin starts a transaction. The caller must end it with Commit or
// Rollback.
func (db *DB) Begin(writable bool) (*Tx, error) {
	if writable {
		db.PendingWriterCount.Add(1)
		defer db.PendingWriterCount.Add(-1)
	}
	stx, err := db.st.BeginTx(writable)
	if err != nil {
		return nil, errors.Wrap(err, "rowdb: begin")
	}
	return db.newTx(stx), nil
}

func (tx *Tx) DB() *DB            { return tx.db }
func (tx *Tx) Schema() *Schema    { return tx.db.schema }
func (tx *Tx) IsWritable() bool   { return tx.stx.Writable() }
func (tx *Tx) Generation() uint64 { return tx.cat.gen }

// Commit ends the transaction, persisting its changes. Committing a
// read-only transaction just releases it.
func (tx *Tx) Commit() error {
	if tx.closed {
		return nil
	}
	if !tx.stx.Writable() {
		return tx.Rollback()
	}
	size := tx.stx.Size()
	err := tx.stx.Commit()
	tx.close()
	if err != nil {
		return errors.Wrap(err, "rowdb: commit")
	}
	tx.db.lastSize.Store(size)
	return nil
}

// Rollback discards the transaction. It is safe to call after Commit.
func (tx *Tx) Rollback() error {
	if tx.closed {
		return nil
	}
	err := tx.stx.Rollback()
	tx.close()
	return err
}

func (tx *Tx) close() {
	tx.closed = true
	tx.buckets = nil
	if tx.stx.Writable() {
		tx.db.WriterCount.Add(-1)
	} else {
		tx.db.ReaderCount.Add(-1)
	}
	tx.db.removeTx(tx)
}

// Tx runs f in a transaction. A writable transaction is committed if f
// returns nil and rolled back otherwise. Panics in f are returned as
// errors.
func (db *DB) Tx(writable bool, f func(tx *Tx) error) error {
	tx, err := db.Begin(writable)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := safelyCall(f, tx); err != nil {
		return err
	}
	return tx.Commit()
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func(*Tx) error, tx *Tx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func (db *DB) Read(f func(tx *Tx)) {
	tx := must(db.Begin(false))
	defer tx.Rollback()
	f(tx)
}

func (db *DB) Write(f func(tx *Tx)) {
	tx := must(db.Begin(true))
	defer tx.Rollback()
	f(tx)
	ensure(tx.Commit())
}

// check returns the error every operation on a nil or finished tx fails
// with.
func (tx *Tx) check() error {
	if tx == nil {
		return ErrInvalidArgument
	}
	if tx.closed {
		return ErrTxClosed
	}
	return nil
}

// table resolves the row store of a bound table, opening its bucket on
// first use within the transaction.
func (tx *Tx) table(tbl *TableName) (rowStore, error) {
	if tx.closed {
		return rowStore{}, ErrTxClosed
	}
	ord := tbl.state.Ordinal
	if rs, ok := tx.buckets[ord]; ok {
		return rs, nil
	}
	b := tx.stx.Table(tbl.state.bucketName())
	if b == nil {
		return rowStore{}, tableErrf(tbl.name, nil, ErrUnknownName, "missing bucket %s", tbl.state.bucketName())
	}
	rs := rowStore{b: b, unique: tbl.state.Unique}
	if tx.buckets == nil {
		tx.buckets = make(map[uint64]rowStore)
	}
	tx.buckets[ord] = rs
	return rs, nil
}
