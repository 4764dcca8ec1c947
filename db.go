package rowdb

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

const trackTxns = true

type DB struct {
	st      storage
	schema  *Schema
	cat     *catalog
	logger  *logrus.Logger
	verbose bool

	lastSize           atomic.Int64
	ReaderCount        atomic.Int64
	WriterCount        atomic.Int64
	PendingWriterCount atomic.Int64
	ReadCount          atomic.Uint64
	WriteCount         atomic.Uint64

	txns     []*Tx
	txnsLock sync.Mutex
}

// Open opens or creates a bbolt database file and reconciles its catalog
// with schema.
func Open(path string, schema *Schema, opt Options) (*DB, error) {
	bopt := *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}
	if opt.Timeout != 0 {
		bopt.Timeout = opt.Timeout
	}
	if opt.NoSync {
		bopt.NoSync = true
	}

	bdb, err := bbolt.Open(path, 0666, &bopt)
	if err != nil {
		return nil, errors.Wrapf(err, "rowdb: opening %s", path)
	}
	db, err := openStorage(newBoltStorage(bdb), schema, opt)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a transient in-memory database.
func OpenMemory(schema *Schema, opt Options) (*DB, error) {
	return openStorage(newMemStorage(), schema, opt)
}

func openStorage(st storage, schema *Schema, opt Options) (*DB, error) {
	db := &DB{
		st:      st,
		schema:  schema,
		logger:  opt.Logger,
		verbose: opt.Verbose,
	}
	if db.logger == nil {
		db.logger = logrus.StandardLogger()
	}

	stx, err := st.BeginTx(true)
	if err != nil {
		return nil, errors.Wrap(err, "rowdb: begin")
	}
	defer stx.Rollback()
	db.cat, err = reconcileCatalog(stx, schema, db.logger, time.Now())
	if err != nil {
		return nil, err
	}
	db.lastSize.Store(stx.Size())
	if err := stx.Commit(); err != nil {
		return nil, errors.Wrap(err, "rowdb: committing catalog")
	}
	return db, nil
}

func (db *DB) Schema() *Schema {
	return db.schema
}

func (db *DB) Logger() *logrus.Logger {
	return db.logger
}

// Size returns the database size as of the last commit.
func (db *DB) Size() int64 {
	return db.lastSize.Load()
}

func (db *DB) Close() error {
	return errors.Wrap(db.st.Close(), "rowdb: closing")
}

func (db *DB) addTx(tx *Tx) {
	if !trackTxns {
		return
	}
	db.txnsLock.Lock()
	defer db.txnsLock.Unlock()
	db.txns = append(db.txns, tx)
}

func (db *DB) removeTx(tx *Tx) {
	if !trackTxns {
		return
	}
	db.txnsLock.Lock()
	defer db.txnsLock.Unlock()

	found := slices.Index(db.txns, tx)
	if found < 0 {
		panic("tx not found in list")
	}

	n := len(db.txns)
	db.txns[found] = db.txns[n-1]
	db.txns[n-1] = nil // ensure it gets collected
	db.txns = db.txns[:n-1]
}

func (db *DB) DescribeOpenTxns() string {
	if !trackTxns {
		return "OPEN TX TRACKING DISABLED"
	}

	db.txnsLock.Lock()
	txns := slices.Clone(db.txns)
	db.txnsLock.Unlock()

	if len(txns) == 0 {
		return "NO OPEN TRANSACTIONS"
	}

	slices.SortFunc(txns, func(a, b *Tx) int {
		return a.startTime.Compare(b.startTime)
	})

	now := time.Now()

	var buf strings.Builder
	fmt.Fprintf(&buf, "%d OPEN TRANSACTIONS:\n", len(txns))
	for _, tx := range txns {
		ms := now.Sub(tx.startTime).Milliseconds()
		if ms < 100 {
			fmt.Fprintf(&buf, "\n---\nopen for %d ms\n", ms)
		} else {
			fmt.Fprintf(&buf, "\n---\nopen for %d ms:\n%s", ms, tx.stack)
		}
	}

	return buf.String()
}
