package rowdb

import (
	"errors"

	"github.com/andreyvit/rowdb/tuple"
)

// Get returns the row stored under the primary key value pk; for a table
// with duplicates, the first one in row byte order. The row borrows
// storage memory and is valid until tx ends.
func Get(tx *Tx, tbl *TableName, pk Value) (tuple.RO, error) {
	rs, key, err := tx.prepareRead(tbl, pk)
	if err != nil {
		return tuple.RO{}, err
	}
	raw := rs.first(key)
	if raw == nil {
		return tuple.RO{}, ErrNotFound
	}
	row, err := tuple.Load(raw)
	if err != nil {
		return tuple.RO{}, tableErrf(tbl.name, key, err, "corrupt row")
	}
	return row, nil
}

// Count returns the number of rows stored under the primary key value pk.
func Count(tx *Tx, tbl *TableName, pk Value) (int, error) {
	rs, key, err := tx.prepareRead(tbl, pk)
	if err != nil {
		return 0, err
	}
	return rs.count(key), nil
}

// Each calls f for every row of tbl in key order. Returning Break from f
// stops the iteration; other errors are returned.
func Each(tx *Tx, tbl *TableName, f func(row tuple.RO) error) error {
	if err := tx.check(); err != nil {
		return err
	}
	if err := tx.RefreshTable(tbl); err != nil {
		return err
	}
	rs, err := tx.table(tbl)
	if err != nil {
		return err
	}
	var ferr error
	err = rs.each(func(key, raw []byte) bool {
		row, err := tuple.Load(raw)
		if err != nil {
			ferr = tableErrf(tbl.name, key, err, "corrupt row")
			return false
		}
		ferr = f(row)
		return ferr == nil
	})
	if err != nil {
		return tableErrf(tbl.name, nil, err, "corrupt key")
	}
	if errors.Is(ferr, Break) {
		return nil
	}
	return ferr
}

func (tx *Tx) prepareRead(tbl *TableName, pk Value) (rowStore, []byte, error) {
	if err := tx.check(); err != nil {
		return rowStore{}, nil, err
	}
	if err := tx.RefreshTable(tbl); err != nil {
		return rowStore{}, nil, err
	}
	key, err := encodeKeyValue(tbl, pk)
	if err != nil {
		return rowStore{}, nil, err
	}
	rs, err := tx.table(tbl)
	return rs, key, err
}
