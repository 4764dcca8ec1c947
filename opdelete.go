package rowdb

import "github.com/andreyvit/rowdb/tuple"

// Delete removes row from tbl. Only a stored row byte-identical to row is
// removed; if the key holds no such row the result is ErrNotFound and
// nothing changes.
func Delete(tx *Tx, tbl *TableName, row tuple.RO) error {
	if err := tx.prepareMutation(tbl); err != nil {
		return err
	}
	key, err := rowToKey(nil, tbl, row)
	if err != nil {
		return err
	}
	rs, err := tx.table(tbl)
	if err != nil {
		return err
	}
	err = rs.del(key, row.Bytes())
	if tx.isVerboseLoggingEnabled() {
		tx.logMutation("DELETE", tbl, key, "", err)
	}
	return err
}

// DeleteByKey removes every row stored under the primary key value pk.
func DeleteByKey(tx *Tx, tbl *TableName, pk Value) error {
	if err := tx.prepareMutation(tbl); err != nil {
		return err
	}
	key, err := encodeKeyValue(tbl, pk)
	if err != nil {
		return err
	}
	rs, err := tx.table(tbl)
	if err != nil {
		return err
	}
	err = rs.del(key, nil)
	if tx.isVerboseLoggingEnabled() {
		tx.logMutation("DELETE", tbl, key, "all", err)
	}
	return err
}
