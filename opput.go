package rowdb

import "github.com/andreyvit/rowdb/tuple"

// Put stores row into tbl, deriving the key from the row's primary key
// field. Store conflicts are reported as ErrKeyExist, ErrNotFound,
// ErrMultiVal or ErrBadValSize; see PutOp for when each applies.
func Put(tx *Tx, tbl *TableName, row tuple.RO, op PutOp) error {
	if err := tx.prepareMutation(tbl); err != nil {
		return err
	}
	flags, err := op.flags(tbl.state.Unique)
	if err != nil {
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
	err = rs.put(key, row.Bytes(), flags)
	if tx.isVerboseLoggingEnabled() {
		tx.logMutation("PUT", tbl, key, "op="+op.String(), err)
	}
	return err
}

func Insert(tx *Tx, tbl *TableName, row tuple.RO) error {
	return Put(tx, tbl, row, OpInsert)
}

func Update(tx *Tx, tbl *TableName, row tuple.RO) error {
	return Put(tx, tbl, row, OpUpdate)
}

func Upsert(tx *Tx, tbl *TableName, row tuple.RO) error {
	return Put(tx, tbl, row, OpUpsert)
}
