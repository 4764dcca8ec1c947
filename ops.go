package rowdb

import (
	"errors"
	"fmt"
)

// Break stops iteration in Each without failing it.
var Break = errors.New("break")

// PutOp selects the conflict policy of Put.
type PutOp int

const (
	// OpInsert adds a row. On a unique table an existing key is an error; on a
	// table with duplicates only an identical row is.
	OpInsert PutOp = iota + 1
	// OpUpdate replaces the single existing row of the key.
	OpUpdate
	// OpUpsert inserts or replaces on a unique table. On a table with
	// duplicates it only inserts into keys that have no rows yet.
	OpUpsert
)

func (op PutOp) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpUpsert:
		return "upsert"
	default:
		return fmt.Sprintf("PutOp(%d)", int(op))
	}
}

func (op PutOp) flags(unique bool) (PutFlags, error) {
	flags := PutNoDupData
	switch op {
	case OpInsert:
		if unique {
			flags |= PutNoOverwrite
		}
	case OpUpdate:
		flags |= PutCurrent
	case OpUpsert:
		if !unique {
			flags |= PutNoOverwrite
		}
	default:
		return 0, ErrInvalidArgument
	}
	return flags, nil
}

func (tx *Tx) isVerboseLoggingEnabled() bool {
	return tx.db.verbose
}

func (tx *Tx) logMutation(verb string, tbl *TableName, key []byte, detail string, err error) {
	result := "ok"
	if err != nil {
		result = err.Error()
	}
	if detail != "" {
		tx.db.logger.Debugf("db: %s %s/%s %s => %s", verb, tbl.name, hexstr(key), detail, result)
	} else {
		tx.db.logger.Debugf("db: %s %s/%s => %s", verb, tbl.name, hexstr(key), result)
	}
}

// prepareMutation binds tbl and checks that tx may write.
func (tx *Tx) prepareMutation(tbl *TableName) error {
	if err := tx.check(); err != nil {
		return err
	}
	if err := tx.RefreshTable(tbl); err != nil {
		return err
	}
	if !tx.IsWritable() {
		return ErrReadOnly
	}
	return nil
}
