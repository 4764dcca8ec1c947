package rowdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andreyvit/rowdb/tuple"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrTypeMismatch    = errors.New("value type does not match column type")
	ErrValueOutOfRange = errors.New("value out of range for column type")
	ErrLengthMismatch  = errors.New("value length does not match column type")
	ErrNotImplemented  = errors.New("not implemented")
	ErrNoData          = errors.New("no data")
	ErrColumnMissing   = errors.New("primary key column missing from row")
	ErrUnknownName     = errors.New("unknown table or column")
	ErrReadOnly        = errors.New("transaction is read-only")
	ErrTxClosed        = errors.New("transaction is closed")
)

// Store statuses. Mutations return these verbatim so callers can match them
// with errors.Is.
var (
	ErrKeyExist   = errors.New("key already exists")
	ErrNotFound   = errors.New("not found")
	ErrMultiVal   = errors.New("key has multiple values")
	ErrBadValSize = errors.New("value too large")
)

// DataError describes malformed stored bytes.
type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// ColumnError is returned when a value cannot be stored into a column.
// It unwraps to one of the validation sentinels.
type ColumnError struct {
	Column string
	Type   tuple.Type
	Kind   Kind
	Err    error
}

func columnErr(col *ColumnName, v Value, err error) error {
	return &ColumnError{col.String(), col.typ, v.Kind(), err}
}

func (e *ColumnError) Unwrap() error {
	return e.Err
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s (%v): cannot store %v value: %v", e.Column, e.Type, e.Kind, e.Err)
}

type TableError struct {
	Table string
	Key   []byte
	Msg   string
	Err   error
}

func tableErrf(tbl string, key []byte, err error, format string, args ...any) error {
	return &TableError{tbl, key, fmt.Sprintf(format, args...), err}
}

func (e *TableError) Unwrap() error {
	return e.Err
}

func (e *TableError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Table)
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(hexstr(e.Key))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
