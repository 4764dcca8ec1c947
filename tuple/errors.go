package tuple

import (
	"errors"
	"fmt"
)

var (
	ErrNoSpace   = errors.New("tuple: no space left in row")
	ErrBadColumn = errors.New("tuple: column number out of range")
	ErrBadLength = errors.New("tuple: wrong fixed-size payload length")
	ErrBadType   = errors.New("tuple: invalid field type")

	errTruncated = errors.New("truncated")
	errBadVarint = errors.New("invalid varint")
)

// DataError describes malformed row bytes.
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
			return fmt.Sprintf("tuple: %s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("tuple: %s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("tuple: %s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("tuple: %s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}
