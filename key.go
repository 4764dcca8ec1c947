package rowdb

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/andreyvit/rowdb/tuple"
)

// MaxKeySize bounds derived keys. Longer string and binary keys are cut to
// MaxKeySize-8 bytes followed by the xxhash64 of the whole value.
const MaxKeySize = 512

// Key encoding preserves the natural order of values within a column type:
//
//	unsigned  big-endian
//	signed    big-endian with the sign bit flipped
//	float     big-endian IEEE bits, negatives inverted, positives with the sign bit set
//	b96..b256 verbatim
//	cstr      string bytes without the terminator
//	opaque    verbatim
//	nested    verbatim

// rowToKey derives the primary key of row for the bound table tbl.
func rowToKey(buf []byte, tbl *TableName, row tuple.RO) ([]byte, error) {
	f := row.Lookup(0, tbl.pkType)
	if f == nil {
		return nil, ErrColumnMissing
	}
	return appendFieldKey(buf, f)
}

func appendFieldKey(buf []byte, f *tuple.Field) ([]byte, error) {
	switch f.Type() {
	case tuple.Uint16:
		return binary.BigEndian.AppendUint16(buf, f.Uint16()), nil
	case tuple.Uint32:
		return binary.BigEndian.AppendUint32(buf, f.Uint32()), nil
	case tuple.Uint64:
		return binary.BigEndian.AppendUint64(buf, f.Uint64()), nil
	case tuple.Int32:
		return binary.BigEndian.AppendUint32(buf, uint32(f.Int32())^(1<<31)), nil
	case tuple.Int64:
		return binary.BigEndian.AppendUint64(buf, uint64(f.Int64())^(1<<63)), nil
	case tuple.Fp32:
		bits := math.Float32bits(f.Fp32())
		if bits&(1<<31) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 31
		}
		return binary.BigEndian.AppendUint32(buf, bits), nil
	case tuple.Fp64:
		bits := math.Float64bits(f.Fp64())
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		return binary.BigEndian.AppendUint64(buf, bits), nil
	case tuple.Bin96, tuple.Bin128, tuple.Bin160, tuple.Bin192, tuple.Bin256:
		return append(buf, f.Fixbin()...), nil
	case tuple.Cstr:
		return appendLongKey(buf, f.CstrBytes()), nil
	case tuple.Opaque, tuple.Nested:
		return appendLongKey(buf, f.Payload()), nil
	case tuple.Null:
		return nil, ErrInvalidArgument
	default:
		return nil, ErrNotImplemented
	}
}

func appendLongKey(buf []byte, data []byte) []byte {
	if len(data) <= MaxKeySize {
		return append(buf, data...)
	}
	buf = append(buf, data[:MaxKeySize-8]...)
	return binary.BigEndian.AppendUint64(buf, xxhash.Sum64(data))
}

// EncodeKey returns the key a row would get if col held v. The value is
// validated the same way UpsertColumn validates it, against the cached
// binding of col.
func EncodeKey(col *ColumnName, v Value) ([]byte, error) {
	rw := getScratchRW()
	defer releaseScratchRW(rw)
	if err := UpsertColumn(rw, col, v); err != nil {
		return nil, err
	}
	return appendFieldKey(nil, rw.Lookup(col.num, col.typ))
}

// encodeKeyValue derives a primary key from a bare value for the bound
// table tbl.
func encodeKeyValue(tbl *TableName, v Value) ([]byte, error) {
	if err := checkColumnValue(tbl.pkType, v); err != nil {
		return nil, &ColumnError{tbl.pkName(), tbl.pkType, v.Kind(), err}
	}
	rw := getScratchRW()
	defer releaseScratchRW(rw)
	if err := storeColumnValue(rw, 0, tbl.pkType, v); err != nil {
		return nil, err
	}
	return appendFieldKey(nil, rw.Lookup(0, tbl.pkType))
}
