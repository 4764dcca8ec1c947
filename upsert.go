package rowdb

import (
	"math"

	"github.com/andreyvit/rowdb/tuple"
)

// UpsertColumn validates v against the type of col and stores it into rw,
// replacing any previous value of the column. Validation errors are
// *ColumnError values wrapping ErrTypeMismatch, ErrValueOutOfRange,
// ErrLengthMismatch, ErrInvalidArgument or ErrNotImplemented; rw is left
// untouched when validation fails. Builder errors are returned as is.
//
// Like GetColumn, UpsertColumn trusts the binding cached in col. Call
// Tx.RefreshColumn after the catalog may have changed.
func UpsertColumn(rw *tuple.RW, col *ColumnName, v Value) error {
	if rw == nil || !col.isBound() {
		return ErrInvalidArgument
	}
	if err := checkColumnValue(col.typ, v); err != nil {
		return columnErr(col, v, err)
	}
	return storeColumnValue(rw, col.num, col.typ, v)
}

// checkColumnValue applies, in order, the variant, range and length checks
// for storing v into a column of type typ.
func checkColumnValue(typ tuple.Type, v Value) error {
	if typ.IsArray() {
		return ErrNotImplemented
	}
	switch typ {
	case tuple.Null:
		return ErrInvalidArgument

	case tuple.Uint16:
		return checkUnsigned(v, math.MaxUint16)
	case tuple.Uint32:
		return checkUnsigned(v, math.MaxUint32)
	case tuple.Uint64:
		return checkUnsigned(v, math.MaxUint64)

	case tuple.Int32:
		switch v.Kind() {
		case KindUnsigned:
			if v.Uint() > math.MaxInt32 {
				return ErrValueOutOfRange
			}
		case KindSigned:
			if n := v.Int(); n != int64(int32(n)) {
				return ErrValueOutOfRange
			}
		default:
			return ErrTypeMismatch
		}
	case tuple.Int64:
		switch v.Kind() {
		case KindUnsigned:
			if v.Uint() > math.MaxInt64 {
				return ErrValueOutOfRange
			}
		case KindSigned:
		default:
			return ErrTypeMismatch
		}

	case tuple.Fp32:
		if v.Kind() != KindFloat {
			return ErrTypeMismatch
		}
		f := v.Float()
		if math.IsNaN(f) || (math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0)) {
			return ErrValueOutOfRange
		}
	case tuple.Fp64:
		if v.Kind() != KindFloat {
			return ErrTypeMismatch
		}
		if math.IsNaN(v.Float()) {
			return ErrValueOutOfRange
		}

	case tuple.Bin96, tuple.Bin128, tuple.Bin160, tuple.Bin192, tuple.Bin256:
		if v.Kind() != KindBinary {
			return ErrTypeMismatch
		}
		if size, _ := typ.FixedSize(); v.Len() != size {
			return ErrLengthMismatch
		}

	case tuple.Cstr:
		if v.Kind() != KindString {
			return ErrTypeMismatch
		}

	case tuple.Opaque, tuple.Nested:
		if v.Kind() != KindBinary {
			return ErrTypeMismatch
		}

	default:
		return ErrInvalidArgument
	}
	return nil
}

// checkUnsigned admits unsigned values up to max and non-negative signed
// values up to max.
func checkUnsigned(v Value, max uint64) error {
	var u uint64
	switch v.Kind() {
	case KindSigned:
		if v.Int() < 0 {
			return ErrValueOutOfRange
		}
		u = uint64(v.Int())
	case KindUnsigned:
		u = v.Uint()
	default:
		return ErrTypeMismatch
	}
	if u > max {
		return ErrValueOutOfRange
	}
	return nil
}

// storeColumnValue writes an already validated value.
func storeColumnValue(rw *tuple.RW, num uint, typ tuple.Type, v Value) error {
	switch typ {
	case tuple.Uint16:
		return rw.UpsertUint16(num, uint16(v.bits))
	case tuple.Uint32:
		return rw.UpsertUint32(num, uint32(v.bits))
	case tuple.Uint64:
		return rw.UpsertUint64(num, v.bits)
	case tuple.Int32:
		return rw.UpsertInt32(num, int32(v.bits))
	case tuple.Int64:
		return rw.UpsertInt64(num, int64(v.bits))
	case tuple.Fp32:
		return rw.UpsertFp32(num, float32(v.Float()))
	case tuple.Fp64:
		return rw.UpsertFp64(num, v.Float())
	case tuple.Bin96:
		return rw.Upsert96(num, v.data)
	case tuple.Bin128:
		return rw.Upsert128(num, v.data)
	case tuple.Bin160:
		return rw.Upsert160(num, v.data)
	case tuple.Bin192:
		return rw.Upsert192(num, v.data)
	case tuple.Bin256:
		return rw.Upsert256(num, v.data)
	case tuple.Cstr:
		return rw.UpsertString(num, v.Str())
	case tuple.Opaque:
		return rw.UpsertOpaque(num, v.data)
	case tuple.Nested:
		return rw.UpsertNestedBytes(num, v.data)
	default:
		panic("unreachable")
	}
}
