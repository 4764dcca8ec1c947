package rowdb

import "github.com/andreyvit/rowdb/tuple"

// FieldValue decodes a field into a Value. A nil field decodes to null.
// Binary and string values borrow the field's payload.
func FieldValue(f *tuple.Field) Value {
	if f == nil {
		return Null()
	}
	switch f.Type() {
	case tuple.Null:
		return Null()
	case tuple.Uint16, tuple.Uint32, tuple.Uint64:
		return Uint(f.Uint())
	case tuple.Int32:
		return Int(int64(f.Int32()))
	case tuple.Int64:
		return Int(f.Int64())
	case tuple.Fp32:
		return Float(float64(f.Fp32()))
	case tuple.Fp64:
		return Float(f.Fp64())
	case tuple.Cstr:
		return strBytes(f.CstrBytes())
	case tuple.Bin96, tuple.Bin128, tuple.Bin160, tuple.Bin192, tuple.Bin256:
		return Bin(f.Fixbin())
	case tuple.Opaque, tuple.Nested:
		return Bin(f.Payload())
	default:
		// arrays
		return Bin(f.Payload())
	}
}

// GetColumn looks up and decodes the value of col in row. The column must
// have been bound with Tx.RefreshColumn; GetColumn uses that cached number
// and type as is and never refreshes them. A missing field yields a null
// value and ErrNoData.
func GetColumn(row tuple.RO, col *ColumnName) (Value, error) {
	if !col.isBound() {
		return Value{}, ErrInvalidArgument
	}
	f := row.Lookup(col.num, col.typ)
	if f == nil {
		return Value{}, ErrNoData
	}
	return FieldValue(f), nil
}
