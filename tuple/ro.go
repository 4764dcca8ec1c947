// Package tuple implements the physical row format: a self-describing
// sequence of typed fields addressed by column number.
//
// Row layout (see enctuple.go for framing):
//
//	row   -> field1 ... fieldN len1 ... lenN-1 N
//	field -> type:8 column:uvarint payload
//
// Payloads of fixed-width numbers are big-endian. Cstr payloads carry a
// trailing NUL. Opaque, nested and array payloads are raw bytes, their size
// is known from the framing.
//
// RO is a read-only view borrowing the row bytes; RW is an owned builder.
package tuple

import (
	"bytes"
	"encoding/binary"
	"math"
	"unsafe"
)

const (
	// MaxCols is the largest column number a field can carry.
	MaxCols = 1023

	// MaxFields bounds the number of fields in a single row.
	MaxFields = 1 << 16
)

// RO is a read-only row. The zero RO is an empty row.
type RO struct {
	raw    []byte
	fields []Field
}

// Load parses row bytes. The returned RO and all fields and values obtained
// from it borrow data; data must not be modified while they are in use.
func Load(data []byte) (RO, error) {
	els, err := splitElements(data)
	if err != nil {
		return RO{}, err
	}
	ro := RO{raw: data}
	if len(els) > 0 {
		ro.fields = make([]Field, len(els))
	}
	for i, el := range els {
		if err := ro.fields[i].parse(el); err != nil {
			return RO{}, dataErrf(data, 0, err, "field %d", i)
		}
	}
	return ro, nil
}

func MustLoad(data []byte) RO {
	ro, err := Load(data)
	if err != nil {
		panic(err)
	}
	return ro
}

func (ro RO) Bytes() []byte { return ro.raw }
func (ro RO) Len() int      { return len(ro.fields) }
func (ro RO) IsEmpty() bool { return len(ro.fields) == 0 }

// Fields returns the row's fields in storage order (by column, then type).
func (ro RO) Fields() []Field { return ro.fields }

// Equal compares encoded bytes.
func (ro RO) Equal(another RO) bool {
	return bytes.Equal(ro.raw, another.raw)
}

// Lookup returns the field with the given column number and type, or nil.
func (ro RO) Lookup(col uint, typ Type) *Field {
	for i := range ro.fields {
		f := &ro.fields[i]
		if uint(f.col) == col && f.typ == typ {
			return f
		}
	}
	return nil
}

// Field is a view of a single field. Accessors assume the field's type;
// Load has already checked payload sizes.
type Field struct {
	col     uint16
	typ     Type
	payload []byte
}

func (f *Field) parse(el []byte) error {
	if len(el) < 2 {
		return errTruncated
	}
	f.typ = Type(el[0])
	if !f.typ.IsValid() {
		return ErrBadType
	}
	col, n := binary.Uvarint(el[1:])
	if n <= 0 {
		return errBadVarint
	}
	if col > MaxCols {
		return ErrBadColumn
	}
	f.col = uint16(col)
	f.payload = el[1+n:]

	if size, ok := f.typ.FixedSize(); ok && len(f.payload) != size {
		return ErrBadLength
	}
	if f.typ == Cstr && bytes.IndexByte(f.payload, 0) < 0 {
		return errTruncated
	}
	return nil
}

func (f *Field) Col() uint       { return uint(f.col) }
func (f *Field) Type() Type      { return f.typ }
func (f *Field) Payload() []byte { return f.payload }
func (f *Field) Uint16() uint16  { return binary.BigEndian.Uint16(f.payload) }
func (f *Field) Uint32() uint32  { return binary.BigEndian.Uint32(f.payload) }
func (f *Field) Uint64() uint64  { return binary.BigEndian.Uint64(f.payload) }
func (f *Field) Int32() int32    { return int32(f.Uint32()) }
func (f *Field) Int64() int64    { return int64(f.Uint64()) }
func (f *Field) Fp32() float32   { return math.Float32frombits(f.Uint32()) }
func (f *Field) Fp64() float64   { return math.Float64frombits(f.Uint64()) }
func (f *Field) Fixbin() []byte  { return f.payload }
func (f *Field) Opaque() []byte  { return f.payload }

// Nested parses the payload of a nested tuple field.
func (f *Field) Nested() (RO, error) {
	return Load(f.payload)
}

// Uint returns an unsigned field widened to 64 bits.
func (f *Field) Uint() uint64 {
	switch f.typ {
	case Uint16:
		return uint64(f.Uint16())
	case Uint32:
		return uint64(f.Uint32())
	default:
		return f.Uint64()
	}
}

// CstrBytes returns the string bytes up to the first NUL.
func (f *Field) CstrBytes() []byte {
	return f.payload[:bytes.IndexByte(f.payload, 0)]
}

// Cstr returns the string up to the first NUL without copying.
func (f *Field) Cstr() string {
	b := f.CstrBytes()
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
