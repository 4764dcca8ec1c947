package rowdb

import (
	"bytes"
	"encoding/hex"
	"math"
	"strconv"
	"unsafe"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindSigned
	KindUnsigned
	KindFloat
	KindString
	KindBinary
)

var kindNames = [...]string{
	KindNull:     "null",
	KindSigned:   "signed",
	KindUnsigned: "unsigned",
	KindFloat:    "float",
	KindString:   "string",
	KindBinary:   "binary",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a column value independent of the physical column type. The zero
// Value is null.
//
// String and binary values do not own their bytes. A Value decoded from a
// row is only valid while the row's buffer is.
type Value struct {
	kind Kind
	bits uint64
	data []byte
}

func Null() Value             { return Value{} }
func Int(v int64) Value       { return Value{kind: KindSigned, bits: uint64(v)} }
func Uint(v uint64) Value     { return Value{kind: KindUnsigned, bits: v} }
func Float(v float64) Value   { return Value{kind: KindFloat, bits: math.Float64bits(v)} }
func strBytes(b []byte) Value { return Value{kind: KindString, data: b} }

// Bin makes a binary value referencing data. Later changes to data show
// through the value.
func Bin(data []byte) Value { return Value{kind: KindBinary, data: data} }

// Str makes a string value sharing the memory of s. Its Bytes must not be
// modified.
func Str(s string) Value {
	return Value{kind: KindString, data: unsafe.Slice(unsafe.StringData(s), len(s))}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Int returns the signed payload, or 0 for other kinds.
func (v Value) Int() int64 {
	if v.kind != KindSigned {
		return 0
	}
	return int64(v.bits)
}

// Uint returns the unsigned payload, or 0 for other kinds.
func (v Value) Uint() uint64 {
	if v.kind != KindUnsigned {
		return 0
	}
	return v.bits
}

// Float returns the float payload, or 0 for other kinds.
func (v Value) Float() float64 {
	if v.kind != KindFloat {
		return 0
	}
	return math.Float64frombits(v.bits)
}

// Str returns the string payload without copying, or "" for other kinds.
func (v Value) Str() string {
	if v.kind != KindString || len(v.data) == 0 {
		return ""
	}
	return unsafe.String(&v.data[0], len(v.data))
}

// Bytes returns the string or binary payload without copying. The
// caller must not modify it: it may be the memory of a Go string or of a
// stored row. Use bytes.Clone to get a private copy.
func (v Value) Bytes() []byte {
	if v.kind != KindString && v.kind != KindBinary {
		return nil
	}
	return v.data
}

// Len returns the byte length of a string or binary payload.
func (v Value) Len() int {
	return len(v.Bytes())
}

// Equal compares kinds and payloads. Floats compare by bit pattern, so a NaN
// equals itself and 0 differs from -0.
func (v Value) Equal(another Value) bool {
	if v.kind != another.kind {
		return false
	}
	switch v.kind {
	case KindString, KindBinary:
		return bytes.Equal(v.data, another.data)
	default:
		return v.bits == another.bits
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindSigned:
		return strconv.FormatInt(v.Int(), 10)
	case KindUnsigned:
		return strconv.FormatUint(v.bits, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.Str())
	case KindBinary:
		return "x'" + hex.EncodeToString(v.data) + "'"
	default:
		return v.kind.String()
	}
}
