package tuple

import (
	"encoding/binary"
	"math"
	"slices"
)

// RW builds a row. Fields are kept unique per (column, type); an upsert with
// an existing (column, type) pair replaces the payload in place. Payloads
// are copied, so callers may reuse their buffers after an upsert returns.
//
// Take encodes fields in column order, so two builders holding the same
// fields produce identical bytes regardless of upsert order.
type RW struct {
	fields    []rwField
	size      int
	maxFields int
	maxBytes  int
}

type rwField struct {
	col     uint16
	typ     Type
	payload []byte
}

func (f *rwField) elementLen() int {
	return 1 + uvarintLen(uint64(f.col)) + len(f.payload)
}

// NewRW returns an unbounded builder.
func NewRW() *RW {
	return &RW{}
}

// NewRWLimited returns a builder that fails upserts with ErrNoSpace once
// they would exceed maxFields fields or maxBytes bytes of field data.
// Zero means no limit.
func NewRWLimited(maxFields, maxBytes int) *RW {
	return &RW{maxFields: maxFields, maxBytes: maxBytes}
}

// FetchRW makes a builder pre-filled with the fields of ro.
func FetchRW(ro RO) *RW {
	rw := NewRW()
	for i := range ro.fields {
		f := &ro.fields[i]
		rw.fields = append(rw.fields, rwField{f.col, f.typ, slices.Clone(f.payload)})
	}
	for i := range rw.fields {
		rw.size += rw.fields[i].elementLen()
	}
	return rw
}

// Len returns the number of fields.
func (rw *RW) Len() int {
	return len(rw.fields)
}

// Size returns the number of bytes of encoded field data, excluding framing.
func (rw *RW) Size() int {
	return rw.size
}

// Reset removes all fields, keeping the limits.
func (rw *RW) Reset() {
	clear(rw.fields)
	rw.fields = rw.fields[:0]
	rw.size = 0
}

func (rw *RW) find(col uint, typ Type) int {
	for i := range rw.fields {
		if uint(rw.fields[i].col) == col && rw.fields[i].typ == typ {
			return i
		}
	}
	return -1
}

// Has reports whether a field with the given column and type is present.
func (rw *RW) Has(col uint, typ Type) bool {
	return rw.find(col, typ) >= 0
}

// Erase removes the field with the given column and type, returning false
// if there was none.
func (rw *RW) Erase(col uint, typ Type) bool {
	i := rw.find(col, typ)
	if i < 0 {
		return false
	}
	rw.size -= rw.fields[i].elementLen()
	rw.fields = slices.Delete(rw.fields, i, i+1)
	return true
}

func (rw *RW) upsert(col uint, typ Type, payload []byte) error {
	if col > MaxCols {
		return ErrBadColumn
	}
	if !typ.IsValid() {
		return ErrBadType
	}
	nf := rwField{uint16(col), typ, payload}
	i := rw.find(col, typ)

	newSize, newCount := rw.size+nf.elementLen(), len(rw.fields)+1
	if i >= 0 {
		newSize -= rw.fields[i].elementLen()
		newCount--
	}
	if rw.maxFields > 0 && newCount > rw.maxFields {
		return ErrNoSpace
	}
	if (rw.maxBytes > 0 && newSize > rw.maxBytes) || newCount > MaxFields {
		return ErrNoSpace
	}

	nf.payload = slices.Clone(payload)
	if nf.payload == nil {
		nf.payload = []byte{}
	}
	if i >= 0 {
		rw.fields[i] = nf
	} else {
		rw.fields = append(rw.fields, nf)
	}
	rw.size = newSize
	return nil
}

func (rw *RW) UpsertUint16(col uint, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return rw.upsert(col, Uint16, b[:])
}

func (rw *RW) UpsertUint32(col uint, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return rw.upsert(col, Uint32, b[:])
}

func (rw *RW) UpsertInt32(col uint, v int32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return rw.upsert(col, Int32, b[:])
}

func (rw *RW) UpsertUint64(col uint, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return rw.upsert(col, Uint64, b[:])
}

func (rw *RW) UpsertInt64(col uint, v int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return rw.upsert(col, Int64, b[:])
}

func (rw *RW) UpsertFp32(col uint, v float32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(v))
	return rw.upsert(col, Fp32, b[:])
}

func (rw *RW) UpsertFp64(col uint, v float64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	return rw.upsert(col, Fp64, b[:])
}

func (rw *RW) upsertFixbin(col uint, typ Type, data []byte) error {
	if size, _ := typ.FixedSize(); len(data) != size {
		return ErrBadLength
	}
	return rw.upsert(col, typ, data)
}

func (rw *RW) Upsert96(col uint, data []byte) error  { return rw.upsertFixbin(col, Bin96, data) }
func (rw *RW) Upsert128(col uint, data []byte) error { return rw.upsertFixbin(col, Bin128, data) }
func (rw *RW) Upsert160(col uint, data []byte) error { return rw.upsertFixbin(col, Bin160, data) }
func (rw *RW) Upsert192(col uint, data []byte) error { return rw.upsertFixbin(col, Bin192, data) }
func (rw *RW) Upsert256(col uint, data []byte) error { return rw.upsertFixbin(col, Bin256, data) }

// UpsertString stores s followed by a NUL terminator. Bytes after an
// embedded NUL are stored but invisible to readers.
func (rw *RW) UpsertString(col uint, s string) error {
	payload := make([]byte, len(s)+1)
	copy(payload, s)
	return rw.upsert(col, Cstr, payload)
}

func (rw *RW) UpsertOpaque(col uint, data []byte) error {
	return rw.upsert(col, Opaque, data)
}

// UpsertNested stores another row as a field.
func (rw *RW) UpsertNested(col uint, ro RO) error {
	return rw.upsert(col, Nested, ro.raw)
}

// UpsertNestedBytes stores encoded row bytes as a nested field without
// validating them; Field.Nested reports malformed payloads.
func (rw *RW) UpsertNestedBytes(col uint, data []byte) error {
	return rw.upsert(col, Nested, data)
}

// UpsertArray stores an already encoded array of elem values. The payload
// is not interpreted by this package.
func (rw *RW) UpsertArray(col uint, elem Type, payload []byte) error {
	if elem.IsArray() || elem == Null {
		return ErrBadType
	}
	return rw.upsert(col, elem|Farray, payload)
}

// Lookup returns a view of a field currently held by the builder. The view
// is invalidated by the next mutation of the same field.
func (rw *RW) Lookup(col uint, typ Type) *Field {
	i := rw.find(col, typ)
	if i < 0 {
		return nil
	}
	f := rw.fields[i]
	return &Field{f.col, f.typ, f.payload}
}

// Take encodes the current fields into a new row. The builder remains
// usable and shares nothing with the result.
func (rw *RW) Take() RO {
	return MustLoad(rw.AppendTo(nil))
}

// AppendTo appends the encoded row to buf.
func (rw *RW) AppendTo(buf []byte) []byte {
	order := make([]int, len(rw.fields))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		fa, fb := &rw.fields[a], &rw.fields[b]
		if fa.col != fb.col {
			return int(fa.col) - int(fb.col)
		}
		return int(fa.typ) - int(fb.typ)
	})

	var fe frameEncoder
	buf = ensureCapacity(buf, len(buf)+rw.size+binary.MaxVarintLen32*(len(rw.fields)+1))
	for _, i := range order {
		f := &rw.fields[i]
		start := len(buf)
		buf = append(buf, byte(f.typ))
		buf = appendUvarint(buf, uint64(f.col))
		buf = appendRaw(buf, f.payload)
		fe.add(len(buf) - start)
	}
	return fe.finalize(buf)
}

// EncodedLen returns the exact length AppendTo will add.
func (rw *RW) EncodedLen() int {
	lens := make([]int, len(rw.fields))
	for i := range rw.fields {
		lens[i] = rw.fields[i].elementLen()
	}
	return rw.size + frameOverhead(lens)
}
