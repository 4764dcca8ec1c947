package tuple

import "strconv"

// Type is the physical encoding tag of a field. Base tags occupy the low
// 4 bits; Farray marks a repeated form of the base tag.
type Type uint8

const (
	Null Type = iota
	Uint16
	Int32
	Uint32
	Fp32
	Int64
	Uint64
	Fp64
	Bin96
	Bin128
	Bin160
	Bin192
	Bin256
	Cstr
	Opaque
	Nested

	Farray Type = 0x10

	baseMask  = Type(0x0F)
	validMask = baseMask | Farray
)

var typeNames = [...]string{
	Null:   "null",
	Uint16: "uint16",
	Int32:  "int32",
	Uint32: "uint32",
	Fp32:   "fp32",
	Int64:  "int64",
	Uint64: "uint64",
	Fp64:   "fp64",
	Bin96:  "b96",
	Bin128: "b128",
	Bin160: "b160",
	Bin192: "b192",
	Bin256: "b256",
	Cstr:   "cstr",
	Opaque: "opaque",
	Nested: "nested",
}

func (t Type) Base() Type    { return t & baseMask }
func (t Type) IsArray() bool { return t&Farray != 0 }
func (t Type) IsValid() bool { return t&^validMask == 0 }

func (t Type) String() string {
	if !t.IsValid() {
		return "type(" + strconv.Itoa(int(t)) + ")"
	}
	s := typeNames[t.Base()]
	if t.IsArray() {
		return s + "[]"
	}
	return s
}

// FixedSize returns the payload size of fixed-width types.
func (t Type) FixedSize() (int, bool) {
	if t.IsArray() {
		return 0, false
	}
	switch t {
	case Null:
		return 0, true
	case Uint16:
		return 2, true
	case Int32, Uint32, Fp32:
		return 4, true
	case Int64, Uint64, Fp64:
		return 8, true
	case Bin96:
		return 96 / 8, true
	case Bin128:
		return 128 / 8, true
	case Bin160:
		return 160 / 8, true
	case Bin192:
		return 192 / 8, true
	case Bin256:
		return 256 / 8, true
	default:
		return 0, false
	}
}

// IsFixbin returns true for the fixed-size opaque blocks (Bin96..Bin256).
func (t Type) IsFixbin() bool {
	return t >= Bin96 && t <= Bin256
}
