package tuple

import (
	"fmt"
	"strings"
)

// String formats the row for debugging, e.g. {0:uint64=42 1:cstr="foo"}.
func (ro RO) String() string {
	var buf strings.Builder
	buf.WriteByte('{')
	for i := range ro.fields {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(ro.fields[i].String())
	}
	buf.WriteByte('}')
	return buf.String()
}

func (f *Field) String() string {
	return fmt.Sprintf("%d:%v=%s", f.col, f.typ, f.valueString())
}

func (f *Field) valueString() string {
	switch f.typ {
	case Uint16, Uint32, Uint64:
		return fmt.Sprint(f.Uint())
	case Int32:
		return fmt.Sprint(f.Int32())
	case Int64:
		return fmt.Sprint(f.Int64())
	case Fp32:
		return fmt.Sprint(f.Fp32())
	case Fp64:
		return fmt.Sprint(f.Fp64())
	case Cstr:
		return fmt.Sprintf("%q", f.Cstr())
	case Nested:
		if ro, err := f.Nested(); err == nil {
			return ro.String()
		}
		return fmt.Sprintf("!%x", f.payload)
	default:
		return fmt.Sprintf("%x", f.payload)
	}
}

// String formats the builder contents the same way RO does.
func (rw *RW) String() string {
	return rw.Take().String()
}
