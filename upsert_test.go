package rowdb

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreyvit/rowdb/tuple"
)

var (
	kitchenSchema = NewSchema()
	_             = DefineTable(kitchenSchema, "kitchen", func(b *TableBuilder) {
		b.PrimaryKey("id", tuple.Int64, IndexUnique)
		b.Column("u16", tuple.Uint16)
		b.Column("u32", tuple.Uint32)
		b.Column("u64", tuple.Uint64)
		b.Column("i32", tuple.Int32)
		b.Column("i64", tuple.Int64)
		b.Column("f32", tuple.Fp32)
		b.Column("f64", tuple.Fp64)
		b.Column("b96", tuple.Bin96)
		b.Column("b128", tuple.Bin128)
		b.Column("b160", tuple.Bin160)
		b.Column("b192", tuple.Bin192)
		b.Column("b256", tuple.Bin256)
		b.Column("s", tuple.Cstr)
		b.Column("o", tuple.Opaque)
		b.Column("n", tuple.Nested)
		b.Column("nul", tuple.Null)
		b.Column("arr", tuple.Uint32|tuple.Farray)
	})
	kitchen = NewTableName("kitchen")
)

// kitchenCols binds every kitchen column by name.
func kitchenCols(t testing.TB) map[string]*ColumnName {
	t.Helper()
	db := setupMemory(t, kitchenSchema)
	cols := make(map[string]*ColumnName)
	db.Read(func(tx *Tx) {
		for _, c := range kitchenSchema.TableNamed("kitchen").Columns() {
			col := NewColumnName(kitchen, c.Name())
			bind(t, tx, col)
			cols[c.Name()] = col
		}
	})
	return cols
}

func TestUpsertColumnValidation(t *testing.T) {
	cols := kitchenCols(t)
	tests := []struct {
		col string
		v   Value
		err error
	}{
		{"u16", Int(-1), ErrValueOutOfRange},
		{"u16", Int(70000), ErrValueOutOfRange},
		{"u16", Uint(70000), ErrValueOutOfRange},
		{"u16", Int(42), nil},
		{"u16", Uint(math.MaxUint16), nil},
		{"u16", Float(1), ErrTypeMismatch},
		{"u16", Str("1"), ErrTypeMismatch},
		{"u32", Uint(math.MaxUint32), nil},
		{"u32", Uint(math.MaxUint32 + 1), ErrValueOutOfRange},
		{"u64", Uint(math.MaxUint64), nil},
		{"u64", Int(math.MaxInt64), nil},
		{"u64", Int(math.MinInt64), ErrValueOutOfRange},

		{"i32", Int(math.MaxInt32), nil},
		{"i32", Int(math.MinInt32), nil},
		{"i32", Int(math.MaxInt32 + 1), ErrValueOutOfRange},
		{"i32", Int(math.MinInt32 - 1), ErrValueOutOfRange},
		{"i32", Uint(math.MaxInt32), nil},
		{"i32", Uint(math.MaxInt32 + 1), ErrValueOutOfRange},
		{"i32", Bin(nil), ErrTypeMismatch},
		{"i64", Int(math.MinInt64), nil},
		{"i64", Uint(math.MaxInt64), nil},
		{"i64", Uint(math.MaxInt64 + 1), ErrValueOutOfRange},
		{"i64", Float(0), ErrTypeMismatch},

		{"f32", Float(1.5), nil},
		{"f32", Float(math.NaN()), ErrValueOutOfRange},
		{"f32", Float(math.Inf(1)), nil},
		{"f32", Float(math.Inf(-1)), nil},
		{"f32", Float(math.MaxFloat32), nil},
		{"f32", Float(math.MaxFloat64), ErrValueOutOfRange},
		{"f32", Float(-math.MaxFloat64), ErrValueOutOfRange},
		{"f32", Int(1), ErrTypeMismatch},
		{"f64", Float(math.MaxFloat64), nil},
		{"f64", Float(math.Inf(-1)), nil},
		{"f64", Float(math.NaN()), ErrValueOutOfRange},
		{"f64", Uint(1), ErrTypeMismatch},

		{"b96", Bin(make([]byte, 12)), nil},
		{"b96", Bin(make([]byte, 16)), ErrLengthMismatch},
		{"b96", Bin(nil), ErrLengthMismatch},
		{"b128", Bin(make([]byte, 16)), nil},
		{"b128", Bin(make([]byte, 12)), ErrLengthMismatch},
		{"b160", Bin(make([]byte, 20)), nil},
		{"b160", Bin(make([]byte, 21)), ErrLengthMismatch},
		{"b192", Bin(make([]byte, 24)), nil},
		{"b192", Bin(make([]byte, 23)), ErrLengthMismatch},
		{"b256", Bin(make([]byte, 32)), nil},
		{"b256", Bin(make([]byte, 31)), ErrLengthMismatch},
		{"b256", Str("0123456789abcdef0123456789abcdef"), ErrTypeMismatch},

		{"s", Str("abc"), nil},
		{"s", Str(""), nil},
		{"s", Bin([]byte("abc")), ErrTypeMismatch},
		{"o", Bin([]byte{1, 2, 3}), nil},
		{"o", Bin(nil), nil},
		{"o", Str("abc"), ErrTypeMismatch},
		{"n", Bin(nil), nil},
		{"n", Str("abc"), ErrTypeMismatch},

		{"nul", Null(), ErrInvalidArgument},
		{"nul", Int(1), ErrInvalidArgument},
		{"arr", Bin([]byte{0, 0, 0, 1}), ErrNotImplemented},
		{"arr", Null(), ErrNotImplemented},

		{"u16", Null(), ErrTypeMismatch},
		{"s", Null(), ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.col+"="+tt.v.String(), func(t *testing.T) {
			rw := tuple.NewRW()
			err := UpsertColumn(rw, cols[tt.col], tt.v)
			if tt.err == nil {
				require.NoError(t, err)
				assert.Equal(t, 1, rw.Len())
				return
			}
			require.ErrorIs(t, err, tt.err)
			var cerr *ColumnError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "kitchen."+tt.col, cerr.Column)
			assert.Equal(t, tt.v.Kind(), cerr.Kind)
			assert.Equal(t, 0, rw.Len())
		})
	}
}

func TestUpsertColumnFailureKeepsBuilder(t *testing.T) {
	cols := kitchenCols(t)
	rw := tuple.NewRW()
	require.NoError(t, UpsertColumn(rw, cols["u16"], Uint(7)))
	before := rw.Take()

	assert.ErrorIs(t, UpsertColumn(rw, cols["u16"], Int(-1)), ErrValueOutOfRange)
	assert.ErrorIs(t, UpsertColumn(rw, cols["b96"], Bin([]byte{1})), ErrLengthMismatch)
	assert.True(t, before.Equal(rw.Take()))
}

func TestUpsertColumnInvalidArgs(t *testing.T) {
	cols := kitchenCols(t)
	assert.Equal(t, ErrInvalidArgument, UpsertColumn(nil, cols["u16"], Uint(1)))
	assert.Equal(t, ErrInvalidArgument, UpsertColumn(tuple.NewRW(), nil, Uint(1)))
	unbound := NewColumnName(kitchen, "u16")
	assert.Equal(t, ErrInvalidArgument, UpsertColumn(tuple.NewRW(), unbound, Uint(1)))
}

func TestUpsertColumnRoundTrip(t *testing.T) {
	cols := kitchenCols(t)
	nested := tuple.NewRW()
	require.NoError(t, nested.UpsertString(0, "in"))

	values := map[string]Value{
		"id":   Int(-7),
		"u16":  Int(42),
		"u32":  Uint(70000),
		"u64":  Uint(math.MaxUint64),
		"i32":  Uint(math.MaxInt32),
		"i64":  Int(math.MinInt64),
		"f32":  Float(1.5),
		"f64":  Float(-2.25),
		"b96":  Bin(bytes.Repeat([]byte{1}, 12)),
		"b128": Bin(bytes.Repeat([]byte{2}, 16)),
		"b160": Bin(bytes.Repeat([]byte{3}, 20)),
		"b192": Bin(bytes.Repeat([]byte{4}, 24)),
		"b256": Bin(bytes.Repeat([]byte{5}, 32)),
		"s":    Str("abc"),
		"o":    Bin([]byte{9, 8, 7}),
		"n":    Bin(nested.Take().Bytes()),
	}
	expected := map[string]Value{
		"u16": Uint(42),
		"i32": Int(math.MaxInt32),
	}

	rw := tuple.NewRW()
	for name, v := range values {
		require.NoError(t, UpsertColumn(rw, cols[name], v), name)
	}
	row := must(tuple.Load(rw.Take().Bytes()))
	for name, v := range values {
		if e, ok := expected[name]; ok {
			v = e
		}
		got, err := GetColumn(row, cols[name])
		require.NoError(t, err, name)
		assert.True(t, v.Equal(got), "%s: got %v, wanted %v", name, got, v)
	}

	s := row.Lookup(cols["s"].Num(), tuple.Cstr)
	assert.Equal(t, []byte("abc\x00"), s.Payload())
	assert.Equal(t, 3, FieldValue(s).Len())

	n := row.Lookup(cols["n"].Num(), tuple.Nested)
	assert.Equal(t, `{0:cstr="in"}`, must(n.Nested()).String())
}

func TestUpsertColumnReplaces(t *testing.T) {
	cols := kitchenCols(t)
	rw := tuple.NewRW()
	require.NoError(t, UpsertColumn(rw, cols["s"], Str("first")))
	require.NoError(t, UpsertColumn(rw, cols["s"], Str("second")))
	assert.Equal(t, 1, rw.Len())
	assert.Equal(t, "second", must(GetColumn(rw.Take(), cols["s"])).Str())
}
