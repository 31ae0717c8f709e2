package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnCounts(t *testing.T) {
	col := Column{Name: "c", Kind: KindString, Values: []Value{
		StringValue("x"), NullValue(), StringValue("y"), StringValue("x"), NullValue(),
	}}

	assert.Equal(t, 2, col.NullCount())
	assert.Len(t, col.NonNull(), 3)
	assert.Equal(t, 2, col.UniqueCount())
}

func TestColumnLookup(t *testing.T) {
	tbl := New(
		Column{Name: "a", Kind: KindInt, Values: []Value{IntValue(1)}},
		Column{Name: "b", Kind: KindFloat, Values: []Value{FloatValue(2)}},
	)

	require.NotNil(t, tbl.Column("b"))
	assert.Equal(t, KindFloat, tbl.Column("b").Kind)
	assert.Nil(t, tbl.Column("missing"))
	assert.Equal(t, []string{"a", "b"}, tbl.ColumnNames())
	assert.Equal(t, 1, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
}

func TestColumnLookupIsAddressable(t *testing.T) {
	tbl := New(Column{Name: "a", Kind: KindInt, Values: []Value{IntValue(1)}})

	// Mutations through the returned pointer land in the table.
	tbl.Column("a").Values[0] = IntValue(9)
	assert.Equal(t, int64(9), tbl.Columns[0].Values[0].Int)
}

func TestValidateRaggedTable(t *testing.T) {
	tbl := New(
		Column{Name: "a", Kind: KindInt, Values: []Value{IntValue(1), IntValue(2)}},
		Column{Name: "b", Kind: KindInt, Values: []Value{IntValue(1)}},
	)

	err := tbl.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"b"`)

	assert.NoError(t, New().Validate())
}

func TestDuplicateRowCount(t *testing.T) {
	tbl := New(
		Column{Name: "a", Kind: KindInt, Values: []Value{
			IntValue(1), IntValue(1), IntValue(1), IntValue(2),
		}},
		Column{Name: "b", Kind: KindString, Values: []Value{
			StringValue("x"), StringValue("x"), StringValue("y"), StringValue("x"),
		}},
	)

	// Rows 0 and 1 are identical; rows 2 and 3 differ in one cell each.
	assert.Equal(t, 1, tbl.DuplicateRowCount())
}

func TestDuplicateRowCountNullsMatchNulls(t *testing.T) {
	tbl := New(Column{Name: "a", Kind: KindString, Values: []Value{
		NullValue(), NullValue(), StringValue("~null"),
	}})

	// Two null rows repeat each other; the literal "~null" string does
	// not collide with them.
	assert.Equal(t, 1, tbl.DuplicateRowCount())
}

func TestValueFloat64(t *testing.T) {
	assert.Equal(t, 7.0, IntValue(7).Float64(KindInt))
	assert.Equal(t, 2.5, FloatValue(2.5).Float64(KindFloat))
}

func TestKindIsNumeric(t *testing.T) {
	assert.True(t, KindInt.IsNumeric())
	assert.True(t, KindFloat.IsNumeric())
	assert.False(t, KindBool.IsNumeric())
	assert.False(t, KindString.IsNumeric())
	assert.False(t, KindDatetime.IsNumeric())
}

func TestUniqueCountDatetimeNormalizesZone(t *testing.T) {
	utc := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	plus2 := utc.In(time.FixedZone("plus2", 2*60*60))
	col := Column{Name: "d", Kind: KindDatetime, Values: []Value{
		TimeValue(utc), TimeValue(plus2),
	}}

	assert.Equal(t, 1, col.UniqueCount())
}
