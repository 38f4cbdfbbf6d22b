package frame

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(t *testing.T) *Table {
	t.Helper()
	tbl := New(2)
	require.NoError(t, tbl.AddNumeric("TransactionID", []float64{2, 3}))
	require.NoError(t, tbl.AddNumeric("id_01", []float64{-5, -10}))
	require.NoError(t, tbl.AddNumeric("shared", []float64{1, 1}))
	return tbl
}

func transactions(t *testing.T) *Table {
	t.Helper()
	tbl := New(3)
	require.NoError(t, tbl.AddNumeric("TransactionID", []float64{1, 2, 3}))
	require.NoError(t, tbl.AddNumeric("amt", []float64{10, 20, 30}))
	require.NoError(t, tbl.AddNumeric("shared", []float64{0, 0, 0}))
	return tbl
}

func TestMerge_Right(t *testing.T) {
	out, err := Merge(identity(t), transactions(t), "TransactionID", Right)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Rows())
	assert.Equal(t, []string{"TransactionID", "id_01", "shared_x", "amt", "shared_y"}, out.Names())

	id, _ := out.Column("TransactionID")
	assert.Equal(t, []float64{1, 2, 3}, id.Num, "keys come from the right side when left is unmatched")

	id01, _ := out.Column("id_01")
	assert.True(t, math.IsNaN(id01.Num[0]))
	assert.Equal(t, -5.0, id01.Num[1])
	assert.Equal(t, -10.0, id01.Num[2])
}

func TestMerge_Inner(t *testing.T) {
	out, err := Merge(identity(t), transactions(t), "TransactionID", Inner)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Rows())
	amt, _ := out.Column("amt")
	assert.Equal(t, []float64{20, 30}, amt.Num)
}

func TestMerge_Left(t *testing.T) {
	out, err := Merge(transactions(t), identity(t), "TransactionID", Left)
	require.NoError(t, err)

	assert.Equal(t, 3, out.Rows())
	id01, _ := out.Column("id_01")
	assert.True(t, math.IsNaN(id01.Num[0]))
}

func TestMerge_MultipleMatches(t *testing.T) {
	left := New(2)
	require.NoError(t, left.AddNumeric("k", []float64{1, 1}))
	require.NoError(t, left.AddNumeric("v", []float64{1, 2}))
	right := New(1)
	require.NoError(t, right.AddNumeric("k", []float64{1}))

	out, err := Merge(left, right, "k", Inner)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows())
}

func TestMerge_UnknownKey(t *testing.T) {
	_, err := Merge(identity(t), transactions(t), "nope", Inner)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestMerge_UnknownJoin(t *testing.T) {
	_, err := Merge(identity(t), transactions(t), "TransactionID", JoinKind("outer"))
	assert.Error(t, err)
}
