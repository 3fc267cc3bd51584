package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueTableEnsureRowIsIdempotent(t *testing.T) {
	table := NewValueTable[string](3)
	assert.False(t, table.Has("s"))

	require.True(t, table.EnsureRow("s"))
	require.NoError(t, table.Set("s", 1, 2.5))

	assert.False(t, table.EnsureRow("s"))
	row, err := table.Row("s")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2.5, 0}, row)
	assert.Equal(t, 1, table.Len())
}

func TestValueTableUnknownState(t *testing.T) {
	table := NewValueTable[string](2)

	_, err := table.Get("missing", 0)
	assert.ErrorIs(t, err, ErrUnknownState)
	_, err = table.Row("missing")
	assert.ErrorIs(t, err, ErrUnknownState)
	assert.ErrorIs(t, table.Set("missing", 0, 1), ErrUnknownState)
}

func TestValueTableColumnOutOfRange(t *testing.T) {
	table := NewValueTable[string](2)
	table.EnsureRow("s")

	_, err := table.Get("s", 2)
	assert.ErrorIs(t, err, ErrColumnOutOfRange)
	assert.ErrorIs(t, table.Set("s", -1, 1), ErrColumnOutOfRange)
}

func TestValueTableRowIsACopy(t *testing.T) {
	table := NewValueTable[int](2)
	table.EnsureRow(7)

	row, err := table.Row(7)
	require.NoError(t, err)
	row[0] = 42

	v, err := table.Get(7, 0)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestValueTableArithmetic(t *testing.T) {
	table := NewValueTable[string](2)
	table.EnsureRow("a")
	require.NoError(t, table.Set("a", 0, 1))
	require.NoError(t, table.Set("a", 1, 2))

	delta := table.ZeroCopy()
	delta.EnsureRow("b")
	require.NoError(t, delta.Set("a", 1, 4))
	require.NoError(t, delta.Set("b", 0, 1))

	table.AddScaled(0.5, delta)
	row, _ := table.Row("a")
	assert.Equal(t, []float64{1, 4}, row)
	row, err := table.Row("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0}, row)

	table.Scale(2)
	row, _ = table.Row("a")
	assert.Equal(t, []float64{2, 8}, row)

	table.Zero()
	assert.Equal(t, 2, table.Len())
	row, _ = table.Row("a")
	assert.Equal(t, []float64{0, 0}, row)
}

func TestValueTableZeroCopyIsShapeOnly(t *testing.T) {
	table := NewValueTable[string](3)
	table.EnsureRow("x")
	table.EnsureRow("y")
	require.NoError(t, table.Set("x", 2, 9))

	zero := table.ZeroCopy()
	assert.ElementsMatch(t, table.States(), zero.States())
	assert.Equal(t, 3, zero.Width())
	row, err := zero.Row("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, row)

	require.NoError(t, zero.Set("x", 0, 1))
	v, _ := table.Get("x", 0)
	assert.Zero(t, v)
}
