package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	m := newMatrix(2, 3, [][]Entry{
		{{Col: 2, Weight: 1}, {Col: 0, Weight: 2}},
		{{Col: 1, Weight: 3}},
	})
	assert.Equal(t, 2, m.NumRows())
	assert.Equal(t, 3, m.NumCols())
	assert.Equal(t, 3, m.NNZ())
	assert.Equal(t, 2.0, m.At(0, 0))
	assert.Zero(t, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(0, 2))
	assert.Equal(t, []Entry{{Col: 0, Weight: 2}, {Col: 2, Weight: 1}}, m.Row(0))
	assert.Equal(t, 3.0, m.RowSum(0))
	assert.Equal(t, []float64{2, 3, 1}, m.ColSums())

	tr := m.Transpose()
	assert.Equal(t, 3, tr.NumRows())
	assert.Equal(t, 2, tr.NumCols())
	assert.Equal(t, 1.0, tr.At(2, 0))
	assert.Equal(t, 3.0, tr.At(1, 1))
	assert.Equal(t, []float64{3, 3}, tr.ColSums())

	assert.Equal(t, 6.0, m.ToSparse().Sum())

	d := m.ToDense()
	require.NotNil(t, d)
	r, c := d.Dims()
	assert.Equal(t, [2]int{2, 3}, [2]int{r, c})
	assert.Equal(t, 3.0, d.At(1, 1))
	assert.Zero(t, d.At(1, 0))
}

func TestEmptyMatrix(t *testing.T) {
	m := newMatrix(3, 0, nil)
	assert.Zero(t, m.NNZ())
	assert.Zero(t, m.RowSum(2))
	assert.Empty(t, m.Row(1))
	assert.Nil(t, m.ToDense())
	assert.Empty(t, m.ColSums())
}
