package remap

import (
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Entry is a nonzero of a Matrix row.
type Entry struct {
	Col    int
	Weight float64
}

// Matrix is an immutable sparse matrix in compressed row form. In the result
// of a run row i is target cell i and column j is source cell j; the weight
// is the measure of their overlap.
type Matrix struct {
	nrows, ncols int
	rowPtr       []int
	cols         []int
	vals         []float64
}

// newMatrix assembles a matrix from unordered rows with unique columns.
func newMatrix(nrows, ncols int, rows [][]Entry) *Matrix {
	m := &Matrix{nrows: nrows, ncols: ncols, rowPtr: make([]int, nrows+1)}
	nnz := 0
	for _, r := range rows {
		nnz += len(r)
	}
	m.cols = make([]int, 0, nnz)
	m.vals = make([]float64, 0, nnz)
	for i := 0; i < nrows; i++ {
		var r []Entry
		if i < len(rows) {
			r = rows[i]
		}
		sort.Slice(r, func(a, b int) bool { return r[a].Col < r[b].Col })
		for _, e := range r {
			m.cols = append(m.cols, e.Col)
			m.vals = append(m.vals, e.Weight)
		}
		m.rowPtr[i+1] = len(m.cols)
	}
	return m
}

func (m *Matrix) NumRows() int { return m.nrows }
func (m *Matrix) NumCols() int { return m.ncols }

// NNZ returns the number of stored weights.
func (m *Matrix) NNZ() int { return len(m.vals) }

// At returns the weight at row i and column j, zero when not stored.
func (m *Matrix) At(i, j int) float64 {
	cols := m.cols[m.rowPtr[i]:m.rowPtr[i+1]]
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return m.vals[m.rowPtr[i]+k]
	}
	return 0
}

// Row returns a copy of the entries of row i sorted by column.
func (m *Matrix) Row(i int) []Entry {
	lo, hi := m.rowPtr[i], m.rowPtr[i+1]
	row := make([]Entry, hi-lo)
	for k := lo; k < hi; k++ {
		row[k-lo] = Entry{Col: m.cols[k], Weight: m.vals[k]}
	}
	return row
}

// RowSum returns the sum of the weights of row i.
func (m *Matrix) RowSum(i int) float64 {
	return floats.Sum(m.vals[m.rowPtr[i]:m.rowPtr[i+1]])
}

// ColSums returns the sum of the weights of every column.
func (m *Matrix) ColSums() []float64 {
	sums := make([]float64, m.ncols)
	for k, j := range m.cols {
		sums[j] += m.vals[k]
	}
	return sums
}

// Transpose returns the matrix with rows and columns swapped.
func (m *Matrix) Transpose() *Matrix {
	rows := make([][]Entry, m.ncols)
	for i := 0; i < m.nrows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.cols[k]
			rows[j] = append(rows[j], Entry{Col: i, Weight: m.vals[k]})
		}
	}
	return newMatrix(m.ncols, m.nrows, rows)
}

// ToSparse converts m to a sparse array indexed by row then column.
func (m *Matrix) ToSparse() *sparse.SparseArray {
	s := sparse.ZerosSparse(m.nrows, m.ncols)
	for i := 0; i < m.nrows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			s.AddVal(m.vals[k], i, m.cols[k])
		}
	}
	return s
}

// ToDense converts m to a dense matrix. It returns nil when m has no rows or
// no columns.
func (m *Matrix) ToDense() *mat.Dense {
	if m.nrows == 0 || m.ncols == 0 {
		return nil
	}
	d := mat.NewDense(m.nrows, m.ncols, nil)
	for i := 0; i < m.nrows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			d.Set(i, m.cols[k], m.vals[k])
		}
	}
	return d
}
