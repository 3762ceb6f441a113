package bbtree_test

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/soypat/remap/bbtree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitGrid returns n*n unit boxes, box i*n+j covering [i,i+1]x[j,j+1].
func unitGrid(n int) []float64 {
	boxes := make([]float64, 0, 4*n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			boxes = append(boxes, float64(i), float64(i+1), float64(j), float64(j+1))
		}
	}
	return boxes
}

func TestGridQueries(t *testing.T) {
	tree, err := bbtree.New(2, unitGrid(10))
	require.NoError(t, err)
	assert.Equal(t, 100, tree.Len())
	assert.Equal(t, 2, tree.Dim())

	got, err := tree.Query([]float64{20, 21, 20, 21})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = tree.Query([]float64{0.5, 1.5, 0.5, 1.5})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1, 10, 11}, got)

	got, err = tree.Query([]float64{2.1, 3.9, 5.1, 5.9})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{25, 35}, got)

	got, err = tree.QueryPoint([]float64{3, 4})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{23, 24, 33, 34}, got)

	got, err = tree.QueryPoint([]float64{3.5, 4.5})
	require.NoError(t, err)
	assert.Equal(t, []int{34}, got)
}

func TestEmptyTree(t *testing.T) {
	tree, err := bbtree.New(3, nil)
	require.NoError(t, err)
	assert.Zero(t, tree.Len())
	got, err := tree.Query([]float64{-1, 1, -1, 1, -1, 1})
	require.NoError(t, err)
	assert.Empty(t, got)
	got, err = tree.QueryPoint([]float64{0, 0, 0})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIdenticalBoxesCollapse(t *testing.T) {
	var boxes []float64
	for i := 0; i < 50; i++ {
		boxes = append(boxes, 0, 1, 0, 1)
	}
	tree, err := bbtree.New(2, boxes)
	require.NoError(t, err)
	assert.Zero(t, tree.Depth())
	got, err := tree.QueryPoint([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Len(t, got, 50)

	single, err := bbtree.New(2, []float64{0, 1, 0, 1})
	require.NoError(t, err)
	assert.Zero(t, single.Depth())
}

func TestNewErrors(t *testing.T) {
	_, err := bbtree.New(0, nil)
	assert.Error(t, err)
	_, err = bbtree.New(2, []float64{0, 1, 0})
	assert.Error(t, err)
	_, err = bbtree.New(1, []float64{1, 0})
	assert.Error(t, err)
	_, err = bbtree.New(1, []float64{math.NaN(), 0})
	assert.Error(t, err)

	tree, err := bbtree.New(2, unitGrid(2))
	require.NoError(t, err)
	_, err = tree.Query([]float64{0, 1})
	assert.Error(t, err)
	_, err = tree.QueryPoint([]float64{0, 1, 2})
	assert.Error(t, err)
}

func TestBalancedDepthOnSkewedInput(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	const n = 4096
	boxes := make([]float64, 0, 4*n)
	for i := 0; i < n; i++ {
		// exponentially clustered towards the origin
		x := math.Exp(-20 * rng.Float64())
		y := math.Exp(-20 * rng.Float64())
		boxes = append(boxes, x, x+1e-9, y, y+1e-9)
	}
	tree, err := bbtree.New(2, boxes)
	require.NoError(t, err)
	assert.LessOrEqual(t, tree.Depth(), int(math.Ceil(math.Log2(n)))+1)
}

func bruteForce(dim int, boxes, q []float64) []int {
	var out []int
	n := len(boxes) / (2 * dim)
outer:
	for i := 0; i < n; i++ {
		b := boxes[i*2*dim : (i+1)*2*dim]
		for ax := 0; ax < dim; ax++ {
			if !(b[2*ax] <= q[2*ax+1] && q[2*ax] <= b[2*ax+1]) {
				continue outer
			}
		}
		out = append(out, i)
	}
	return out
}

func randomBoxes(rng *rand.Rand, dim, n int, size float64) []float64 {
	boxes := make([]float64, 0, 2*dim*n)
	for i := 0; i < n; i++ {
		for ax := 0; ax < dim; ax++ {
			lo := 10 * rng.Float64()
			boxes = append(boxes, lo, lo+size*rng.Float64())
		}
	}
	return boxes
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for dim := 1; dim <= 3; dim++ {
		for _, n := range []int{1, 7, 9, 100, 1000} {
			boxes := randomBoxes(rng, dim, n, 1.5)
			tree, err := bbtree.New(dim, boxes)
			require.NoError(t, err)
			for k := 0; k < 50; k++ {
				q := randomBoxes(rng, dim, 1, 3)
				got, err := tree.Query(q)
				require.NoError(t, err)
				sort.Ints(got)
				want := bruteForce(dim, boxes, q)
				assert.Equal(t, want, got, "dim=%d n=%d query=%v", dim, n, q)
			}
		}
	}
}

func TestAppendQueryReusesBuffer(t *testing.T) {
	tree, err := bbtree.New(2, unitGrid(4))
	require.NoError(t, err)
	buf := make([]int, 0, 16)
	buf, err = tree.AppendQuery(buf[:0], []float64{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, buf)
	buf, err = tree.AppendQueryPoint(buf, []float64{3.5, 3.5})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 15}, buf)
}

func TestInflate(t *testing.T) {
	boxes := []float64{0, 2, 0, 1, 5, 5, 5, 5}
	bbtree.Inflate(boxes, 2, 0.1, 0.5)
	assert.InDeltaSlice(t, []float64{-0.7, 2.7, -0.7, 1.7, 4.5, 5.5, 4.5, 5.5}, boxes, 1e-12)
}
