package remap

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/soypat/remap/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// solids places a pyramid, a prism and a unit cube given face by face one
// after the other along x.
func solids(t *testing.T) *mesh.Unstructured {
	return newMesh(t, 3, 3, []float64{
		0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0, 0.5, 0.5, 1,
		2, 0, 0, 3, 0, 0, 2, 1, 0, 2, 0, 1, 3, 0, 1, 2, 1, 1,
		4, 0, 0, 4, 1, 0, 5, 1, 0, 5, 0, 0, 4, 0, 1, 4, 1, 1, 5, 1, 1, 5, 0, 1,
	},
		cellDef{mesh.Pyra5, []int{0, 1, 2, 3, 4}},
		cellDef{mesh.Penta6, []int{5, 6, 7, 8, 9, 10}},
		cellDef{mesh.Polyhed, []int{
			11, 12, 13, 14, -1, 15, 18, 17, 16, -1,
			11, 15, 16, 12, -1, 12, 16, 17, 13, -1,
			13, 17, 18, 14, -1, 14, 18, 15, 11,
		}},
	)
}

func TestSolidCells(t *testing.T) {
	m := solids(t)
	unit, err := mesh.Grid3D("unit", 1, 1, 1, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	defer unit.DecrRef()
	volumes := []float64{1.0 / 3, 0.5, 1}

	for _, policy := range []SplittingPolicy{PlanarFace5, PlanarFace6, General24, General48} {
		t.Run(policy.String(), func(t *testing.T) {
			k := kernel(t, 3, 3, func(o *Options) { require.NoError(t, o.SetSplittingPolicy(policy)) })
			for i, want := range volumes {
				c := mesh.CellOf(m, i)
				v, err := k.Measure(c)
				require.NoError(t, err)
				assert.InDelta(t, want, v, 1e-12, "cell %d", i)
				v, err = k.Intersect(c, c)
				require.NoError(t, err)
				assert.InDelta(t, want, v, 1e-9, "cell %d on itself", i)
			}
			v, err := k.Intersect(mesh.CellOf(m, 0), mesh.CellOf(unit, 0))
			require.NoError(t, err)
			assert.InDelta(t, 1.0/3, v, 1e-9, "pyramid in cube")
			v, err = k.Intersect(mesh.CellOf(m, 0), mesh.CellOf(m, 1))
			require.NoError(t, err)
			assert.Zero(t, v)

			log, _ := test.NewNullLogger()
			r, err := New(m, k.(*volumeKernel).opts, WithLogger(log))
			require.NoError(t, err)
			res, err := r.Run(m)
			require.NoError(t, err)
			assert.Equal(t, len(volumes), res.Matrix.NNZ())
			for i, want := range volumes {
				assert.InDelta(t, want, res.Matrix.At(i, i), 1e-9, "cell %d", i)
				assert.InDelta(t, want, res.TargetMeasures[i], 1e-12)
			}
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestSolidWeights(t *testing.T) {
	m := solids(t)
	k := kernel(t, 3, 3, nil).(weigher)
	f := func(p []float64) float64 { return 1 + p[0] - 2*p[1] + 3*p[2] }
	for _, tc := range []struct {
		cell int
		pt   []float64
		in   bool
	}{
		{0, []float64{0.5, 0.5, 0.5}, true},
		{0, []float64{0.1, 0.1, 0.8}, false},
		{1, []float64{2.2, 0.3, 0.5}, true},
		{1, []float64{2.8, 0.8, 0.5}, false},
		{2, []float64{4.9, 0.1, 0.3}, true},
		{2, []float64{5, 1, 1}, true},
	} {
		c := mesh.CellOf(m, tc.cell)
		w, ok, err := k.weights(c, tc.pt)
		require.NoError(t, err)
		require.Equal(t, tc.in, ok, tc.pt)
		if !ok {
			continue
		}
		var got, sum float64
		for _, e := range w {
			got += e.Weight * f(c.Coord(e.Col))
			sum += e.Weight
		}
		assert.InDelta(t, 1, sum, 1e-12, tc.pt)
		assert.InDelta(t, f(tc.pt), got, 1e-9, tc.pt)
	}
}

func TestVolumeFarFromOrigin(t *testing.T) {
	const off = 1e6 + 0.1
	g, err := mesh.Grid3D("far", 2, 2, 2, r3.Vec{X: off, Y: off, Z: off}, r3.Vec{X: off + 1, Y: off + 1, Z: off + 1})
	require.NoError(t, err)
	defer g.DecrRef()
	k := kernel(t, 3, 3, nil)
	for i := 0; i < g.NumCells(); i++ {
		for j := 0; j < g.NumCells(); j++ {
			v, err := k.Intersect(mesh.CellOf(g, i), mesh.CellOf(g, j))
			require.NoError(t, err)
			if i == j {
				assert.InDelta(t, 0.125, v, 1e-9)
			} else {
				assert.Zero(t, v, "%d on %d", i, j)
			}
		}
	}
}
