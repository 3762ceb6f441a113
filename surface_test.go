package remap

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/soypat/remap/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// tilt lifts planar points to the plane through the x axis making angle deg
// with the xy plane, then moves them by h along that plane's normal.
func tilt(deg, h float64, pts ...float64) []float64 {
	s, c := math.Sincos(deg * math.Pi / 180)
	out := make([]float64, 0, len(pts)/2*3)
	for i := 0; i < len(pts); i += 2 {
		x, y := pts[i], pts[i+1]
		out = append(out, x, y*c-h*s, y*s+h*c)
	}
	return out
}

func surfaceMesh(t *testing.T) *mesh.Unstructured {
	square := []float64{0, 0, 1, 0, 1, 1, 0, 1}
	shifted := []float64{0.5, 0, 1.5, 0, 1.5, 1, 0.5, 1}
	var coords []float64
	coords = append(coords, tilt(30, 0, square...)...)
	coords = append(coords, tilt(30, 0, shifted...)...)
	coords = append(coords, tilt(30, 0.1, square...)...)
	coords = append(coords, tilt(40, 0, square...)...)
	return newMesh(t, 2, 3, coords,
		cellDef{mesh.Quad4, []int{0, 1, 2, 3}},
		cellDef{mesh.Quad4, []int{4, 5, 6, 7}},
		// Above the first square.
		cellDef{mesh.Quad4, []int{8, 9, 10, 11}},
		// Hinged on the first square along the x axis.
		cellDef{mesh.Quad4, []int{12, 15, 14, 13}},
	)
}

func TestSurfaceOverlap(t *testing.T) {
	m := surfaceMesh(t)
	for _, algo := range []Intersection2D{Triangulation, Convex, Geometric2D} {
		t.Run(algo.String(), func(t *testing.T) {
			k := kernel(t, 2, 3, func(o *Options) { require.NoError(t, o.SetIntersection2D(algo)) })
			for i := 0; i < m.NumCells(); i++ {
				a, err := k.Measure(mesh.CellOf(m, i))
				require.NoError(t, err)
				assert.InDelta(t, 1, a, 1e-12, "cell %d", i)
			}
			for _, tc := range []struct {
				src, tgt int
				want     float64
			}{
				{0, 0, 1},
				{0, 1, 0.5},
				{1, 0, 0.5},
				{2, 0, 1},
				{3, 0, math.Cos(5 * math.Pi / 180)},
				{0, 3, math.Cos(5 * math.Pi / 180)},
			} {
				v, err := k.Intersect(mesh.CellOf(m, tc.src), mesh.CellOf(m, tc.tgt))
				require.NoError(t, err)
				assert.InDelta(t, tc.want, v, 1e-9, "%d on %d", tc.src, tc.tgt)
			}
		})
	}
}

func TestSurfaceMaxDistance(t *testing.T) {
	m := surfaceMesh(t)
	above, square := mesh.CellOf(m, 2), mesh.CellOf(m, 0)
	for _, tc := range []struct {
		limit float64
		want  float64
	}{
		{-1, 1},
		{0.05, 0},
		{0.2, 1},
	} {
		k := kernel(t, 2, 3, func(o *Options) { require.NoError(t, o.SetMaxDistance3DSurfIntersect(tc.limit)) })
		v, err := k.Intersect(above, square)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, v, 1e-9, "limit %g", tc.limit)
	}
}

func TestSurfaceMedianPlane(t *testing.T) {
	m := surfaceMesh(t)
	hinged, square := mesh.CellOf(m, 3), mesh.CellOf(m, 0)
	// Both squares hinge on the x axis, so on the median plane they keep their
	// x side and their other side shrinks by the cosine of their angle to it.
	normal := func(deg float64) (y, z float64) {
		s, c := math.Sincos(deg * math.Pi / 180)
		return -s, c
	}
	ty, tz := normal(30)
	sy, sz := normal(40)
	for _, median := range []float64{0, 0.25, 0.5, 1} {
		k := kernel(t, 2, 3, func(o *Options) { require.NoError(t, o.SetMedianPlane(median)) })
		v, err := k.Intersect(hinged, square)
		require.NoError(t, err)
		phi := math.Atan2(-((1-median)*ty+median*sy), (1-median)*tz+median*sz) * 180 / math.Pi
		want := math.Min(math.Cos((phi-30)*math.Pi/180), math.Cos((40-phi)*math.Pi/180))
		assert.InDelta(t, want, v, 1e-9, "median %g", median)
	}
}

func TestSurfaceSelfInterpolation(t *testing.T) {
	g, err := mesh.Grid2D("flat", 2, 2, r2.Vec{}, r2.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	defer g.DecrRef()
	var cells []cellDef
	for i := 0; i < g.NumCells(); i++ {
		c := mesh.CellOf(g, i)
		cells = append(cells, cellDef{c.Type, c.Conn})
	}
	surf := newMesh(t, 2, 3, tilt(30, 0, g.Coords()...), cells...)

	log, _ := test.NewNullLogger()
	r, err := New(surf, DefaultOptions(), WithLogger(log))
	require.NoError(t, err)
	res, err := r.Run(surf)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Matrix.NNZ())
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 0.25, res.TargetMeasures[i], 1e-12)
		assert.InDelta(t, 0.25, res.Matrix.At(i, i), 1e-9, "cell %d", i)
	}
}

func TestSurfaceWeights(t *testing.T) {
	m := surfaceMesh(t)
	k := kernel(t, 2, 3, nil).(weigher)
	square := mesh.CellOf(m, 0)
	f := func(p []float64) float64 { return 1 + p[0] + 2*p[1] - p[2] }

	pt := tilt(30, 0, 0.3, 0.6)
	w, ok, err := k.weights(square, pt)
	require.NoError(t, err)
	require.True(t, ok)
	var got, sum float64
	for _, e := range w {
		got += e.Weight * f(square.Coord(e.Col))
		sum += e.Weight
	}
	assert.InDelta(t, 1, sum, 1e-12)
	assert.InDelta(t, f(pt), got, 1e-9)

	_, ok, err = k.weights(square, tilt(30, 0.5, 0.3, 0.6))
	require.NoError(t, err)
	assert.False(t, ok, "off the plane")
	_, ok, err = k.weights(square, tilt(30, 0, 1.3, 0.6))
	require.NoError(t, err)
	assert.False(t, ok, "outside the square")
}
