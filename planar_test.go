package remap

import (
	"math"
	"testing"

	"github.com/soypat/remap/mesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSelfIntersectingPolygon(t *testing.T) {
	m := newMesh(t, 2, 2, []float64{0, 0, 1, 1, 1, 0, 0, 1, 2, 0, 3, 1, 3, 0, 2, 1},
		// Edges 0-1 and 2-3 cross at (0.5, 0.5).
		cellDef{mesh.Quad4, []int{0, 1, 2, 3}},
		cellDef{mesh.Quad4, []int{0, 2, 1, 3}},
		cellDef{mesh.Polygon, []int{0, 1, 2, 3}},
		// Another bow tie, disjoint from the others.
		cellDef{mesh.Quad4, []int{4, 5, 6, 7}},
	)
	bowtie, square, crossed, away := mesh.CellOf(m, 0), mesh.CellOf(m, 1), mesh.CellOf(m, 2), mesh.CellOf(m, 3)
	for _, algo := range []Intersection2D{Triangulation, Convex, Geometric2D} {
		t.Run(algo.String(), func(t *testing.T) {
			k := kernel(t, 2, 2, func(o *Options) { require.NoError(t, o.SetIntersection2D(algo)) })
			for _, c := range []mesh.Cell{bowtie, crossed, away} {
				var a float64
				require.NotPanics(t, func() {
					var err error
					a, err = k.Measure(c)
					require.NoError(t, err)
				})
				assert.False(t, math.IsNaN(a) || math.IsInf(a, 0))
				assert.GreaterOrEqual(t, a, 0.0)
			}
			for _, pair := range [][2]mesh.Cell{
				{bowtie, bowtie}, {bowtie, square}, {square, bowtie},
				{crossed, square}, {bowtie, crossed}, {away, bowtie},
			} {
				var v float64
				require.NotPanics(t, func() {
					var err error
					v, err = k.Intersect(pair[0], pair[1])
					require.NoError(t, err)
				})
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
				assert.GreaterOrEqual(t, v, 0.0)
			}
		})
	}
}

func TestPlanarFarFromOrigin(t *testing.T) {
	const off = 1e6 + 0.1
	g, err := mesh.Grid2D("far", 3, 3, r2.Vec{X: off, Y: off}, r2.Vec{X: off + 0.9, Y: off + 0.9})
	require.NoError(t, err)
	defer g.DecrRef()
	for _, algo := range []Intersection2D{Triangulation, Convex, Geometric2D} {
		t.Run(algo.String(), func(t *testing.T) {
			k := kernel(t, 2, 2, func(o *Options) { require.NoError(t, o.SetIntersection2D(algo)) })
			for i := 0; i < g.NumCells(); i++ {
				a, err := k.Measure(mesh.CellOf(g, i))
				require.NoError(t, err)
				assert.InDelta(t, 0.09, a, 1e-9)
				for j := 0; j < g.NumCells(); j++ {
					v, err := k.Intersect(mesh.CellOf(g, i), mesh.CellOf(g, j))
					require.NoError(t, err)
					if i == j {
						assert.InDelta(t, a, v, 1e-12)
					} else {
						assert.Zero(t, v, "%d on %d", i, j)
					}
				}
			}
		})
	}
}
