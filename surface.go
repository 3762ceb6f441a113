package remap

import (
	"math"

	"github.com/soypat/remap/internal/d2"
	"github.com/soypat/remap/internal/d3"
	"github.com/soypat/remap/mesh"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// surfaceKernel intersects polygonal cells of a surface in 3D space. Both
// cells of a pair are projected on their median plane, placed by MedianPlane
// between the target and the source planes, and overlapped there by the
// planar algorithms.
type surfaceKernel struct {
	opts Options
}

func (k *surfaceKernel) MeshDim() int { return 2 }

// polygon3 returns the boundary of c relative to origin.
func polygon3(c mesh.Cell, origin r3.Vec) ([]int, d3.Set, error) {
	ids, err := c.Ring()
	if err != nil {
		return nil, nil, err
	}
	s := make(d3.Set, len(ids))
	for i, id := range ids {
		s[i] = vec3(c, id, origin)
	}
	return ids, s, nil
}

// project returns the coordinates of s in the plane spanned by u and v.
func project(s d3.Set, u, v r3.Vec) d2.Set {
	out := make(d2.Set, len(s))
	for i, p := range s {
		out[i] = r2.Vec{X: r3.Dot(p, u), Y: r3.Dot(p, v)}
	}
	return out
}

// Measure returns the norm of the vector area of c, its area when planar.
func (k *surfaceKernel) Measure(c mesh.Cell) (float64, error) {
	box, err := frame3(c)
	if err != nil {
		return 0, err
	}
	_, s, err := polygon3(c, box.Center())
	if err != nil {
		return 0, err
	}
	return 0.5 * r3.Norm(s.Newell()), nil
}

func (k *surfaceKernel) Intersect(src, tgt mesh.Cell) (float64, error) {
	box, err := frame3(src, tgt)
	if err != nil {
		return 0, err
	}
	o := box.Center()
	_, s, err := polygon3(src, o)
	if err != nil {
		return 0, err
	}
	_, t, err := polygon3(tgt, o)
	if err != nil {
		return 0, err
	}
	ns, nt := s.Newell(), t.Newell()
	if r3.Norm(ns) == 0 || r3.Norm(nt) == 0 {
		return 0, nil
	}
	ns, nt = r3.Unit(ns), r3.Unit(nt)
	if r3.Dot(ns, nt) < 0 {
		ns = r3.Scale(-1, ns)
	}
	m := k.opts.MedianPlane()
	n := r3.Add(r3.Scale(1-m, nt), r3.Scale(m, ns))
	if r3.Norm(n) == 0 {
		return 0, nil
	}
	n = r3.Unit(n)
	if limit := k.opts.MaxDistance3DSurfIntersect(); limit >= 0 {
		if math.Abs(r3.Dot(r3.Sub(s.Centroid(), t.Centroid()), n)) > limit {
			return 0, nil
		}
	}
	u, v := d3.Basis(n)
	return polygonOverlap(&k.opts, project(s, u, v), project(t, u, v), largest(box.Size())), nil
}

// inPlane projects pt on the plane of c. It reports false when pt is farther
// from the plane than BoundingBoxAdjustmentAbs or rounding.
func (k *surfaceKernel) inPlane(c mesh.Cell, pt []float64) (ids []int, flat d2.Set, p r2.Vec, ok bool, err error) {
	box, err := frame3(c)
	if err != nil {
		return nil, nil, p, false, err
	}
	o := box.Center()
	ids, s, err := polygon3(c, o)
	if err != nil {
		return nil, nil, p, false, err
	}
	n := s.Newell()
	if r3.Norm(n) == 0 {
		return nil, nil, p, false, nil
	}
	n = r3.Unit(n)
	q := r3.Vec{X: pt[0] - o.X, Y: pt[1] - o.Y, Z: pt[2] - o.Z}
	tol := math.Max(k.opts.BoundingBoxAdjustmentAbs(), k.opts.Precision()*largest(box.Size()))
	if math.Abs(r3.Dot(r3.Sub(q, s.Centroid()), n)) > tol {
		return nil, nil, p, false, nil
	}
	u, v := d3.Basis(n)
	return ids, project(s, u, v), r2.Vec{X: r3.Dot(q, u), Y: r3.Dot(q, v)}, true, nil
}
