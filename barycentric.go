package remap

import (
	"math"
	"slices"

	"github.com/soypat/remap/internal/d2"
	"github.com/soypat/remap/internal/d3"
	"github.com/soypat/remap/mesh"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// locator is implemented by kernels able to tell whether a point lies in a
// cell.
type locator interface {
	contains(c mesh.Cell, pt []float64) (bool, error)
}

// weigher is implemented by kernels able to write a point of a cell as a
// combination of cell nodes that is exact for linear fields. The entries
// are node ids and weights adding up to 1.
type weigher interface {
	weights(c mesh.Cell, pt []float64) ([]Entry, bool, error)
}

var (
	_ locator = (*curveKernel)(nil)
	_ locator = (*planarKernel)(nil)
	_ locator = (*surfaceKernel)(nil)
	_ locator = (*volumeKernel)(nil)
	_ weigher = (*curveKernel)(nil)
	_ weigher = (*planarKernel)(nil)
	_ weigher = (*surfaceKernel)(nil)
	_ weigher = (*volumeKernel)(nil)
)

// triangleBarycentric returns the barycentric coordinates of p in triangle abc.
func triangleBarycentric(p, a, b, c r2.Vec) [3]float64 {
	area := d2.Orient(a, b, c)
	if area == 0 {
		return [3]float64{math.NaN(), math.NaN(), math.NaN()}
	}
	la := d2.Orient(p, b, c) / area
	lb := d2.Orient(a, p, c) / area
	return [3]float64{la, lb, 1 - la - lb}
}

// tetraBarycentric returns the barycentric coordinates of p in tetrahedron abcd.
func tetraBarycentric(p, a, b, c, d r3.Vec) [4]float64 {
	vol := d3.TetVolume(a, b, c, d)
	if vol == 0 {
		return [4]float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	}
	la := d3.TetVolume(p, b, c, d) / vol
	lb := d3.TetVolume(a, p, c, d) / vol
	lc := d3.TetVolume(a, b, p, d) / vol
	return [4]float64{la, lb, lc, 1 - la - lb - lc}
}

func inside(lambda []float64, eps float64) bool {
	for _, l := range lambda {
		if !(l >= -eps) {
			return false
		}
	}
	return true
}

// entries pairs node ids with weights, adding up the weights of repeated ids.
func entries(ids []int, w []float64) []Entry {
	out := make([]Entry, 0, len(ids))
next:
	for i, id := range ids {
		for j := range out {
			if out[j].Col == id {
				out[j].Weight += w[i]
				continue next
			}
		}
		out = append(out, Entry{Col: id, Weight: w[i]})
	}
	return out
}

func (k *curveKernel) contains(c mesh.Cell, pt []float64) (bool, error) {
	_, ok, err := k.weights(c, pt)
	return ok, err
}

// weights interpolates linearly along the first segment of c passing within
// the tolerance of pt.
func (k *curveKernel) weights(c mesh.Cell, pt []float64) ([]Entry, bool, error) {
	segs, err := c.Segments()
	if err != nil {
		return nil, false, err
	}
	tol := k.tolerance()
	for _, s := range segs {
		a, b := c.Coord(s[0]), c.Coord(s[1])
		t := segmentParam(pt, a, b)
		if pointDist(pt, a, b, t) <= tol {
			return entries(s[:], []float64{1 - t, t}), true, nil
		}
	}
	return nil, false, nil
}

// segmentParam returns the position in [0,1] of the point of segment ab
// closest to p.
func segmentParam(p, a, b []float64) float64 {
	var ab2, apab float64
	for i := range p {
		ab := b[i] - a[i]
		ab2 += ab * ab
		apab += (p[i] - a[i]) * ab
	}
	if ab2 == 0 {
		return 0
	}
	return math.Min(1, math.Max(0, apab/ab2))
}

// pointDist returns the distance from p to the point at t along ab.
func pointDist(p, a, b []float64, t float64) float64 {
	var sum float64
	for i := range p {
		d := p[i] - (a[i] + t*(b[i]-a[i]))
		sum += d * d
	}
	return math.Sqrt(sum)
}

// fanWeights locates p in ring s, whose vertices are the nodes ids. Summing
// the signs of the fan triangles holding p gives its winding number around
// the ring; when positive, p lies in a positive triangle and its barycentric
// coordinates there are returned.
func fanWeights(ids []int, s d2.Set, p r2.Vec, eps float64) ([]Entry, bool) {
	orient := 1.0
	if s.SignedArea() < 0 {
		orient = -1
	}
	var winding float64
	var found []Entry
	for i := 1; i+1 < len(s); i++ {
		a, b, c := s[0], s[i], s[i+1]
		o := d2.Orient(a, b, c)
		if o == 0 {
			continue
		}
		l := triangleBarycentric(p, a, b, c)
		if !inside(l[:], eps) {
			continue
		}
		sign := orient
		if o < 0 {
			sign = -sign
		}
		winding += sign
		if found == nil && sign > 0 {
			found = entries([]int{ids[0], ids[i], ids[i+1]}, l[:])
		}
	}
	if winding <= 0 || found == nil {
		return nil, false
	}
	return found, true
}

func (k *planarKernel) contains(c mesh.Cell, pt []float64) (bool, error) {
	_, ok, err := k.weights(c, pt)
	return ok, err
}

func (k *planarKernel) weights(c mesh.Cell, pt []float64) ([]Entry, bool, error) {
	box, err := frame2(c)
	if err != nil {
		return nil, false, err
	}
	ids, err := c.Ring()
	if err != nil {
		return nil, false, err
	}
	o := box.Center()
	p := r2.Vec{X: pt[0] - o.X, Y: pt[1] - o.Y}
	w, ok := fanWeights(ids, ringCoords(c, ids, o), p, k.opts.Precision())
	return w, ok, nil
}

func (k *surfaceKernel) contains(c mesh.Cell, pt []float64) (bool, error) {
	_, ok, err := k.weights(c, pt)
	return ok, err
}

func (k *surfaceKernel) weights(c mesh.Cell, pt []float64) ([]Entry, bool, error) {
	ids, s, p, ok, err := k.inPlane(c, pt)
	if err != nil || !ok {
		return nil, false, err
	}
	w, ok := fanWeights(ids, s, p, k.opts.Precision())
	return w, ok, nil
}

// nodeTet is a tetrahedron of cell nodes with the sign it carries in the
// decomposition of its cell.
type nodeTet struct {
	ids  [4]int
	v    [4]r3.Vec
	sign float64
}

// nodeTets decomposes c, relative to origin, in the cones from its first
// corner to the fan triangles of the faces not holding that corner. Only
// cell nodes are used, unlike split.
func nodeTets(c mesh.Cell, o r3.Vec) ([]nodeTet, error) {
	faces, err := c.Faces()
	if err != nil {
		return nil, err
	}
	apex := c.Corners()[0]
	pa := vec3(c, apex, o)
	var tets []nodeTet
	var total float64
	for _, f := range faces {
		if slices.Contains(f, apex) {
			continue
		}
		for i := 1; i+1 < len(f); i++ {
			t := nodeTet{
				ids: [4]int{apex, f[0], f[i], f[i+1]},
				v:   [4]r3.Vec{pa, vec3(c, f[0], o), vec3(c, f[i], o), vec3(c, f[i+1], o)},
			}
			vol := d3.TetVolume(t.v[0], t.v[1], t.v[2], t.v[3])
			if vol == 0 {
				continue
			}
			t.sign = math.Copysign(1, vol)
			total += vol
			tets = append(tets, t)
		}
	}
	if total < 0 {
		for i := range tets {
			tets[i].sign = -tets[i].sign
		}
	}
	return tets, nil
}

func (k *volumeKernel) contains(c mesh.Cell, pt []float64) (bool, error) {
	_, ok, err := k.weights(c, pt)
	return ok, err
}

func (k *volumeKernel) weights(c mesh.Cell, pt []float64) ([]Entry, bool, error) {
	box, err := frame3(c)
	if err != nil {
		return nil, false, err
	}
	o := box.Center()
	tets, err := nodeTets(c, o)
	if err != nil {
		return nil, false, err
	}
	eps := k.opts.Precision()
	p := r3.Vec{X: pt[0] - o.X, Y: pt[1] - o.Y, Z: pt[2] - o.Z}
	var winding float64
	var found []Entry
	for _, t := range tets {
		l := tetraBarycentric(p, t.v[0], t.v[1], t.v[2], t.v[3])
		if !inside(l[:], eps) {
			continue
		}
		winding += t.sign
		if found == nil && t.sign > 0 {
			found = entries(t.ids[:], l[:])
		}
	}
	if winding <= 0 || found == nil {
		return nil, false, nil
	}
	return found, true, nil
}
