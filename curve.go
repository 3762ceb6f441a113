package remap

import (
	"math"

	"github.com/soypat/remap/internal/d2"
	"github.com/soypat/remap/mesh"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// curveKernel intersects 1D cells. Segments closer than the tolerance are
// projected on a median line between them and their projections overlapped.
type curveKernel struct {
	opts     Options
	spaceDim int
}

func (k *curveKernel) MeshDim() int { return 1 }

// tolerance is the distance under which segments overlap. It never goes
// below precision so that collinear segments survive rounding.
func (k *curveKernel) tolerance() float64 {
	return math.Max(k.opts.BoundingBoxAdjustmentAbs(), k.opts.Precision())
}

func (k *curveKernel) Measure(c mesh.Cell) (float64, error) {
	segs, err := c.Segments()
	if err != nil {
		return 0, err
	}
	var l float64
	for _, s := range segs {
		l += dist(c.Coord(s[0]), c.Coord(s[1]))
	}
	return l, nil
}

func dist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func (k *curveKernel) Intersect(src, tgt mesh.Cell) (float64, error) {
	ss, err := src.Segments()
	if err != nil {
		return 0, err
	}
	ts, err := tgt.Segments()
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, s := range ss {
		for _, t := range ts {
			sum += k.segmentOverlap(src.Coord(s[0]), src.Coord(s[1]), tgt.Coord(t[0]), tgt.Coord(t[1]))
		}
	}
	return sum, nil
}

func (k *curveKernel) segmentOverlap(s0, s1, t0, t1 []float64) float64 {
	switch k.spaceDim {
	case 1:
		return intervalOverlap(s0[0], s1[0], t0[0], t1[0])
	case 2:
		return k.planarOverlap(
			r2.Vec{X: s0[0], Y: s0[1]}, r2.Vec{X: s1[0], Y: s1[1]},
			r2.Vec{X: t0[0], Y: t0[1]}, r2.Vec{X: t1[0], Y: t1[1]},
		)
	}
	vs0 := r3.Vec{X: s0[0], Y: s0[1], Z: s0[2]}
	vs1 := r3.Vec{X: s1[0], Y: s1[1], Z: s1[2]}
	vt0 := r3.Vec{X: t0[0], Y: t0[1], Z: t0[2]}
	vt1 := r3.Vec{X: t1[0], Y: t1[1], Z: t1[2]}
	p0, p1, tlen, off := k.toTargetPlane(vs0, vs1, vt0, vt1)
	if off > k.tolerance() {
		return 0
	}
	return k.planarOverlap(p0, p1, r2.Vec{}, r2.Vec{X: tlen})
}

func intervalOverlap(a0, a1, b0, b1 float64) float64 {
	lo := math.Max(math.Min(a0, a1), math.Min(b0, b1))
	hi := math.Min(math.Max(a0, a1), math.Max(b0, b1))
	return math.Max(0, hi-lo)
}

// planarOverlap pulls the source end points lying farther than the tolerance
// from the target line back within it, then projects both segments on the
// median direction positioned by MedianPlane and overlaps the projections.
func (k *curveKernel) planarOverlap(s0, s1, t0, t1 r2.Vec) float64 {
	tol, prec := k.tolerance(), k.opts.Precision()
	t01 := r2.Sub(t1, t0)
	tSize := r2.Norm(t01)
	if tSize < prec {
		return 0
	}
	t01 = r2.Scale(1/tSize, t01)

	// signed distances of the source ends to the target line
	n0 := d2.Cross(r2.Sub(s0, t0), t01)
	n1 := d2.Cross(r2.Sub(s1, t0), t01)
	out0, out1 := math.Abs(n0) > tol, math.Abs(n1) > tol
	if n0*n1 > 0 && (out0 || out1) {
		return 0
	}
	S0, S1 := s0, s1
	if out0 {
		r := (n0 - math.Copysign(tol, n0)) / (n0 - n1)
		S0 = r2.Add(r2.Scale(1-r, s0), r2.Scale(r, s1))
	}
	if out1 {
		r := (n1 - math.Copysign(tol, n1)) / (n1 - n0)
		S1 = r2.Add(r2.Scale(1-r, s1), r2.Scale(r, s0))
	}

	s01 := r2.Sub(S1, S0)
	sSize := r2.Norm(s01)
	if sSize < prec {
		return 0
	}
	s01 = r2.Scale(1/sSize, s01)
	if r2.Dot(t01, s01) < 0 {
		s01 = r2.Scale(-1, s01)
	}
	m := k.opts.MedianPlane()
	median := r2.Add(r2.Scale(1-m, t01), r2.Scale(m, s01))
	mSize := r2.Norm(median)
	if mSize < math.SmallestNonzeroFloat64 {
		return 0
	}
	median = r2.Scale(1/mSize, median)
	return intervalOverlap(r2.Dot(S0, median), r2.Dot(S1, median), r2.Dot(t0, median), r2.Dot(t1, median))
}

// toTargetPlane expresses the source segment in a 2D frame where the target
// segment runs from the origin along x. off is the distance of the source
// from that plane.
func (k *curveKernel) toTargetPlane(s0, s1, t0, t1 r3.Vec) (p0, p1 r2.Vec, tlen, off float64) {
	s01, t01 := r3.Sub(s1, s0), r3.Sub(t1, t0)
	tlen = r3.Norm(t01)
	sLen := r3.Norm(s01)
	t0s0, t0s1 := r3.Sub(s0, t0), r3.Sub(s1, t0)
	if tlen == 0 || sLen == 0 {
		return p0, p1, tlen, math.Inf(1)
	}
	u := r3.Scale(1/tlen, t01)
	cross := r3.Cross(s01, t01)
	if r3.Norm(cross)/(sLen*tlen) < k.tolerance() {
		// Parallel: any plane holding the target line works, choose the one
		// through s0.
		perp := r3.Sub(t0s0, r3.Scale(r3.Dot(t0s0, u), u))
		if r3.Norm(perp) == 0 {
			perp = r3.Sub(t0s1, r3.Scale(r3.Dot(t0s1, u), u))
		}
		var v r3.Vec
		if r3.Norm(perp) > 0 {
			v = r3.Unit(perp)
		}
		p0 = r2.Vec{X: r3.Dot(t0s0, u), Y: r3.Dot(t0s0, v)}
		p1 = r2.Vec{X: r3.Dot(t0s1, u), Y: r3.Dot(t0s1, v)}
		return p0, p1, tlen, 0
	}
	w := r3.Unit(cross)
	v := r3.Cross(w, u)
	off = r3.Dot(t0s0, w)
	in0 := r3.Sub(t0s0, r3.Scale(off, w))
	in1 := r3.Sub(t0s1, r3.Scale(off, w))
	p0 = r2.Vec{X: r3.Dot(in0, u), Y: r3.Dot(in0, v)}
	p1 = r2.Vec{X: r3.Dot(in1, u), Y: r3.Dot(in1, v)}
	return p0, p1, tlen, math.Abs(off)
}
