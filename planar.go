package remap

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/soypat/remap/internal/d2"
	"github.com/soypat/remap/mesh"
	"gonum.org/v1/gonum/spatial/r2"
)

// planarKernel intersects polygonal cells of a 2D mesh.
type planarKernel struct {
	opts Options
}

func (k *planarKernel) MeshDim() int { return 2 }

// ring returns the boundary of c relative to origin. Quadratic cells are
// linearized through their mid-edge nodes.
func ring(c mesh.Cell, origin r2.Vec) (d2.Set, error) {
	ids, err := c.Ring()
	if err != nil {
		return nil, err
	}
	return ringCoords(c, ids, origin), nil
}

func ringCoords(c mesh.Cell, ids []int, origin r2.Vec) d2.Set {
	s := make(d2.Set, len(ids))
	for i, id := range ids {
		p := c.Coord(id)
		s[i] = r2.Vec{X: p[0] - origin.X, Y: p[1] - origin.Y}
	}
	return s
}

// frame2 returns the box of the nodes of the cells. Kernels work relative to
// its center so that rounding does not grow with the distance to the origin.
func frame2(cells ...mesh.Cell) (d2.Box, error) {
	box := d2.Empty()
	for _, c := range cells {
		if err := c.Check(); err != nil {
			return box, err
		}
		box = box.Extend(d2.FromFlat(c.Bounds()))
	}
	return box, nil
}

func (k *planarKernel) Measure(c mesh.Cell) (float64, error) {
	box, err := frame2(c)
	if err != nil {
		return 0, err
	}
	s, err := ring(c, box.Center())
	if err != nil {
		return 0, err
	}
	return math.Abs(s.SignedArea()), nil
}

func (k *planarKernel) Intersect(src, tgt mesh.Cell) (float64, error) {
	box, err := frame2(src, tgt)
	if err != nil {
		return 0, err
	}
	o := box.Center()
	s, err := ring(src, o)
	if err != nil {
		return 0, err
	}
	t, err := ring(tgt, o)
	if err != nil {
		return 0, err
	}
	size := box.Size()
	return polygonOverlap(&k.opts, s, t, math.Max(size.X, size.Y)), nil
}

// polygonOverlap returns the area shared by rings s and t, which span a box
// of largest side size. Distances below Precision*size are rounding.
func polygonOverlap(opts *Options, s, t d2.Set, size float64) float64 {
	prec := opts.Precision()
	eps := prec * size
	var area float64
	switch opts.Intersection2D() {
	case Convex:
		area = convexOverlap(s, t, eps)
	case Geometric2D:
		if s.SelfIntersects() || t.SelfIntersects() {
			area = triangulatedOverlap(s, t, eps)
		} else {
			area = math.Abs(toGeom(s).Intersection(toGeom(t)).Area())
		}
	default:
		area = triangulatedOverlap(s, t, eps)
	}
	// Cells sharing an edge leave rounding noise.
	floor := prec * math.Min(math.Abs(s.SignedArea()), math.Abs(t.SignedArea()))
	if !(area > math.Max(eps*eps, floor)) {
		return 0
	}
	return area
}

func toGeom(s d2.Set) geom.Polygon {
	path := make(geom.Path, 0, len(s)+1)
	for _, p := range s {
		path = append(path, geom.Point{X: p.X, Y: p.Y})
	}
	// closed ring
	path = append(path, path[0])
	return geom.Polygon{path}
}

// ccw returns a counter clockwise copy of s without repeated vertices.
func ccw(s d2.Set, eps float64) d2.Set {
	out := append(d2.Set(nil), s...).Dedupe(eps)
	if out.SignedArea() < 0 {
		out.Reverse()
	}
	return out
}

// convexOverlap clips the source by the target, which must be convex.
func convexOverlap(s, t d2.Set, eps float64) float64 {
	return math.Max(0, clipConvex(ccw(s, eps), ccw(t, eps), eps).SignedArea())
}

type signedTri struct {
	v    [3]r2.Vec
	sign float64
	box  d2.Box
}

// fan splits a ring in triangles around its first vertex. Summing the
// indicator functions of the triangles weighted by sign gives the indicator
// of the polygon, whatever its convexity or orientation.
func fan(s d2.Set, eps float64) []signedTri {
	s = append(d2.Set(nil), s...).Dedupe(eps)
	orient := 1.0
	if s.SignedArea() < 0 {
		orient = -1
	}
	var tris []signedTri
	for i := 1; i+1 < len(s); i++ {
		a, b, c := s[0], s[i], s[i+1]
		o := d2.Orient(a, b, c)
		if o == 0 {
			continue
		}
		sign := orient
		if o < 0 {
			b, c = c, b
			sign = -sign
		}
		tris = append(tris, signedTri{
			v:    [3]r2.Vec{a, b, c},
			sign: sign,
			box:  d2.BoundsOf([]r2.Vec{a, b, c}),
		})
	}
	return tris
}

func triangulatedOverlap(s, t d2.Set, eps float64) float64 {
	ts, tt := fan(s, eps), fan(t, eps)
	var sum float64
	for _, a := range ts {
		for _, b := range tt {
			if !a.box.Overlaps(b.box, eps) {
				continue
			}
			clipped := clipConvex(a.v[:], b.v[:], eps)
			sum += a.sign * b.sign * math.Max(0, clipped.SignedArea())
		}
	}
	return sum
}

// clipConvex clips subject by the counter clockwise convex polygon clip.
// Points within eps of an edge count as inside.
func clipConvex(subject, clip d2.Set, eps float64) d2.Set {
	out := append(d2.Set(nil), subject...)
	for i := range clip {
		if len(out) < 3 {
			return nil
		}
		a, b := clip[i], clip[(i+1)%len(clip)]
		e := r2.Sub(b, a)
		l := r2.Norm(e)
		if l == 0 {
			continue
		}
		side := func(p r2.Vec) float64 { return d2.Cross(e, r2.Sub(p, a)) / l }
		in := out
		out = make(d2.Set, 0, len(in)+1)
		prev := in[len(in)-1]
		dp := side(prev)
		for _, cur := range in {
			dc := side(cur)
			if dc >= -eps {
				if dp < -eps {
					out = append(out, lerpAt(prev, cur, dp, dc))
				}
				out = append(out, cur)
			} else if dp >= -eps {
				out = append(out, lerpAt(prev, cur, dp, dc))
			}
			prev, dp = cur, dc
		}
	}
	out = out.Dedupe(eps)
	if len(out) < 3 {
		return nil
	}
	return out
}

// lerpAt returns the point between p and c where the signed distance
// interpolated from dp to dc vanishes.
func lerpAt(p, c r2.Vec, dp, dc float64) r2.Vec {
	t := math.Min(1, math.Max(0, dp/(dp-dc)))
	return r2.Add(p, r2.Scale(t, r2.Sub(c, p)))
}
