package remap

import (
	"math"
	"sort"

	"github.com/soypat/remap/internal/d3"
	"github.com/soypat/remap/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// volumeKernel intersects 3D cells. Both cells are split in signed
// tetrahedra and the tetrahedra intersected pairwise.
type volumeKernel struct {
	opts Options
}

func (k *volumeKernel) MeshDim() int { return 3 }

// Hexahedron splits in positively oriented tetrahedra, by corner position.
var (
	hexaSplit5 = [][4]int{{0, 2, 5, 7}, {1, 0, 2, 5}, {3, 0, 7, 2}, {4, 0, 5, 7}, {6, 2, 7, 5}}
	hexaSplit6 = [][4]int{{0, 3, 2, 6}, {0, 7, 3, 6}, {0, 2, 1, 6}, {0, 1, 5, 6}, {0, 4, 7, 6}, {0, 5, 4, 6}}
)

// signedTet is a tetrahedron with positive orientation together with the
// sign it carries in the decomposition of its cell.
type signedTet struct {
	v    [4]r3.Vec
	sign float64
	box  d3.Box
}

// vec3 returns the coordinates of node id relative to origin.
func vec3(c mesh.Cell, id int, origin r3.Vec) r3.Vec {
	p := c.Coord(id)
	return r3.Vec{X: p[0] - origin.X, Y: p[1] - origin.Y, Z: p[2] - origin.Z}
}

// frame3 is the 3D counterpart of frame2.
func frame3(cells ...mesh.Cell) (d3.Box, error) {
	box := d3.Empty()
	for _, c := range cells {
		if err := c.Check(); err != nil {
			return box, err
		}
		box = box.Extend(d3.FromFlat(c.Bounds()))
	}
	return box, nil
}

func largest(v r3.Vec) float64 { return math.Max(v.X, math.Max(v.Y, v.Z)) }

// split decomposes c, relative to origin, in signed tetrahedra whose weighted
// indicator functions add up to the indicator of c. A cell whose faces all
// point inwards is turned inside out. It also returns the volume of c.
func (k *volumeKernel) split(c mesh.Cell, o r3.Vec) ([]signedTet, float64, error) {
	faces, err := c.Faces()
	if err != nil {
		return nil, 0, err
	}
	policy := k.opts.SplittingPolicy()
	var raw [][4]r3.Vec
	lin := c.Type.Linear()
	switch {
	case lin == mesh.Tetra4:
		raw = append(raw, [4]r3.Vec{vec3(c, c.Conn[0], o), vec3(c, c.Conn[2], o), vec3(c, c.Conn[1], o), vec3(c, c.Conn[3], o)})
	case lin == mesh.Hexa8 && (policy == PlanarFace5 || policy == PlanarFace6):
		table := hexaSplit5
		if policy == PlanarFace6 {
			table = hexaSplit6
		}
		for _, t := range table {
			raw = append(raw, [4]r3.Vec{vec3(c, c.Conn[t[0]], o), vec3(c, c.Conn[t[1]], o), vec3(c, c.Conn[t[2]], o), vec3(c, c.Conn[t[3]], o)})
		}
	default:
		var corners d3.Set
		for _, id := range c.Corners() {
			corners = append(corners, vec3(c, id, o))
		}
		center := corners.Centroid()
		for _, f := range faces {
			pts := make(d3.Set, len(f))
			for i, id := range f {
				pts[i] = vec3(c, id, o)
			}
			if len(pts) == 3 {
				raw = append(raw, [4]r3.Vec{center, pts[0], pts[1], pts[2]})
				continue
			}
			fc := pts.Centroid()
			for i := range pts {
				a, b := pts[i], pts[(i+1)%len(pts)]
				if policy == General48 {
					mid := r3.Scale(0.5, r3.Add(a, b))
					raw = append(raw, [4]r3.Vec{center, fc, a, mid}, [4]r3.Vec{center, fc, mid, b})
					continue
				}
				raw = append(raw, [4]r3.Vec{center, fc, a, b})
			}
		}
	}

	tets := make([]signedTet, 0, len(raw))
	var total float64
	for _, t := range raw {
		v := d3.TetVolume(t[0], t[1], t[2], t[3])
		if v == 0 {
			continue
		}
		sign := 1.0
		if v < 0 {
			t[1], t[2] = t[2], t[1]
			sign = -1
		}
		total += v
		tets = append(tets, signedTet{v: t, sign: sign, box: d3.BoundsOf(t[:])})
	}
	if total < 0 {
		for i := range tets {
			tets[i].sign = -tets[i].sign
		}
	}
	return tets, math.Abs(total), nil
}

func (k *volumeKernel) Measure(c mesh.Cell) (float64, error) {
	box, err := frame3(c)
	if err != nil {
		return 0, err
	}
	_, v, err := k.split(c, box.Center())
	return v, err
}

func (k *volumeKernel) Intersect(src, tgt mesh.Cell) (float64, error) {
	box, err := frame3(src, tgt)
	if err != nil {
		return 0, err
	}
	o := box.Center()
	ts, vs, err := k.split(src, o)
	if err != nil {
		return 0, err
	}
	tt, vt, err := k.split(tgt, o)
	if err != nil {
		return 0, err
	}
	prec := k.opts.Precision()
	eps := prec * largest(box.Size())
	var sum float64
	for i := range ts {
		for j := range tt {
			if !ts[i].box.Overlaps(tt[j].box, eps) {
				continue
			}
			sum += ts[i].sign * tt[j].sign * tetOverlap(&ts[i], &tt[j], eps)
		}
	}
	// Cells touching on a face or an edge leave rounding noise.
	if !(sum > math.Max(eps*eps*eps, prec*math.Min(vs, vt))) {
		return 0, nil
	}
	return sum, nil
}

// polyhedron is a convex polyhedron given by its faces, each counter
// clockwise seen from outside.
type polyhedron [][]r3.Vec

func tetFaces(v *[4]r3.Vec) [][3]r3.Vec {
	a, b, c, d := v[0], v[1], v[2], v[3]
	return [][3]r3.Vec{{a, c, b}, {a, b, d}, {b, c, d}, {a, d, c}}
}

// tetOverlap returns the volume shared by two positively oriented tetrahedra.
func tetOverlap(a, b *signedTet, eps float64) float64 {
	var p polyhedron
	for _, f := range tetFaces(&a.v) {
		p = append(p, []r3.Vec{f[0], f[1], f[2]})
	}
	for _, f := range tetFaces(&b.v) {
		n := r3.Cross(r3.Sub(f[1], f[0]), r3.Sub(f[2], f[0]))
		l := r3.Norm(n)
		if l == 0 {
			continue
		}
		p = p.clip(r3.Scale(1/l, n), f[0], eps)
		if p == nil {
			return 0
		}
	}
	return p.volume()
}

// clip keeps the part of p where (x-q).n <= 0. n must be a unit vector.
func (p polyhedron) clip(n, q r3.Vec, eps float64) polyhedron {
	side := func(x r3.Vec) float64 { return r3.Dot(r3.Sub(x, q), n) }
	anyOut, anyIn := false, false
	for _, f := range p {
		for _, v := range f {
			d := side(v)
			anyOut = anyOut || d > eps
			anyIn = anyIn || d < -eps
		}
	}
	if !anyIn {
		return nil
	}
	if !anyOut {
		return p
	}
	var out polyhedron
	var lid d3.Set
	for _, f := range p {
		var kept []r3.Vec
		prev := f[len(f)-1]
		dp := side(prev)
		for _, cur := range f {
			dc := side(cur)
			if dc <= eps {
				if dp > eps {
					x := lerp3(prev, cur, dp, dc)
					kept = append(kept, x)
					lid = append(lid, x)
				}
				kept = append(kept, cur)
				if dc >= -eps {
					lid = append(lid, cur)
				}
			} else if dp <= eps {
				x := lerp3(prev, cur, dp, dc)
				kept = append(kept, x)
				lid = append(lid, x)
			}
			prev, dp = cur, dc
		}
		if len(kept) >= 3 {
			out = append(out, kept)
		}
	}
	lid = dedupe3(lid, eps)
	if len(lid) >= 3 {
		c := lid.Centroid()
		u, v := d3.Basis(n)
		angle := make(map[int]float64, len(lid))
		idx := make([]int, len(lid))
		for i, x := range lid {
			rel := r3.Sub(x, c)
			angle[i] = math.Atan2(r3.Dot(rel, v), r3.Dot(rel, u))
			idx[i] = i
		}
		sort.Slice(idx, func(i, j int) bool { return angle[idx[i]] < angle[idx[j]] })
		face := make([]r3.Vec, len(lid))
		for i, k := range idx {
			face[i] = lid[k]
		}
		out = append(out, face)
	}
	if len(out) < 4 {
		return nil
	}
	return out
}

func lerp3(p, c r3.Vec, dp, dc float64) r3.Vec {
	t := math.Min(1, math.Max(0, dp/(dp-dc)))
	return r3.Add(p, r3.Scale(t, r3.Sub(c, p)))
}

func dedupe3(s d3.Set, eps float64) d3.Set {
	var out d3.Set
outer:
	for _, v := range s {
		for _, w := range out {
			if d3.EqualWithin(v, w, eps) {
				continue outer
			}
		}
		out = append(out, v)
	}
	return out
}

// volume integrates the divergence of x/3 over the boundary of p.
func (p polyhedron) volume() float64 {
	if len(p) == 0 {
		return 0
	}
	o := p[0][0]
	var v float64
	for _, f := range p {
		for i := 1; i+1 < len(f); i++ {
			v += d3.TetVolume(o, f[0], f[i], f[i+1])
		}
	}
	return math.Max(0, v)
}
