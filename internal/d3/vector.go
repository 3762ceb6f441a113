package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// R3 vector helpers shared by the volume kernel.

func Elem(sides float64) r3.Vec {
	return r3.Vec{
		X: sides,
		Y: sides,
		Z: sides,
	}
}

func EqualWithin(a, b r3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r3.Vec) r3.Vec {
	return r3.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// Det returns the triple product a . (b x c).
func Det(a, b, c r3.Vec) float64 {
	return r3.Dot(a, r3.Cross(b, c))
}

// TetVolume returns the signed volume of tetrahedron abcd. It is positive
// when the counter clockwise normal of face bcd points away from a.
func TetVolume(a, b, c, d r3.Vec) float64 {
	return Det(r3.Sub(b, a), r3.Sub(c, a), r3.Sub(d, a)) / 6
}

// Set is a list of points.
type Set []r3.Vec

// Centroid returns the vertex average.
func (a Set) Centroid() r3.Vec {
	var c r3.Vec
	for _, v := range a {
		c = r3.Add(c, v)
	}
	return r3.Scale(1/float64(len(a)), c)
}

// Newell returns the normal of the polygon a by Newell's method. Its norm is
// twice the area of a planar polygon and it is counter clockwise oriented.
func (a Set) Newell() r3.Vec {
	var n r3.Vec
	if len(a) == 0 {
		return n
	}
	o := a[0]
	for i := 1; i+1 < len(a); i++ {
		n = r3.Add(n, r3.Cross(r3.Sub(a[i], o), r3.Sub(a[i+1], o)))
	}
	return n
}

// Basis returns two unit vectors u, v such that u, v, n is right handed.
// n must be a unit vector.
func Basis(n r3.Vec) (u, v r3.Vec) {
	ref := r3.Vec{X: 1}
	if math.Abs(n.X) > 0.9 {
		ref = r3.Vec{Y: 1}
	}
	u = r3.Unit(r3.Cross(ref, n))
	v = r3.Cross(n, u)
	return u, v
}
