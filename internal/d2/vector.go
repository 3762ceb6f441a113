package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

func EqualWithin(a, b r2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// MinElem return a vector with the minimum components of two vectors.
func MinElem(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)}
}

// MaxElem return a vector with the maximum components of two vectors.
func MaxElem(a, b r2.Vec) r2.Vec {
	return r2.Vec{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}

// Cross returns the z component of the cross product of a and b.
func Cross(a, b r2.Vec) float64 {
	return a.X*b.Y - a.Y*b.X
}

// Orient returns twice the signed area of triangle abc, positive when
// counter clockwise.
func Orient(a, b, c r2.Vec) float64 {
	return Cross(r2.Sub(b, a), r2.Sub(c, a))
}

// Set is a sequence of points, usually a closed polygon ring without the
// repeated closing vertex.
type Set []r2.Vec

// SignedArea returns the shoelace area of the ring, positive when counter
// clockwise.
func (s Set) SignedArea() float64 {
	if len(s) < 3 {
		return 0
	}
	var a float64
	o := s[0]
	for i := 1; i < len(s)-1; i++ {
		a += Orient(o, s[i], s[i+1])
	}
	return 0.5 * a
}

// Reverse reverses the ring in place.
func (s Set) Reverse() {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// Dedupe drops consecutive vertices closer than tol, including the closing
// pair, and returns the shortened ring.
func (s Set) Dedupe(tol float64) Set {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if !EqualWithin(v, out[len(out)-1], tol) {
			out = append(out, v)
		}
	}
	for len(out) > 1 && EqualWithin(out[0], out[len(out)-1], tol) {
		out = out[:len(out)-1]
	}
	return out
}

// SelfIntersects reports whether two non adjacent edges of the ring cross.
func (s Set) SelfIntersects() bool {
	n := len(s)
	for i := 0; i < n; i++ {
		a0, a1 := s[i], s[(i+1)%n]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent through the closing edge
			}
			b0, b1 := s[j], s[(j+1)%n]
			if segmentsCross(a0, a1, b0, b1) {
				return true
			}
		}
	}
	return false
}

func segmentsCross(a0, a1, b0, b1 r2.Vec) bool {
	d1 := Orient(b0, b1, a0)
	d2 := Orient(b0, b1, a1)
	d3 := Orient(a0, a1, b0)
	d4 := Orient(a0, a1, b1)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}
