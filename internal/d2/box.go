package d2

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Box is a 2d bounding box.
type Box r2.Box

// Empty returns an inverted box that any Include call replaces.
func Empty() Box {
	return Box{
		Min: r2.Vec{X: math.MaxFloat64, Y: math.MaxFloat64},
		Max: r2.Vec{X: -math.MaxFloat64, Y: -math.MaxFloat64},
	}
}

// BoundsOf returns the smallest box enclosing the points.
func BoundsOf(pts []r2.Vec) Box {
	b := Empty()
	for _, p := range pts {
		b = b.Include(p)
	}
	return b
}

// Extend returns a box enclosing two 2d boxes.
func (a Box) Extend(b Box) Box {
	return Box{
		Min: MinElem(a.Min, b.Min),
		Max: MaxElem(a.Max, b.Max),
	}
}

// Include enlarges a 2d box to include a point.
func (a Box) Include(v r2.Vec) Box {
	return Box{MinElem(a.Min, v), MaxElem(a.Max, v)}
}

// Size returns the size of a 2d box.
func (a Box) Size() r2.Vec {
	return r2.Sub(a.Max, a.Min)
}

// Center returns the center of a 2d box.
func (a Box) Center() r2.Vec {
	return r2.Add(a.Min, r2.Scale(0.5, a.Size()))
}

// Overlaps reports whether the boxes share at least one point once each is
// grown by tol.
func (a Box) Overlaps(b Box, tol float64) bool {
	return a.Min.X <= b.Max.X+tol && b.Min.X <= a.Max.X+tol &&
		a.Min.Y <= b.Max.Y+tol && b.Min.Y <= a.Max.Y+tol
}

// FromFlat returns the box of min/max pairs per axis, the layout of
// mesh.Cell.Bounds.
func FromFlat(b []float64) Box {
	return Box{
		Min: r2.Vec{X: b[0], Y: b[2]},
		Max: r2.Vec{X: b[1], Y: b[3]},
	}
}
