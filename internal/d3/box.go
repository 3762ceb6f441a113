package d3

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Box is a 3d bounding box.
type Box r3.Box

// Empty returns an inverted box that any Include call replaces.
func Empty() Box {
	return Box{
		Min: Elem(math.MaxFloat64),
		Max: Elem(-math.MaxFloat64),
	}
}

// BoundsOf returns the smallest box enclosing the points.
func BoundsOf(pts []r3.Vec) Box {
	b := Empty()
	for _, p := range pts {
		b = b.Include(p)
	}
	return b
}

// Include enlarges a 3d box to include a point.
func (a Box) Include(v r3.Vec) Box {
	return Box{
		Min: MinElem(a.Min, v),
		Max: MaxElem(a.Max, v),
	}
}

// Size returns the size of a 3d box.
func (a Box) Size() r3.Vec {
	return r3.Sub(a.Max, a.Min)
}

// Center returns the center of a 3d box.
func (a Box) Center() r3.Vec {
	return r3.Add(a.Min, r3.Scale(0.5, a.Size()))
}

// Extend returns a box enclosing two 3d boxes.
func (a Box) Extend(b Box) Box {
	return Box{
		Min: MinElem(a.Min, b.Min),
		Max: MaxElem(a.Max, b.Max),
	}
}

// FromFlat returns the box of min/max pairs per axis, the layout of
// mesh.Cell.Bounds.
func FromFlat(b []float64) Box {
	return Box{
		Min: r3.Vec{X: b[0], Y: b[2], Z: b[4]},
		Max: r3.Vec{X: b[1], Y: b[3], Z: b[5]},
	}
}

// Overlaps reports whether the boxes share at least one point once each is
// grown by tol.
func (a Box) Overlaps(b Box, tol float64) bool {
	return a.Min.X <= b.Max.X+tol && b.Min.X <= a.Max.X+tol &&
		a.Min.Y <= b.Max.Y+tol && b.Min.Y <= a.Max.Y+tol &&
		a.Min.Z <= b.Max.Z+tol && b.Min.Z <= a.Max.Z+tol
}
