package mesh

import (
	"fmt"

	"github.com/soypat/remap/refcount"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Grid1D returns n SEG2 cells evenly spanning [x0,x1] in a 1D space.
func Grid1D(name string, n int, x0, x1 float64) (*Unstructured, error) {
	if n < 1 {
		return nil, fmt.Errorf("mesh %q: grid needs at least one cell", name)
	}
	coords := make([]float64, n+1)
	for i := range coords {
		coords[i] = x0 + (x1-x0)*float64(i)/float64(n)
	}
	return build(name, 1, 1, coords, func(u *Unstructured) error {
		for i := 0; i < n; i++ {
			if err := u.InsertCell(Seg2, i, i+1); err != nil {
				return err
			}
		}
		return nil
	})
}

// Grid2D returns nx*ny QUAD4 cells covering the box from min to max. Cell
// i+j*nx is the i'th cell along x in row j. Cells are counter clockwise.
func Grid2D(name string, nx, ny int, min, max r2.Vec) (*Unstructured, error) {
	coords, err := grid2Nodes(name, nx, ny, min, max)
	if err != nil {
		return nil, err
	}
	return build(name, 2, 2, coords, func(u *Unstructured) error {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				n0 := j*(nx+1) + i
				if err := u.InsertCell(Quad4, n0, n0+1, n0+nx+2, n0+nx+1); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// TriGrid2D is Grid2D with every quadrangle split into two TRI3 cells along
// its diagonal from the lower left corner.
func TriGrid2D(name string, nx, ny int, min, max r2.Vec) (*Unstructured, error) {
	coords, err := grid2Nodes(name, nx, ny, min, max)
	if err != nil {
		return nil, err
	}
	return build(name, 2, 2, coords, func(u *Unstructured) error {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				n0 := j*(nx+1) + i
				if err := u.InsertCell(Tri3, n0, n0+1, n0+nx+2); err != nil {
					return err
				}
				if err := u.InsertCell(Tri3, n0, n0+nx+2, n0+nx+1); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func grid2Nodes(name string, nx, ny int, min, max r2.Vec) ([]float64, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("mesh %q: grid needs at least one cell per axis", name)
	}
	coords := make([]float64, 0, 2*(nx+1)*(ny+1))
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			coords = append(coords,
				min.X+(max.X-min.X)*float64(i)/float64(nx),
				min.Y+(max.Y-min.Y)*float64(j)/float64(ny),
			)
		}
	}
	return coords, nil
}

// Grid3D returns nx*ny*nz HEXA8 cells covering the box from min to max.
// Cell i+nx*(j+ny*k) is the i'th cell along x at row j and layer k.
func Grid3D(name string, nx, ny, nz int, min, max r3.Vec) (*Unstructured, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("mesh %q: grid needs at least one cell per axis", name)
	}
	coords := make([]float64, 0, 3*(nx+1)*(ny+1)*(nz+1))
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				coords = append(coords,
					min.X+(max.X-min.X)*float64(i)/float64(nx),
					min.Y+(max.Y-min.Y)*float64(j)/float64(ny),
					min.Z+(max.Z-min.Z)*float64(k)/float64(nz),
				)
			}
		}
	}
	node := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	return build(name, 3, 3, coords, func(u *Unstructured) error {
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					// Bottom face runs clockwise seen from above so that it
					// faces outwards.
					err := u.InsertCell(Hexa8,
						node(i, j, k), node(i, j+1, k), node(i+1, j+1, k), node(i+1, j, k),
						node(i, j, k+1), node(i, j+1, k+1), node(i+1, j+1, k+1), node(i+1, j, k+1),
					)
					if err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func build(name string, meshDim, spaceDim int, coords []float64, cells func(*Unstructured) error) (*Unstructured, error) {
	ca, err := refcount.NewArray(name+".coords", spaceDim, coords)
	if err != nil {
		return nil, err
	}
	defer ca.DecrRef()
	u, err := NewUnstructured(name, meshDim, ca)
	if err != nil {
		return nil, err
	}
	if err = cells(u); err == nil {
		err = u.Finish()
	}
	if err != nil {
		u.DecrRef()
		return nil, err
	}
	return u, nil
}
