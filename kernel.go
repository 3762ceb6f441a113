package remap

import (
	"math"

	"github.com/soypat/remap/mesh"
)

// Kernel computes the measure of cells and of the overlap of two cells of the
// same dimension. Kernels are safe for concurrent use.
type Kernel interface {
	// MeshDim is the topological dimension of the cells handled.
	MeshDim() int
	// Measure returns the length, area or volume of c.
	Measure(c mesh.Cell) (float64, error)
	// Intersect returns the measure of the overlap of src and tgt. No overlap
	// is a zero result, not an error.
	Intersect(src, tgt mesh.Cell) (float64, error)
}

// NewKernel returns the kernel for cells of dimension meshDim with
// coordinates of dimension spaceDim.
func NewKernel(meshDim, spaceDim int, opts Options) (Kernel, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	switch {
	case meshDim == 1 && spaceDim >= 1 && spaceDim <= 3:
		return &curveKernel{opts: opts, spaceDim: spaceDim}, nil
	case meshDim == 2 && spaceDim == 2:
		return &planarKernel{opts: opts}, nil
	case meshDim == 2 && spaceDim == 3:
		return &surfaceKernel{opts: opts}, nil
	case meshDim == 3 && spaceDim == 3:
		return &volumeKernel{opts: opts}, nil
	}
	return nil, &DimensionMismatchError{
		SourceMeshDim: meshDim, SourceSpaceDim: spaceDim,
		TargetMeshDim: meshDim, TargetSpaceDim: spaceDim,
	}
}

// degenerate is the measure under which a cell of dimension dim is ignored.
func degenerate(opts *Options, dim int) float64 {
	return math.Pow(opts.Precision(), float64(dim))
}
