package remap

import (
	"errors"
	"fmt"

	"github.com/soypat/remap/mesh"
)

// ErrAlreadyRun is returned when Run is called twice on one Remapper.
var ErrAlreadyRun = errors.New("remap: remapper already ran, use Reuse for another source")

// ConfigurationError reports an invalid option value. The options it was
// raised for are left unchanged.
type ConfigurationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("remap: option %s=%v: %s", e.Key, e.Value, e.Reason)
}

// DimensionMismatchError reports meshes whose dimensions no kernel handles.
type DimensionMismatchError struct {
	SourceMeshDim, SourceSpaceDim int
	TargetMeshDim, TargetSpaceDim int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("remap: no kernel for source mesh %dD in %dD space and target mesh %dD in %dD space",
		e.SourceMeshDim, e.SourceSpaceDim, e.TargetMeshDim, e.TargetSpaceDim)
}

// TopologyError reports malformed connectivity. It aborts a run.
type TopologyError = mesh.TopologyError

// DegenerateGeometryWarning records a cell excluded from a run because its
// measure is below Precision^MeshDim.
type DegenerateGeometryWarning struct {
	// Mesh is "source" or "target".
	Mesh    string
	Cell    int
	Measure float64
}

func (w DegenerateGeometryWarning) Error() string {
	return fmt.Sprintf("remap: %s cell %d is degenerate (measure %g), excluded", w.Mesh, w.Cell, w.Measure)
}
