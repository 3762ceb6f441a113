// Package mesh defines the read-only mesh view consumed by the remapping
// engine, the catalog of normalized cell types and an unstructured mesh
// whose buffers are reference counted so they can be shared without copies.
package mesh

import (
	"fmt"
	"math"
)

// Mesh describes an unstructured mesh.
type Mesh interface {
	// SpaceDim is the number of coordinate components per node.
	SpaceDim() int
	// MeshDim is the topological dimension of the cells.
	MeshDim() int
	// NumCells is the number of cells.
	NumCells() int
	// NumNodes is the number of nodes.
	NumNodes() int
	// Coords returns node coordinates interleaved by component.
	Coords() []float64
	// CellType returns the type of cell i.
	CellType(i int) CellType
	// CellConn returns the node ids of cell i. Polyhedron faces are
	// separated by -1.
	CellConn(i int) []int
}

// TopologyError reports malformed connectivity.
type TopologyError struct {
	Cell   int
	Reason string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("mesh: cell %d: %s", e.Cell, e.Reason)
}

func topoErr(cell int, format string, args ...any) error {
	return &TopologyError{Cell: cell, Reason: fmt.Sprintf(format, args...)}
}

// Cell is a view of one cell of a mesh. It aliases the mesh buffers.
type Cell struct {
	ID       int
	Type     CellType
	SpaceDim int
	Conn     []int
	coords   []float64
}

// CellOf returns the view of cell i of m.
func CellOf(m Mesh, i int) Cell {
	return Cell{
		ID:       i,
		Type:     m.CellType(i),
		SpaceDim: m.SpaceDim(),
		Conn:     m.CellConn(i),
		coords:   m.Coords(),
	}
}

// Check verifies the node count of fixed size types and that every node id
// refers to an existing node.
func (c Cell) Check() error {
	if !c.Type.Valid() {
		return topoErr(c.ID, "unknown cell type %d", int(c.Type))
	}
	if n := c.Type.NumNodes(); n > 0 && len(c.Conn) != n {
		return topoErr(c.ID, "%s needs %d nodes, got %d", c.Type, n, len(c.Conn))
	}
	nnodes := len(c.coords) / c.SpaceDim
	for _, id := range c.Conn {
		if id == -1 && c.Type == Polyhed {
			continue
		}
		if id < 0 || id >= nnodes {
			return topoErr(c.ID, "node id %d out of range [0,%d)", id, nnodes)
		}
	}
	return nil
}

// Coord returns the coordinates of mesh node id.
func (c Cell) Coord(id int) []float64 {
	return c.coords[id*c.SpaceDim : (id+1)*c.SpaceDim]
}

// Bounds returns the bounding box of the cell nodes as min/max pairs per axis.
func (c Cell) Bounds() []float64 {
	box := make([]float64, 2*c.SpaceDim)
	for ax := 0; ax < c.SpaceDim; ax++ {
		box[2*ax], box[2*ax+1] = math.Inf(1), math.Inf(-1)
	}
	for _, id := range c.Conn {
		if id < 0 {
			continue
		}
		p := c.Coord(id)
		for ax, v := range p {
			box[2*ax] = math.Min(box[2*ax], v)
			box[2*ax+1] = math.Max(box[2*ax+1], v)
		}
	}
	return box
}

// Segments returns the linear pieces of a 1D cell as node id pairs.
// Quadratic segments are split at their interior nodes.
func (c Cell) Segments() ([][2]int, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	n := len(c.Conn)
	switch c.Type {
	case Seg2:
		return [][2]int{{c.Conn[0], c.Conn[1]}}, nil
	case Seg3:
		return [][2]int{{c.Conn[0], c.Conn[2]}, {c.Conn[2], c.Conn[1]}}, nil
	case Seg4:
		return [][2]int{{c.Conn[0], c.Conn[2]}, {c.Conn[2], c.Conn[3]}, {c.Conn[3], c.Conn[1]}}, nil
	case Polyl:
		if n < 2 {
			return nil, topoErr(c.ID, "polyline with %d nodes", n)
		}
		segs := make([][2]int, n-1)
		for i := range segs {
			segs[i] = [2]int{c.Conn[i], c.Conn[i+1]}
		}
		return segs, nil
	}
	return nil, topoErr(c.ID, "%s is not a 1D cell", c.Type)
}

// Ring returns the node ids of the boundary of a 2D cell in order. Mid-edge
// nodes of quadratic cells are interleaved with the corners.
func (c Cell) Ring() ([]int, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	switch c.Type {
	case Tri3, Quad4, Polygon:
		if len(c.Conn) < 3 {
			return nil, topoErr(c.ID, "polygon with %d nodes", len(c.Conn))
		}
		return c.Conn, nil
	case Tri6, Tri7, Quad8, Quad9, QPolyg:
		nc := c.Type.NumCorners()
		if c.Type == QPolyg {
			if len(c.Conn)%2 != 0 || len(c.Conn) < 6 {
				return nil, topoErr(c.ID, "quadratic polygon with %d nodes", len(c.Conn))
			}
			nc = len(c.Conn) / 2
		}
		ring := make([]int, 0, 2*nc)
		for i := 0; i < nc; i++ {
			ring = append(ring, c.Conn[i], c.Conn[nc+i])
		}
		return ring, nil
	}
	return nil, topoErr(c.ID, "%s is not a 2D cell", c.Type)
}
