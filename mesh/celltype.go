package mesh

import "fmt"

// CellType is a normalized topological cell shape. Its integer value is the
// interchange code and never changes meaning.
type CellType int

const (
	Point1  CellType = 0
	Seg2    CellType = 1
	Seg3    CellType = 2
	Tri3    CellType = 3
	Quad4   CellType = 4
	Polygon CellType = 5
	Tri6    CellType = 6
	Tri7    CellType = 7
	Quad8   CellType = 8
	Quad9   CellType = 9
	Seg4    CellType = 10
	Tetra4  CellType = 14
	Pyra5   CellType = 15
	Penta6  CellType = 16
	Hexa8   CellType = 18
	Tetra10 CellType = 20
	HexGP12 CellType = 22
	Pyra13  CellType = 23
	Penta15 CellType = 25
	Hexa27  CellType = 27
	Penta18 CellType = 28
	Hexa20  CellType = 30
	Polyhed CellType = 31
	QPolyg  CellType = 32
	Polyl   CellType = 33
)

type cellInfo struct {
	name  string
	dim   int
	nodes int // -1 for dynamic types
	// linear is the type whose nodes are the corners of this one.
	linear    CellType
	quadratic bool
}

var cellInfos = map[CellType]cellInfo{
	Point1:  {"POINT1", 0, 1, Point1, false},
	Seg2:    {"SEG2", 1, 2, Seg2, false},
	Seg3:    {"SEG3", 1, 3, Seg2, true},
	Seg4:    {"SEG4", 1, 4, Seg2, true},
	Polyl:   {"POLYL", 1, -1, Polyl, false},
	Tri3:    {"TRI3", 2, 3, Tri3, false},
	Quad4:   {"QUAD4", 2, 4, Quad4, false},
	Polygon: {"POLYGON", 2, -1, Polygon, false},
	Tri6:    {"TRI6", 2, 6, Tri3, true},
	Tri7:    {"TRI7", 2, 7, Tri3, true},
	Quad8:   {"QUAD8", 2, 8, Quad4, true},
	Quad9:   {"QUAD9", 2, 9, Quad4, true},
	QPolyg:  {"QPOLYG", 2, -1, Polygon, true},
	Tetra4:  {"TETRA4", 3, 4, Tetra4, false},
	Pyra5:   {"PYRA5", 3, 5, Pyra5, false},
	Penta6:  {"PENTA6", 3, 6, Penta6, false},
	Hexa8:   {"HEXA8", 3, 8, Hexa8, false},
	HexGP12: {"HEXGP12", 3, 12, HexGP12, false},
	Tetra10: {"TETRA10", 3, 10, Tetra4, true},
	Pyra13:  {"PYRA13", 3, 13, Pyra5, true},
	Penta15: {"PENTA15", 3, 15, Penta6, true},
	Penta18: {"PENTA18", 3, 18, Penta6, true},
	Hexa20:  {"HEXA20", 3, 20, Hexa8, true},
	Hexa27:  {"HEXA27", 3, 27, Hexa8, true},
	Polyhed: {"POLYHED", 3, -1, Polyhed, false},
}

// CellTypeFromCode returns the cell type with interchange code c.
func CellTypeFromCode(c int) (CellType, error) {
	t := CellType(c)
	if _, ok := cellInfos[t]; !ok {
		return 0, fmt.Errorf("mesh: unknown cell type code %d", c)
	}
	return t, nil
}

// Valid reports whether t is part of the catalog.
func (t CellType) Valid() bool {
	_, ok := cellInfos[t]
	return ok
}

func (t CellType) String() string {
	if info, ok := cellInfos[t]; ok {
		return info.name
	}
	return fmt.Sprintf("CellType(%d)", int(t))
}

// Dim returns the topological dimension of the shape.
func (t CellType) Dim() int { return cellInfos[t].dim }

// NumNodes returns the fixed node count, or -1 for dynamic types.
func (t CellType) NumNodes() int {
	if info, ok := cellInfos[t]; ok {
		return info.nodes
	}
	return -1
}

// IsDynamic reports whether cells of this type have a variable node count.
func (t CellType) IsDynamic() bool { return t.NumNodes() < 0 }

// IsQuadratic reports whether the type carries mid-edge nodes.
func (t CellType) IsQuadratic() bool { return cellInfos[t].quadratic }

// Linear returns the type made of the corner nodes of t.
func (t CellType) Linear() CellType { return cellInfos[t].linear }

// NumCorners returns the number of corner nodes of a fixed size type.
func (t CellType) NumCorners() int { return t.Linear().NumNodes() }
