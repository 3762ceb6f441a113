package mesh

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/soypat/remap/refcount"
)

// Unstructured is a mesh of arbitrary cell types. Its coordinate and
// connectivity buffers are reference counted arrays which may be shared with
// other meshes. Cells are inserted one by one and the mesh becomes usable
// after Finish.
type Unstructured struct {
	refcount.Counter
	name    string
	meshDim int
	coords  *refcount.Array[float64]
	conn    *refcount.Array[int]
	connIdx *refcount.Array[int]
	types   []CellType

	// Cells inserted before Finish.
	pendingConn []int
	pendingIdx  []int
}

var (
	_ Mesh            = (*Unstructured)(nil)
	_ refcount.Object = (*Unstructured)(nil)
)

var errFinished = errors.New("mesh: connectivity already finished")

// NewUnstructured creates an empty mesh of dimension meshDim over coords. The
// mesh borrows a reference to coords, the caller keeps its own.
func NewUnstructured(name string, meshDim int, coords *refcount.Array[float64]) (*Unstructured, error) {
	if coords == nil {
		return nil, fmt.Errorf("mesh %q: nil coordinates", name)
	}
	sdim := coords.NumComponents()
	if sdim > 3 {
		return nil, fmt.Errorf("mesh %q: space dimension %d not supported", name, sdim)
	}
	if meshDim < 0 || meshDim > sdim {
		return nil, fmt.Errorf("mesh %q: mesh dimension %d invalid in space of dimension %d", name, meshDim, sdim)
	}
	if err := coords.IncrRef(); err != nil {
		return nil, fmt.Errorf("mesh %q: borrowing coordinates: %w", name, err)
	}
	u := &Unstructured{
		name:       name,
		meshDim:    meshDim,
		coords:     coords,
		pendingIdx: []int{0},
	}
	u.Init(u.release)
	return u, nil
}

// NewUnstructuredFromArrays creates a finished mesh sharing existing buffers.
// connIdx holds NumCells+1 offsets into conn. All three arrays are borrowed.
func NewUnstructuredFromArrays(name string, meshDim int, coords *refcount.Array[float64], conn, connIdx *refcount.Array[int], types []CellType) (*Unstructured, error) {
	if conn == nil || connIdx == nil {
		return nil, fmt.Errorf("mesh %q: nil connectivity", name)
	}
	idx := connIdx.Data()
	if len(idx) != len(types)+1 || idx[0] != 0 || idx[len(idx)-1] != len(conn.Data()) {
		return nil, fmt.Errorf("mesh %q: connectivity index does not match %d cells", name, len(types))
	}
	u, err := NewUnstructured(name, meshDim, coords)
	if err != nil {
		return nil, err
	}
	u.types = types
	u.pendingIdx = nil
	for i := range types {
		if idx[i+1] < idx[i] {
			u.DecrRef()
			return nil, fmt.Errorf("mesh %q: connectivity index decreasing at cell %d", name, i)
		}
		if err := u.checkCell(i, types[i], conn.Data()[idx[i]:idx[i+1]]); err != nil {
			u.DecrRef()
			return nil, err
		}
	}
	if err := conn.IncrRef(); err != nil {
		u.DecrRef()
		return nil, fmt.Errorf("mesh %q: borrowing connectivity: %w", name, err)
	}
	u.conn = conn
	if err := connIdx.IncrRef(); err != nil {
		u.DecrRef()
		return nil, fmt.Errorf("mesh %q: borrowing connectivity index: %w", name, err)
	}
	u.connIdx = connIdx
	return u, nil
}

func (u *Unstructured) checkCell(id int, t CellType, conn []int) error {
	if !t.Valid() {
		return topoErr(id, "unknown cell type %d", int(t))
	}
	if t.Dim() != u.meshDim {
		return topoErr(id, "%s in a mesh of dimension %d", t, u.meshDim)
	}
	c := Cell{ID: id, Type: t, SpaceDim: u.SpaceDim(), Conn: conn, coords: u.coords.Data()}
	return c.Check()
}

// InsertCell appends a cell. conn is copied.
func (u *Unstructured) InsertCell(t CellType, conn ...int) error {
	if u.finished() {
		return errFinished
	}
	id := len(u.types)
	if err := u.checkCell(id, t, conn); err != nil {
		return err
	}
	u.types = append(u.types, t)
	u.pendingConn = append(u.pendingConn, conn...)
	u.pendingIdx = append(u.pendingIdx, len(u.pendingConn))
	return nil
}

// Finish moves the inserted connectivity into reference counted arrays. No
// cell can be inserted afterwards.
func (u *Unstructured) Finish() error {
	if u.finished() {
		return errFinished
	}
	conn, err := refcount.NewArray(u.name+".conn", 1, u.pendingConn)
	if err != nil {
		return err
	}
	idx, err := refcount.NewArray(u.name+".connIndex", 1, u.pendingIdx)
	if err != nil {
		return err
	}
	u.conn, u.connIdx = conn, idx
	u.pendingConn, u.pendingIdx = nil, nil
	return nil
}

func (u *Unstructured) finished() bool { return u.conn != nil }

// Share returns a new finished mesh borrowing all of u's buffers.
func (u *Unstructured) Share(name string) (*Unstructured, error) {
	if !u.finished() {
		return nil, fmt.Errorf("mesh %q: share before finish", u.name)
	}
	return NewUnstructuredFromArrays(name, u.meshDim, u.coords, u.conn, u.connIdx, u.types)
}

// SetCoords replaces the node coordinates, borrowing c and dropping the
// reference held on the previous array.
func (u *Unstructured) SetCoords(c *refcount.Array[float64]) error {
	if c == nil || c.NumComponents() != u.SpaceDim() {
		return fmt.Errorf("mesh %q: coordinates must have %d components", u.name, u.SpaceDim())
	}
	n := c.NumTuples()
	for _, id := range u.allConn() {
		if id >= n {
			return fmt.Errorf("mesh %q: node %d missing from new coordinates", u.name, id)
		}
	}
	if err := c.IncrRef(); err != nil {
		return fmt.Errorf("mesh %q: borrowing coordinates: %w", u.name, err)
	}
	old := u.coords
	u.coords = c
	_, err := old.DecrRef()
	return err
}

func (u *Unstructured) allConn() []int {
	if u.finished() {
		return u.conn.Data()
	}
	return u.pendingConn
}

func (u *Unstructured) allIdx() []int {
	if u.finished() {
		return u.connIdx.Data()
	}
	return u.pendingIdx
}

func (u *Unstructured) release() {
	for _, o := range u.DirectChildren() {
		o.DecrRef()
	}
	u.types = nil
	u.pendingConn, u.pendingIdx = nil, nil
}

// Name returns the mesh name.
func (u *Unstructured) Name() string { return u.name }

// CoordsArray returns the shared coordinate array.
func (u *Unstructured) CoordsArray() *refcount.Array[float64] { return u.coords }

// ConnArray returns the shared connectivity array, nil before Finish.
func (u *Unstructured) ConnArray() *refcount.Array[int] { return u.conn }

// ConnIndexArray returns the shared connectivity index array, nil before Finish.
func (u *Unstructured) ConnIndexArray() *refcount.Array[int] { return u.connIdx }

func (u *Unstructured) SpaceDim() int           { return u.coords.NumComponents() }
func (u *Unstructured) MeshDim() int            { return u.meshDim }
func (u *Unstructured) NumCells() int           { return len(u.types) }
func (u *Unstructured) NumNodes() int           { return u.coords.NumTuples() }
func (u *Unstructured) Coords() []float64       { return u.coords.Data() }
func (u *Unstructured) CellType(i int) CellType { return u.types[i] }

func (u *Unstructured) CellConn(i int) []int {
	idx := u.allIdx()
	return u.allConn()[idx[i]:idx[i+1]]
}

// HeapMemorySizeWithoutChildren implements refcount.Object.
func (u *Unstructured) HeapMemorySizeWithoutChildren() uint64 {
	var t CellType
	var i int
	return uint64(unsafe.Sizeof(*u)) + uint64(cap(u.types))*uint64(unsafe.Sizeof(t)) +
		uint64(cap(u.pendingConn)+cap(u.pendingIdx))*uint64(unsafe.Sizeof(i))
}

// DirectChildren implements refcount.Object.
func (u *Unstructured) DirectChildren() []refcount.Object {
	var children []refcount.Object
	if u.coords != nil {
		children = append(children, u.coords)
	}
	if u.conn != nil {
		children = append(children, u.conn)
	}
	if u.connIdx != nil {
		children = append(children, u.connIdx)
	}
	return children
}
