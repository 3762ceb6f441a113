// Package bbtree implements a static bounding interval tree over
// axis-aligned boxes of any dimension.
//
// Boxes are passed as a flat slice holding 2*dim values per element laid out
// as min0, max0, min1, max1, ... The tree splits element sets at the median box
// centre along an axis chosen round-robin by depth, so its depth is
// O(log n) no matter how the boxes cluster in space.
package bbtree

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// leafSize is the number of elements below which a node is not split.
const leafSize = 8

const leaf = -1

type node struct {
	// axis is the split axis, or leaf.
	axis int
	// children live at child and child+1 in Tree.nodes.
	child int
	// split is the median centre on axis. maxLeft is the largest box max on
	// axis among left elements and minRight the smallest box min among right
	// elements; queries prune with these rather than split.
	split, maxLeft, minRight float64
	// leaf nodes cover Tree.elems[start:end].
	start, end int
}

func (n *node) isLeaf() bool { return n.axis == leaf }

// Tree is a read-only spatial index. It is safe for concurrent queries.
type Tree struct {
	dim   int
	boxes []float64
	elems []int
	nodes []node
	depth int
}

// New builds a tree over the boxes. The slice is retained, not copied, and
// must not be modified while the tree is in use. A tree over zero boxes is
// valid and answers every query with no elements.
func New(dim int, boxes []float64) (*Tree, error) {
	if dim < 1 {
		return nil, fmt.Errorf("bbtree: dimension must be positive, got %d", dim)
	}
	stride := 2 * dim
	if len(boxes)%stride != 0 {
		return nil, fmt.Errorf("bbtree: %d box values is not a multiple of %d", len(boxes), stride)
	}
	n := len(boxes) / stride
	for i := 0; i < n; i++ {
		for ax := 0; ax < dim; ax++ {
			lo, hi := boxes[i*stride+2*ax], boxes[i*stride+2*ax+1]
			if !(lo <= hi) {
				return nil, fmt.Errorf("bbtree: box %d has min %g > max %g on axis %d", i, lo, hi, ax)
			}
		}
	}
	t := &Tree{
		dim:   dim,
		boxes: boxes,
		elems: make([]int, n),
		nodes: make([]node, 1, 2*(n/leafSize+1)),
	}
	for i := range t.elems {
		t.elems[i] = i
	}
	centers := make([]float64, n*dim)
	for i := 0; i < n; i++ {
		for ax := 0; ax < dim; ax++ {
			centers[i*dim+ax] = 0.5 * (boxes[i*stride+2*ax] + boxes[i*stride+2*ax+1])
		}
	}
	t.subdivide(0, 0, n, 0, centers)
	return t, nil
}

// subdivide fills node idx with elems[start:end].
func (t *Tree) subdivide(idx, start, end, depth int, centers []float64) {
	if depth > t.depth {
		t.depth = depth
	}
	elems := t.elems[start:end]
	axis := t.splitAxis(elems, depth, centers)
	if len(elems) <= leafSize || axis < 0 {
		t.nodes[idx] = node{axis: leaf, start: start, end: end}
		return
	}
	sort.Slice(elems, func(i, j int) bool {
		return centers[elems[i]*t.dim+axis] < centers[elems[j]*t.dim+axis]
	})
	half := len(elems) / 2
	n := node{
		axis:     axis,
		split:    centers[elems[half]*t.dim+axis],
		maxLeft:  math.Inf(-1),
		minRight: math.Inf(1),
	}
	for _, e := range elems[:half] {
		n.maxLeft = math.Max(n.maxLeft, t.hi(e, axis))
	}
	for _, e := range elems[half:] {
		n.minRight = math.Min(n.minRight, t.lo(e, axis))
	}
	// append two new nodes to store the children
	n.child = len(t.nodes)
	t.nodes = append(t.nodes, node{}, node{})
	t.nodes[idx] = n
	t.subdivide(n.child, start, start+half, depth+1, centers)
	t.subdivide(n.child+1, start+half, end, depth+1, centers)
}

// splitAxis returns the round-robin axis for depth, moving on to the next axis
// when all centres coincide on it. It returns -1 when all centres coincide on
// every axis, in which case splitting cannot separate anything.
func (t *Tree) splitAxis(elems []int, depth int, centers []float64) int {
	if len(elems) == 0 {
		return -1
	}
	for k := 0; k < t.dim; k++ {
		ax := (depth + k) % t.dim
		first := centers[elems[0]*t.dim+ax]
		for _, e := range elems[1:] {
			if centers[e*t.dim+ax] != first {
				return ax
			}
		}
	}
	return -1
}

func (t *Tree) lo(e, axis int) float64 { return t.boxes[e*2*t.dim+2*axis] }
func (t *Tree) hi(e, axis int) float64 { return t.boxes[e*2*t.dim+2*axis+1] }

// Dim returns the dimension of the tree.
func (t *Tree) Dim() int { return t.dim }

// Len returns the number of indexed elements.
func (t *Tree) Len() int { return len(t.elems) }

// Depth returns the depth of the deepest leaf, 0 for a single leaf.
func (t *Tree) Depth() int { return t.depth }

// Box returns the box of element i. The slice aliases the tree's storage.
func (t *Tree) Box(i int) []float64 {
	return t.boxes[i*2*t.dim : (i+1)*2*t.dim]
}

var errDim = errors.New("bbtree: query dimension mismatch")

// Query returns the ids of every element whose box intersects box. Touching
// boxes intersect.
func (t *Tree) Query(box []float64) ([]int, error) {
	return t.AppendQuery(nil, box)
}

// AppendQuery appends the result of Query to dst.
func (t *Tree) AppendQuery(dst []int, box []float64) ([]int, error) {
	if len(box) != 2*t.dim {
		return dst, errDim
	}
	if len(t.elems) == 0 {
		return dst, nil
	}
	return t.query(dst, 0, box), nil
}

func (t *Tree) query(dst []int, idx int, box []float64) []int {
	n := &t.nodes[idx]
	if n.isLeaf() {
		for _, e := range t.elems[n.start:n.end] {
			if t.overlaps(e, box) {
				dst = append(dst, e)
			}
		}
		return dst
	}
	if box[2*n.axis] <= n.maxLeft {
		dst = t.query(dst, n.child, box)
	}
	if box[2*n.axis+1] >= n.minRight {
		dst = t.query(dst, n.child+1, box)
	}
	return dst
}

func (t *Tree) overlaps(e int, box []float64) bool {
	b := t.Box(e)
	for ax := 0; ax < t.dim; ax++ {
		if b[2*ax] > box[2*ax+1] || box[2*ax] > b[2*ax+1] {
			return false
		}
	}
	return true
}

// QueryPoint returns the ids of every element whose box contains pt,
// boundary included.
func (t *Tree) QueryPoint(pt []float64) ([]int, error) {
	return t.AppendQueryPoint(nil, pt)
}

// AppendQueryPoint appends the result of QueryPoint to dst.
func (t *Tree) AppendQueryPoint(dst []int, pt []float64) ([]int, error) {
	if len(pt) != t.dim {
		return dst, errDim
	}
	box := make([]float64, 2*t.dim)
	for ax, v := range pt {
		box[2*ax], box[2*ax+1] = v, v
	}
	return t.AppendQuery(dst, box)
}
