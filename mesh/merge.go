package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/soypat/remap/refcount"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// FindCoincidentNodes returns the groups of nodes lying within precision of
// each other, closed transitively. Each group is sorted and holds at least
// two ids; groups are ordered by their smallest id.
func FindCoincidentNodes(m Mesh, precision float64) [][]int {
	n := m.NumNodes()
	if n < 2 {
		return nil
	}
	sdim := m.SpaceDim()
	coords := m.Coords()
	pts := make(nodePoints, n)
	for i := range pts {
		pts[i].id = i
		pts[i].dim = sdim
		copy(pts[i].x[:], coords[i*sdim:(i+1)*sdim])
	}
	// kdtree.New reorders pts, keep an unordered copy for querying.
	query := make([]nodePoint, n)
	copy(query, pts)
	tree := kdtree.New(pts, false)

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	tol2 := precision * precision
	// Pad the search box so points equal to a pivot are never pruned.
	pad := 2 * precision
	for i := range query {
		q := &query[i]
		lo, hi := *q, *q
		for d := 0; d < sdim; d++ {
			lo.x[d] = math.Nextafter(lo.x[d]-pad, math.Inf(-1))
			hi.x[d] = math.Nextafter(hi.x[d]+pad, math.Inf(1))
		}
		tree.DoBounded(&kdtree.Bounding{Min: &lo, Max: &hi}, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
			p := c.(*nodePoint)
			if p.id != q.id && q.Distance(p) <= tol2 {
				ri, rj := find(q.id), find(p.id)
				if ri != rj {
					if ri < rj {
						parent[rj] = ri
					} else {
						parent[ri] = rj
					}
				}
			}
			return false
		})
	}

	byRoot := make(map[int][]int)
	for i := 0; i < n; i++ {
		r := find(i)
		byRoot[r] = append(byRoot[r], i)
	}
	var groups [][]int
	for _, g := range byRoot {
		if len(g) > 1 {
			groups = append(groups, g)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// MergeNodes returns a copy of u in which coincident nodes are replaced by the
// lowest numbered node of their group and unused ids are compacted. It also
// returns the number of nodes removed. u is left untouched.
func MergeNodes(u *Unstructured, precision float64) (*Unstructured, int, error) {
	if !u.finished() {
		return nil, 0, fmt.Errorf("mesh %q: merge before finish", u.name)
	}
	if !(precision >= 0) || math.IsInf(precision, 1) {
		return nil, 0, fmt.Errorf("mesh %q: invalid merge precision %g", u.name, precision)
	}
	n := u.NumNodes()
	rep := make([]int, n)
	for i := range rep {
		rep[i] = i
	}
	for _, g := range FindCoincidentNodes(u, precision) {
		for _, id := range g[1:] {
			rep[id] = g[0]
		}
	}
	renum := make([]int, n)
	sdim := u.SpaceDim()
	old := u.Coords()
	var coords []float64
	kept := 0
	for i := 0; i < n; i++ {
		if rep[i] != i {
			continue
		}
		renum[i] = kept
		coords = append(coords, old[i*sdim:(i+1)*sdim]...)
		kept++
	}
	ca, err := refcount.NewArray(u.coords.Name(), sdim, coords)
	if err != nil {
		return nil, 0, err
	}
	defer ca.DecrRef()
	merged, err := NewUnstructured(u.name, u.meshDim, ca)
	if err != nil {
		return nil, 0, err
	}
	conn := make([]int, 0, 27)
	for i := 0; i < u.NumCells(); i++ {
		conn = conn[:0]
		for _, id := range u.CellConn(i) {
			if id < 0 {
				conn = append(conn, id)
				continue
			}
			conn = append(conn, renum[rep[id]])
		}
		if err := merged.InsertCell(u.CellType(i), conn...); err != nil {
			merged.DecrRef()
			return nil, 0, err
		}
	}
	if err := merged.Finish(); err != nil {
		merged.DecrRef()
		return nil, 0, err
	}
	return merged, n - kept, nil
}

type nodePoint struct {
	id  int
	dim int
	x   [3]float64
}

// Compare implements kdtree.Comparable.
func (p *nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.x[d] - c.(*nodePoint).x[d]
}

// Dims implements kdtree.Comparable.
func (p *nodePoint) Dims() int { return p.dim }

// Distance implements kdtree.Comparable as the squared euclidean distance.
func (p *nodePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(*nodePoint)
	var sum float64
	for d := 0; d < p.dim; d++ {
		diff := p.x[d] - q.x[d]
		sum += diff * diff
	}
	return sum
}

type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable { return &p[i] }
func (p nodePoints) Len() int                      { return len(p) }

func (p nodePoints) Pivot(d kdtree.Dim) int {
	pl := nodePlane{dim: d, points: p}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

func (p nodePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type nodePlane struct {
	dim    kdtree.Dim
	points nodePoints
}

func (p nodePlane) Less(i, j int) bool {
	return p.points[i].x[p.dim] < p.points[j].x[p.dim]
}
func (p nodePlane) Swap(i, j int) { p.points[i], p.points[j] = p.points[j], p.points[i] }
func (p nodePlane) Len() int      { return len(p.points) }
func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.points = p.points[start:end]
	return p
}
