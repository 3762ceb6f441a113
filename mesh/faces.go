package mesh

// Face tables list the corners of each face in MED order. For a cell wound
// the MED way every face normal points into the cell; Grid3D winds its cells
// the other way and gets outward normals. Consumers only rely on the winding
// being consistent over the faces of a cell.
var faceTables = map[CellType][][]int{
	Tetra4: {{0, 1, 2}, {0, 3, 1}, {1, 3, 2}, {2, 3, 0}},
	Pyra5:  {{0, 1, 2, 3}, {0, 4, 1}, {1, 4, 2}, {2, 4, 3}, {3, 4, 0}},
	Penta6: {{0, 1, 2}, {3, 5, 4}, {0, 3, 4, 1}, {1, 4, 5, 2}, {2, 5, 3, 0}},
	Hexa8: {
		{0, 1, 2, 3}, {4, 7, 6, 5}, {0, 4, 5, 1},
		{1, 5, 6, 2}, {2, 6, 7, 3}, {3, 7, 4, 0},
	},
	HexGP12: {
		{0, 1, 2, 3, 4, 5}, {6, 11, 10, 9, 8, 7},
		{0, 6, 7, 1}, {1, 7, 8, 2}, {2, 8, 9, 3},
		{3, 9, 10, 4}, {4, 10, 11, 5}, {5, 11, 6, 0},
	},
}

// Faces returns the faces of a 3D cell as node ids. Quadratic cells are
// reduced to their corners. Polyhedron faces come from the connectivity and
// are checked to form a closed surface with consistent winding; an inverted
// but consistent polyhedron is accepted, callers detect it by its volume.
func (c Cell) Faces() ([][]int, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	if c.Type == Polyhed {
		return c.polyhedronFaces()
	}
	table, ok := faceTables[c.Type.Linear()]
	if !ok {
		return nil, topoErr(c.ID, "%s is not a 3D cell", c.Type)
	}
	faces := make([][]int, len(table))
	for i, local := range table {
		f := make([]int, len(local))
		for k, l := range local {
			f[k] = c.Conn[l]
		}
		faces[i] = f
	}
	return faces, nil
}

// Corners returns the distinct corner node ids of the cell.
func (c Cell) Corners() []int {
	if c.Type.IsDynamic() {
		seen := make(map[int]bool, len(c.Conn))
		var ids []int
		for _, id := range c.Conn {
			if id >= 0 && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		return ids
	}
	return c.Conn[:c.Type.NumCorners()]
}

func (c Cell) polyhedronFaces() ([][]int, error) {
	var faces [][]int
	var cur []int
	for _, id := range c.Conn {
		if id < 0 {
			faces = append(faces, cur)
			cur = nil
			continue
		}
		cur = append(cur, id)
	}
	faces = append(faces, cur)
	if len(faces) < 4 {
		return nil, topoErr(c.ID, "polyhedron with %d faces", len(faces))
	}
	type edge [2]int
	directed := make(map[edge]int)
	for fi, f := range faces {
		if len(f) < 3 {
			return nil, topoErr(c.ID, "polyhedron face %d has %d nodes", fi, len(f))
		}
		for k := range f {
			e := edge{f[k], f[(k+1)%len(f)]}
			directed[e]++
			if directed[e] > 1 {
				return nil, topoErr(c.ID, "inconsistent face winding: edge %d-%d traversed twice in the same direction", e[0], e[1])
			}
		}
	}
	for e := range directed {
		if directed[edge{e[1], e[0]}] != 1 {
			return nil, topoErr(c.ID, "polyhedron is not closed at edge %d-%d", e[0], e[1])
		}
	}
	return faces, nil
}
