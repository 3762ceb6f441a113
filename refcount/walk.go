package refcount

// Walk visits o and every object reachable through DirectChildren exactly
// once, depth first. Nil children are skipped. Shared children and cycles are
// handled by a visited set keyed on object identity, so Walk is safe on any
// graph. Returning false from fn stops the walk.
func Walk(o Object, fn func(Object) bool) {
	if o == nil {
		return
	}
	visited := make(map[Object]struct{})
	stack := []Object{o}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		if !fn(cur) {
			return
		}
		children := cur.DirectChildren()
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] != nil {
				stack = append(stack, children[i])
			}
		}
	}
}

// HeapMemorySize returns the memory held by o and all of its progeny, each
// object counted once.
func HeapMemorySize(o Object) uint64 {
	var total uint64
	Walk(o, func(obj Object) bool {
		total += obj.HeapMemorySizeWithoutChildren()
		return true
	})
	return total
}
