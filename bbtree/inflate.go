package bbtree

// Inflate grows every box in place so each side moves out by
// rel*extent + abs, where extent is the largest side length of that box.
func Inflate(boxes []float64, dim int, rel, abs float64) {
	stride := 2 * dim
	for i := 0; i+stride <= len(boxes); i += stride {
		b := boxes[i : i+stride]
		var extent float64
		for ax := 0; ax < dim; ax++ {
			extent = max(extent, b[2*ax+1]-b[2*ax])
		}
		pad := rel*extent + abs
		for ax := 0; ax < dim; ax++ {
			b[2*ax] -= pad
			b[2*ax+1] += pad
		}
	}
}
