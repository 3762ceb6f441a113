package refcount

import (
	"fmt"
	"unsafe"
)

// Number is the set of element types an Array can hold.
type Number interface {
	~float64 | ~int
}

// Array is a reference counted, multi-component buffer of numbers, the
// storage behind mesh coordinates and connectivity.
type Array[T Number] struct {
	Counter
	name  string
	comps int
	data  []T
}

var (
	_ Object = (*Array[float64])(nil)
	_ Object = (*Array[int])(nil)
)

// NewArray wraps data in an Array with ncomp components per tuple. The
// returned array is owned once by the caller and takes ownership of data.
func NewArray[T Number](name string, ncomp int, data []T) (*Array[T], error) {
	if ncomp < 1 {
		return nil, fmt.Errorf("refcount: array %q needs at least one component, got %d", name, ncomp)
	}
	if len(data)%ncomp != 0 {
		return nil, fmt.Errorf("refcount: array %q length %d not a multiple of %d components", name, len(data), ncomp)
	}
	a := &Array[T]{name: name, comps: ncomp, data: data}
	a.Init(func() { a.data = nil })
	return a, nil
}

// Name returns the array name.
func (a *Array[T]) Name() string { return a.name }

// NumComponents returns the number of components per tuple.
func (a *Array[T]) NumComponents() int { return a.comps }

// NumTuples returns the number of tuples, zero after release.
func (a *Array[T]) NumTuples() int { return len(a.Data()) / a.comps }

// Data returns the backing slice. It is shared, not copied. A released array
// returns nil.
func (a *Array[T]) Data() []T {
	if a.Released() {
		return nil
	}
	return a.data
}

// Tuple returns the components of tuple i.
func (a *Array[T]) Tuple(i int) []T {
	d := a.Data()
	return d[i*a.comps : (i+1)*a.comps]
}

// HeapMemorySizeWithoutChildren implements Object.
func (a *Array[T]) HeapMemorySizeWithoutChildren() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(*a)) + uint64(cap(a.Data()))*uint64(unsafe.Sizeof(zero))
}

// DirectChildren implements Object. Arrays are leaves.
func (a *Array[T]) DirectChildren() []Object { return nil }
