package refcount_test

import (
	"math/rand"
	"sync"
	"testing"
	"unsafe"

	"github.com/soypat/remap/refcount"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayLifecycle(t *testing.T) {
	a, err := refcount.NewArray("coords", 2, []float64{0, 0, 1, 0, 1, 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, a.RefCount())
	assert.Equal(t, 3, a.NumTuples())
	assert.Equal(t, []float64{1, 1}, a.Tuple(2))

	require.NoError(t, a.IncrRef())
	released, err := a.DecrRef()
	require.NoError(t, err)
	assert.False(t, released)
	assert.NotNil(t, a.Data())

	released, err = a.DecrRef()
	require.NoError(t, err)
	assert.True(t, released)
	assert.Nil(t, a.Data())
	assert.Zero(t, a.NumTuples())

	_, err = a.DecrRef()
	assert.ErrorIs(t, err, refcount.ErrUnderflow)
	assert.ErrorIs(t, a.IncrRef(), refcount.ErrReleased)
	assert.EqualValues(t, 0, a.RefCount())
}

func TestNewArrayErrors(t *testing.T) {
	_, err := refcount.NewArray("bad", 0, []int{1})
	assert.Error(t, err)
	_, err = refcount.NewArray("ragged", 3, []int{1, 2})
	assert.Error(t, err)
}

func TestRandomSequenceReleasesOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		releases := 0
		var c refcount.Counter
		c.Init(func() { releases++ })
		owners := 1
		for owners > 0 {
			if rng.Intn(3) == 0 {
				require.NoError(t, c.IncrRef())
				owners++
				continue
			}
			released, err := c.DecrRef()
			require.NoError(t, err)
			owners--
			assert.Equal(t, owners == 0, released)
			if owners > 0 {
				assert.Zero(t, releases, "released before the count reached zero")
			}
		}
		assert.Equal(t, 1, releases)
		_, err := c.DecrRef()
		assert.ErrorIs(t, err, refcount.ErrUnderflow)
		assert.Equal(t, 1, releases)
	}
}

func TestConcurrentBorrow(t *testing.T) {
	a, err := refcount.NewArray("conn", 1, make([]int, 16))
	require.NoError(t, err)
	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 1000; k++ {
				if err := a.IncrRef(); err != nil {
					t.Error(err)
					return
				}
				if _, err := a.DecrRef(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, a.RefCount())
	released, err := a.DecrRef()
	require.NoError(t, err)
	assert.True(t, released)
}

// node is a test object whose children may form cycles.
type node struct {
	refcount.Counter
	size     uint64
	children []refcount.Object
}

func (n *node) HeapMemorySizeWithoutChildren() uint64 { return n.size }
func (n *node) DirectChildren() []refcount.Object   { return n.children }

func newNode(size uint64) *node {
	n := &node{size: size}
	n.Init(nil)
	return n
}

func TestHeapMemorySizeCycles(t *testing.T) {
	a, b, c := newNode(1), newNode(10), newNode(100)
	shared := newNode(1000)
	a.children = []refcount.Object{b, nil, c}
	b.children = []refcount.Object{shared, a}
	c.children = []refcount.Object{shared, c}
	assert.EqualValues(t, 1111, refcount.HeapMemorySize(a))
	assert.EqualValues(t, 1111, refcount.HeapMemorySize(b))
	assert.EqualValues(t, 1000, refcount.HeapMemorySize(shared))

	visits := 0
	refcount.Walk(a, func(refcount.Object) bool {
		visits++
		return visits < 2
	})
	assert.Equal(t, 2, visits)
}

func TestArrayMemory(t *testing.T) {
	a, err := refcount.NewArray("v", 1, make([]float64, 100))
	require.NoError(t, err)
	got := a.HeapMemorySizeWithoutChildren()
	assert.GreaterOrEqual(t, got, uint64(800))
	assert.Equal(t, got, refcount.HeapMemorySize(a))
	assert.EqualValues(t, unsafe.Sizeof(*a)+800, got)
}
