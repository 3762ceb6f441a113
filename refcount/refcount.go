// Package refcount implements reference counted buffers that can be shared
// between meshes without copying, plus a diagnostic walk over the graph of
// objects they depend on.
package refcount

import (
	"errors"
	"sync/atomic"
)

var (
	// ErrUnderflow is returned when DecrRef is called on an object with no
	// outstanding references.
	ErrUnderflow = errors.New("refcount: decrement below zero")
	// ErrReleased is returned when a released object is used or re-acquired.
	ErrReleased = errors.New("refcount: object already released")
)

// Object is a reference counted value.
type Object interface {
	// IncrRef registers a new owner.
	IncrRef() error
	// DecrRef drops an owner. released is true when this call freed the object,
	// after which the caller must not touch it again.
	DecrRef() (released bool, err error)
	// RefCount returns the number of outstanding owners.
	RefCount() int64
	// HeapMemorySizeWithoutChildren reports the bytes held by the object itself.
	HeapMemorySizeWithoutChildren() uint64
	// DirectChildren returns the objects this one depends on. Entries may be nil.
	DirectChildren() []Object
}

// Counter is embedded by types implementing Object. The zero value is not
// ready for use, call Init first. A Counter starts with one owner: the creator.
type Counter struct {
	n       atomic.Int64
	release func()
}

// Init sets the count to one and registers the function run when the count
// reaches zero. release may be nil.
func (c *Counter) Init(release func()) {
	c.n.Store(1)
	c.release = release
}

// IncrRef implements Object.
func (c *Counter) IncrRef() error {
	for {
		n := c.n.Load()
		if n <= 0 {
			return ErrReleased
		}
		if c.n.CompareAndSwap(n, n+1) {
			return nil
		}
	}
}

// DecrRef implements Object.
func (c *Counter) DecrRef() (bool, error) {
	for {
		n := c.n.Load()
		if n <= 0 {
			return false, ErrUnderflow
		}
		if !c.n.CompareAndSwap(n, n-1) {
			continue
		}
		if n != 1 {
			return false, nil
		}
		if c.release != nil {
			c.release()
		}
		return true, nil
	}
}

// RefCount implements Object.
func (c *Counter) RefCount() int64 { return c.n.Load() }

// Released reports whether the count has reached zero.
func (c *Counter) Released() bool { return c.n.Load() <= 0 }
