package d2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestSet(t *testing.T) {
	square := Set{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	assert.Equal(t, 1.0, square.SignedArea())
	assert.False(t, square.SelfIntersects())

	cw := append(Set(nil), square...)
	cw.Reverse()
	assert.Equal(t, -1.0, cw.SignedArea())

	bowtie := Set{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 1}}
	assert.True(t, bowtie.SelfIntersects())

	dup := Set{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1e-15}, {X: 1, Y: 1}, {X: 0, Y: 0}}
	assert.Equal(t, Set{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}, dup.Dedupe(1e-12))
}

func TestBox(t *testing.T) {
	b := BoundsOf([]r2.Vec{{X: 1, Y: 2}, {X: -1, Y: 0}})
	assert.Equal(t, b, FromFlat([]float64{-1, 1, 0, 2}))
	assert.Equal(t, r2.Vec{X: 0, Y: 1}, b.Center())

	other := Box{Min: r2.Vec{X: 1.5, Y: 0}, Max: r2.Vec{X: 2, Y: 1}}
	assert.False(t, b.Overlaps(other, 0))
	assert.True(t, b.Overlaps(other, 0.5))
	assert.Equal(t, Box{Min: r2.Vec{X: -1, Y: 0}, Max: r2.Vec{X: 2, Y: 2}}, b.Extend(other))
}
