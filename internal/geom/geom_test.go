package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeZeroVector(t *testing.T) {
	assert.Equal(t, Zero, Normalize(Zero))
}

func TestNormalizeUnitLength(t *testing.T) {
	for _, v := range []orb.Point{{3, 4}, {-7, 0}, {0.001, -0.002}, {1e6, 1e6}} {
		n := Normalize(v)
		assert.InDelta(t, 1.0, Len(n), 1e-12, "len of normalized %v", v)
		// same direction
		assert.InDelta(t, math.Atan2(v[1], v[0]), math.Atan2(n[1], n[0]), 1e-12)
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 5.0, Distance(orb.Point{1, 1}, orb.Point{4, 5}))
	assert.Equal(t, 0.0, Distance(orb.Point{2, 2}, orb.Point{2, 2}))
}

func TestLenDoesNotOverflow(t *testing.T) {
	v := orb.Point{1e200, 1e200}
	assert.False(t, math.IsInf(Len(v), 0))
	assert.InDelta(t, math.Sqrt2*1e200, Len(v), 1e186)

	n := Normalize(v)
	assert.InDelta(t, 1.0, Len(n), 1e-12)
	assert.False(t, math.IsInf(Distance(orb.Point{-1e200, 0}, orb.Point{1e200, 0}), 0))
}

func TestArithmetic(t *testing.T) {
	a := orb.Point{1, 2}
	b := orb.Point{3, -1}
	assert.Equal(t, orb.Point{4, 1}, Add(a, b))
	assert.Equal(t, orb.Point{-2, 3}, Sub(a, b))
	assert.Equal(t, orb.Point{2.5, 5}, Scale(a, 2.5))
	assert.Equal(t, 5.0, Len(orb.Point{3, 4}))
}
