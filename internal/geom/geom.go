// Package geom holds the small amount of 2D vector math agents need.
// Vectors are orb points so positions can be handed straight to the
// GeoJSON export
package geom

import (
	"math"

	"github.com/paulmach/orb"
)

// Zero is the origin
var Zero = orb.Point{0, 0}

// Add returns a + b
func Add(a, b orb.Point) orb.Point {
	return orb.Point{a[0] + b[0], a[1] + b[1]}
}

// Sub returns a - b
func Sub(a, b orb.Point) orb.Point {
	return orb.Point{a[0] - b[0], a[1] - b[1]}
}

// Scale returns v * f
func Scale(v orb.Point, f float64) orb.Point {
	return orb.Point{v[0] * f, v[1] * f}
}

// Len returns the Euclidean norm of v. It does not overflow for
// components whose squares would
func Len(v orb.Point) float64 {
	return math.Hypot(v[0], v[1])
}

// Distance returns the Euclidean distance between a and b
func Distance(a, b orb.Point) float64 {
	return Len(Sub(a, b))
}

// Normalize returns a unit vector pointing the same way as v. The zero
// vector is returned unchanged
func Normalize(v orb.Point) orb.Point {
	l := Len(v)
	if l == 0 {
		return v
	}
	return Scale(v, 1/l)
}
