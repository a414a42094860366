// Package math holds the scalar helpers mgl32 does not provide.
package math

import (
	stdmath "math"

	"golang.org/x/exp/constraints"
)

// Clamp limits f to [low, high] for any ordered type.
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// WrapAngle maps radians into (-π, π].
func WrapAngle[T constraints.Float](a T) T {
	const tau = 2 * stdmath.Pi
	for a > stdmath.Pi {
		a -= tau
	}
	for a <= -stdmath.Pi {
		a += tau
	}
	return a
}
