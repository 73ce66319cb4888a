// Package core defines the domain models for reactive LTL planning:
// configurations, symbols, labeled regions, workspaces, the robot model
// and sensed requests.
package core

import "github.com/golang/geo/r2"

// Conf is a planar configuration. It is a comparable value type so that
// transition-system and product-automaton vertices can be keyed by
// content rather than identity.
type Conf struct {
	X, Y float64
}

// Vec returns the configuration as an r2 vector.
func (c Conf) Vec() r2.Point {
	return r2.Point{X: c.X, Y: c.Y}
}

// Dist returns the Euclidean distance to other.
func (c Conf) Dist(other Conf) float64 {
	return other.Vec().Sub(c.Vec()).Norm()
}

// Lerp returns the point a fraction t of the way from c to other.
func (c Conf) Lerp(other Conf, t float64) Conf {
	v := c.Vec().Add(other.Vec().Sub(c.Vec()).Mul(t))
	return Conf{X: v.X, Y: v.Y}
}

// Less orders configurations lexicographically. Planners use it to
// break ties deterministically.
func (c Conf) Less(other Conf) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}
