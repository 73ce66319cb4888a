package core

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Region is a labeled geometric primitive. The boundary of a workspace
// is a Region with no symbols.
type Region interface {
	// Symbols returns the propositions attached to the region.
	Symbols() Symbols
	// Contains reports whether p lies inside the region.
	Contains(p Conf) bool
	// IntersectsSegment reports whether the segment [a,b] meets the
	// region.
	IntersectsSegment(a, b Conf) bool
	// Sample draws a point uniformly from the region interior.
	Sample(rng *rand.Rand) Conf
	// BoundingBox returns the axis-aligned bounds of the region.
	BoundingBox() (lo, hi Conf)
	// Volume returns the area of the region.
	Volume() float64
}

// BoxRegion is an axis-aligned rectangle.
type BoxRegion struct {
	lo, hi  Conf
	symbols Symbols
}

// NewBoxRegion builds a box from coordinate ranges. The ranges must be
// non-degenerate.
func NewBoxRegion(xmin, xmax, ymin, ymax float64, symbols ...string) (*BoxRegion, error) {
	if xmin >= xmax || ymin >= ymax {
		return nil, errors.Wrapf(ErrGeometryInvalid,
			"box: empty range x=[%g,%g] y=[%g,%g]", xmin, xmax, ymin, ymax)
	}
	return &BoxRegion{
		lo:      Conf{X: xmin, Y: ymin},
		hi:      Conf{X: xmax, Y: ymax},
		symbols: NewSymbols(symbols...),
	}, nil
}

func (b *BoxRegion) Symbols() Symbols { return b.symbols }

func (b *BoxRegion) Contains(p Conf) bool {
	return b.lo.X <= p.X && p.X <= b.hi.X && b.lo.Y <= p.Y && p.Y <= b.hi.Y
}

// IntersectsSegment clips the segment parameter against the two slab
// intervals of the box.
func (b *BoxRegion) IntersectsSegment(a, c Conf) bool {
	diff := c.Vec().Sub(a.Vec())
	u, v := 0.0, 1.0
	for i := 0; i < 2; i++ {
		var d, s, lo, hi float64
		if i == 0 {
			d, s, lo, hi = diff.X, a.X, b.lo.X, b.hi.X
		} else {
			d, s, lo, hi = diff.Y, a.Y, b.lo.Y, b.hi.Y
		}
		if math.Abs(d) < 1e-12 { // constant along this axis
			if s < lo || s > hi {
				return false
			}
			continue
		}
		l, h := (lo-s)/d, (hi-s)/d
		if l > h {
			l, h = h, l
		}
		u = math.Max(u, l)
		v = math.Min(v, h)
	}
	return u <= v
}

func (b *BoxRegion) Sample(rng *rand.Rand) Conf {
	return Conf{
		X: b.lo.X + rng.Float64()*(b.hi.X-b.lo.X),
		Y: b.lo.Y + rng.Float64()*(b.hi.Y-b.lo.Y),
	}
}

func (b *BoxRegion) BoundingBox() (Conf, Conf) { return b.lo, b.hi }

func (b *BoxRegion) Volume() float64 {
	return (b.hi.X - b.lo.X) * (b.hi.Y - b.lo.Y)
}

// Shrink returns a copy of the box contracted by eps on every side.
// Used to deflate workspace boundaries by the robot radius.
func (b *BoxRegion) Shrink(eps float64) (*BoxRegion, error) {
	return NewBoxRegion(b.lo.X+eps, b.hi.X-eps, b.lo.Y+eps, b.hi.Y-eps, b.symbols.List()...)
}

// BallRegion is a disc.
type BallRegion struct {
	center  Conf
	radius  float64
	symbols Symbols
}

// NewBallRegion builds a disc with a positive radius.
func NewBallRegion(center Conf, radius float64, symbols ...string) (*BallRegion, error) {
	if radius <= 0 {
		return nil, errors.Wrapf(ErrGeometryInvalid, "ball: radius %g", radius)
	}
	return &BallRegion{center: center, radius: radius, symbols: NewSymbols(symbols...)}, nil
}

func (b *BallRegion) Symbols() Symbols { return b.symbols }

// Center returns the disc center.
func (b *BallRegion) Center() Conf { return b.center }

// Radius returns the disc radius.
func (b *BallRegion) Radius() float64 { return b.radius }

func (b *BallRegion) Contains(p Conf) bool {
	return b.center.Dist(p) <= b.radius
}

// IntersectsSegment projects the center on [a,c], clamps the parameter
// to [0,1] and compares the closest distance to the radius.
func (b *BallRegion) IntersectsSegment(a, c Conf) bool {
	w := b.center.Vec().Sub(a.Vec())
	u := c.Vec().Sub(a.Vec())
	n2 := u.Dot(u)
	if n2 < 1e-24 {
		return b.Contains(a)
	}
	t := math.Min(math.Max(w.Dot(u)/n2, 0), 1)
	return w.Sub(u.Mul(t)).Norm() <= b.radius
}

func (b *BallRegion) Sample(rng *rand.Rand) Conf {
	rad := b.radius * math.Sqrt(rng.Float64())
	theta := 2 * math.Pi * rng.Float64()
	return Conf{X: b.center.X + rad*math.Cos(theta), Y: b.center.Y + rad*math.Sin(theta)}
}

func (b *BallRegion) BoundingBox() (Conf, Conf) {
	return Conf{X: b.center.X - b.radius, Y: b.center.Y - b.radius},
		Conf{X: b.center.X + b.radius, Y: b.center.Y + b.radius}
}

func (b *BallRegion) Volume() float64 {
	return math.Pi * b.radius * b.radius
}

// PolygonRegion is a simple polygon given by its vertices.
type PolygonRegion struct {
	verts   []Conf
	symbols Symbols
}

// NewPolygonRegion builds a polygon from at least three vertices with
// non-zero area.
func NewPolygonRegion(verts []Conf, symbols ...string) (*PolygonRegion, error) {
	if len(verts) < 3 {
		return nil, errors.Wrapf(ErrGeometryInvalid, "polygon: %d vertices", len(verts))
	}
	p := &PolygonRegion{verts: append([]Conf(nil), verts...), symbols: NewSymbols(symbols...)}
	if p.Volume() < 1e-12 {
		return nil, errors.Wrap(ErrGeometryInvalid, "polygon: zero area")
	}
	return p, nil
}

func (p *PolygonRegion) Symbols() Symbols { return p.symbols }

// Vertices returns the polygon outline.
func (p *PolygonRegion) Vertices() []Conf { return p.verts }

// Contains uses the even-odd ray-crossing rule.
func (p *PolygonRegion) Contains(pt Conf) bool {
	inside := false
	n := len(p.verts)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := p.verts[i], p.verts[j]
		if (vi.Y > pt.Y) != (vj.Y > pt.Y) &&
			pt.X < (vj.X-vi.X)*(pt.Y-vi.Y)/(vj.Y-vi.Y)+vi.X {
			inside = !inside
		}
	}
	return inside
}

func (p *PolygonRegion) IntersectsSegment(a, c Conf) bool {
	if p.Contains(a) || p.Contains(c) {
		return true
	}
	n := len(p.verts)
	for i := 0; i < n; i++ {
		if segmentsCross(a, c, p.verts[i], p.verts[(i+1)%n]) {
			return true
		}
	}
	return false
}

// Sample rejection-samples the bounding box. The constructor rejects
// zero-area polygons, so the loop terminates.
func (p *PolygonRegion) Sample(rng *rand.Rand) Conf {
	lo, hi := p.BoundingBox()
	for {
		c := Conf{
			X: lo.X + rng.Float64()*(hi.X-lo.X),
			Y: lo.Y + rng.Float64()*(hi.Y-lo.Y),
		}
		if p.Contains(c) {
			return c
		}
	}
}

func (p *PolygonRegion) BoundingBox() (Conf, Conf) {
	lo := Conf{X: math.Inf(1), Y: math.Inf(1)}
	hi := Conf{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, v := range p.verts {
		lo.X = math.Min(lo.X, v.X)
		lo.Y = math.Min(lo.Y, v.Y)
		hi.X = math.Max(hi.X, v.X)
		hi.Y = math.Max(hi.Y, v.Y)
	}
	return lo, hi
}

// Volume is the shoelace area.
func (p *PolygonRegion) Volume() float64 {
	area := 0.0
	n := len(p.verts)
	for i := 0; i < n; i++ {
		a, b := p.verts[i], p.verts[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(area) / 2
}

// Expand returns a copy of r inflated by eps: balls grow their radius,
// boxes and polygons become offset polygons.
func Expand(r Region, eps float64) (Region, error) {
	switch reg := r.(type) {
	case *BallRegion:
		return NewBallRegion(reg.center, reg.radius+eps, reg.symbols.List()...)
	case *BoxRegion:
		verts := []Conf{
			{X: reg.lo.X - eps, Y: reg.lo.Y - eps},
			{X: reg.hi.X + eps, Y: reg.lo.Y - eps},
			{X: reg.hi.X + eps, Y: reg.hi.Y + eps},
			{X: reg.lo.X - eps, Y: reg.hi.Y + eps},
		}
		return NewPolygonRegion(verts, reg.symbols.List()...)
	case *PolygonRegion:
		return NewPolygonRegion(offsetPolygon(reg.verts, eps), reg.symbols.List()...)
	default:
		return nil, errors.Wrapf(ErrGeometryInvalid, "expand: unsupported region %T", r)
	}
}

// offsetPolygon pushes each vertex outward along the bisector of its
// adjacent edge normals. The outline must be simple; the offset keeps
// the vertex count (no arc interpolation).
func offsetPolygon(verts []Conf, eps float64) []Conf {
	n := len(verts)
	ccw := signedArea(verts) > 0
	out := make([]Conf, n)
	for i := 0; i < n; i++ {
		prev := verts[(i+n-1)%n]
		next := verts[(i+1)%n]
		n1 := edgeNormal(prev, verts[i], ccw)
		n2 := edgeNormal(verts[i], next, ccw)
		bis := n1.Add(n2)
		if bis.Norm() < 1e-12 {
			bis = n2
		}
		bis = bis.Normalize()
		// scale so that edge offset distance stays eps at the corner
		scale := eps / math.Max(math.Sqrt((1+n1.Dot(n2))/2), 0.5)
		v := verts[i].Vec().Add(bis.Mul(scale))
		out[i] = Conf{X: v.X, Y: v.Y}
	}
	return out
}

func signedArea(verts []Conf) float64 {
	area := 0.0
	n := len(verts)
	for i := 0; i < n; i++ {
		a, b := verts[i], verts[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}

// edgeNormal returns the outward unit normal of edge a->b.
func edgeNormal(a, b Conf, ccw bool) r2.Point {
	d := b.Vec().Sub(a.Vec()).Normalize()
	if ccw {
		return r2.Point{X: d.Y, Y: -d.X}
	}
	return r2.Point{X: -d.Y, Y: d.X}
}

// segmentsCross reports proper or touching intersection of segments
// [a,b] and [c,d] using orientation tests.
func segmentsCross(a, b, c, d Conf) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	if o1*o2 < 0 && o3*o4 < 0 {
		return true
	}
	return (o1 == 0 && onSegment(a, b, c)) ||
		(o2 == 0 && onSegment(a, b, d)) ||
		(o3 == 0 && onSegment(c, d, a)) ||
		(o4 == 0 && onSegment(c, d, b))
}

// orient returns the sign of the cross product (b-a)x(c-a).
func orient(a, b, c Conf) int {
	v := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	switch {
	case v > 1e-12:
		return 1
	case v < -1e-12:
		return -1
	default:
		return 0
	}
}

// onSegment assumes c collinear with [a,b].
func onSegment(a, b, c Conf) bool {
	return math.Min(a.X, b.X)-1e-12 <= c.X && c.X <= math.Max(a.X, b.X)+1e-12 &&
		math.Min(a.Y, b.Y)-1e-12 <= c.Y && c.Y <= math.Max(a.Y, b.Y)+1e-12
}

// IntersectsDisc reports whether a region meets the disc of the given
// center and radius. Sensors use it to decide visibility.
func IntersectsDisc(r Region, center Conf, radius float64) bool {
	switch reg := r.(type) {
	case *BallRegion:
		return center.Dist(reg.center) <= radius+reg.radius
	case *BoxRegion:
		cx := math.Min(math.Max(center.X, reg.lo.X), reg.hi.X)
		cy := math.Min(math.Max(center.Y, reg.lo.Y), reg.hi.Y)
		return center.Dist(Conf{X: cx, Y: cy}) <= radius
	case *PolygonRegion:
		if reg.Contains(center) {
			return true
		}
		n := len(reg.verts)
		for i := 0; i < n; i++ {
			if pointSegmentDist(center, reg.verts[i], reg.verts[(i+1)%n]) <= radius {
				return true
			}
		}
		return false
	default:
		return r.Contains(center)
	}
}

func pointSegmentDist(p, a, b Conf) float64 {
	u := b.Vec().Sub(a.Vec())
	n2 := u.Dot(u)
	if n2 < 1e-24 {
		return p.Dist(a)
	}
	t := math.Min(math.Max(p.Vec().Sub(a.Vec()).Dot(u)/n2, 0), 1)
	q := a.Vec().Add(u.Mul(t))
	return p.Dist(Conf{X: q.X, Y: q.Y})
}
