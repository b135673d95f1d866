package amrsim

import (
	orb "github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Contains reports whether p lies inside or on the circle.
func (c Circle) Contains(p orb.Point) bool {
	return planar.Distance(p, c.Center) <= c.Radius
}

// StrictlyContains is Contains without the boundary.
func (c Circle) StrictlyContains(p orb.Point) bool {
	return planar.Distance(p, c.Center) < c.Radius
}

// SegmentIntersectsCircle checks the point of segment ab closest to the
// circle's center. Testing the whole segment instead of only b catches
// motion that jumps across the circle within a single tick.
func SegmentIntersectsCircle(a, b orb.Point, c Circle) bool {
	abx, aby := b[0]-a[0], b[1]-a[1]
	lab2 := abx*abx + aby*aby
	if lab2 == 0 {
		return c.Contains(a)
	}
	t := clampF(((c.Center[0]-a[0])*abx+(c.Center[1]-a[1])*aby)/lab2, 0, 1)
	closest := orb.Point{a[0] + abx*t, a[1] + aby*t}
	return c.Contains(closest)
}

// SegmentIntersectsBound clips segment ab against the rectangle one half-plane
// at a time (Liang-Barsky). The segment hits the rectangle when the remaining
// parameter interval is non-empty and overlaps [0, 1].
func SegmentIntersectsBound(a, b orb.Point, r orb.Bound) bool {
	dx, dy := b[0]-a[0], b[1]-a[1]
	t0, t1 := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	if !clip(-dx, a[0]-r.Min[0]) ||
		!clip(dx, r.Max[0]-a[0]) ||
		!clip(-dy, a[1]-r.Min[1]) ||
		!clip(dy, r.Max[1]-a[1]) {
		return false
	}
	return t0 <= t1 && !(t1 < 0 || t0 > 1)
}

// SegmentIntersectsShelves reports whether ab crosses any shelf.
func (l *Layout) SegmentIntersectsShelves(a, b orb.Point) bool {
	for _, r := range l.shelves {
		if SegmentIntersectsBound(a, b, r) {
			return true
		}
	}
	return false
}
