package amrsim

import (
	"fmt"
	"math"

	orb "github.com/paulmach/orb"
)

// Orientation of an edge
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Edge is one side of a loop. From and To are coordinates on the free axis,
// Fixed is the coordinate on the other axis.
type Edge struct {
	Orientation Orientation
	Fixed       float64
	From        float64
	To          float64
	Length      float64
	Next        int
	Prev        int
}

// Horizontal reports whether the edge runs along a corridor.
func (e Edge) Horizontal() bool { return e.Orientation == Horizontal }

func (e Edge) sign() float64 {
	if e.To >= e.From {
		return 1
	}
	return -1
}

// Direction of travel around a loop.
type Direction int

const (
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// Cursor is a point on a loop expressed as edge + arclength, plus the
// direction the agent is moving in.
type Cursor struct {
	Loop   LoopName
	EdgeID int
	Dir    Direction
	S      float64
}

// Position converts arclength s on the given edge into absolute coordinates.
// s is clamped into [0, length].
func (l *Layout) Position(loop LoopName, edgeID int, s float64) orb.Point {
	e := l.Edge(loop, edgeID)
	s = clampF(s, 0, e.Length)
	v := e.From + e.sign()*s
	if e.Horizontal() {
		return orb.Point{v, e.Fixed}
	}
	return orb.Point{e.Fixed, v}
}

// CursorPosition is Position for a cursor.
func (l *Layout) CursorPosition(c Cursor) orb.Point {
	return l.Position(c.Loop, c.EdgeID, c.S)
}

// Tangent is the unit vector of clockwise travel along the given edge.
func (l *Layout) Tangent(loop LoopName, edgeID int) orb.Point {
	e := l.Edge(loop, edgeID)
	if e.Horizontal() {
		return orb.Point{e.sign(), 0}
	}
	return orb.Point{0, e.sign()}
}

// Perimeter is the total length of a loop.
func (l *Layout) Perimeter(loop LoopName) float64 {
	var p float64
	for _, e := range l.Edges(loop) {
		p += e.Length
	}
	return p
}

// Advance moves c forward by ds in its current direction. Whatever is left
// after reaching a corner is carried, unscaled, onto the next edge in that
// direction until ds is used up. Negative, NaN and infinite ds are ignored.
func (l *Layout) Advance(c *Cursor, ds float64) {
	if !(ds > 0) || math.IsInf(ds, 1) {
		return
	}
	edges := l.Edges(c.Loop)
	c.S = clampF(c.S, 0, edges[c.EdgeID].Length)

	remaining := ds
	if perim := l.Perimeter(c.Loop); remaining > perim {
		// Whole laps end where they started.
		remaining = math.Mod(remaining, perim)
	}

	forward := c.Dir != CounterClockwise
	for remaining > 0 {
		e := edges[c.EdgeID]
		toEnd := c.S
		if forward {
			toEnd = e.Length - c.S
		}
		if remaining <= toEnd {
			if forward {
				c.S += remaining
			} else {
				c.S -= remaining
			}
			break
		}

		remaining -= toEnd
		if forward {
			c.EdgeID = e.Next
			c.S = 0
		} else {
			c.EdgeID = e.Prev
			c.S = edges[c.EdgeID].Length
		}
	}
	c.S = clampF(c.S, 0, edges[c.EdgeID].Length)
}

// MapProgress re-expresses relative progress t on a horizontal edge of src as
// the matching horizontal edge of dst and an absolute arclength on it.
// Calling it for a vertical edge is a programming error and panics with
// ErrNotHorizontal.
func (l *Layout) MapProgress(src, dst LoopName, edgeID int, t float64) (int, float64) {
	if e := l.Edge(src, edgeID); !e.Horizontal() {
		panic(fmt.Errorf("%w: %s edge %d is %s", ErrNotHorizontal, src, edgeID, e.Orientation))
	}
	de := l.Edge(dst, edgeID)
	return edgeID, clampF(t, 0, 1) * de.Length
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
