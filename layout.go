package amrsim

import (
	"fmt"
	"math"

	orb "github.com/paulmach/orb"
)

// LoopName identifies one of the fixed rectangular loops of the warehouse
type LoopName string

// The loops, ordered left to right. Connectors carry the same names.
const (
	LeftOuter  LoopName = "leftOuter"
	LeftMid    LoopName = "leftMid"
	Center     LoopName = "center"
	RightMid   LoopName = "rightMid"
	RightOuter LoopName = "rightOuter"
)

// Edge ids of a loop. They are chained clockwise top -> right -> bottom -> left.
const (
	EdgeTop    = 0
	EdgeRight  = 1
	EdgeBottom = 2
	EdgeLeft   = 3
)

var loopOrder = []LoopName{LeftOuter, LeftMid, Center, RightMid, RightOuter}

// loopPairs names the two connectors spanned by each loop. rightMid spans the
// same corridor stretch as center but is entered from the right side.
var loopPairs = map[LoopName][2]LoopName{
	LeftOuter:  {LeftOuter, LeftMid},
	LeftMid:    {LeftMid, Center},
	Center:     {Center, RightMid},
	RightMid:   {RightMid, Center},
	RightOuter: {RightMid, RightOuter},
}

// detourTable maps a default loop to the loop used while the obstacle is up.
var detourTable = map[LoopName]LoopName{
	LeftOuter:  LeftOuter,
	LeftMid:    LeftOuter,
	Center:     LeftOuter,
	RightMid:   RightOuter,
	RightOuter: RightOuter,
}

// ParseLoop returns the loop with the given name.
func ParseLoop(name string) (LoopName, error) {
	l := LoopName(name)
	if _, ok := loopPairs[l]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownLoop, name)
	}
	return l, nil
}

// Connector is a named aisle x-coordinate shared by neighbouring loops
type Connector struct {
	Name LoopName
	X    float64
}

// Circle is used for the obstacle
type Circle struct {
	Center orb.Point
	Radius float64
}

// LayoutConfig holds the raw warehouse dimensions in pixels.
type LayoutConfig struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	ShelfWidth     float64 `json:"shelfWidth"`
	ShelfHeight    float64 `json:"shelfHeight"`
	ShelfCols      int     `json:"shelfCols"`
	MarginX        float64 `json:"marginX"`
	CorridorOffset float64 `json:"corridorOffset"`
	ObstacleRadius float64 `json:"obstacleRadius"`
}

// DefaultLayoutConfig is the 1024x640 warehouse with six shelf columns.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		Width:          1024,
		Height:         640,
		ShelfWidth:     120,
		ShelfHeight:    300,
		ShelfCols:      6,
		MarginX:        60,
		CorridorOffset: 60,
		ObstacleRadius: 28,
	}
}

// Layout is the immutable geometry shared by every part of the simulation.
// It is safe for concurrent reads.
type Layout struct {
	cfg        LayoutConfig
	centerY    float64
	topY       float64
	bottomY    float64
	shelfXs    []float64
	connectors []Connector
	shelves    []orb.Bound
	obstacle   Circle
	edges      map[LoopName][4]Edge
}

// NewLayout derives connectors, shelves, the obstacle and the loop edges from
// cfg. Geometry that would produce overlapping shelves or zero-length edges is
// rejected.
func NewLayout(cfg LayoutConfig) (*Layout, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.ShelfWidth <= 0 || cfg.ShelfHeight <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive", ErrInvalidLayout)
	}
	if cfg.ShelfCols != len(loopOrder)+1 {
		return nil, fmt.Errorf("%w: need %d shelf columns, got %d", ErrInvalidLayout, len(loopOrder)+1, cfg.ShelfCols)
	}
	if cfg.ObstacleRadius <= 0 || cfg.CorridorOffset < 0 || cfg.MarginX < 0 {
		return nil, fmt.Errorf("%w: negative offsets or obstacle radius", ErrInvalidLayout)
	}

	usable := cfg.Width - 2*cfg.MarginX
	gap := (usable - float64(cfg.ShelfCols)*cfg.ShelfWidth) / float64(cfg.ShelfCols-1)
	if gap < 0 {
		return nil, fmt.Errorf("%w: %d shelves of width %v do not fit in %v", ErrInvalidLayout, cfg.ShelfCols, cfg.ShelfWidth, usable)
	}

	l := &Layout{
		cfg:     cfg,
		centerY: math.Floor(cfg.Height * 0.55),
		edges:   make(map[LoopName][4]Edge, len(loopOrder)),
	}
	l.topY = l.centerY - cfg.ShelfHeight/2 - cfg.CorridorOffset
	l.bottomY = l.centerY + cfg.ShelfHeight/2 + cfg.CorridorOffset

	for i := 0; i < cfg.ShelfCols; i++ {
		x := cfg.MarginX + float64(i)*(cfg.ShelfWidth+gap) + cfg.ShelfWidth/2
		l.shelfXs = append(l.shelfXs, x)
		l.shelves = append(l.shelves, orb.Bound{
			Min: orb.Point{x - cfg.ShelfWidth/2, l.centerY - cfg.ShelfHeight/2},
			Max: orb.Point{x + cfg.ShelfWidth/2, l.centerY + cfg.ShelfHeight/2},
		})
	}
	for i, name := range loopOrder {
		l.connectors = append(l.connectors, Connector{
			Name: name,
			X:    (l.shelfXs[i] + l.shelfXs[i+1]) / 2,
		})
	}
	l.obstacle = Circle{
		Center: orb.Point{l.connectorX(Center), l.centerY},
		Radius: cfg.ObstacleRadius,
	}

	for _, loop := range loopOrder {
		edges := l.buildEdges(loop)
		for id, e := range edges {
			if !(e.Length > 0) {
				return nil, fmt.Errorf("%w: loop %s edge %d has length %v", ErrDegenerateEdge, loop, id, e.Length)
			}
		}
		l.edges[loop] = edges
	}

	return l, nil
}

// DefaultLayout builds the layout from DefaultLayoutConfig.
func DefaultLayout() *Layout {
	l, err := NewLayout(DefaultLayoutConfig())
	if err != nil {
		panic(err)
	}
	return l
}

func (l *Layout) connectorX(name LoopName) float64 {
	for _, c := range l.connectors {
		if c.Name == name {
			return c.X
		}
	}
	panic(fmt.Errorf("%w: connector %q", ErrUnknownLoop, name))
}

func (l *Layout) buildEdges(loop LoopName) [4]Edge {
	pair := loopPairs[loop]
	x1, x2 := l.connectorX(pair[0]), l.connectorX(pair[1])
	minX, maxX := math.Min(x1, x2), math.Max(x1, x2)
	height := math.Abs(l.bottomY - l.topY)

	return [4]Edge{
		EdgeTop: {
			Orientation: Horizontal, Fixed: l.topY,
			From: minX, To: maxX, Length: maxX - minX,
			Next: EdgeRight, Prev: EdgeLeft,
		},
		EdgeRight: {
			Orientation: Vertical, Fixed: maxX,
			From: l.topY, To: l.bottomY, Length: height,
			Next: EdgeBottom, Prev: EdgeTop,
		},
		EdgeBottom: {
			Orientation: Horizontal, Fixed: l.bottomY,
			From: maxX, To: minX, Length: maxX - minX,
			Next: EdgeLeft, Prev: EdgeRight,
		},
		EdgeLeft: {
			Orientation: Vertical, Fixed: minX,
			From: l.bottomY, To: l.topY, Length: height,
			Next: EdgeTop, Prev: EdgeBottom,
		},
	}
}

// Config returns the configuration the layout was built from.
func (l *Layout) Config() LayoutConfig { return l.cfg }

// Loops returns the loop names ordered left to right.
func (l *Layout) Loops() []LoopName { return append([]LoopName(nil), loopOrder...) }

// Connectors returns the five connectors ordered left to right.
func (l *Layout) Connectors() []Connector { return append([]Connector(nil), l.connectors...) }

// Shelves returns the static shelf rectangles.
func (l *Layout) Shelves() []orb.Bound { return append([]orb.Bound(nil), l.shelves...) }

// Obstacle returns the obstacle circle at the center connector.
func (l *Layout) Obstacle() Circle { return l.obstacle }

// Corridors returns the y-coordinates of the top and bottom corridors.
func (l *Layout) Corridors() (top, bottom float64) { return l.topY, l.bottomY }

// Edges returns the four edges of loop ordered top, right, bottom, left.
func (l *Layout) Edges(loop LoopName) [4]Edge {
	edges, ok := l.edges[loop]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownLoop, loop))
	}
	return edges
}

// Edge returns a single edge of loop.
func (l *Layout) Edge(loop LoopName, edgeID int) Edge {
	return l.Edges(loop)[edgeID]
}

// IsCentral reports whether loop touches the obstacle's connector.
func (l *Layout) IsCentral(loop LoopName) bool {
	return loop == LeftMid || loop == Center || loop == RightMid
}

// Detour returns the loop an agent whose default loop is defaultLoop uses
// while the obstacle is active.
func (l *Layout) Detour(defaultLoop LoopName) LoopName {
	d, ok := detourTable[defaultLoop]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownLoop, defaultLoop))
	}
	return d
}

// LoopBound is the axis aligned rectangle traced by loop.
func (l *Layout) LoopBound(loop LoopName) orb.Bound {
	e := l.Edges(loop)
	return orb.Bound{
		Min: orb.Point{e[EdgeLeft].Fixed, l.topY},
		Max: orb.Point{e[EdgeRight].Fixed, l.bottomY},
	}
}

// Ring returns the closed clockwise ring of loop starting at its top-left corner.
func (l *Layout) Ring(loop LoopName) orb.Ring {
	ring := make(orb.Ring, 0, 5)
	for id := range l.Edges(loop) {
		ring = append(ring, l.Position(loop, id, 0))
	}
	return append(ring, ring[0])
}
