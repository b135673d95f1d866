package amrsim

import (
	"log/slog"
	"math"

	orb "github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Motion is the navigation mode of an agent: either Cruising or
// *Transitioning.
type Motion interface {
	isMotion()
}

// Cruising agents advance along their current loop.
type Cruising struct{}

func (Cruising) isMotion() {}

// Transitioning agents slide sideways along a corridor from one loop onto the
// matching horizontal edge of another. The slide runs at a constant lateral
// speed regardless of the agent's travel speed.
type Transitioning struct {
	To       LoopName
	EdgeID   int
	DstS     float64
	StartX   float64
	TargetX  float64
	Y        float64
	Progress float64
}

func (*Transitioning) isMotion() {}

// An Agent is one robot travelling around the loops
type Agent struct {
	ID    string
	Color string
	Speed float64

	Cursor Cursor
	Motion Motion

	ReroutePending bool
	RestorePending bool
	Grace          int

	// Pos is the current position, Prev the position before the last tick.
	Pos  orb.Point
	Prev orb.Point

	// JustSwitched is set on the tick that committed a loop transition.
	JustSwitched bool

	defaultLoop LoopName
}

// NewAgent places an agent at the top-left corner of defaultLoop, heading
// clockwise.
func NewAgent(l *Layout, id, color string, speed float64, defaultLoop LoopName) *Agent {
	a := &Agent{
		ID:          id,
		Color:       color,
		Speed:       speed,
		Cursor:      Cursor{Loop: defaultLoop, EdgeID: EdgeTop, Dir: Clockwise},
		Motion:      Cruising{},
		defaultLoop: defaultLoop,
	}
	a.Pos = l.CursorPosition(a.Cursor)
	a.Prev = a.Pos
	return a
}

// DefaultLoop is the loop the agent returns to once the obstacle is gone.
func (a *Agent) DefaultLoop() LoopName { return a.defaultLoop }

// Loop is the loop the agent is currently committed to.
func (a *Agent) Loop() LoopName { return a.Cursor.Loop }

// Transitioning reports whether the agent is in the middle of a lane change.
func (a *Agent) Transitioning() bool {
	_, ok := a.Motion.(*Transitioning)
	return ok
}

// Mode names the current motion for logs and renderers.
func (a *Agent) Mode() string {
	if a.Transitioning() {
		return "transitioning"
	}
	return "cruising"
}

// Navigator runs the per agent state machine against a shared layout.
type Navigator struct {
	layout *Layout
	params Params
	logger *slog.Logger
}

// NewNavigator returns a navigator. A nil logger discards output.
func NewNavigator(l *Layout, p Params, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Navigator{layout: l, params: p, logger: logger}
}

// Activate is applied to every agent on the tick the obstacle switches on.
// Agents on a central loop turn away from the obstacle, get nudged clear of
// it and are marked for rerouting.
func (n *Navigator) Activate(a *Agent) {
	if !n.layout.IsCentral(a.Cursor.Loop) {
		return
	}
	a.RestorePending = false
	a.ReroutePending = true
	if a.Transitioning() {
		return
	}
	n.evade(a)
}

// Deactivate is applied to every agent on the tick the obstacle switches
// off. Leftover reroute intents are dropped and agents that are still on
// their default loop resume clockwise travel.
func (n *Navigator) Deactivate(a *Agent) {
	a.ReroutePending = false
	if !a.Transitioning() && a.Cursor.Loop == a.defaultLoop {
		a.Cursor.Dir = Clockwise
	}
}

// Step advances a by one tick. It reports whether the agent ran into the
// obstacle during this tick.
func (n *Navigator) Step(a *Agent, dt float64, active bool) bool {
	a.JustSwitched = false
	a.Prev = a.Pos

	if !active && !a.Transitioning() && a.Cursor.Loop != a.defaultLoop {
		a.RestorePending = true
		a.ReroutePending = false
	}

	if m, ok := a.Motion.(*Transitioning); ok {
		n.slide(a, m, dt)
		if a.Grace > 0 {
			a.Grace--
		}
		return false
	}

	before := a.Cursor
	n.cruise(a, dt)

	collided := false
	if a.Grace > 0 {
		a.Grace--
	} else if active && n.layout.IsCentral(a.Cursor.Loop) {
		collided = n.checkObstacle(a, before)
	}

	n.laneChange(a, active)
	return collided
}

func (n *Navigator) cruise(a *Agent, dt float64) {
	before := a.Cursor
	n.layout.Advance(&a.Cursor, a.Speed*dt)
	pos := n.layout.CursorPosition(a.Cursor)
	if n.layout.SegmentIntersectsShelves(a.Prev, pos) {
		a.Cursor = before
		pos = n.layout.CursorPosition(before)
		n.logger.Debug("motion blocked by shelf", "agent", a.ID, "loop", a.Cursor.Loop, "edge", a.Cursor.EdgeID)
	}
	a.Pos = pos
}

func (n *Navigator) checkObstacle(a *Agent, before Cursor) bool {
	obs := n.layout.Obstacle()
	if !SegmentIntersectsCircle(a.Prev, a.Pos, obs) && !obs.Contains(a.Pos) {
		return false
	}

	a.Cursor = before
	n.evade(a)
	a.ReroutePending = true
	a.RestorePending = false
	n.logger.Info("obstacle collision",
		"agent", a.ID,
		"loop", a.Cursor.Loop,
		"edge", a.Cursor.EdgeID,
		"dir", int(a.Cursor.Dir),
	)
	return true
}

// evade points the agent away from the obstacle, moves it by the nudge
// distance and opens the grace window.
func (n *Navigator) evade(a *Agent) {
	a.Cursor.Dir = n.awayFromObstacle(a.Cursor)
	n.layout.Advance(&a.Cursor, n.params.NudgeDistance)
	a.Pos = n.layout.CursorPosition(a.Cursor)
	a.Grace = n.params.GraceTicks
}

// awayFromObstacle probes one nudge length in both directions and keeps the
// one that ends up farther from the obstacle. Ties go clockwise.
func (n *Navigator) awayFromObstacle(c Cursor) Direction {
	center := n.layout.Obstacle().Center
	probe := math.Max(n.params.NudgeDistance, 1)

	cw, ccw := c, c
	cw.Dir, ccw.Dir = Clockwise, CounterClockwise
	n.layout.Advance(&cw, probe)
	n.layout.Advance(&ccw, probe)

	if planar.Distance(n.layout.CursorPosition(ccw), center) > planar.Distance(n.layout.CursorPosition(cw), center) {
		return CounterClockwise
	}
	return Clockwise
}

// laneChange starts a pending reroute or restore. Lanes can only be changed
// from a horizontal edge since only the corridors are shared between loops.
func (n *Navigator) laneChange(a *Agent, active bool) {
	e := n.layout.Edge(a.Cursor.Loop, a.Cursor.EdgeID)
	if !e.Horizontal() {
		return
	}

	switch {
	case a.ReroutePending:
		a.ReroutePending = false
		to := n.layout.Detour(a.defaultLoop)
		if to == a.Cursor.Loop {
			return
		}
		// Detours enter at the corner the corridor edge starts from.
		_, s := n.layout.MapProgress(a.Cursor.Loop, to, a.Cursor.EdgeID, 0)
		n.begin(a, to, s, "reroute")
	case a.RestorePending && !active:
		a.RestorePending = false
		if a.Cursor.Loop == a.defaultLoop {
			return
		}
		t := a.Cursor.S / e.Length
		_, s := n.layout.MapProgress(a.Cursor.Loop, a.defaultLoop, a.Cursor.EdgeID, t)
		n.begin(a, a.defaultLoop, s, "restore")
	}
}

func (n *Navigator) begin(a *Agent, to LoopName, dstS float64, reason string) {
	target := n.layout.Position(to, a.Cursor.EdgeID, dstS)
	a.Motion = &Transitioning{
		To:      to,
		EdgeID:  a.Cursor.EdgeID,
		DstS:    dstS,
		StartX:  a.Pos[0],
		TargetX: target[0],
		Y:       n.layout.Edge(a.Cursor.Loop, a.Cursor.EdgeID).Fixed,
	}
	n.logger.Debug("transition started",
		"agent", a.ID,
		"reason", reason,
		"from", a.Cursor.Loop,
		"to", to,
		"edge", a.Cursor.EdgeID,
	)
}

func (n *Navigator) slide(a *Agent, m *Transitioning, dt float64) {
	dist := math.Max(1, math.Abs(m.TargetX-m.StartX))
	m.Progress = clampF(m.Progress+n.params.TransitionVelocity()/dist*dt, 0, 1)
	a.Pos = orb.Point{lerp(m.StartX, m.TargetX, m.Progress), m.Y}
	if m.Progress < 1 {
		return
	}

	from := a.Cursor.Loop
	a.Cursor = Cursor{Loop: m.To, EdgeID: m.EdgeID, Dir: Clockwise, S: m.DstS}
	a.Motion = Cruising{}
	a.Pos = n.layout.CursorPosition(a.Cursor)
	a.JustSwitched = true
	n.logger.Debug("transition committed", "agent", a.ID, "from", from, "to", m.To)
}
