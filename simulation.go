package amrsim

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"
	orb "github.com/paulmach/orb"
)

// Simulation owns the agents and advances them once per Tick.
type Simulation struct {
	layout *Layout
	params Params
	nav    *Navigator
	signal *ObstacleSignal
	logger *slog.Logger
	rng    *rand.Rand

	agents []*Agent
	trails []*Trail

	active      bool
	broadcasted bool
	ticks       uint64
}

// Option configures a Simulation
type Option func(*Simulation)

// WithLogger sets the logger used by the simulation and its navigator.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulation) { s.logger = l }
}

// WithRand sets the source for per agent speed jitter.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulation) { s.rng = r }
}

// WithSignal makes the simulation read the obstacle state from sig.
func WithSignal(sig *ObstacleSignal) Option {
	return func(s *Simulation) { s.signal = sig }
}

// NewSimulation creates one agent per params.Agents entry, each at the
// top-left corner of its default loop.
func NewSimulation(l *Layout, p Params, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{layout: l, params: p}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.signal == nil {
		s.signal = &ObstacleSignal{}
	}
	s.nav = NewNavigator(l, p, s.logger)

	for _, as := range p.Agents {
		speed := (p.BaseSpeed + s.rng.Float64()*p.SpeedJitter) * p.SpeedMult
		a := NewAgent(l, uuid.NewString(), as.Color, speed, as.DefaultLoop)
		s.agents = append(s.agents, a)
		t := NewTrail(p.TrailLength)
		t.Add(a.Pos, false)
		s.trails = append(s.trails, t)
		s.logger.Debug("agent created", "agent", a.ID, "loop", a.defaultLoop, "speed", speed)
	}
	return s, nil
}

// Layout returns the shared geometry.
func (s *Simulation) Layout() *Layout { return s.layout }

// Signal returns the obstacle signal the simulation reads from.
func (s *Simulation) Signal() *ObstacleSignal { return s.signal }

// Agents returns the agents in update order.
func (s *Simulation) Agents() []*Agent { return append([]*Agent(nil), s.agents...) }

// Active is the obstacle state sampled by the last tick.
func (s *Simulation) Active() bool { return s.active }

// Ticks is the number of ticks run so far.
func (s *Simulation) Ticks() uint64 { return s.ticks }

// Tick advances every agent by dt seconds. dt is clamped into [0, MaxDT] and
// the obstacle state is sampled once for the whole tick.
func (s *Simulation) Tick(dt float64) {
	if !(dt > 0) {
		dt = 0
	}
	dt = clampF(dt, 0, s.params.MaxDT)
	active := s.signal.Active()

	switch {
	case active && !s.active:
		s.broadcasted = false
		s.logger.Info("obstacle activated", "tick", s.ticks)
		for _, a := range s.agents {
			s.nav.Activate(a)
		}
	case !active && s.active:
		s.logger.Info("obstacle deactivated", "tick", s.ticks)
		for _, a := range s.agents {
			s.nav.Deactivate(a)
		}
	}
	s.active = active

	for i, a := range s.agents {
		if s.nav.Step(a, dt, active) && !s.broadcasted {
			s.broadcasted = true
			s.broadcastReroute(a)
		}
		s.trails[i].Add(a.Pos, a.JustSwitched)
	}
	s.ticks++
}

// broadcastReroute tells every other central loop agent to reroute. It is
// sent once per obstacle activation, on the first collision.
func (s *Simulation) broadcastReroute(origin *Agent) {
	n := 0
	for _, a := range s.agents {
		if a == origin || !s.layout.IsCentral(a.Cursor.Loop) || a.ReroutePending {
			continue
		}
		a.ReroutePending = true
		a.RestorePending = false
		n++
	}
	s.logger.Info("reroute broadcast", "origin", origin.ID, "agents", n)
}

// AgentView is a read-only copy of an agent for renderers.
type AgentView struct {
	ID           string
	Color        string
	Loop         LoopName
	DefaultLoop  LoopName
	Mode         string
	Pos          orb.Point
	Prev         orb.Point
	JustSwitched bool
}

func (v AgentView) String() string {
	return fmt.Sprintf("%s %s/%s %s (%.1f, %.1f)", v.ID, v.Loop, v.DefaultLoop, v.Mode, v.Pos[0], v.Pos[1])
}

// Snapshot returns the renderer-facing state of every agent.
func (s *Simulation) Snapshot() []AgentView {
	views := make([]AgentView, 0, len(s.agents))
	for _, a := range s.agents {
		views = append(views, AgentView{
			ID:           a.ID,
			Color:        a.Color,
			Loop:         a.Cursor.Loop,
			DefaultLoop:  a.defaultLoop,
			Mode:         a.Mode(),
			Pos:          a.Pos,
			Prev:         a.Prev,
			JustSwitched: a.JustSwitched,
		})
	}
	return views
}

// Trail returns the recorded trail of the i-th agent.
func (s *Simulation) Trail(i int) *Trail { return s.trails[i] }

// Trail is a bounded record of the most recent positions of an agent. A new
// line is started whenever the agent snaps onto another loop.
type Trail struct {
	limit int
	count int
	lines []orb.LineString
}

// NewTrail keeps at most limit points. A zero limit records nothing.
func NewTrail(limit int) *Trail {
	return &Trail{limit: limit}
}

// Add records p. split starts a new line before p.
func (t *Trail) Add(p orb.Point, split bool) {
	if t.limit <= 0 {
		return
	}
	if split || len(t.lines) == 0 {
		t.lines = append(t.lines, orb.LineString{})
	}
	last := &t.lines[len(t.lines)-1]
	if n := len(*last); n > 0 && (*last)[n-1] == p {
		return
	}
	*last = append(*last, p)
	t.count++

	for t.count > t.limit {
		t.lines[0] = t.lines[0][1:]
		t.count--
		if len(t.lines[0]) == 0 {
			t.lines = t.lines[1:]
		}
	}
}

// Len is the number of recorded points.
func (t *Trail) Len() int { return t.count }

// MultiLineString returns the lines with at least two points.
func (t *Trail) MultiLineString() orb.MultiLineString {
	var mls orb.MultiLineString
	for _, ls := range t.lines {
		if len(ls) < 2 {
			continue
		}
		mls = append(mls, append(orb.LineString(nil), ls...))
	}
	return mls
}
