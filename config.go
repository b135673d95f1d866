package amrsim

import (
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// AgentSpec describes one agent created at simulation start.
type AgentSpec struct {
	DefaultLoop LoopName `json:"defaultLoop"`
	Color       string   `json:"color"`
}

// Params are the tunables of the navigation state machine. NudgeDistance and
// GraceTicks were tuned for ~60 ticks per second and should be retuned for
// other tick rates.
type Params struct {
	SpeedMult       float64     `json:"speedMult"`
	BaseSpeed       float64     `json:"baseSpeed"`
	SpeedJitter     float64     `json:"speedJitter"`
	TransitionSpeed float64     `json:"transitionSpeed"`
	NudgeDistance   float64     `json:"nudgeDistance"`
	GraceTicks      int         `json:"graceTicks"`
	MaxDT           float64     `json:"maxDt"`
	TrailLength     int         `json:"trailLength"`
	Agents          []AgentSpec `json:"agents"`
}

// DefaultParams returns the stock three agent setup.
func DefaultParams() Params {
	return Params{
		SpeedMult:       3,
		BaseSpeed:       120,
		SpeedJitter:     40,
		TransitionSpeed: 220,
		NudgeDistance:   15,
		GraceTicks:      3,
		MaxDT:           0.05,
		TrailLength:     512,
		Agents: []AgentSpec{
			{DefaultLoop: LeftMid, Color: "#ff0000"},
			{DefaultLoop: Center, Color: "#00a2ff"},
			{DefaultLoop: RightMid, Color: "#00ff66"},
		},
	}
}

// TransitionVelocity is the lateral lane-change speed in px/s.
func (p Params) TransitionVelocity() float64 { return p.TransitionSpeed * p.SpeedMult }

// Validate checks that p can drive a simulation.
func (p Params) Validate() error {
	switch {
	case !(p.SpeedMult > 0):
		return fmt.Errorf("%w: speedMult must be positive", ErrInvalidParams)
	case !(p.BaseSpeed > 0):
		return fmt.Errorf("%w: baseSpeed must be positive", ErrInvalidParams)
	case p.SpeedJitter < 0:
		return fmt.Errorf("%w: speedJitter must not be negative", ErrInvalidParams)
	case !(p.TransitionSpeed > 0):
		return fmt.Errorf("%w: transitionSpeed must be positive", ErrInvalidParams)
	case p.NudgeDistance < 0:
		return fmt.Errorf("%w: nudgeDistance must not be negative", ErrInvalidParams)
	case p.GraceTicks < 0:
		return fmt.Errorf("%w: graceTicks must not be negative", ErrInvalidParams)
	case !(p.MaxDT > 0):
		return fmt.Errorf("%w: maxDt must be positive", ErrInvalidParams)
	case p.TrailLength < 0:
		return fmt.Errorf("%w: trailLength must not be negative", ErrInvalidParams)
	}
	for i, a := range p.Agents {
		if _, err := ParseLoop(string(a.DefaultLoop)); err != nil {
			return fmt.Errorf("%w: agent %d: %w", ErrInvalidParams, i, err)
		}
	}
	return nil
}

// Config bundles layout and params as read from CUE files.
type Config struct {
	Layout LayoutConfig `json:"layout"`
	Params Params       `json:"params"`
}

// DefaultConfig returns the default layout and params.
func DefaultConfig() Config {
	return Config{
		Layout: DefaultLayoutConfig(),
		Params: DefaultParams(),
	}
}

const configSchema = `
layout?: close({
	width?:          number & >0
	height?:         number & >0
	shelfWidth?:     number & >0
	shelfHeight?:    number & >0
	shelfCols?:      int & >0
	marginX?:        number & >=0
	corridorOffset?: number & >=0
	obstacleRadius?: number & >0
})
params?: close({
	speedMult?:       number & >0
	baseSpeed?:       number & >0
	speedJitter?:     number & >=0
	transitionSpeed?: number & >0
	nudgeDistance?:   number & >=0
	graceTicks?:      int & >=0
	maxDt?:           number & >0
	trailLength?:     int & >=0
	agents?: [...close({
		defaultLoop: "leftOuter" | "leftMid" | "center" | "rightMid" | "rightOuter"
		color?:      string
	})]
})
`

// LoadConfig starts from DefaultConfig and applies each CUE file in order.
// Fields missing from a file keep their previous value.
func LoadConfig(paths ...string) (Config, error) {
	cfg := DefaultConfig()
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := cfg.apply(content, path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.Params.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseConfig is LoadConfig for in-memory CUE source.
func ParseConfig(src []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.apply(src, "config.cue"); err != nil {
		return cfg, err
	}
	if err := cfg.Params.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) apply(src []byte, filename string) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString("close({" + configSchema + "})")
	if err := schema.Err(); err != nil {
		return err
	}

	value := ctx.CompileBytes(src, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return err
	}
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return err
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return err
	}

	// Arrays replace, they are not merged element by element.
	var probe struct {
		Params struct {
			Agents json.RawMessage `json:"agents"`
		} `json:"params"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Params.Agents != nil {
		c.Params.Agents = nil
	}
	return json.Unmarshal(data, c)
}
