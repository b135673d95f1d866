package amrsim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Params.Validate())
	_, err := NewLayout(cfg.Layout)
	require.NoError(t, err)
}

func TestParseConfigOverridesFields(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
params: {
	nudgeDistance: 20
	graceTicks:    5
}
layout: obstacleRadius: 40
`))
	require.NoError(t, err)

	assert.Equal(t, 20.0, cfg.Params.NudgeDistance)
	assert.Equal(t, 5, cfg.Params.GraceTicks)
	assert.Equal(t, 40.0, cfg.Layout.ObstacleRadius)

	// untouched fields keep their defaults
	def := DefaultConfig()
	assert.Equal(t, def.Params.BaseSpeed, cfg.Params.BaseSpeed)
	assert.Equal(t, def.Params.Agents, cfg.Params.Agents)
	assert.Equal(t, def.Layout.Width, cfg.Layout.Width)
}

func TestParseConfigReplacesAgents(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
params: agents: [
	{defaultLoop: "rightOuter", color: "#123456"},
]
`))
	require.NoError(t, err)
	assert.Equal(t, []AgentSpec{{DefaultLoop: RightOuter, Color: "#123456"}}, cfg.Params.Agents)
}

func TestParseConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"negative grace", `params: graceTicks: -1`},
		{"unknown field", `params: turbo: true`},
		{"unknown section", `render: fps: 60`},
		{"unknown loop", `params: agents: [{defaultLoop: "outer"}]`},
		{"not concrete", `params: baseSpeed: number`},
		{"syntax", `params: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigAppliesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.cue")
	override := filepath.Join(dir, "override.cue")
	require.NoError(t, os.WriteFile(base, []byte(`params: {baseSpeed: 80, speedJitter: 10}`), 0644))
	require.NoError(t, os.WriteFile(override, []byte(`params: baseSpeed: 90`), 0644))

	cfg, err := LoadConfig(base, override)
	require.NoError(t, err)
	assert.Equal(t, 90.0, cfg.Params.BaseSpeed)
	assert.Equal(t, 10.0, cfg.Params.SpeedJitter)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigWithoutFiles(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSampleConfigLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("examples", "amrsim.cue"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
