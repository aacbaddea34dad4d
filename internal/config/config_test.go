package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/mash-controller/internal/logic"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.validate())

	assert.Equal(t, logic.DefaultRecipe(), cfg.RecipeStages())
	assert.Equal(t, logic.DefaultSettings(), cfg.Settings())
	assert.Equal(t, 50*time.Millisecond, cfg.Tick())
	assert.Equal(t, cfg.Tick(), cfg.TimingTick())
	assert.Equal(t, 15*time.Minute, cfg.Heartbeat())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadYAMLPartial(t *testing.T) {
	path := writeFile(t, "mash.yaml", `
recipe:
  - name: Single Infusion
    temp_min: 64
    temp_max: 68
    duration_seconds: 3600
control:
  heater: proportional
  timing_tick_ms: 1000
mqtt:
  heartbeat_seconds: -1
http:
  addr: "off"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	r := cfg.RecipeStages()
	require.Len(t, r, 1)
	assert.Equal(t, "Single Infusion", r[0].Name)
	assert.Equal(t, time.Hour, r[0].Duration)

	s := cfg.Settings()
	assert.Equal(t, logic.HeaterProportional, s.Policy.Heater)
	assert.Equal(t, logic.BoundClamp, s.Policy.Bounds, "unset field keeps default")
	assert.Equal(t, 200, s.Model.Deadzone)

	assert.Equal(t, time.Second, cfg.TimingTick())
	assert.Equal(t, time.Duration(0), cfg.Heartbeat())
	assert.Equal(t, "", cfg.HTTPAddr())
	assert.Equal(t, "gpiochip0", cfg.ButtonPins().Chip)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "mash.toml", `
[control]
bounds = "drift"
reignite = "derivative"
stage_entry = "carry"
debounce_ms = 20

[pins]
heater = 17

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.Settings()
	assert.Equal(t, logic.BoundDrift, s.Policy.Bounds)
	assert.Equal(t, logic.ReigniteDerivative, s.Policy.Reignite)
	assert.Equal(t, logic.EntryCarry, s.Policy.StageEntry)
	assert.Equal(t, 20*time.Millisecond, s.Debounce)
	assert.Equal(t, 17, cfg.OutputPins().Heater)
	assert.Equal(t, 11, cfg.OutputPins().Lamp)
	assert.Len(t, cfg.Recipe, 4)

	lvl, err := ParseLevel(cfg.Logging.Level)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "inverted stage",
			content: `
recipe:
  - {name: A, temp_min: 50, temp_max: 55}
  - {name: B, temp_min: 70, temp_max: 60}
`,
			wantErr: "recipe[1].temp_max must be > temp_min",
		},
		{
			name:    "unnamed stage",
			content: "recipe:\n  - {temp_min: 50, temp_max: 55}\n",
			wantErr: "recipe[0].name",
		},
		{
			name:    "unknown heater",
			content: "control:\n  heater: pid\n",
			wantErr: "unknown heater policy",
		},
		{
			name:    "pulse longer than period",
			content: "control:\n  alarm_period_ms: 100\n  alarm_pulse_ms: 250\n",
			wantErr: "alarm pulse",
		},
		{
			name:    "negative tick",
			content: "control:\n  tick_ms: -5\n",
			wantErr: "control.tick_ms",
		},
		{
			name:    "duration beyond time.Duration",
			content: "recipe:\n  - {name: A, temp_min: 50, temp_max: 55, duration_seconds: 10000000000000}\n",
			wantErr: "recipe[0].duration_seconds must be <=",
		},
		{
			name:    "zero calibration samples",
			content: "control:\n  calibration_samples: 0\n",
			wantErr: "control.calibration_samples",
		},
		{
			name:    "bad level",
			content: "logging:\n  level: verbose\n",
			wantErr: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "mash.yaml", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	path := writeFile(t, "mash.yaml", `
control:
  tolerance_fraction: 0
  deadzone: 0
  debounce_ms: 0
  alarm_pulse_ms: 0
pins:
  advance: 0
mqtt:
  heartbeat_seconds: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.Settings()
	assert.Equal(t, 0.0, s.Policy.ToleranceFraction)
	assert.Equal(t, 0, s.Model.Deadzone)
	assert.Equal(t, time.Duration(0), s.Debounce)
	assert.Equal(t, time.Duration(0), s.AlarmPulse)
	assert.Equal(t, 0, cfg.ButtonPins().Advance)
	assert.Equal(t, time.Duration(0), cfg.Heartbeat())

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 4095.0, s.Model.FullScale)
	assert.Equal(t, time.Second, s.AlarmPeriod)
	assert.Equal(t, 6, cfg.ButtonPins().Select)
	assert.Len(t, cfg.Recipe, 4)
}

func TestLoadTOMLRecipeReplacesDefault(t *testing.T) {
	path := writeFile(t, "mash.toml", `
[[recipe]]
name = "Step One"
temp_min = 60
temp_max = 64
duration_seconds = 30

[[recipe]]
name = "Step Two"
temp_min = 70
temp_max = 72
duration_seconds = 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	r := cfg.RecipeStages()
	require.Len(t, r, 2)
	assert.Equal(t, "Step One", r[0].Name)
	assert.Equal(t, 10*time.Second, r[1].Duration)
}

func TestLoadRejectsMalformed(t *testing.T) {
	_, err := Load(writeFile(t, "mash.toml", "[control\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "mash.yml", "control: [unclosed\n"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"error": slog.LevelError,
		"WARN":  slog.LevelWarn,
		"info":  slog.LevelInfo,
		"debug": slog.LevelDebug,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
