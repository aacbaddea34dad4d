// Package config handles loading, defaulting and validation of the
// controller configuration file. YAML and TOML are both accepted; the
// format follows the file extension.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/mash-controller/internal/gpio"
	"github.com/sweeney/mash-controller/internal/indicator"
	"github.com/sweeney/mash-controller/internal/logic"
)

// Config is the top-level configuration.
type Config struct {
	Recipe   []StageConfig  `yaml:"recipe"   toml:"recipe"`
	Control  ControlConfig  `yaml:"control"  toml:"control"`
	Pins     PinsConfig     `yaml:"pins"     toml:"pins"`
	Joystick JoystickConfig `yaml:"joystick" toml:"joystick"`
	MQTT     MQTTConfig     `yaml:"mqtt"     toml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"     toml:"http"`
	Logging  LoggingConfig  `yaml:"logging"  toml:"logging"`
}

type StageConfig struct {
	Name            string  `yaml:"name"             toml:"name"`
	TempMin         float64 `yaml:"temp_min"         toml:"temp_min"`
	TempMax         float64 `yaml:"temp_max"         toml:"temp_max"`
	DurationSeconds float64 `yaml:"duration_seconds" toml:"duration_seconds"`
}

type ControlConfig struct {
	TickMs             int     `yaml:"tick_ms"              toml:"tick_ms"`
	TimingTickMs       int     `yaml:"timing_tick_ms"       toml:"timing_tick_ms"` // 0 = same as tick_ms
	DebounceMs         int     `yaml:"debounce_ms"          toml:"debounce_ms"`
	Deadzone           int     `yaml:"deadzone"             toml:"deadzone"`
	FullScale          float64 `yaml:"full_scale"           toml:"full_scale"`
	Gain               float64 `yaml:"gain"                 toml:"gain"`
	ToleranceFraction  float64 `yaml:"tolerance_fraction"   toml:"tolerance_fraction"`
	Bounds             string  `yaml:"bounds"               toml:"bounds"`
	Heater             string  `yaml:"heater"               toml:"heater"`
	Reignite           string  `yaml:"reignite"             toml:"reignite"`
	StageEntry         string  `yaml:"stage_entry"          toml:"stage_entry"`
	ProportionalBase   float64 `yaml:"proportional_base"    toml:"proportional_base"`
	CalibrationSamples int     `yaml:"calibration_samples"  toml:"calibration_samples"`
	CalibrationDelayMs int     `yaml:"calibration_delay_ms" toml:"calibration_delay_ms"`
	AlarmPeriodMs      int     `yaml:"alarm_period_ms"      toml:"alarm_period_ms"`
	AlarmPulseMs       int     `yaml:"alarm_pulse_ms"       toml:"alarm_pulse_ms"`
}

// PinsConfig holds line offsets on one gpio chip.
type PinsConfig struct {
	Chip    string `yaml:"chip"    toml:"chip"`
	Advance int    `yaml:"advance" toml:"advance"`
	Select  int    `yaml:"select"  toml:"select"`
	Reset   int    `yaml:"reset"   toml:"reset"`
	Heater  int    `yaml:"heater"  toml:"heater"`
	Lamp    int    `yaml:"lamp"    toml:"lamp"`
	Buzzer  int    `yaml:"buzzer"  toml:"buzzer"`
	Flame   int    `yaml:"flame"   toml:"flame"`
}

type JoystickConfig struct {
	Port     string `yaml:"port"      toml:"port"`
	BaudRate int    `yaml:"baud_rate" toml:"baud_rate"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"    toml:"broker"`
	ClientID string `yaml:"client_id" toml:"client_id"`
	// HeartbeatSeconds of 0 or less disables heartbeats.
	HeartbeatSeconds int `yaml:"heartbeat_seconds" toml:"heartbeat_seconds"`
}

type HTTPConfig struct {
	// Addr "off" disables the status server.
	Addr string `yaml:"addr" toml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level" toml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	def := logic.DefaultSettings()
	recipe := logic.DefaultRecipe()
	stages := make([]StageConfig, len(recipe))
	for i, s := range recipe {
		stages[i] = StageConfig{
			Name:            s.Name,
			TempMin:         s.TempMin,
			TempMax:         s.TempMax,
			DurationSeconds: s.Duration.Seconds(),
		}
	}

	return Config{
		Recipe: stages,
		Control: ControlConfig{
			TickMs:             50,
			TimingTickMs:       0,
			DebounceMs:         int(def.Debounce.Milliseconds()),
			Deadzone:           def.Model.Deadzone,
			FullScale:          def.Model.FullScale,
			Gain:               def.Model.Gain,
			ToleranceFraction:  def.Policy.ToleranceFraction,
			Bounds:             string(def.Policy.Bounds),
			Heater:             string(def.Policy.Heater),
			Reignite:           string(def.Policy.Reignite),
			StageEntry:         string(def.Policy.StageEntry),
			ProportionalBase:   def.Policy.ProportionalBase,
			CalibrationSamples: 100,
			CalibrationDelayMs: 5,
			AlarmPeriodMs:      int(def.AlarmPeriod.Milliseconds()),
			AlarmPulseMs:       int(def.AlarmPulse.Milliseconds()),
		},
		Pins: PinsConfig{
			Chip:    "gpiochip0",
			Advance: gpio.DefaultPinAdvance,
			Select:  gpio.DefaultPinSelect,
			Reset:   gpio.DefaultPinReset,
			Heater:  indicator.DefaultPinHeater,
			Lamp:    indicator.DefaultPinLamp,
			Buzzer:  indicator.DefaultPinBuzzer,
			Flame:   indicator.DefaultPinFlame,
		},
		Joystick: JoystickConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 115200,
		},
		MQTT: MQTTConfig{
			Broker:           "tcp://192.168.1.200:1883",
			ClientID:         "mash-controller",
			HeartbeatSeconds: 900,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the file at path, layers it on top of the defaults and
// validates the result. An empty path returns the defaults. Keys missing
// from the file keep their default; keys present keep their value, zero
// included.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	// [[recipe]] tables append to an existing slice, so decode the recipe
	// onto nothing and let ensureDefaults restore it.
	cfg.Recipe = nil
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.ensureDefaults()

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ensureDefaults restores the default recipe when the file gives an empty one.
func (c *Config) ensureDefaults() {
	if len(c.Recipe) == 0 {
		c.Recipe = Default().Recipe
	}
}

// maxDurationSeconds is the longest stage hold a time.Duration can represent.
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

func (c Config) validate() error {
	for i, s := range c.Recipe {
		switch {
		case s.Name == "":
			return fmt.Errorf("recipe[%d].name must not be empty", i)
		case s.TempMin < 0:
			return fmt.Errorf("recipe[%d].temp_min must be >= 0", i)
		case s.TempMax <= s.TempMin:
			return fmt.Errorf("recipe[%d].temp_max must be > temp_min", i)
		case s.DurationSeconds < 0:
			return fmt.Errorf("recipe[%d].duration_seconds must be >= 0", i)
		case s.DurationSeconds > float64(maxDurationSeconds):
			return fmt.Errorf("recipe[%d].duration_seconds must be <= %d", i, maxDurationSeconds)
		}
	}

	ctl := c.Control
	switch {
	case ctl.TickMs <= 0:
		return fmt.Errorf("control.tick_ms must be > 0")
	case ctl.TimingTickMs < 0:
		return fmt.Errorf("control.timing_tick_ms must be >= 0")
	case ctl.CalibrationSamples <= 0:
		return fmt.Errorf("control.calibration_samples must be > 0")
	case ctl.CalibrationDelayMs < 0:
		return fmt.Errorf("control.calibration_delay_ms must be >= 0")
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("control: %w", err)
	}

	p := c.Pins
	if p.Chip == "" {
		return fmt.Errorf("pins.chip must not be empty")
	}
	for name, offset := range map[string]int{
		"advance": p.Advance, "select": p.Select, "reset": p.Reset,
		"heater": p.Heater, "lamp": p.Lamp, "buzzer": p.Buzzer, "flame": p.Flame,
	} {
		if offset < 0 {
			return fmt.Errorf("pins.%s must be >= 0", name)
		}
	}

	if c.Joystick.BaudRate <= 0 {
		return fmt.Errorf("joystick.baud_rate must be > 0")
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// RecipeStages converts the recipe section into core stage specs.
func (c Config) RecipeStages() logic.Recipe {
	r := make(logic.Recipe, len(c.Recipe))
	for i, s := range c.Recipe {
		r[i] = logic.StageSpec{
			Name:     s.Name,
			TempMin:  s.TempMin,
			TempMax:  s.TempMax,
			Duration: time.Duration(s.DurationSeconds * float64(time.Second)),
		}
	}
	return r
}

// Settings converts the control section into core settings.
func (c Config) Settings() logic.Settings {
	ctl := c.Control
	return logic.Settings{
		Policy: logic.Policy{
			Bounds:            logic.BoundPolicy(ctl.Bounds),
			Heater:            logic.HeaterPolicy(ctl.Heater),
			Reignite:          logic.ReignitePolicy(ctl.Reignite),
			StageEntry:        logic.StageEntryPolicy(ctl.StageEntry),
			ToleranceFraction: ctl.ToleranceFraction,
			ProportionalBase:  ctl.ProportionalBase,
		},
		Model: logic.TemperatureModel{
			Deadzone:  ctl.Deadzone,
			FullScale: ctl.FullScale,
			Gain:      ctl.Gain,
		},
		Debounce:    ms(ctl.DebounceMs),
		AlarmPeriod: ms(ctl.AlarmPeriodMs),
		AlarmPulse:  ms(ctl.AlarmPulseMs),
	}
}

// Tick is the loop interval.
func (c Config) Tick() time.Duration {
	return ms(c.Control.TickMs)
}

// TimingTick is the loop interval while a stage timer is counting.
func (c Config) TimingTick() time.Duration {
	if c.Control.TimingTickMs == 0 {
		return c.Tick()
	}
	return ms(c.Control.TimingTickMs)
}

// CalibrationDelay is the pause between calibration samples.
func (c Config) CalibrationDelay() time.Duration {
	return ms(c.Control.CalibrationDelayMs)
}

// Heartbeat is the system heartbeat interval; 0 disables it.
func (c Config) Heartbeat() time.Duration {
	if c.MQTT.HeartbeatSeconds <= 0 {
		return 0
	}
	return time.Duration(c.MQTT.HeartbeatSeconds) * time.Second
}

// HTTPAddr is the status server address; empty disables it.
func (c Config) HTTPAddr() string {
	if c.HTTP.Addr == "off" {
		return ""
	}
	return c.HTTP.Addr
}

// ButtonPins returns the input line offsets.
func (c Config) ButtonPins() gpio.Pins {
	return gpio.Pins{Chip: c.Pins.Chip, Advance: c.Pins.Advance, Select: c.Pins.Select, Reset: c.Pins.Reset}
}

// OutputPins returns the output line offsets.
func (c Config) OutputPins() indicator.Pins {
	return indicator.Pins{Chip: c.Pins.Chip, Heater: c.Pins.Heater, Lamp: c.Pins.Lamp, Buzzer: c.Pins.Buzzer, Flame: c.Pins.Flame}
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
