package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string      `json:"event,omitempty"`
	Reason         string      `json:"reason,omitempty"`
	State          string      `json:"state"`
	Mode           string      `json:"mode"`
	StageIndex     int         `json:"stage_index"`
	Stage          StageJSON   `json:"stage"`
	Temperature    float64     `json:"temperature"`
	Flame          FlameJSON   `json:"flame"`
	Timer          TimerJSON   `json:"timer"`
	Lamp           bool        `json:"lamp"`
	Alarm          bool        `json:"alarm"`
	Display        []string    `json:"display"`
	JoystickCenter int         `json:"joystick_center"`
	LastEvent      string      `json:"last_event,omitempty"`
	UptimeSeconds  int64       `json:"uptime_seconds"`
	StartTime      string      `json:"start_time"`
	Timestamp      string      `json:"timestamp"`
	MQTT           MQTTStatus  `json:"mqtt"`
	Counts         CountsJSON  `json:"event_counts"`
	Recipe         []StageJSON `json:"recipe"`
	Config         ConfigJSON  `json:"config"`
}

// StageJSON describes one stage.
type StageJSON struct {
	Name            string  `json:"name"`
	TempMin         float64 `json:"temp_min"`
	TempMax         float64 `json:"temp_max"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// FlameJSON reports the heater.
type FlameJSON struct {
	Active    bool    `json:"active"`
	Intensity float64 `json:"intensity"`
	Frame     int     `json:"frame"`
}

// TimerJSON reports stage and total timers.
type TimerJSON struct {
	TargetReached       bool    `json:"target_reached"`
	Running             bool    `json:"running"`
	Finished            bool    `json:"finished"`
	StageElapsedSeconds float64 `json:"stage_elapsed_seconds"`
	TotalElapsedSeconds float64 `json:"total_elapsed_seconds"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ProcessStarted  int `json:"process_started"`
	StageStarted    int `json:"stage_started"`
	TargetReached   int `json:"target_reached"`
	StageFinished   int `json:"stage_finished"`
	ProcessComplete int `json:"process_complete"`
	ProcessAborted  int `json:"process_aborted"`
	Reset           int `json:"reset"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs       int64  `json:"tick_ms"`
	TimingTickMs int64  `json:"timing_tick_ms"`
	DebounceMs   int64  `json:"debounce_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
	Bounds       string `json:"bounds"`
	Heater       string `json:"heater"`
	Reignite     string `json:"reignite"`
	StageEntry   string `json:"stage_entry"`
}

func buildInner(snap Snapshot) StatusInner {
	ctx := snap.Context
	var last string
	if snap.LastEvent != nil {
		last = string(snap.LastEvent.Type)
	}
	recipe := make([]StageJSON, len(snap.Recipe))
	for i, s := range snap.Recipe {
		recipe[i] = stageJSON(s.Name, s.TempMin, s.TempMax, s.Duration)
	}
	display := snap.Display
	if display == nil {
		display = []string{}
	}

	c := snap.Counts
	return StatusInner{
		State:       snap.State.String(),
		Mode:        snap.State.Mode.String(),
		StageIndex:  snap.State.Index,
		Stage:       stageJSON(snap.Stage.Name, snap.Stage.TempMin, snap.Stage.TempMax, snap.Stage.Duration),
		Temperature: math.Round(ctx.Temperature*10) / 10,
		Flame: FlameJSON{
			Active:    ctx.FlameActive,
			Intensity: ctx.Intensity,
			Frame:     ctx.FlameFrame,
		},
		Timer: TimerJSON{
			TargetReached:       ctx.FirstTargetReached,
			Running:             ctx.TimerRunning,
			Finished:            ctx.TimerFinished,
			StageElapsedSeconds: ctx.StageElapsed.Seconds(),
			TotalElapsedSeconds: ctx.TotalElapsed.Seconds(),
		},
		Lamp:           snap.Lamp,
		Alarm:          snap.Alarm,
		Display:        display,
		JoystickCenter: snap.Center,
		LastEvent:      last,
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ProcessStarted:  c.ProcessStarted,
			StageStarted:    c.StageStarted,
			TargetReached:   c.TargetReached,
			StageFinished:   c.StageFinished,
			ProcessComplete: c.ProcessComplete,
			ProcessAborted:  c.ProcessAborted,
			Reset:           c.Reset,
		},
		Recipe: recipe,
		Config: ConfigJSON{
			TickMs:       snap.Config.TickMs,
			TimingTickMs: snap.Config.TimingTickMs,
			DebounceMs:   snap.Config.DebounceMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
			Bounds:       snap.Config.Bounds,
			Heater:       snap.Config.Heater,
			Reignite:     snap.Config.Reignite,
			StageEntry:   snap.Config.StageEntry,
		},
	}
}

func stageJSON(name string, lo, hi float64, d time.Duration) StageJSON {
	return StageJSON{Name: name, TempMin: lo, TempMax: hi, DurationSeconds: d.Seconds()}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
