package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/mash-controller/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func runningResult(temp float64, events ...logic.EventType) logic.Result {
	recipe := logic.DefaultRecipe()
	ctx := logic.RuntimeContext{
		Temperature:        temp,
		FlameActive:        true,
		Intensity:          1,
		StageElapsed:       3 * time.Second,
		TotalElapsed:       40 * time.Second,
		TimerRunning:       true,
		FirstTargetReached: true,
	}
	res := logic.Result{
		State:   logic.Running(1),
		Context: ctx,
		Commands: []logic.Command{
			logic.CmdRender{State: logic.Running(1), Context: ctx, Stage: recipe[1]},
			logic.CmdCompletionLamp{On: true},
			logic.CmdAlarm{Active: false},
		},
	}
	for _, et := range events {
		res.Events = append(res.Events, logic.Event{Type: et, Stage: recipe[1].Name, StageIndex: 1})
	}
	return res
}

func TestNewTracker(t *testing.T) {
	cfg := Config{TickMs: 50, DebounceMs: 50, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, logic.DefaultRecipe(), 2048, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.State != logic.Menu(0) {
		t.Errorf("State: got %v, want Menu(0)", snap.State)
	}
	if snap.Stage.Name != "Protein Rest" {
		t.Errorf("Stage: got %q", snap.Stage.Name)
	}
	if snap.Center != 2048 {
		t.Errorf("Center: got %d", snap.Center)
	}
	if len(snap.Display) != 3 || snap.Display[0] != "Select:" {
		t.Errorf("Display: got %v", snap.Display)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, logic.DefaultRecipe(), 2048, Config{})

	if !tr.Update(runningResult(60, logic.EventTargetReached)) {
		t.Error("expected first running result to be a change")
	}

	snap := tr.Snapshot()
	if snap.State != logic.Running(1) {
		t.Errorf("State: got %v", snap.State)
	}
	if snap.Stage.Name != "Beta Amylase" {
		t.Errorf("Stage: got %q", snap.Stage.Name)
	}
	if !snap.Lamp || snap.Alarm {
		t.Errorf("indicators: lamp=%v alarm=%v", snap.Lamp, snap.Alarm)
	}
	if snap.Counts.TargetReached != 1 {
		t.Errorf("Counts.TargetReached: got %d", snap.Counts.TargetReached)
	}
	if snap.LastEvent == nil || snap.LastEvent.Type != logic.EventTargetReached {
		t.Errorf("LastEvent: got %+v", snap.LastEvent)
	}
	if snap.Display[0] != "T: 60.0°C" {
		t.Errorf("Display: got %v", snap.Display)
	}
}

func TestUpdateReportsChanges(t *testing.T) {
	tr := NewTracker(start, logic.DefaultRecipe(), 2048, Config{})
	tr.Update(runningResult(60))

	if tr.Update(runningResult(60.01)) {
		t.Error("sub-display temperature change should not count as a change")
	}
	if !tr.Update(runningResult(60.2)) {
		t.Error("visible temperature change should count")
	}
	if !tr.Update(runningResult(60.2, logic.EventStageFinished)) {
		t.Error("an event should count as a change")
	}
}

func TestUpdateFallsBackToRecipeStage(t *testing.T) {
	tr := NewTracker(start, logic.DefaultRecipe(), 0, Config{})
	tr.Update(logic.Result{State: logic.Menu(2)})
	if got := tr.Snapshot().Stage.Name; got != "Alpha Amylase" {
		t.Errorf("Stage: got %q, want Alpha Amylase", got)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, logic.DefaultRecipe(), 0, Config{})
	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, logic.DefaultRecipe(), 0, Config{})
	tr.Update(runningResult(60, logic.EventReset))

	snap := tr.Snapshot()
	snap.Recipe[0].Name = "mutated"
	snap.Display[0] = "mutated"
	snap.LastEvent.Stage = "mutated"

	again := tr.Snapshot()
	if again.Recipe[0].Name == "mutated" || again.Display[0] == "mutated" || again.LastEvent.Stage == "mutated" {
		t.Error("snapshot shares memory with tracker")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(90 * time.Second)}
	if snap.Uptime() != 90*time.Second {
		t.Errorf("Uptime: got %v", snap.Uptime())
	}
}

func TestFormatJSON(t *testing.T) {
	tr := NewTracker(start, logic.DefaultRecipe(), 2050, Config{TickMs: 50, Heater: "hysteresis", Broker: "tcp://b:1883"})
	tr.Update(runningResult(62.46, logic.EventTargetReached))
	tr.SetMQTTConnected(true)
	snap := tr.Snapshot()
	snap.Now = start.Add(15 * time.Minute)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status

	if s.State != "Running(1)" || s.Mode != "RUNNING" || s.StageIndex != 1 {
		t.Errorf("state: %q %q %d", s.State, s.Mode, s.StageIndex)
	}
	if s.Temperature != 62.5 {
		t.Errorf("Temperature: got %v, want 62.5", s.Temperature)
	}
	if s.Stage.Name != "Beta Amylase" || s.Stage.DurationSeconds != 60 {
		t.Errorf("Stage: got %+v", s.Stage)
	}
	if !s.Flame.Active || s.Flame.Intensity != 1 {
		t.Errorf("Flame: got %+v", s.Flame)
	}
	if !s.Timer.Running || !s.Timer.TargetReached || s.Timer.StageElapsedSeconds != 3 {
		t.Errorf("Timer: got %+v", s.Timer)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("MQTT: got %+v", s.MQTT)
	}
	if s.Counts.TargetReached != 1 || s.LastEvent != "TARGET_REACHED" {
		t.Errorf("events: %+v last=%q", s.Counts, s.LastEvent)
	}
	if len(s.Recipe) != 4 || s.JoystickCenter != 2050 {
		t.Errorf("recipe/centre: %d %d", len(s.Recipe), s.JoystickCenter)
	}
	if s.Config.Heater != "hysteresis" {
		t.Errorf("Config.Heater: got %q", s.Config.Heater)
	}
	if s.Event != "" || s.Reason != "" {
		t.Errorf("expected no event/reason in web format, got %q/%q", s.Event, s.Reason)
	}
}

func TestFormatJSONEmptySnapshotHasDisplayArray(t *testing.T) {
	var raw map[string]map[string]any
	if err := json.Unmarshal(FormatJSON(Snapshot{}), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := raw["status"]["display"].([]any); !ok {
		t.Errorf("display should be an array, got %T", raw["status"]["display"])
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := NewTracker(start, logic.DefaultRecipe(), 0, Config{}).Snapshot()

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("got event=%q reason=%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := NewTracker(start, logic.DefaultRecipe(), 0, Config{}).Snapshot()

	var raw map[string]map[string]any
	json.Unmarshal(FormatStatusEvent(snap, "HEARTBEAT", ""), &raw)
	if _, ok := raw["status"]["reason"]; ok {
		t.Error("reason should be omitted when empty")
	}
	if raw["status"]["event"] != "HEARTBEAT" {
		t.Errorf("event: got %v", raw["status"]["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), logic.DefaultRecipe(), 2048, Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(runningResult(float64(55+i%10), logic.EventStageStarted))
			tr.SetMQTTConnected(i%2 == 0)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
