// Command mash-controller runs the multi-stage mash temperature controller:
// it reads the buttons and joystick, drives the heater and completion
// indicators, and publishes process telemetry to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/mash-controller/internal/adc"
	"github.com/sweeney/mash-controller/internal/config"
	"github.com/sweeney/mash-controller/internal/display"
	"github.com/sweeney/mash-controller/internal/gpio"
	"github.com/sweeney/mash-controller/internal/indicator"
	"github.com/sweeney/mash-controller/internal/logic"
	"github.com/sweeney/mash-controller/internal/mqtt"
	"github.com/sweeney/mash-controller/internal/status"
	"github.com/sweeney/mash-controller/internal/web"
)

// publishQueueSize is how many telemetry messages may wait for the broker.
const publishQueueSize = 256

func main() {
	configPath := pflag.StringP("config", "c", "", "Path to YAML or TOML config (empty for defaults)")
	httpAddr := pflag.String("http", "", `HTTP status address, overrides http.addr ("off" disables)`)
	broker := pflag.String("broker", "", "MQTT broker address, overrides mqtt.broker")
	logLevel := pflag.String("log-level", "", "Log level (error|warn|info|debug), overrides logging.level")
	printInputs := pflag.Bool("print-inputs", false, "Print current inputs and exit")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if pflag.CommandLine.Changed("http") {
		cfg.HTTP.Addr = *httpAddr
	}
	if pflag.CommandLine.Changed("broker") {
		cfg.MQTT.Broker = *broker
	}
	if pflag.CommandLine.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	level, err := config.ParseLevel(cfg.Logging.Level)
	if err != nil {
		slog.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(setupLogger(level))

	if err := run(cfg, *printInputs); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// setupLogger creates a text logger at the given level.
func setupLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func run(cfg config.Config, printInputs bool) error {
	// Joystick ADC stream
	axes := adc.New(cfg.Joystick.Port, cfg.Joystick.BaudRate)
	if err := axes.Connect(); err != nil {
		return fmt.Errorf("init joystick: %w", err)
	}
	defer axes.Close()

	// Buttons
	reader, err := gpio.NewRealReader(cfg.ButtonPins(), axes)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if err := waitForSample(axes, 2*time.Second); err != nil {
		return fmt.Errorf("joystick: %w", err)
	}

	if printInputs {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read inputs: %w", err)
		}
		fmt.Println(formatSample(s))
		return nil
	}

	center, err := gpio.CalibrateCenter(reader, gpio.AxisY, cfg.Control.CalibrationSamples, cfg.CalibrationDelay(), time.Sleep)
	if err != nil {
		return fmt.Errorf("calibrate joystick: %w", err)
	}
	slog.Info("joystick calibrated", "center", center)

	recipe := cfg.RecipeStages()
	ctrl, err := logic.NewController(recipe, cfg.Settings(), center)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	sink, err := indicator.NewRealSink(cfg.OutputPins())
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer sink.Close()

	// The loop must never wait on the broker; publishes go through a queue.
	publisher := mqtt.NewAsync(mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID), publishQueueSize)
	defer publisher.Close()

	// Status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), recipe, center, statusConfig(cfg))

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		slog.Warn("failed to publish startup event", "error", err)
	}

	var hub *web.Hub
	if addr := cfg.HTTPAddr(); addr != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		hub = web.NewHub(tracker)
		go hub.Run(ctx)

		srv := web.New(addr, tracker, hub)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		slog.Info("http status server listening", "addr", addr)
	}

	slog.Info("started",
		"tick", cfg.Tick(), "timing_tick", cfg.TimingTick(), "debounce", cfg.Settings().Debounce,
		"stages", len(recipe), "broker", cfg.MQTT.Broker, "heartbeat", cfg.Heartbeat())

	ticker := time.NewTicker(cfg.Tick())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	outputs := collaborators{
		display:     display.NewWriterSink(os.Stdout),
		sink:        sink,
		publisher:   publisher,
		mqttStatus:  publisher,
		tracker:     tracker,
		tick:        cfg.Tick(),
		timingTick:  cfg.TimingTick(),
		setInterval: ticker.Reset,
	}
	if hub != nil {
		outputs.feed = hub
	}
	return runLoop(reader, ctrl, outputs, cfg.Heartbeat(), time.Now, ticker.C, sigCh)
}

// feed receives the status whenever it visibly changes.
type feed interface {
	BroadcastSnapshot(snap status.Snapshot)
}

// collaborators are everything runLoop writes to. Nil fields are skipped.
type collaborators struct {
	display    display.Sink
	sink       indicator.Sink
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	feed       feed

	// tick is the normal interval, timingTick the interval while a stage
	// timer counts. setInterval is called when the required one changes.
	tick        time.Duration
	timingTick  time.Duration
	setInterval func(time.Duration)
}

func runLoop(reader gpio.Reader, ctrl *logic.Controller, out collaborators, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime
	interval := out.tick

	for {
		select {
		case s := <-sig:
			slog.Info("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if out.tracker != nil {
				if out.mqttStatus != nil {
					out.tracker.SetMQTTConnected(out.mqttStatus.IsConnected())
				}
				event.RawPayload = status.FormatStatusEvent(out.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := out.publisher.PublishSystem(event); err != nil {
				slog.Warn("failed to publish shutdown event", "error", err)
			}
			return nil

		case <-tick:
			t := now()
			sample, err := reader.Read()
			if err != nil {
				slog.Warn("input read error", "error", err)
				continue
			}

			res := ctrl.Process(logic.Input{
				Advance: sample.Advance,
				Select:  sample.Select,
				Reset:   sample.Reset,
				Axis:    sample.Axis(gpio.AxisY),
				Time:    t,
			})

			if out.display != nil {
				if err := display.Apply(out.display, res.Commands); err != nil {
					slog.Warn("display error", "error", err)
				}
			}
			if out.sink != nil {
				if err := indicator.Apply(out.sink, res.Commands); err != nil {
					slog.Warn("indicator error", "error", err)
				}
			}

			for _, event := range res.Events {
				slog.Info("event", "type", event.Type, "stage", event.Stage,
					"temperature", fmt.Sprintf("%.1f", event.Temperature), "total", event.TotalElapsed.Truncate(time.Second))
				if err := out.publisher.Publish(event); err != nil {
					// Don't stop the loop on publish failure
					slog.Warn("publish error", "error", err)
				}
			}

			if out.tracker != nil {
				if out.mqttStatus != nil {
					out.tracker.SetMQTTConnected(out.mqttStatus.IsConnected())
				}
				if out.tracker.Update(res) && out.feed != nil {
					out.feed.BroadcastSnapshot(out.tracker.Snapshot())
				}
			}

			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t
				hbEvent := mqtt.SystemEvent{Timestamp: t, Event: "HEARTBEAT"}
				if out.tracker != nil {
					hbEvent.RawPayload = status.FormatStatusEvent(out.tracker.Snapshot(), "HEARTBEAT", "")
				}
				slog.Debug("heartbeat", "uptime", t.Sub(startTime), "state", res.State)
				if err := out.publisher.PublishSystem(hbEvent); err != nil {
					slog.Warn("heartbeat publish error", "error", err)
				}
			}

			want := out.tick
			if ctrl.Machine().Timing() && out.timingTick > 0 {
				want = out.timingTick
			}
			if want != interval && want > 0 {
				interval = want
				if out.setInterval != nil {
					out.setInterval(interval)
				}
			}
		}
	}
}

// waitForSample blocks until the joystick has produced a sample.
func waitForSample(axes gpio.AxisReader, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := axes.ReadAxis(gpio.AxisY)
		if err == nil {
			return nil
		}
		if !errors.Is(err, adc.ErrNoSample) || time.Now().After(deadline) {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func statusConfig(cfg config.Config) status.Config {
	ctl := cfg.Control
	return status.Config{
		TickMs:       cfg.Tick().Milliseconds(),
		TimingTickMs: cfg.TimingTick().Milliseconds(),
		DebounceMs:   int64(ctl.DebounceMs),
		HeartbeatMs:  cfg.Heartbeat().Milliseconds(),
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTPAddr(),
		Bounds:       ctl.Bounds,
		Heater:       ctl.Heater,
		Reignite:     ctl.Reignite,
		StageEntry:   ctl.StageEntry,
	}
}

func buttonString(released bool) string {
	if released {
		return "released"
	}
	return "pressed"
}

func formatSample(s gpio.Sample) string {
	return fmt.Sprintf("A: %s, B: %s, RESET: %s, X: %d, Y: %d",
		buttonString(s.Advance), buttonString(s.Select), buttonString(s.Reset), s.X, s.Y)
}
