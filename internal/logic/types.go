// Package logic contains the pure mash process controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"fmt"
	"time"
)

// StageSpec is one phase of the mash recipe.
type StageSpec struct {
	Name     string
	TempMin  float64
	TempMax  float64
	Duration time.Duration
}

// Recipe is the ordered stage table. Index order is process order.
type Recipe []StageSpec

// DefaultRecipe returns the reference four-stage infusion mash.
func DefaultRecipe() Recipe {
	return Recipe{
		{Name: "Protein Rest", TempMin: 50, TempMax: 55, Duration: 15 * time.Second},
		{Name: "Beta Amylase", TempMin: 55, TempMax: 65, Duration: 60 * time.Second},
		{Name: "Alpha Amylase", TempMin: 68, TempMax: 73, Duration: 20 * time.Second},
		{Name: "Mash Out", TempMin: 75, TempMax: 79, Duration: 5 * time.Second},
	}
}

// Validate reports the first malformed stage.
func (r Recipe) Validate() error {
	if len(r) == 0 {
		return errors.New("recipe has no stages")
	}
	for i, s := range r {
		if s.Name == "" {
			return fmt.Errorf("stage %d: empty name", i)
		}
		if s.TempMin < 0 {
			return fmt.Errorf("stage %d (%s): temp_min must be >= 0", i, s.Name)
		}
		if s.TempMax <= s.TempMin {
			return fmt.Errorf("stage %d (%s): temp_max must be > temp_min", i, s.Name)
		}
		if s.Duration < 0 {
			return fmt.Errorf("stage %d (%s): negative duration", i, s.Name)
		}
	}
	return nil
}

// Mode tags the active ProcessState variant.
type Mode int

const (
	ModeMenu Mode = iota
	ModeRunning
)

func (m Mode) String() string {
	switch m {
	case ModeMenu:
		return "MENU"
	case ModeRunning:
		return "RUNNING"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ProcessState is either Menu{selected} or Running{stage}.
// Index holds the selected stage in Menu and the active stage in Running.
type ProcessState struct {
	Mode  Mode
	Index int
}

// Menu returns the menu state with the given stage highlighted.
func Menu(selected int) ProcessState {
	return ProcessState{Mode: ModeMenu, Index: selected}
}

// Running returns the state for an active stage.
func Running(stage int) ProcessState {
	return ProcessState{Mode: ModeRunning, Index: stage}
}

func (s ProcessState) String() string {
	if s.Mode == ModeMenu {
		return fmt.Sprintf("Menu(%d)", s.Index)
	}
	return fmt.Sprintf("Running(%d)", s.Index)
}

// IsRunning reports whether a stage is active.
func (s ProcessState) IsRunning() bool {
	return s.Mode == ModeRunning
}

// RuntimeContext is the mutable process data owned by the Machine.
// Zero instants mean "unset".
type RuntimeContext struct {
	Temperature float64

	FlameActive bool
	Intensity   float64 // 0..1, nonzero only while FlameActive
	FlameFrame  int     // animation frame 0..3

	StageElapsed time.Duration
	TotalElapsed time.Duration

	FirstTargetReached bool
	TimerRunning       bool
	TimerFinished      bool

	StageTimerStart time.Time
	TotalTimerStart time.Time
}
