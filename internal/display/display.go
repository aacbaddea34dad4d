// Package display renders the controller screens as text.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sweeney/mash-controller/internal/logic"
)

// Sink shows one rendered frame per tick.
type Sink interface {
	Render(state logic.ProcessState, ctx logic.RuntimeContext, stage logic.StageSpec) error
}

// Lines returns the screen text for a state.
func Lines(state logic.ProcessState, ctx logic.RuntimeContext, stage logic.StageSpec) []string {
	if !state.IsRunning() {
		return []string{
			"Select:",
			stage.Name,
			"A:Next  B:Sel",
		}
	}

	flame := "OFF"
	if ctx.FlameActive {
		flame = "ON"
	}
	return []string{
		fmt.Sprintf("T: %.1f°C", ctx.Temperature),
		stage.Name,
		fmt.Sprintf("Time: %ds", seconds(ctx.StageElapsed)),
		fmt.Sprintf("Total: %ds", seconds(ctx.TotalElapsed)),
		fmt.Sprintf("Flame: %s", flame),
	}
}

// seconds truncates toward zero like an unsigned seconds counter.
func seconds(d time.Duration) int64 {
	return int64(d / time.Second)
}

// WriterSink prints a frame to w whenever the text changes.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	last string
}

// NewWriterSink creates a WriterSink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Render writes the frame if it differs from the previous one.
func (s *WriterSink) Render(state logic.ProcessState, ctx logic.RuntimeContext, stage logic.StageSpec) error {
	frame := strings.Join(Lines(state, ctx, stage), "\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	if frame == s.last {
		return nil
	}
	s.last = frame
	if _, err := fmt.Fprintf(s.w, "[%s]\n%s\n", state, frame); err != nil {
		return fmt.Errorf("write display frame: %w", err)
	}
	return nil
}

// Frame returns the most recently written frame.
func (s *WriterSink) Frame() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Apply renders the first render command in cmds.
func Apply(sink Sink, cmds []logic.Command) error {
	for _, c := range cmds {
		if r, ok := c.(logic.CmdRender); ok {
			return sink.Render(r.State, r.Context, r.Stage)
		}
	}
	return nil
}
